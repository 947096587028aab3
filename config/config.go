package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

const (
	// DefaultRoot is the data root hardcoded in the shipped compose file.
	// Bind-mount sources discovered under it are rebased onto Config.Root.
	DefaultRoot = "/data/docker"

	defaultComposeFile = "docker-compose.yml"
	defaultNetwork     = "homelab"
	defaultEnvFile     = ".env"
)

// Config is the explicit runtime configuration passed into every action.
// Precedence, highest first: command-line flag, .env file / process
// environment, built-in default.
type Config struct {
	// Root is the base directory holding every service's data directory.
	Root string `mapstructure:"data_root"`
	// ComposeFile is the compose file describing the stack.
	ComposeFile string `mapstructure:"compose_file"`
	// Network is the shared bridge network the stack attaches to.
	Network string `mapstructure:"network_name"`
}

// Load builds the configuration from the given env file (".env" when empty).
// A missing env file is not an error: defaults and the process environment
// still apply.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = defaultEnvFile
	}

	v := viper.New()
	v.SetDefault("data_root", DefaultRoot)
	v.SetDefault("compose_file", defaultComposeFile)
	v.SetDefault("network_name", defaultNetwork)

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(envFile); statErr == nil {
			return nil, fmt.Errorf("unable to parse %s: %w", envFile, err)
		}
		// no env file, keep going with defaults
	}

	v.AutomaticEnv()
	// AutomaticEnv does not make keys visible to Unmarshal, so bind each
	// one explicitly.
	for _, key := range []string{"data_root", "compose_file", "network_name"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	return cfg, nil
}

// ApplyFlags overrides loaded values with explicitly set command-line flags.
// Empty strings mean "flag not given".
func (c *Config) ApplyFlags(root, composeFile string) {
	if root != "" {
		c.Root = root
	}
	if composeFile != "" {
		c.ComposeFile = composeFile
	}
}
