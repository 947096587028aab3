package domain

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command wraps a child process whose output belongs on the operator's
// terminal (docker compose, mainly).
type Command struct {
	Name string
	Args []string
}

func NewCommand(list []string) Command {
	return Command{Name: list[0], Args: list[1:]}
}

// NewComposeCommand builds a "docker compose -f <file> ..." invocation.
// Compose is a CLI plugin, so it stays a child process rather than an API
// call.
func NewComposeCommand(composeFile string, args []string) Command {
	full := []string{"compose", "-f", composeFile}
	full = append(full, args...)
	return Command{Name: "docker", Args: full}
}

func (c Command) String() string {
	return fmt.Sprintf("%s %s", c.Name, strings.Join(c.Args, " "))
}

// Execute runs the command wired to the current terminal.
func (c Command) Execute() error {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	fmt.Printf("Executing: %s\n", c)

	return cmd.Run()
}

// GetResult runs the command and returns its trimmed standard output.
func (c Command) GetResult() (string, error) {
	cmd := exec.Command(c.Name, c.Args...)
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
