package actions

import (
	"fmt"
	"os"
	"path/filepath"

	"stackport/compose"
	"stackport/config"
	"stackport/domain"
	"stackport/ui"
)

// proxy static config shipped in the repository, installed into the data root
const (
	proxyConfigSource = "config/traefik/traefik.toml"
	proxyConfigTarget = "traefik/traefik.toml"
)

// SetupOptions configures 'stackport setup'.
type SetupOptions struct {
	ComposeFile string
	Root        string
	DryRun      bool
}

// SetupActionHandler creates every host directory the compose file
// bind-mounts, owned and restricted according to the service descriptor
// table, then installs the static reverse-proxy configuration. Needs root
// outside of dry-run mode.
func SetupActionHandler(opts SetupOptions) (*domain.Summary, error) {

	if !opts.DryRun && os.Geteuid() != 0 {
		return nil, fmt.Errorf("volume setup must run as root (try sudo, or --dry-run to preview)")
	}

	composeFile, err := compose.Load(opts.ComposeFile)
	if err != nil {
		return nil, err
	}

	paths := composeFile.HostPaths(config.DefaultRoot, opts.Root)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no bind mounts found in %s", opts.ComposeFile)
	}

	summary := &domain.Summary{}
	for _, path := range paths {
		summary.Add(setupPath(path, opts))
	}

	installProxyConfig(opts, summary)

	ui.Info("Prepared %d of %d directories (%s)", summary.Count(domain.Done), summary.Total(), summary)
	return summary, nil
}

func setupPath(path string, opts SetupOptions) domain.Result {

	dir := directoryForMount(path)

	uid, gid := 0, 0
	mode := os.FileMode(0755)
	if owner, ok := domain.OwnerForPath(dir, opts.Root); ok {
		uid, gid, mode = owner.UID, owner.GID, owner.DirMode
	}

	if opts.DryRun {
		ui.DryRun("Would create %s (uid=%d gid=%d mode=%o)", dir, uid, gid, mode)
		return domain.Skip(dir, "dry run")
	}

	// existing directories are left in place, ownership and mode are
	// reapplied either way
	if err := os.MkdirAll(dir, mode); err != nil {
		ui.Error("Unable to create %s: %v", dir, err)
		return domain.Fail(dir, err)
	}
	// ownership before permission narrowing
	if err := os.Chown(dir, uid, gid); err != nil {
		ui.Error("Unable to chown %s: %v", dir, err)
		return domain.Fail(dir, err)
	}
	if err := os.Chmod(dir, mode); err != nil {
		ui.Error("Unable to chmod %s: %v", dir, err)
		return domain.Fail(dir, err)
	}

	ui.Success("Prepared %s (uid=%d gid=%d mode=%o)", dir, uid, gid, mode)
	return domain.Completed(dir)
}

// directoryForMount maps a bind-mount source to the directory to create.
// A source ending in a filename means the directory is its parent, never
// the file itself.
func directoryForMount(path string) string {
	if filepath.Ext(filepath.Base(path)) != "" {
		return filepath.Dir(path)
	}
	return path
}

func installProxyConfig(opts SetupOptions, summary *domain.Summary) {

	target := filepath.Join(opts.Root, proxyConfigTarget)

	if _, err := os.Stat(proxyConfigSource); os.IsNotExist(err) {
		ui.Warn("Proxy config %s not found, skipping", proxyConfigSource)
		summary.Add(domain.Skip(proxyConfigSource, "source missing"))
		return
	}

	if opts.DryRun {
		ui.DryRun("Would install %s → %s (uid=0 gid=0 mode=644)", proxyConfigSource, target)
		summary.Add(domain.Skip(target, "dry run"))
		return
	}

	if err := copyFile(proxyConfigSource, target); err != nil {
		ui.Error("Unable to install proxy config: %v", err)
		summary.Add(domain.Fail(target, err))
		return
	}
	if err := os.Chown(target, 0, 0); err != nil {
		ui.Error("Unable to chown %s: %v", target, err)
		summary.Add(domain.Fail(target, err))
		return
	}
	if err := os.Chmod(target, 0644); err != nil {
		ui.Error("Unable to chmod %s: %v", target, err)
		summary.Add(domain.Fail(target, err))
		return
	}

	ui.Success("Installed %s", target)
	summary.Add(domain.Completed(target))
}
