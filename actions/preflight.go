package actions

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"stackport/domain"
	"stackport/engine"
	"stackport/ui"
)

const (
	minDiskBytes    = 50 * 1024 * 1024 * 1024
	minMemBytes     = 8 * 1024 * 1024 * 1024
	comfortMemBytes = 16 * 1024 * 1024 * 1024
)

// preflight runs the deploy checklist. Privilege, compose file presence and
// a reachable daemon are fatal; everything else is advisory.
func preflight(ctx context.Context, composeFile string) error {

	ui.Step("Preflight checks")

	fatal := false

	if os.Geteuid() == 0 {
		ui.Success("Running as root")
	} else {
		ui.Error("Not running as root")
		fatal = true
	}

	if _, err := os.Stat(composeFile); err == nil {
		ui.Success("Compose file present: %s", composeFile)
	} else {
		ui.Error("Compose file not found: %s", composeFile)
		fatal = true
	}

	if _, err := exec.LookPath("docker"); err == nil {
		ui.Success("Docker binary found")
	} else {
		ui.Error("Docker binary not found in PATH")
		fatal = true
	}

	if eng, err := engine.NewClient(); err != nil {
		ui.Error("Unable to create Docker client: %v", err)
		fatal = true
	} else {
		if err := eng.Ping(ctx); err != nil {
			ui.Error("Docker daemon not responding: %v", err)
			fatal = true
		} else if version, err := eng.ServerVersion(ctx); err == nil {
			ui.Success("Docker daemon running (v%s)", version)
		} else {
			ui.Success("Docker daemon running")
		}
		eng.Close()
	}

	// advisory from here on

	if out, err := domain.NewCommand([]string{"docker", "compose", "version", "--short"}).GetResult(); err == nil {
		ui.Success("Compose plugin v%s", out)
	} else {
		ui.Warn("Compose plugin not detected ('docker compose version' failed)")
	}

	if free, err := freeDiskBytes("."); err == nil {
		if free < minDiskBytes {
			ui.Warn("Low disk space: %s free (50 GB recommended)", humanize.Bytes(free))
		} else {
			ui.Success("Disk space: %s free", humanize.Bytes(free))
		}
	}

	if total, err := totalMemoryBytes(); err == nil {
		switch {
		case total < minMemBytes:
			ui.Warn("Low memory: %s (8 GB recommended)", humanize.Bytes(total))
		case total >= comfortMemBytes:
			ui.Success("Memory: %s", humanize.Bytes(total))
		default:
			ui.Info("Memory: %s (16 GB recommended for the full stack)", humanize.Bytes(total))
		}
	}

	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		ui.Info("NVIDIA GPU tooling detected")
	} else {
		ui.Info("No GPU tooling detected (GPU-backed services will run on CPU)")
	}

	if fatal {
		return fmt.Errorf("preflight checks failed")
	}
	return nil
}

func freeDiskBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

func totalMemoryBytes() (uint64, error) {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	return 0, fmt.Errorf("MemTotal not found in /proc/meminfo")
}
