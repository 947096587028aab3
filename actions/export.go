package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Songmu/prompter"
	"github.com/dustin/go-humanize"

	"stackport/archive"
	"stackport/domain"
	"stackport/engine"
	"stackport/ui"
)

// ExportOptions configures 'stackport export'.
type ExportOptions struct {
	Root      string
	OutputDir string
	Services  []string
	Force     bool
	DryRun    bool
}

// ExportActionHandler archives the data directory of each selected service
// to <output>/<service>-volume.tar.gz. A running container is stopped for
// the duration of the archive and restarted afterwards, whether or not the
// archive succeeded.
func ExportActionHandler(opts ExportOptions) (*domain.Summary, error) {

	// unknown names fail the whole run before any container is touched
	services, err := domain.ResolveServices(opts.Services)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("no services selected for export")
	}

	if !opts.DryRun {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create output directory: %w", err)
		}
	}

	eng, err := engine.NewClient()
	if err != nil {
		return nil, err
	}
	defer eng.Close()
	ctx := context.Background()

	summary := &domain.Summary{}
	for _, svc := range services {
		summary.Add(exportService(ctx, eng, svc, opts))
	}

	ui.Info("Exported %d of %d services (%s)", summary.Count(domain.Done), summary.Total(), summary)
	return summary, nil
}

func exportService(ctx context.Context, eng *engine.Client, svc domain.Service, opts ExportOptions) domain.Result {

	dataDir := svc.DataDir(opts.Root)
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		ui.Warn("Skipping %s: directory %s does not exist", svc.Name, dataDir)
		return domain.Skip(svc.Name, "data directory missing")
	}

	containerName := svc.ContainerName()
	running, err := eng.ContainerRunning(ctx, containerName)
	if err != nil {
		ui.Warn("Unable to inspect container %s: %v", containerName, err)
	}

	archiveName := archive.VolumeArchiveName(svc.Name)

	if opts.DryRun {
		size := humanize.Bytes(uint64(dirSize(dataDir)))
		if running {
			ui.DryRun("Would export %s (%s) → %s, stopping container %s", svc.Name, size, archiveName, containerName)
		} else {
			ui.DryRun("Would export %s (%s) → %s", svc.Name, size, archiveName)
		}
		return domain.Skip(svc.Name, "dry run")
	}

	if running && !opts.Force {
		if !prompter.YN(fmt.Sprintf("Container '%s' is running. Stop it to export?", containerName), true) {
			ui.Warn("Skipping %s (declined)", svc.Name)
			return domain.Skip(svc.Name, "declined")
		}
	}

	if running {
		ui.Info("Stopping container %s", containerName)
		if err := eng.StopContainer(ctx, containerName); err != nil {
			// archive anyway, a warm copy beats no copy
			ui.Warn("Failed to stop %s: %v", containerName, err)
		}
	}

	ui.Info("Archiving %s → %s", dataDir, archiveName)
	archiveErr := archive.CreateVolumeArchive(opts.Root, svc.Name, filepath.Join(opts.OutputDir, archiveName))

	// restart before reporting, regardless of the archive outcome
	if running {
		ui.Info("Restarting container %s", containerName)
		if err := eng.StartContainer(ctx, containerName); err != nil {
			ui.Warn("Failed to restart %s: %v", containerName, err)
		}
	}

	if archiveErr != nil {
		ui.Error("Export failed for %s: %v", svc.Name, archiveErr)
		return domain.Fail(svc.Name, archiveErr)
	}

	ui.Success("Exported %s", archiveName)
	return domain.Completed(svc.Name)
}
