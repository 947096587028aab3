package actions

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jhoonb/archivex"

	"stackport/compose"
	"stackport/config"
	"stackport/domain"
	"stackport/ui"
)

// repoFiles is the fixed set of repository files copied into every bundle.
var repoFiles = []string{
	"docker-compose.yml",
	".env.example",
	"README.md",
	"LICENSE",
	"config",
	"scripts",
}

// BundleOptions configures 'stackport bundle'.
type BundleOptions struct {
	Cfg         *config.Config
	OutputDir   string
	Services    []string
	SkipImages  bool
	SkipVolumes bool
	Archive     bool
	DryRun      bool
}

// BundleActionHandler assembles a self-contained transfer directory:
// repository files, saved images under docker-images/ and forced volume
// exports under volume-exports/ for the selected services.
func BundleActionHandler(opts BundleOptions) (*domain.Summary, error) {

	services, err := domain.ResolveServices(opts.Services)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("no services selected for bundling")
	}

	composeFile, err := compose.Load(opts.Cfg.ComposeFile)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		ui.Step("Bundle plan for %s", opts.OutputDir)
		for _, f := range repoFiles {
			ui.DryRun("Would copy %s", f)
		}
		for _, svc := range services {
			if img, ok := composeFile.ImageForService(svc.Name); ok && !opts.SkipImages {
				ui.DryRun("Would save image %s", img)
			}
			if !opts.SkipVolumes {
				ui.DryRun("Would export volume of %s", svc.Name)
			}
		}
		return &domain.Summary{}, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create bundle directory: %w", err)
	}

	summary := &domain.Summary{}

	ui.Step("Copying repository files")
	for _, f := range repoFiles {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			ui.Warn("%s not found, skipping", f)
			summary.Add(domain.Skip(f, "missing"))
			continue
		}
		if err := copyTree(f, filepath.Join(opts.OutputDir, f)); err != nil {
			ui.Error("Unable to copy %s: %v", f, err)
			summary.Add(domain.Fail(f, err))
			continue
		}
		ui.Success("Copied %s", f)
		summary.Add(domain.Completed(f))
	}

	if opts.SkipImages {
		ui.Warn("Skipping image save (--skip-images)")
	} else {
		ui.Step("Saving images")
		images := []string{}
		for _, svc := range services {
			img, ok := composeFile.ImageForService(svc.Name)
			if !ok {
				// compose service without an image (build-only, or absent):
				// only image saving skips it, the volume export still runs
				ui.Warn("No image mapped to service %s, skipping its image", svc.Name)
				summary.Add(domain.Skip(svc.Name, "no image mapping"))
				continue
			}
			images = append(images, img)
		}
		if len(images) > 0 {
			imageSummary, err := saveImageSet(images, filepath.Join(opts.OutputDir, "docker-images"))
			if err != nil {
				return nil, err
			}
			summary.Results = append(summary.Results, imageSummary.Results...)
		}
	}

	if opts.SkipVolumes {
		ui.Warn("Skipping volume export (--skip-volumes)")
	} else {
		ui.Step("Exporting volumes")
		names := make([]string, 0, len(services))
		for _, svc := range services {
			names = append(names, svc.Name)
		}
		volumeSummary, err := ExportActionHandler(ExportOptions{
			Root:      opts.Cfg.Root,
			OutputDir: filepath.Join(opts.OutputDir, "volume-exports"),
			Services:  names,
			Force:     true,
		})
		if err != nil {
			return nil, err
		}
		summary.Results = append(summary.Results, volumeSummary.Results...)
	}

	if opts.Archive {
		ui.Step("Archiving bundle")
		tarball := opts.OutputDir + ".tar.gz"
		tar := new(archivex.TarFile)
		tar.Create(tarball)
		tar.AddAll(opts.OutputDir, true)
		tar.Close()
		ui.Success("Wrote %s", tarball)
	}

	ui.Step("Bundle summary")
	ui.Info("Output: %s (%s)", opts.OutputDir, humanize.Bytes(uint64(dirSize(opts.OutputDir))))
	ui.Info("Units: %s", summary)

	return summary, nil
}
