package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"stackport/archive"
	"stackport/compose"
	"stackport/domain"
	"stackport/engine"
	"stackport/ui"
)

// SaveImagesOptions configures 'stackport save'.
type SaveImagesOptions struct {
	ComposeFile string
	OutputDir   string
	Filter      string
	DryRun      bool
}

// SaveImagesActionHandler pulls every image referenced by the compose file
// and serializes each one to <output>/<sanitized-ref>.tar.
func SaveImagesActionHandler(opts SaveImagesOptions) (*domain.Summary, error) {

	composeFile, err := compose.Load(opts.ComposeFile)
	if err != nil {
		return nil, err
	}

	images := []string{}
	for _, img := range composeFile.Images() {
		if matchFilter(img, opts.Filter) {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no images found in %s matching filter '%s'", opts.ComposeFile, opts.Filter)
	}

	if opts.DryRun {
		for _, img := range images {
			ui.DryRun("Would save %s → %s", img, filepath.Join(opts.OutputDir, archive.ImageArchiveName(img)))
		}
		return &domain.Summary{}, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}

	return saveImageSet(images, opts.OutputDir)
}

// saveImageSet is the shared pull-and-save loop used by 'save' and
// 'bundle'. A failed pull or save only fails that image.
func saveImageSet(images []string, outputDir string) (*domain.Summary, error) {
	eng, err := engine.NewClient()
	if err != nil {
		return nil, err
	}
	defer eng.Close()
	ctx := context.Background()

	summary := &domain.Summary{}
	for _, img := range images {
		ui.Info("Pulling %s", img)
		if err := eng.Pull(ctx, img); err != nil {
			ui.Error("Pull failed for %s: %v", img, err)
			summary.Add(domain.Fail(img, err))
			continue
		}

		dest := filepath.Join(outputDir, archive.ImageArchiveName(img))
		if err := eng.Save(ctx, img, dest); err != nil {
			ui.Error("Save failed for %s: %v", img, err)
			summary.Add(domain.Fail(img, err))
			continue
		}

		if info, err := os.Stat(dest); err == nil {
			ui.Success("Saved %s (%s)", filepath.Base(dest), humanize.Bytes(uint64(info.Size())))
		} else {
			ui.Success("Saved %s", filepath.Base(dest))
		}
		summary.Add(domain.Completed(img))
	}

	ui.Info("Saved %d of %d images (%s)", summary.Count(domain.Done), summary.Total(), summary)
	return summary, nil
}
