package actions

import (
	"context"
	"fmt"
	"path/filepath"

	"stackport/domain"
	"stackport/engine"
	"stackport/ui"
)

// LoadImagesOptions configures 'stackport load'.
type LoadImagesOptions struct {
	InputDir string
	Filter   string
	DryRun   bool
}

// LoadImagesActionHandler loads every image archive in the input directory
// into the local daemon, one at a time. Per-file failures do not abort the
// batch.
func LoadImagesActionHandler(opts LoadImagesOptions) (*domain.Summary, error) {

	all, err := filepath.Glob(filepath.Join(opts.InputDir, "*.tar"))
	if err != nil {
		return nil, err
	}

	archives := []string{}
	for _, a := range all {
		if matchFilter(filepath.Base(a), opts.Filter) {
			archives = append(archives, a)
		}
	}
	if len(archives) == 0 {
		return nil, fmt.Errorf("no image archives found in %s matching filter '%s'", opts.InputDir, opts.Filter)
	}

	if opts.DryRun {
		for _, a := range archives {
			ui.DryRun("Would load %s", filepath.Base(a))
		}
		return &domain.Summary{}, nil
	}

	eng, err := engine.NewClient()
	if err != nil {
		return nil, err
	}
	defer eng.Close()
	ctx := context.Background()

	summary := &domain.Summary{}
	for _, a := range archives {
		name := filepath.Base(a)
		ui.Info("Loading %s", name)
		if err := eng.Load(ctx, a); err != nil {
			ui.Error("Load failed for %s: %v", name, err)
			summary.Add(domain.Fail(name, err))
			continue
		}
		ui.Success("Loaded %s", name)
		summary.Add(domain.Completed(name))
	}

	ui.Info("Loaded %d of %d archives (%s)", summary.Count(domain.Done), summary.Total(), summary)
	return summary, nil
}
