package actions

import (
	"context"
	"fmt"
	"os"

	"stackport/config"
	"stackport/domain"
	"stackport/engine"
	"stackport/ui"
)

// DeployOptions configures 'stackport deploy'. The command expects to run
// inside an unpacked bundle directory.
type DeployOptions struct {
	Cfg         *config.Config
	ImagesDir   string
	VolumesDir  string
	SkipImages  bool
	SkipVolumes bool
	DryRun      bool
}

type deployStep struct {
	name string
	run  func() error
	skip string // non-empty: why the step is skipped
}

// DeployActionHandler brings the whole stack up from a bundle in seven
// fixed steps: preflight, environment, image load, volume setup, volume
// import, network, compose up. Steps do not retry; a compose-up failure
// ends the run.
func DeployActionHandler(opts DeployOptions) error {

	ctx := context.Background()

	if err := preflight(ctx, opts.Cfg.ComposeFile); err != nil {
		if opts.DryRun {
			ui.Warn("Preflight failed, continuing because of --dry-run")
		} else {
			return err
		}
	}

	steps := []deployStep{
		{
			name: "Environment setup",
			run:  func() error { return setupEnvironment(opts.DryRun) },
		},
		{
			name: "Image load",
			skip: skipReason(opts.SkipImages, "--skip-images"),
			run: func() error {
				summary, err := LoadImagesActionHandler(LoadImagesOptions{
					InputDir: opts.ImagesDir,
					DryRun:   opts.DryRun,
				})
				if err != nil {
					return err
				}
				if summary.Count(domain.Failed) > 0 {
					return fmt.Errorf("%d image archive(s) failed to load", summary.Count(domain.Failed))
				}
				return nil
			},
		},
		{
			name: "Volume directory setup",
			run: func() error {
				summary, err := SetupActionHandler(SetupOptions{
					ComposeFile: opts.Cfg.ComposeFile,
					Root:        opts.Cfg.Root,
					DryRun:      opts.DryRun,
				})
				if err != nil {
					return err
				}
				if summary.Count(domain.Failed) > 0 {
					return fmt.Errorf("%d directories could not be prepared", summary.Count(domain.Failed))
				}
				return nil
			},
		},
		{
			name: "Volume data import",
			skip: skipReason(opts.SkipVolumes, "--skip-volumes"),
			run: func() error {
				summary, err := ImportActionHandler(ImportOptions{
					InputDir: opts.VolumesDir,
					Root:     opts.Cfg.Root,
					Force:    true,
					DryRun:   opts.DryRun,
				})
				if err != nil {
					return err
				}
				if summary.Count(domain.Failed) > 0 {
					return fmt.Errorf("%d volume archive(s) failed to import", summary.Count(domain.Failed))
				}
				return nil
			},
		},
		{
			name: "Network creation",
			run:  func() error { return ensureNetwork(ctx, opts.Cfg.Network, opts.DryRun) },
		},
		{
			name: "Service start",
			run:  func() error { return composeUp(opts.Cfg.ComposeFile, opts.DryRun) },
		},
	}

	results := &domain.Summary{}
	for _, step := range steps {
		ui.Step(step.name)

		if step.skip != "" {
			ui.Warn("Skipped (%s)", step.skip)
			results.Add(domain.Skip(step.name, step.skip))
			continue
		}

		if err := step.run(); err != nil {
			ui.Error("%s failed: %v", step.name, err)
			results.Add(domain.Fail(step.name, err))
			if step.name == "Service start" {
				// nothing meaningful can run after a failed compose up
				printDeployReport(results)
				return err
			}
			continue
		}
		results.Add(domain.Completed(step.name))
	}

	printDeployReport(results)

	if results.Count(domain.Failed) > 0 {
		return fmt.Errorf("deployment finished with failed steps")
	}

	if opts.DryRun {
		ui.Success("Dry run complete, nothing was changed")
	} else {
		ui.Success("Deployment complete")
	}
	return nil
}

func printDeployReport(results *domain.Summary) {
	ui.Step("Deployment report")
	for _, r := range results.Results {
		switch r.Outcome {
		case domain.Done:
			ui.Success("%s", r.Unit)
		case domain.Skipped:
			ui.Warn("%s (skipped: %s)", r.Unit, r.Reason)
		case domain.Failed:
			ui.Error("%s (%v)", r.Unit, r.Err)
		}
	}
}

// setupEnvironment makes sure a .env file exists, seeding it from
// .env.example on first deploy.
func setupEnvironment(dryRun bool) error {
	if _, err := os.Stat(".env"); err == nil {
		ui.Success(".env present")
		return nil
	}
	if _, err := os.Stat(".env.example"); os.IsNotExist(err) {
		ui.Warn("Neither .env nor .env.example found, using built-in defaults")
		return nil
	}
	if dryRun {
		ui.DryRun("Would copy .env.example → .env")
		return nil
	}
	if err := copyFile(".env.example", ".env"); err != nil {
		return fmt.Errorf("unable to seed .env: %w", err)
	}
	ui.Success("Created .env from .env.example, review it before going live")
	return nil
}

func ensureNetwork(ctx context.Context, name string, dryRun bool) error {
	if dryRun {
		ui.DryRun("Would ensure network %s exists", name)
		return nil
	}

	eng, err := engine.NewClient()
	if err != nil {
		return err
	}
	defer eng.Close()

	created, err := eng.EnsureNetwork(ctx, name)
	if err != nil {
		// an unusable network surfaces again at compose up, keep going
		ui.Warn("Network creation failed: %v", err)
		return nil
	}
	if created {
		ui.Success("Created network %s", name)
	} else {
		ui.Success("Network %s already exists", name)
	}
	return nil
}

func composeUp(composeFile string, dryRun bool) error {
	cmd := domain.NewComposeCommand(composeFile, []string{"up", "-d"})
	if dryRun {
		ui.DryRun("Would run: %s", cmd)
		return nil
	}
	return cmd.Execute()
}
