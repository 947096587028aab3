package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/jawher/mow.cli"

	"stackport/actions"
	"stackport/config"
	"stackport/domain"
	"stackport/ui"
)

var cfg *config.Config

func main() {

	app := cli.App("stackport", "Package a Docker Compose stack for offline transfer and deployment")

	app.Version("v version", "stackport 1.2.0")

	envFile := app.String(cli.StringOpt{
		Name:  "e env-file",
		Value: "",
		Desc:  "Environment file supplying DATA_ROOT, COMPOSE_FILE and NETWORK_NAME (default: .env)",
	})

	app.Before = func() {
		loaded, err := config.Load(*envFile)
		if err != nil {
			fmt.Println(err)
			cli.Exit(1)
			return
		}
		cfg = loaded
	}

	app.Command("save", "Pull and save every compose image to archives", func(cmd *cli.Cmd) {
		composeFile := cmd.StringOpt("f file", "", "Compose file (default: from config)")
		output := cmd.StringOpt("o output", "docker-images", "Output directory for image archives")
		filter := cmd.StringOpt("filter", "", "Only save images matching this substring (case-insensitive)")
		dryRun := cmd.BoolOpt("d dry-run", false, "List the images without pulling or saving")

		cmd.Action = func() {
			cfg.ApplyFlags("", *composeFile)
			summary, err := actions.SaveImagesActionHandler(actions.SaveImagesOptions{
				ComposeFile: cfg.ComposeFile,
				OutputDir:   *output,
				Filter:      *filter,
				DryRun:      *dryRun,
			})
			finish(summary, err)
		}
	})

	app.Command("load", "Load image archives into the local daemon", func(cmd *cli.Cmd) {
		input := cmd.StringOpt("i input", "docker-images", "Directory containing *.tar image archives")
		filter := cmd.StringOpt("filter", "", "Only load archives matching this substring (case-insensitive)")
		dryRun := cmd.BoolOpt("d dry-run", false, "List the archives without loading them")

		cmd.Action = func() {
			summary, err := actions.LoadImagesActionHandler(actions.LoadImagesOptions{
				InputDir: *input,
				Filter:   *filter,
				DryRun:   *dryRun,
			})
			finish(summary, err)
		}
	})

	app.Command("export", "Export service data directories to volume archives", func(cmd *cli.Cmd) {
		root := cmd.StringOpt("r root", "", "Data root (default: from config)")
		output := cmd.StringOpt("o output", "volume-exports", "Output directory for volume archives")
		all := cmd.BoolOpt("all", false, "Export every known service")
		services := cmd.StringOpt("services", "", "Comma-separated service names to export")
		force := cmd.BoolOpt("force", false, "Stop running containers without asking")
		dryRun := cmd.BoolOpt("d dry-run", false, "Report what would be exported without touching anything")

		cmd.Action = func() {
			cfg.ApplyFlags(*root, "")
			selected, err := selectServices(*all, *services)
			if err != nil {
				fail(err)
				return
			}
			summary, err := actions.ExportActionHandler(actions.ExportOptions{
				Root:      cfg.Root,
				OutputDir: *output,
				Services:  selected,
				Force:     *force,
				DryRun:    *dryRun,
			})
			finish(summary, err)
		}
	})

	app.Command("import", "Extract volume archives under the data root", func(cmd *cli.Cmd) {
		input := cmd.StringOpt("i input", "volume-exports", "Directory containing *-volume.tar.gz archives")
		root := cmd.StringOpt("r root", "", "Data root (default: from config)")
		filter := cmd.StringOpt("filter", "", "Only import archives matching this substring (case-insensitive)")
		force := cmd.BoolOpt("y force", false, "Overwrite existing data without asking")
		dryRun := cmd.BoolOpt("d dry-run", false, "Report what would be imported without touching anything")

		cmd.Action = func() {
			cfg.ApplyFlags(*root, "")
			summary, err := actions.ImportActionHandler(actions.ImportOptions{
				InputDir: *input,
				Root:     cfg.Root,
				Filter:   *filter,
				Force:    *force,
				DryRun:   *dryRun,
			})
			finish(summary, err)
		}
	})

	app.Command("setup", "Create and own the host data directories", func(cmd *cli.Cmd) {
		composeFile := cmd.StringOpt("f file", "", "Compose file (default: from config)")
		root := cmd.StringOpt("r root", "", "Data root (default: from config)")
		dryRun := cmd.BoolOpt("d dry-run", false, "Report the directories without creating them")

		cmd.Action = func() {
			cfg.ApplyFlags(*root, *composeFile)
			summary, err := actions.SetupActionHandler(actions.SetupOptions{
				ComposeFile: cfg.ComposeFile,
				Root:        cfg.Root,
				DryRun:      *dryRun,
			})
			finish(summary, err)
		}
	})

	app.Command("bundle", "Assemble a self-contained transfer bundle", func(cmd *cli.Cmd) {
		output := cmd.StringOpt("o output", "stackport-bundle", "Bundle output directory")
		all := cmd.BoolOpt("all", false, "Bundle every known service")
		services := cmd.StringOpt("services", "", "Comma-separated service names to bundle")
		skipImages := cmd.BoolOpt("skip-images", false, "Do not save images")
		skipVolumes := cmd.BoolOpt("skip-volumes", false, "Do not export volumes")
		archiveBundle := cmd.BoolOpt("archive", false, "Also produce <output>.tar.gz of the finished bundle")
		dryRun := cmd.BoolOpt("d dry-run", false, "Print the bundle plan without writing anything")

		cmd.Action = func() {
			selected, err := selectServices(*all, *services)
			if err != nil {
				fail(err)
				return
			}
			summary, err := actions.BundleActionHandler(actions.BundleOptions{
				Cfg:         cfg,
				OutputDir:   *output,
				Services:    selected,
				SkipImages:  *skipImages,
				SkipVolumes: *skipVolumes,
				Archive:     *archiveBundle,
				DryRun:      *dryRun,
			})
			finish(summary, err)
		}
	})

	app.Command("deploy", "Deploy the stack from a bundle in one command", func(cmd *cli.Cmd) {
		imagesDir := cmd.StringOpt("images", "docker-images", "Directory of image archives")
		volumesDir := cmd.StringOpt("volumes", "volume-exports", "Directory of volume archives")
		skipImages := cmd.BoolOpt("skip-images", false, "Skip the image load step")
		skipVolumes := cmd.BoolOpt("skip-volumes", false, "Skip the volume import step")
		dryRun := cmd.BoolOpt("d dry-run", false, "Run the checks and report the plan without mutating anything")

		cmd.Action = func() {
			err := actions.DeployActionHandler(actions.DeployOptions{
				Cfg:         cfg,
				ImagesDir:   *imagesDir,
				VolumesDir:  *volumesDir,
				SkipImages:  *skipImages,
				SkipVolumes: *skipVolumes,
				DryRun:      *dryRun,
			})
			if err != nil {
				fail(err)
			}
		}
	})

	app.Command("status", "Show the container state of every known service", func(cmd *cli.Cmd) {
		cmd.Action = func() {
			if err := actions.StatusActionHandler(); err != nil {
				fail(err)
			}
		}
	})

	app.Run(os.Args)
}

// selectServices resolves the --all / --services selection into a validated
// name list.
func selectServices(all bool, services string) ([]string, error) {
	if all && services != "" {
		return nil, fmt.Errorf("--all and --services are mutually exclusive")
	}
	if all {
		return domain.KnownServiceNames(), nil
	}
	if services == "" {
		return nil, fmt.Errorf("select services with --services a,b,c or --all")
	}

	names := []string{}
	for _, name := range strings.Split(services, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	if _, err := domain.ResolveServices(names); err != nil {
		return nil, err
	}
	return names, nil
}

func fail(err error) {
	ui.Error("%v", err)
	cli.Exit(1)
}

func finish(summary *domain.Summary, err error) {
	if err != nil {
		fail(err)
		return
	}
	if code := summary.ExitCode(); code != 0 {
		cli.Exit(code)
	}
}
