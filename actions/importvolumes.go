package actions

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Songmu/prompter"

	"stackport/archive"
	"stackport/domain"
	"stackport/ui"
)

// ImportOptions configures 'stackport import'.
type ImportOptions struct {
	InputDir string
	Root     string
	Filter   string
	Force    bool
	DryRun   bool
}

// ImportActionHandler extracts every volume archive in the input directory
// under the data root. Existing target directories are resolved
// interactively (skip / overwrite / backup) unless forced, in which case
// they are overwritten.
func ImportActionHandler(opts ImportOptions) (*domain.Summary, error) {

	all, err := filepath.Glob(filepath.Join(opts.InputDir, "*"+archive.VolumeSuffix))
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
		return nil, fmt.Errorf("no volume archives found in %s matching filter '%s'", opts.InputDir, opts.Filter)
	}

	if !opts.Force && !opts.DryRun {
		if !prompter.YN(fmt.Sprintf("Import %d volume archive(s) into %s?", len(archives), opts.Root), false) {
			ui.Warn("Import aborted")
			return &domain.Summary{}, nil
		}
	}

	summary := &domain.Summary{}
	for _, a := range archives {
		summary.Add(importArchive(a, opts))
	}

	ui.Info("Imported %d of %d archives (%s)", summary.Count(domain.Done), summary.Total(), summary)
	return summary, nil
}

func importArchive(archivePath string, opts ImportOptions) domain.Result {

	name := filepath.Base(archivePath)
	service, ok := archive.ServiceFromArchiveName(name)
	if !ok {
		ui.Warn("Skipping %s: not a volume archive", name)
		return domain.Skip(name, "not a volume archive")
	}

	target := filepath.Join(opts.Root, service)

	if opts.DryRun {
		ui.DryRun("Would extract %s → %s", name, target)
		return domain.Skip(service, "dry run")
	}

	if _, err := os.Stat(target); err == nil {
		action := "overwrite"
		if !opts.Force {
			action = prompter.Choose(
				fmt.Sprintf("Directory %s already exists", target),
				[]string{"skip", "overwrite", "backup"},
				"skip",
			)
		}

		switch action {
		case "overwrite":
			ui.Info("Removing existing %s", target)
			if err := os.RemoveAll(target); err != nil {
				ui.Error("Unable to remove %s: %v", target, err)
				return domain.Fail(service, err)
			}
		case "backup":
			backup := fmt.Sprintf("%s.backup.%s", target, time.Now().Format("20060102_150405"))
			ui.Info("Moving existing %s → %s", target, backup)
			if err := os.Rename(target, backup); err != nil {
				ui.Error("Unable to back up %s: %v", target, err)
				return domain.Fail(service, err)
			}
		default:
			ui.Warn("Skipping %s (existing data kept)", service)
			return domain.Skip(service, "existing data kept")
		}
	}

	ui.Info("Extracting %s → %s", name, target)
	if err := archive.ExtractArchive(archivePath, opts.Root); err != nil {
		ui.Error("Extraction failed for %s: %v", name, err)
		ui.Warn("A partial extraction may remain in %s, check it manually", target)
		return domain.Fail(service, err)
	}

	ui.Success("Imported %s", service)
	return domain.Completed(service)
}
