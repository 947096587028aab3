// Package compose loads a Docker Compose file into a typed model and
// answers the two questions the rest of the tool asks: which images does
// the stack reference, and which host paths does it bind-mount.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	composecli "github.com/compose-spec/compose-go/v2/cli"
	yamlv3 "gopkg.in/yaml.v3"
)

// Mount is one bind mount with an absolute host source path.
type Mount struct {
	Service string
	Source  string
	Target  string
}

// File is the parsed view of one compose file.
type File struct {
	Path string
	// images per service; services without an image: key absent
	serviceImages map[string]string
	mounts        []Mount
}

// Load parses the compose file at path. It first goes through compose-go
// for a fully structured model, then falls back to a permissive raw YAML
// parse when the file uses constructs compose-go rejects.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("compose file not found: %s", path)
	}

	f := &File{Path: path, serviceImages: map[string]string{}}

	if err := f.loadStructured(); err != nil {
		if fbErr := f.loadFallback(); fbErr != nil {
			return nil, fmt.Errorf("unable to parse %s: %w", path, err)
		}
	}
	return f, nil
}

func (f *File) loadStructured() error {
	ctx := context.Background()

	opts, err := composecli.NewProjectOptions(
		[]string{f.Path},
		composecli.WithDotEnv,
	)
	if err != nil {
		return fmt.Errorf("project options: %w", err)
	}

	project, err := composecli.ProjectFromOptions(ctx, opts)
	if err != nil {
		return err
	}

	for name, svc := range project.Services {
		if svc.Image != "" {
			f.serviceImages[name] = svc.Image
		}
		for _, vol := range svc.Volumes {
			if vol.Type != "bind" {
				continue
			}
			f.mounts = append(f.mounts, Mount{Service: name, Source: vol.Source, Target: vol.Target})
		}
	}
	return nil
}

// loadFallback parses the raw YAML without compose semantics. Good enough
// to recover image references and "- /host:/container" volume strings.
func (f *File) loadFallback() error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return err
	}

	var raw struct {
		Services map[string]struct {
			Image   string   `yaml:"image"`
			Volumes []string `yaml:"volumes"`
		} `yaml:"services"`
	}
	if err := yamlv3.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("yaml parse: %w", err)
	}

	for name, svc := range raw.Services {
		if svc.Image != "" {
			f.serviceImages[name] = svc.Image
		}
		for _, vol := range svc.Volumes {
			parts := strings.SplitN(vol, ":", 2)
			if len(parts) < 2 || !filepath.IsAbs(parts[0]) {
				continue
			}
			f.mounts = append(f.mounts, Mount{Service: name, Source: parts[0], Target: parts[1]})
		}
	}
	return nil
}

// Images returns every image reference in the file, deduplicated and sorted.
func (f *File) Images() []string {
	seen := map[string]bool{}
	var images []string
	for _, img := range f.serviceImages {
		if !seen[img] {
			seen[img] = true
			images = append(images, img)
		}
	}
	sort.Strings(images)
	return images
}

// ImageForService returns the image of one compose service, if it has one.
func (f *File) ImageForService(service string) (string, bool) {
	img, ok := f.serviceImages[service]
	return img, ok
}

// BindMounts returns every bind mount with an absolute host source, minus
// the container socket and /dev/shm, which are runtime plumbing rather
// than service data.
func (f *File) BindMounts() []Mount {
	var mounts []Mount
	for _, m := range f.mounts {
		if !filepath.IsAbs(m.Source) {
			continue
		}
		if strings.HasSuffix(m.Source, "docker.sock") || strings.HasPrefix(m.Source, "/dev/shm") {
			continue
		}
		mounts = append(mounts, m)
	}
	return mounts
}

// HostPaths returns the deduplicated, sorted host source paths of all bind
// mounts, with the compose file's hardcoded default root rebased onto root.
func (f *File) HostPaths(defaultRoot, root string) []string {
	seen := map[string]bool{}
	var paths []string
	for _, m := range f.BindMounts() {
		source := m.Source
		if defaultRoot != "" && root != "" && defaultRoot != root {
			if rel, err := filepath.Rel(defaultRoot, source); err == nil && !strings.HasPrefix(rel, "..") {
				source = filepath.Join(root, rel)
			}
		}
		if !seen[source] {
			seen[source] = true
			paths = append(paths, source)
		}
	}
	sort.Strings(paths)
	return paths
}
