// Package engine wraps the Docker Engine API for the handful of operations
// stackport performs: image pull/save/load, container stop/start, network
// creation and daemon health.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Client talks to the local Docker daemon.
type Client struct {
	cli *client.Client
}

// NewClient connects to the daemon using the standard environment
// (DOCKER_HOST etc., defaulting to the unix socket).
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// Ping checks that the daemon is reachable and responding.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.cli.Ping(ctx)
	return err
}

// ServerVersion returns the daemon version string.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	version, err := c.cli.ServerVersion(ctx)
	if err != nil {
		return "", err
	}
	return version.Version, nil
}

// Pull downloads an image. The progress stream is drained quietly; an
// abandoned reader can cancel the pull.
func (c *Client) Pull(ctx context.Context, ref string) error {
	reader, err := c.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()

	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("error reading pull output for %s: %w", ref, err)
	}
	return nil
}

// Save serializes an image to a tar archive at dest. The partial file is
// removed when the export fails midway.
func (c *Client) Save(ctx context.Context, ref, dest string) error {
	reader, err := c.cli.ImageSave(ctx, []string{ref})
	if err != nil {
		return fmt.Errorf("failed to save image %s: %w", ref, err)
	}
	defer reader.Close()

	file, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return file.Close()
}

// Load imports an image archive into the daemon.
func (c *Client) Load(ctx context.Context, archive string) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	resp, err := c.cli.ImageLoad(ctx, file, true)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", archive, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("error reading load output for %s: %w", archive, err)
	}
	return nil
}

// ContainerRunning reports whether a container with the given name exists
// and is currently running. A missing container is not an error.
func (c *Client) ContainerRunning(ctx context.Context, name string) (bool, error) {
	info, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return info.State != nil && info.State.Running, nil
}

// StopContainer stops a container with the daemon's default grace period.
func (c *Client) StopContainer(ctx context.Context, name string) error {
	return c.cli.ContainerStop(ctx, name, container.StopOptions{})
}

// StartContainer starts an existing container.
func (c *Client) StartContainer(ctx context.Context, name string) error {
	return c.cli.ContainerStart(ctx, name, container.StartOptions{})
}

// EnsureNetwork creates a bridge network unless one with that name already
// exists. An existing network is the common case and not an error.
func (c *Client) EnsureNetwork(ctx context.Context, name string) (created bool, err error) {
	networks, err := c.cli.NetworkList(ctx, types.NetworkListOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to list networks: %w", err)
	}
	for _, net := range networks {
		if net.Name == name {
			return false, nil
		}
	}

	if _, err := c.cli.NetworkCreate(ctx, name, types.NetworkCreate{Driver: "bridge"}); err != nil {
		// lost a race with compose, or a plugin created it first
		if strings.Contains(err.Error(), "already exists") {
			return false, nil
		}
		return false, fmt.Errorf("failed to create network %s: %w", name, err)
	}
	return true, nil
}

// ContainerState is one row of the status view.
type ContainerState struct {
	Name   string
	Image  string
	Status string
}

// ListContainers returns the state of every container whose name matches
// one of the given names, running or not.
func (c *Client) ListContainers(ctx context.Context, names []string) (map[string]ContainerState, error) {
	filterArgs := filters.NewArgs()
	for _, name := range names {
		filterArgs.Add("name", name)
	}

	containers, err := c.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, err
	}

	states := map[string]ContainerState{}
	for _, ctr := range containers {
		for _, rawName := range ctr.Names {
			name := strings.TrimPrefix(rawName, "/")
			states[name] = ContainerState{Name: name, Image: ctr.Image, Status: ctr.Status}
		}
	}
	return states, nil
}
