package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureCompose = `services:
  traefik:
    image: traefik:v2.11
    volumes:
      - /var/run/docker.sock:/var/run/docker.sock
      - /data/docker/traefik/traefik.toml:/etc/traefik/traefik.toml
  jenkins:
    image: jenkins/jenkins:lts
    volumes:
      - /data/docker/jenkins:/var/jenkins_home
      - /dev/shm:/dev/shm
  agent:
    image: jenkins/jenkins:lts
  worker:
    build: ./worker
`

func writeCompose(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Images_DeduplicatedAndSorted(t *testing.T) {
	f, err := Load(writeCompose(t, fixtureCompose))
	require.NoError(t, err)

	// jenkins image appears twice in the file but once here
	assert.Equal(t, []string{"jenkins/jenkins:lts", "traefik:v2.11"}, f.Images())
}

func TestLoad_ImageForService(t *testing.T) {
	f, err := Load(writeCompose(t, fixtureCompose))
	require.NoError(t, err)

	img, ok := f.ImageForService("jenkins")
	require.True(t, ok)
	assert.Equal(t, "jenkins/jenkins:lts", img)

	// build-only service has no image mapping
	_, ok = f.ImageForService("worker")
	assert.False(t, ok)
}

func TestLoad_BindMounts_ExcludesRuntimePlumbing(t *testing.T) {
	f, err := Load(writeCompose(t, fixtureCompose))
	require.NoError(t, err)

	sources := []string{}
	for _, m := range f.BindMounts() {
		sources = append(sources, m.Source)
	}
	assert.ElementsMatch(t, []string{
		"/data/docker/traefik/traefik.toml",
		"/data/docker/jenkins",
	}, sources)
}

func TestHostPaths_RebasesDefaultRoot(t *testing.T) {
	f, err := Load(writeCompose(t, fixtureCompose))
	require.NoError(t, err)

	paths := f.HostPaths("/data/docker", "/srv/stack")
	assert.Equal(t, []string{
		"/srv/stack/jenkins",
		"/srv/stack/traefik/traefik.toml",
	}, paths)
}

func TestHostPaths_SameRootUnchanged(t *testing.T) {
	f, err := Load(writeCompose(t, fixtureCompose))
	require.NoError(t, err)

	paths := f.HostPaths("/data/docker", "/data/docker")
	assert.Equal(t, []string{
		"/data/docker/jenkins",
		"/data/docker/traefik/traefik.toml",
	}, paths)
}

func TestLoad_FallbackParsesOddFiles(t *testing.T) {
	// the deploy key here is not valid compose, the raw-yaml fallback
	// still has to recover images and mounts
	path := writeCompose(t, `services:
  gitea:
    image: gitea/gitea:1.22
    deploy: "not-a-mapping"
    volumes:
      - /data/docker/gitea:/data
`)
	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"gitea/gitea:1.22"}, f.Images())
	require.Len(t, f.BindMounts(), 1)
	assert.Equal(t, "/data/docker/gitea", f.BindMounts()[0].Source)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
