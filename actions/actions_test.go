package actions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackport/domain"
)

func TestMatchFilter(t *testing.T) {
	assert.True(t, matchFilter("jenkins-volume.tar.gz", ""))
	assert.True(t, matchFilter("jenkins-volume.tar.gz", "JENKINS"))
	assert.True(t, matchFilter("Ollama-volume.tar.gz", "ollama"))
	assert.False(t, matchFilter("jenkins-volume.tar.gz", "ollama"))
}

func TestDirectoryForMount(t *testing.T) {
	// a file-looking mount source yields its parent directory
	assert.Equal(t, "/data/docker/traefik", directoryForMount("/data/docker/traefik/traefik.toml"))
	assert.Equal(t, "/data/docker/jenkins", directoryForMount("/data/docker/jenkins"))
	// dots in directory names do not make them files
	assert.Equal(t, "/data/docker/gitea", directoryForMount("/data/docker/gitea/repos.d"))
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 50), 0644))

	assert.Equal(t, int64(150), dirSize(dir))
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "leaf.txt"), []byte("leaf"), 0644))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, copyTree(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "nested", "leaf.txt"))
	require.NoError(t, err)
	assert.Equal(t, "leaf", string(data))

	info, err := os.Stat(filepath.Join(dst, "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestImport_EmptyInputDirIsFatal(t *testing.T) {
	_, err := ImportActionHandler(ImportOptions{
		InputDir: t.TempDir(),
		Root:     t.TempDir(),
		Force:    true,
	})
	require.Error(t, err)
}

func TestImport_FilterSelectsOnlyMatchingArchives(t *testing.T) {
	input := t.TempDir()
	for _, name := range []string{"jenkins-volume.tar.gz", "ollama-volume.tar.gz"} {
		require.NoError(t, os.WriteFile(filepath.Join(input, name), []byte("x"), 0644))
	}

	summary, err := ImportActionHandler(ImportOptions{
		InputDir: input,
		Root:     t.TempDir(),
		Filter:   "jenkins",
		DryRun:   true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Total())
	assert.Equal(t, "jenkins", summary.Results[0].Unit)
}

func TestImport_DryRunExtractsNothing(t *testing.T) {
	input := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(input, "jenkins-volume.tar.gz"), []byte("x"), 0644))
	root := t.TempDir()

	summary, err := ImportActionHandler(ImportOptions{
		InputDir: input,
		Root:     root,
		DryRun:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count(domain.Skipped))

	_, statErr := os.Stat(filepath.Join(root, "jenkins"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExport_UnknownServiceIsFatal(t *testing.T) {
	_, err := ExportActionHandler(ExportOptions{
		Root:      t.TempDir(),
		OutputDir: t.TempDir(),
		Services:  []string{"jenkins", "not-a-service"},
		DryRun:    true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-service")
}

func TestExport_DryRunMutatesNothing(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "jenkins"), 0755))
	output := filepath.Join(t.TempDir(), "volume-exports")

	summary, err := ExportActionHandler(ExportOptions{
		Root:      root,
		OutputDir: output,
		Services:  []string{"jenkins"},
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total())
	assert.Equal(t, 1, summary.Count(domain.Skipped))

	// dry run does not even create the output directory
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExport_MissingDataDirIsSkippedNotFailed(t *testing.T) {
	summary, err := ExportActionHandler(ExportOptions{
		Root:      t.TempDir(),
		OutputDir: t.TempDir(),
		Services:  []string{"jenkins"},
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count(domain.Skipped))
	assert.Equal(t, 0, summary.ExitCode())
}

func TestSetup_RequiresRootOutsideDryRun(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root")
	}
	_, err := SetupActionHandler(SetupOptions{
		ComposeFile: "docker-compose.yml",
		Root:        t.TempDir(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")
}
