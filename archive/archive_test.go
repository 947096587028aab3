package archive

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeArchiveNaming(t *testing.T) {
	assert.Equal(t, "jenkins-volume.tar.gz", VolumeArchiveName("jenkins"))

	service, ok := ServiceFromArchiveName("jenkins-volume.tar.gz")
	require.True(t, ok)
	assert.Equal(t, "jenkins", service)
}

func TestServiceFromArchiveName_Hyphenated(t *testing.T) {
	service, ok := ServiceFromArchiveName("home-assistant-volume.tar.gz")
	require.True(t, ok)
	assert.Equal(t, "home-assistant", service)
}

func TestServiceFromArchiveName_Rejections(t *testing.T) {
	_, ok := ServiceFromArchiveName("random.tar.gz")
	assert.False(t, ok)

	// a bare suffix has no service name to derive
	_, ok = ServiceFromArchiveName("-volume.tar.gz")
	assert.False(t, ok)
}

func TestImageArchiveName(t *testing.T) {
	assert.Equal(t, "jenkins_jenkins_lts.tar", ImageArchiveName("jenkins/jenkins:lts"))
	assert.Equal(t, "redis_7.tar", ImageArchiveName("redis:7"))
}

func TestCreateVolumeArchive_RootEntryIsServiceDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "jenkins", "jobs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "jenkins", "config.xml"), []byte("<xml/>"), 0644))

	dest := filepath.Join(t.TempDir(), "jenkins-volume.tar.gz")
	require.NoError(t, CreateVolumeArchive(root, "jenkins", dest))

	file, err := os.Open(dest)
	require.NoError(t, err)
	defer file.Close()

	gz, err := gzip.NewReader(file)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	for {
		header, err := tr.Next()
		if err != nil {
			break
		}
		assert.True(t, strings.HasPrefix(header.Name, "jenkins/"),
			"entry %q escapes the service directory", header.Name)
		assert.Empty(t, header.Uname)
		assert.Empty(t, header.Gname)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	source := t.TempDir()
	svcDir := filepath.Join(source, "gitea")
	require.NoError(t, os.MkdirAll(filepath.Join(svcDir, "repos", "deep"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(svcDir, "app.ini"), []byte("RUN_MODE = prod\n"), 0640))
	require.NoError(t, os.WriteFile(filepath.Join(svcDir, "repos", "deep", "HEAD"), []byte("ref: main\n"), 0644))
	require.NoError(t, os.Symlink("app.ini", filepath.Join(svcDir, "app.link")))

	dest := filepath.Join(t.TempDir(), VolumeArchiveName("gitea"))
	require.NoError(t, CreateVolumeArchive(source, "gitea", dest))

	target := t.TempDir()
	require.NoError(t, ExtractArchive(dest, target))

	data, err := os.ReadFile(filepath.Join(target, "gitea", "app.ini"))
	require.NoError(t, err)
	assert.Equal(t, "RUN_MODE = prod\n", string(data))

	info, err := os.Stat(filepath.Join(target, "gitea", "app.ini"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	data, err = os.ReadFile(filepath.Join(target, "gitea", "repos", "deep", "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "ref: main\n", string(data))

	link, err := os.Readlink(filepath.Join(target, "gitea", "app.link"))
	require.NoError(t, err)
	assert.Equal(t, "app.ini", link)
}

func TestCreateVolumeArchive_MissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "x-volume.tar.gz")
	err := CreateVolumeArchive(t.TempDir(), "x", dest)
	require.Error(t, err)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractArchive_RejectsEscapingEntries(t *testing.T) {
	evil := filepath.Join(t.TempDir(), "evil.tar.gz")
	file, err := os.Create(evil)
	require.NoError(t, err)
	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "../outside.txt",
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     0,
	}))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, file.Close())

	err = ExtractArchive(evil, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}
