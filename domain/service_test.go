package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupService(t *testing.T) {
	svc, ok := LookupService("postgres")
	require.True(t, ok)
	assert.Equal(t, 999, svc.UID)
	assert.Equal(t, 999, svc.GID)

	_, ok = LookupService("does-not-exist")
	assert.False(t, ok)
}

func TestKnownServiceNames_Sorted(t *testing.T) {
	names := KnownServiceNames()
	require.NotEmpty(t, names)
	assert.True(t, sort.StringsAreSorted(names))
}

func TestResolveServices_UnknownNameFailsWholeList(t *testing.T) {
	_, err := ResolveServices([]string{"jenkins", "nope", "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestResolveServices_Valid(t *testing.T) {
	services, err := ResolveServices([]string{"jenkins", "ollama"})
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "jenkins", services[0].Name)
	assert.Equal(t, "ollama", services[1].Name)
}

func TestOwnerForPath_SegmentMatch(t *testing.T) {
	svc, ok := OwnerForPath("/data/docker/postgres/pgdata", "/data/docker")
	require.True(t, ok)
	assert.Equal(t, "postgres", svc.Name)
}

func TestOwnerForPath_NoSubstringMatch(t *testing.T) {
	// a sibling directory named postgres-backup must not inherit the
	// postgres descriptor
	_, ok := OwnerForPath("/data/docker/postgres-backup", "/data/docker")
	assert.False(t, ok)
}

func TestOwnerForPath_OutsideRoot(t *testing.T) {
	_, ok := OwnerForPath("/etc/postgres", "/data/docker")
	assert.False(t, ok)
}

func TestServicePaths(t *testing.T) {
	svc, ok := LookupService("jenkins")
	require.True(t, ok)
	assert.Equal(t, "/srv/jenkins", svc.DataDir("/srv"))
	assert.Equal(t, "jenkins", svc.ContainerName())
}
