package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_SubstitutesAllPlaceholders(t *testing.T) {
	got, err := Build("# Check the build\nRun make and verify it exits zero.", "/work/project", "/work/project/.nori-tests/run-1/status.json")
	require.NoError(t, err)

	assert.Contains(t, got, "Run make and verify it exits zero.")
	assert.Contains(t, got, "/work/project/.nori-tests/run-1/status.json")
	assert.Contains(t, got, "Your working directory is /work/project.")
	assert.NotContains(t, got, "{{", "no placeholder may survive substitution")
}

func TestBuild_TrimsTestContent(t *testing.T) {
	got, err := Build("\n\n  do the thing  \n\n", "/w", "/w/status.json")
	require.NoError(t, err)
	assert.Contains(t, got, "do the thing")
	assert.False(t, strings.Contains(got, "\n\n\n\n"))
}

func TestBuild_RejectsEmptyTest(t *testing.T) {
	_, err := Build("   \n\t", "/w", "/w/status.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test file is empty")
}
