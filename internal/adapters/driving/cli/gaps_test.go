package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGapsCmd_Subcommands(t *testing.T) {
	assert.Equal(t, "gaps", gapsCmd.Use)
	assert.Equal(t, "create [document...]", gapsCreateCmd.Use)
	assert.Equal(t, "restore [document...]", gapsRestoreCmd.Use)
}

func TestGapsCreate_NotConfigured(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "gaps", "create", "vpn.md")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus not configured")
}

func TestGapsCreate_NamedDocuments(t *testing.T) {
	setupTestServices(t)
	mock := &mockGaps{moved: []string{"vpn.md"}}
	gaps = mock

	out, err := execute(t, "gaps", "create", "vpn.md", "missing.md")

	require.NoError(t, err)
	assert.Equal(t, []string{"vpn.md", "missing.md"}, mock.stashed)
	assert.Contains(t, out, "Moved 1 of 2 documents out of the corpus.")
	assert.Contains(t, out, "vpn.md")
}

func TestGapsCreate_DefaultTargets(t *testing.T) {
	setupTestServices(t)
	settings.Corpus.GapTargets = []string{"parking.md"}
	mock := &mockGaps{moved: []string{"parking.md"}}
	gaps = mock

	_, err := execute(t, "gaps", "create")

	require.NoError(t, err)
	assert.Equal(t, []string{"parking.md"}, mock.stashed)
}

func TestGapsCreate_NoTargets(t *testing.T) {
	setupTestServices(t)
	gaps = &mockGaps{}

	_, err := execute(t, "gaps", "create")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus.gap_targets is empty")
}

func TestGapsCreate_Error(t *testing.T) {
	setupTestServices(t)
	gaps = &mockGaps{err: errBoom}

	_, err := execute(t, "gaps", "create", "a.md")

	require.ErrorIs(t, err, errBoom)
}

func TestGapsRestore_All(t *testing.T) {
	setupTestServices(t)
	mock := &mockGaps{moved: []string{"a.md", "b.md"}}
	gaps = mock

	out, err := execute(t, "gaps", "restore")

	require.NoError(t, err)
	assert.Empty(t, mock.restored)
	assert.Contains(t, out, "Restored 2 documents.")
}

func TestGapsRestore_Nothing(t *testing.T) {
	setupTestServices(t)
	gaps = &mockGaps{}

	out, err := execute(t, "gaps", "restore", "a.md")

	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to restore.")
}
