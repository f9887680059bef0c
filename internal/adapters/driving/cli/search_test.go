package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := runCommand(t, "search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasFlags(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)

	require.NotNil(t, searchCmd.Flags().Lookup("min-similarity"))
	require.NotNil(t, searchCmd.Flags().Lookup("json"))
}

func TestSearchCmd_FindsIngestedContent(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := writeTextFile(t, "animals.txt", "The quick brown fox jumps over the lazy dog.")
	_, err := runCommand(t, "add", path)
	require.NoError(t, err)

	out, err := runCommand(t, "search", "The quick brown fox jumps over the lazy dog.")
	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "animals.txt")
}

func TestSearchCmd_EmptyIndex(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := runCommand(t, "search", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()
	defer func() { searchJSON = false }()

	path := writeTextFile(t, "animals.txt", "The quick brown fox jumps over the lazy dog.")
	_, err := runCommand(t, "add", path)
	require.NoError(t, err)

	out, err := runCommand(t, "search", "--json", "The quick brown fox jumps over the lazy dog.")
	require.NoError(t, err)
	assert.Contains(t, out, `"filename": "animals.txt"`)
	assert.Contains(t, out, `"score"`)
}

func TestSearchCmd_ThresholdFiltersAll(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()
	defer func() { searchMinSimilarity = 0 }()

	path := writeTextFile(t, "animals.txt", "The quick brown fox jumps over the lazy dog.")
	_, err := runCommand(t, "add", path)
	require.NoError(t, err)

	out, err := runCommand(t, "search", "--min-similarity", "0.999999", "zzz completely different zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}
