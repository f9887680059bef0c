package cli

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docIDPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func ingestOne(t *testing.T, content string) string {
	t.Helper()
	path := writeTextFile(t, "doc.txt", content)
	_, err := runCommand(t, "add", path)
	require.NoError(t, err)

	out, err := runCommand(t, "list")
	require.NoError(t, err)
	id := docIDPattern.FindString(out)
	require.NotEmpty(t, id, "list output should contain the document ID")
	return id
}

func TestListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := runCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents yet")
}

func TestListCmd_ShowsDocuments(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	ingestOne(t, "Plain text content for listing.")

	out, err := runCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "doc.txt")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestShowCmd_WithSegments(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()
	defer func() { showSegments = false }()

	id := ingestOne(t, "Segment content goes here.")

	out, err := runCommand(t, "show", "--segments", id)
	require.NoError(t, err)
	assert.Contains(t, out, "doc.txt")
	assert.Contains(t, out, "Segments:")
	assert.Contains(t, out, "slot 0")
}

func TestShowCmd_UnknownID(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := runCommand(t, "show", "nope")
	assert.Error(t, err)
}

func TestDeleteCmd(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	id := ingestOne(t, "Content to delete.")

	out, err := runCommand(t, "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	_, err = runCommand(t, "delete", id)
	assert.Error(t, err, "second delete must fail")
}

func TestStatsCmd(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	ingestOne(t, "Stats content.")

	out, err := runCommand(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:       1")
	assert.Contains(t, out, "completed:     1")
	assert.Contains(t, out, "Active vectors:  1")
}
