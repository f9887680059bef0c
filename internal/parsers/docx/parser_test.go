package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

// buildDocx assembles a minimal DOCX archive around the given document.xml.
func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	f, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestFormat(t *testing.T) {
	assert.Equal(t, domain.FormatDOCX, New().Format())
}

func TestExtract(t *testing.T) {
	documentXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := New().Extract(context.Background(), buildDocx(t, documentXML))
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", text)
}

func TestExtract_EmptyBody(t *testing.T) {
	documentXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body></w:body>
</w:document>`

	text, err := New().Extract(context.Background(), buildDocx(t, documentXML))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_NotAZip(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("plain text, not a zip"))
	assert.ErrorIs(t, err, domain.ErrCorruptFile)
}

func TestExtract_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	f, err := writer.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	_, err = New().Extract(context.Background(), buf.Bytes())
	assert.ErrorIs(t, err, domain.ErrCorruptFile)
}

func TestExtract_MalformedXML(t *testing.T) {
	_, err := New().Extract(context.Background(), buildDocx(t, "<w:document><unclosed"))
	assert.ErrorIs(t, err, domain.ErrCorruptFile)
}
