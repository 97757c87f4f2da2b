package resurrect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiedza-labs/resurrect/agent"
	"github.com/chiedza-labs/resurrect/restore"
)

func TestDownloadNameStripsExtension(t *testing.T) {
	assert.Equal(t, "restored-mucheke-letter.txt", DownloadName("mucheke-letter.png"))
	assert.Equal(t, "restored-field notes.txt", DownloadName("field notes.pdf"))
	assert.Equal(t, "restored-document.txt", DownloadName(".png"))
	assert.Equal(t, "restored-document.txt", DownloadName(""))
}

func TestDownloadWritesRestoredText(t *testing.T) {
	doc := &restore.Document{Segments: []restore.Segment{
		{Text: "Ndini ", Confidence: agent.ConfidenceHigh},
		{Text: "Runesu", Confidence: agent.ConfidenceLow, Keyword: "Runesu"},
	}}

	dir := t.TempDir()
	path, err := Download(dir, "mucheke-letter.png", doc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "restored-mucheke-letter.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Ndini Runesu", string(data))
}

func TestDownloadRequiresDocument(t *testing.T) {
	_, err := Download(t.TempDir(), "anything.png", nil)
	assert.Error(t, err)
}

func TestShareTextIsVerbatimSegments(t *testing.T) {
	doc := restore.MockDocument()
	text, err := ShareText(doc)
	require.NoError(t, err)
	assert.Equal(t, doc.Text(), text)

	_, err = ShareText(nil)
	assert.Error(t, err)
}
