package resurrect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chiedza-labs/resurrect/restore"
)

// DownloadName derives the download artifact name from the original upload.
func DownloadName(original string) string {
	base := strings.TrimSuffix(original, filepath.Ext(original))
	if base == "" {
		base = "document"
	}
	return "restored-" + base + ".txt"
}

// Download writes the restored text next to dir as a plain-text artifact.
// Single attempt, no retries: this is a user-triggered save.
func Download(dir string, original string, doc *restore.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("no restored document to download")
	}
	path := filepath.Join(dir, DownloadName(original))
	if err := os.WriteFile(path, []byte(doc.Text()), 0644); err != nil {
		return "", fmt.Errorf("write download: %w", err)
	}
	return path, nil
}

// ShareText returns the clipboard payload: the concatenated restored
// segments, verbatim.
func ShareText(doc *restore.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("no restored document to share")
	}
	return doc.Text(), nil
}
