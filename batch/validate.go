package batch

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// MaxBatchSize caps simultaneous files in one batch. Adds beyond the cap
// are silently dropped.
const MaxBatchSize = 5

// MaxFileSize is advisory: oversized files are accepted but flagged in the
// intake result so the UI can warn.
const MaxFileSize = 20 << 20

var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// ErrUnsupportedType reports a file outside the intake allow-list.
type ErrUnsupportedType struct {
	Name string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported file type: %s (accepted: PNG, JPG, GIF, WEBP, PDF)", e.Name)
}

// sniffMime resolves the intake MIME type from the file extension and
// returns false when the extension is not on the allow-list.
func sniffMime(name string) (string, bool) {
	mt, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]
	return mt, ok
}

// Supported reports whether a file name passes the intake allow-list.
// Transports use it to reject disallowed uploads before queueing.
func Supported(name string) bool {
	_, ok := sniffMime(name)
	return ok
}

// validatePDF runs a relaxed structural check so a corrupt upload fails at
// intake instead of mid-theater.
func validatePDF(data []byte) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), cfg)
	if err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("invalid PDF: no pages")
	}
	return nil
}
