// Package batch manages the upload queue: file intake with type and count
// validation, stable per-file identifiers, and queue advancement that is
// independent of the processing pipeline itself.
package batch

import (
	"time"

	"github.com/google/uuid"
)

// Status of one queued file.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
	StatusPaused     Status = "paused"
)

// File is one entry in the upload queue. Progress is monotone
// non-decreasing while the file is processing; EndedAt is set exactly once,
// when the status transitions to complete or error.
type File struct {
	ID         string
	Name       string
	Size       int64
	MimeType   string
	Data       []byte
	Status     Status
	Progress   float64
	Confidence *float64
	Err        string
	StartedAt  time.Time
	EndedAt    time.Time
}

func newFile(name, mimeType string, data []byte) *File {
	return &File{
		ID:       uuid.New().String(),
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Data:     data,
		Status:   StatusQueued,
	}
}
