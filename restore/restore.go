// Package restore talks to the external restoration backend and carries the
// embedded scripted fallback used when the backend is unreachable. The
// backend is a black box: this layer encodes the upload, decodes the
// response, and never second-guesses the restoration content.
package restore

import (
	"strings"
	"time"

	"github.com/chiedza-labs/resurrect/agent"
	"github.com/chiedza-labs/resurrect/theater"
)

// Segment is one run of restored text tagged with display confidence and an
// optional highlighted keyword.
type Segment struct {
	Text       string                `json:"text"`
	Confidence agent.ConfidenceLevel `json:"confidence"`
	Keyword    string                `json:"keyword,omitempty"`
}

// Document is the final restoration result. Produced once at completion and
// immutable thereafter.
type Document struct {
	Segments          []Segment
	OverallConfidence float64
	AgentLog          []theater.Message
	ProcessingTime    time.Duration
	ArchiveID         string
}

// Text concatenates the restored segments for download and clipboard share.
func (d *Document) Text() string {
	parts := make([]string, len(d.Segments))
	for i, s := range d.Segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, "")
}

// IsSample reports whether a document name selects the scripted demo path
// regardless of network availability.
func IsSample(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "sample-")
}
