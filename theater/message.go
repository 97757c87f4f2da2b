// Package theater reconciles agent message streams into the single ordered,
// deduplicated timeline the demo renders. Messages arrive either from the
// live backend stream (cumulative, possibly reordered or repeated) or from
// the embedded scripted sequence played out on timers.
package theater

import (
	"time"

	"github.com/chiedza-labs/resurrect/agent"
)

// Message is one entry in the narrative timeline. Messages are append-only
// and never mutated after creation; insertion order is the narrative order.
type Message struct {
	Agent      agent.Type     `json:"agent"`
	Text       string         `json:"message"`
	Confidence *float64       `json:"confidence,omitempty"`
	Section    string         `json:"document_section,omitempty"`
	Debate     bool           `json:"is_debate,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Conf is a convenience constructor for optional confidence values.
func Conf(v float64) *float64 { return &v }
