package server

import (
	"encoding/json"

	"github.com/chiedza-labs/resurrect/event"
	"github.com/chiedza-labs/resurrect/restore"
	"github.com/chiedza-labs/resurrect/theater"
)

// wireSegment mirrors the backend's segment shape so the frontend sees one
// format regardless of which side produced the result.
type wireSegment struct {
	Text       string `json:"text"`
	Confidence string `json:"confidence"`
	Keyword    string `json:"keyword,omitempty"`
}

type wireResult struct {
	Segments          []wireSegment     `json:"segments"`
	OverallConfidence float64           `json:"overallConfidence"`
	AgentLogs         []theater.Message `json:"agentLogs"`
	ProcessingTimeMs  int64             `json:"processingTimeMs"`
	ArchiveID         string            `json:"archive_id,omitempty"`
	Fallback          bool              `json:"fallback"`
}

func resultOf(doc *restore.Document, fallback bool) wireResult {
	out := wireResult{
		Segments:          make([]wireSegment, 0, len(doc.Segments)),
		OverallConfidence: doc.OverallConfidence,
		AgentLogs:         doc.AgentLog,
		ProcessingTimeMs:  doc.ProcessingTime.Milliseconds(),
		ArchiveID:         doc.ArchiveID,
		Fallback:          fallback,
	}
	for _, s := range doc.Segments {
		out.Segments = append(out.Segments, wireSegment{
			Text:       s.Text,
			Confidence: string(s.Confidence),
			Keyword:    s.Keyword,
		})
	}
	return out
}

type messageEnvelope struct {
	Type string `json:"type"`
	theater.Message
}

type typingEnvelope struct {
	Type  string `json:"type"`
	Agent string `json:"agent"`
}

type progressEnvelope struct {
	Type     string  `json:"type"`
	Progress float64 `json:"progress"`
}

type stepEnvelope struct {
	Type   string `json:"type"`
	Step   string `json:"step"`
	Status string `json:"status"`
}

type fileEnvelope struct {
	Type              string   `json:"type"`
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Status            string   `json:"status"`
	Progress          float64  `json:"progress"`
	OverallConfidence *float64 `json:"overallConfidence,omitempty"`
	Error             string   `json:"error,omitempty"`
}

type errorEnvelope struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type completeEnvelope struct {
	Type   string     `json:"type"`
	Result wireResult `json:"result"`
}

// encodeEvent renders one run event as a wire payload. Events with no
// frontend representation return ok=false.
func encodeEvent(evt event.Event) ([]byte, bool) {
	var payload any
	switch ev := evt.(type) {
	case *event.MessageEvent:
		payload = messageEnvelope{Type: "agent_message", Message: ev.Message}
	case *event.TypingEvent:
		payload = typingEnvelope{Type: "typing", Agent: string(ev.Agent)}
	case *event.ProgressEvent:
		payload = progressEnvelope{Type: "progress", Progress: ev.Progress}
	case *event.StepEvent:
		payload = stepEnvelope{Type: "step", Step: ev.Step, Status: string(ev.Status)}
	case *event.FileEvent:
		payload = fileEnvelope{
			Type:              "file",
			ID:                ev.File.ID,
			Name:              ev.File.Name,
			Status:            string(ev.File.Status),
			Progress:          ev.File.Progress,
			OverallConfidence: ev.File.Confidence,
			Error:             ev.File.Err,
		}
	case *event.ErrorEvent:
		payload = errorEnvelope{Type: "error", Error: ev.Err.Error()}
	case *event.CompleteEvent:
		payload = completeEnvelope{Type: "complete", Result: resultOf(ev.Result, ev.Fallback)}
	default:
		return nil, false
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	return data, true
}
