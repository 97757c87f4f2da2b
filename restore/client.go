package restore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chiedza-labs/resurrect/agent"
	"github.com/chiedza-labs/resurrect/theater"
)

// Client calls the restoration backend. One outstanding request per
// user-initiated action; any non-2xx or malformed response is an error the
// caller turns into the scripted fallback.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client for the given backend base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
		logger:  logger.With("component", "restore"),
	}
}

type restoreRequest struct {
	ImageBase64  string `json:"image_base64"`
	DocumentName string `json:"document_name,omitempty"`
}

type wireLog struct {
	Agent             string   `json:"agent"`
	Message           string   `json:"message"`
	Confidence        *float64 `json:"confidence,omitempty"`
	Section           string   `json:"document_section,omitempty"`
	IsDebate          bool     `json:"isDebate,omitempty"`
	HighlightKeywords []string `json:"highlightKeywords,omitempty"`
}

type wireSegment struct {
	Text       string `json:"text"`
	Confidence string `json:"confidence"`
	Keyword    string `json:"keyword,omitempty"`
}

type wireResult struct {
	Segments          []wireSegment `json:"segments"`
	OverallConfidence float64       `json:"overallConfidence"`
	AgentLogs         []wireLog     `json:"agentLogs"`
	ProcessingTimeMs  int64         `json:"processingTimeMs"`
	ArchiveID         string        `json:"archive_id,omitempty"`
}

// Restore sends the encoded payload and returns the full result in one
// round trip.
func (c *Client) Restore(ctx context.Context, name string, data []byte) (*Document, error) {
	body, err := json.Marshal(restoreRequest{
		ImageBase64:  base64.StdEncoding.EncodeToString(data),
		DocumentName: name,
	})
	if err != nil {
		return nil, fmt.Errorf("encode restore request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resurrect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build restore request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("restore call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("restore backend returned %d", resp.StatusCode)
	}

	var result wireResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode restore response: %w", err)
	}
	return result.toDocument(), nil
}

// Stream sends the payload to the SSE endpoint and invokes onMessage for
// each agent message as it arrives, returning the final result from the
// stream's completion payload.
func (c *Client) Stream(ctx context.Context, name string, data []byte, onMessage func(theater.Message)) (*Document, error) {
	body, err := json.Marshal(restoreRequest{
		ImageBase64:  base64.StdEncoding.EncodeToString(data),
		DocumentName: name,
	})
	if err != nil {
		return nil, fmt.Errorf("encode stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resurrect/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("stream backend returned %d", resp.StatusCode)
	}

	return c.consumeStream(resp.Body, onMessage)
}

// streamEnvelope distinguishes per-message events from the final payload.
type streamEnvelope struct {
	Type   string          `json:"type"`
	Result json.RawMessage `json:"result"`
	wireLog
}

func (c *Client) consumeStream(r io.Reader, onMessage func(theater.Message)) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var final *Document
	var log []theater.Message
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var env streamEnvelope
		if err := json.Unmarshal([]byte(payload), &env); err != nil {
			c.logger.Warn("dropping malformed stream event", "error", err)
			continue
		}
		if env.Type == "complete" {
			var result wireResult
			if err := json.Unmarshal(env.Result, &result); err != nil {
				return nil, fmt.Errorf("decode stream completion: %w", err)
			}
			final = result.toDocument()
			continue
		}

		msg := env.wireLog.toMessage()
		log = append(log, msg)
		if onMessage != nil {
			onMessage(msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	if final == nil {
		return nil, fmt.Errorf("stream ended without completion payload")
	}
	if len(final.AgentLog) == 0 {
		final.AgentLog = log
	}
	return final, nil
}

func (w wireLog) toMessage() theater.Message {
	role, _ := agent.Parse(w.Agent)
	var meta map[string]any
	if len(w.HighlightKeywords) > 0 {
		meta = map[string]any{"highlight_keywords": w.HighlightKeywords}
	}
	return theater.Message{
		Agent:      role,
		Text:       w.Message,
		Confidence: w.Confidence,
		Section:    w.Section,
		Debate:     w.IsDebate,
		Timestamp:  time.Now(),
		Metadata:   meta,
	}
}

func (r wireResult) toDocument() *Document {
	doc := &Document{
		OverallConfidence: r.OverallConfidence,
		ProcessingTime:    time.Duration(r.ProcessingTimeMs) * time.Millisecond,
		ArchiveID:         r.ArchiveID,
	}
	for _, s := range r.Segments {
		level := agent.ConfidenceLevel(s.Confidence)
		if level != agent.ConfidenceHigh && level != agent.ConfidenceLow {
			level = agent.ConfidenceLow
		}
		doc.Segments = append(doc.Segments, Segment{Text: s.Text, Confidence: level, Keyword: s.Keyword})
	}
	for _, l := range r.AgentLogs {
		doc.AgentLog = append(doc.AgentLog, l.toMessage())
	}
	return doc
}
