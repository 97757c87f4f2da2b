// Package archive persists finished restorations to the external archive
// store and fronts a content-hash deduplication cache. Persistence is a
// side effect of completion: failures here are logged and surfaced, never
// retried, and never roll back the rendered result.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Record is one archives-table row.
type Record struct {
	DocumentName      string          `json:"document_name"`
	OriginalText      string          `json:"original_text,omitempty"`
	RestoredText      string          `json:"restored_text"`
	AgentLogs         json.RawMessage `json:"agent_logs"`
	ConfidenceData    json.RawMessage `json:"confidence_data"`
	OverallConfidence float64         `json:"overall_confidence"`
	ProcessingTimeMs  int64           `json:"processing_time_ms"`
	CreatedAt         string          `json:"created_at,omitempty"`
}

// Store is a thin client for the managed datastore's REST surface.
type Store struct {
	url    string
	key    string
	http   *http.Client
	logger *slog.Logger
}

// NewStore builds a store client. An empty url disables persistence: Save
// becomes a logged no-op, matching the demo's keyless local setup.
func NewStore(url, key string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		url:    strings.TrimRight(url, "/"),
		key:    key,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger.With("component", "archive"),
	}
}

// Enabled reports whether the store is configured.
func (s *Store) Enabled() bool { return s.url != "" && s.key != "" }

// Save inserts one record and returns the assigned archive ID.
func (s *Store) Save(ctx context.Context, rec Record) (string, error) {
	if !s.Enabled() {
		s.logger.Info("archive store not configured, skipping save", "document", rec.DocumentName)
		return "", nil
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode archive record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/rest/v1/archives", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build archive request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive save: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("archive store returned %d", resp.StatusCode)
	}

	var rows []struct {
		ID any `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return "", fmt.Errorf("decode archive response: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return fmt.Sprint(rows[0].ID), nil
}

// Get fetches one archived restoration by ID.
func (s *Store) Get(ctx context.Context, id string) (map[string]any, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("archive store not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/rest/v1/archives?id=eq."+id, nil)
	if err != nil {
		return nil, fmt.Errorf("build archive fetch: %w", err)
	}
	s.authorize(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive store returned %d", resp.StatusCode)
	}

	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode archive fetch: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("archive %s not found", id)
	}
	return rows[0], nil
}

func (s *Store) authorize(req *http.Request) {
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
}
