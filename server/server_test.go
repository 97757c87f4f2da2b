package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiedza-labs/resurrect"
	"github.com/chiedza-labs/resurrect/agent"
	"github.com/chiedza-labs/resurrect/archive"
	"github.com/chiedza-labs/resurrect/restore"
	"github.com/chiedza-labs/resurrect/steps"
	"github.com/chiedza-labs/resurrect/theater"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testServer() *Server {
	orch := &resurrect.Orchestrator{
		Catalog: []steps.Step{
			{Name: "Document Scan", Agent: agent.Scanner, Estimate: time.Second, Timeout: time.Minute},
		},
		Pacing: theater.Pacing{
			ThinkMin: time.Millisecond, ThinkMax: 2 * time.Millisecond,
			TypeMin: time.Millisecond, TypeMax: 2 * time.Millisecond,
		},
		Logger: quiet,
	}
	return New(":0", orch, quiet)
}

func multipartUpload(t *testing.T, name string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestCORSPreflight(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/restore", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRestoreMultipartUpload(t *testing.T) {
	s := testServer()
	body, contentType := multipartUpload(t, "mucheke-letter.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/restore", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		OverallConfidence float64 `json:"overallConfidence"`
		Fallback          bool    `json:"fallback"`
		Segments          []any   `json:"segments"`
		AgentLogs         []any   `json:"agentLogs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, float64(94), result.OverallConfidence)
	assert.False(t, result.Fallback)
	assert.NotEmpty(t, result.Segments)
	assert.Len(t, result.AgentLogs, len(restore.Script()))
}

func TestRestoreJSONUpload(t *testing.T) {
	s := testServer()
	payload := `{"image_base64":"cG5nLWJ5dGVz","document_name":"sample-mission-letter.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"overallConfidence":94`)
}

func TestRestoreRejectsDisallowedType(t *testing.T) {
	s := testServer()
	body, contentType := multipartUpload(t, "notes.docx", []byte("zip-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/restore", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
}

func TestRestoreJSONRejectsDisallowedType(t *testing.T) {
	s := testServer()
	payload := `{"image_base64":"cG5nLWJ5dGVz","document_name":"notes.docx"}`
	req := httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestoreRejectsMissingFile(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader("not a form"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestoreStreamDeliversEventsThenCompletion(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	body, contentType := multipartUpload(t, "mucheke-letter.png", []byte("png-bytes"))
	resp, err := http.Post(srv.URL+"/restore/stream", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var messages int
	var complete *completeEnvelope
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var probe struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal([]byte(payload), &probe))
		switch probe.Type {
		case "agent_message":
			messages++
		case "complete":
			var env completeEnvelope
			require.NoError(t, json.Unmarshal([]byte(payload), &env))
			complete = &env
		}
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, len(restore.Script()), messages)
	require.NotNil(t, complete, "stream must end with a completion payload")
	assert.Equal(t, float64(94), complete.Result.OverallConfidence)
}

func multipartBatch(t *testing.T, names ...string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postBatch(t *testing.T, s *Server, names ...string) (int, batchResultWire) {
	t.Helper()
	body, contentType := multipartBatch(t, names...)
	req := httptest.NewRequest(http.MethodPost, "/restore/batch", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var out batchResultWire
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestBatchRestoresEveryFileInOrder(t *testing.T) {
	s := testServer()
	code, out := postBatch(t, s, "first.png", "second.jpg")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, 2, out.Received)
	assert.Equal(t, 2, out.Processed)
	assert.Equal(t, 2, out.Succeeded)
	assert.Zero(t, out.Failed)
	require.Len(t, out.Files, 2)
	assert.Equal(t, "first.png", out.Files[0].Name)
	assert.Equal(t, "second.jpg", out.Files[1].Name)
	for _, f := range out.Files {
		assert.Equal(t, "complete", f.Status)
		assert.Equal(t, float64(100), f.Progress)
		require.NotNil(t, f.OverallConfidence)
		assert.Equal(t, float64(94), *f.OverallConfidence)
	}
}

func TestBatchSilentlyTruncatesBeyondCap(t *testing.T) {
	s := testServer()
	code, out := postBatch(t, s,
		"a.png", "b.png", "c.png", "d.png", "e.png", "f.png", "g.png")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, 7, out.Received)
	assert.Equal(t, 5, out.Processed)
	assert.Equal(t, 5, out.Succeeded)
	assert.Zero(t, out.Failed)
	assert.Len(t, out.Files, 5)
}

func TestBatchReportsDisallowedFilesWithoutFailingOthers(t *testing.T) {
	s := testServer()
	code, out := postBatch(t, s, "letter.png", "notes.docx")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Files, 2)
	assert.Equal(t, "complete", out.Files[0].Status)
	assert.Equal(t, "error", out.Files[1].Status)
	assert.Contains(t, out.Files[1].Error, "unsupported file type")
}

func TestBatchRejectsEmptyUpload(t *testing.T) {
	s := testServer()
	body, contentType := multipartBatch(t)
	req := httptest.NewRequest(http.MethodPost, "/restore/batch", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArchiveLookup(t *testing.T) {
	supabase := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		fmt.Fprint(w, `[{"id":"arch-1903","document_name":"mucheke-letter.png"}]`)
	}))
	defer supabase.Close()

	s := testServer()
	s.orch.Archive = archive.NewStore(supabase.URL, "anon-key", quiet)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/archives/arch-1903", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mucheke-letter.png")
}

func TestArchiveLookupUnconfigured(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/archives/arch-1903", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocketMirrorsRunEvents(t *testing.T) {
	s := testServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Hub().Run(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	body, contentType := multipartUpload(t, "mucheke-letter.png", []byte("png-bytes"))
	resp, err := http.Post(srv.URL+"/restore", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var sawMessage, sawComplete bool
	for !sawComplete {
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		var probe struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(payload, &probe))
		switch probe.Type {
		case "agent_message":
			sawMessage = true
		case "complete":
			sawComplete = true
		}
	}
	assert.True(t, sawMessage)
}
