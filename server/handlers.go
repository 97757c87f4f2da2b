package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/chiedza-labs/resurrect/batch"
	"github.com/chiedza-labs/resurrect/event"
)

// uploadLimit caps the request body; intake validation advises on sizes
// beyond MaxFileSize, but the transport refuses the truly absurd.
const uploadLimit = 64 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRestore runs one upload to completion and returns the full result.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	name, data, err := readUpload(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}

	run := s.orch.Start(r.Context(), name, data)
	var done *event.CompleteEvent
	for evt := range run.Next() {
		s.mirror(evt)
		if c, ok := evt.(*event.CompleteEvent); ok {
			done = c
		}
	}
	if _, err := run.Wait(); err != nil {
		httpError(w, http.StatusServiceUnavailable, fmt.Errorf("restoration aborted: %w", err))
		return
	}
	if done == nil {
		httpError(w, http.StatusInternalServerError, fmt.Errorf("run ended without a result"))
		return
	}
	writeJSON(w, http.StatusOK, resultOf(done.Result, done.Fallback))
}

// handleRestoreStream runs one upload and streams every run event as SSE
// data lines, ending with the complete payload.
func (s *Server) handleRestoreStream(w http.ResponseWriter, r *http.Request) {
	name, data, err := readUpload(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	run := s.orch.Start(r.Context(), name, data)
	for evt := range run.Next() {
		s.mirror(evt)
		payload, ok := encodeEvent(evt)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

type batchFileWire struct {
	ID                string   `json:"id,omitempty"`
	Name              string   `json:"name"`
	Status            string   `json:"status"`
	Progress          float64  `json:"progress"`
	OverallConfidence *float64 `json:"overallConfidence,omitempty"`
	Error             string   `json:"error,omitempty"`
}

type batchResultWire struct {
	Files     []batchFileWire `json:"files"`
	Received  int             `json:"received"`
	Processed int             `json:"processed"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
}

// handleRestoreBatch queues every uploaded file and restores them in
// order, returning per-file results and a batch summary. Files beyond the
// batch cap are silently truncated; files outside the allow-list are
// reported per file without failing the rest.
func (s *Server) handleRestoreBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadLimit); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("parse batch upload: %w", err))
		return
	}
	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		httpError(w, http.StatusBadRequest, fmt.Errorf("no files in batch"))
		return
	}

	q := batch.NewQueue(s.logger)
	var accepted, terminal int
	done := make(chan struct{})
	q.OnUpdate = func(f batch.File) {
		s.mirror(&event.FileEvent{File: f})
		if f.Status == batch.StatusComplete || f.Status == batch.StatusError {
			terminal++
			if terminal == accepted {
				close(done)
			}
		}
	}

	var rejected []batchFileWire
	for _, fh := range uploads {
		data, err := readFormFile(fh)
		if err != nil {
			httpError(w, http.StatusBadRequest, err)
			return
		}
		if _, err := q.Add(fh.Filename, data); err != nil {
			if errors.Is(err, batch.ErrBatchFull) {
				s.logger.Debug("batch truncated", "name", fh.Filename)
				continue
			}
			rejected = append(rejected, batchFileWire{
				Name:   fh.Filename,
				Status: string(batch.StatusError),
				Error:  err.Error(),
			})
			continue
		}
		accepted++
	}

	if accepted > 0 {
		if err := s.orch.RunBatch(r.Context(), q); err != nil {
			httpError(w, http.StatusInternalServerError, err)
			return
		}
		select {
		case <-done:
		case <-r.Context().Done():
			return
		}
	}

	out := batchResultWire{Received: len(uploads), Processed: accepted}
	for _, f := range q.Files() {
		out.Files = append(out.Files, batchFileWire{
			ID:                f.ID,
			Name:              f.Name,
			Status:            string(f.Status),
			Progress:          f.Progress,
			OverallConfidence: f.Confidence,
			Error:             f.Err,
		})
		if f.Status == batch.StatusComplete {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	out.Files = append(out.Files, rejected...)
	out.Failed += len(rejected)
	writeJSON(w, http.StatusOK, out)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

// handleArchive proxies one archived restoration by ID.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	store := s.orch.Archive
	if store == nil || !store.Enabled() {
		httpError(w, http.StatusNotFound, fmt.Errorf("archive store not configured"))
		return
	}
	rec, err := store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// mirror forwards a run event to the websocket hub so passive viewers see
// the same theater as the uploader.
func (s *Server) mirror(evt event.Event) {
	if payload, ok := encodeEvent(evt); ok {
		s.hub.Broadcast(payload)
	}
}

// readUpload extracts the document from a multipart form ("file" field) or,
// for JSON clients, a base64 body matching the backend's own shape.
func readUpload(r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, uploadLimit)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			ImageBase64  string `json:"image_base64"`
			DocumentName string `json:"document_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", nil, fmt.Errorf("decode upload: %w", err)
		}
		data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			return "", nil, fmt.Errorf("decode image payload: %w", err)
		}
		if req.DocumentName != "" && !batch.Supported(req.DocumentName) {
			return "", nil, &batch.ErrUnsupportedType{Name: req.DocumentName}
		}
		return req.DocumentName, data, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()
	if !batch.Supported(header.Filename) {
		return "", nil, &batch.ErrUnsupportedType{Name: header.Filename}
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
