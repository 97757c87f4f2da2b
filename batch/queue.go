package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrBatchFull is returned once the queue holds MaxBatchSize files.
	// Callers treat it as a silent truncation, not a user-facing failure.
	ErrBatchFull = errors.New("batch is full")
	// ErrFileProcessing rejects removal of a file mid-processing.
	ErrFileProcessing = errors.New("file is processing and cannot be removed")
	// ErrNotFound reports an unknown file ID.
	ErrNotFound = errors.New("file not found")
	// ErrAlreadyRunning rejects a second Start while a batch is advancing.
	ErrAlreadyRunning = errors.New("batch already running")
)

// ProcessFunc restores one file. Implementations report display progress
// through report; the queue clamps it to a monotone non-decreasing value.
type ProcessFunc func(ctx context.Context, f *File, report func(float64)) (confidence float64, err error)

// Queue is the upload queue manager. It owns file bookkeeping only; the
// actual restoration work is supplied as a ProcessFunc at Start.
type Queue struct {
	// OnUpdate receives a snapshot of a file after every status or
	// progress change.
	OnUpdate func(File)

	logger *slog.Logger

	mu      sync.Mutex
	files   []*File
	running bool
	paused  bool
	resume  chan struct{}
	cancel  context.CancelFunc
}

// NewQueue builds an empty queue.
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger.With("component", "batch")}
}

// Add validates and enqueues one file. Files beyond MaxBatchSize are
// dropped with ErrBatchFull; types outside the allow-list are rejected with
// ErrUnsupportedType. Oversized files are accepted with a warning, per the
// advisory size limit.
func (q *Queue) Add(name string, data []byte) (*File, error) {
	mimeType, ok := sniffMime(name)
	if !ok {
		return nil, &ErrUnsupportedType{Name: name}
	}
	if mimeType == "application/pdf" {
		if err := validatePDF(data); err != nil {
			return nil, err
		}
	}
	if len(data) > MaxFileSize {
		q.logger.Warn("file exceeds advisory size limit", "name", name, "size", len(data))
	}

	q.mu.Lock()
	if len(q.files) >= MaxBatchSize {
		q.mu.Unlock()
		return nil, ErrBatchFull
	}
	f := newFile(name, mimeType, data)
	q.files = append(q.files, f)
	snapshot := *f
	q.mu.Unlock()

	q.notify(snapshot)
	return f, nil
}

// Remove deletes one file by ID. A file whose status is processing cannot
// be removed.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, f := range q.files {
		if f.ID != id {
			continue
		}
		if f.Status == StatusProcessing {
			return ErrFileProcessing
		}
		q.files = append(q.files[:i], q.files[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// Clear cancels any in-flight batch and empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	cancel := q.cancel
	q.cancel = nil
	q.files = nil
	q.running = false
	q.paused = false
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Start advances the queue in file order, calling process for each queued
// file. A per-file error marks that file failed and moves on; it never
// halts the rest of the batch.
func (q *Queue) Start(ctx context.Context, process ProcessFunc) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	q.running = true
	q.paused = false
	q.cancel = cancel
	q.mu.Unlock()

	go q.run(ctx, process)
	return nil
}

// Pause halts advancement after the current file without resetting any
// progress. Files still waiting flip to StatusPaused.
func (q *Queue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running || q.paused {
		return
	}
	q.paused = true
	q.resume = make(chan struct{})
	for _, f := range q.files {
		if f.Status == StatusQueued {
			f.Status = StatusPaused
		}
	}
}

// Resume continues from the current index.
func (q *Queue) Resume() {
	q.mu.Lock()
	if !q.paused {
		q.mu.Unlock()
		return
	}
	q.paused = false
	for _, f := range q.files {
		if f.Status == StatusPaused {
			f.Status = StatusQueued
		}
	}
	resume := q.resume
	q.resume = nil
	q.mu.Unlock()
	if resume != nil {
		close(resume)
	}
}

// Files returns snapshots of every queued file in order.
func (q *Queue) Files() []File {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]File, len(q.files))
	for i, f := range q.files {
		out[i] = *f
	}
	return out
}

// Running reports whether a batch is advancing.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

func (q *Queue) run(ctx context.Context, process ProcessFunc) {
	for {
		if !q.waitIfPaused(ctx) {
			q.finish()
			return
		}

		q.mu.Lock()
		var next *File
		for _, f := range q.files {
			if f.Status == StatusQueued {
				next = f
				break
			}
		}
		if next == nil {
			q.running = false
			q.cancel = nil
			q.mu.Unlock()
			return
		}
		next.Status = StatusProcessing
		next.StartedAt = time.Now()
		snapshot := *next
		q.mu.Unlock()
		q.notify(snapshot)

		report := func(p float64) {
			q.mu.Lock()
			if p > 100 {
				p = 100
			}
			if next.Status == StatusProcessing && p > next.Progress {
				next.Progress = p
				snap := *next
				q.mu.Unlock()
				q.notify(snap)
				return
			}
			q.mu.Unlock()
		}

		confidence, err := process(ctx, next, report)

		q.mu.Lock()
		if err != nil {
			next.Status = StatusError
			next.Err = err.Error()
			q.logger.Warn("file failed, continuing batch", "name", next.Name, "error", err)
		} else {
			next.Status = StatusComplete
			next.Progress = 100
			next.Confidence = &confidence
		}
		next.EndedAt = time.Now()
		snapshot = *next
		q.mu.Unlock()
		q.notify(snapshot)

		if ctx.Err() != nil {
			q.finish()
			return
		}
	}
}

func (q *Queue) waitIfPaused(ctx context.Context) bool {
	q.mu.Lock()
	resume := q.resume
	paused := q.paused
	q.mu.Unlock()
	if !paused {
		return ctx.Err() == nil
	}
	select {
	case <-resume:
		return true
	case <-ctx.Done():
		return false
	}
}

func (q *Queue) finish() {
	q.mu.Lock()
	q.running = false
	q.cancel = nil
	q.mu.Unlock()
}

func (q *Queue) notify(f File) {
	if q.OnUpdate != nil {
		q.OnUpdate(f)
	}
}
