package resurrect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chiedza-labs/resurrect/agent"
	"github.com/chiedza-labs/resurrect/archive"
	"github.com/chiedza-labs/resurrect/event"
	"github.com/chiedza-labs/resurrect/restore"
	"github.com/chiedza-labs/resurrect/steps"
	"github.com/chiedza-labs/resurrect/theater"
)

const eventQueueSize = 256

// Run restores one document. Consumers drain Next() until the channel
// closes, then read the result from Wait.
type Run struct {
	id   string
	name string
	data []byte
	orch *Orchestrator

	ctx    context.Context
	cancel context.CancelFunc

	theater *theater.Theater
	tracker *steps.Tracker
	events  chan event.Event
	logger  *slog.Logger
	started time.Time

	mu         sync.Mutex
	finished   bool
	activeStep int
	result     *restore.Document
	err        error
}

func newRun(ctx context.Context, o *Orchestrator, name string, data []byte) *Run {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		id:         uuid.New().String(),
		name:       name,
		data:       data,
		orch:       o,
		ctx:        runCtx,
		cancel:     cancel,
		theater:    theater.New(agent.Pipeline),
		tracker:    steps.NewTracker(o.catalog()),
		events:     make(chan event.Event, eventQueueSize),
		activeStep: -1,
		started:    time.Now(),
	}
	r.logger = o.logger().With("run", r.id, "document", name)

	r.theater.OnMessage = func(m theater.Message) {
		r.queueEvent(&event.MessageEvent{RunID: r.id, Document: r.name, Message: m})
		r.tracker.SetActive(m.Agent)
		r.announceActiveStep(m.Agent)
	}
	r.theater.OnTyping = func(a agent.Type) {
		r.queueEvent(&event.TypingEvent{RunID: r.id, Agent: a})
	}
	r.theater.OnProgress = func(p float64) {
		r.queueEvent(&event.ProgressEvent{RunID: r.id, Progress: p})
	}
	r.tracker.OnTimeout = func(s steps.Step) {
		r.logger.Warn("pipeline step exceeded its timeout", "step", s.Name)
		r.queueEvent(&event.StepEvent{RunID: r.id, Step: s.Name, Status: steps.StatusTimeout})
	}
	return r
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Next is the run's event stream; it closes when the run ends.
func (r *Run) Next() <-chan event.Event { return r.events }

// Cancel tears the run down: pending scripted timers are cleared and no
// further messages commit.
func (r *Run) Cancel() { r.cancel() }

// Wait drains any remaining events and returns the final document.
func (r *Run) Wait() (*restore.Document, error) {
	for range r.events {
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.err
}

// Theater exposes the run's display state for snapshot endpoints.
func (r *Run) Theater() *theater.Theater { return r.theater }

func (r *Run) start() {
	go r.process()
}

func (r *Run) process() {
	defer r.finish()

	r.tracker.Start()
	go r.tracker.Run(r.ctx)

	// A repeat upload costs nothing: same bytes, same verdict.
	if r.orch.Cache != nil && !restore.IsSample(r.name) {
		if doc, hit := r.orch.Cache.Get(r.ctx, r.data); hit {
			r.logger.Info("dedup cache hit, skipping processing")
			r.completeCached(doc)
			return
		}
	}

	scripted := restore.IsSample(r.name) || r.orch.Backend == nil
	fallback := false

	var doc *restore.Document
	var err error
	if !scripted {
		doc, err = r.liveRestore()
		if err != nil {
			if r.ctx.Err() != nil {
				r.fail(r.ctx.Err())
				return
			}
			r.logger.Warn("backend unavailable, falling back to scripted demo", "error", err)
			r.queueEvent(&event.ErrorEvent{RunID: r.id, Err: fmt.Errorf("restoration backend unavailable: %w", err)})
			scripted = true
			fallback = true
		}
	}
	if scripted {
		doc = r.playScripted()
		if doc == nil {
			r.fail(r.ctx.Err())
			return
		}
	}

	r.completeWith(doc, fallback)
}

func (r *Run) liveRestore() (*restore.Document, error) {
	r.theater.Start(r.ctx, theater.LiveSource{})

	// The backend streams deltas; the reconciler wants the cumulative log.
	var cumulative []theater.Message
	return r.orch.Backend.Stream(r.ctx, r.name, r.data, func(m theater.Message) {
		cumulative = append(cumulative, m)
		r.theater.ApplyLive(cumulative)
	})
}

func (r *Run) playScripted() *restore.Document {
	done := r.theater.Start(r.ctx, theater.ScriptedSource{Script: restore.Script(), Pacing: r.orch.Pacing})
	select {
	case <-done:
	case <-r.ctx.Done():
		return nil
	}
	if r.ctx.Err() != nil {
		return nil
	}
	doc := restore.MockDocument()
	doc.ProcessingTime = time.Since(r.started)
	return doc
}

func (r *Run) completeWith(doc *restore.Document, fallback bool) {
	if doc.ProcessingTime == 0 {
		doc.ProcessingTime = time.Since(r.started)
	}

	r.announceCompletion()
	r.persist(doc)
	if r.orch.Cache != nil {
		r.orch.Cache.Put(r.ctx, r.data, doc)
	}
	r.deliver(doc, fallback)
}

// completeCached delivers a previous restoration of the same bytes. The
// document already carries its archive ID; re-archiving or re-caching it
// would duplicate rows and defeat the cache.
func (r *Run) completeCached(doc *restore.Document) {
	r.announceCompletion()
	r.deliver(doc, false)
}

func (r *Run) announceCompletion() {
	r.theater.Complete()
	r.tracker.Complete()
	for _, s := range r.orch.catalog() {
		r.queueEvent(&event.StepEvent{RunID: r.id, Step: s.Name, Status: steps.StatusComplete})
	}
}

func (r *Run) deliver(doc *restore.Document, fallback bool) {
	r.mu.Lock()
	r.result = doc
	r.mu.Unlock()
	r.queueEvent(&event.CompleteEvent{RunID: r.id, Document: r.name, Result: doc, Fallback: fallback})
}

// persist archives the finished restoration. Failures are surfaced as a
// non-fatal notification and never retried or rolled back.
func (r *Run) persist(doc *restore.Document) {
	if r.orch.Archive == nil {
		return
	}
	logs, err := json.Marshal(doc.AgentLog)
	if err != nil {
		logs = []byte("[]")
	}
	confidence, err := json.Marshal(map[string]any{
		"overall":  doc.OverallConfidence,
		"segments": doc.Segments,
	})
	if err != nil {
		confidence = []byte("{}")
	}

	id, err := r.orch.Archive.Save(r.ctx, archive.Record{
		DocumentName:      r.name,
		RestoredText:      doc.Text(),
		AgentLogs:         logs,
		ConfidenceData:    confidence,
		OverallConfidence: doc.OverallConfidence,
		ProcessingTimeMs:  doc.ProcessingTime.Milliseconds(),
	})
	if err != nil {
		r.logger.Warn("archive save failed", "error", err)
		r.queueEvent(&event.ErrorEvent{RunID: r.id, Err: fmt.Errorf("could not archive restoration: %w", err)})
		return
	}
	doc.ArchiveID = id
}

func (r *Run) fail(err error) {
	if err == nil {
		err = context.Canceled
	}
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.tracker.Stop()
	r.theater.Reset()
}

func (r *Run) announceActiveStep(a agent.Type) {
	catalog := r.orch.catalog()
	for i, s := range catalog {
		if s.Agent != a {
			continue
		}
		r.mu.Lock()
		changed := i != r.activeStep
		r.activeStep = i
		r.mu.Unlock()
		if changed {
			r.queueEvent(&event.StepEvent{RunID: r.id, Step: s.Name, Status: steps.StatusActive})
		}
		return
	}
}

func (r *Run) queueEvent(evt event.Event) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	select {
	case r.events <- evt:
	default:
		r.logger.Error("event queue is full, dropping event", "event", fmt.Sprintf("%T", evt))
	}
	r.mu.Unlock()
}

func (r *Run) finish() {
	r.mu.Lock()
	r.finished = true
	close(r.events)
	r.mu.Unlock()
	r.cancel()
}
