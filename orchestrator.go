// Package resurrect wires the document-restoration demo together: upload
// queue in, agent theater out, with the external backend in the middle and
// a deterministic scripted fallback so the narrative never breaks on stage.
package resurrect

import (
	"context"
	"log/slog"
	"os"

	"github.com/chiedza-labs/resurrect/agent"
	"github.com/chiedza-labs/resurrect/archive"
	"github.com/chiedza-labs/resurrect/batch"
	"github.com/chiedza-labs/resurrect/event"
	"github.com/chiedza-labs/resurrect/restore"
	"github.com/chiedza-labs/resurrect/steps"
	"github.com/chiedza-labs/resurrect/theater"
)

// ResultCache deduplicates restoration work by content hash. Implemented
// by archive.Cache; tests substitute their own.
type ResultCache interface {
	Get(ctx context.Context, data []byte) (*restore.Document, bool)
	Put(ctx context.Context, data []byte, doc *restore.Document)
}

// Orchestrator owns the long-lived collaborators shared by every run.
type Orchestrator struct {
	// Backend is the restoration client; nil forces the scripted path for
	// every document.
	Backend *restore.Client
	// Archive persists completed restorations. Saves are best-effort.
	Archive *archive.Store
	// Cache short-circuits repeat uploads by content hash. Optional.
	Cache ResultCache
	// Catalog overrides the default step catalog; mostly for tests.
	Catalog []steps.Step
	// Pacing overrides the scripted playback rhythm; tests collapse it.
	Pacing theater.Pacing
	Logger *slog.Logger
}

// NewOrchestrator builds an orchestrator from settings.
func NewOrchestrator(s *Settings) *Orchestrator {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: s.Level()}))
	o := &Orchestrator{
		Archive: archive.NewStore(s.Archive.URL, s.Archive.Key, logger),
		Cache:   archive.NewCache(s.Cache.RedisAddr, s.Cache.TTL, logger),
		Logger:  logger,
	}
	if s.Backend.URL != "" {
		o.Backend = restore.NewClient(s.Backend.URL, logger)
	}
	return o
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Orchestrator) catalog() []steps.Step {
	if len(o.Catalog) > 0 {
		return o.Catalog
	}
	return steps.Catalog()
}

// Start begins restoring one document and returns its run. Events arrive on
// run.Next() until the run completes or is cancelled.
func (o *Orchestrator) Start(ctx context.Context, name string, data []byte) *Run {
	run := newRun(ctx, o, name, data)
	run.start()
	return run
}

// ProcessFile adapts a run to the batch queue's ProcessFunc: it drains the
// run's events, forwarding progress to the queue, and returns the final
// confidence. A fallback completion counts as success: the demo narrative,
// not the backend, is the product.
func (o *Orchestrator) ProcessFile(ctx context.Context, f *batch.File, report func(float64)) (float64, error) {
	run := o.Start(ctx, f.Name, f.Data)
	for evt := range run.Next() {
		if p, ok := evt.(*event.ProgressEvent); ok && report != nil {
			report(p.Progress)
		}
	}
	doc, err := run.Wait()
	if err != nil {
		return 0, err
	}
	return doc.OverallConfidence, nil
}

// RunBatch starts queue advancement using this orchestrator as the
// per-file processor.
func (o *Orchestrator) RunBatch(ctx context.Context, q *batch.Queue) error {
	return q.Start(ctx, o.ProcessFile)
}

// Roles exposes the pipeline order the theater renders.
func (o *Orchestrator) Roles() []agent.Type { return agent.Pipeline }
