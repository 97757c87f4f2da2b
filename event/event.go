// Package event defines the typed events a restoration run delivers to its
// consumer. Callers drain the run's channel with a type switch:
//
//	for evt := range run.Next() {
//		switch ev := evt.(type) {
//		case *event.MessageEvent:
//			render(ev.Message)
//		case *event.ProgressEvent:
//			setProgress(ev.Progress)
//		case *event.CompleteEvent:
//			showResult(ev.Result)
//		case *event.ErrorEvent:
//			toast(ev.Err)
//		}
//	}
package event

import (
	"github.com/chiedza-labs/resurrect/agent"
	"github.com/chiedza-labs/resurrect/batch"
	"github.com/chiedza-labs/resurrect/restore"
	"github.com/chiedza-labs/resurrect/steps"
	"github.com/chiedza-labs/resurrect/theater"
)

// Event identifies types that can be sent on a run's event channel.
type Event interface {
	ID() string
}

// MessageEvent carries one committed theater message.
type MessageEvent struct {
	RunID    string
	Document string
	Message  theater.Message
}

func (e *MessageEvent) ID() string { return e.RunID }

// TypingEvent announces the role currently "typing" (scripted pacing).
type TypingEvent struct {
	RunID string
	Agent agent.Type
}

func (e *TypingEvent) ID() string { return e.RunID }

// ProgressEvent carries the ratcheted display progress, 0-100.
type ProgressEvent struct {
	RunID    string
	Progress float64
}

func (e *ProgressEvent) ID() string { return e.RunID }

// StepEvent announces a pipeline-step status change on the timer display.
type StepEvent struct {
	RunID  string
	Step   string
	Status steps.Status
}

func (e *StepEvent) ID() string { return e.RunID }

// FileEvent carries a batch-queue file snapshot after a status or progress
// change.
type FileEvent struct {
	RunID string
	File  batch.File
}

func (e *FileEvent) ID() string { return e.RunID }

// CompleteEvent delivers the final restored document. Fallback marks a
// result produced by the scripted path rather than the live backend.
type CompleteEvent struct {
	RunID    string
	Document string
	Result   *restore.Document
	Fallback bool
}

func (e *CompleteEvent) ID() string { return e.RunID }

// ErrorEvent surfaces a non-fatal failure (backend unreachable, archive
// write refused). The run keeps rendering; the consumer decides how loudly
// to complain.
type ErrorEvent struct {
	RunID string
	Err   error
}

func (e *ErrorEvent) ID() string { return e.RunID }
