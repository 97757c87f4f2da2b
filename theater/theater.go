package theater

import (
	"context"
	"sync"

	"github.com/chiedza-labs/resurrect/agent"
)

// State is the theater lifecycle: idle until a document arrives, processing
// while a source plays, complete once the restoration finishes. idle and
// complete with zero messages render the empty-state prompt.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateComplete   State = "complete"
)

// Source selects where the timeline comes from. Exactly one reconciliation
// path consumes it, so the live-vs-scripted split lives here and nowhere
// else.
type Source interface{ sourceKind() string }

// LiveSource marks an externally streamed message log. Feed cumulative
// updates through Theater.ApplyLive.
type LiveSource struct{}

func (LiveSource) sourceKind() string { return "live" }

// ScriptedSource plays the embedded demo script on timers. Pacing defaults
// to DefaultPacing when zero.
type ScriptedSource struct {
	Script []Message
	Pacing Pacing
}

func (ScriptedSource) sourceKind() string { return "scripted" }

// Theater owns the rendered timeline for one document at a time. All
// mutation happens under one lock; the scripted player's callbacks and the
// live feed both land here.
type Theater struct {
	// OnMessage fires for each message committed to the timeline. For the
	// live source that means every newly displayed message after a
	// reconcile pass; for the scripted source, every script commit.
	OnMessage func(Message)
	// OnTyping fires when a role starts typing (scripted source only).
	OnTyping func(agent.Type)
	// OnProgress fires whenever displayed progress moves.
	OnProgress func(float64)

	mu         sync.Mutex
	state      State
	source     Source
	messages   []Message
	active     agent.Type
	progress   float64
	reconciler *Reconciler
	player     *Player
	roles      []agent.Type
}

// New builds an idle theater over the given pipeline order.
func New(roles []agent.Type) *Theater {
	return &Theater{
		state:      StateIdle,
		roles:      roles,
		reconciler: NewReconciler(roles),
	}
}

// Start transitions to processing with the given source. Starting over a
// previous run resets messages, progress, and the dedup index first, and
// cancels any scripted timers still pending from the old run. The returned
// channel closes when scripted playback ends (immediately for a live
// source, whose lifetime is the caller's stream).
func (t *Theater) Start(ctx context.Context, src Source) <-chan struct{} {
	t.Reset()

	t.mu.Lock()
	t.state = StateProcessing
	t.source = src
	t.mu.Unlock()

	scripted, ok := src.(ScriptedSource)
	if !ok {
		closed := make(chan struct{})
		close(closed)
		return closed
	}

	player := NewPlayer(scripted.Script)
	player.Pacing = scripted.Pacing
	player.OnTyping = func(a agent.Type) {
		t.mu.Lock()
		t.active = a
		t.mu.Unlock()
		if t.OnTyping != nil {
			t.OnTyping(a)
		}
	}
	player.OnMessage = func(m Message) {
		t.mu.Lock()
		t.messages = append(t.messages, m)
		t.active = m.Agent
		t.mu.Unlock()
		if t.OnMessage != nil {
			t.OnMessage(m)
		}
	}
	player.OnProgress = func(p float64) {
		t.mu.Lock()
		t.progress = p
		t.mu.Unlock()
		if t.OnProgress != nil {
			t.OnProgress(p)
		}
	}

	t.mu.Lock()
	t.player = player
	t.mu.Unlock()
	player.Start(ctx)
	return player.Done()
}

// ApplyLive feeds the full cumulative external log through the reconciler
// and replaces the displayed timeline wholesale. Messages not previously
// displayed are announced through OnMessage in display order.
func (t *Theater) ApplyLive(all []Message) View {
	t.mu.Lock()
	if _, ok := t.source.(LiveSource); !ok || t.state != StateProcessing {
		view := View{Messages: t.messages, Active: t.active, Progress: t.progress}
		t.mu.Unlock()
		return view
	}
	prev := len(t.messages)
	view := t.reconciler.Apply(all)
	t.messages = view.Messages
	t.active = view.Active
	moved := view.Progress != t.progress
	t.progress = view.Progress
	fresh := make([]Message, 0)
	if len(view.Messages) > prev {
		fresh = append(fresh, view.Messages[prev:]...)
	}
	t.mu.Unlock()

	if t.OnMessage != nil {
		for _, m := range fresh {
			t.OnMessage(m)
		}
	}
	if moved && t.OnProgress != nil {
		t.OnProgress(view.Progress)
	}
	return view
}

// Complete ends processing. Progress snaps to 100 unconditionally, even if
// a live log never reached the final role. Pending scripted timers are
// cancelled.
func (t *Theater) Complete() {
	t.mu.Lock()
	player := t.player
	t.player = nil
	t.state = StateComplete
	t.progress = t.reconciler.Complete()
	t.mu.Unlock()

	if player != nil {
		player.Stop()
	}
	if t.OnProgress != nil {
		t.OnProgress(100)
	}
}

// Reset returns the theater to idle for a new document: empty timeline,
// zero progress, fresh dedup state, and no pending timers from a previous
// scripted run.
func (t *Theater) Reset() {
	t.mu.Lock()
	player := t.player
	t.player = nil
	t.mu.Unlock()
	if player != nil {
		player.Stop()
	}

	t.mu.Lock()
	t.state = StateIdle
	t.source = nil
	t.messages = nil
	t.active = ""
	t.progress = 0
	t.reconciler = NewReconciler(t.roles)
	t.mu.Unlock()
}

// Snapshot returns the current display state.
func (t *Theater) Snapshot() (State, View) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := make([]Message, len(t.messages))
	copy(msgs, t.messages)
	return t.state, View{Messages: msgs, Active: t.active, Progress: t.progress}
}
