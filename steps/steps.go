// Package steps tracks the optimistic pipeline-step display: a fixed catalog
// of named stages with estimated durations, an elapsed-time counter, and
// per-step timeout detection. The catalog is static configuration and is
// never derived from backend state.
package steps

import (
	"context"
	"sync"
	"time"

	"github.com/chiedza-labs/resurrect/agent"
)

// Status of one step in the tracker display.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
	StatusTimeout  Status = "timeout"
)

// Step is one stage of the pipeline with its display timing hints.
type Step struct {
	Name     string
	Agent    agent.Type
	Estimate time.Duration
	Timeout  time.Duration
}

// Catalog returns the default step list, one stage per pipeline role.
func Catalog() []Step {
	return []Step{
		{Name: "Document Scan", Agent: agent.Scanner, Estimate: 8 * time.Second, Timeout: 30 * time.Second},
		{Name: "Linguistic Analysis", Agent: agent.Linguist, Estimate: 6 * time.Second, Timeout: 25 * time.Second},
		{Name: "Historical Cross-Reference", Agent: agent.Historian, Estimate: 7 * time.Second, Timeout: 25 * time.Second},
		{Name: "Validation", Agent: agent.Validator, Estimate: 5 * time.Second, Timeout: 20 * time.Second},
		{Name: "Repair Assessment", Agent: agent.RepairAdvisor, Estimate: 4 * time.Second, Timeout: 20 * time.Second},
	}
}

// tickInterval drives the background ticker. Keep it a variable to make it
// easier to test.
var tickInterval = 100 * time.Millisecond

// Tracker maintains elapsed time and per-step statuses while a document is
// processing. Steps before the active one are complete, the active one is
// active, the rest pending. A step whose activation outlives its timeout
// flips to StatusTimeout and fires OnTimeout exactly once per activation.
type Tracker struct {
	// OnTimeout is invoked at most once per step activation, outside the
	// tracker lock.
	OnTimeout func(Step)

	mu           sync.Mutex
	steps        []Step
	statuses     []Status
	elapsed      time.Duration
	active       int
	activatedAt  time.Duration
	timeoutFired bool
	running      bool
	completed    bool
}

// NewTracker builds a tracker over the given catalog.
func NewTracker(catalog []Step) *Tracker {
	steps := make([]Step, len(catalog))
	copy(steps, catalog)
	statuses := make([]Status, len(steps))
	for i := range statuses {
		statuses[i] = StatusPending
	}
	return &Tracker{steps: steps, statuses: statuses, active: -1}
}

// Start begins counting. The first step becomes active.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running || t.completed {
		return
	}
	t.running = true
	t.elapsed = 0
	t.setActiveLocked(0)
}

// Run ticks the tracker on a fixed interval until ctx is cancelled or the
// tracker stops. Intended to be launched as a goroutine.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.Tick(tickInterval)
			t.mu.Lock()
			running := t.running
			t.mu.Unlock()
			if !running {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Tick advances elapsed time by d while running and evaluates the active
// step's timeout.
func (t *Tracker) Tick(d time.Duration) {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.elapsed += d

	var fired *Step
	if t.active >= 0 && !t.timeoutFired {
		step := t.steps[t.active]
		if t.elapsed-t.activatedAt > step.Timeout {
			t.statuses[t.active] = StatusTimeout
			t.timeoutFired = true
			fired = &step
		}
	}
	cb := t.OnTimeout
	t.mu.Unlock()

	if fired != nil && cb != nil {
		cb(*fired)
	}
}

// SetActive maps the currently active agent onto the step list. Earlier
// steps become complete, the matched step active, later steps pending. An
// unknown agent leaves the display unchanged.
func (t *Tracker) SetActive(a agent.Type) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	for i, s := range t.steps {
		if s.Agent == a {
			if i != t.active {
				t.setActiveLocked(i)
			}
			return
		}
	}
}

func (t *Tracker) setActiveLocked(idx int) {
	t.active = idx
	t.activatedAt = t.elapsed
	t.timeoutFired = false
	for i := range t.statuses {
		switch {
		case i < idx:
			t.statuses[i] = StatusComplete
		case i == idx:
			t.statuses[i] = StatusActive
		default:
			t.statuses[i] = StatusPending
		}
	}
}

// Complete stops the counter and force-marks every step complete regardless
// of timer state.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.completed = true
	for i := range t.statuses {
		t.statuses[i] = StatusComplete
	}
}

// Stop halts the counter without touching statuses, for the error path.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Elapsed reports the accumulated processing time.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Statuses returns a copy of the per-step display statuses.
func (t *Tracker) Statuses() []Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Status, len(t.statuses))
	copy(out, t.statuses)
	return out
}
