package theater

import (
	"strings"

	"github.com/chiedza-labs/resurrect/agent"
)

// dedupKeyLen bounds the text prefix used for duplicate detection. Live
// backends occasionally redeliver a message with trailing detail appended;
// keying on the prefix collapses those into one entry.
const dedupKeyLen = 50

// progressCap is the ceiling applied while processing is still underway.
// Only an explicit completion signal moves the needle to 100.
const progressCap = 95

// Reconciler folds a growing external message list into a display timeline.
// Each call to Apply receives the full cumulative list as currently known,
// not a delta, which makes repeated and out-of-order deliveries harmless:
// display order is the order of first appearance.
//
// Progress is a monotonic ratchet: it never decreases across updates, even
// when a late-arriving list implies a lower pipeline ordinal.
type Reconciler struct {
	roles    []agent.Type
	progress float64
	complete bool
}

// NewReconciler builds a reconciler over the given pipeline order. Pass
// agent.Pipeline unless a test needs a reduced catalog.
func NewReconciler(roles []agent.Type) *Reconciler {
	return &Reconciler{roles: roles}
}

// View is the reconciled display state after an Apply call.
type View struct {
	Messages []Message
	Active   agent.Type
	Progress float64
}

// Apply deduplicates the cumulative message list and returns the view that
// should replace the displayed timeline wholesale.
func (r *Reconciler) Apply(all []Message) View {
	seen := make(map[string]bool, len(all))
	initSeen := make(map[agent.Type]bool)
	out := make([]Message, 0, len(all))

	for _, m := range all {
		if isInitializing(m.Text) {
			if initSeen[m.Agent] {
				continue
			}
			initSeen[m.Agent] = true
			out = append(out, m)
			continue
		}
		key := string(m.Agent) + "|" + prefix(m.Text, dedupKeyLen)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}

	view := View{Messages: out, Progress: r.progress}
	if len(out) == 0 {
		return view
	}

	last := out[len(out)-1].Agent
	view.Active = last

	p := r.ordinalProgress(last)
	if r.complete {
		p = 100
	}
	if p > r.progress {
		r.progress = p
	}
	view.Progress = r.progress
	return view
}

// Complete snaps progress to 100 regardless of how far the live log got.
// The backend's completion signal is trusted unconditionally.
func (r *Reconciler) Complete() float64 {
	r.complete = true
	r.progress = 100
	return r.progress
}

// Progress reports the current ratcheted value.
func (r *Reconciler) Progress() float64 { return r.progress }

// Reset clears the ratchet and completion flag for a new document.
func (r *Reconciler) Reset() {
	r.progress = 0
	r.complete = false
}

func (r *Reconciler) ordinalProgress(t agent.Type) float64 {
	ord := -1
	for i, a := range r.roles {
		if a == t {
			ord = i
			break
		}
	}
	if ord < 0 || len(r.roles) == 0 {
		return 0
	}
	p := float64(ord+1) / float64(len(r.roles)) * 100
	if p > progressCap {
		p = progressCap
	}
	return p
}

func isInitializing(text string) bool {
	return strings.Contains(strings.ToLower(text), "initializing")
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
