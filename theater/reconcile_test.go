package theater

import (
	"testing"

	"github.com/chiedza-labs/resurrect/agent"
	"github.com/stretchr/testify/assert"
)

func msg(a agent.Type, text string) Message {
	return Message{Agent: a, Text: text}
}

func TestApplyDropsExactDuplicates(t *testing.T) {
	r := NewReconciler(agent.Pipeline)
	view := r.Apply([]Message{
		msg(agent.Scanner, "Extracted 840 characters"),
		msg(agent.Scanner, "Extracted 840 characters"),
		msg(agent.Linguist, "Converting Doke orthography"),
	})
	assert.Len(t, view.Messages, 2)
	assert.Equal(t, agent.Linguist, view.Active)
}

func TestApplyKeysOnTextPrefix(t *testing.T) {
	r := NewReconciler(agent.Pipeline)
	long := "This message is deliberately written to be much longer than the fifty character dedup window"
	view := r.Apply([]Message{
		msg(agent.Historian, long),
		msg(agent.Historian, long+" with extra trailing detail from a redelivery"),
	})
	assert.Len(t, view.Messages, 1)
}

func TestApplyKeepsOneInitializingPerAgent(t *testing.T) {
	r := NewReconciler(agent.Pipeline)
	view := r.Apply([]Message{
		msg(agent.Scanner, "Initializing document scan..."),
		msg(agent.Scanner, "INITIALIZING scan engine (retry)"),
		msg(agent.Linguist, "Initializing linguistic analysis..."),
		msg(agent.Scanner, "initializing once more"),
	})
	assert.Len(t, view.Messages, 2)
	assert.Equal(t, agent.Scanner, view.Messages[0].Agent)
	assert.Equal(t, agent.Linguist, view.Messages[1].Agent)
}

func TestApplyPreservesFirstAppearanceOrder(t *testing.T) {
	r := NewReconciler(agent.Pipeline)
	first := r.Apply([]Message{
		msg(agent.Scanner, "scan done"),
		msg(agent.Linguist, "converting"),
	})
	// Redelivery reorders the cumulative list; display order must not move.
	second := r.Apply([]Message{
		msg(agent.Linguist, "converting"),
		msg(agent.Scanner, "scan done"),
	})
	assert.Equal(t, first.Messages[0].Text, "scan done")
	assert.Equal(t, second.Messages[0].Text, "converting")
	assert.Len(t, second.Messages, 2)
}

func TestProgressRatchetNeverDecreases(t *testing.T) {
	r := NewReconciler(agent.Pipeline)
	v1 := r.Apply([]Message{msg(agent.Validator, "cross-checking outputs")})
	v2 := r.Apply([]Message{msg(agent.Scanner, "late scanner redelivery")})
	assert.GreaterOrEqual(t, v2.Progress, v1.Progress)
	assert.Equal(t, v1.Progress, v2.Progress)
}

func TestProgressCappedUntilComplete(t *testing.T) {
	r := NewReconciler(agent.Pipeline)
	view := r.Apply([]Message{msg(agent.RepairAdvisor, "recommending treatment")})
	assert.Equal(t, float64(progressCap), view.Progress)

	assert.Equal(t, float64(100), r.Complete())
}

func TestCompleteSnapsUnconditionally(t *testing.T) {
	r := NewReconciler(agent.Pipeline)
	r.Apply([]Message{msg(agent.Scanner, "only the first role ever spoke")})
	assert.Equal(t, float64(100), r.Complete())
}

func TestResetClearsRatchet(t *testing.T) {
	r := NewReconciler(agent.Pipeline)
	r.Apply([]Message{msg(agent.Validator, "checking")})
	r.Reset()
	assert.Equal(t, float64(0), r.Progress())
}
