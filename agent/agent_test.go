package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrdinalFollowsPipelineOrder(t *testing.T) {
	assert.Equal(t, 0, Ordinal(Scanner))
	assert.Equal(t, 4, Ordinal(RepairAdvisor))
	assert.Equal(t, -1, Ordinal(Type("archivist")))
}

func TestParse(t *testing.T) {
	got, ok := Parse(" Repair_Advisor ")
	assert.True(t, ok)
	assert.Equal(t, RepairAdvisor, got)

	_, ok = Parse("unknown")
	assert.False(t, ok)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, LevelFor(94))
	assert.Equal(t, ConfidenceMedium, LevelFor(65))
	assert.Equal(t, ConfidenceLow, LevelFor(40))
}

func TestEveryPipelineRoleHasAProfile(t *testing.T) {
	for _, role := range Pipeline {
		p := ProfileFor(role)
		assert.Equal(t, role, p.Type)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Color)
	}
}
