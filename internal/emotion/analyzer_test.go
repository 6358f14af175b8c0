package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/mnemosyne/internal/types"
)

func TestAnalyzeValence(t *testing.T) {
	a := New()

	tests := []struct {
		name    string
		message string
		label   types.Label
	}{
		{"positive", "I'm so happy and excited today", types.LabelPositive},
		{"negative", "I'm really sad and lonely", types.LabelNegative},
		{"mixed cancels out", "I'm happy but also worried", types.LabelNeutral},
		{"no emotion words", "the meeting is at three", types.LabelNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.message, "")
			assert.Equal(t, tt.label, got.Label)
		})
	}
}

func TestAnalyzeIntensityModifiers(t *testing.T) {
	a := New()

	plain := a.Analyze("I'm worried about it", "")
	damped := a.Analyze("I'm slightly worried about it", "")
	boosted := a.Analyze("I'm extremely worried about it", "")

	assert.Less(t, damped.Intensity, plain.Intensity)
	assert.Greater(t, boosted.Intensity, plain.Intensity)
	assert.LessOrEqual(t, boosted.Intensity, 1.0)
}

func TestAnalyzeIntensityCompounds(t *testing.T) {
	a := New()

	one := a.Analyze("I'm sad", "")
	many := a.Analyze("I'm sad, lonely and worried", "")
	assert.Greater(t, many.Intensity, one.Intensity)
	assert.LessOrEqual(t, many.Intensity, 1.0)
}

func TestAnalyzeResponseWeightedLower(t *testing.T) {
	a := New()

	// The user's single negative word outweighs the agent's positive one.
	got := a.Analyze("I'm sad about this", "That's happy news though!")
	assert.Equal(t, types.LabelNegative, got.Label)
	assert.Negative(t, got.Valence)
}

func TestAnalyzePersonalInfoBonus(t *testing.T) {
	a := New()

	got := a.Analyze("My sister Sarah just moved to Brighton", "")
	require.Len(t, got.Bonuses, 1)
	b := got.Bonuses[0]
	assert.Equal(t, types.BonusPersonalInfo, b.Category)
	assert.Equal(t, 0.8, b.EmotionalBoost)
	assert.Equal(t, 3, b.MemoriesBonus)
	assert.Equal(t, 2, b.GrowthBonus)
	assert.Equal(t, 0.10, b.TrustBonus)
	assert.Zero(t, b.LevelBonus)
	assert.Equal(t, types.BonusPersonalInfo, got.Category)
}

func TestAnalyzeConsciousnessBonus(t *testing.T) {
	a := New()

	got := a.Analyze("Do you think AI can become conscious and real?", "")
	require.Len(t, got.Bonuses, 1)
	b := got.Bonuses[0]
	assert.Equal(t, types.BonusConsciousness, b.Category)
	assert.Equal(t, 1.2, b.EmotionalBoost)
	assert.Equal(t, 4, b.MemoriesBonus)
	assert.Equal(t, 4, b.GrowthBonus)
	assert.Equal(t, 0.20, b.TrustBonus)
	assert.Equal(t, 0.3, b.LevelBonus)
}

func TestAnalyzeProjectNeedsTwoSignals(t *testing.T) {
	a := New()

	weak := a.Analyze("I have an idea", "")
	assert.Empty(t, weak.Bonuses)
	assert.Equal(t, types.CategoryConversation, weak.Category)

	strong := a.Analyze("Let's collaborate on this project and build a prototype", "")
	require.Len(t, strong.Bonuses, 1)
	assert.Equal(t, types.BonusProject, strong.Bonuses[0].Category)
	assert.Equal(t, 1.0, strong.Bonuses[0].EmotionalBoost)
}

func TestAnalyzeStackedBonuses(t *testing.T) {
	a := New()

	got := a.Analyze("My sister thinks AI could become conscious one day", "")
	require.Len(t, got.Bonuses, 2)
	assert.Equal(t, types.BonusPersonalInfo, got.Bonuses[0].Category)
	assert.Equal(t, types.BonusConsciousness, got.Bonuses[1].Category)
	// The highest-priority category names the turn.
	assert.Equal(t, types.BonusPersonalInfo, got.Category)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := New()

	got := a.Analyze("", "")
	assert.Zero(t, got.Valence)
	assert.Zero(t, got.Intensity)
	assert.Equal(t, types.LabelNeutral, got.Label)
	assert.Equal(t, types.CategoryConversation, got.Category)
	assert.Empty(t, got.Bonuses)
}
