package emotion

import "github.com/easeaico/mnemosyne/internal/types"

// StateMachine updates affection and mood.
type StateMachine struct{}

const (
	minMoodTurns      = 2
	negativeThreshold = 2
	positiveThreshold = 2
)

// NewStateMachine returns a StateMachine.
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// ClampAffection bounds affection to 0-100.
func ClampAffection(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// Update returns the updated character state for one sentiment signal.
// Affection moves immediately; mood only flips after a sustained streak of
// the same label so a single outlier message cannot swing it.
func (s *StateMachine) Update(state types.CharacterState, label types.Label) types.CharacterState {
	switch label {
	case types.LabelPositive:
		state.Affection += 5
	case types.LabelNegative:
		state.Affection -= 10
	case types.LabelNeutral:
		state.Affection += 1
	}

	state.Affection = ClampAffection(state.Affection)

	labelStr := string(label)
	streak := 1
	if state.LastLabel == labelStr {
		streak = state.MoodTurns + 1
	}

	desired := deriveMood(state.Affection, label, state.Mood)
	switch label {
	case types.LabelPositive:
		if desired != state.Mood && streak >= positiveThreshold && streak >= minMoodTurns {
			state.Mood = desired
		}
	case types.LabelNegative:
		// Anger at low affection skips the streak requirement.
		if desired == "Angry" {
			state.Mood = desired
		} else if desired != state.Mood && streak >= negativeThreshold && streak >= minMoodTurns {
			state.Mood = desired
		}
	case types.LabelNeutral:
		// Keep current mood for neutral signals to stabilize.
	}

	state.LastLabel = labelStr
	state.MoodTurns = streak
	return state
}

func deriveMood(affection int, label types.Label, current string) string {
	switch label {
	case types.LabelNegative:
		if affection <= 30 {
			return "Angry"
		}
		return "Sad"
	case types.LabelPositive:
		return "Happy"
	case types.LabelNeutral:
		if current != "" {
			return current
		}
		return "Neutral"
	default:
		return "Neutral"
	}
}
