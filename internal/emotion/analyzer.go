package emotion

import (
	"regexp"
	"strings"

	"github.com/easeaico/mnemosyne/internal/types"
)

// Analyzer scores the emotional content of a conversation turn and
// classifies its depth category. It is stateless and safe for concurrent
// use.
type Analyzer struct{}

func New() *Analyzer {
	return &Analyzer{}
}

// responseWeight discounts the agent's own words so the user's message
// dominates the reading.
const responseWeight = 0.5

var wordSplit = regexp.MustCompile(`[a-z']+`)

type hit struct {
	entry  lexiconEntry
	weight float64
	// adjusted is the modifier-scaled intensity, clamped to 1.
	adjusted float64
}

// Analyze scores the user message together with the agent response and
// returns valence, intensity, a coarse label, the depth category and any
// bonus events the turn triggered.
func (a *Analyzer) Analyze(userMessage, agentResponse string) types.EmotionalAnalysis {
	hits := scanWords(userMessage, 1.0)
	hits = append(hits, scanWords(agentResponse, responseWeight)...)

	var pos, neg float64
	for _, h := range hits {
		switch {
		case h.entry.Valence > 0:
			pos += h.weight
		case h.entry.Valence < 0:
			neg += h.weight
		}
	}

	var valence float64
	if pos+neg > 0 {
		valence = (pos - neg) / (pos + neg)
	}

	intensity := 0.0
	for _, h := range hits {
		if h.adjusted > intensity {
			intensity = h.adjusted
		}
	}
	// Multiple emotion words compound slightly.
	if n := len(hits); n > 1 {
		intensity += 0.1 * float64(n-1)
	}
	if intensity > 1 {
		intensity = 1
	}

	label := types.LabelNeutral
	switch {
	case valence >= 0.2:
		label = types.LabelPositive
	case valence <= -0.2:
		label = types.LabelNegative
	}

	bonuses := matchBonuses(strings.ToLower(userMessage))
	category := types.CategoryConversation
	if len(bonuses) > 0 {
		category = bonuses[0].Category
	}

	return types.EmotionalAnalysis{
		Valence:   valence,
		Intensity: intensity,
		Category:  category,
		Label:     label,
		Bonuses:   bonuses,
	}
}

// scanWords walks the text and collects lexicon hits, applying any
// intensity modifier that directly precedes an emotion word.
func scanWords(text string, weight float64) []hit {
	if text == "" {
		return nil
	}
	words := wordSplit.FindAllString(strings.ToLower(text), -1)
	var hits []hit
	for i, w := range words {
		entry, ok := emotionLexicon[w]
		if !ok {
			continue
		}
		adjusted := entry.Intensity
		if i > 0 {
			if mod, ok := intensityModifiers[words[i-1]]; ok {
				adjusted *= mod
			}
		}
		if adjusted > 1 {
			adjusted = 1
		}
		hits = append(hits, hit{entry: entry, weight: weight, adjusted: adjusted * weight})
	}
	return hits
}
