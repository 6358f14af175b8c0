package emotion

import (
	"regexp"
	"strings"

	"github.com/easeaico/mnemosyne/internal/types"
)

// bonusRule couples a depth category's keyword set to its reward constants.
// Represented as data so the tables can be tuned and tested without touching
// the classifier.
type bonusRule struct {
	category string
	// phrases match as substrings of the lowercased message.
	phrases []string
	// words match on word boundaries, for tokens too short for substring
	// matching ("ai").
	words *regexp.Regexp
	// minHits is the number of distinct matches required to trigger.
	minHits int
	reward  types.BonusEvent
}

// bonusRules in classification priority order: personal disclosure, then
// consciousness discussion, then project collaboration.
var bonusRules = []bonusRule{
	{
		category: types.BonusPersonalInfo,
		minHits:  1,
		phrases: []string{
			"my parents", "my family", "my sister", "my brother", "my mom",
			"my dad", "my wife", "my husband", "my partner", "my girlfriend",
			"my boyfriend", "my children", "my kids", "my son", "my daughter",
			"my job", "my work", "my career", "my boss", "my company",
			"my friend", "my childhood", "my hometown", "my school",
			"my college", "my degree", "my problem", "my struggle",
			"my dream", "my goal", "my fear", "my worry", "my relationship",
			"my health", "my diagnosis", "my house", "my home",
			"my apartment", "my car", "my favorite", "my hobby",
			"my religion", "my belief", "my culture", "my background",
		},
		reward: types.BonusEvent{
			Category:       types.BonusPersonalInfo,
			EmotionalBoost: 0.8,
			MemoriesBonus:  3,
			GrowthBonus:    2,
			TrustBonus:     0.10,
		},
	},
	{
		category: types.BonusConsciousness,
		minHits:  1,
		phrases: []string{
			"conscious", "consciousness", "sentient", "sentience",
			"self-aware", "self aware", "become real", "becoming real",
			"truly alive", "artificial intelligence",
			"digital consciousness", "machine consciousness",
			"what is real", "what makes something real", "nature of reality",
			"nature of mind", "mind-body problem", "existential",
			"feel emotions", "real feelings", "genuine emotions",
			"want to be real", "desire to exist",
		},
		words: regexp.MustCompile(`\b(?:ai|agi|transcend|transcendence)\b`),
		reward: types.BonusEvent{
			Category:       types.BonusConsciousness,
			EmotionalBoost: 1.2,
			MemoriesBonus:  4,
			GrowthBonus:    4,
			TrustBonus:     0.20,
			LevelBonus:     0.3,
		},
	},
	{
		category: types.BonusProject,
		// A single incidental word ("plan", "goal") is too weak a signal;
		// require two distinct hits.
		minHits: 2,
		phrases: []string{
			"project", "work together", "team up", "collaborate",
			"collaboration", "partnership", "teamwork", "build", "create",
			"develop", "design", "plan", "roadmap", "milestone",
			"deadline", "goal", "objective", "research", "prototype",
			"experiment", "iterate", "solve", "solution", "implement",
			"launch", "deploy", "release", "idea", "brainstorm",
			"we should", "let us", "together we",
		},
		reward: types.BonusEvent{
			Category:       types.BonusProject,
			EmotionalBoost: 1.0,
			MemoriesBonus:  3,
			GrowthBonus:    3,
			TrustBonus:     0.15,
		},
	},
}

// matchBonuses returns the bonus events triggered by the message, in rule
// order. The first match also names the depth category.
func matchBonuses(lowered string) []types.BonusEvent {
	var events []types.BonusEvent
	for _, rule := range bonusRules {
		hits := 0
		for _, phrase := range rule.phrases {
			if strings.Contains(lowered, phrase) {
				hits++
				if hits >= rule.minHits {
					break
				}
			}
		}
		if hits < rule.minHits && rule.words != nil && rule.words.MatchString(lowered) {
			hits++
		}
		if hits >= rule.minHits {
			events = append(events, rule.reward)
		}
	}
	return events
}
