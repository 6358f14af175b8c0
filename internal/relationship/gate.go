package relationship

import (
	"regexp"
	"strings"
	"time"

	"github.com/easeaico/mnemosyne/internal/config"
)

// Gate decides whether an interaction counts toward relationship progress.
// It exists to keep repeated low-effort messages from farming level.
type Gate struct {
	minInterval         time.Duration
	minMessageLen       int
	duplicateWindow     int
	duplicateSimilarity float64
	diversityFloor      float64
}

// NewGate creates a Gate from config.
func NewGate(cfg config.RelationshipConfig) *Gate {
	return &Gate{
		minInterval:         cfg.MinInterval,
		minMessageLen:       cfg.MinMessageLen,
		duplicateWindow:     cfg.DuplicateWindow,
		duplicateSimilarity: cfg.DuplicateSimilarity,
		diversityFloor:      cfg.DiversityFloor,
	}
}

// charSpamRunLen is the shortest run of one repeated rune treated as spam.
const charSpamRunLen = 7

func hasCharSpam(text string) bool {
	var last rune
	run := 0
	for _, r := range text {
		if r == last {
			run++
			if run >= charSpamRunLen {
				return true
			}
		} else {
			last = r
			run = 1
		}
	}
	return false
}

// Check returns whether the message counts, with a short reason when it
// does not. recentMessages are the pair's previous counted messages, newest
// first.
func (g *Gate) Check(message string, lastInteractionAt time.Time, recentMessages []string, now time.Time) (bool, string) {
	trimmed := strings.TrimSpace(message)
	if len(trimmed) < g.minMessageLen {
		return false, "message too short"
	}
	if !lastInteractionAt.IsZero() && now.Sub(lastInteractionAt) < g.minInterval {
		return false, "interaction throttled"
	}
	if hasCharSpam(trimmed) {
		return false, "character spam"
	}

	words := tokens(trimmed)
	if len(words) > 4 {
		distinct := make(map[string]bool, len(words))
		for _, w := range words {
			distinct[w] = true
		}
		if float64(len(distinct))/float64(len(words)) < g.diversityFloor {
			return false, "low vocabulary diversity"
		}
	}

	window := recentMessages
	if len(window) > g.duplicateWindow {
		window = window[:g.duplicateWindow]
	}
	current := tokenSet(trimmed)
	for _, previous := range window {
		if tokenSetSimilarity(current, tokenSet(previous)) >= g.duplicateSimilarity {
			return false, "near-duplicate message"
		}
	}
	return true, ""
}

var wordPattern = regexp.MustCompile(`[a-z0-9']+`)

func tokens(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range tokens(text) {
		set[w] = true
	}
	return set
}

// tokenSetSimilarity is the Jaccard similarity of two token sets.
func tokenSetSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
