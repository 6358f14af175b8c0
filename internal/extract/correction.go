package extract

import (
	"regexp"
	"strings"

	"github.com/easeaico/mnemosyne/internal/types"
)

// correctionMarkers flag a message as contradicting earlier facts.
var correctionMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:actually|wait|correction)\b`),
	regexp.MustCompile(`(?i)\bno,?\s*i meant\b`),
	regexp.MustCompile(`(?i)\bthat(?:'s| is) (?:wrong|incorrect|not true)\b`),
	regexp.MustCompile(`(?i)\blet me correct that\b`),
	regexp.MustCompile(`(?i)\bi (?:have |'ve )?moved to\b`),
	regexp.MustCompile(`(?i)\bnot\s+(?:\w+\s+){1,3}anymore\b`),
}

// categoryHints guess the corrected category when the corrected sentence
// itself carries no extractable fact.
var categoryHints = []struct {
	category string
	pattern  *regexp.Regexp
}{
	{CategoryLocation, regexp.MustCompile(`(?i)\b(?:live|living|moved|city|town|hometown)\b|\bnot in\b`)},
	{CategoryWork, regexp.MustCompile(`(?i)\b(?:job|work|career|company|boss)\b`)},
	{CategoryFamily, regexp.MustCompile(`(?i)\b(?:sister|brother|mom|mother|dad|father|wife|husband|partner|son|daughter|family)\b`)},
	{CategoryPet, regexp.MustCompile(`(?i)\b(?:dog|cat|pet)\b`)},
	{CategoryName, regexp.MustCompile(`(?i)\bname\b`)},
	{CategoryAge, regexp.MustCompile(`(?i)\b(?:age|years old)\b`)},
	{CategoryHealth, regexp.MustCompile(`(?i)\b(?:health|allergy|allergic|diagnosed)\b`)},
}

// detectCorrection flags contradiction markers and guesses which category is
// being corrected. A fact already extracted from the same message is the
// strongest hint; keyword hints are the fallback.
func detectCorrection(normalized string, result *types.ExtractionResult) {
	matched := false
	for _, marker := range correctionMarkers {
		if marker.MatchString(normalized) {
			matched = true
			break
		}
	}
	if !matched {
		return
	}

	result.IsCorrection = true

	if len(result.Facts) > 0 {
		result.CorrectedCategory = result.Facts[0].Category
		result.CorrectedValue = result.Facts[0].Value
		return
	}

	lowered := strings.ToLower(normalized)
	for _, hint := range categoryHints {
		if hint.pattern.MatchString(lowered) {
			result.CorrectedCategory = hint.category
			return
		}
	}
}
