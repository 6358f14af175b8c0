package extract

import "regexp"

// Extraction categories.
const (
	CategoryName       = "name"
	CategoryFamily     = "family"
	CategoryWork       = "work"
	CategoryPet        = "pet"
	CategoryLocation   = "location"
	CategoryHealth     = "health"
	CategoryPreference = "preference"
	CategoryAge        = "age"
	CategoryEducation  = "education"
)

// identityCategories are stored as personal_identity memories rather than
// plain facts.
var identityCategories = map[string]bool{
	CategoryName:     true,
	CategoryAge:      true,
	CategoryLocation: true,
}

// IsIdentity reports whether facts of this category describe the user's
// identity (name, age, location).
func IsIdentity(category string) bool {
	return identityCategories[category]
}

// CategoryMatcher binds one extraction category to its patterns. The first
// capture group of each pattern is the extracted value.
type CategoryMatcher struct {
	Category   string
	Patterns   []*regexp.Regexp
	Confidence float64
	// Importance is the store importance assigned to facts of this category.
	Importance float64
}

// Matcher supplies the category matchers. The default implementation is
// regex-based; an ML-backed extractor can be plugged in without touching the
// store or retriever contracts.
type Matcher interface {
	Categories() []CategoryMatcher
}

// defaultMatcher is the built-in rule table.
type defaultMatcher struct {
	categories []CategoryMatcher
}

// Categories returns the ordered category matchers.
func (m *defaultMatcher) Categories() []CategoryMatcher {
	return m.categories
}

// NewDefaultMatcher returns the built-in pattern table. Order matters: more
// specific categories run before looser ones so dedupe keeps the best match.
func NewDefaultMatcher() Matcher {
	return &defaultMatcher{categories: []CategoryMatcher{
		{
			Category:   CategoryName,
			Confidence: 0.9,
			Importance: 0.9,
			Patterns: compile(
				`(?i)\bmy name is ([a-z]+)`,
				`(?i)\bcall me ([a-z]+)`,
				`(?i)\bi(?:'m| am) called ([a-z]+)`,
			),
		},
		{
			Category:   CategoryAge,
			Confidence: 0.9,
			Importance: 0.8,
			Patterns: compile(
				`(?i)\bi(?:'m| am) (\d{1,3}) years old`,
				`(?i)\bi just turned (\d{1,3})\b`,
			),
		},
		{
			Category:   CategoryFamily,
			Confidence: 0.8,
			Importance: 0.8,
			Patterns: compile(
				`(?i)\bmy sister(?:,)?(?: is(?: called)?| named)? ([a-z]+)`,
				`(?i)\bmy brother(?:,)?(?: is(?: called)?| named)? ([a-z]+)`,
				`(?i)\bmy (?:mom|mother)(?: is(?: called)?| named)? ([a-z]+)`,
				`(?i)\bmy (?:dad|father)(?: is(?: called)?| named)? ([a-z]+)`,
				`(?i)\bmy (?:wife|husband|partner|girlfriend|boyfriend)(?: is(?: called)?| named)? ([a-z]+)`,
				`(?i)\bmy (?:son|daughter)(?: is(?: called)?| named)? ([a-z]+)`,
				`(?i)\b([a-z]+) is my (?:sister|brother|mom|mother|dad|father|wife|husband|partner|son|daughter)\b`,
			),
		},
		{
			Category:   CategoryPet,
			Confidence: 0.8,
			Importance: 0.6,
			Patterns: compile(
				`(?i)\bmy (?:dog|cat|pet)(?:,)?(?: is(?: called)?| named)? ([a-z]+)`,
				`(?i)\b([a-z]+) is my (?:dog|cat|pet)\b`,
				`(?i)\bi have a (?:dog|cat|pet) (?:called|named) ([a-z]+)`,
			),
		},
		{
			Category:   CategoryLocation,
			Confidence: 0.85,
			Importance: 0.8,
			Patterns: compile(
				`(?i)\bi live in ([a-z][a-z ]*?)(?:[,.!?]| now\b|$)`,
				`(?i)\bi(?:'ve|'m| have| am)?\s*(?:just )?moved to ([a-z][a-z ]*?)(?:[,.!?]|$)`,
				`(?i)\bi(?:'m| am) from ([a-z][a-z ]*?)(?:[,.!?]|$)`,
				`(?i)\bmy hometown is ([a-z][a-z ]*?)(?:[,.!?]|$)`,
			),
		},
		{
			Category:   CategoryWork,
			Confidence: 0.8,
			Importance: 0.7,
			Patterns: compile(
				`(?i)\bi work as an? ([a-z][a-z ]*?)(?:[,.!?]| at\b|$)`,
				`(?i)\bi work at ([a-z][a-z0-9 ]*?)(?:[,.!?]|$)`,
				`(?i)\bmy job is ([a-z][a-z ]*?)(?:[,.!?]|$)`,
				`(?i)\bi(?:'m| am) an? ([a-z]+ ?(?:engineer|developer|designer|teacher|doctor|nurse|writer|artist|manager|scientist))\b`,
			),
		},
		{
			Category:   CategoryHealth,
			Confidence: 0.75,
			Importance: 0.7,
			Patterns: compile(
				`(?i)\bi(?:'ve| have) been diagnosed with ([a-z][a-z ]*?)(?:[,.!?]|$)`,
				`(?i)\bi(?:'m| am) allergic to ([a-z][a-z ]*?)(?:[,.!?]|$)`,
				`(?i)\bi suffer from ([a-z][a-z ]*?)(?:[,.!?]|$)`,
			),
		},
		{
			Category:   CategoryEducation,
			Confidence: 0.75,
			Importance: 0.6,
			Patterns: compile(
				`(?i)\bi(?:'m| am) studying ([a-z][a-z ]*?)(?:[,.!?]| at\b|$)`,
				`(?i)\bmy (?:degree|major) is(?: in)? ([a-z][a-z ]*?)(?:[,.!?]|$)`,
				`(?i)\bi went to ([a-z][a-z ]*? (?:university|college))\b`,
			),
		},
		{
			Category:   CategoryPreference,
			Confidence: 0.6,
			Importance: 0.5,
			Patterns: compile(
				`(?i)\bmy favorite [a-z]+ is ([a-z0-9][a-z0-9 ]*?)(?:[,.!?]|$)`,
				`(?i)\bi (?:really )?(?:love|enjoy) ([a-z][a-z ]*?)(?:[,.!?]|$)`,
				`(?i)\bi(?:'m| am) (?:really )?into ([a-z][a-z ]*?)(?:[,.!?]|$)`,
			),
		},
	}}
}

// stopWords filters grammatically captured but semantically empty matches.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"is": true, "am": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true,
	"will": true, "would": true, "can": true, "could": true,
	"should": true, "shall": true, "may": true, "might": true, "must": true,
	"i": true, "you": true, "he": true, "she": true, "it": true,
	"we": true, "they": true, "me": true, "him": true, "her": true,
	"us": true, "them": true,
	"my": true, "your": true, "his": true, "its": true,
	"our": true, "their": true,
	"this": true, "that": true, "these": true, "those": true,
	"not": true, "no": true, "so": true, "very": true, "really": true,
	"just": true, "now": true, "then": true, "there": true, "here": true,
	"after": true, "all": true, "also": true, "always": true, "again": true,
	"too": true, "though": true, "still": true, "even": true, "ever": true,
	"never": true, "often": true, "sometimes": true, "anyway": true,
	"because": true, "since": true, "while": true, "when": true,
	"where": true, "who": true, "what": true, "which": true, "why": true,
	"how": true,
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}
