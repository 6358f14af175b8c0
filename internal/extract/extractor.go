// Package extract pulls durable personal-detail assertions out of free-text
// conversation turns. Extraction is pure and never fails: unmatched text
// yields an empty result.
package extract

import (
	"regexp"
	"strings"

	"github.com/easeaico/mnemosyne/internal/types"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extractor applies an ordered set of category matchers to a message.
type Extractor struct {
	matcher Matcher
}

// New returns an extractor backed by the built-in pattern table.
func New() *Extractor {
	return NewWithMatcher(NewDefaultMatcher())
}

// NewWithMatcher returns an extractor using a custom matcher.
func NewWithMatcher(m Matcher) *Extractor {
	return &Extractor{matcher: m}
}

// Extract returns all distinct personal-detail matches in the message plus
// a correction flag. Absence of a match is not an error.
func (e *Extractor) Extract(message string) types.ExtractionResult {
	normalized := normalize(message)
	if normalized == "" {
		return types.ExtractionResult{}
	}

	var result types.ExtractionResult
	for _, cm := range e.matcher.Categories() {
		seen := make(map[string]bool)
		for _, pattern := range cm.Patterns {
			for _, groups := range pattern.FindAllStringSubmatch(normalized, -1) {
				if len(groups) < 2 {
					continue
				}
				value := cleanValue(groups[1])
				if value == "" {
					continue
				}
				key := strings.ToLower(value)
				if stopWords[key] || seen[key] {
					continue
				}
				seen[key] = true
				result.Facts = append(result.Facts, types.Fact{
					Category:   cm.Category,
					Value:      value,
					Confidence: cm.Confidence,
				})
			}
		}
	}

	detectCorrection(normalized, &result)
	return result
}

// Importance returns the store importance for facts of the given category,
// defaulting to 0.5 for unknown categories.
func (e *Extractor) Importance(category string) float64 {
	for _, cm := range e.matcher.Categories() {
		if cm.Category == category {
			return cm.Importance
		}
	}
	return 0.5
}

// normalize collapses whitespace; case is preserved so captured values keep
// their original spelling (patterns are case-insensitive).
func normalize(message string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(message, " "))
}

// cleanValue trims the capture and drops trailing stop words picked up by
// loose groups ("london now" -> "london").
func cleanValue(raw string) string {
	value := strings.TrimSpace(raw)
	words := strings.Fields(value)
	for len(words) > 0 && stopWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
