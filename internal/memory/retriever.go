// Package memory assembles bounded context blocks from stored memories and
// reconciles user corrections against them.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/easeaico/mnemosyne/internal/config"
	"github.com/easeaico/mnemosyne/internal/embed"
	"github.com/easeaico/mnemosyne/internal/repository"
	"github.com/easeaico/mnemosyne/internal/types"
)

// Retriever builds the memory context for a conversation turn. Sections are
// filled in priority order and the whole block respects a character budget.
type Retriever struct {
	memories *repository.MemoryRepo
	embedder embed.Embedder

	maxContextChars     int
	searchLimit         int
	recentLimit         int
	relevantLimit       int
	similarityThreshold float64
}

// NewRetriever creates a Retriever. The embedder may be nil, in which case
// relevance falls back to lexical term overlap.
func NewRetriever(memories *repository.MemoryRepo, embedder embed.Embedder, cfg config.MemoryConfig) *Retriever {
	return &Retriever{
		memories:            memories,
		embedder:            embedder,
		maxContextChars:     cfg.MaxContextChars,
		searchLimit:         cfg.SearchLimit,
		recentLimit:         cfg.RecentLimit,
		relevantLimit:       cfg.RelevantLimit,
		similarityThreshold: cfg.SimilarityThreshold,
	}
}

// Section headers in render order.
var sectionHeaders = map[string]string{
	types.SectionKnownFacts:  "Known facts:",
	types.SectionCorrections: "Corrections:",
	types.SectionRelevant:    "Relevant memories:",
	types.SectionRecent:      "Recent conversation:",
}

// Retrieve assembles the context block for a query. The same stored state
// and query always produce the same block.
func (r *Retriever) Retrieve(ctx context.Context, pair types.Pair, query string) (types.ContextBlock, error) {
	var entries []types.ContextEntry
	seen := make(map[string]bool)

	facts, err := r.knownFacts(ctx, pair)
	if err != nil {
		return types.ContextBlock{}, err
	}
	entries = appendSection(entries, seen, types.SectionKnownFacts, facts)

	corrections, err := r.corrections(ctx, pair)
	if err != nil {
		return types.ContextBlock{}, err
	}
	entries = appendSection(entries, seen, types.SectionCorrections, corrections)

	relevant, err := r.relevant(ctx, pair, query)
	if err != nil {
		return types.ContextBlock{}, err
	}
	entries = appendSection(entries, seen, types.SectionRelevant, relevant)

	recent, err := r.recent(ctx, pair)
	if err != nil {
		return types.ContextBlock{}, err
	}
	entries = appendSection(entries, seen, types.SectionRecent, recent)

	return r.render(entries), nil
}

// appendSection adds memories to the entry list, skipping any memory that
// already landed in a higher-priority section.
func appendSection(entries []types.ContextEntry, seen map[string]bool, section string, memories []types.Memory) []types.ContextEntry {
	for _, mem := range memories {
		if seen[mem.ID] {
			continue
		}
		seen[mem.ID] = true
		entries = append(entries, types.ContextEntry{
			MemoryID: mem.ID,
			Section:  section,
			Text:     renderMemory(mem),
		})
	}
	return entries
}

func renderMemory(mem types.Memory) string {
	if mem.MemoryType == types.MemoryTypeCorrection {
		return "[updated] " + mem.Content
	}
	return mem.Content
}

// render concatenates entries grouped by section under the character
// budget. Entries are added whole; the first one that would overflow the
// budget stops the block and marks it truncated.
func (r *Retriever) render(entries []types.ContextEntry) types.ContextBlock {
	var (
		b           strings.Builder
		kept        []types.ContextEntry
		lastSection string
		truncated   bool
	)
	for _, entry := range entries {
		var piece strings.Builder
		if entry.Section != lastSection {
			if b.Len() > 0 {
				piece.WriteString("\n")
			}
			piece.WriteString(sectionHeaders[entry.Section])
			piece.WriteString("\n")
		}
		piece.WriteString("- ")
		piece.WriteString(entry.Text)
		piece.WriteString("\n")

		if r.maxContextChars > 0 && b.Len()+piece.Len() > r.maxContextChars {
			truncated = true
			break
		}
		b.WriteString(piece.String())
		kept = append(kept, entry)
		lastSection = entry.Section
	}
	return types.ContextBlock{
		Text:      b.String(),
		Entries:   kept,
		Truncated: truncated,
	}
}

func (r *Retriever) knownFacts(ctx context.Context, pair types.Pair) ([]types.Memory, error) {
	identity, err := r.memories.Query(ctx, pair, repository.MemoryFilter{
		Type:  types.MemoryTypePersonalIdentity,
		Limit: r.searchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load identity facts: %w", err)
	}
	facts, err := r.memories.Query(ctx, pair, repository.MemoryFilter{
		Type:  types.MemoryTypeFact,
		Limit: r.searchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load facts: %w", err)
	}
	return latestPerCategory(append(identity, facts...)), nil
}

// latestPerCategory keeps the newest record for each category, so a restated
// fact replaces its older value instead of listing both.
func latestPerCategory(memories []types.Memory) []types.Memory {
	latest := make(map[string]types.Memory, len(memories))
	for _, mem := range memories {
		key := mem.Category
		if key == "" {
			key = mem.ID
		}
		current, ok := latest[key]
		if !ok || newerMemory(mem, current) {
			latest[key] = mem
		}
	}
	kept := make([]types.Memory, 0, len(latest))
	for _, mem := range latest {
		kept = append(kept, mem)
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Importance != kept[j].Importance {
			return kept[i].Importance > kept[j].Importance
		}
		return kept[i].ID < kept[j].ID
	})
	return kept
}

func newerMemory(a, b types.Memory) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (r *Retriever) corrections(ctx context.Context, pair types.Pair) ([]types.Memory, error) {
	corrections, err := r.memories.Query(ctx, pair, repository.MemoryFilter{
		Type:  types.MemoryTypeCorrection,
		Limit: r.relevantLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load corrections: %w", err)
	}
	return corrections, nil
}

func (r *Retriever) recent(ctx context.Context, pair types.Pair) ([]types.Memory, error) {
	recent, err := r.memories.Recent(ctx, pair, types.MemoryTypeConversation, r.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent memories: %w", err)
	}
	// Oldest first, to read as a conversation.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// relevant ranks memories against the query, by vector similarity when an
// embedder and a vector-capable store are present, by lexical term overlap
// otherwise.
func (r *Retriever) relevant(ctx context.Context, pair types.Pair, query string) ([]types.Memory, error) {
	if query == "" {
		return nil, nil
	}

	if r.embedder != nil && r.memories.SupportsSimilarity() {
		vec, err := r.embedder.EmbedQuery(ctx, query)
		if err != nil {
			// Degrade to lexical matching rather than dropping the section.
			slog.Warn("query embedding failed, falling back to lexical match", "error", err)
		} else {
			scored, err := r.memories.SearchSimilar(ctx, pair, vec, r.relevantLimit, r.similarityThreshold)
			if err != nil {
				return nil, fmt.Errorf("failed to search similar memories: %w", err)
			}
			results := make([]types.Memory, 0, len(scored))
			for _, s := range scored {
				results = append(results, s.Memory)
			}
			return results, nil
		}
	}

	return r.lexicalMatch(ctx, pair, query)
}

var termSplit = regexp.MustCompile(`[a-z0-9']+`)

// Terms returns the lowercased distinct word set of a text.
func Terms(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, w := range termSplit.FindAllString(strings.ToLower(text), -1) {
		if len(w) >= 3 {
			terms[w] = true
		}
	}
	return terms
}

// Overlap counts shared terms between two term sets.
func Overlap(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

func (r *Retriever) lexicalMatch(ctx context.Context, pair types.Pair, query string) ([]types.Memory, error) {
	candidates, err := r.memories.Query(ctx, pair, repository.MemoryFilter{Limit: r.searchLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	queryTerms := Terms(query)
	type scored struct {
		mem   types.Memory
		score int
	}
	var matches []scored
	for _, mem := range candidates {
		if n := Overlap(queryTerms, Terms(mem.Content)); n > 0 {
			matches = append(matches, scored{mem: mem, score: n})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].mem.ID < matches[j].mem.ID
	})
	if len(matches) > r.relevantLimit {
		matches = matches[:r.relevantLimit]
	}
	results := make([]types.Memory, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.mem)
	}
	return results, nil
}
