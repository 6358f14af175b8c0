package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/mnemosyne/internal/config"
	"github.com/easeaico/mnemosyne/internal/repository"
	"github.com/easeaico/mnemosyne/internal/types"
)

var testPair = types.Pair{CharacterID: "luna", UserID: "user-1"}

func newTestRepos(t *testing.T) *repository.Store {
	t.Helper()
	store, err := repository.NewStore(context.Background(), config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func testMemoryConfig() config.MemoryConfig {
	return config.MemoryConfig{
		MaxMessageChars:     4000,
		MaxContextChars:     2000,
		SearchLimit:         50,
		RecentLimit:         5,
		RelevantLimit:       5,
		SimilarityThreshold: 0.7,
	}
}

func seed(t *testing.T, store *repository.Store, mem types.Memory) types.Memory {
	t.Helper()
	mem.CharacterID = testPair.CharacterID
	mem.UserID = testPair.UserID
	if mem.MemoryType == "" {
		mem.MemoryType = types.MemoryTypeConversation
	}
	written, err := store.Memories.Write(context.Background(), mem)
	require.NoError(t, err)
	return written
}

func sectionsOf(block types.ContextBlock) []string {
	var sections []string
	last := ""
	for _, e := range block.Entries {
		if e.Section != last {
			sections = append(sections, e.Section)
			last = e.Section
		}
	}
	return sections
}

func TestRetrieveSectionPriority(t *testing.T) {
	store := newTestRepos(t)
	retriever := NewRetriever(store.Memories, nil, testMemoryConfig())

	seed(t, store, types.Memory{
		Content: "User's name is Alex", MemoryType: types.MemoryTypePersonalIdentity,
		Category: "name", Importance: 0.9,
	})
	seed(t, store, types.Memory{
		Content: "User lives in London", MemoryType: types.MemoryTypeCorrection,
		Category: "location", Importance: 0.95,
	})
	seed(t, store, types.Memory{
		Content: "User has a dog named Biscuit", MemoryType: types.MemoryTypeFact,
		Category: "pet", Importance: 0.6,
	})
	seed(t, store, types.Memory{Content: "talked about the weekend"})

	block, err := retriever.Retrieve(context.Background(), testPair, "how are things going")
	require.NoError(t, err)
	assert.False(t, block.Truncated)
	assert.Equal(t, []string{
		types.SectionKnownFacts,
		types.SectionCorrections,
		types.SectionRecent,
	}, sectionsOf(block))
	assert.Contains(t, block.Text, "Known facts:")
	assert.Contains(t, block.Text, "Corrections:")
	assert.Contains(t, block.Text, "[updated] User lives in London")
	assert.Contains(t, block.Text, "Recent conversation:")
}

func TestRetrieveKnownFactsKeepLatestPerCategory(t *testing.T) {
	store := newTestRepos(t)
	retriever := NewRetriever(store.Memories, nil, testMemoryConfig())

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	seed(t, store, types.Memory{
		Content: "preference: blue", MemoryType: types.MemoryTypeFact,
		Category: "preference", Importance: 0.55,
		CreatedAt: base,
	})
	newer := seed(t, store, types.Memory{
		Content: "preference: green these days", MemoryType: types.MemoryTypeFact,
		Category: "preference", Importance: 0.55,
		CreatedAt: base.Add(time.Hour),
	})
	pet := seed(t, store, types.Memory{
		Content: "pet: dog named Biscuit", MemoryType: types.MemoryTypeFact,
		Category: "pet", Importance: 0.6,
		CreatedAt: base,
	})

	block, err := retriever.Retrieve(context.Background(), testPair, "")
	require.NoError(t, err)
	var known []string
	for _, e := range block.Entries {
		if e.Section == types.SectionKnownFacts {
			known = append(known, e.MemoryID)
		}
	}
	assert.Equal(t, []string{pet.ID, newer.ID}, known)
	assert.NotContains(t, block.Text, "preference: blue")
}

func TestRetrieveNoDuplicateAcrossSections(t *testing.T) {
	store := newTestRepos(t)
	retriever := NewRetriever(store.Memories, nil, testMemoryConfig())

	fact := seed(t, store, types.Memory{
		Content: "User has a dog named Biscuit", MemoryType: types.MemoryTypeFact,
		Category: "pet", Importance: 0.6,
	})

	// A query matching the fact must not repeat it in the relevant section.
	block, err := retriever.Retrieve(context.Background(), testPair, "how is the dog Biscuit")
	require.NoError(t, err)
	count := 0
	for _, e := range block.Entries {
		if e.MemoryID == fact.ID {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, types.SectionKnownFacts, block.Entries[0].Section)
}

func TestRetrieveLexicalRelevance(t *testing.T) {
	store := newTestRepos(t)
	retriever := NewRetriever(store.Memories, nil, testMemoryConfig())

	moment := seed(t, store, types.Memory{
		Content: "User was thrilled about the big hiking trip", MemoryType: types.MemoryTypeEmotion,
		Importance: 0.5,
	})
	seed(t, store, types.Memory{
		Content: "User dislikes loud parties", MemoryType: types.MemoryTypeEmotion,
		Importance: 0.5,
	})

	block, err := retriever.Retrieve(context.Background(), testPair, "planning another hiking trip")
	require.NoError(t, err)
	var relevant []string
	for _, e := range block.Entries {
		if e.Section == types.SectionRelevant {
			relevant = append(relevant, e.MemoryID)
		}
	}
	require.Len(t, relevant, 1)
	assert.Equal(t, moment.ID, relevant[0])
}

func TestRetrieveBudgetTruncatesWholeEntries(t *testing.T) {
	store := newTestRepos(t)
	cfg := testMemoryConfig()
	cfg.MaxContextChars = 60
	retriever := NewRetriever(store.Memories, nil, cfg)

	seed(t, store, types.Memory{
		Content: "User's name is Alex", MemoryType: types.MemoryTypePersonalIdentity,
		Category: "name", Importance: 0.9,
	})
	seed(t, store, types.Memory{
		Content: "User works as a teacher in a primary school downtown",
		MemoryType: types.MemoryTypeFact, Category: "work", Importance: 0.6,
	})
	seed(t, store, types.Memory{Content: "chatted about breakfast"})

	block, err := retriever.Retrieve(context.Background(), testPair, "")
	require.NoError(t, err)
	assert.True(t, block.Truncated)
	assert.LessOrEqual(t, len(block.Text), 60)
	require.NotEmpty(t, block.Entries)
	// The highest-priority entry survives.
	assert.Equal(t, types.SectionKnownFacts, block.Entries[0].Section)
}

func TestRetrieveDeterministic(t *testing.T) {
	store := newTestRepos(t)
	retriever := NewRetriever(store.Memories, nil, testMemoryConfig())

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{
		"User enjoys rainy mornings",
		"User enjoys quiet evenings",
		"User enjoys long walks",
	} {
		seed(t, store, types.Memory{
			Content: content, MemoryType: types.MemoryTypeFact,
			Category: "preference", Importance: 0.5,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	first, err := retriever.Retrieve(context.Background(), testPair, "what does the user enjoy")
	require.NoError(t, err)
	second, err := retriever.Retrieve(context.Background(), testPair, "what does the user enjoy")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRetrieveEmptyStore(t *testing.T) {
	store := newTestRepos(t)
	retriever := NewRetriever(store.Memories, nil, testMemoryConfig())

	block, err := retriever.Retrieve(context.Background(), testPair, "anything")
	require.NoError(t, err)
	assert.Empty(t, block.Entries)
	assert.Empty(t, block.Text)
	assert.False(t, block.Truncated)
}

func TestDayPartAndSeason(t *testing.T) {
	assert.Equal(t, "morning", DayPart(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "afternoon", DayPart(time.Date(2026, 1, 1, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, "evening", DayPart(time.Date(2026, 1, 1, 19, 0, 0, 0, time.UTC)))
	assert.Equal(t, "night", DayPart(time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)))

	assert.Equal(t, "winter", Season(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "spring", Season(time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "summer", Season(time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "autumn", Season(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)))
}
