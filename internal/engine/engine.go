// Package engine is the facade over extraction, emotional analysis, memory
// storage, reconciliation and the relationship ledger. One call processes a
// full conversation turn.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/easeaico/mnemosyne/internal/config"
	"github.com/easeaico/mnemosyne/internal/embed"
	"github.com/easeaico/mnemosyne/internal/extract"
	"github.com/easeaico/mnemosyne/internal/locking"
	"github.com/easeaico/mnemosyne/internal/memory"
	"github.com/easeaico/mnemosyne/internal/relationship"
	"github.com/easeaico/mnemosyne/internal/repository"
	"github.com/easeaico/mnemosyne/internal/types"
)

// Engine processes conversation turns for character/user pairs. All writes
// for a pair run inside its keyed lock, so concurrent turns for the same
// pair serialize while distinct pairs proceed independently.
type Engine struct {
	cfg        *config.Config
	store      *repository.Store
	extractor  *extract.Extractor
	analyzer   emotionAnalyzer
	retriever  *memory.Retriever
	reconciler *memory.Reconciler
	ledger     *relationship.Ledger
	embedder   embed.Embedder
	locks      *locking.KeyedLocker
}

// emotionAnalyzer is the part of the emotional analyzer the engine needs.
type emotionAnalyzer interface {
	Analyze(userMessage, agentResponse string) types.EmotionalAnalysis
}

// Input is one conversation turn.
type Input struct {
	CharacterID   string
	UserID        string
	UserMessage   string
	AgentResponse string
	// Timestamp defaults to now when zero.
	Timestamp time.Time
}

// Result is everything a caller needs after a processed turn.
type Result struct {
	Context    types.ContextBlock
	Snapshot   types.RelationshipSnapshot
	Extraction types.ExtractionResult
	Analysis   types.EmotionalAnalysis
}

// New wires an Engine over an opened store. The embedder may be nil.
func New(cfg *config.Config, store *repository.Store, analyzer emotionAnalyzer, embedder embed.Embedder) *Engine {
	return &Engine{
		cfg:        cfg,
		store:      store,
		extractor:  extract.New(),
		analyzer:   analyzer,
		retriever:  memory.NewRetriever(store.Memories, embedder, cfg.Memory),
		reconciler: memory.NewReconciler(store.Memories, cfg.Memory),
		ledger:     relationship.NewLedger(store.Relationships, store.States, cfg.Relationship),
		embedder:   embedder,
		locks:      locking.NewKeyedLocker(),
	}
}

// ProcessInteraction runs the full turn pipeline: validate, extract,
// analyze, persist memories, reconcile corrections, update the
// relationship, then assemble the context block for the next turn.
func (e *Engine) ProcessInteraction(ctx context.Context, input Input) (*Result, error) {
	if input.CharacterID == "" || input.UserID == "" {
		return nil, fmt.Errorf("%w: character and user ids are required", types.ErrInvalidInput)
	}
	message := strings.TrimSpace(input.UserMessage)
	if message == "" {
		return nil, fmt.Errorf("%w: user message must not be empty", types.ErrInvalidInput)
	}
	if max := e.cfg.Memory.MaxMessageChars; max > 0 && len(message) > max {
		return nil, fmt.Errorf("%w: user message exceeds %d characters", types.ErrInvalidInput, max)
	}
	now := input.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}
	pair := types.Pair{CharacterID: input.CharacterID, UserID: input.UserID}

	unlock := e.locks.Lock(pair)
	defer unlock()

	extraction := e.extractor.Extract(message)
	analysis := e.analyzer.Analyze(message, input.AgentResponse)

	if err := e.writeConversation(ctx, pair, message, input.AgentResponse, analysis, now); err != nil {
		return nil, err
	}

	if extraction.IsCorrection {
		if _, err := e.reconciler.Reconcile(ctx, pair, message, extraction, now); err != nil {
			return nil, err
		}
	}
	if err := e.writeFacts(ctx, pair, extraction, analysis, now); err != nil {
		return nil, err
	}
	if err := e.writeEmotionalMoment(ctx, pair, message, analysis, now); err != nil {
		return nil, err
	}

	snapshot, err := e.ledger.RecordInteraction(ctx, pair, analysis, extraction, message, now)
	if err != nil {
		return nil, err
	}

	block, err := e.retriever.Retrieve(ctx, pair, message)
	if err != nil {
		return nil, err
	}

	return &Result{
		Context:    block,
		Snapshot:   snapshot,
		Extraction: extraction,
		Analysis:   analysis,
	}, nil
}

// conversationImportance keeps plain turns below any extracted fact so
// retrieval prefers durable knowledge.
const (
	conversationImportance    = 0.3
	emotionalMomentImportance = 0.7
)

func (e *Engine) writeConversation(ctx context.Context, pair types.Pair, message, response string, analysis types.EmotionalAnalysis, now time.Time) error {
	content := message
	if response != "" {
		content = "User: " + message + "\nAssistant: " + response
	}
	mem := types.Memory{
		CharacterID: pair.CharacterID,
		UserID:      pair.UserID,
		Content:     content,
		MemoryType:  types.MemoryTypeConversation,
		Importance:  conversationImportance,
		Confidence:  1,
		Temporal:    e.temporal(now),
		Emotional:   types.EmotionalContext{Valence: analysis.Valence, Category: analysis.Category},
	}
	e.attachEmbedding(ctx, &mem)
	if _, err := e.store.Memories.Write(ctx, mem); err != nil {
		return err
	}
	return nil
}

func (e *Engine) writeFacts(ctx context.Context, pair types.Pair, extraction types.ExtractionResult, analysis types.EmotionalAnalysis, now time.Time) error {
	var mems []types.Memory
	for _, fact := range extraction.Facts {
		// A correction already wrote its category through the reconciler.
		if extraction.IsCorrection && fact.Category == extraction.CorrectedCategory {
			continue
		}
		content := fact.Category + ": " + fact.Value
		if existing, err := e.store.Memories.LatestByCategory(ctx, pair, fact.Category); err == nil && existing.Content == content {
			continue
		}

		memoryType := types.MemoryTypeFact
		if extract.IsIdentity(fact.Category) {
			memoryType = types.MemoryTypePersonalIdentity
		}
		mems = append(mems, types.Memory{
			CharacterID: pair.CharacterID,
			UserID:      pair.UserID,
			Content:     content,
			MemoryType:  memoryType,
			Category:    fact.Category,
			Importance:  e.extractor.Importance(fact.Category),
			Confidence:  fact.Confidence,
			Temporal:    e.temporal(now),
			Emotional:   types.EmotionalContext{Valence: analysis.Valence, Category: analysis.Category},
		})
	}
	e.attachEmbeddings(ctx, mems)
	for _, mem := range mems {
		if _, err := e.store.Memories.Write(ctx, mem); err != nil {
			return err
		}
	}
	return nil
}

// writeEmotionalMoment keeps high-intensity turns as dedicated memories so
// they surface in retrieval long after the conversation scrolls away.
func (e *Engine) writeEmotionalMoment(ctx context.Context, pair types.Pair, message string, analysis types.EmotionalAnalysis, now time.Time) error {
	if analysis.Intensity < e.cfg.Relationship.EmotionalMomentThreshold {
		return nil
	}
	mem := types.Memory{
		CharacterID: pair.CharacterID,
		UserID:      pair.UserID,
		Content:     message,
		MemoryType:  types.MemoryTypeEmotion,
		Importance:  emotionalMomentImportance,
		Confidence:  1,
		Temporal:    e.temporal(now),
		Emotional:   types.EmotionalContext{Valence: analysis.Valence, Category: analysis.Category},
	}
	e.attachEmbedding(ctx, &mem)
	if _, err := e.store.Memories.Write(ctx, mem); err != nil {
		return err
	}
	return nil
}

func (e *Engine) attachEmbedding(ctx context.Context, mem *types.Memory) {
	if e.embedder == nil {
		return
	}
	vec, err := e.embedder.EmbedDocument(ctx, mem.Content)
	if err != nil {
		// Memories stay useful without a vector; retrieval degrades to
		// lexical matching for this record.
		slog.Warn("failed to embed memory content", "error", err)
		return
	}
	mem.Embedding = vec
}

// attachEmbeddings embeds a batch of memory contents in one provider call.
func (e *Engine) attachEmbeddings(ctx context.Context, mems []types.Memory) {
	if e.embedder == nil || len(mems) == 0 {
		return
	}
	texts := make([]string, len(mems))
	for i := range mems {
		texts[i] = mems[i].Content
	}
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil || len(vecs) != len(mems) {
		slog.Warn("failed to embed fact batch", "error", err)
		return
	}
	for i := range mems {
		mems[i].Embedding = vecs[i]
	}
}

func (e *Engine) temporal(now time.Time) types.TemporalContext {
	return types.TemporalContext{
		Timestamp: now,
		DayPart:   memory.DayPart(now),
		Season:    memory.Season(now),
	}
}

// RetrieveContext assembles the memory context for a query without
// recording an interaction.
func (e *Engine) RetrieveContext(ctx context.Context, pair types.Pair, query string) (types.ContextBlock, error) {
	return e.retriever.Retrieve(ctx, pair, query)
}

// Relationship returns the current snapshot for a pair.
func (e *Engine) Relationship(ctx context.Context, pair types.Pair) (types.RelationshipSnapshot, error) {
	return e.ledger.Snapshot(ctx, pair)
}

// CharacterState returns the current mood state for a pair.
func (e *Engine) CharacterState(ctx context.Context, pair types.Pair) (types.CharacterState, error) {
	return e.ledger.State(ctx, pair)
}

// Leaderboard returns a character's top relationships.
func (e *Engine) Leaderboard(ctx context.Context, characterID string, limit int) ([]types.RelationshipSnapshot, error) {
	return e.ledger.Leaderboard(ctx, characterID, limit)
}

// ListMemories lists a pair's memories with filters and pagination.
func (e *Engine) ListMemories(ctx context.Context, pair types.Pair, filter repository.MemoryFilter) ([]types.Memory, error) {
	return e.store.Memories.Query(ctx, pair, filter)
}

// GetMemory reads one memory by id, including soft-deleted records.
func (e *Engine) GetMemory(ctx context.Context, pair types.Pair, id string) (types.Memory, error) {
	return e.store.Memories.Read(ctx, pair, id)
}

// EditMemory writes an edited version of a memory, retiring the original
// as its audit record.
func (e *Engine) EditMemory(ctx context.Context, pair types.Pair, id string, update repository.EditUpdate) (types.Memory, error) {
	unlock := e.locks.Lock(pair)
	defer unlock()
	return e.store.Memories.Edit(ctx, pair, id, update)
}

// DeleteMemory soft-deletes a memory.
func (e *Engine) DeleteMemory(ctx context.Context, pair types.Pair, id string) error {
	unlock := e.locks.Lock(pair)
	defer unlock()
	return e.store.Memories.SoftDelete(ctx, pair, id)
}

// MemoryStats summarizes a pair's stored memories.
func (e *Engine) MemoryStats(ctx context.Context, pair types.Pair) (repository.Stats, error) {
	return e.store.Memories.CountByType(ctx, pair)
}
