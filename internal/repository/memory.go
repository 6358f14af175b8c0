package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/easeaico/mnemosyne/internal/types"
)

// memoryModel maps to the memories table.
type memoryModel struct {
	ID          string `gorm:"primaryKey"`
	CharacterID string `gorm:"index:idx_memories_pair"`
	UserID      string `gorm:"index:idx_memories_pair"`
	Content     string
	MemoryType  string `gorm:"index"`
	Category    string
	Importance  float64
	Confidence  float64

	Valence         float64
	EmotionCategory string

	OccurredAt time.Time
	DayPart    string
	Season     string

	ParentMemoryID string

	// Embedding stores the vector representation for similarity search.
	// The column only participates in queries on postgres.
	Embedding *pgvector.Vector `gorm:"type:vector"`

	Deleted   bool `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (memoryModel) TableName() string {
	return "memories"
}

// MemoryFilter narrows a memory listing. Zero values mean no constraint.
type MemoryFilter struct {
	Type           types.MemoryType
	Category       string
	MinImportance  float64
	MinConfidence  float64
	ContentLike    string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// ScoredMemory is a similarity search result.
type ScoredMemory struct {
	Memory     types.Memory
	Similarity float64
}

// MemoryRepo accesses memory records.
type MemoryRepo struct {
	db       *gorm.DB
	postgres bool
}

// NewMemoryRepo returns a MemoryRepo.
func NewMemoryRepo(db *gorm.DB, postgres bool) *MemoryRepo {
	return &MemoryRepo{db: db, postgres: postgres}
}

// Write inserts a memory, assigning a ULID when the record has no id.
func (r *MemoryRepo) Write(ctx context.Context, mem types.Memory) (types.Memory, error) {
	if mem.CharacterID == "" || mem.UserID == "" {
		return types.Memory{}, fmt.Errorf("%w: memory requires character and user ids", types.ErrInvalidInput)
	}
	if !mem.MemoryType.Valid() {
		return types.Memory{}, fmt.Errorf("%w: unknown memory type %q", types.ErrInvalidInput, mem.MemoryType)
	}
	if mem.ID == "" {
		mem.ID = ulid.Make().String()
	}
	now := time.Now().UTC()
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = now
	}
	mem.UpdatedAt = now

	record := modelFromMemory(mem)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return types.Memory{}, fmt.Errorf("failed to insert memory: %w", err)
	}
	return mem, nil
}

// Read returns a memory by id. Soft-deleted records are returned too so
// callers can follow supersession chains.
func (r *MemoryRepo) Read(ctx context.Context, pair types.Pair, id string) (types.Memory, error) {
	var record memoryModel
	err := r.db.WithContext(ctx).
		Where("character_id = ? AND user_id = ? AND id = ?", pair.CharacterID, pair.UserID, id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Memory{}, fmt.Errorf("memory %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Memory{}, fmt.Errorf("failed to read memory: %w", err)
	}
	return memoryFromModel(record), nil
}

// Query lists memories for a pair. Ordering is deterministic: importance
// descending, then recency, then id ascending.
func (r *MemoryRepo) Query(ctx context.Context, pair types.Pair, filter MemoryFilter) ([]types.Memory, error) {
	query := r.db.WithContext(ctx).
		Where("character_id = ? AND user_id = ?", pair.CharacterID, pair.UserID).
		Order("importance DESC").
		Order("created_at DESC").
		Order("id ASC")

	if !filter.IncludeDeleted {
		query = query.Where("deleted = ?", false)
	}
	if filter.Type != "" {
		query = query.Where("memory_type = ?", string(filter.Type))
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinImportance > 0 {
		query = query.Where("importance >= ?", filter.MinImportance)
	}
	if filter.MinConfidence > 0 {
		query = query.Where("confidence >= ?", filter.MinConfidence)
	}
	if filter.ContentLike != "" {
		query = query.Where("content LIKE ?", "%"+filter.ContentLike+"%")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var records []memoryModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	results := make([]types.Memory, 0, len(records))
	for _, record := range records {
		results = append(results, memoryFromModel(record))
	}
	return results, nil
}

// Recent returns the newest non-deleted memories, newest first.
func (r *MemoryRepo) Recent(ctx context.Context, pair types.Pair, memoryType types.MemoryType, limit int) ([]types.Memory, error) {
	query := r.db.WithContext(ctx).
		Where("character_id = ? AND user_id = ? AND deleted = ?", pair.CharacterID, pair.UserID, false).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if memoryType != "" {
		query = query.Where("memory_type = ?", string(memoryType))
	}

	var records []memoryModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query recent memories: %w", err)
	}
	results := make([]types.Memory, 0, len(records))
	for _, record := range records {
		results = append(results, memoryFromModel(record))
	}
	return results, nil
}

// EditUpdate carries the fields an edit may replace. Nil pointers keep the
// original value.
type EditUpdate struct {
	Content    string
	Importance *float64
	Confidence *float64
}

// Edit writes a new version of a memory and retires the old one, keeping
// the original row as the audit trail. The returned memory carries a fresh
// id with ParentMemoryID pointing at the edited record.
func (r *MemoryRepo) Edit(ctx context.Context, pair types.Pair, id string, update EditUpdate) (types.Memory, error) {
	if update.Content == "" {
		return types.Memory{}, fmt.Errorf("%w: content must not be empty", types.ErrInvalidInput)
	}
	original, err := r.Read(ctx, pair, id)
	if err != nil {
		return types.Memory{}, err
	}
	if original.Deleted {
		return types.Memory{}, fmt.Errorf("memory %s: %w", id, types.ErrNotFound)
	}

	replacement := original
	replacement.ID = ""
	replacement.CreatedAt = time.Time{}
	replacement.Content = update.Content
	// The stored embedding describes the old content.
	replacement.Embedding = nil
	if update.Importance != nil {
		replacement.Importance = *update.Importance
	}
	if update.Confidence != nil {
		replacement.Confidence = *update.Confidence
	}
	return r.Supersede(ctx, replacement, []string{id})
}

// SoftDelete marks a memory deleted without removing the row.
func (r *MemoryRepo) SoftDelete(ctx context.Context, pair types.Pair, id string) error {
	result := r.db.WithContext(ctx).Model(&memoryModel{}).
		Where("character_id = ? AND user_id = ? AND id = ? AND deleted = ?", pair.CharacterID, pair.UserID, id, false).
		Updates(map[string]any{"deleted": true, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to delete memory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("memory %s: %w", id, types.ErrNotFound)
	}
	return nil
}

// Supersede writes a replacement memory and soft-deletes the records it
// replaces in one transaction.
func (r *MemoryRepo) Supersede(ctx context.Context, replacement types.Memory, supersededIDs []string) (types.Memory, error) {
	if len(supersededIDs) == 0 {
		return r.Write(ctx, replacement)
	}
	replacement.ParentMemoryID = supersededIDs[0]
	if replacement.ID == "" {
		replacement.ID = ulid.Make().String()
	}
	now := time.Now().UTC()
	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = now
	}
	replacement.UpdatedAt = now

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := modelFromMemory(replacement)
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to insert replacement memory: %w", err)
		}
		result := tx.Model(&memoryModel{}).
			Where("character_id = ? AND user_id = ? AND id IN ?", replacement.CharacterID, replacement.UserID, supersededIDs).
			Updates(map[string]any{"deleted": true, "updated_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to retire superseded memories: %w", result.Error)
		}
		return nil
	})
	if err != nil {
		return types.Memory{}, err
	}
	return replacement, nil
}

// LatestByCategory returns the newest non-deleted memory of the given
// category, or ErrNotFound.
func (r *MemoryRepo) LatestByCategory(ctx context.Context, pair types.Pair, category string) (types.Memory, error) {
	var record memoryModel
	err := r.db.WithContext(ctx).
		Where("character_id = ? AND user_id = ? AND category = ? AND deleted = ?", pair.CharacterID, pair.UserID, category, false).
		Order("created_at DESC").
		Order("id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Memory{}, fmt.Errorf("category %s: %w", category, types.ErrNotFound)
	}
	if err != nil {
		return types.Memory{}, fmt.Errorf("failed to read latest memory: %w", err)
	}
	return memoryFromModel(record), nil
}

// SupportsSimilarity reports whether vector search is available.
func (r *MemoryRepo) SupportsSimilarity() bool {
	return r.postgres
}

// SearchSimilar ranks memories by cosine similarity to the query embedding.
// Only available on postgres with pgvector; other drivers return no rows.
func (r *MemoryRepo) SearchSimilar(ctx context.Context, pair types.Pair, embedding []float32, topK int, threshold float64) ([]ScoredMemory, error) {
	if !r.postgres || len(embedding) == 0 {
		return nil, nil
	}

	// Filter by cosine similarity and then re-rank with importance.
	query := `
		SELECT id, character_id, user_id, content, memory_type, category,
		       importance, confidence, valence, emotion_category,
		       occurred_at, day_part, season, parent_memory_id,
		       deleted, created_at, updated_at,
		       1 - (embedding <=> $1) AS similarity
		FROM memories
		WHERE embedding IS NOT NULL
		  AND deleted = false
		  AND character_id = $2 AND user_id = $3
		  AND 1 - (embedding <=> $1) > $4
		ORDER BY (0.85 * (1 - (embedding <=> $1)) + 0.15 * COALESCE(importance, 0)) DESC, id ASC
		LIMIT $5`

	var records []struct {
		memoryModel `gorm:"embedded"`
		Similarity  float64
	}
	err := r.db.WithContext(ctx).
		Raw(query, pgvector.NewVector(embedding), pair.CharacterID, pair.UserID, threshold, topK).
		Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search similar memories: %w", err)
	}

	results := make([]ScoredMemory, 0, len(records))
	for _, record := range records {
		results = append(results, ScoredMemory{
			Memory:     memoryFromModel(record.memoryModel),
			Similarity: record.Similarity,
		})
	}
	return results, nil
}

// Stats summarizes a pair's memory counts by type.
type Stats struct {
	Total   int64            `json:"total"`
	Deleted int64            `json:"deleted"`
	ByType  map[string]int64 `json:"by_type"`
}

// CountByType returns memory counts for a pair.
func (r *MemoryRepo) CountByType(ctx context.Context, pair types.Pair) (Stats, error) {
	stats := Stats{ByType: make(map[string]int64)}

	rows := []struct {
		MemoryType string
		N          int64
	}{}
	err := r.db.WithContext(ctx).Model(&memoryModel{}).
		Select("memory_type, COUNT(*) AS n").
		Where("character_id = ? AND user_id = ? AND deleted = ?", pair.CharacterID, pair.UserID, false).
		Group("memory_type").
		Scan(&rows).Error
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count memories: %w", err)
	}
	for _, row := range rows {
		stats.ByType[row.MemoryType] = row.N
		stats.Total += row.N
	}

	err = r.db.WithContext(ctx).Model(&memoryModel{}).
		Where("character_id = ? AND user_id = ? AND deleted = ?", pair.CharacterID, pair.UserID, true).
		Count(&stats.Deleted).Error
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count deleted memories: %w", err)
	}
	return stats, nil
}

func modelFromMemory(mem types.Memory) memoryModel {
	var vector *pgvector.Vector
	if len(mem.Embedding) > 0 {
		v := pgvector.NewVector(mem.Embedding)
		vector = &v
	}
	return memoryModel{
		ID:              mem.ID,
		CharacterID:     mem.CharacterID,
		UserID:          mem.UserID,
		Content:         mem.Content,
		MemoryType:      string(mem.MemoryType),
		Category:        mem.Category,
		Importance:      mem.Importance,
		Confidence:      mem.Confidence,
		Valence:         mem.Emotional.Valence,
		EmotionCategory: mem.Emotional.Category,
		OccurredAt:      mem.Temporal.Timestamp,
		DayPart:         mem.Temporal.DayPart,
		Season:          mem.Temporal.Season,
		ParentMemoryID:  mem.ParentMemoryID,
		Embedding:       vector,
		Deleted:         mem.Deleted,
		CreatedAt:       mem.CreatedAt,
		UpdatedAt:       mem.UpdatedAt,
	}
}

func memoryFromModel(model memoryModel) types.Memory {
	var embedding []float32
	if model.Embedding != nil {
		embedding = model.Embedding.Slice()
	}
	return types.Memory{
		ID:          model.ID,
		CharacterID: model.CharacterID,
		UserID:      model.UserID,
		Content:     model.Content,
		MemoryType:  types.MemoryType(model.MemoryType),
		Category:    model.Category,
		Importance:  model.Importance,
		Confidence:  model.Confidence,
		Temporal: types.TemporalContext{
			Timestamp: model.OccurredAt,
			DayPart:   model.DayPart,
			Season:    model.Season,
		},
		Emotional: types.EmotionalContext{
			Valence:  model.Valence,
			Category: model.EmotionCategory,
		},
		ParentMemoryID: model.ParentMemoryID,
		Embedding:      embedding,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
		Deleted:        model.Deleted,
	}
}
