package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/mnemosyne/internal/types"
)

// relationshipModel maps to the relationships table, one row per
// character/user pair.
type relationshipModel struct {
	CharacterID string `gorm:"primaryKey"`
	UserID      string `gorm:"primaryKey"`

	Level float64
	Trust float64

	TotalConversations   int
	MemoriesShared       int
	EmotionalMoments     int
	PersonalGrowthEvents int

	EmotionalBoostTotal float64
	DirectLevelBonus    float64

	LastInteractionAt time.Time
	Stage             string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (relationshipModel) TableName() string {
	return "relationships"
}

// RelationshipRepo accesses relationship snapshots.
type RelationshipRepo struct {
	db *gorm.DB
}

// NewRelationshipRepo returns a RelationshipRepo.
func NewRelationshipRepo(db *gorm.DB) *RelationshipRepo {
	return &RelationshipRepo{db: db}
}

// Get returns the snapshot for a pair. A pair with no history gets a fresh
// stranger-stage snapshot rather than an error.
func (r *RelationshipRepo) Get(ctx context.Context, pair types.Pair) (types.RelationshipSnapshot, error) {
	var record relationshipModel
	err := r.db.WithContext(ctx).
		Where("character_id = ? AND user_id = ?", pair.CharacterID, pair.UserID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.RelationshipSnapshot{
			CharacterID: pair.CharacterID,
			UserID:      pair.UserID,
			Stage:       types.StageStranger,
		}, nil
	}
	if err != nil {
		return types.RelationshipSnapshot{}, fmt.Errorf("failed to read relationship: %w", err)
	}
	return snapshotFromModel(record), nil
}

// Save upserts the snapshot for its pair.
func (r *RelationshipRepo) Save(ctx context.Context, snapshot types.RelationshipSnapshot) error {
	if snapshot.CharacterID == "" || snapshot.UserID == "" {
		return fmt.Errorf("%w: snapshot requires character and user ids", types.ErrInvalidInput)
	}
	now := time.Now().UTC()
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = now
	}
	snapshot.UpdatedAt = now

	record := modelFromSnapshot(snapshot)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "character_id"}, {Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save relationship: %w", err)
	}
	return nil
}

// Leaderboard returns a character's relationships ranked by level, then
// trust, then user id for stable ordering.
func (r *RelationshipRepo) Leaderboard(ctx context.Context, characterID string, limit int) ([]types.RelationshipSnapshot, error) {
	query := r.db.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("level DESC").
		Order("trust DESC").
		Order("user_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []relationshipModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	results := make([]types.RelationshipSnapshot, 0, len(records))
	for _, record := range records {
		results = append(results, snapshotFromModel(record))
	}
	return results, nil
}

func modelFromSnapshot(s types.RelationshipSnapshot) relationshipModel {
	return relationshipModel{
		CharacterID:          s.CharacterID,
		UserID:               s.UserID,
		Level:                s.Level,
		Trust:                s.Trust,
		TotalConversations:   s.TotalConversations,
		MemoriesShared:       s.MemoriesShared,
		EmotionalMoments:     s.EmotionalMoments,
		PersonalGrowthEvents: s.PersonalGrowthEvents,
		EmotionalBoostTotal:  s.EmotionalBoostTotal,
		DirectLevelBonus:     s.DirectLevelBonus,
		LastInteractionAt:    s.LastInteractionAt,
		Stage:                s.Stage,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func snapshotFromModel(m relationshipModel) types.RelationshipSnapshot {
	return types.RelationshipSnapshot{
		CharacterID:          m.CharacterID,
		UserID:               m.UserID,
		Level:                m.Level,
		Trust:                m.Trust,
		TotalConversations:   m.TotalConversations,
		MemoriesShared:       m.MemoriesShared,
		EmotionalMoments:     m.EmotionalMoments,
		PersonalGrowthEvents: m.PersonalGrowthEvents,
		EmotionalBoostTotal:  m.EmotionalBoostTotal,
		DirectLevelBonus:     m.DirectLevelBonus,
		LastInteractionAt:    m.LastInteractionAt,
		Stage:                m.Stage,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
