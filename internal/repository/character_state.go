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

// characterStateModel maps to the character_states table.
type characterStateModel struct {
	CharacterID string `gorm:"primaryKey"`
	UserID      string `gorm:"primaryKey"`
	Affection   int
	Mood        string
	MoodTurns   int
	LastLabel   string
	UpdatedAt   time.Time
}

func (characterStateModel) TableName() string {
	return "character_states"
}

// CharacterStateRepo accesses per-pair mood state.
type CharacterStateRepo struct {
	db *gorm.DB
}

// NewCharacterStateRepo returns a CharacterStateRepo.
func NewCharacterStateRepo(db *gorm.DB) *CharacterStateRepo {
	return &CharacterStateRepo{db: db}
}

// defaultAffection is the starting affection for a new pair.
const defaultAffection = 50

// Get returns the mood state for a pair, seeding a neutral state when the
// pair has no history.
func (r *CharacterStateRepo) Get(ctx context.Context, pair types.Pair) (types.CharacterState, error) {
	var record characterStateModel
	err := r.db.WithContext(ctx).
		Where("character_id = ? AND user_id = ?", pair.CharacterID, pair.UserID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.CharacterState{
			CharacterID: pair.CharacterID,
			UserID:      pair.UserID,
			Affection:   defaultAffection,
			Mood:        "Neutral",
		}, nil
	}
	if err != nil {
		return types.CharacterState{}, fmt.Errorf("failed to read character state: %w", err)
	}
	return types.CharacterState{
		CharacterID: record.CharacterID,
		UserID:      record.UserID,
		Affection:   record.Affection,
		Mood:        record.Mood,
		MoodTurns:   record.MoodTurns,
		LastLabel:   record.LastLabel,
		UpdatedAt:   record.UpdatedAt,
	}, nil
}

// Save upserts a pair's mood state.
func (r *CharacterStateRepo) Save(ctx context.Context, state types.CharacterState) error {
	if state.CharacterID == "" || state.UserID == "" {
		return fmt.Errorf("%w: state requires character and user ids", types.ErrInvalidInput)
	}
	record := characterStateModel{
		CharacterID: state.CharacterID,
		UserID:      state.UserID,
		Affection:   state.Affection,
		Mood:        state.Mood,
		MoodTurns:   state.MoodTurns,
		LastLabel:   state.LastLabel,
		UpdatedAt:   time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "character_id"}, {Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save character state: %w", err)
	}
	return nil
}
