// Package relationship maintains the quantified relationship state between
// a character and a user: counters, trust, level and derived stage, plus
// the character's mood state.
package relationship

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/easeaico/mnemosyne/internal/config"
	"github.com/easeaico/mnemosyne/internal/emotion"
	"github.com/easeaico/mnemosyne/internal/repository"
	"github.com/easeaico/mnemosyne/internal/types"
)

const maxLevel = 10

// Ledger is the only writer of relationship snapshots. Callers serialize
// per pair; the ledger itself only guards its duplicate-detection history.
type Ledger struct {
	relationships *repository.RelationshipRepo
	states        *repository.CharacterStateRepo
	gate          *Gate
	machine       *emotion.StateMachine
	cfg           config.RelationshipConfig

	mu      sync.Mutex
	history map[string][]string
}

// NewLedger creates a Ledger.
func NewLedger(relationships *repository.RelationshipRepo, states *repository.CharacterStateRepo, cfg config.RelationshipConfig) *Ledger {
	return &Ledger{
		relationships: relationships,
		states:        states,
		gate:          NewGate(cfg),
		machine:       emotion.NewStateMachine(),
		cfg:           cfg,
		history:       make(map[string][]string),
	}
}

// RecordInteraction applies one conversation turn to the pair's snapshot
// and mood state. A gated interaction changes nothing and returns the
// current snapshot.
func (l *Ledger) RecordInteraction(ctx context.Context, pair types.Pair, analysis types.EmotionalAnalysis, extraction types.ExtractionResult, message string, now time.Time) (types.RelationshipSnapshot, error) {
	snapshot, err := l.relationships.Get(ctx, pair)
	if err != nil {
		return types.RelationshipSnapshot{}, err
	}

	ok, reason := l.gate.Check(message, snapshot.LastInteractionAt, l.recentMessages(pair), now)
	if !ok {
		slog.Debug("interaction not counted",
			"character_id", pair.CharacterID,
			"user_id", pair.UserID,
			"reason", reason)
		return snapshot, nil
	}

	snapshot.TotalConversations++
	snapshot.MemoriesShared += len(extraction.Facts)
	if analysis.Intensity >= l.cfg.EmotionalMomentThreshold {
		snapshot.EmotionalMoments++
	}

	for _, bonus := range analysis.Bonuses {
		snapshot.MemoriesShared += bonus.MemoriesBonus
		snapshot.PersonalGrowthEvents += bonus.GrowthBonus
		snapshot.Trust += bonus.TrustBonus
		snapshot.EmotionalBoostTotal += bonus.EmotionalBoost
		snapshot.DirectLevelBonus += bonus.LevelBonus
	}
	snapshot.Trust = clamp(snapshot.Trust, 0, 1)

	snapshot.Level = clamp(snapshot.EmotionalBoostTotal*l.cfg.LevelPerBoostPoint+snapshot.DirectLevelBonus, 0, maxLevel)
	snapshot.Stage = types.StageForLevel(snapshot.Level)
	snapshot.LastInteractionAt = now

	if err := l.relationships.Save(ctx, snapshot); err != nil {
		return types.RelationshipSnapshot{}, err
	}

	if err := l.advanceMood(ctx, pair, analysis.Label); err != nil {
		return types.RelationshipSnapshot{}, err
	}

	l.remember(pair, message)
	return snapshot, nil
}

// Snapshot returns the current relationship snapshot without changing it.
func (l *Ledger) Snapshot(ctx context.Context, pair types.Pair) (types.RelationshipSnapshot, error) {
	return l.relationships.Get(ctx, pair)
}

// State returns the current character mood state.
func (l *Ledger) State(ctx context.Context, pair types.Pair) (types.CharacterState, error) {
	return l.states.Get(ctx, pair)
}

// Leaderboard returns a character's top relationships by level.
func (l *Ledger) Leaderboard(ctx context.Context, characterID string, limit int) ([]types.RelationshipSnapshot, error) {
	return l.relationships.Leaderboard(ctx, characterID, limit)
}

func (l *Ledger) advanceMood(ctx context.Context, pair types.Pair, label types.Label) error {
	state, err := l.states.Get(ctx, pair)
	if err != nil {
		return err
	}
	state = l.machine.Update(state, label)
	if err := l.states.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save mood state: %w", err)
	}
	return nil
}

// recentMessages returns the pair's last counted messages, newest first.
func (l *Ledger) recentMessages(pair types.Pair) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history[pair.Key()]
}

func (l *Ledger) remember(pair types.Pair, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := pair.Key()
	recent := append([]string{message}, l.history[key]...)
	if len(recent) > l.cfg.DuplicateWindow {
		recent = recent[:l.cfg.DuplicateWindow]
	}
	l.history[key] = recent
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
