package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/mnemosyne/internal/types"
)

func TestRelationshipGetFreshPair(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Relationships.Get(context.Background(), testPair)
	require.NoError(t, err)
	assert.Equal(t, types.StageStranger, got.Stage)
	assert.Zero(t, got.Level)
	assert.Zero(t, got.TotalConversations)
}

func TestRelationshipSaveRoundTrip(t *testing.T) {
	store := newTestStore(t)

	snapshot := types.RelationshipSnapshot{
		CharacterID:          testPair.CharacterID,
		UserID:               testPair.UserID,
		Level:                2.4,
		Trust:                0.35,
		TotalConversations:   12,
		MemoriesShared:       7,
		EmotionalMoments:     3,
		PersonalGrowthEvents: 2,
		EmotionalBoostTotal:  8.2,
		DirectLevelBonus:     0.3,
		LastInteractionAt:    time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC),
		Stage:                types.StageAcquaintance,
	}
	require.NoError(t, store.Relationships.Save(context.Background(), snapshot))

	got, err := store.Relationships.Get(context.Background(), testPair)
	require.NoError(t, err)
	assert.Equal(t, 2.4, got.Level)
	assert.Equal(t, 0.35, got.Trust)
	assert.Equal(t, 12, got.TotalConversations)
	assert.Equal(t, 8.2, got.EmotionalBoostTotal)
	assert.Equal(t, 0.3, got.DirectLevelBonus)
	assert.Equal(t, types.StageAcquaintance, got.Stage)
}

func TestRelationshipSaveUpserts(t *testing.T) {
	store := newTestStore(t)

	first := types.RelationshipSnapshot{
		CharacterID: testPair.CharacterID, UserID: testPair.UserID,
		Level: 1, Stage: types.StageAcquaintance, TotalConversations: 1,
	}
	require.NoError(t, store.Relationships.Save(context.Background(), first))

	first.Level = 1.5
	first.TotalConversations = 2
	require.NoError(t, store.Relationships.Save(context.Background(), first))

	got, err := store.Relationships.Get(context.Background(), testPair)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.Level)
	assert.Equal(t, 2, got.TotalConversations)
}

func TestRelationshipSaveValidates(t *testing.T) {
	store := newTestStore(t)

	err := store.Relationships.Save(context.Background(), types.RelationshipSnapshot{UserID: "user-1"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestRelationshipLeaderboard(t *testing.T) {
	store := newTestStore(t)

	for _, s := range []types.RelationshipSnapshot{
		{CharacterID: "luna", UserID: "alice", Level: 4, Trust: 0.5, Stage: types.StageFriend},
		{CharacterID: "luna", UserID: "bob", Level: 6.5, Trust: 0.8, Stage: types.StageIntimate},
		{CharacterID: "luna", UserID: "carol", Level: 4, Trust: 0.9, Stage: types.StageFriend},
		{CharacterID: "other", UserID: "dave", Level: 9, Trust: 1, Stage: types.StageIntimate},
	} {
		require.NoError(t, store.Relationships.Save(context.Background(), s))
	}

	board, err := store.Relationships.Leaderboard(context.Background(), "luna", 10)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "bob", board[0].UserID)
	assert.Equal(t, "carol", board[1].UserID, "trust breaks level ties")
	assert.Equal(t, "alice", board[2].UserID)

	top, err := store.Relationships.Leaderboard(context.Background(), "luna", 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestCharacterStateFreshPair(t *testing.T) {
	store := newTestStore(t)

	got, err := store.States.Get(context.Background(), testPair)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Affection)
	assert.Equal(t, "Neutral", got.Mood)
}

func TestCharacterStateSaveRoundTrip(t *testing.T) {
	store := newTestStore(t)

	state := types.CharacterState{
		CharacterID: testPair.CharacterID,
		UserID:      testPair.UserID,
		Affection:   72,
		Mood:        "Happy",
		MoodTurns:   3,
		LastLabel:   "positive",
	}
	require.NoError(t, store.States.Save(context.Background(), state))

	got, err := store.States.Get(context.Background(), testPair)
	require.NoError(t, err)
	assert.Equal(t, 72, got.Affection)
	assert.Equal(t, "Happy", got.Mood)
	assert.Equal(t, 3, got.MoodTurns)
	assert.Equal(t, "positive", got.LastLabel)

	state.Affection = 62
	state.Mood = "Sad"
	require.NoError(t, store.States.Save(context.Background(), state))

	got, err = store.States.Get(context.Background(), testPair)
	require.NoError(t, err)
	assert.Equal(t, 62, got.Affection)
	assert.Equal(t, "Sad", got.Mood)
}
