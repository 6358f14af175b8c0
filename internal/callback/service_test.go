package callback

import (
	"context"
	"iter"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	adkmemory "google.golang.org/adk/memory"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/easeaico/mnemosyne/internal/config"
	"github.com/easeaico/mnemosyne/internal/emotion"
	"github.com/easeaico/mnemosyne/internal/engine"
	"github.com/easeaico/mnemosyne/internal/repository"
	"github.com/easeaico/mnemosyne/internal/types"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}
	store, err := repository.NewStore(context.Background(), cfg.Database)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return engine.New(cfg, store, emotion.New(), nil)
}

func TestServiceAddSessionRecordsLatestTurn(t *testing.T) {
	e := newTestEngine(t)
	svc := NewService(e)

	sess := newMockSession("luna", "user-1", []sessionEvent{
		{role: "user", text: "My sister Sarah just moved to Brighton"},
		{role: "assistant", text: "That sounds like a big change for her!"},
	})

	require.NoError(t, svc.AddSession(context.Background(), sess))

	pair := types.Pair{CharacterID: "luna", UserID: "user-1"}
	facts, err := e.ListMemories(context.Background(), pair, repository.MemoryFilter{Type: types.MemoryTypeFact})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "family: Sarah", facts[0].Content)

	snapshot, err := e.Relationship(context.Background(), pair)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.TotalConversations)
}

func TestServiceAddSessionUsesNewestUserMessage(t *testing.T) {
	e := newTestEngine(t)
	svc := NewService(e)

	sess := newMockSession("luna", "user-1", []sessionEvent{
		{role: "user", text: "My name is Alice"},
		{role: "assistant", text: "Nice to meet you, Alice"},
		{role: "user", text: "I live in Berlin these days"},
		{role: "assistant", text: "Berlin is lovely in the spring"},
	})

	require.NoError(t, svc.AddSession(context.Background(), sess))

	pair := types.Pair{CharacterID: "luna", UserID: "user-1"}
	conversations, err := e.ListMemories(context.Background(), pair, repository.MemoryFilter{Type: types.MemoryTypeConversation})
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Contains(t, conversations[0].Content, "I live in Berlin these days")
	assert.NotContains(t, conversations[0].Content, "Alice")
}

func TestServiceAddSessionWithoutUserMessage(t *testing.T) {
	e := newTestEngine(t)
	svc := NewService(e)

	sess := newMockSession("luna", "user-1", []sessionEvent{
		{role: "assistant", text: "Are you still there?"},
	})
	require.NoError(t, svc.AddSession(context.Background(), sess))

	pair := types.Pair{CharacterID: "luna", UserID: "user-1"}
	stats, err := e.MemoryStats(context.Background(), pair)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestServiceAddSessionRequiresCharacterID(t *testing.T) {
	e := newTestEngine(t)
	svc := NewService(e)

	sess := newMockSession("", "user-1", []sessionEvent{
		{role: "user", text: "hello there"},
	})
	sess.(*mockSession).state.data = map[string]any{}

	err := svc.AddSession(context.Background(), sess)
	assert.Error(t, err)
}

func TestServiceSearchReturnsContextEntries(t *testing.T) {
	e := newTestEngine(t)
	svc := NewService(e)

	sess := newMockSession("luna", "user-1", []sessionEvent{
		{role: "user", text: "My dog Biscuit loves the park"},
	})
	require.NoError(t, svc.AddSession(context.Background(), sess))

	resp, err := svc.Search(context.Background(), &adkmemory.SearchRequest{
		AppName: "luna",
		UserID:  "user-1",
		Query:   "how is the dog doing",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Memories)

	entry := resp.Memories[0]
	assert.Equal(t, types.SectionKnownFacts, entry.Author)
	require.NotNil(t, entry.Content)
	require.NotEmpty(t, entry.Content.Parts)
	assert.Equal(t, "pet: Biscuit", entry.Content.Parts[0].Text)
}

func TestServiceSearchEmptyQuery(t *testing.T) {
	e := newTestEngine(t)
	svc := NewService(e)

	resp, err := svc.Search(context.Background(), &adkmemory.SearchRequest{AppName: "luna", UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Memories)

	resp, err = svc.Search(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Memories)
}

func TestLastTurnWalk(t *testing.T) {
	sess := newMockSession("luna", "user-1", []sessionEvent{
		{role: "user", text: "first question"},
		{role: "assistant", text: "first answer"},
		{role: "user", text: "second question"},
		{role: "assistant", text: "second answer"},
	})
	user, agent := lastTurn(sess)
	assert.Equal(t, "second question", user)
	assert.Equal(t, "second answer", agent)

	// A user message still waiting for its reply.
	sess = newMockSession("luna", "user-1", []sessionEvent{
		{role: "user", text: "hello?"},
	})
	user, agent = lastTurn(sess)
	assert.Equal(t, "hello?", user)
	assert.Empty(t, agent)

	sess = newMockSession("luna", "user-1", nil)
	user, agent = lastTurn(sess)
	assert.Empty(t, user)
	assert.Empty(t, agent)
}

func TestRenderEntries(t *testing.T) {
	assert.Empty(t, renderEntries(nil))
	assert.Empty(t, renderEntries(&adkmemory.SearchResponse{}))

	resp := &adkmemory.SearchResponse{Memories: []adkmemory.Entry{
		{Content: genai.NewContentFromText("pet: Biscuit", "assistant"), Author: types.SectionKnownFacts},
		{Content: genai.NewContentFromText("talked about the park", "assistant"), Author: types.SectionRecent},
	}}
	assert.Equal(t, "- pet: Biscuit\n- talked about the park\n", renderEntries(resp))
}

func newMockSession(characterID, userID string, events []sessionEvent) session.Session {
	state := &mockState{data: map[string]any{"character_id": characterID}}
	evtList := make([]*session.Event, 0, len(events))
	for _, e := range events {
		evtList = append(evtList, &session.Event{
			LLMResponse: model.LLMResponse{
				Content: genai.NewContentFromText(e.text, genai.Role(e.role)),
			},
		})
	}
	return &mockSession{
		id:     "session-1",
		app:    characterID,
		user:   userID,
		state:  state,
		events: &mockEvents{events: evtList},
	}
}

type sessionEvent struct {
	role string
	text string
}

type mockSession struct {
	id     string
	app    string
	user   string
	state  *mockState
	events *mockEvents
}

func (m *mockSession) ID() string                { return m.id }
func (m *mockSession) AppName() string           { return m.app }
func (m *mockSession) UserID() string            { return m.user }
func (m *mockSession) State() session.State      { return m.state }
func (m *mockSession) Events() session.Events    { return m.events }
func (m *mockSession) LastUpdateTime() time.Time { return time.Now() }

var _ session.Session = (*mockSession)(nil)

type mockState struct {
	data map[string]any
}

func (m *mockState) Get(key string) (any, error) {
	val, ok := m.data[key]
	if !ok {
		return nil, session.ErrStateKeyNotExist
	}
	return val, nil
}

func (m *mockState) Set(key string, value any) error {
	if m.data == nil {
		m.data = map[string]any{}
	}
	m.data[key] = value
	return nil
}

func (m *mockState) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for k, v := range m.data {
			if !yield(k, v) {
				return
			}
		}
	}
}

var _ session.State = (*mockState)(nil)

type mockEvents struct {
	events []*session.Event
}

func (m *mockEvents) All() iter.Seq[*session.Event] {
	return func(yield func(*session.Event) bool) {
		for _, evt := range m.events {
			if !yield(evt) {
				return
			}
		}
	}
}

func (m *mockEvents) Len() int {
	return len(m.events)
}

func (m *mockEvents) At(i int) *session.Event {
	return m.events[i]
}

var _ session.Events = (*mockEvents)(nil)
