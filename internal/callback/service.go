package callback

import (
	"context"
	"fmt"

	adkmemory "google.golang.org/adk/memory"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/easeaico/mnemosyne/internal/engine"
	"github.com/easeaico/mnemosyne/internal/types"
	"github.com/easeaico/mnemosyne/internal/utils"
)

// Service implements ADK memory.Service over the engine. AddSession feeds
// the latest turn through the full pipeline; Search returns the assembled
// context block as memory entries.
type Service struct {
	engine *engine.Engine
}

// NewService returns a memory service backed by the engine.
func NewService(e *engine.Engine) *Service {
	return &Service{engine: e}
}

// AddSession records the session's latest user/assistant turn. The session
// state must carry the character id the session talks to.
func (s *Service) AddSession(ctx context.Context, sess session.Session) error {
	characterID, err := characterIDFromState(sess)
	if err != nil {
		return err
	}

	userMessage, agentResponse := lastTurn(sess)
	if userMessage == "" {
		return nil
	}

	_, err = s.engine.ProcessInteraction(ctx, engine.Input{
		CharacterID:   characterID,
		UserID:        sess.UserID(),
		UserMessage:   userMessage,
		AgentResponse: agentResponse,
	})
	if err != nil {
		return fmt.Errorf("failed to process interaction: %w", err)
	}
	return nil
}

// Search assembles the context block for the query and returns its entries.
// The ADK app name identifies the character.
func (s *Service) Search(ctx context.Context, req *adkmemory.SearchRequest) (*adkmemory.SearchResponse, error) {
	if req == nil || req.Query == "" {
		return &adkmemory.SearchResponse{Memories: nil}, nil
	}

	pair := types.Pair{CharacterID: req.AppName, UserID: req.UserID}
	block, err := s.engine.RetrieveContext(ctx, pair, req.Query)
	if err != nil {
		return nil, err
	}

	entries := make([]adkmemory.Entry, 0, len(block.Entries))
	for _, entry := range block.Entries {
		entries = append(entries, adkmemory.Entry{
			Content: genai.NewContentFromText(entry.Text, "assistant"),
			Author:  entry.Section,
		})
	}
	return &adkmemory.SearchResponse{Memories: entries}, nil
}

func characterIDFromState(sess session.Session) (string, error) {
	value, err := sess.State().Get("character_id")
	if err != nil {
		return "", err
	}
	characterID, ok := value.(string)
	if !ok || characterID == "" {
		return "", fmt.Errorf("character_id is not set in session state")
	}
	return characterID, nil
}

// lastTurn walks the session events backwards and returns the newest user
// message with the assistant response that followed it.
func lastTurn(sess session.Session) (userMessage, agentResponse string) {
	events := sess.Events()
	for i := events.Len() - 1; i >= 0; i-- {
		event := events.At(i)
		if event.Content == nil {
			continue
		}
		text := utils.ExtractContentText(event.Content)
		if text == "" {
			continue
		}
		if event.Content.Role == "user" {
			return text, agentResponse
		}
		if agentResponse == "" {
			agentResponse = text
		}
	}
	return "", agentResponse
}
