package callback

import (
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/adk/agent"
	adkmemory "google.golang.org/adk/memory"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/easeaico/mnemosyne/internal/utils"
)

// NewRecordInteractionCallback returns an after-agent callback that feeds
// the completed turn into the memory pipeline.
func NewRecordInteractionCallback(sessionService session.Service, memoryService adkmemory.Service) agent.AfterAgentCallback {
	return wrap("after", "record_interaction", agent.AfterAgentCallback(func(ctx agent.CallbackContext) (*genai.Content, error) {
		resp, err := sessionService.Get(ctx, &session.GetRequest{
			AppName:   ctx.AppName(),
			UserID:    ctx.UserID(),
			SessionID: ctx.SessionID()})
		if err != nil {
			slog.Error("failed to get completed session", "error", err.Error())
			return nil, err
		}

		if err := memoryService.AddSession(ctx, resp.Session); err != nil {
			slog.Error("failed to record interaction", "error", err.Error())
			return nil, err
		}
		return nil, nil
	}))
}

// NewMemoryContextCallback returns a before-agent callback that searches
// memories for the user's message and writes the context block into
// session state under the "memories" key.
func NewMemoryContextCallback(memoryService adkmemory.Service) agent.BeforeAgentCallback {
	return wrap("before", "memory_context", agent.BeforeAgentCallback(func(ctx agent.CallbackContext) (*genai.Content, error) {
		query := strings.TrimSpace(utils.ExtractContentText(ctx.UserContent()))
		if query == "" {
			if err := ctx.State().Set("memories", ""); err != nil {
				return nil, fmt.Errorf("failed to set memories: %w", err)
			}
			return nil, nil
		}

		resp, err := memoryService.Search(ctx, &adkmemory.SearchRequest{
			AppName: ctx.AppName(),
			UserID:  ctx.UserID(),
			Query:   query,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search memories: %w", err)
		}

		if err := ctx.State().Set("memories", renderEntries(resp)); err != nil {
			return nil, fmt.Errorf("failed to set memories: %w", err)
		}
		return nil, nil
	}))
}

func renderEntries(resp *adkmemory.SearchResponse) string {
	if resp == nil || len(resp.Memories) == 0 {
		return ""
	}
	var b strings.Builder
	for _, entry := range resp.Memories {
		text := strings.TrimSpace(utils.ExtractContentText(entry.Content))
		if text == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}
