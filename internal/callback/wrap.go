// Package callback adapts the engine to ADK agents: context injection
// before a turn, interaction recording after it, and a memory.Service
// implementation over the engine.
package callback

import (
	"log/slog"

	"google.golang.org/adk/agent"
	"google.golang.org/genai"
)

// agentCallback matches both the before- and after-agent callback shapes.
type agentCallback interface {
	~func(agent.CallbackContext) (*genai.Content, error)
}

// wrap adds logging and panic recovery around an agent callback. A panic
// inside the callback is logged and turns into a nil result so one bad
// turn does not take the agent down.
func wrap[F agentCallback](stage, name string, cb F) F {
	return F(func(ctx agent.CallbackContext) (content *genai.Content, err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("callback panic", "stage", stage, "name", name, "error", r)
				content, err = nil, nil
			}
		}()

		content, err = cb(ctx)
		if err != nil {
			slog.Error("callback error", "stage", stage, "name", name, "error", err.Error())
			return content, err
		}
		slog.Debug("callback done", "stage", stage, "name", name, "has_content", content != nil)
		return content, nil
	})
}
