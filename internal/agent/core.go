package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"schedulo/internal/models"
	"schedulo/internal/services"
	"schedulo/internal/tools"
)

// ChatModel is the slice of the LLM client the agents need. Satisfied by
// *services.LLMService; tests substitute scripted fakes.
type ChatModel interface {
	ChatCompletion(ctx context.Context, messages []services.ChatMessage) (string, error)
	ChatCompletionWithTools(ctx context.Context, messages []services.ChatMessage, toolDefs []map[string]any, exec services.ToolExecutor) (string, error)
}

// CoreAgent runs the tool-calling planning stage of a turn: it gives the
// model the tool catalog, executes the calls it makes, and parses the final
// output into an Envelope.
type CoreAgent struct {
	llm      ChatModel
	registry *tools.Registry
	pageMap  *models.PageMap
	metrics  *services.Metrics
	now      func() time.Time
}

func NewCoreAgent(llm ChatModel, registry *tools.Registry, pageMap *models.PageMap, metrics *services.Metrics) *CoreAgent {
	return &CoreAgent{
		llm:      llm,
		registry: registry,
		pageMap:  pageMap,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Plan runs one planning pass for the state's query and returns the parsed
// envelope. Malformed model output degrades to a fallback envelope; only
// transport-level failures (provider down, context canceled) return an error.
func (a *CoreAgent) Plan(ctx context.Context, st *State) (models.Envelope, error) {
	messages := a.buildMessages(st)

	exec := func(ctx context.Context, name string, args map[string]any) (string, error) {
		// The model never sees or supplies the caller's identity.
		if args == nil {
			args = map[string]any{}
		}
		args[tools.UserIDArg] = st.UserID

		result, err := a.registry.Execute(ctx, name, args)
		if a.metrics != nil {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			a.metrics.RecordToolCall(name, outcome)
		}
		return result, err
	}

	raw, err := a.llm.ChatCompletionWithTools(ctx, messages, a.registry.List(), exec)
	if err != nil {
		return models.Envelope{}, err
	}

	return ParseEnvelope(raw), nil
}

func (a *CoreAgent) buildMessages(st *State) []services.ChatMessage {
	messages := make([]services.ChatMessage, 0, 2+2*len(st.History))
	messages = append(messages, services.ChatMessage{
		Role:    "system",
		Content: BuildSystemPrompt(a.now(), a.pageMap),
	})
	for _, h := range st.History {
		messages = append(messages,
			services.ChatMessage{Role: "user", Content: h.Query},
			services.ChatMessage{Role: "assistant", Content: h.Answer},
		)
	}
	messages = append(messages, services.ChatMessage{Role: "user", Content: st.Query})
	return messages
}

// ParseEnvelope extracts and validates an Envelope from raw model output.
// Anything that fails to parse becomes a fallback envelope carrying the raw
// text, so the user always gets a reply.
func ParseEnvelope(raw string) models.Envelope {
	candidate := ExtractJSON(raw)
	if candidate == "" {
		return models.FallbackEnvelope(raw)
	}

	var env models.Envelope
	if err := json.Unmarshal([]byte(candidate), &env); err != nil || env.Message == "" {
		slog.Warn("envelope parse failed, falling back to raw text", "error", err)
		return models.FallbackEnvelope(raw)
	}

	sanitizeEnvelope(&env)
	return env
}

// sanitizeEnvelope enforces the envelope's internal consistency rules:
// empty data is nil data, rendering requires data and a known template, and
// template_name is meaningless without rendering.
func sanitizeEnvelope(env *models.Envelope) {
	if len(env.Data) == 0 {
		env.Data = nil
	}
	if env.Data == nil {
		env.RenderHTML = false
	}
	if env.RenderHTML && !models.ValidTemplateName(env.TemplateName) {
		slog.Warn("unknown template name from model, skipping render", "template", env.TemplateName)
		env.RenderHTML = false
	}
	if !env.RenderHTML {
		env.TemplateName = ""
	}
}
