package agent

import (
	"context"
	"strings"
	"testing"

	"schedulo/internal/models"
	"schedulo/internal/services"
	"schedulo/internal/tools"
)

// scriptedModel drives the core agent without a real LLM: it invokes the
// given tool once through exec, then returns a fixed final answer.
type scriptedModel struct {
	callTool string
	toolArgs map[string]any
	final    string

	gotMessages []services.ChatMessage
	toolResult  string
	toolErr     error
}

func (m *scriptedModel) ChatCompletion(_ context.Context, _ []services.ChatMessage) (string, error) {
	return m.final, nil
}

func (m *scriptedModel) ChatCompletionWithTools(ctx context.Context, messages []services.ChatMessage, _ []map[string]any, exec services.ToolExecutor) (string, error) {
	m.gotMessages = messages
	if m.callTool != "" {
		m.toolResult, m.toolErr = exec(ctx, m.callTool, m.toolArgs)
	}
	return m.final, nil
}

func TestCoreAgentInjectsUserID(t *testing.T) {
	registry := tools.NewRegistry()
	var seenArgs map[string]any
	err := registry.Register(&tools.Tool{
		Name:        "probe",
		Description: "test probe",
		Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		Execute: func(_ context.Context, args map[string]any) (string, error) {
			seenArgs = args
			return `{"message": "ok", "data": null}`, nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	model := &scriptedModel{
		callTool: "probe",
		toolArgs: map[string]any{"x": "y"},
		final:    `{"message": "done", "data": null, "render_html": false}`,
	}
	core := NewCoreAgent(model, registry, nil, nil)

	env, err := core.Plan(context.Background(), &State{UserID: "user-42", Query: "테스트"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Message != "done" {
		t.Errorf("unexpected envelope: %+v", env)
	}

	if seenArgs == nil {
		t.Fatal("tool was never executed")
	}
	if seenArgs[tools.UserIDArg] != "user-42" {
		t.Errorf("user id not injected into tool args: %v", seenArgs)
	}
	if seenArgs["x"] != "y" {
		t.Errorf("model-supplied args lost: %v", seenArgs)
	}
}

func TestCoreAgentBuildsConversation(t *testing.T) {
	model := &scriptedModel{final: `{"message": "hi", "data": null}`}
	core := NewCoreAgent(model, tools.NewRegistry(), &models.PageMap{
		Pages: []models.PageSection{{Name: "캘린더", Path: "/calendar"}},
	}, nil)

	history := []models.HistoryEntry{
		{Query: "어제 뭐 했지?", Answer: "어제는 일정이 없었어요."},
	}
	if _, err := core.Plan(context.Background(), &State{UserID: "u", Query: "오늘은?", History: history}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := model.gotMessages
	if len(msgs) != 4 {
		t.Fatalf("expected system + history pair + query, got %d messages", len(msgs))
	}
	if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, "/calendar") {
		t.Errorf("system prompt should include the page map")
	}
	if !strings.Contains(msgs[0].Content, "Today is") {
		t.Errorf("system prompt should include today's date")
	}
	if msgs[1].Role != "user" || msgs[1].Content != "어제 뭐 했지?" {
		t.Errorf("history user turn misplaced: %+v", msgs[1])
	}
	if msgs[2].Role != "assistant" {
		t.Errorf("history assistant turn misplaced: %+v", msgs[2])
	}
	if msgs[3].Role != "user" || msgs[3].Content != "오늘은?" {
		t.Errorf("current query must be the last message: %+v", msgs[3])
	}
}

func TestCoreAgentMalformedFinalOutput(t *testing.T) {
	model := &scriptedModel{final: "sorry, something went wrong"}
	core := NewCoreAgent(model, tools.NewRegistry(), nil, nil)

	env, err := core.Plan(context.Background(), &State{UserID: "u", Query: "hi"})
	if err != nil {
		t.Fatalf("malformed output must not be an error: %v", err)
	}
	if env.Message != "sorry, something went wrong" || env.RenderHTML {
		t.Errorf("expected fallback envelope, got %+v", env)
	}
}
