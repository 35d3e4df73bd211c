package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"schedulo/internal/models"
)

// ChatMessage is one message in an OpenAI-compatible conversation.
type ChatMessage struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ToolExecutor runs one named tool with already-decoded arguments and
// returns the tool's result string for the model.
type ToolExecutor func(ctx context.Context, name string, args map[string]any) (string, error)

// ErrNoProvider is returned when no enabled LLM provider is configured.
var ErrNoProvider = errors.New("no enabled LLM provider configured")

// LLMService is an OpenAI-compatible chat completion client with an
// integrated tool-calling loop. The provider is swappable at runtime
// (providers.json hot reload).
type LLMService struct {
	mu            sync.RWMutex
	provider      models.Provider
	hasProvider   bool
	client        *http.Client
	limiter       *rate.Limiter
	timeout       time.Duration
	maxIterations int
}

// NewLLMService creates the client. Requests are throttled to keep the
// backend inside typical provider rate limits.
func NewLLMService(providers *models.ProvidersConfig, timeout time.Duration, maxIterations int) *LLMService {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if maxIterations <= 0 {
		maxIterations = 10
	}

	s := &LLMService{
		client:        &http.Client{Timeout: timeout},
		limiter:       rate.NewLimiter(rate.Limit(5), 10),
		timeout:       timeout,
		maxIterations: maxIterations,
	}
	s.SetProviders(providers)
	return s
}

// SetProviders swaps the active provider. Called at startup and whenever
// providers.json changes on disk.
func (s *LLMService) SetProviders(providers *models.ProvidersConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if providers == nil {
		s.hasProvider = false
		return
	}
	p, ok := providers.FirstEnabled()
	s.provider = p
	s.hasProvider = ok
	if ok {
		log.Printf("🤖 [LLM] Active provider: %s (%s)", p.Name, p.Model)
	}
}

// activeProvider returns a copy of the current provider.
func (s *LLMService) activeProvider() (models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasProvider {
		return models.Provider{}, ErrNoProvider
	}
	return s.provider, nil
}

// ChatCompletion performs one plain completion call and returns the
// assistant's text content.
func (s *LLMService) ChatCompletion(ctx context.Context, messages []ChatMessage) (string, error) {
	msg, err := s.complete(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// ChatCompletionWithTools runs the tool-calling loop: the model is called
// with the tool catalog, requested tools are executed through exec, their
// results are appended as tool messages, and the loop continues until the
// model answers with plain content or the iteration cap is hit.
func (s *LLMService) ChatCompletionWithTools(ctx context.Context, messages []ChatMessage, tools []map[string]any, exec ToolExecutor) (string, error) {
	conversation := make([]ChatMessage, len(messages))
	copy(conversation, messages)

	for iteration := 0; iteration < s.maxIterations; iteration++ {
		msg, err := s.complete(ctx, conversation, tools)
		if err != nil {
			return "", err
		}

		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		// Echo the assistant's tool request back into the conversation, then
		// answer each call with a tool message.
		conversation = append(conversation, *msg)

		for _, call := range msg.ToolCalls {
			result := s.executeToolCall(ctx, call, exec)
			conversation = append(conversation, ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("tool loop exceeded %d iterations without a final answer", s.maxIterations)
}

func (s *LLMService) executeToolCall(ctx context.Context, call ToolCall, exec ToolExecutor) string {
	name := call.Function.Name

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			log.Printf("⚠️  [LLM] Tool %s got unparseable arguments: %v", name, err)
			return fmt.Sprintf("Error: tool arguments were not valid JSON: %v", err)
		}
	}

	result, err := exec(ctx, name, args)
	if err != nil {
		log.Printf("❌ [LLM] Tool %s failed: %v", name, err)
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}

// chatRequest is the wire format for /chat/completions.
type chatRequest struct {
	Model    string           `json:"model"`
	Messages []ChatMessage    `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// complete performs one POST to the provider. A timeout or transient
// network failure is retried once before failing the turn.
func (s *LLMService) complete(ctx context.Context, messages []ChatMessage, tools []map[string]any) (*ChatMessage, error) {
	provider, err := s.activeProvider()
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		msg, err := s.doRequest(ctx, provider, messages, tools)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			break
		}
		log.Printf("⚠️  [LLM] Request failed, retrying once: %v", err)
	}
	return nil, lastErr
}

func isRetryable(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "EOF")
}

func (s *LLMService) doRequest(ctx context.Context, provider models.Provider, messages []ChatMessage, tools []map[string]any) (*ChatMessage, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:    provider.Model,
		Messages: messages,
		Stream:   false,
		Tools:    tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(provider.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if provider.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+provider.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("LLM error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	msg := parsed.Choices[0].Message
	return &msg, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
