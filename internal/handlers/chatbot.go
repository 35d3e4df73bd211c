package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schedulo/internal/agent"
	"schedulo/internal/logging"
	"schedulo/internal/middleware"
	"schedulo/internal/models"
	"schedulo/internal/services"
	"schedulo/internal/tools"
)

const (
	chatRateLimit  = 20
	chatRateWindow = time.Minute
	maxQueryLength = 2000
)

// ChatbotHandler serves the conversational endpoint. Each request is one
// full pass through the agent graph.
type ChatbotHandler struct {
	graph         *agent.Graph
	chatLog       *services.ChatLogService
	redis         *services.RedisService
	metrics       *services.Metrics
	registry      *tools.Registry
	historyWindow int
}

func NewChatbotHandler(graph *agent.Graph, chatLog *services.ChatLogService, redis *services.RedisService, metrics *services.Metrics, registry *tools.Registry, historyWindow int) *ChatbotHandler {
	return &ChatbotHandler{
		graph:         graph,
		chatLog:       chatLog,
		redis:         redis,
		metrics:       metrics,
		registry:      registry,
		historyWindow: historyWindow,
	}
}

// ChatRequest is the body for POST /api/chatbot/chat.
type ChatRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
}

// Chat runs one conversation turn.
// POST /api/chatbot/chat
func (h *ChatbotHandler) Chat(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}
	if len(req.Query) > maxQueryLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query too long"})
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.New().String()
	}

	if h.redis != nil {
		key := fmt.Sprintf("ratelimit:chat:%s", userID)
		_, exceeded, err := h.redis.CheckRateLimit(c.Context(), key, chatRateLimit, chatRateWindow)
		if err != nil {
			log.Printf("⚠️  Rate limit check failed, allowing request: %v", err)
		} else if exceeded {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many messages, please slow down",
			})
		}
	}

	if h.metrics != nil {
		h.metrics.RecordChatRequest()
	}
	start := time.Now()
	turnLog := logging.WithTurn(req.ConversationID, userID)

	history := h.chatLog.RecentHistory(c.Context(), userID, h.historyWindow)

	result, err := h.graph.Run(c.Context(), userID, req.Query, history)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordChatError("llm")
		}
		turnLog.Error("chat turn failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "The assistant is unavailable right now, please try again",
		})
	}

	if h.metrics != nil {
		h.metrics.RecordChatLatency(time.Since(start).Seconds())
	}
	turnLog.Debug("chat turn complete", "rendered", result.HTML != nil, "elapsed", time.Since(start))

	h.archiveTurn(c, userID, req, result)

	return c.JSON(fiber.Map{
		"conversation_id": req.ConversationID,
		"response":        result,
	})
}

// Tools lists the tool catalog the agent can call, with display metadata.
// GET /api/chatbot/tools
func (h *ChatbotHandler) Tools(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"tools": h.registry.ListDetailed()})
}

func (h *ChatbotHandler) archiveTurn(c *fiber.Ctx, userID string, req ChatRequest, result *models.TurnResult) {
	answer, err := json.Marshal(models.Envelope{
		Message:      result.Message,
		Data:         result.Data,
		RenderHTML:   result.RenderHTML,
		TemplateName: result.TemplateName,
	})
	if err != nil {
		log.Printf("⚠️  Failed to encode turn for archive: %v", err)
		return
	}

	h.chatLog.AppendTurn(c.Context(), models.ChatTurn{
		ID:             uuid.New().String(),
		UserID:         userID,
		ConversationID: req.ConversationID,
		Query:          req.Query,
		Answer:         answer,
		CreatedAt:      time.Now().UTC(),
	})
}
