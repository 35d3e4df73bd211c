package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schedulo/internal/database"
	"schedulo/internal/models"
)

// ChatLogService archives chat turns and serves the recent-history window
// the core agent uses as conversation context.
//
// Turns always land in an in-process cache; when MongoDB is configured they
// are archived there as well, and history reads fall back to Mongo on a
// cache miss (e.g. after a restart).
type ChatLogService struct {
	mongo *database.MongoDB // nil disables the archive
	cache *cache.Cache
}

// NewChatLogService creates a new chat log service. mongo may be nil.
func NewChatLogService(mongo *database.MongoDB) *ChatLogService {
	return &ChatLogService{
		mongo: mongo,
		cache: cache.New(24*time.Hour, 1*time.Hour),
	}
}

// AppendTurn records one completed query/answer pair for the user.
func (s *ChatLogService) AppendTurn(ctx context.Context, turn models.ChatTurn) {
	turn.CreatedAt = time.Now()

	var history []models.ChatTurn
	if cached, found := s.cache.Get(turn.UserID); found {
		history = cached.([]models.ChatTurn)
	}
	history = append(history, turn)
	// Keep the cache bounded; history reads never need more than a window.
	if len(history) > 50 {
		history = history[len(history)-50:]
	}
	s.cache.Set(turn.UserID, history, cache.DefaultExpiration)

	if s.mongo == nil {
		return
	}
	if _, err := s.mongo.Collection(database.CollectionChattings).InsertOne(ctx, turn); err != nil {
		log.Printf("⚠️  [CHATLOG] Failed to archive turn for %s: %v", turn.UserID, err)
	}
}

// RecentHistory returns the user's last n turns, oldest first, compacted to
// query/answer text pairs for prompt injection.
func (s *ChatLogService) RecentHistory(ctx context.Context, userID string, n int) []models.HistoryEntry {
	if n <= 0 {
		n = 10
	}

	if cached, found := s.cache.Get(userID); found {
		turns := cached.([]models.ChatTurn)
		if len(turns) > n {
			turns = turns[len(turns)-n:]
		}
		return compactTurns(turns)
	}

	if s.mongo == nil {
		return nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(n))
	cursor, err := s.mongo.Collection(database.CollectionChattings).
		Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		log.Printf("⚠️  [CHATLOG] History lookup failed for %s: %v", userID, err)
		return nil
	}
	defer cursor.Close(ctx)

	var turns []models.ChatTurn
	if err := cursor.All(ctx, &turns); err != nil {
		log.Printf("⚠️  [CHATLOG] History decode failed for %s: %v", userID, err)
		return nil
	}

	// Mongo returned newest-first; flip to oldest-first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return compactTurns(turns)
}

func compactTurns(turns []models.ChatTurn) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, len(turns))
	for _, turn := range turns {
		answer := string(turn.Answer)
		var env models.Envelope
		if err := json.Unmarshal(turn.Answer, &env); err == nil && env.Message != "" {
			answer = env.Message
		}
		entries = append(entries, models.HistoryEntry{Query: turn.Query, Answer: answer})
	}
	return entries
}
