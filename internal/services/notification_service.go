package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"schedulo/internal/database"
	"schedulo/internal/models"
)

// Body limits for one push notification.
const (
	maxNotifyLines = 10
	maxNotifyChars = 900
)

// PushSubscription is one registered device token.
type PushSubscription struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// Notification is one recorded delivery.
type Notification struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Sender delivers one notification to all of a user's registered tokens.
type Sender interface {
	Send(ctx context.Context, tokens []string, title, body string) error
}

// LogSender is the fallback delivery path when no push gateway is configured.
type LogSender struct{}

// Send logs the notification instead of delivering it.
func (LogSender) Send(_ context.Context, tokens []string, title, body string) error {
	log.Printf("🔔 [NOTIFY] (log only, %d tokens) %s: %s", len(tokens), title, strings.ReplaceAll(body, "\n", " / "))
	return nil
}

// HTTPPushSender posts notifications to an external push gateway.
type HTTPPushSender struct {
	gatewayURL string
	client     *http.Client
}

// NewHTTPPushSender creates a sender targeting the given gateway.
func NewHTTPPushSender(gatewayURL string) *HTTPPushSender {
	return &HTTPPushSender{
		gatewayURL: gatewayURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts {tokens, title, body} to the gateway.
func (s *HTTPPushSender) Send(ctx context.Context, tokens []string, title, body string) error {
	payload, err := json.Marshal(map[string]any{
		"tokens": tokens,
		"title":  title,
		"body":   body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// NotificationService owns push subscriptions and the scheduled
// notification jobs' delivery logic.
type NotificationService struct {
	db        *database.DB
	users     *UserService
	schedules *ScheduleService
	sender    Sender
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *database.DB, users *UserService, schedules *ScheduleService, sender Sender) *NotificationService {
	return &NotificationService{db: db, users: users, schedules: schedules, sender: sender}
}

// Subscribe registers a device token for the user.
func (s *NotificationService) Subscribe(ctx context.Context, userID, token string) (*PushSubscription, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("token is required: %w", models.ErrValidation)
	}
	sub := &PushSubscription{ID: uuid.New().String(), UserID: userID, Token: token}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (id, user_id, token) VALUES (?, ?, ?)`,
		sub.ID, sub.UserID, sub.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to store subscription: %w", err)
	}
	return sub, nil
}

// Unsubscribe removes one of the user's device tokens.
func (s *NotificationService) Unsubscribe(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subscription %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Recent returns the user's latest recorded notifications.
func (s *NotificationService) Recent(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, body FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// BuildChecklistBody renders schedule titles as "☐ title" lines, capped at
// maxNotifyLines lines and maxNotifyChars characters.
func BuildChecklistBody(titles []string) string {
	var b strings.Builder
	lines := 0
	for _, title := range titles {
		if lines >= maxNotifyLines {
			break
		}
		line := "☐ " + title
		if b.Len()+len(line)+1 > maxNotifyChars {
			break
		}
		if lines > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		lines++
	}
	return b.String()
}

// NotifyTodaySchedules pushes each user's incomplete schedules for today.
// Used by both the morning and evening jobs.
func (s *NotificationService) NotifyTodaySchedules(ctx context.Context, title string) error {
	today := time.Now().Format("2006-01-02")

	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		titles, err := s.schedules.IncompleteTitles(ctx, userID, today)
		if err != nil {
			log.Printf("❌ [NOTIFY] Failed to load schedules for %s: %v", userID, err)
			continue
		}
		if len(titles) == 0 {
			continue
		}
		if err := s.deliver(ctx, userID, title, BuildChecklistBody(titles)); err != nil {
			log.Printf("❌ [NOTIFY] Delivery failed for %s: %v", userID, err)
		}
	}
	return nil
}

// NotifyDeadlines pushes reminders for schedules whose deadline is tomorrow
// (D-1) or one week out (D-7).
func (s *NotificationService) NotifyDeadlines(ctx context.Context) error {
	now := time.Now()
	targets := []struct {
		day   string
		label string
	}{
		{now.AddDate(0, 0, 1).Format("2006-01-02"), "D-1"},
		{now.AddDate(0, 0, 7).Format("2006-01-02"), "D-7"},
	}

	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		for _, target := range targets {
			titles, err := s.schedules.TitlesWithDeadline(ctx, userID, target.day)
			if err != nil {
				log.Printf("❌ [NOTIFY] Failed to load deadlines for %s: %v", userID, err)
				continue
			}
			if len(titles) == 0 {
				continue
			}
			title := fmt.Sprintf("마감 %s 일정이 있어요", target.label)
			if err := s.deliver(ctx, userID, title, BuildChecklistBody(titles)); err != nil {
				log.Printf("❌ [NOTIFY] Delivery failed for %s: %v", userID, err)
			}
		}
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, userID, title, body string) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token FROM push_subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to load tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	if err := s.sender.Send(ctx, tokens, title, body); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, title, body) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), userID, title, body)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}
