package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"schedulo/internal/models"
)

// importPendingTTL is how long an import is considered in-flight before a
// user may trigger another one.
const importPendingTTL = 10 * time.Minute

// CrawlerService triggers the external university-portal crawler. Imports
// are asynchronous: the crawler writes results back through the public API
// on its own schedule, so callers only ever get an acknowledgment.
type CrawlerService struct {
	baseURL string
	client  *http.Client
	redis   *RedisService
	logger  *logrus.Logger
}

// NewCrawlerService creates a new crawler client. baseURL may be empty, in
// which case imports are reported as unavailable. redis may be nil; the
// pending-import guard is then skipped.
func NewCrawlerService(baseURL string, redis *RedisService) *CrawlerService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &CrawlerService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		redis:   redis,
		logger:  logger,
	}
}

// Enabled reports whether a crawler endpoint is configured.
func (s *CrawlerService) Enabled() bool {
	return s.baseURL != ""
}

// TriggerScheduleImport starts an asynchronous academic-calendar import for
// the user. Returns models.ErrImportPending when one is already running.
func (s *CrawlerService) TriggerScheduleImport(ctx context.Context, userID string) error {
	return s.trigger(ctx, userID, "schedules")
}

// TriggerTimetableImport starts an asynchronous course-timetable import.
func (s *CrawlerService) TriggerTimetableImport(ctx context.Context, userID string) error {
	return s.trigger(ctx, userID, "timetables")
}

func (s *CrawlerService) trigger(ctx context.Context, userID, kind string) error {
	if !s.Enabled() {
		return fmt.Errorf("crawler is not configured: %w", models.ErrValidation)
	}

	if s.redis != nil {
		key := fmt.Sprintf("import:pending:%s:%s", kind, userID)
		acquired, err := s.redis.SetNX(ctx, key, time.Now().Unix(), importPendingTTL)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"kind":    kind,
				"error":   err.Error(),
			}).Warn("pending-import check failed, continuing without guard")
		} else if !acquired {
			return models.ErrImportPending
		}
	}

	url := fmt.Sprintf("%s/crawl/%s/%s", s.baseURL, kind, userID)

	// Fire-and-forget: the request itself is detached from the caller's
	// lifecycle so a finished chat turn does not cancel the crawl trigger.
	go func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, nil)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "kind": kind, "error": err.Error()}).
				Error("failed to build crawl request")
			return
		}

		resp, err := s.client.Do(req)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "kind": kind, "error": err.Error()}).
				Error("crawl trigger failed")
			return
		}
		defer resp.Body.Close()

		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"kind":    kind,
			"status":  resp.StatusCode,
		}).Info("crawl triggered")
	}()

	return nil
}
