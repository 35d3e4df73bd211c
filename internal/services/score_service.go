package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"schedulo/internal/database"
)

// ScoreService computes and stores daily study scores.
//
// Scoring: start from yesterday's score (or 100 for a first entry). With
// yesterday's completion ratio r: r < 0.6 loses 5 points, r < 0.8 gains 5,
// otherwise gains 10. Having at least 5 schedules that day adds 3 more, and
// at least 10 adds a further 5 on top. Scores never drop below zero. After
// all users are scored, each user's percentile rank for the day is stored.
type ScoreService struct {
	db        *database.DB
	users     *UserService
	schedules *ScheduleService
}

// NewScoreService creates a new score service
func NewScoreService(db *database.DB, users *UserService, schedules *ScheduleService) *ScoreService {
	return &ScoreService{db: db, users: users, schedules: schedules}
}

// CalculateDaily scores every user for the given day based on the previous
// day's completion, then recomputes percentile ranks.
func (s *ScoreService) CalculateDaily(ctx context.Context, day time.Time) error {
	today := day.Format("2006-01-02")
	yesterday := day.AddDate(0, 0, -1).Format("2006-01-02")

	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		if err := s.scoreUser(ctx, userID, today, yesterday); err != nil {
			log.Printf("❌ [SCORE] Failed to score user %s: %v", userID, err)
		}
	}

	if err := s.updatePercentiles(ctx, today); err != nil {
		return err
	}

	log.Printf("🏆 [SCORE] Scored %d users for %s", len(userIDs), today)
	return nil
}

func (s *ScoreService) scoreUser(ctx context.Context, userID, today, yesterday string) error {
	prev, highest, err := s.latestBefore(ctx, userID, today)
	if err != nil {
		return err
	}

	total, completed, err := s.schedules.CompletionStats(ctx, userID, yesterday)
	if err != nil {
		return err
	}

	score := prev
	if total > 0 {
		ratio := float64(completed) / float64(total)
		switch {
		case ratio < 0.6:
			score -= 5
		case ratio < 0.8:
			score += 5
		default:
			score += 10
		}
		// The count bonuses stack: a 10-schedule day earns both.
		if total >= 5 {
			score += 3
		}
		if total >= 10 {
			score += 5
		}
	}
	if score < 0 {
		score = 0
	}
	if score > highest {
		highest = score
	}

	// Upsert the day's row so reruns are idempotent.
	res, err := s.db.ExecContext(ctx,
		`UPDATE scores SET score = ?, highest = ? WHERE user_id = ? AND day = ?`,
		score, highest, userID, today)
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO scores (user_id, day, score, highest, percent) VALUES (?, ?, ?, ?, 0)`,
			userID, today, score, highest)
		if err != nil {
			return fmt.Errorf("failed to insert score: %w", err)
		}
	}
	return nil
}

// latestBefore returns the most recent score strictly before day, defaulting
// to 100/100 when the user has no history yet.
func (s *ScoreService) latestBefore(ctx context.Context, userID, day string) (score, highest int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT score, highest FROM scores WHERE user_id = ? AND day < ?
		 ORDER BY day DESC LIMIT 1`, userID, day).Scan(&score, &highest)
	if errors.Is(err, sql.ErrNoRows) {
		return 100, 100, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load previous score: %w", err)
	}
	return score, highest, nil
}

// updatePercentiles stores, for each user scored on day, the share of users
// with a strictly higher score (so 0 = best).
func (s *ScoreService) updatePercentiles(ctx context.Context, day string) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, score FROM scores WHERE day = ? ORDER BY score DESC`, day)
	if err != nil {
		return fmt.Errorf("failed to load day scores: %w", err)
	}
	defer rows.Close()

	type entry struct {
		userID string
		score  int
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.userID, &e.score); err != nil {
			return err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	for i, e := range entries {
		// Users with equal scores share the better rank.
		rank := i
		for rank > 0 && entries[rank-1].score == e.score {
			rank--
		}
		percent := float64(rank) / float64(len(entries)) * 100

		if _, err := s.db.ExecContext(ctx,
			`UPDATE scores SET percent = ? WHERE user_id = ? AND day = ?`,
			percent, e.userID, day); err != nil {
			return fmt.Errorf("failed to update percentile: %w", err)
		}
	}
	return nil
}
