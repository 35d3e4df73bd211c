package services

import (
	"context"
	"testing"
	"time"

	"schedulo/internal/models"
)

func scoreFixture(t *testing.T) (*ScoreService, *UserService, *ScheduleService) {
	t.Helper()
	db := newTestDB(t)
	users := NewUserService(db)
	tags := NewTagService(db)
	schedules := NewScheduleService(db, tags)
	return NewScoreService(db, users, schedules), users, schedules
}

func mustParseDay(t *testing.T, day string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatalf("parse %s: %v", day, err)
	}
	return d
}

func addSchedules(t *testing.T, schedules *ScheduleService, userID, date string, total, completed int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < total; i++ {
		s, err := schedules.Create(ctx, userID, models.CreateScheduleRequest{
			Title:         "항목",
			ScheduledDate: date,
		})
		if err != nil {
			t.Fatalf("create schedule: %v", err)
		}
		if i < completed {
			if _, err := schedules.ToggleComplete(ctx, userID, s.ID); err != nil {
				t.Fatalf("complete schedule: %v", err)
			}
		}
	}
}

func userScore(t *testing.T, svc *ScoreService, users *UserService, userID, day string) models.Score {
	t.Helper()
	scores, err := users.GetScores(context.Background(), userID, 50)
	if err != nil {
		t.Fatalf("get scores: %v", err)
	}
	for _, s := range scores {
		if s.Day == day {
			return s
		}
	}
	t.Fatalf("no score for %s on %s", userID, day)
	return models.Score{}
}

func TestScoreFirstDayWithoutSchedules(t *testing.T) {
	svc, users, _ := scoreFixture(t)
	u := createTestUser(t, users, "a@test.dev")

	if err := svc.CalculateDaily(context.Background(), mustParseDay(t, "2026-03-03")); err != nil {
		t.Fatalf("calculate: %v", err)
	}

	got := userScore(t, svc, users, u.ID, "2026-03-03")
	if got.Score != 100 || got.Highest != 100 {
		t.Errorf("first day without activity should keep 100/100, got %d/%d", got.Score, got.Highest)
	}
}

func TestScoreCompletionRatioRules(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		completed int
		want      int // starting from 100
	}{
		{"low ratio loses 5", 4, 1, 95},        // 0.25
		{"mid ratio gains 5", 4, 3, 105},       // 0.75
		{"high ratio gains 10", 4, 4, 110},     // 1.0
		{"five schedules bonus", 5, 5, 113},    // +10 +3
		{"ten schedules bonus", 10, 10, 118},   // +10 +3 +5, the bonuses stack
		{"busy day low ratio", 10, 2, 103},     // -5 +3 +5
		{"exactly 0.6 is mid", 5, 3, 108},      // 0.6 -> +5, +3
		{"exactly 0.8 is high", 5, 4, 113},     // 0.8 -> +10, +3
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, schedules := scoreFixture(t)
			u := createTestUser(t, users, "u@test.dev")
			addSchedules(t, schedules, u.ID, "2026-03-02", tt.total, tt.completed)

			if err := svc.CalculateDaily(context.Background(), mustParseDay(t, "2026-03-03")); err != nil {
				t.Fatalf("calculate: %v", err)
			}

			got := userScore(t, svc, users, u.ID, "2026-03-03")
			if got.Score != tt.want {
				t.Errorf("score = %d, want %d", got.Score, tt.want)
			}
		})
	}
}

func TestScoreNeverBelowZeroAndTracksHighest(t *testing.T) {
	svc, users, schedules := scoreFixture(t)
	u := createTestUser(t, users, "u@test.dev")

	// Seed a low previous score with a high-water mark.
	db := svc.db
	if _, err := db.Exec(
		`INSERT INTO scores (user_id, day, score, highest, percent) VALUES (?, ?, 3, 120, 0)`,
		u.ID, "2026-03-02"); err != nil {
		t.Fatalf("seed score: %v", err)
	}

	addSchedules(t, schedules, u.ID, "2026-03-02", 4, 0) // ratio 0 -> -5

	if err := svc.CalculateDaily(context.Background(), mustParseDay(t, "2026-03-03")); err != nil {
		t.Fatalf("calculate: %v", err)
	}

	got := userScore(t, svc, users, u.ID, "2026-03-03")
	if got.Score != 0 {
		t.Errorf("score should clamp at 0, got %d", got.Score)
	}
	if got.Highest != 120 {
		t.Errorf("highest must never shrink, got %d", got.Highest)
	}
}

func TestScoreIdempotentRerun(t *testing.T) {
	svc, users, schedules := scoreFixture(t)
	u := createTestUser(t, users, "u@test.dev")
	addSchedules(t, schedules, u.ID, "2026-03-02", 4, 4)

	day := mustParseDay(t, "2026-03-03")
	for i := 0; i < 3; i++ {
		if err := svc.CalculateDaily(context.Background(), day); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	got := userScore(t, svc, users, u.ID, "2026-03-03")
	if got.Score != 110 {
		t.Errorf("reruns must not compound: score = %d, want 110", got.Score)
	}
}

func TestScorePercentiles(t *testing.T) {
	svc, users, schedules := scoreFixture(t)
	best := createTestUser(t, users, "best@test.dev")
	mid := createTestUser(t, users, "mid@test.dev")
	worst := createTestUser(t, users, "worst@test.dev")

	addSchedules(t, schedules, best.ID, "2026-03-02", 4, 4)  // 110
	addSchedules(t, schedules, mid.ID, "2026-03-02", 4, 3)   // 105
	addSchedules(t, schedules, worst.ID, "2026-03-02", 4, 0) // 95

	if err := svc.CalculateDaily(context.Background(), mustParseDay(t, "2026-03-03")); err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if p := userScore(t, svc, users, best.ID, "2026-03-03").Percent; p != 0 {
		t.Errorf("best user percentile = %v, want 0", p)
	}
	wantMid := 1.0 / 3.0 * 100
	if p := userScore(t, svc, users, mid.ID, "2026-03-03").Percent; p < wantMid-0.01 || p > wantMid+0.01 {
		t.Errorf("mid user percentile = %v, want ~%v", p, wantMid)
	}
	wantWorst := 2.0 / 3.0 * 100
	if p := userScore(t, svc, users, worst.ID, "2026-03-03").Percent; p < wantWorst-0.01 || p > wantWorst+0.01 {
		t.Errorf("worst user percentile = %v, want ~%v", p, wantWorst)
	}
}

func TestScorePercentileTiesShareRank(t *testing.T) {
	svc, users, schedules := scoreFixture(t)
	a := createTestUser(t, users, "a@test.dev")
	b := createTestUser(t, users, "b@test.dev")

	addSchedules(t, schedules, a.ID, "2026-03-02", 4, 4)
	addSchedules(t, schedules, b.ID, "2026-03-02", 4, 4)

	if err := svc.CalculateDaily(context.Background(), mustParseDay(t, "2026-03-03")); err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if p := userScore(t, svc, users, a.ID, "2026-03-03").Percent; p != 0 {
		t.Errorf("tied user a percentile = %v, want 0", p)
	}
	if p := userScore(t, svc, users, b.ID, "2026-03-03").Percent; p != 0 {
		t.Errorf("tied user b percentile = %v, want 0", p)
	}
}
