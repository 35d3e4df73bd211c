package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"schedulo/internal/models"
)

func scheduleFixture(t *testing.T) (*ScheduleService, *UserService) {
	t.Helper()
	db := newTestDB(t)
	users := NewUserService(db)
	tags := NewTagService(db)
	return NewScheduleService(db, tags), users
}

func strp(s string) *string { return &s }

func TestScheduleCreateValidation(t *testing.T) {
	svc, users := scheduleFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	tests := []struct {
		name string
		req  models.CreateScheduleRequest
	}{
		{"missing title", models.CreateScheduleRequest{ScheduledDate: "2026-03-02"}},
		{"bad date", models.CreateScheduleRequest{Title: "과제", ScheduledDate: "03/02/2026"}},
		{"bad deadline", models.CreateScheduleRequest{Title: "과제", ScheduledDate: "2026-03-02", Deadline: strp("next week")}},
		{"long content", models.CreateScheduleRequest{Title: "과제", ScheduledDate: "2026-03-02", Content: strings.Repeat("a", 101)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, u.ID, tt.req); !errors.Is(err, models.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestScheduleOrderNumPerDate(t *testing.T) {
	svc, users := scheduleFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	first, err := svc.Create(ctx, u.ID, models.CreateScheduleRequest{Title: "a", ScheduledDate: "2026-03-02"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, u.ID, models.CreateScheduleRequest{Title: "b", ScheduledDate: "2026-03-02"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	otherDay, err := svc.Create(ctx, u.ID, models.CreateScheduleRequest{Title: "c", ScheduledDate: "2026-03-03"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.OrderNum != 0 || second.OrderNum != 1 {
		t.Errorf("order within a date should increment: %d, %d", first.OrderNum, second.OrderNum)
	}
	if otherDay.OrderNum != 0 {
		t.Errorf("order should reset per date, got %d", otherDay.OrderNum)
	}
}

func TestScheduleUpdateClearsDeadline(t *testing.T) {
	svc, users := scheduleFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	created, err := svc.Create(ctx, u.ID, models.CreateScheduleRequest{
		Title: "과제", ScheduledDate: "2026-03-02", Deadline: strp("2026-03-09"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Empty string clears; nil leaves alone.
	updated, err := svc.Update(ctx, u.ID, created.ID, models.UpdateScheduleRequest{Deadline: strp("")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Deadline != nil {
		t.Errorf("deadline should be cleared, got %v", *updated.Deadline)
	}

	title := "과제(수정)"
	updated, err = svc.Update(ctx, u.ID, created.ID, models.UpdateScheduleRequest{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Deadline != nil {
		t.Errorf("untouched deadline should stay cleared, got %v", updated.Deadline)
	}
	if updated.Title != title {
		t.Errorf("title = %q, want %q", updated.Title, title)
	}
}

func TestScheduleDeleteOwnedScoping(t *testing.T) {
	svc, users := scheduleFixture(t)
	ctx := context.Background()
	a := createTestUser(t, users, "a@test.dev")
	b := createTestUser(t, users, "b@test.dev")

	created, err := svc.Create(ctx, a.ID, models.CreateScheduleRequest{Title: "과제", ScheduledDate: "2026-03-02"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteOwned(ctx, b.ID, created.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("cross-user delete should be not-found, got %v", err)
	}
	if err := svc.DeleteOwned(ctx, a.ID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, a.ID, created.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("schedule should be gone, got %v", err)
	}
}

func TestScheduleCompletionStats(t *testing.T) {
	svc, users := scheduleFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	for i := 0; i < 3; i++ {
		s, err := svc.Create(ctx, u.ID, models.CreateScheduleRequest{Title: "과제", ScheduledDate: "2026-03-02"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if i == 0 {
			if _, err := svc.ToggleComplete(ctx, u.ID, s.ID); err != nil {
				t.Fatalf("complete: %v", err)
			}
		}
	}

	total, completed, err := svc.CompletionStats(ctx, u.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if total != 3 || completed != 1 {
		t.Errorf("stats = %d/%d, want 3/1", completed, total)
	}

	total, completed, err = svc.CompletionStats(ctx, u.ID, "2026-03-03")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if total != 0 || completed != 0 {
		t.Errorf("empty day should be 0/0, got %d/%d", completed, total)
	}
}

func TestScheduleToggleCompleteFlips(t *testing.T) {
	svc, users := scheduleFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	s, err := svc.Create(ctx, u.ID, models.CreateScheduleRequest{Title: "과제", ScheduledDate: "2026-03-02"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	toggled, err := svc.ToggleComplete(ctx, u.ID, s.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.IsCompleted {
		t.Error("first toggle should complete")
	}
	toggled, err = svc.ToggleComplete(ctx, u.ID, s.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsCompleted {
		t.Error("second toggle should revert")
	}
}
