package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"schedulo/internal/models"
)

type captureSender struct {
	tokens []string
	titles []string
	bodies []string
}

func (c *captureSender) Send(_ context.Context, tokens []string, title, body string) error {
	c.tokens = append([]string{}, tokens...)
	c.titles = append(c.titles, title)
	c.bodies = append(c.bodies, body)
	return nil
}

func notifyFixture(t *testing.T) (*NotificationService, *UserService, *ScheduleService, *captureSender) {
	t.Helper()
	db := newTestDB(t)
	users := NewUserService(db)
	tags := NewTagService(db)
	schedules := NewScheduleService(db, tags)
	sender := &captureSender{}
	return NewNotificationService(db, users, schedules, sender), users, schedules, sender
}

func TestBuildChecklistBody(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		body := BuildChecklistBody([]string{"과제 제출", "복습"})
		want := "☐ 과제 제출\n☐ 복습"
		if body != want {
			t.Errorf("body = %q, want %q", body, want)
		}
	})

	t.Run("caps at ten lines", func(t *testing.T) {
		titles := make([]string, 15)
		for i := range titles {
			titles[i] = "항목"
		}
		body := BuildChecklistBody(titles)
		if got := strings.Count(body, "\n") + 1; got != 10 {
			t.Errorf("expected 10 lines, got %d", got)
		}
	})

	t.Run("caps at character budget", func(t *testing.T) {
		long := strings.Repeat("a", 500)
		body := BuildChecklistBody([]string{long, long, long})
		if len(body) > 900 {
			t.Errorf("body exceeds 900 chars: %d", len(body))
		}
		if !strings.HasPrefix(body, "☐ ") {
			t.Errorf("first line should still fit: %q", body[:20])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if body := BuildChecklistBody(nil); body != "" {
			t.Errorf("expected empty body, got %q", body)
		}
	})
}

func TestSubscribeUnsubscribeRecent(t *testing.T) {
	svc, users, _, _ := notifyFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	sub, err := svc.Subscribe(ctx, u.ID, "device-token-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.ID == "" {
		t.Fatal("subscription should get an id")
	}

	if _, err := svc.Subscribe(ctx, u.ID, "  "); !errors.Is(err, models.ErrValidation) {
		t.Errorf("blank token should be a validation error, got %v", err)
	}

	if err := svc.Unsubscribe(ctx, u.ID, sub.ID); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := svc.Unsubscribe(ctx, u.ID, sub.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("double unsubscribe should be not-found, got %v", err)
	}
}

func TestNotifyTodaySchedules(t *testing.T) {
	svc, users, schedules, sender := notifyFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")
	today := time.Now().Format("2006-01-02")

	if _, err := svc.Subscribe(ctx, u.ID, "token-1"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	done, err := schedules.Create(ctx, u.ID, models.CreateScheduleRequest{Title: "끝낸 일", ScheduledDate: today})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := schedules.ToggleComplete(ctx, u.ID, done.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := schedules.Create(ctx, u.ID, models.CreateScheduleRequest{Title: "남은 일", ScheduledDate: today}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.NotifyTodaySchedules(ctx, "오늘의 일정이에요"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sender.bodies) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sender.bodies))
	}
	if !strings.Contains(sender.bodies[0], "남은 일") {
		t.Errorf("incomplete schedule missing from body: %q", sender.bodies[0])
	}
	if strings.Contains(sender.bodies[0], "끝낸 일") {
		t.Errorf("completed schedule must not be notified: %q", sender.bodies[0])
	}

	// Recorded in history.
	recent, err := svc.Recent(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Title != "오늘의 일정이에요" {
		t.Errorf("notification not recorded: %+v", recent)
	}
}

func TestNotifySkipsUsersWithoutTokens(t *testing.T) {
	svc, users, schedules, sender := notifyFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")
	today := time.Now().Format("2006-01-02")

	if _, err := schedules.Create(ctx, u.ID, models.CreateScheduleRequest{Title: "남은 일", ScheduledDate: today}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.NotifyTodaySchedules(ctx, "title"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.bodies) != 0 {
		t.Errorf("no tokens means no delivery, got %d", len(sender.bodies))
	}
}

func TestNotifyDeadlines(t *testing.T) {
	svc, users, schedules, sender := notifyFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	if _, err := svc.Subscribe(ctx, u.ID, "token-1"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	nextWeek := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	today := time.Now().Format("2006-01-02")

	for _, d := range []string{tomorrow, nextWeek} {
		deadline := d
		if _, err := schedules.Create(ctx, u.ID, models.CreateScheduleRequest{
			Title: "마감 " + d, ScheduledDate: today, Deadline: &deadline,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if err := svc.NotifyDeadlines(ctx); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sender.titles) != 2 {
		t.Fatalf("expected D-1 and D-7 deliveries, got %d", len(sender.titles))
	}
	if sender.titles[0] != "마감 D-1 일정이 있어요" {
		t.Errorf("unexpected D-1 title: %q", sender.titles[0])
	}
	if sender.titles[1] != "마감 D-7 일정이 있어요" {
		t.Errorf("unexpected D-7 title: %q", sender.titles[1])
	}
}
