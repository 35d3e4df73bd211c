package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"schedulo/internal/models"
)

func routineFixture(t *testing.T) (*RoutineService, *UserService, *ScheduleService, *TimetableService) {
	t.Helper()
	db := newTestDB(t)
	users := NewUserService(db)
	tags := NewTagService(db)
	schedules := NewScheduleService(db, tags)
	timetables := NewTimetableService(db)
	return NewRoutineService(users, schedules, timetables), users, schedules, timetables
}

// refWednesday is a Wednesday; its Monday-through-Sunday week runs
// 2026-03-02 .. 2026-03-08.
var refWednesday = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func listWeek(t *testing.T, schedules *ScheduleService, userID string) []models.Schedule {
	t.Helper()
	result, err := schedules.List(context.Background(), userID, ListFilter{
		ScheduledDate: "2026-03-01",
		Deadline:      "2026-03-07",
	})
	if err != nil {
		t.Fatalf("list week: %v", err)
	}
	return result
}

func TestGenerateSameDayReviews(t *testing.T) {
	svc, users, schedules, timetables := routineFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	if err := users.UpsertRoutine(ctx, models.StudyRoutine{
		UserID: u.ID, WeeksBeforeExam: 1, ReviewType: models.ReviewTypeSameDay,
	}); err != nil {
		t.Fatalf("upsert routine: %v", err)
	}

	// Two slots of the same subject on Monday plus one other subject on
	// Thursday: three slots, two reviews.
	for _, e := range []models.TimeTable{
		{UserID: u.ID, Subject: "자료구조", DayOfWeek: "mon", StartTime: "09:00", EndTime: "10:00"},
		{UserID: u.ID, Subject: "자료구조", DayOfWeek: "mon", StartTime: "14:00", EndTime: "15:00"},
		{UserID: u.ID, Subject: "운영체제", DayOfWeek: "thu", StartTime: "12:00", EndTime: "15:00"},
	} {
		if _, err := timetables.Create(ctx, e); err != nil {
			t.Fatalf("create timetable: %v", err)
		}
	}

	if err := svc.GenerateWeeklyReviews(ctx, refWednesday); err != nil {
		t.Fatalf("generate: %v", err)
	}

	got := listWeek(t, schedules, u.ID)
	if len(got) != 2 {
		t.Fatalf("expected 2 reviews, got %d: %+v", len(got), got)
	}

	byTitle := map[string]models.Schedule{}
	for _, s := range got {
		byTitle[s.Title] = s
	}
	ds, ok := byTitle["자료구조 복습"]
	if !ok || ds.ScheduledDate != "2026-03-02" {
		t.Errorf("자료구조 review should land on Monday 2026-03-02: %+v", ds)
	}
	os, ok := byTitle["운영체제 복습"]
	if !ok || os.ScheduledDate != "2026-03-05" {
		t.Errorf("운영체제 review should land on Thursday 2026-03-05: %+v", os)
	}
	if len(ds.Tags) != 1 || ds.Tags[0] != "복습" {
		t.Errorf("reviews should carry the 복습 tag, got %v", ds.Tags)
	}
}

func TestGenerateSundayReviewLandsAhead(t *testing.T) {
	svc, users, schedules, timetables := routineFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	if err := users.UpsertRoutine(ctx, models.StudyRoutine{
		UserID: u.ID, WeeksBeforeExam: 1, ReviewType: models.ReviewTypeSameDay,
	}); err != nil {
		t.Fatalf("upsert routine: %v", err)
	}
	if _, err := timetables.Create(ctx, models.TimeTable{
		UserID: u.ID, Subject: "선형대수", DayOfWeek: "sun", StartTime: "10:00", EndTime: "12:00",
	}); err != nil {
		t.Fatalf("create timetable: %v", err)
	}

	// The weekly job fires early Monday morning, so the Sunday review must
	// land on the upcoming Sunday, not the day before the run.
	refMonday := time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC)
	if err := svc.GenerateWeeklyReviews(ctx, refMonday); err != nil {
		t.Fatalf("generate: %v", err)
	}

	got, err := schedules.List(ctx, u.ID, ListFilter{
		ScheduledDate: "2026-03-01",
		Deadline:      "2026-03-08",
	})
	if err != nil {
		t.Fatalf("list week: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 review, got %d: %+v", len(got), got)
	}
	if got[0].ScheduledDate != "2026-03-08" {
		t.Errorf("sun review should land on the upcoming Sunday 2026-03-08, got %s", got[0].ScheduledDate)
	}
}

func TestGenerateReviewsIsIdempotent(t *testing.T) {
	svc, users, schedules, timetables := routineFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	if err := users.UpsertRoutine(ctx, models.StudyRoutine{
		UserID: u.ID, WeeksBeforeExam: 1, ReviewType: models.ReviewTypeSameDay,
	}); err != nil {
		t.Fatalf("upsert routine: %v", err)
	}
	if _, err := timetables.Create(ctx, models.TimeTable{
		UserID: u.ID, Subject: "자료구조", DayOfWeek: "mon", StartTime: "09:00", EndTime: "10:00",
	}); err != nil {
		t.Fatalf("create timetable: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := svc.GenerateWeeklyReviews(ctx, refWednesday); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if got := listWeek(t, schedules, u.ID); len(got) != 1 {
		t.Fatalf("reruns must not duplicate reviews, got %d", len(got))
	}
}

func TestGenerateOnDaysDistributesSubjects(t *testing.T) {
	svc, users, schedules, timetables := routineFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	// Review on Tuesday and Friday.
	if err := users.UpsertRoutine(ctx, models.StudyRoutine{
		UserID: u.ID, WeeksBeforeExam: 2, ReviewType: "tue fri",
	}); err != nil {
		t.Fatalf("upsert routine: %v", err)
	}

	subjects := []string{"자료구조", "운영체제", "알고리즘"}
	for i, subject := range subjects {
		if _, err := timetables.Create(ctx, models.TimeTable{
			UserID: u.ID, Subject: subject, DayOfWeek: "mon",
			StartTime: time.Date(0, 1, 1, 9+2*i, 0, 0, 0, time.UTC).Format("15:04"),
			EndTime:   time.Date(0, 1, 1, 10+2*i, 0, 0, 0, time.UTC).Format("15:04"),
		}); err != nil {
			t.Fatalf("create timetable: %v", err)
		}
	}

	if err := svc.GenerateWeeklyReviews(ctx, refWednesday); err != nil {
		t.Fatalf("generate: %v", err)
	}

	got := listWeek(t, schedules, u.ID)
	if len(got) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(got))
	}

	// 3 subjects over 2 days: the first day absorbs the remainder.
	byDate := map[string]int{}
	for _, s := range got {
		if !strings.HasSuffix(s.Title, " 복습") {
			t.Errorf("unexpected title %q", s.Title)
		}
		byDate[s.ScheduledDate]++
	}
	if byDate["2026-03-03"] != 2 { // Tuesday
		t.Errorf("Tuesday should get 2 reviews, got %d", byDate["2026-03-03"])
	}
	if byDate["2026-03-06"] != 1 { // Friday
		t.Errorf("Friday should get 1 review, got %d", byDate["2026-03-06"])
	}
}

func TestGenerateSkipsUsersWithoutRoutine(t *testing.T) {
	svc, users, schedules, timetables := routineFixture(t)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	if _, err := timetables.Create(ctx, models.TimeTable{
		UserID: u.ID, Subject: "자료구조", DayOfWeek: "mon", StartTime: "09:00", EndTime: "10:00",
	}); err != nil {
		t.Fatalf("create timetable: %v", err)
	}

	if err := svc.GenerateWeeklyReviews(ctx, refWednesday); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := listWeek(t, schedules, u.ID); len(got) != 0 {
		t.Fatalf("no routine means no reviews, got %d", len(got))
	}
}
