package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"schedulo/internal/models"
)

// RoutineService turns each user's study routine into concrete review
// schedules for the current week.
type RoutineService struct {
	users      *UserService
	schedules  *ScheduleService
	timetables *TimetableService
}

// NewRoutineService creates a new routine service
func NewRoutineService(users *UserService, schedules *ScheduleService, timetables *TimetableService) *RoutineService {
	return &RoutineService{users: users, schedules: schedules, timetables: timetables}
}

// reviewTitle is the generated schedule title for a subject review.
func reviewTitle(subject string) string {
	return subject + " 복습"
}

// GenerateWeeklyReviews creates review schedules for the week containing
// ref, for every user that has a study routine. Existing schedules with the
// same title and date are left alone, so reruns are safe.
func (s *RoutineService) GenerateWeeklyReviews(ctx context.Context, ref time.Time) error {
	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		return err
	}

	generated := 0
	for _, userID := range userIDs {
		n, err := s.generateForUser(ctx, userID, ref)
		if err != nil {
			log.Printf("❌ [ROUTINE] Review generation failed for user %s: %v", userID, err)
			continue
		}
		generated += n
	}

	log.Printf("📚 [ROUTINE] Generated %d review schedules for week of %s", generated, ref.Format("2006-01-02"))
	return nil
}

func (s *RoutineService) generateForUser(ctx context.Context, userID string, ref time.Time) (int, error) {
	routine, err := s.users.GetRoutine(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		// No routine configured means nothing to generate.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	entries, err := s.timetables.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if routine.ReviewType == models.ReviewTypeSameDay {
		return s.generateSameDay(ctx, userID, entries, ref)
	}
	return s.generateOnDays(ctx, userID, entries, strings.Fields(routine.ReviewType), ref)
}

// generateSameDay creates one review per timetable entry, on the entry's own
// weekday in the current week.
func (s *RoutineService) generateSameDay(ctx context.Context, userID string, entries []models.TimeTable, ref time.Time) (int, error) {
	created := 0
	seen := make(map[string]bool) // subject+date, a subject can have several slots on one day

	for _, e := range entries {
		date, ok := dateForWeekday(ref, e.DayOfWeek)
		if !ok {
			continue
		}
		key := e.Subject + "|" + date
		if seen[key] {
			continue
		}
		seen[key] = true

		n, err := s.createReview(ctx, userID, e.Subject, date)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

// generateOnDays distributes the user's distinct subjects across the listed
// weekdays: each day gets an even base share, the first days absorb the
// remainder. Subject order is shuffled so the same subjects do not always
// land on the same days.
func (s *RoutineService) generateOnDays(ctx context.Context, userID string, entries []models.TimeTable, dayCodes []string, ref time.Time) (int, error) {
	var subjects []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.Subject] {
			seen[e.Subject] = true
			subjects = append(subjects, e.Subject)
		}
	}
	if len(subjects) == 0 || len(dayCodes) == 0 {
		return 0, nil
	}

	rand.Shuffle(len(subjects), func(i, j int) {
		subjects[i], subjects[j] = subjects[j], subjects[i]
	})

	base := len(subjects) / len(dayCodes)
	extra := len(subjects) % len(dayCodes)

	created := 0
	next := 0
	for i, code := range dayCodes {
		count := base
		if i < extra {
			count++
		}
		date, ok := dateForWeekday(ref, code)
		if !ok {
			next += count
			continue
		}
		for j := 0; j < count && next < len(subjects); j++ {
			n, err := s.createReview(ctx, userID, subjects[next], date)
			if err != nil {
				return created, err
			}
			created += n
			next++
		}
	}
	return created, nil
}

func (s *RoutineService) createReview(ctx context.Context, userID, subject, date string) (int, error) {
	title := reviewTitle(subject)

	exists, err := s.schedules.ExistsByTitleAndDate(ctx, userID, title, date)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	_, err = s.schedules.Create(ctx, userID, models.CreateScheduleRequest{
		Title:         title,
		ScheduledDate: date,
		Tags:          []string{"복습"},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create review schedule: %w", err)
	}
	return 1, nil
}

// dateForWeekday returns the ISO date of the given weekday code within the
// Monday-through-Sunday week containing ref. The weekly job fires early on
// Monday, so sun must resolve to the upcoming Sunday, never the day before
// the run.
func dateForWeekday(ref time.Time, code string) (string, bool) {
	col, ok := models.DayMap[strings.ToLower(code)]
	if !ok {
		return "", false
	}
	// time.Weekday: Sunday=0; DayMap: sun=1, mon=2 .. sat=7.
	monday := ref.AddDate(0, 0, -((int(ref.Weekday()) + 6) % 7))
	target := monday.AddDate(0, 0, (col+5)%7)
	return target.Format("2006-01-02"), true
}
