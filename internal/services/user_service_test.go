package services

import (
	"context"
	"errors"
	"testing"

	"schedulo/internal/models"
)

func TestSignupValidation(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.SignupRequest
	}{
		{"missing email", models.SignupRequest{Username: "tester", Password: "password1"}},
		{"missing username", models.SignupRequest{Email: "a@test.dev", Password: "password1"}},
		{"short password", models.SignupRequest{Email: "a@test.dev", Username: "tester", Password: "pw1"}},
		{"no digit", models.SignupRequest{Email: "a@test.dev", Username: "tester", Password: "passwords"}},
		{"no letter", models.SignupRequest{Email: "a@test.dev", Username: "tester", Password: "12345678"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := users.Signup(ctx, tt.req); !errors.Is(err, models.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	createTestUser(t, users, "dup@test.dev")

	_, err := users.Signup(context.Background(), models.SignupRequest{
		Email: "DUP@test.dev", Username: "other", Password: "password1",
	})
	if !errors.Is(err, models.ErrDuplicate) {
		t.Errorf("case-insensitive duplicate email should be rejected, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	got, err := users.Authenticate(ctx, "U@Test.Dev", "password1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated wrong user: %s", got.ID)
	}

	if _, err := users.Authenticate(ctx, "u@test.dev", "wrongpass1"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("wrong password should be unauthorized, got %v", err)
	}
	if _, err := users.Authenticate(ctx, "nobody@test.dev", "password1"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("unknown email should be unauthorized, not not-found, got %v", err)
	}
}

func TestRoutineUpsertAndValidation(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	ctx := context.Background()
	u := createTestUser(t, users, "u@test.dev")

	if _, err := users.GetRoutine(ctx, u.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("routine before upsert should be not-found, got %v", err)
	}

	if err := users.UpsertRoutine(ctx, models.StudyRoutine{
		UserID: u.ID, WeeksBeforeExam: 2, ReviewType: "mon wed",
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Upsert replaces, never duplicates.
	if err := users.UpsertRoutine(ctx, models.StudyRoutine{
		UserID: u.ID, WeeksBeforeExam: 3, ReviewType: models.ReviewTypeSameDay,
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	routine, err := users.GetRoutine(ctx, u.ID)
	if err != nil {
		t.Fatalf("get routine: %v", err)
	}
	if routine.WeeksBeforeExam != 3 || routine.ReviewType != models.ReviewTypeSameDay {
		t.Errorf("routine not replaced: %+v", routine)
	}

	if err := users.UpsertRoutine(ctx, models.StudyRoutine{
		UserID: u.ID, WeeksBeforeExam: 0, ReviewType: models.ReviewTypeSameDay,
	}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("weeks_before_exam 0 should be rejected, got %v", err)
	}
	if err := users.UpsertRoutine(ctx, models.StudyRoutine{
		UserID: u.ID, WeeksBeforeExam: 1, ReviewType: "funday",
	}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("bad weekday code should be rejected, got %v", err)
	}
}
