package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"schedulo/internal/database"
	"schedulo/internal/models"
	"schedulo/pkg/auth"
)

// UserService owns accounts, study routines and score history.
type UserService struct {
	db *database.DB
}

// NewUserService creates a new user service
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// Signup creates a new account with a hashed password.
func (s *UserService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Username == "" {
		return nil, fmt.Errorf("email and username are required: %w", models.ErrValidation)
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%v: %w", err, models.ErrValidation)
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("email %s: %w", email, models.ErrDuplicate)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Username: req.Username,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.Username, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("👤 [USER] Created account %s (%s)", user.Username, user.ID)
	return user, nil
}

// Authenticate verifies credentials and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user models.User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Email, &user.Username, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := auth.VerifyPassword(hash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, models.ErrUnauthorized
	}

	return &user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, username FROM users WHERE id = ?`, userID).
		Scan(&user.ID, &user.Email, &user.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UpdateUsername changes the display name.
func (s *UserService) UpdateUsername(ctx context.Context, userID, username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required: %w", models.ErrValidation)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET username = ? WHERE id = ?`, username, userID)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	return nil
}

// ListIDs returns the ids of all accounts. Used by the background jobs.
func (s *UserService) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetRoutine returns the user's study routine settings.
func (s *UserService) GetRoutine(ctx context.Context, userID string) (*models.StudyRoutine, error) {
	var r models.StudyRoutine
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, weeks_before_exam, review_type FROM study_routines WHERE user_id = ?`, userID).
		Scan(&r.UserID, &r.WeeksBeforeExam, &r.ReviewType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("study routine for user %s: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load study routine: %w", err)
	}
	return &r, nil
}

// UpsertRoutine creates or replaces the user's study routine.
// ReviewType is either SAMEDAY or a whitespace-separated weekday code set.
func (s *UserService) UpsertRoutine(ctx context.Context, routine models.StudyRoutine) error {
	if routine.WeeksBeforeExam < 1 {
		return fmt.Errorf("weeks_before_exam must be >= 1: %w", models.ErrValidation)
	}
	if routine.ReviewType != models.ReviewTypeSameDay {
		for _, code := range strings.Fields(routine.ReviewType) {
			if !models.ValidDay(code) {
				return fmt.Errorf("invalid weekday code %q: %w", code, models.ErrValidation)
			}
		}
		if len(strings.Fields(routine.ReviewType)) == 0 {
			return fmt.Errorf("review_type is required: %w", models.ErrValidation)
		}
	}

	// Portable upsert: try update, insert when nothing matched.
	res, err := s.db.ExecContext(ctx,
		`UPDATE study_routines SET weeks_before_exam = ?, review_type = ? WHERE user_id = ?`,
		routine.WeeksBeforeExam, routine.ReviewType, routine.UserID)
	if err != nil {
		return fmt.Errorf("failed to update study routine: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO study_routines (user_id, weeks_before_exam, review_type) VALUES (?, ?, ?)`,
			routine.UserID, routine.WeeksBeforeExam, routine.ReviewType)
		if err != nil {
			return fmt.Errorf("failed to insert study routine: %w", err)
		}
	}
	return nil
}

// GetScores returns the user's score history, most recent first.
func (s *UserService) GetScores(ctx context.Context, userID string, limit int) ([]models.Score, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, day, score, highest, percent FROM scores
		 WHERE user_id = ? ORDER BY day DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	defer rows.Close()

	var scores []models.Score
	for rows.Next() {
		var sc models.Score
		if err := rows.Scan(&sc.UserID, &sc.Day, &sc.Score, &sc.Highest, &sc.Percent); err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}
