package models

import "time"

// User represents an account in the local auth store.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Review type values for StudyRoutine.ReviewType. Anything other than
// ReviewTypeSameDay is interpreted as a whitespace-separated set of weekday
// codes (e.g. "mon wed fri").
const ReviewTypeSameDay = "SAMEDAY"

// StudyRoutine is a per-user setting that drives automated review-schedule
// generation.
type StudyRoutine struct {
	UserID          string `json:"user_id"`
	WeeksBeforeExam int    `json:"weeks_before_exam"`
	ReviewType      string `json:"review_type"`
}

// Score is one user's daily study score. Percent is the user's rank among
// all users that day, as a percentile (lower is better).
type Score struct {
	UserID  string  `json:"user_id"`
	Day     string  `json:"day"` // YYYY-MM-DD
	Score   int     `json:"score"`
	Highest int     `json:"highest_score"`
	Percent float64 `json:"percent"`
}

// SignupRequest is the payload for POST /api/users/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is returned by login and token refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
