package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"schedulo/internal/middleware"
	"schedulo/internal/models"
	"schedulo/internal/services"
	"schedulo/pkg/auth"
)

// UserHandler serves signup, login, token refresh, and profile endpoints.
type UserHandler struct {
	jwtAuth *auth.JWTAuth
	users   *services.UserService
}

func NewUserHandler(jwtAuth *auth.JWTAuth, users *services.UserService) *UserHandler {
	return &UserHandler{jwtAuth: jwtAuth, users: users}
}

// AuthResponse is the body for successful signup and login.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// Signup creates a new account and logs it in.
// POST /api/users/signup
func (h *UserHandler) Signup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Valid email address is required"})
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.users.Signup(c.Context(), req)
	if err != nil {
		return serviceError(c, err)
	}

	access, refresh, err := h.jwtAuth.GenerateTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("❌ Failed to generate tokens: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}

	log.Printf("🎉 New account: %s (%s)", user.Email, user.ID)
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *user,
	})
}

// Login verifies credentials and returns a token pair.
// POST /api/users/login
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.users.Authenticate(c.Context(), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		return serviceError(c, err)
	}

	access, refresh, err := h.jwtAuth.GenerateTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("❌ Failed to generate tokens: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}

	return c.JSON(AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *user,
	})
}

// RefreshToken exchanges a refresh token for a new token pair.
// POST /api/users/token/refresh
func (h *UserHandler) RefreshToken(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "refresh_token is required"})
	}

	claims, err := h.jwtAuth.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired refresh token"})
	}

	// The account may have been deleted since the token was issued.
	user, err := h.users.Get(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}

	access, refresh, err := h.jwtAuth.GenerateTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("❌ Failed to generate tokens: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to refresh session"})
	}

	return c.JSON(models.TokenPair{AccessToken: access, RefreshToken: refresh})
}

// Me returns the authenticated user's profile.
// GET /api/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.users.Get(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMe updates the profile. Only the username is mutable.
// PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username is required"})
	}

	userID := middleware.UserID(c)
	if err := h.users.UpdateUsername(c.Context(), userID, strings.TrimSpace(req.Username)); err != nil {
		return serviceError(c, err)
	}

	user, err := h.users.Get(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(user)
}

// GetRoutine returns the user's study routine, or 404 when none is set.
// GET /api/users/me/routine
func (h *UserHandler) GetRoutine(c *fiber.Ctx) error {
	routine, err := h.users.GetRoutine(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(routine)
}

// PutRoutine creates or replaces the user's study routine.
// PUT /api/users/me/routine
func (h *UserHandler) PutRoutine(c *fiber.Ctx) error {
	var req struct {
		WeeksBeforeExam int    `json:"weeks_before_exam"`
		ReviewType      string `json:"review_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	routine := models.StudyRoutine{
		UserID:          middleware.UserID(c),
		WeeksBeforeExam: req.WeeksBeforeExam,
		ReviewType:      req.ReviewType,
	}
	if err := h.users.UpsertRoutine(c.Context(), routine); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(routine)
}

// GetScores returns the user's recent daily scores, newest first.
// GET /api/users/me/scores?limit=30
func (h *UserHandler) GetScores(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 30)
	scores, err := h.users.GetScores(c.Context(), middleware.UserID(c), limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"scores": scores})
}
