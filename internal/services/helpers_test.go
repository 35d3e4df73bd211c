package services

import (
	"context"
	"testing"

	"schedulo/internal/database"
	"schedulo/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New("sqlite://:memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, users *UserService, email string) *models.User {
	t.Helper()
	user, err := users.Signup(context.Background(), models.SignupRequest{
		Email:    email,
		Username: "tester",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return user
}
