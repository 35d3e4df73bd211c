package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"schedulo/internal/database"
	"schedulo/internal/models"
)

// TagService owns per-user tags. Colors are assigned at creation from the
// fixed cyclic palette indexed by the user's tag count at that moment.
type TagService struct {
	db *database.DB
}

// NewTagService creates a new tag service
func NewTagService(db *database.DB) *TagService {
	return &TagService{db: db}
}

// GetOrCreate returns the user's tag with the given name, creating it with
// the next palette color when it does not exist yet. Create is idempotent:
// an existing tag is returned unchanged.
func (s *TagService) GetOrCreate(ctx context.Context, userID, name string) (*models.Tag, error) {
	return s.getOrCreateTx(ctx, s.db.DB, userID, name)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *TagService) getOrCreateTx(ctx context.Context, q querier, userID, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name is required: %w", models.ErrValidation)
	}

	var tag models.Tag
	err := q.QueryRowContext(ctx,
		`SELECT id, user_id, name, color FROM tags WHERE user_id = ? AND name = ?`, userID, name).
		Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color)
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up tag: %w", err)
	}

	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	color := models.TagPalette[count%len(models.TagPalette)]

	res, err := q.ExecContext(ctx,
		`INSERT INTO tags (user_id, name, color) VALUES (?, ?, ?)`, userID, name, color)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read tag id: %w", err)
	}

	return &models.Tag{ID: id, UserID: userID, Name: name, Color: color}, nil
}

// List returns all of the user's tags in creation order.
func (s *TagService) List(ctx context.Context, userID string) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, color FROM tags WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Get returns one tag, scoped to the user.
func (s *TagService) Get(ctx context.Context, userID string, id int64) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, color FROM tags WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	return &tag, nil
}

// Rename changes a tag's name, keeping its color. The new name must not
// collide with another of the user's tags.
func (s *TagService) Rename(ctx context.Context, userID string, id int64, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name is required: %w", models.ErrValidation)
	}

	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE user_id = ? AND name = ?`, userID, name).Scan(&existing)
	if err == nil && existing != id {
		return nil, fmt.Errorf("tag %q: %w", name, models.ErrDuplicate)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check tag name: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET name = ? WHERE id = ? AND user_id = ?`, name, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to rename tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("tag %d: %w", id, models.ErrNotFound)
	}

	return s.Get(ctx, userID, id)
}

// Delete removes a tag and its schedule associations.
func (s *TagService) Delete(ctx context.Context, userID string, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tag %d: %w", id, models.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}

	return tx.Commit()
}
