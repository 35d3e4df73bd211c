package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"schedulo/internal/database"
	"schedulo/internal/models"
)

// ScheduleService owns schedules and their tag associations. Multi-step
// writes (schedule + tags) run inside one transaction so a failure leaves
// no orphaned rows.
type ScheduleService struct {
	db   *database.DB
	tags *TagService
}

// NewScheduleService creates a new schedule service
func NewScheduleService(db *database.DB, tags *TagService) *ScheduleService {
	return &ScheduleService{db: db, tags: tags}
}

// ValidDate reports whether s is an ISO YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Create inserts a schedule and attaches its tags atomically. Tag names are
// resolved create-or-fetch per user; new tags get the next palette color.
func (s *ScheduleService) Create(ctx context.Context, userID string, req models.CreateScheduleRequest) (*models.Schedule, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", models.ErrValidation)
	}
	if !ValidDate(req.ScheduledDate) {
		return nil, fmt.Errorf("scheduled_date %q is not YYYY-MM-DD: %w", req.ScheduledDate, models.ErrValidation)
	}
	if req.Deadline != nil && !ValidDate(*req.Deadline) {
		return nil, fmt.Errorf("deadline %q is not YYYY-MM-DD: %w", *req.Deadline, models.ErrValidation)
	}
	if len(req.Content) > 100 {
		return nil, fmt.Errorf("content exceeds 100 characters: %w", models.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var orderNum int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schedules WHERE user_id = ? AND scheduled_date = ?`,
		userID, req.ScheduledDate).Scan(&orderNum); err != nil {
		return nil, fmt.Errorf("failed to count schedules: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO schedules (user_id, title, content, scheduled_date, deadline, is_completed, order_num)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, req.Title, req.Content, req.ScheduledDate, req.Deadline, req.IsCompleted, orderNum)
	if err != nil {
		return nil, fmt.Errorf("failed to insert schedule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule id: %w", err)
	}

	tagNames := make([]string, 0, len(req.Tags))
	for _, name := range req.Tags {
		tag, err := s.tags.getOrCreateTx(ctx, tx, userID, name)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_tags (schedule_id, tag_id) VALUES (?, ?)`, id, tag.ID); err != nil {
			return nil, fmt.Errorf("failed to attach tag: %w", err)
		}
		tagNames = append(tagNames, tag.Name)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit schedule: %w", err)
	}

	log.Printf("🗓️  [SCHEDULE] Created #%d %q for %s on %s", id, req.Title, userID, req.ScheduledDate)

	return &models.Schedule{
		ID:            id,
		UserID:        userID,
		Title:         req.Title,
		Content:       req.Content,
		ScheduledDate: req.ScheduledDate,
		Deadline:      req.Deadline,
		IsCompleted:   req.IsCompleted,
		OrderNum:      orderNum,
		Tags:          tagNames,
	}, nil
}

// ListFilter narrows List results. ScheduledDate is an exact match unless
// Deadline is also set, which widens it to the inclusive range
// [ScheduledDate, Deadline]. TagName filters to schedules carrying the tag.
type ListFilter struct {
	ScheduledDate string
	Deadline      string
	TagName       string
}

// List returns the user's schedules matching the filter, ordered by date and
// order_num. An empty ScheduledDate lists everything.
func (s *ScheduleService) List(ctx context.Context, userID string, filter ListFilter) ([]models.Schedule, error) {
	query := `SELECT DISTINCT s.id, s.user_id, s.title, s.content, s.scheduled_date, s.deadline, s.is_completed, s.order_num
		FROM schedules s`
	args := []any{}

	if filter.TagName != "" {
		query += ` JOIN schedule_tags st ON st.schedule_id = s.id
			JOIN tags t ON t.id = st.tag_id AND t.name = ?`
		args = append(args, filter.TagName)
	}

	query += ` WHERE s.user_id = ?`
	args = append(args, userID)

	switch {
	case filter.ScheduledDate != "" && filter.Deadline != "":
		if !ValidDate(filter.ScheduledDate) || !ValidDate(filter.Deadline) {
			return nil, fmt.Errorf("dates must be YYYY-MM-DD: %w", models.ErrValidation)
		}
		query += ` AND s.scheduled_date >= ? AND s.scheduled_date <= ?`
		args = append(args, filter.ScheduledDate, filter.Deadline)
	case filter.ScheduledDate != "":
		if !ValidDate(filter.ScheduledDate) {
			return nil, fmt.Errorf("scheduled_date %q is not YYYY-MM-DD: %w", filter.ScheduledDate, models.ErrValidation)
		}
		query += ` AND s.scheduled_date = ?`
		args = append(args, filter.ScheduledDate)
	}

	query += ` ORDER BY s.scheduled_date, s.order_num, s.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var sc models.Schedule
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.Title, &sc.Content, &sc.ScheduledDate,
			&sc.Deadline, &sc.IsCompleted, &sc.OrderNum); err != nil {
			return nil, err
		}
		schedules = append(schedules, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range schedules {
		tags, err := s.tagNames(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		schedules[i].Tags = tags
	}

	return schedules, nil
}

// Get returns one schedule with its tag names, scoped to the user.
func (s *ScheduleService) Get(ctx context.Context, userID string, id int64) (*models.Schedule, error) {
	var sc models.Schedule
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, content, scheduled_date, deadline, is_completed, order_num
		 FROM schedules WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&sc.ID, &sc.UserID, &sc.Title, &sc.Content, &sc.ScheduledDate,
			&sc.Deadline, &sc.IsCompleted, &sc.OrderNum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	sc.Tags, err = s.tagNames(ctx, sc.ID)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// Update applies a partial update, verifying ownership first. A supplied tag
// list replaces the full tag set; callers wanting add/remove must read the
// current set and pass the desired result.
func (s *ScheduleService) Update(ctx context.Context, userID string, id int64, req models.UpdateScheduleRequest) (*models.Schedule, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", models.ErrValidation)
		}
		current.Title = *req.Title
	}
	if req.Content != nil {
		if len(*req.Content) > 100 {
			return nil, fmt.Errorf("content exceeds 100 characters: %w", models.ErrValidation)
		}
		current.Content = *req.Content
	}
	if req.ScheduledDate != nil {
		if !ValidDate(*req.ScheduledDate) {
			return nil, fmt.Errorf("scheduled_date %q is not YYYY-MM-DD: %w", *req.ScheduledDate, models.ErrValidation)
		}
		current.ScheduledDate = *req.ScheduledDate
	}
	if req.Deadline != nil {
		if *req.Deadline != "" && !ValidDate(*req.Deadline) {
			return nil, fmt.Errorf("deadline %q is not YYYY-MM-DD: %w", *req.Deadline, models.ErrValidation)
		}
		if *req.Deadline == "" {
			current.Deadline = nil
		} else {
			current.Deadline = req.Deadline
		}
	}
	if req.IsCompleted != nil {
		current.IsCompleted = *req.IsCompleted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE schedules SET title = ?, content = ?, scheduled_date = ?, deadline = ?, is_completed = ?
		 WHERE id = ? AND user_id = ?`,
		current.Title, current.Content, current.ScheduledDate, current.Deadline, current.IsCompleted, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	if req.Tags != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_tags WHERE schedule_id = ?`, id); err != nil {
			return nil, fmt.Errorf("failed to clear tags: %w", err)
		}
		names := make([]string, 0, len(*req.Tags))
		for _, name := range *req.Tags {
			tag, err := s.tags.getOrCreateTx(ctx, tx, userID, name)
			if err != nil {
				return nil, err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schedule_tags (schedule_id, tag_id) VALUES (?, ?)`, id, tag.ID); err != nil {
				return nil, fmt.Errorf("failed to attach tag: %w", err)
			}
			names = append(names, tag.Name)
		}
		current.Tags = names
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	return current, nil
}

// Delete removes a schedule by id without an ownership check. Callers that
// act on behalf of a user must verify ownership through a prior read; the
// REST layer uses DeleteOwned instead.
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("schedule %d: %w", id, models.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_tags WHERE schedule_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach tags: %w", err)
	}

	return tx.Commit()
}

// DeleteOwned removes a schedule only when it belongs to the user.
func (s *ScheduleService) DeleteOwned(ctx context.Context, userID string, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.Delete(ctx, id)
}

// ToggleComplete flips the completion flag.
func (s *ScheduleService) ToggleComplete(ctx context.Context, userID string, id int64) (*models.Schedule, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	completed := !current.IsCompleted
	return s.Update(ctx, userID, id, models.UpdateScheduleRequest{IsCompleted: &completed})
}

// CompletionStats returns how many schedules the user had on a day and how
// many of them are completed. Used by the daily score job.
func (s *ScheduleService) CompletionStats(ctx context.Context, userID, day string) (total, completed int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0)
		 FROM schedules WHERE user_id = ? AND scheduled_date = ?`, userID, day).
		Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load completion stats: %w", err)
	}
	return total, completed, nil
}

// ExistsByTitleAndDate reports whether the user already has a schedule with
// this exact title on this date. Used to deduplicate generated reviews.
func (s *ScheduleService) ExistsByTitleAndDate(ctx context.Context, userID, title, date string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schedules WHERE user_id = ? AND title = ? AND scheduled_date = ?`,
		userID, title, date).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	return count > 0, nil
}

// IncompleteTitles returns titles of the user's incomplete schedules on a
// day, in display order. Used by the notification jobs.
func (s *ScheduleService) IncompleteTitles(ctx context.Context, userID, day string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title FROM schedules
		 WHERE user_id = ? AND scheduled_date = ? AND is_completed = ?
		 ORDER BY order_num, id`, userID, day, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load incomplete schedules: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// TitlesWithDeadline returns titles of schedules whose deadline equals day.
func (s *ScheduleService) TitlesWithDeadline(ctx context.Context, userID, day string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title FROM schedules WHERE user_id = ? AND deadline = ? ORDER BY order_num, id`,
		userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load deadline schedules: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

func (s *ScheduleService) tagNames(ctx context.Context, scheduleID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name FROM tags t
		 JOIN schedule_tags st ON st.tag_id = t.id
		 WHERE st.schedule_id = ? ORDER BY t.id`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tag names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
