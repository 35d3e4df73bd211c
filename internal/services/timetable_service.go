package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"schedulo/internal/database"
	"schedulo/internal/models"
)

// TimetableService owns weekly class slots. Overlap checking is enforced
// here, on both create and update.
type TimetableService struct {
	db *database.DB
}

// NewTimetableService creates a new timetable service
func NewTimetableService(db *database.DB) *TimetableService {
	return &TimetableService{db: db}
}

// Create inserts a slot after validating fields and rejecting any time
// overlap with the user's existing slots on the same weekday.
func (s *TimetableService) Create(ctx context.Context, entry models.TimeTable) (*models.TimeTable, error) {
	if err := s.validate(entry); err != nil {
		return nil, err
	}

	if err := s.checkOverlap(ctx, entry, 0); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO timetables (user_id, subject, day_of_week, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.Subject, strings.ToLower(entry.DayOfWeek), entry.StartTime, entry.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to insert timetable: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read timetable id: %w", err)
	}

	entry.ID = id
	entry.DayOfWeek = strings.ToLower(entry.DayOfWeek)
	return &entry, nil
}

// List returns the user's raw timetable entries ordered by weekday column
// and start time.
func (s *TimetableService) List(ctx context.Context, userID string) ([]models.TimeTable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, subject, day_of_week, start_time, end_time
		 FROM timetables WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timetables: %w", err)
	}
	defer rows.Close()

	var entries []models.TimeTable
	for rows.Next() {
		var e models.TimeTable
		if err := rows.Scan(&e.ID, &e.UserID, &e.Subject, &e.DayOfWeek, &e.StartTime, &e.EndTime); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListRendered returns the renderer-ready transform of the user's entries.
func (s *TimetableService) ListRendered(ctx context.Context, userID string) ([]models.RenderedTimetable, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.TransformTimetables(entries)
}

// Get returns one entry, scoped to the user.
func (s *TimetableService) Get(ctx context.Context, userID string, id int64) (*models.TimeTable, error) {
	var e models.TimeTable
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, subject, day_of_week, start_time, end_time
		 FROM timetables WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&e.ID, &e.UserID, &e.Subject, &e.DayOfWeek, &e.StartTime, &e.EndTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("timetable %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load timetable: %w", err)
	}
	return &e, nil
}

// Update replaces a slot's fields, re-checking overlap against all other
// slots of the same user.
func (s *TimetableService) Update(ctx context.Context, userID string, id int64, entry models.TimeTable) (*models.TimeTable, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	entry.UserID = userID
	if err := s.validate(entry); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, entry, id); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE timetables SET subject = ?, day_of_week = ?, start_time = ?, end_time = ?
		 WHERE id = ? AND user_id = ?`,
		entry.Subject, strings.ToLower(entry.DayOfWeek), entry.StartTime, entry.EndTime, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update timetable: %w", err)
	}

	return s.Get(ctx, userID, id)
}

// Delete removes a slot, scoped to the user.
func (s *TimetableService) Delete(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM timetables WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete timetable: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("timetable %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// ExportXLSX builds a weekly grid workbook of the user's timetable.
// Rows are hours 08:00-22:00, columns Sunday through Saturday.
func (s *TimetableService) ExportXLSX(ctx context.Context, userID string) ([]byte, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Timetable"
	f.SetSheetName("Sheet1", sheet)

	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	for i, day := range days {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		f.SetCellValue(sheet, cell, day)
	}

	const firstHour, lastHour = 8, 22
	for h := firstHour; h <= lastHour; h++ {
		cell, _ := excelize.CoordinatesToCellName(1, h-firstHour+2)
		f.SetCellValue(sheet, cell, fmt.Sprintf("%02d:00", h))
	}

	for _, e := range entries {
		col, ok := models.DayMap[strings.ToLower(e.DayOfWeek)]
		if !ok {
			continue
		}
		start, err1 := models.TimeToHours(e.StartTime)
		end, err2 := models.TimeToHours(e.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		for h := int(start); h < int(end+0.999) && h <= lastHour; h++ {
			if h < firstHour {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, h-firstHour+2)
			f.SetCellValue(sheet, cell, e.Subject)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *TimetableService) validate(entry models.TimeTable) error {
	if strings.TrimSpace(entry.Subject) == "" {
		return fmt.Errorf("subject is required: %w", models.ErrValidation)
	}
	if !models.ValidDay(entry.DayOfWeek) {
		return fmt.Errorf("day_of_week %q must be one of sun..sat: %w", entry.DayOfWeek, models.ErrValidation)
	}
	start, err := models.TimeToHours(entry.StartTime)
	if err != nil {
		return err
	}
	end, err := models.TimeToHours(entry.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("end_time must be after start_time: %w", models.ErrValidation)
	}
	return nil
}

// checkOverlap rejects entry when it overlaps any of the user's slots other
// than excludeID.
func (s *TimetableService) checkOverlap(ctx context.Context, entry models.TimeTable, excludeID int64) error {
	existing, err := s.List(ctx, entry.UserID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == excludeID {
			continue
		}
		if models.Overlaps(entry, other) {
			return fmt.Errorf("%q (%s %s-%s) conflicts with %q (%s-%s): %w",
				entry.Subject, entry.DayOfWeek, entry.StartTime, entry.EndTime,
				other.Subject, other.StartTime, other.EndTime, models.ErrOverlap)
		}
	}
	return nil
}
