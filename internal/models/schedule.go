package models

import "time"

// TagPalette is the fixed cyclic palette for tag colors. A new tag gets
// TagPalette[count(user's tags) % len(TagPalette)] at creation time.
var TagPalette = []string{
	"#FFB3BA",
	"#FFDFBA",
	"#FFFFBA",
	"#BAFFC9",
	"#BAE1FF",
	"#D5BAFF",
	"#FFBAF2",
	"#BAFFF4",
}

// Tag is a per-user schedule label. Names are unique per user.
type Tag struct {
	ID     int64  `json:"id"`
	UserID string `json:"-"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// Schedule is a single todo/plan item. Tags holds the resolved tag names
// (not IDs), matching what the assistant and the list endpoints expose.
type Schedule struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"-"`
	Title         string    `json:"title"`
	Content       string    `json:"content,omitempty"`
	ScheduledDate string    `json:"scheduled_date"` // YYYY-MM-DD
	Deadline      *string   `json:"deadline"`       // YYYY-MM-DD or null
	IsCompleted   bool      `json:"is_completed"`
	OrderNum      int       `json:"order_num"`
	Tags          []string  `json:"tag"`
	CreatedAt     time.Time `json:"-"`
}

// GroupedSchedule is one schedule inside a grouped-by-date mapping. The date
// itself is the map key, so it is dropped from the entry.
type GroupedSchedule struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content,omitempty"`
	Deadline    *string  `json:"deadline"`
	IsCompleted bool     `json:"is_completed"`
	Tags        []string `json:"tag"`
}

// GroupSchedulesByDate buckets schedules under their ISO date string.
// Input order is preserved within each bucket.
func GroupSchedulesByDate(schedules []Schedule) map[string][]GroupedSchedule {
	grouped := make(map[string][]GroupedSchedule)
	for _, s := range schedules {
		grouped[s.ScheduledDate] = append(grouped[s.ScheduledDate], GroupedSchedule{
			ID:          s.ID,
			Title:       s.Title,
			Content:     s.Content,
			Deadline:    s.Deadline,
			IsCompleted: s.IsCompleted,
			Tags:        s.Tags,
		})
	}
	return grouped
}

// CreateScheduleRequest is the payload for POST /api/schedules and for the
// create_schedule tool.
type CreateScheduleRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	ScheduledDate string   `json:"scheduled_date"`
	Deadline      *string  `json:"deadline"`
	IsCompleted   bool     `json:"is_completed"`
	Tags          []string `json:"tag"`
}

// UpdateScheduleRequest carries a partial update. Nil fields are left
// untouched; a non-nil Tags replaces the full tag set.
type UpdateScheduleRequest struct {
	Title         *string   `json:"title"`
	Content       *string   `json:"content"`
	ScheduledDate *string   `json:"scheduled_date"`
	Deadline      *string   `json:"deadline"`
	IsCompleted   *bool     `json:"is_completed"`
	Tags          *[]string `json:"tag"`
}
