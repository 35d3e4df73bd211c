package models

import (
	"fmt"
	"strconv"
	"strings"
)

// DayMap maps weekday codes to the column numbers the frontend grid uses.
// Sunday is column 1, Saturday column 7.
var DayMap = map[string]int{
	"sun": 1,
	"mon": 2,
	"tue": 3,
	"wed": 4,
	"thu": 5,
	"fri": 6,
	"sat": 7,
}

// TimetablePalette is the fixed 5-color palette for timetable rendering.
// Colors are Tailwind utility class triples consumed verbatim by the frontend.
var TimetablePalette = []string{
	"bg-[#E6FEFF] border-[#24B0C9] text-[#24B0C9]",
	"bg-[#FFBABE] border-[#FF3C6A] text-[#FF3C6A]",
	"bg-[#FFDDBA] border-[#FF7A3C] text-[#FF7A3C]",
	"bg-[#FFE7BA] border-[#D78D03] text-[#D78D03]",
	"bg-[#E9EFFF] border-[#5272E9] text-[#5272E9]",
}

// TimeTable is one fixed weekly class slot.
type TimeTable struct {
	ID        int64  `json:"id"`
	UserID    string `json:"-"`
	Subject   string `json:"subject"`
	DayOfWeek string `json:"day_of_week"` // sun..sat
	StartTime string `json:"start_time"`  // HH:MM or HH:MM:SS
	EndTime   string `json:"end_time"`
}

// RenderedTimetable is the renderer-ready shape of a timetable entry.
type RenderedTimetable struct {
	Name      string  `json:"name"`
	Col       int     `json:"col"`
	StartHour float64 `json:"start_hour"`
	EndHour   float64 `json:"end_hour"`
	Color     string  `json:"color"`
}

// ValidDay reports whether code is one of the seven weekday codes.
func ValidDay(code string) bool {
	_, ok := DayMap[strings.ToLower(code)]
	return ok
}

// TimeToHours converts "HH:MM" or "HH:MM:SS" to fractional hours
// (e.g. "12:30:00" -> 12.5). Seconds are ignored.
func TimeToHours(t string) (float64, error) {
	parts := strings.Split(t, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time %q: %w", t, ErrValidation)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q: %w", t, ErrValidation)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q: %w", t, ErrValidation)
	}
	return float64(hour) + float64(minute)/60, nil
}

// TransformTimetables maps entries to the grid shape the renderer consumes.
// Colors are assigned per distinct subject in first-seen order, cycling
// through TimetablePalette. The mapping is stable within one call but is
// not persisted.
func TransformTimetables(entries []TimeTable) ([]RenderedTimetable, error) {
	colorBySubject := make(map[string]string)
	result := make([]RenderedTimetable, 0, len(entries))

	for _, e := range entries {
		col, ok := DayMap[strings.ToLower(e.DayOfWeek)]
		if !ok {
			return nil, fmt.Errorf("invalid day_of_week %q: %w", e.DayOfWeek, ErrValidation)
		}
		start, err := TimeToHours(e.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := TimeToHours(e.EndTime)
		if err != nil {
			return nil, err
		}
		color, ok := colorBySubject[e.Subject]
		if !ok {
			color = TimetablePalette[len(colorBySubject)%len(TimetablePalette)]
			colorBySubject[e.Subject] = color
		}
		result = append(result, RenderedTimetable{
			Name:      e.Subject,
			Col:       col,
			StartHour: start,
			EndHour:   end,
			Color:     color,
		})
	}
	return result, nil
}

// Overlaps reports whether two slots on the same weekday share any time.
// Touching boundaries (a ends exactly when b starts) do not overlap.
func Overlaps(a, b TimeTable) bool {
	if !strings.EqualFold(a.DayOfWeek, b.DayOfWeek) {
		return false
	}
	aStart, err1 := TimeToHours(a.StartTime)
	aEnd, err2 := TimeToHours(a.EndTime)
	bStart, err3 := TimeToHours(b.StartTime)
	bEnd, err4 := TimeToHours(b.EndTime)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}
