package tools

import (
	"context"
	"fmt"

	"schedulo/internal/models"
	"schedulo/internal/services"
)

// NewCreateTimetableTool creates the create_timetable tool
func NewCreateTimetableTool(timetables *services.TimetableService) *Tool {
	return &Tool{
		Name:        "create_timetable",
		DisplayName: "Create Timetable Entry",
		Description: "Add a weekly class slot. All fields are required; ask the user for any " +
			"missing one instead of guessing. Creation fails with an explanation when the slot " +
			"overlaps an existing class on the same weekday.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"subject": map[string]interface{}{
					"type":        "string",
					"description": "Course or subject name",
				},
				"day_of_week": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"},
					"description": "Weekday code",
				},
				"start_time": map[string]interface{}{
					"type":        "string",
					"description": "Start time, HH:MM (24h)",
				},
				"end_time": map[string]interface{}{
					"type":        "string",
					"description": "End time, HH:MM (24h)",
				},
			},
			"required": []string{"subject", "day_of_week", "start_time", "end_time"},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
			userID, err := userIDArg(args)
			if err != nil {
				return "", err
			}
			subject, err := stringArg(args, "subject")
			if err != nil {
				return "", err
			}
			day, err := stringArg(args, "day_of_week")
			if err != nil {
				return "", err
			}
			start, err := stringArg(args, "start_time")
			if err != nil {
				return "", err
			}
			end, err := stringArg(args, "end_time")
			if err != nil {
				return "", err
			}

			entry, err := timetables.Create(ctx, models.TimeTable{
				UserID:    userID,
				Subject:   subject,
				DayOfWeek: day,
				StartTime: start,
				EndTime:   end,
			})
			if err != nil {
				return "", err
			}
			return envelope("시간표에 수업이 추가되었습니다.", entry), nil
		},
		Category: "timetables",
		Keywords: []string{"timetable", "class", "create", "시간표", "수업", "추가"},
	}
}

// NewListTimetableTool creates the list_timetable tool
func NewListTimetableTool(timetables *services.TimetableService) *Tool {
	return &Tool{
		Name:        "list_timetable",
		DisplayName: "List Timetable",
		Description: "List all of the user's weekly class slots with id, subject, weekday code " +
			"and start/end time. Returns null when the timetable is empty.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
			userID, err := userIDArg(args)
			if err != nil {
				return "", err
			}
			entries, err := timetables.List(ctx, userID)
			if err != nil {
				return "", err
			}
			if len(entries) == 0 {
				return NullResult, nil
			}
			return envelope(fmt.Sprintf("시간표에서 수업 %d개를 찾았습니다.", len(entries)),
				map[string]any{"timetables": entries}), nil
		},
		Category: "timetables",
		Keywords: []string{"timetable", "list", "시간표", "조회"},
	}
}

// NewUpdateTimetableTool creates the update_timetable tool
func NewUpdateTimetableTool(timetables *services.TimetableService) *Tool {
	return &Tool{
		Name:        "update_timetable",
		DisplayName: "Update Timetable Entry",
		Description: "Replace one weekly class slot by id. All fields must be supplied; read the " +
			"current values with list_timetable first and pass unchanged fields back. The updated " +
			"slot must not overlap another class.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"timetable_id": map[string]interface{}{
					"type":        "integer",
					"description": "Id of the slot to update",
				},
				"subject": map[string]interface{}{"type": "string"},
				"day_of_week": map[string]interface{}{
					"type": "string",
					"enum": []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"},
				},
				"start_time": map[string]interface{}{"type": "string", "description": "HH:MM (24h)"},
				"end_time":   map[string]interface{}{"type": "string", "description": "HH:MM (24h)"},
			},
			"required": []string{"timetable_id", "subject", "day_of_week", "start_time", "end_time"},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
			userID, err := userIDArg(args)
			if err != nil {
				return "", err
			}
			id, err := int64Arg(args, "timetable_id")
			if err != nil {
				return "", err
			}
			subject, err := stringArg(args, "subject")
			if err != nil {
				return "", err
			}
			day, err := stringArg(args, "day_of_week")
			if err != nil {
				return "", err
			}
			start, err := stringArg(args, "start_time")
			if err != nil {
				return "", err
			}
			end, err := stringArg(args, "end_time")
			if err != nil {
				return "", err
			}

			entry, err := timetables.Update(ctx, userID, id, models.TimeTable{
				Subject:   subject,
				DayOfWeek: day,
				StartTime: start,
				EndTime:   end,
			})
			if err != nil {
				return "", err
			}
			return envelope("시간표가 수정되었습니다.", entry), nil
		},
		Category: "timetables",
		Keywords: []string{"timetable", "update", "시간표", "수정"},
	}
}

// NewDeleteTimetableTool creates the delete_timetable tool
func NewDeleteTimetableTool(timetables *services.TimetableService) *Tool {
	return &Tool{
		Name:        "delete_timetable",
		DisplayName: "Delete Timetable Entry",
		Description: "Delete one weekly class slot by id. Find the id with list_timetable first " +
			"when the user refers to the class by subject.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"timetable_id": map[string]interface{}{
					"type":        "integer",
					"description": "Id of the slot to delete",
				},
			},
			"required": []string{"timetable_id"},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
			userID, err := userIDArg(args)
			if err != nil {
				return "", err
			}
			id, err := int64Arg(args, "timetable_id")
			if err != nil {
				return "", err
			}
			if err := timetables.Delete(ctx, userID, id); err != nil {
				return "", err
			}
			return envelope("수업이 시간표에서 삭제되었습니다.", nil), nil
		},
		Category: "timetables",
		Keywords: []string{"timetable", "delete", "시간표", "삭제"},
	}
}

// NewImportTimetableTool creates the import_timetable tool
func NewImportTimetableTool(crawler *services.CrawlerService) *Tool {
	return &Tool{
		Name:        "import_timetable",
		DisplayName: "Import Course Timetable",
		Description: "Start importing the user's enrolled-course timetable from the university " +
			"portal. The import runs in the background: tell the user it has STARTED, never that " +
			"it is done, and do not try to read the imported data in this same turn.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		},
		Execute:  makeImportExec(crawler, "timetables"),
		Category: "timetables",
		Keywords: []string{"import", "sync", "timetable", "시간표", "동기화"},
	}
}
