package tools

import (
	"context"
	"errors"
	"fmt"

	"schedulo/internal/models"
	"schedulo/internal/services"
)

// NewCreateScheduleTool creates the create_schedule tool
func NewCreateScheduleTool(schedules *services.ScheduleService) *Tool {
	return &Tool{
		Name:        "create_schedule",
		DisplayName: "Create Schedule",
		Description: "Create a new schedule for the user. Requires title and scheduled_date. " +
			"If the user did not state a date, ask them for one instead of guessing. " +
			"Tag names are created automatically when they do not exist yet.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Schedule title",
				},
				"scheduled_date": map[string]interface{}{
					"type":        "string",
					"description": "Date of the schedule, YYYY-MM-DD",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Optional details, at most 100 characters",
				},
				"tag": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Optional tag names to attach",
				},
				"deadline": map[string]interface{}{
					"type":        "string",
					"description": "Optional deadline date, YYYY-MM-DD",
				},
				"is_completed": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether the schedule is already done. Defaults to false.",
				},
			},
			"required": []string{"title", "scheduled_date"},
		},
		Execute:  makeCreateScheduleExec(schedules),
		Category: "schedules",
		Keywords: []string{"schedule", "create", "add", "todo", "일정", "추가"},
	}
}

func makeCreateScheduleExec(schedules *services.ScheduleService) ExecuteFunc {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		userID, err := userIDArg(args)
		if err != nil {
			return "", err
		}
		title, err := stringArg(args, "title")
		if err != nil {
			return "", err
		}
		date, err := stringArg(args, "scheduled_date")
		if err != nil {
			return "", err
		}
		tags, err := stringSliceArg(args, "tag")
		if err != nil {
			return "", err
		}

		req := models.CreateScheduleRequest{
			Title:         title,
			ScheduledDate: date,
			Content:       optStringArg(args, "content"),
			Tags:          tags,
		}
		if deadline := optStringArg(args, "deadline"); deadline != "" {
			req.Deadline = &deadline
		}
		if completed, ok := optBoolArg(args, "is_completed"); ok {
			req.IsCompleted = completed
		}

		schedule, err := schedules.Create(ctx, userID, req)
		if err != nil {
			return "", err
		}
		return envelope("일정이 추가되었습니다.", schedule), nil
	}
}

// NewListSchedulesTool creates the list_schedules tool
func NewListSchedulesTool(schedules *services.ScheduleService) *Tool {
	return &Tool{
		Name:        "list_schedules",
		DisplayName: "List Schedules",
		Description: "Look up the user's schedules for one date, or for the inclusive range " +
			"[scheduled_date, deadline] when deadline is also given. Optionally filter by tag name. " +
			"Returns null when nothing matches. For requests naming several separate dates, call this " +
			"once per date and merge the results yourself.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"scheduled_date": map[string]interface{}{
					"type":        "string",
					"description": "Date to look up, YYYY-MM-DD",
				},
				"deadline": map[string]interface{}{
					"type":        "string",
					"description": "Optional range end date, YYYY-MM-DD. Widens the lookup to a range.",
				},
				"tag_name": map[string]interface{}{
					"type":        "string",
					"description": "Optional tag name filter",
				},
			},
			"required": []string{"scheduled_date"},
		},
		Execute:  makeListSchedulesExec(schedules),
		Category: "schedules",
		Keywords: []string{"schedule", "list", "lookup", "일정", "조회"},
	}
}

func makeListSchedulesExec(schedules *services.ScheduleService) ExecuteFunc {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		userID, err := userIDArg(args)
		if err != nil {
			return "", err
		}
		date, err := stringArg(args, "scheduled_date")
		if err != nil {
			return "", err
		}

		result, err := schedules.List(ctx, userID, services.ListFilter{
			ScheduledDate: date,
			Deadline:      optStringArg(args, "deadline"),
			TagName:       optStringArg(args, "tag_name"),
		})
		if err != nil {
			return "", err
		}
		if len(result) == 0 {
			return NullResult, nil
		}

		grouped := models.GroupSchedulesByDate(result)
		return envelope(fmt.Sprintf("일정 %d건을 찾았습니다.", len(result)),
			map[string]any{"schedules": grouped}), nil
	}
}

// NewUpdateScheduleTool creates the update_schedule tool
func NewUpdateScheduleTool(schedules *services.ScheduleService) *Tool {
	return &Tool{
		Name:        "update_schedule",
		DisplayName: "Update Schedule",
		Description: "Update fields of one schedule by id. Only supplied fields change. " +
			"The tag list, when supplied, REPLACES the schedule's whole tag set: to add or remove " +
			"a single tag, first read the current tags with list_schedules and pass the full " +
			"desired set here. Find the id with list_schedules first when the user refers to a " +
			"schedule by name.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"schedule_id": map[string]interface{}{
					"type":        "integer",
					"description": "Id of the schedule to update",
				},
				"title":          map[string]interface{}{"type": "string"},
				"content":        map[string]interface{}{"type": "string"},
				"scheduled_date": map[string]interface{}{"type": "string", "description": "YYYY-MM-DD"},
				"deadline":       map[string]interface{}{"type": "string", "description": "YYYY-MM-DD, empty string clears it"},
				"is_completed":   map[string]interface{}{"type": "boolean"},
				"tag": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Full replacement tag set",
				},
			},
			"required": []string{"schedule_id"},
		},
		Execute:  makeUpdateScheduleExec(schedules),
		Category: "schedules",
		Keywords: []string{"schedule", "update", "edit", "complete", "일정", "수정"},
	}
}

func makeUpdateScheduleExec(schedules *services.ScheduleService) ExecuteFunc {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		userID, err := userIDArg(args)
		if err != nil {
			return "", err
		}
		id, err := int64Arg(args, "schedule_id")
		if err != nil {
			return "", err
		}

		var req models.UpdateScheduleRequest
		if v, ok := args["title"].(string); ok {
			req.Title = &v
		}
		if v, ok := args["content"].(string); ok {
			req.Content = &v
		}
		if v, ok := args["scheduled_date"].(string); ok {
			req.ScheduledDate = &v
		}
		if v, ok := args["deadline"].(string); ok {
			req.Deadline = &v
		}
		if v, ok := optBoolArg(args, "is_completed"); ok {
			req.IsCompleted = &v
		}
		if _, ok := args["tag"]; ok {
			tags, err := stringSliceArg(args, "tag")
			if err != nil {
				return "", err
			}
			if tags == nil {
				tags = []string{}
			}
			req.Tags = &tags
		}

		schedule, err := schedules.Update(ctx, userID, id, req)
		if err != nil {
			return "", err
		}
		return envelope("일정이 수정되었습니다.", schedule), nil
	}
}

// NewDeleteScheduleTool creates the delete_schedule tool
func NewDeleteScheduleTool(schedules *services.ScheduleService) *Tool {
	return &Tool{
		Name:        "delete_schedule",
		DisplayName: "Delete Schedule",
		Description: "Delete one schedule by id. Verify the schedule belongs to the user with " +
			"list_schedules before calling this: deletion is unconditional and cannot be undone.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"schedule_id": map[string]interface{}{
					"type":        "integer",
					"description": "Id of the schedule to delete",
				},
			},
			"required": []string{"schedule_id"},
		},
		Execute:  makeDeleteScheduleExec(schedules),
		Category: "schedules",
		Keywords: []string{"schedule", "delete", "remove", "일정", "삭제"},
	}
}

func makeDeleteScheduleExec(schedules *services.ScheduleService) ExecuteFunc {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		if _, err := userIDArg(args); err != nil {
			return "", err
		}
		id, err := int64Arg(args, "schedule_id")
		if err != nil {
			return "", err
		}
		if err := schedules.Delete(ctx, id); err != nil {
			return "", err
		}
		return envelope("일정이 삭제되었습니다.", nil), nil
	}
}

// NewImportSchedulesTool creates the import_schedules tool
func NewImportSchedulesTool(crawler *services.CrawlerService) *Tool {
	return &Tool{
		Name:        "import_schedules",
		DisplayName: "Import Academic Calendar",
		Description: "Start importing the university's academic calendar into the user's schedules. " +
			"The import runs in the background: tell the user it has STARTED, never that it is done, " +
			"and do not try to read the imported data in this same turn.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		},
		Execute:  makeImportExec(crawler, "schedules"),
		Category: "schedules",
		Keywords: []string{"import", "sync", "calendar", "학사일정", "동기화"},
	}
}

func makeImportExec(crawler *services.CrawlerService, kind string) ExecuteFunc {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		userID, err := userIDArg(args)
		if err != nil {
			return "", err
		}

		if kind == "schedules" {
			err = crawler.TriggerScheduleImport(ctx, userID)
		} else {
			err = crawler.TriggerTimetableImport(ctx, userID)
		}
		if errors.Is(err, models.ErrImportPending) {
			return envelope("이미 동기화가 진행 중이에요. 잠시 후에 확인해 주세요.", nil), nil
		}
		if err != nil {
			return "", err
		}
		return envelope("동기화를 시작했어요. 완료까지 몇 분 걸릴 수 있어요.", nil), nil
	}
}
