package tools

import (
	"context"
	"errors"
	"fmt"

	"schedulo/internal/models"
	"schedulo/internal/services"
)

// NewGetUserInfoTool creates the get_user_info tool
func NewGetUserInfoTool(users *services.UserService) *Tool {
	return &Tool{
		Name:        "get_user_info",
		DisplayName: "Get User Info",
		Description: "Look up the user's profile: username and email. Read-only.",
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
			user, err := users.Get(ctx, userID)
			if err != nil {
				return "", err
			}
			return envelope("회원 정보를 불러왔습니다.", map[string]any{
				"username": user.Username,
				"email":    user.Email,
			}), nil
		},
		Category: "user",
		Keywords: []string{"user", "profile", "account", "회원", "정보"},
	}
}

// NewGetUserStudyRoutineTool creates the get_user_study_routine tool
func NewGetUserStudyRoutineTool(users *services.UserService) *Tool {
	return &Tool{
		Name:        "get_user_study_routine",
		DisplayName: "Get Study Routine",
		Description: "Look up the user's review routine settings: how many weeks before exams " +
			"reviews start and on which days reviews are generated (SAMEDAY means the same day " +
			"as each class). Returns null when no routine is configured.",
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
			routine, err := users.GetRoutine(ctx, userID)
			if errors.Is(err, models.ErrNotFound) {
				return NullResult, nil
			}
			if err != nil {
				return "", err
			}
			return envelope("학습 루틴 설정을 불러왔습니다.", routine), nil
		},
		Category: "user",
		Keywords: []string{"routine", "review", "study", "루틴", "복습"},
	}
}

// NewGetUserScoreTool creates the get_user_score tool
func NewGetUserScoreTool(users *services.UserService) *Tool {
	return &Tool{
		Name:        "get_user_score",
		DisplayName: "Get Study Score",
		Description: "Look up the user's daily study score history, most recent first. The first " +
			"entry is the current score. Returns null when no scores exist yet.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "How many days of history to return. Defaults to 7.",
				},
			},
			"required": []string{},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
			userID, err := userIDArg(args)
			if err != nil {
				return "", err
			}
			limit := 7
			if n, err := int64Arg(args, "limit"); err == nil && n > 0 {
				limit = int(n)
			}
			scores, err := users.GetScores(ctx, userID, limit)
			if err != nil {
				return "", err
			}
			if len(scores) == 0 {
				return NullResult, nil
			}
			return envelope(fmt.Sprintf("최근 %d일의 점수를 불러왔습니다.", len(scores)),
				map[string]any{"scores": scores}), nil
		},
		Category: "user",
		Keywords: []string{"score", "rank", "점수", "랭킹"},
	}
}
