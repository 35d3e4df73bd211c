package tools

import (
	"context"
	"fmt"

	"schedulo/internal/services"
)

// NewCreateTagTool creates the create_tag tool
func NewCreateTagTool(tags *services.TagService) *Tool {
	return &Tool{
		Name:        "create_tag",
		DisplayName: "Create Tag",
		Description: "Create a tag for the user, or return the existing one when a tag with that " +
			"name already exists. The display color is assigned automatically.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Tag name",
				},
			},
			"required": []string{"name"},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
			userID, err := userIDArg(args)
			if err != nil {
				return "", err
			}
			name, err := stringArg(args, "name")
			if err != nil {
				return "", err
			}
			tag, err := tags.GetOrCreate(ctx, userID, name)
			if err != nil {
				return "", err
			}
			return envelope(fmt.Sprintf("'%s' 태그가 준비되었습니다.", tag.Name), tag), nil
		},
		Category: "tags",
		Keywords: []string{"tag", "create", "label", "태그", "추가"},
	}
}

// NewListTagsTool creates the list_tags tool
func NewListTagsTool(tags *services.TagService) *Tool {
	return &Tool{
		Name:        "list_tags",
		DisplayName: "List Tags",
		Description: "List all of the user's tags with their colors. Returns null when the user " +
			"has no tags yet.",
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
			result, err := tags.List(ctx, userID)
			if err != nil {
				return "", err
			}
			if len(result) == 0 {
				return NullResult, nil
			}
			return envelope(fmt.Sprintf("태그 %d개를 찾았습니다.", len(result)),
				map[string]any{"tags": result}), nil
		},
		Category: "tags",
		Keywords: []string{"tag", "list", "태그", "조회"},
	}
}

// NewUpdateTagTool creates the update_tag tool
func NewUpdateTagTool(tags *services.TagService) *Tool {
	return &Tool{
		Name:        "update_tag",
		DisplayName: "Rename Tag",
		Description: "Rename one of the user's tags by id. The color is kept. Find the id with " +
			"list_tags first when the user refers to the tag by name.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tag_id": map[string]interface{}{
					"type":        "integer",
					"description": "Id of the tag to rename",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "New tag name",
				},
			},
			"required": []string{"tag_id", "name"},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
			userID, err := userIDArg(args)
			if err != nil {
				return "", err
			}
			id, err := int64Arg(args, "tag_id")
			if err != nil {
				return "", err
			}
			name, err := stringArg(args, "name")
			if err != nil {
				return "", err
			}
			tag, err := tags.Rename(ctx, userID, id, name)
			if err != nil {
				return "", err
			}
			return envelope("태그 이름이 변경되었습니다.", tag), nil
		},
		Category: "tags",
		Keywords: []string{"tag", "rename", "update", "태그", "수정"},
	}
}

// NewDeleteTagTool creates the delete_tag tool
func NewDeleteTagTool(tags *services.TagService) *Tool {
	return &Tool{
		Name:        "delete_tag",
		DisplayName: "Delete Tag",
		Description: "Delete one of the user's tags by id. Schedules keep existing; they only " +
			"lose this tag.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tag_id": map[string]interface{}{
					"type":        "integer",
					"description": "Id of the tag to delete",
				},
			},
			"required": []string{"tag_id"},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
			userID, err := userIDArg(args)
			if err != nil {
				return "", err
			}
			id, err := int64Arg(args, "tag_id")
			if err != nil {
				return "", err
			}
			if err := tags.Delete(ctx, userID, id); err != nil {
				return "", err
			}
			return envelope("태그가 삭제되었습니다.", nil), nil
		},
		Category: "tags",
		Keywords: []string{"tag", "delete", "태그", "삭제"},
	}
}
