package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"schedulo/internal/models"
	"schedulo/internal/services"
	"schedulo/internal/templates"
)

// Reshaper is an optional LLM escape hatch: when envelope data does not fit
// the expected template shape, it may rewrite the data into canonical form.
// Rendering works without one; failures then just skip the visual output.
type Reshaper interface {
	Reshape(ctx context.Context, query, templateName string, data map[string]any) (map[string]any, error)
}

// RenderAgent turns an envelope's data into template HTML. It is
// deterministic: the same envelope always produces the same markup. Any
// failure is logged and swallowed; the text message alone still reaches
// the user.
type RenderAgent struct {
	metrics  *services.Metrics
	reshaper Reshaper
}

func NewRenderAgent(metrics *services.Metrics, reshaper Reshaper) *RenderAgent {
	return &RenderAgent{metrics: metrics, reshaper: reshaper}
}

// Render produces the template HTML for the envelope, or nil when the data
// cannot be rendered.
func (a *RenderAgent) Render(ctx context.Context, query string, env models.Envelope) *string {
	html, err := a.render(env)
	if err != nil && a.reshaper != nil {
		slog.Warn("render failed, asking model to reshape data", "template", env.TemplateName, "error", err)
		reshaped, rerr := a.reshaper.Reshape(ctx, query, env.TemplateName, env.Data)
		if rerr == nil && reshaped != nil {
			retry := env
			retry.Data = reshaped
			html, err = a.render(retry)
		}
	}

	if err != nil {
		slog.Warn("render failed, returning text only", "template", env.TemplateName, "error", err)
		if a.metrics != nil {
			a.metrics.RecordRender(env.TemplateName, "error")
		}
		return nil
	}

	if a.metrics != nil {
		a.metrics.RecordRender(env.TemplateName, "ok")
	}
	return &html
}

func (a *RenderAgent) render(env models.Envelope) (string, error) {
	msgHTML := templates.MarkdownHTML(env.Message)

	switch env.TemplateName {
	case models.TemplateScheduleList:
		groups, err := decodeScheduleGroups(env.Data)
		if err != nil {
			return "", err
		}
		return templates.Render(env.TemplateName, templates.ScheduleListContext{
			MessageHTML: msgHTML,
			Dates:       groups,
		})

	case models.TemplateTagList:
		tags, err := buildTagGroups(env.Data)
		if err != nil {
			return "", err
		}
		return templates.Render(env.TemplateName, templates.TagListContext{
			MessageHTML: msgHTML,
			Tags:        tags,
		})

	case models.TemplateTimetableList:
		entries, err := decodeTimetableEntries(env.Data)
		if err != nil {
			return "", err
		}
		return templates.Render(env.TemplateName, templates.TimetableListContext{
			MessageHTML: msgHTML,
			Entries:     entries,
		})
	}

	return "", fmt.Errorf("unknown template %q", env.TemplateName)
}

// scheduleItemWire is the schedule shape tools put in envelope data.
type scheduleItemWire struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Deadline    *string  `json:"deadline"`
	IsCompleted bool     `json:"is_completed"`
	Tags        []string `json:"tag"`
}

func (w scheduleItemWire) item() templates.ScheduleItem {
	deadline := ""
	if w.Deadline != nil {
		deadline = *w.Deadline
	}
	return templates.ScheduleItem{
		Title:       w.Title,
		Content:     w.Content,
		Deadline:    deadline,
		IsCompleted: w.IsCompleted,
		Tags:        w.Tags,
	}
}

type tagWire struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// reencode round-trips an any-typed value into a concrete wire struct.
func reencode(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// decodeScheduleGroups expects data["schedules"] grouped by date and returns
// date groups in ascending date order.
func decodeScheduleGroups(data map[string]any) ([]templates.DateGroup, error) {
	raw, ok := data["schedules"]
	if !ok {
		return nil, fmt.Errorf("missing schedules key")
	}

	var byDate map[string][]scheduleItemWire
	if err := reencode(raw, &byDate); err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}
	if len(byDate) == 0 {
		return nil, fmt.Errorf("empty schedules")
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	groups := make([]templates.DateGroup, 0, len(dates))
	for _, d := range dates {
		items := make([]templates.ScheduleItem, 0, len(byDate[d]))
		for _, w := range byDate[d] {
			items = append(items, w.item())
		}
		groups = append(groups, templates.DateGroup{Date: d, Items: items})
	}
	return groups, nil
}

// buildTagGroups inverts date-grouped schedules into tag-grouped ones. Tag
// colors come from data["tags"] when the model fetched them; otherwise tags
// get palette colors in first-seen order.
func buildTagGroups(data map[string]any) ([]templates.TagGroup, error) {
	groups, err := decodeScheduleGroups(data)
	if err != nil {
		return nil, err
	}

	colorByName := make(map[string]string)
	var order []string
	if rawTags, ok := data["tags"]; ok {
		var known []tagWire
		if err := reencode(rawTags, &known); err == nil {
			for _, t := range known {
				if _, seen := colorByName[t.Name]; !seen && t.Name != "" {
					colorByName[t.Name] = t.Color
					order = append(order, t.Name)
				}
			}
		}
	}

	byTag := make(map[string][]templates.ScheduleItem)
	for _, g := range groups {
		for _, item := range g.Items {
			for _, name := range item.Tags {
				if _, seen := colorByName[name]; !seen {
					colorByName[name] = models.TagPalette[len(order)%len(models.TagPalette)]
					order = append(order, name)
				}
				byTag[name] = append(byTag[name], item)
			}
		}
	}
	if len(byTag) == 0 {
		return nil, fmt.Errorf("no tagged schedules to group")
	}

	result := make([]templates.TagGroup, 0, len(order))
	for _, name := range order {
		items, ok := byTag[name]
		if !ok {
			continue // known tag with no schedules in this data
		}
		result = append(result, templates.TagGroup{
			Name:      name,
			Color:     colorByName[name],
			Schedules: items,
		})
	}
	return result, nil
}

// decodeTimetableEntries accepts either raw timetable rows ({subject,
// day_of_week, start_time, end_time}) or already-transformed grid entries
// ({name, col, start_hour, end_hour, color}) under data["timetables"].
func decodeTimetableEntries(data map[string]any) ([]templates.TimetableEntry, error) {
	raw, ok := data["timetables"]
	if !ok {
		return nil, fmt.Errorf("missing timetables key")
	}

	var rows []models.TimeTable
	if err := reencode(raw, &rows); err == nil && len(rows) > 0 && rows[0].Subject != "" {
		rendered, err := models.TransformTimetables(rows)
		if err != nil {
			return nil, err
		}
		return toTemplateEntries(rendered), nil
	}

	var rendered []models.RenderedTimetable
	if err := reencode(raw, &rendered); err != nil {
		return nil, fmt.Errorf("decode timetables: %w", err)
	}
	if len(rendered) == 0 || rendered[0].Name == "" {
		return nil, fmt.Errorf("empty or malformed timetables")
	}
	return toTemplateEntries(rendered), nil
}

func toTemplateEntries(rendered []models.RenderedTimetable) []templates.TimetableEntry {
	entries := make([]templates.TimetableEntry, 0, len(rendered))
	for _, r := range rendered {
		entries = append(entries, templates.TimetableEntry{
			Name:      r.Name,
			Col:       r.Col,
			StartHour: r.StartHour,
			EndHour:   r.EndHour,
			Color:     r.Color,
		})
	}
	return entries
}

// LLMReshaper implements Reshaper with one model call asking for canonical
// template data. It is best-effort; any failure is reported to the caller.
type LLMReshaper struct {
	llm ChatModel
}

func NewLLMReshaper(llm ChatModel) *LLMReshaper {
	return &LLMReshaper{llm: llm}
}

func (r *LLMReshaper) Reshape(ctx context.Context, query, templateName string, data map[string]any) (map[string]any, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Rewrite the following data into the canonical shape for the %q template and output ONLY the rewritten JSON object.

Canonical shapes:
- schedule_list / tag_list: {"schedules": {"YYYY-MM-DD": [{"title": "...", "content": "...", "deadline": null, "is_completed": false, "tag": ["..."]}]}}
- timetable_list: {"timetables": [{"subject": "...", "day_of_week": "mon", "start_time": "HH:MM", "end_time": "HH:MM"}]}

User question: %s
Data: %s`, templateName, query, string(encoded))

	raw, err := r.llm.ChatCompletion(ctx, []services.ChatMessage{
		{Role: "system", Content: "You reformat JSON data. Output only a JSON object, no prose, no code fences."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	candidate := ExtractJSON(raw)
	if candidate == "" {
		return nil, fmt.Errorf("no JSON object in reshape output")
	}
	var reshaped map[string]any
	if err := json.Unmarshal([]byte(candidate), &reshaped); err != nil {
		return nil, err
	}
	return reshaped, nil
}
