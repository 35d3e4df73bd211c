package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"schedulo/internal/models"
)

// asData round-trips a value through JSON so the renderer sees the same
// loosely-typed maps it gets in production.
func asData(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return data
}

func TestRenderScheduleList(t *testing.T) {
	r := NewRenderAgent(nil, nil)
	env := models.Envelope{
		Message:      "이번 주 일정이에요",
		RenderHTML:   true,
		TemplateName: models.TemplateScheduleList,
		Data: asData(t, map[string]any{
			"schedules": map[string]any{
				"2026-03-03": []map[string]any{
					{"title": "팀플 회의", "is_completed": false},
				},
				"2026-03-02": []map[string]any{
					{"title": "알고리즘 과제", "is_completed": true, "tag": []string{"CS"}},
				},
			},
		}),
	}

	html := r.Render(context.Background(), "이번 주 일정 보여줘", env)
	if html == nil {
		t.Fatal("expected HTML output")
	}

	// Dates must appear in ascending order.
	i2 := strings.Index(*html, "2026-03-02")
	i3 := strings.Index(*html, "2026-03-03")
	if i2 == -1 || i3 == -1 || i2 > i3 {
		t.Errorf("dates missing or out of order: %d, %d", i2, i3)
	}
	if !strings.Contains(*html, "알고리즘 과제") || !strings.Contains(*html, "팀플 회의") {
		t.Errorf("schedule titles missing from output")
	}
	if !strings.Contains(*html, "☑") || !strings.Contains(*html, "☐") {
		t.Errorf("completion markers missing from output")
	}
	if !strings.Contains(*html, "이번 주 일정이에요") {
		t.Errorf("assistant message missing from output")
	}
}

func TestRenderTagListInversion(t *testing.T) {
	r := NewRenderAgent(nil, nil)
	env := models.Envelope{
		Message:      "태그별로 정리했어요",
		RenderHTML:   true,
		TemplateName: models.TemplateTagList,
		Data: asData(t, map[string]any{
			"schedules": map[string]any{
				"2026-03-02": []map[string]any{
					{"title": "과제 A", "tag": []string{"CS", "급함"}},
					{"title": "과제 B", "tag": []string{"CS"}},
				},
				"2026-03-04": []map[string]any{
					{"title": "리포트", "tag": []string{"급함"}},
				},
			},
		}),
	}

	html := r.Render(context.Background(), "태그별로 보여줘", env)
	if html == nil {
		t.Fatal("expected HTML output")
	}
	if !strings.Contains(*html, "#CS") || !strings.Contains(*html, "#급함") {
		t.Errorf("tag headers missing: %s", *html)
	}
	// A schedule with two tags appears under both.
	if strings.Count(*html, "과제 A") != 2 {
		t.Errorf("multi-tagged schedule should appear under each tag")
	}
	// Without fetched tags, palette colors are assigned first-seen.
	if !strings.Contains(*html, models.TagPalette[0]) || !strings.Contains(*html, models.TagPalette[1]) {
		t.Errorf("palette colors not assigned: %s", *html)
	}
}

func TestRenderTagListUsesFetchedColors(t *testing.T) {
	r := NewRenderAgent(nil, nil)
	env := models.Envelope{
		Message:      "태그별 일정입니다",
		RenderHTML:   true,
		TemplateName: models.TemplateTagList,
		Data: asData(t, map[string]any{
			"schedules": map[string]any{
				"2026-03-02": []map[string]any{
					{"title": "과제", "tag": []string{"CS"}},
				},
			},
			"tags": []map[string]any{
				{"name": "CS", "color": "#BAFFC9"},
			},
		}),
	}

	html := r.Render(context.Background(), "", env)
	if html == nil {
		t.Fatal("expected HTML output")
	}
	if !strings.Contains(*html, "#BAFFC9") {
		t.Errorf("fetched tag color not used: %s", *html)
	}
}

func TestRenderTimetableFromRawRows(t *testing.T) {
	r := NewRenderAgent(nil, nil)
	env := models.Envelope{
		Message:      "이번 학기 시간표예요",
		RenderHTML:   true,
		TemplateName: models.TemplateTimetableList,
		Data: asData(t, map[string]any{
			"timetables": []map[string]any{
				{"subject": "운영체제", "day_of_week": "thu", "start_time": "12:00:00", "end_time": "15:00:00"},
			},
		}),
	}

	html := r.Render(context.Background(), "시간표 보여줘", env)
	if html == nil {
		t.Fatal("expected HTML output")
	}
	if !strings.Contains(*html, "운영체제") {
		t.Errorf("subject missing: %s", *html)
	}
	if !strings.Contains(*html, `data-col="5"`) {
		t.Errorf("thursday should land in column 5: %s", *html)
	}
	if !strings.Contains(*html, `data-start="12"`) || !strings.Contains(*html, `data-end="15"`) {
		t.Errorf("hours not transformed: %s", *html)
	}
	if !strings.Contains(*html, models.TimetablePalette[0]) {
		t.Errorf("first subject should carry palette[0]: %s", *html)
	}
}

func TestRenderTimetableFromRenderedShape(t *testing.T) {
	r := NewRenderAgent(nil, nil)
	env := models.Envelope{
		Message:      "시간표예요",
		RenderHTML:   true,
		TemplateName: models.TemplateTimetableList,
		Data: asData(t, map[string]any{
			"timetables": []map[string]any{
				{"name": "자료구조", "col": 2, "start_hour": 9.0, "end_hour": 10.5, "color": models.TimetablePalette[1]},
			},
		}),
	}

	html := r.Render(context.Background(), "", env)
	if html == nil {
		t.Fatal("expected HTML output")
	}
	if !strings.Contains(*html, "자료구조") || !strings.Contains(*html, `data-col="2"`) {
		t.Errorf("pre-rendered entries not accepted: %s", *html)
	}
}

func TestRenderFailureReturnsNil(t *testing.T) {
	r := NewRenderAgent(nil, nil)

	tests := []struct {
		name string
		env  models.Envelope
	}{
		{
			name: "missing schedules key",
			env: models.Envelope{
				Message:      "m",
				TemplateName: models.TemplateScheduleList,
				Data:         map[string]any{"something": "else"},
			},
		},
		{
			name: "schedules wrong shape",
			env: models.Envelope{
				Message:      "m",
				TemplateName: models.TemplateScheduleList,
				Data:         asData(t, map[string]any{"schedules": []string{"not", "a", "map"}}),
			},
		},
		{
			name: "no tagged schedules for tag_list",
			env: models.Envelope{
				Message:      "m",
				TemplateName: models.TemplateTagList,
				Data: asData(t, map[string]any{
					"schedules": map[string]any{
						"2026-03-02": []map[string]any{{"title": "untagged"}},
					},
				}),
			},
		},
		{
			name: "empty timetables",
			env: models.Envelope{
				Message:      "m",
				TemplateName: models.TemplateTimetableList,
				Data:         asData(t, map[string]any{"timetables": []any{}}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if html := r.Render(context.Background(), "", tt.env); html != nil {
				t.Errorf("expected nil HTML, got %q", *html)
			}
		})
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := NewRenderAgent(nil, nil)
	env := models.Envelope{
		Message:      "일정이에요",
		RenderHTML:   true,
		TemplateName: models.TemplateTagList,
		Data: asData(t, map[string]any{
			"schedules": map[string]any{
				"2026-03-02": []map[string]any{
					{"title": "a", "tag": []string{"t1"}},
					{"title": "b", "tag": []string{"t2"}},
					{"title": "c", "tag": []string{"t3"}},
				},
			},
		}),
	}

	first := r.Render(context.Background(), "", env)
	if first == nil {
		t.Fatal("expected HTML output")
	}
	for i := 0; i < 5; i++ {
		again := r.Render(context.Background(), "", env)
		if again == nil || *again != *first {
			t.Fatal("render output must be deterministic for the same envelope")
		}
	}
}
