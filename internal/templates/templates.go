// Package templates renders the assistant's visual responses. Template
// contexts are small typed structs built by the render agent; the assistant
// message itself is markdown and is converted to HTML here.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
)

//go:embed *.html
var files embed.FS

var templates = template.Must(template.ParseFS(files, "*.html"))

var markdown = goldmark.New()

// ScheduleItem is one schedule row inside a date or tag group.
type ScheduleItem struct {
	Title       string
	Content     string
	Deadline    string
	IsCompleted bool
	Tags        []string
}

// DateGroup is one date's schedules in the schedule_list template.
type DateGroup struct {
	Date  string
	Items []ScheduleItem
}

// TagGroup is one tag's schedules in the tag_list template.
type TagGroup struct {
	Name      string
	Color     string
	Schedules []ScheduleItem
}

// TimetableEntry is one class block in the timetable_list template.
type TimetableEntry struct {
	Name      string
	Col       int
	StartHour float64
	EndHour   float64
	Color     string
}

// ScheduleListContext feeds schedule_list.html.
type ScheduleListContext struct {
	MessageHTML template.HTML
	Dates       []DateGroup
}

// TagListContext feeds tag_list.html.
type TagListContext struct {
	MessageHTML template.HTML
	Tags        []TagGroup
}

// TimetableListContext feeds timetable_list.html.
type TimetableListContext struct {
	MessageHTML template.HTML
	Entries     []TimetableEntry
}

// MarkdownHTML converts assistant markdown to HTML for template embedding.
func MarkdownHTML(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		// Fall back to escaped plain text.
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}

// Render executes the named template ("schedule_list", "tag_list",
// "timetable_list") with the given context.
func Render(name string, ctx any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name+".html", ctx); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}
