package models

import (
	"encoding/json"
	"time"
)

// Template names the render stage understands. Anything else (or empty)
// means "no visual output".
const (
	TemplateScheduleList  = "schedule_list"
	TemplateTagList       = "tag_list"
	TemplateTimetableList = "timetable_list"
)

// ValidTemplateName reports whether name is one of the closed template enum.
func ValidTemplateName(name string) bool {
	switch name {
	case TemplateScheduleList, TemplateTagList, TemplateTimetableList:
		return true
	}
	return false
}

// Envelope is the structured response the core agent must produce for every
// turn. Data is nil when there is nothing to show; RenderHTML is true only
// when Data is non-nil and a visual presentation adds value.
type Envelope struct {
	Message      string         `json:"message"`
	Data         map[string]any `json:"data"`
	RenderHTML   bool           `json:"render_html"`
	TemplateName string         `json:"template_name,omitempty"`
}

// FallbackEnvelope wraps raw model text that failed to parse as an Envelope.
// The raw text still reaches the user; nothing is rendered.
func FallbackEnvelope(raw string) Envelope {
	return Envelope{Message: raw, Data: nil, RenderHTML: false}
}

// TurnResult is the final output of one pass through the agent graph.
// HTML is nil unless the render stage ran and succeeded.
type TurnResult struct {
	Message      string         `json:"message"`
	Data         map[string]any `json:"data"`
	RenderHTML   bool           `json:"render_html"`
	TemplateName string         `json:"template_name,omitempty"`
	HTML         *string        `json:"html"`
}

// ChatTurn is one archived query/answer pair. Answer holds the envelope as
// raw JSON so the archive survives envelope shape evolution.
type ChatTurn struct {
	ID             string          `bson:"_id,omitempty" json:"id"`
	UserID         string          `bson:"user_id" json:"user_id"`
	ConversationID string          `bson:"conversation_id" json:"conversation_id"`
	Query          string          `bson:"query" json:"query"`
	Answer         json.RawMessage `bson:"answer" json:"answer"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
}

// HistoryEntry is the compact view of a past turn fed to the core agent as
// conversation context.
type HistoryEntry struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}
