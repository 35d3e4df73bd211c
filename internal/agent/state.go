package agent

import (
	"schedulo/internal/models"
)

// State is the request-scoped conversation state threaded through one pass
// of the graph. It is never shared between requests or users.
type State struct {
	UserID  string
	Query   string
	History []models.HistoryEntry // bounded window, oldest first

	// Set by the core stage.
	Envelope models.Envelope

	// Set by the render stage; nil when it did not run or failed.
	HTML *string
}
