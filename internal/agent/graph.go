// Package agent implements the two-stage conversation graph: a planning
// stage that drives the LLM tool-calling loop, and a conditional render
// stage that turns list data into template HTML.
package agent

import (
	"context"

	"schedulo/internal/models"
)

// Planner produces the turn's envelope. Implemented by *CoreAgent.
type Planner interface {
	Plan(ctx context.Context, st *State) (models.Envelope, error)
}

// HTMLRenderer produces optional template HTML for an envelope.
// Implemented by *RenderAgent.
type HTMLRenderer interface {
	Render(ctx context.Context, query string, env models.Envelope) *string
}

// Graph wires the two stages. Execution is always core first; render runs
// only when the envelope asks for it and actually carries data.
type Graph struct {
	planner  Planner
	renderer HTMLRenderer
}

func NewGraph(planner Planner, renderer HTMLRenderer) *Graph {
	return &Graph{planner: planner, renderer: renderer}
}

// Run executes one turn for the user and returns the final result. An error
// is returned only for transport-level failures; degraded model output still
// produces a usable text-only result.
func (g *Graph) Run(ctx context.Context, userID, query string, history []models.HistoryEntry) (*models.TurnResult, error) {
	st := &State{UserID: userID, Query: query, History: history}

	env, err := g.planner.Plan(ctx, st)
	if err != nil {
		return nil, err
	}
	st.Envelope = env

	if env.RenderHTML && env.Data != nil && g.renderer != nil {
		st.HTML = g.renderer.Render(ctx, query, env)
	}

	return &models.TurnResult{
		Message:      env.Message,
		Data:         env.Data,
		RenderHTML:   env.RenderHTML,
		TemplateName: env.TemplateName,
		HTML:         st.HTML,
	}, nil
}
