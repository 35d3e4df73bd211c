package models

import (
	"fmt"
	"strings"
)

// PageMap is the static description of the frontend's pages and widgets.
// The core agent quotes from it when a user asks "where do I ...?" style
// navigation questions instead of fabricating a tool call.
type PageMap struct {
	Pages []PageSection `yaml:"pages"`
}

// PageSection describes one page of the UI.
type PageSection struct {
	Name     string   `yaml:"name"`
	Path     string   `yaml:"path"`
	Features []string `yaml:"features"`
}

// Describe renders the page map as plain text for prompt injection.
func (m *PageMap) Describe() string {
	var b strings.Builder
	for _, p := range m.Pages {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Path)
		for _, f := range p.Features {
			fmt.Fprintf(&b, "  * %s\n", f)
		}
	}
	return b.String()
}
