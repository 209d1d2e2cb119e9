// Package screen defines what the router needs from a page of the
// terminal client.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/eslens/internal/ui/layout"
)

// Screen is one page of the terminal client. The app draws the header and
// footer; View renders only the area between them.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string

	// Title names the screen in the header breadcrumb. Empty titles are
	// left out.
	Title() string
}

// KeyHintProvider replaces the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider puts text on the right of the header, e.g. the session
// language.
type StatusProvider interface {
	Status() string
}

// Refresher reloads data when the screen is uncovered by a pop.
type Refresher interface {
	Refresh() tea.Cmd
}
