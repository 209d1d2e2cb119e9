// Package theme holds the palette and shared styles. Homework text is read
// for long stretches, so the palette favours contrast over colour.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

var (
	Primary   = lipgloss.Color("#818CF8")
	Secondary = lipgloss.Color("#2DD4BF")
	Accent    = lipgloss.Color("#FBBF24")
	Success   = lipgloss.Color("#4ADE80")
	Error     = lipgloss.Color("#FB7185")
	Text      = lipgloss.Color("#F1F5F9")
	TextDim   = lipgloss.Color("#9CA3AF")
	BgCard    = lipgloss.Color("#1F2937")
	Border    = lipgloss.Color("#374151")
)

func fg(c color.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	Title     = fg(Primary).Bold(true).Align(lipgloss.Center)
	Subtitle  = fg(TextDim).Align(lipgloss.Center)
	Body      = fg(Text)
	Hint      = fg(TextDim).Italic(true)
	ErrorText = fg(Error)
	Warning   = fg(Accent)

	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// Chat transcript.
var (
	StudentLabel = fg(Secondary).Bold(true)
	TutorLabel   = fg(Primary).Bold(true)
	// Translation styles the student-language rendering under a tutor reply.
	Translation = fg(Accent).Italic(true)
)

// Menu rows.
var (
	Selected   = fg(Primary).Bold(true)
	Unselected = fg(Text)
)
