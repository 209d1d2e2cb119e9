package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eslens/internal/ui/theme"
)

const bannerArt = `
 ███████╗███████╗██╗     ███████╗███╗   ██╗███████╗
 ██╔════╝██╔════╝██║     ██╔════╝████╗  ██║██╔════╝
 █████╗  ███████╗██║     █████╗  ██╔██╗ ██║███████╗
 ██╔══╝  ╚════██║██║     ██╔══╝  ██║╚██╗██║╚════██║
 ███████╗███████║███████╗███████╗██║ ╚████║███████║
 ╚══════╝╚══════╝╚══════╝╚══════╝╚═╝  ╚═══╝╚══════╝`

const bannerCompact = "E S L E N S"

// RenderBanner returns the ESLens banner, falling back to plain letters
// below 54 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 54 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
