// Package layout draws the chrome around the active screen: a header bar
// with the breadcrumb, a footer of key hints and the size guard.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/eslens/internal/ui/theme"
)

// Chat transcripts need room for a reply plus the input line.
const (
	MinWidth  = 72
	MinHeight = 20
)

const appName = "ESLens"

// KeyHint is one "key description" pair in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the user to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	body := strings.Join([]string{
		lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("Window too small"),
		"",
		fmt.Sprintf("ESLens needs at least %d×%d.", MinWidth, MinHeight),
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("Now: %d×%d", width, height)),
	}, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Align(lipgloss.Center).Render(body))
}

func bar(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)
}

// RenderHeader shows the app name, the breadcrumb centred and an optional
// status on the right. The breadcrumb is cut from the left when space runs
// out so the current screen stays visible.
func RenderHeader(title, status string, width int) string {
	name := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(appName)
	right := lipgloss.NewStyle().Foreground(theme.Accent).Render(status)

	inner := max(width-4, 0)
	side := max(lipgloss.Width(name), lipgloss.Width(right))
	middle := max(inner-2*side-2, 0)

	crumb := lipgloss.NewStyle().Foreground(theme.Text).Render(clipLeft(title, middle))
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(side+1).Render(name),
		lipgloss.NewStyle().Width(middle).Align(lipgloss.Center).Render(crumb),
		lipgloss.NewStyle().Width(side+1).Align(lipgloss.Right).Render(right),
	)
	return bar(width).Render(row)
}

// RenderFooter lays hints out left to right and drops the ones that do not
// fit on a single line.
func RenderFooter(hints []KeyHint, width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	room := max(width-4, 0)
	var line string
	for _, h := range hints {
		part := keyStyle.Render(h.Key) + " " + descStyle.Render(h.Description)
		next := part
		if line != "" {
			next = line + "   " + part
		}
		if lipgloss.Width(next) > room {
			break
		}
		line = next
	}
	return bar(width).Render(line)
}

// RenderFrame stacks header, content and footer, giving the content
// whatever height is left.
func RenderFrame(header, content, footer string, width, height int) string {
	rest := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(rest).MaxHeight(rest).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// TailLines keeps the last n lines of s, which is how the chat transcript
// stays pinned to the newest message.
func TailLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// clipLeft trims s from the front to fit n cells, marking the cut with "…".
func clipLeft(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > n {
		r = r[1:]
	}
	return "…" + string(r)
}
