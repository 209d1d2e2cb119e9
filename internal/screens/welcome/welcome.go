// Package welcome is the splash screen shown on launch.
package welcome

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eslens/internal/router"
	"github.com/abhisek/eslens/internal/screen"
	"github.com/abhisek/eslens/internal/ui/theme"
)

const frameRate = 100 * time.Millisecond

// The lens fades in, lights up, then the banner and greetings appear.
type phase int

const (
	phaseLens phase = iota
	phaseFocus
	phaseBanner
)

var phaseStart = map[phase]int{
	phaseFocus:  4,
	phaseBanner: 12,
}

const framesPerGreeting = int(time.Second / frameRate)

const lensArt = `    ╭─────╮
   ╱ ¿ A ? ╲
  │  a → á  │
   ╲       ╱
    ╰─────╯╲
            ╲╲`

var greetings = []string{
	"Hola", "Bonjou", "Olá", "Xin chào", "你好", "مرحبا", "Kumusta", "Bonjour", "안녕하세요", "Привет", "Hello",
}

type frameMsg struct{}

// WelcomeScreen plays the splash until a key is pressed, then replaces
// itself with the screen built by next.
type WelcomeScreen struct {
	next   func() screen.Screen
	frames int
	done   bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

func New(next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{next: next}
}

// Title is empty so the header shows no breadcrumb on the splash.
func (w *WelcomeScreen) Title() string { return "" }

func (w *WelcomeScreen) Init() tea.Cmd { return nextFrame() }

func nextFrame() tea.Cmd {
	return tea.Tick(frameRate, func(time.Time) tea.Msg { return frameMsg{} })
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if w.done {
		return w, nil
	}
	switch msg.(type) {
	case frameMsg:
		w.frames++
		return w, nextFrame()
	case tea.KeyPressMsg:
		w.done = true
		return w, router.Replace(w.next())
	}
	return w, nil
}

func (w *WelcomeScreen) phase() phase {
	switch {
	case w.frames >= phaseStart[phaseBanner]:
		return phaseBanner
	case w.frames >= phaseStart[phaseFocus]:
		return phaseFocus
	default:
		return phaseLens
	}
}

func (w *WelcomeScreen) greeting() string {
	return greetings[(w.frames/framesPerGreeting)%len(greetings)]
}

func (w *WelcomeScreen) View(width, height int) string {
	lensColor := theme.Secondary
	if w.phase() >= phaseFocus {
		lensColor = theme.Accent
	}
	rows := []string{lipgloss.NewStyle().Foreground(lensColor).Render(lensArt)}

	if w.phase() == phaseBanner {
		rows = append(rows,
			"",
			RenderBanner(width),
			"",
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("Homework help in your language"),
			lipgloss.NewStyle().Foreground(theme.Secondary).Render(w.greeting()),
			"",
			theme.Hint.Render("press any key to continue"),
		)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, rows...))
}
