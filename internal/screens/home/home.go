package home

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/router"
	"github.com/abhisek/eslens/internal/screen"
	"github.com/abhisek/eslens/internal/screens/history"
	"github.com/abhisek/eslens/internal/screens/upload"
	"github.com/abhisek/eslens/internal/store"
	"github.com/abhisek/eslens/internal/ui/components"
	"github.com/abhisek/eslens/internal/ui/theme"
)

// Service is everything the terminal client needs from the session
// orchestrator.
type Service interface {
	upload.Service
	history.Service
	Stats(ctx context.Context, userID string) (*domain.UserStats, error)
}

const labelPastSessions = "Past sessions"

type statsLoadedMsg struct {
	Stats *domain.UserStats
	Err   error
}

// HomeScreen is the main menu.
type HomeScreen struct {
	svc   Service
	menu  components.Menu
	stats *domain.UserStats
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Refresher = (*HomeScreen)(nil)

// New creates a new HomeScreen. defaultLanguage prefills the upload form.
func New(svc Service, defaultLanguage string) *HomeScreen {
	items := []components.MenuItem{
		{Label: "New homework", Key: "n", Detail: "start from a photo", Action: func() tea.Cmd {
			return router.Push(upload.New(svc, defaultLanguage))
		}},
		{Label: labelPastSessions, Key: "p", Action: func() tea.Cmd {
			return router.Push(history.New(svc))
		}},
		{Label: "Quit", Key: "q", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	return &HomeScreen{
		svc:  svc,
		menu: components.NewMenu(items),
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStats()
}

// Refresh reloads the stats line when the user returns to the menu.
func (h *HomeScreen) Refresh() tea.Cmd {
	return h.loadStats()
}

func (h *HomeScreen) loadStats() tea.Cmd {
	svc := h.svc
	return func() tea.Msg {
		stats, err := svc.Stats(context.Background(), store.DefaultUserID)
		return statsLoadedMsg{Stats: stats, Err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(statsLoadedMsg); ok {
		// A stats failure leaves the menu usable.
		if msg.Err == nil {
			h.stats = msg.Stats
			if h.stats != nil && h.stats.TotalSessions > 0 {
				h.menu.SetDetail(labelPastSessions, fmt.Sprintf("%d saved", h.stats.TotalSessions))
			}
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	title := theme.Title.Render("Homework help in your language")
	sub := theme.Subtitle.Render("Snap your homework. Read it in your language. Work it out with a tutor.")

	box := theme.Card.
		Width(min(width-8, 56)).
		Padding(1, 2).
		Render(h.menu.View())

	sections := []string{title, sub, "", box}
	if line := statsLine(h.stats); line != "" {
		sections = append(sections, "", theme.Hint.Render(line))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

// statsLine summarises activity, e.g. "3 sessions · 12 messages · math 2, reading 1".
func statsLine(s *domain.UserStats) string {
	if s == nil || s.TotalSessions == 0 {
		return ""
	}
	plural := func(n int, word string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, word)
		}
		return fmt.Sprintf("%d %ss", n, word)
	}

	parts := []string{plural(s.TotalSessions, "session"), plural(s.TotalMessages, "message")}

	subjects := make([]string, 0, len(s.SubjectBreakdown))
	for subj := range s.SubjectBreakdown {
		subjects = append(subjects, string(subj))
	}
	sort.Slice(subjects, func(i, j int) bool {
		ci := s.SubjectBreakdown[domain.Subject(subjects[i])]
		cj := s.SubjectBreakdown[domain.Subject(subjects[j])]
		if ci != cj {
			return ci > cj
		}
		return subjects[i] < subjects[j]
	})
	if len(subjects) > 0 {
		counts := make([]string, len(subjects))
		for i, subj := range subjects {
			counts[i] = fmt.Sprintf("%s %d", subj, s.SubjectBreakdown[domain.Subject(subj)])
		}
		parts = append(parts, strings.Join(counts, ", "))
	}
	return strings.Join(parts, " · ")
}
