package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/router"
	"github.com/abhisek/eslens/internal/screen"
	"github.com/abhisek/eslens/internal/screens/chat"
	"github.com/abhisek/eslens/internal/session"
	"github.com/abhisek/eslens/internal/translate"
	"github.com/abhisek/eslens/internal/ui/layout"
	"github.com/abhisek/eslens/internal/ui/theme"
)

// Service lists sessions and reopens them.
type Service interface {
	chat.Service
	ListSessions(ctx context.Context, limit int) ([]domain.SessionSummary, error)
}

// filter narrows the list by session status; Tab cycles through them.
type filter int

const (
	filterAll filter = iota
	filterActive
	filterCompleted
)

func (f filter) String() string {
	return [...]string{"all", "in progress", "finished"}[f]
}

func (f filter) keep(s domain.SessionSummary) bool {
	switch f {
	case filterActive:
		return s.Status == domain.StatusActive
	case filterCompleted:
		return s.Status == domain.StatusCompleted
	}
	return true
}

type listLoadedMsg struct {
	sessions []domain.SessionSummary
	err      error
}

// HistoryScreen lists past sessions grouped by day, newest first.
type HistoryScreen struct {
	svc      Service
	all      []domain.SessionSummary
	filter   filter
	selected int
	loaded   bool
	err      error
}

var (
	_ screen.Screen          = (*HistoryScreen)(nil)
	_ screen.KeyHintProvider = (*HistoryScreen)(nil)
	_ screen.Refresher       = (*HistoryScreen)(nil)
)

func New(svc Service) *HistoryScreen {
	return &HistoryScreen{svc: svc}
}

func (s *HistoryScreen) Init() tea.Cmd { return s.fetch() }

// Refresh reloads the list so a session finished in the chat shows as such.
func (s *HistoryScreen) Refresh() tea.Cmd { return s.fetch() }

func (s *HistoryScreen) fetch() tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		list, err := svc.ListSessions(context.Background(), session.DefaultListLimit)
		return listLoadedMsg{sessions: list, err: err}
	}
}

func (s *HistoryScreen) Title() string { return "Past sessions" }

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Filter: " + s.filter.String()},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) visible() []domain.SessionSummary {
	out := make([]domain.SessionSummary, 0, len(s.all))
	for _, sess := range s.all {
		if s.filter.keep(sess) {
			out = append(out, sess)
		}
	}
	return out
}

func (s *HistoryScreen) clamp() {
	s.selected = min(s.selected, max(len(s.visible())-1, 0))
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listLoadedMsg:
		s.loaded = true
		s.err = msg.err
		if msg.err == nil {
			s.all = msg.sessions
			s.clamp()
		}
		return s, nil

	case tea.KeyMsg:
		list := s.visible()
		switch msg.String() {
		case "up", "k":
			s.selected = max(s.selected-1, 0)
		case "down", "j":
			s.selected = min(s.selected+1, max(len(list)-1, 0))
		case "tab":
			s.filter = (s.filter + 1) % 3
			s.selected = 0
		case "enter":
			if len(list) > 0 {
				return s, router.Push(chat.New(s.svc, list[s.selected].ID))
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	centered := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.err != nil:
		return centered.Foreground(theme.Error).Render("\n\nError: " + s.err.Error())
	case !s.loaded:
		return centered.Foreground(theme.TextDim).Render("\n\nLoading sessions...")
	case len(s.all) == 0:
		return centered.Inherit(theme.Hint).Render("\n\nNo sessions yet. Start with a photo of your homework!")
	}

	list := s.visible()
	if len(list) == 0 {
		return centered.Inherit(theme.Hint).Render(fmt.Sprintf("\n\nNo %s sessions. Press Tab to change the filter.", s.filter))
	}

	now := time.Now()
	var rows []string
	day, cursorRow := "", 0
	for i, sess := range list {
		if label := dayLabel(sess.CreatedAt, now); label != day {
			day = label
			rows = append(rows, "", theme.Subtitle.Render(day))
		}
		if i == s.selected {
			cursorRow = len(rows)
		}
		rows = append(rows, s.row(sess, i == s.selected))
	}
	rows = window(rows, cursorRow, height)
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(strings.Join(rows, "\n"))
}

// window returns at most height rows around the cursor row.
func window(rows []string, cursor, height int) []string {
	if height <= 0 || len(rows) <= height {
		return rows
	}
	start := min(max(cursor-height/2, 0), len(rows)-height)
	return rows[start : start+height]
}

func (s *HistoryScreen) row(sess domain.SessionSummary, selected bool) string {
	cursor, style := "  ", theme.Unselected
	if selected {
		cursor, style = "› ", theme.Selected
	}
	done := ""
	if sess.Status == domain.StatusCompleted {
		done = " ✓"
	}
	return style.Render(fmt.Sprintf("%s%s  %-8s %-11s %3d msgs  %s%s",
		cursor,
		sess.CreatedAt.Local().Format("15:04"),
		sess.Subject,
		translate.DisplayName(sess.Language),
		sess.MessageCount,
		preview(sess.ExtractedText, 32),
		done))
}

// dayLabel names the calendar day of t relative to now.
func dayLabel(t, now time.Time) string {
	t, now = t.Local(), now.Local()
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, time.Local)
	switch day := time.Date(y1, m1, d1, 0, 0, 0, 0, time.Local); {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case y1 == y2:
		return t.Format("Mon Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// preview flattens text to one line of at most n runes.
func preview(text string, n int) string {
	r := []rune(strings.Join(strings.Fields(text), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
