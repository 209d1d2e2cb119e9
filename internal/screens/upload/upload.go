// Package upload is the screen that starts a session from a homework photo.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eslens/internal/homework"
	"github.com/abhisek/eslens/internal/router"
	"github.com/abhisek/eslens/internal/screen"
	"github.com/abhisek/eslens/internal/screens/chat"
	"github.com/abhisek/eslens/internal/session"
	"github.com/abhisek/eslens/internal/translate"
	"github.com/abhisek/eslens/internal/ui/components"
	"github.com/abhisek/eslens/internal/ui/layout"
	"github.com/abhisek/eslens/internal/ui/theme"
)

const (
	fieldPath = iota
	fieldLanguage
)

// Service starts sessions and drives the chat screen that follows.
type Service interface {
	chat.Service
	Intake(ctx context.Context, req session.IntakeRequest) (*session.IntakeResult, error)
}

type intakeDoneMsg struct {
	Result *session.IntakeResult
	Err    error
}

type busyTickMsg time.Time

// UploadScreen collects an image path and the student's language.
type UploadScreen struct {
	svc      Service
	path     components.TextInput
	language components.TextInput
	focus    int

	busy      bool
	busyFrame int
	errMsg    string

	// readFile is swapped in tests.
	readFile func(string) ([]byte, error)
}

var _ screen.Screen = (*UploadScreen)(nil)
var _ screen.KeyHintProvider = (*UploadScreen)(nil)

// New creates an upload screen with the language field prefilled.
func New(svc Service, defaultLanguage string) *UploadScreen {
	lang := components.NewTextInput("Language:", "spanish", 30)
	lang.SetValue(defaultLanguage)
	lang.Blur()
	return &UploadScreen{
		svc:      svc,
		path:     components.NewTextInput("Image:   ", "~/Pictures/homework.jpg", 0),
		language: lang,
		readFile: os.ReadFile,
	}
}

func (s *UploadScreen) Init() tea.Cmd {
	return s.path.Init()
}

func (s *UploadScreen) Title() string {
	return "New Homework"
}

func (s *UploadScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *UploadScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case intakeDoneMsg:
		return s.handleIntake(msg)

	case busyTickMsg:
		if !s.busy {
			return s, nil
		}
		s.busyFrame++
		return s, busyTick()

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			return s, s.toggleFocus()
		case "enter":
			if s.focus == fieldPath && s.language.Value() == "" {
				return s, s.toggleFocus()
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	if s.focus == fieldPath {
		s.path, cmd = s.path.Update(msg)
	} else {
		s.language, cmd = s.language.Update(msg)
	}
	return s, cmd
}

func (s *UploadScreen) toggleFocus() tea.Cmd {
	if s.focus == fieldPath {
		s.focus = fieldLanguage
		s.path.Blur()
		return s.language.Focus()
	}
	s.focus = fieldPath
	s.language.Blur()
	return s.path.Focus()
}

func (s *UploadScreen) handleIntake(msg intakeDoneMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	var intakeErr *session.IntakeError
	switch {
	case errors.As(msg.Err, &intakeErr):
		// The session exists but has no opening; the chat screen
		// bootstraps it.
		return s, router.Replace(chat.New(s.svc, intakeErr.SessionID))
	case msg.Err != nil:
		s.errMsg = describeError(msg.Err)
		return s, nil
	}
	return s, router.Replace(chat.New(s.svc, msg.Result.Session.ID))
}

func (s *UploadScreen) submit() tea.Cmd {
	path := expandPath(s.path.Value())
	if path == "" {
		s.errMsg = "Enter the path to a photo of your homework."
		return nil
	}
	if !homework.IsImageFile(path) {
		s.errMsg = "Use a JPEG, PNG, GIF or WebP image."
		return nil
	}
	mime := homework.MIMETypeFor(path)
	lang := strings.ToLower(s.language.Value())

	s.errMsg = ""
	s.busy = true
	s.busyFrame = 0
	svc, readFile := s.svc, s.readFile
	return tea.Batch(busyTick(), func() tea.Msg {
		data, err := readFile(path)
		if err != nil {
			return intakeDoneMsg{Err: err}
		}
		res, err := svc.Intake(context.Background(), session.IntakeRequest{
			Image:    data,
			MIMEType: mime,
			Filename: filepath.Base(path),
			Language: lang,
		})
		return intakeDoneMsg{Result: res, Err: err}
	})
}

func busyTick() tea.Cmd {
	return tea.Tick(400*time.Millisecond, func(t time.Time) tea.Msg {
		return busyTickMsg(t)
	})
}

// expandPath trims the quotes terminals add to dropped files and expands
// a leading ~.
func expandPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), `"'`)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func describeError(err error) string {
	var extractErr *homework.ExtractionError
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "That file does not exist."
	case errors.Is(err, session.ErrImageTooLarge):
		return "That image is larger than 10MB."
	case errors.Is(err, session.ErrNoImage):
		return "That file is empty."
	case errors.Is(err, session.ErrUnsupportedImage):
		return "Use a JPEG, PNG, GIF or WebP image."
	case errors.As(err, &extractErr):
		return "Could not read the homework from that image. Try a clearer photo."
	default:
		return err.Error()
	}
}

func (s *UploadScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Start with a photo of your homework"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render("The text is read from the image, translated into your language, and"))
	b.WriteString("\n")
	b.WriteString(theme.Body.Render("your tutor helps you work through it one step at a time."))
	b.WriteString("\n\n")
	b.WriteString(s.path.View())
	b.WriteString("\n")
	b.WriteString(s.language.View())
	b.WriteString("\n\n")

	names := make([]string, 0, len(translate.SupportedLanguages()))
	for _, l := range translate.SupportedLanguages() {
		names = append(names, l.Code)
	}
	b.WriteString(theme.Hint.Width(min(width-8, 80)).Render("Languages: " + strings.Join(names, ", ")))
	b.WriteString("\n\n")

	switch {
	case s.busy:
		dots := strings.Repeat(".", s.busyFrame%4)
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Reading your homework%s", dots)))
	case s.errMsg != "":
		b.WriteString(theme.ErrorText.Render(s.errMsg))
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 4).
		Render(b.String())
}
