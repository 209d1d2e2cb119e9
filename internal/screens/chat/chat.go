// Package chat is the tutoring conversation screen.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/router"
	"github.com/abhisek/eslens/internal/screen"
	"github.com/abhisek/eslens/internal/session"
	"github.com/abhisek/eslens/internal/translate"
	"github.com/abhisek/eslens/internal/tutor"
	"github.com/abhisek/eslens/internal/ui/components"
	"github.com/abhisek/eslens/internal/ui/layout"
	"github.com/abhisek/eslens/internal/ui/theme"
	"github.com/abhisek/eslens/internal/understanding"
)

const busyTickInterval = 400 * time.Millisecond

// Service is the part of the session orchestrator the chat screen uses.
type Service interface {
	Chat(ctx context.Context, req session.ChatRequest) (*session.TurnResult, error)
	History(ctx context.Context, sessionID string) (*domain.Session, []domain.Message, error)
	Bootstrap(ctx context.Context, sessionID string) (*domain.Message, error)
	Complete(ctx context.Context, sessionID string) (*domain.Session, error)
}

type historyLoadedMsg struct {
	Session  *domain.Session
	Messages []domain.Message
	Err      error
}

type bootstrapDoneMsg struct {
	Message *domain.Message
	Err     error
}

type turnDoneMsg struct {
	Result *session.TurnResult
	Err    error
}

type completedMsg struct {
	Session *domain.Session
	Err     error
}

type busyTickMsg time.Time

// ChatScreen shows one session's conversation and sends student turns.
type ChatScreen struct {
	svc       Service
	sessionID string

	sess         *domain.Session
	messages     []domain.Message
	translations map[string]string // assistant message ID -> translated text
	state        *understanding.State
	validation   *tutor.Validation

	input            components.TextInput
	translateReplies bool
	showHomework     bool

	loaded    bool
	busy      bool
	busyLabel string
	busyFrame int
	pending   string
	errMsg    string
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)
var _ screen.StatusProvider = (*ChatScreen)(nil)

// New creates a chat screen for sessionID. The conversation is loaded on
// Init; a session without messages is bootstrapped automatically.
func New(svc Service, sessionID string) *ChatScreen {
	return &ChatScreen{
		svc:          svc,
		sessionID:    sessionID,
		translations: make(map[string]string),
		input:        components.NewTextInput("›", "Ask the tutor or explain your thinking...", 1000),
	}
}

func (s *ChatScreen) Init() tea.Cmd {
	return tea.Batch(s.loadHistory(), s.input.Init())
}

func (s *ChatScreen) Title() string {
	return "Tutor"
}

func (s *ChatScreen) Status() string {
	if s.sess == nil {
		return ""
	}
	return translate.DisplayName(s.sess.Language)
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.completed() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Home"},
			{Key: "Ctrl+E", Description: "Homework"},
			{Key: "Esc", Description: "Back"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Ctrl+T", Description: "Translate replies"},
		{Key: "Ctrl+E", Description: "Homework"},
		{Key: "Ctrl+D", Description: "Finish"},
	}
	if s.loaded && len(s.messages) == 0 {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+R", Description: "Retry tutor"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		return s.handleHistory(msg)

	case bootstrapDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = describeError(msg.Err)
			return s, nil
		}
		s.errMsg = ""
		s.messages = append(s.messages, *msg.Message)
		return s, nil

	case turnDoneMsg:
		return s.handleTurn(msg)

	case completedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = describeError(msg.Err)
			return s, nil
		}
		s.sess = msg.Session
		s.input.Blur()
		return s, nil

	case busyTickMsg:
		if !s.busy {
			return s, nil
		}
		s.busyFrame++
		return s, busyTick()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *ChatScreen) handleHistory(msg historyLoadedMsg) (screen.Screen, tea.Cmd) {
	s.loaded = true
	s.busy = false
	if msg.Err != nil {
		s.errMsg = describeError(msg.Err)
		return s, nil
	}
	s.sess = msg.Session
	s.messages = msg.Messages
	if len(s.messages) == 0 && !s.completed() {
		return s, s.bootstrap()
	}
	if s.completed() {
		s.input.Blur()
	}
	return s, nil
}

func (s *ChatScreen) handleTurn(msg turnDoneMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	s.pending = ""
	if msg.Err != nil {
		s.errMsg = describeError(msg.Err)
		// The student's message may have been stored before the tutor
		// failed; reload so it shows.
		return s, s.loadHistory()
	}
	s.errMsg = ""
	res := msg.Result
	s.messages = append(s.messages, *res.UserMessage, *res.AssistantMessage)
	state := res.Understanding
	s.state = &state
	v := res.Validation
	s.validation = &v
	if res.Translation != nil && !res.Translation.Degraded() {
		s.translations[res.AssistantMessage.ID] = res.Translation.Translated
	}
	return s, nil
}

func (s *ChatScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "ctrl+e":
		s.showHomework = !s.showHomework
		return s, nil
	case "ctrl+t":
		s.translateReplies = !s.translateReplies
		return s, nil
	}

	if s.completed() {
		if msg.String() == "enter" {
			return s, router.PopToRoot()
		}
		return s, nil
	}
	if s.busy || !s.loaded || s.sess == nil {
		return s, nil
	}

	switch msg.String() {
	case "ctrl+d":
		return s, s.complete()
	case "ctrl+r":
		if len(s.messages) == 0 {
			return s, s.bootstrap()
		}
		return s, nil
	case "enter":
		text := s.input.Value()
		if text == "" {
			return s, nil
		}
		s.input.Reset()
		return s, s.send(text)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ChatScreen) completed() bool {
	return s.sess != nil && s.sess.Status == domain.StatusCompleted
}

func (s *ChatScreen) startBusy(label string) tea.Cmd {
	s.busy = true
	s.busyLabel = label
	s.busyFrame = 0
	return busyTick()
}

func busyTick() tea.Cmd {
	return tea.Tick(busyTickInterval, func(t time.Time) tea.Msg {
		return busyTickMsg(t)
	})
}

func (s *ChatScreen) loadHistory() tea.Cmd {
	svc, id := s.svc, s.sessionID
	return func() tea.Msg {
		sess, msgs, err := svc.History(context.Background(), id)
		return historyLoadedMsg{Session: sess, Messages: msgs, Err: err}
	}
}

func (s *ChatScreen) bootstrap() tea.Cmd {
	svc, id := s.svc, s.sessionID
	return tea.Batch(s.startBusy("Your tutor is getting ready"), func() tea.Msg {
		msg, err := svc.Bootstrap(context.Background(), id)
		return bootstrapDoneMsg{Message: msg, Err: err}
	})
}

func (s *ChatScreen) send(text string) tea.Cmd {
	s.pending = text
	req := session.ChatRequest{
		SessionID:      s.sessionID,
		Message:        text,
		TranslateReply: s.translateReplies,
	}
	svc := s.svc
	return tea.Batch(s.startBusy("Tutor is thinking"), func() tea.Msg {
		res, err := svc.Chat(context.Background(), req)
		return turnDoneMsg{Result: res, Err: err}
	})
}

func (s *ChatScreen) complete() tea.Cmd {
	svc, id := s.svc, s.sessionID
	return func() tea.Msg {
		sess, err := svc.Complete(context.Background(), id)
		return completedMsg{Session: sess, Err: err}
	}
}

func describeError(err error) string {
	switch {
	case errors.Is(err, tutor.ErrTutorUnavailable):
		return "The tutor is unavailable right now. Your message was saved; try again in a moment."
	case errors.Is(err, session.ErrSessionNotFound):
		return "This session no longer exists."
	case errors.Is(err, session.ErrSessionCompleted):
		return "This session is finished."
	default:
		return err.Error()
	}
}

func (s *ChatScreen) View(width, height int) string {
	if !s.loaded {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\nLoading conversation...")
	}
	if s.sess == nil {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render("\n\n" + s.errMsg)
	}

	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	top := []string{s.renderInfo()}
	if s.showHomework {
		top = append(top, s.renderHomework(inner))
	}

	var bottom []string
	if line := s.renderUnderstanding(); line != "" {
		bottom = append(bottom, line)
	}
	if s.errMsg != "" {
		bottom = append(bottom, theme.ErrorText.Width(inner).Render(s.errMsg))
	}
	if s.completed() {
		bottom = append(bottom, theme.Hint.Render("Session finished. Press Enter for home or Esc to go back."))
	} else {
		bottom = append(bottom, s.input.View())
	}

	topBlock := strings.Join(top, "\n")
	bottomBlock := strings.Join(bottom, "\n")
	convHeight := height - lipgloss.Height(topBlock) - lipgloss.Height(bottomBlock) - 2
	conv := layout.TailLines(s.renderConversation(inner), convHeight)

	body := topBlock + "\n\n" + lipgloss.NewStyle().Height(max(convHeight, 0)).Render(conv) + "\n" + bottomBlock
	return lipgloss.NewStyle().Padding(0, 2).Render(body)
}

func (s *ChatScreen) renderInfo() string {
	replies := "off"
	if s.translateReplies {
		replies = "on"
	}
	info := fmt.Sprintf("%s homework · %s · %s · translated replies %s",
		s.sess.Subject(), translate.DisplayName(s.sess.Language), s.sess.Status, replies)
	return theme.Hint.Render(info)
}

func (s *ChatScreen) renderHomework(width int) string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render("Homework"))
	b.WriteString("\n")
	b.WriteString(theme.Body.Width(width - 4).Render(s.sess.Homework.ExtractedText))
	if s.sess.TranslatedText != "" && s.sess.TranslatedText != s.sess.Homework.ExtractedText {
		b.WriteString("\n\n")
		b.WriteString(theme.Translation.Width(width - 4).Render(s.sess.TranslatedText))
	}
	return theme.Card.Width(width).Render(b.String())
}

func (s *ChatScreen) renderConversation(width int) string {
	var blocks []string
	for _, m := range s.messages {
		blocks = append(blocks, s.renderMessage(m, width))
	}
	if s.pending != "" {
		blocks = append(blocks, theme.StudentLabel.Render("You")+"\n"+theme.Body.Width(width).Render(s.pending))
	}
	if s.busy {
		dots := strings.Repeat(".", s.busyFrame%4)
		blocks = append(blocks, theme.Hint.Render(s.busyLabel+dots))
	}
	return strings.Join(blocks, "\n\n")
}

func (s *ChatScreen) renderMessage(m domain.Message, width int) string {
	label := theme.TutorLabel.Render("Tutor")
	if m.Role == domain.RoleUser {
		label = theme.StudentLabel.Render("You")
	}
	out := label + "\n" + theme.Body.Width(width).Render(m.Content)
	if tr, ok := s.translations[m.ID]; ok {
		out += "\n" + theme.Translation.Width(width).Render(tr)
	}
	return out
}

func (s *ChatScreen) renderUnderstanding() string {
	if s.state == nil {
		return ""
	}
	line := fmt.Sprintf("Understanding: %s (%s confidence) · next: %s",
		s.state.Level, s.state.Confidence, strings.ReplaceAll(string(s.state.NextStep), "_", " "))
	out := theme.Hint.Render(line)
	if s.validation != nil && !s.validation.IsValid {
		out += "\n" + theme.Warning.Render("⚠ "+s.validation.Warning)
	}
	return out
}
