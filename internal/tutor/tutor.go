// Package tutor runs the Socratic conversation: it opens a session around a
// homework text and answers each student turn with guiding questions.
package tutor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/llm"
	"github.com/abhisek/eslens/internal/understanding"
)

// ErrTutorUnavailable is matched by every tutoring failure.
var ErrTutorUnavailable = errors.New("tutor unavailable")

// UnavailableError wraps the model failure behind a tutoring turn. There is
// no canned fallback reply.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrTutorUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() []error { return []error{ErrTutorUnavailable, e.Err} }

// Reply is one tutor turn.
type Reply struct {
	Message string

	// Understanding is the classification that shaped this reply. Nil for
	// the opening turn.
	Understanding *understanding.State

	Validation Validation
}

// ConversationInput is everything the tutor needs for one student turn.
type ConversationInput struct {
	// History holds the prior messages, oldest first, excluding the
	// student's latest message.
	History         []domain.Message
	StudentMessage  string
	HomeworkContext string
	Subject         domain.Subject

	// Understanding is computed from StudentMessage when nil.
	Understanding *understanding.State
}

// Tutor generates Socratic replies.
type Tutor struct {
	provider llm.Provider
	cfg      Config
	log      zerolog.Logger
}

// New creates a Tutor.
func New(provider llm.Provider, cfg Config, log zerolog.Logger) *Tutor {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultConfig().HistoryWindow
	}
	return &Tutor{provider: provider, cfg: cfg, log: log}
}

// StartSession produces the opening message for a new session.
func (t *Tutor) StartSession(ctx context.Context, homeworkText string, subject domain.Subject, studentLanguage string) (*Reply, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeTutorStart)
	text, err := t.generate(ctx, buildStartPrompt(homeworkText, subject, studentLanguage))
	if err != nil {
		return nil, &UnavailableError{Op: "start session", Err: err}
	}
	return t.reply(text, nil), nil
}

// ContinueConversation answers the student's latest message.
func (t *Tutor) ContinueConversation(ctx context.Context, in ConversationInput) (*Reply, error) {
	state := in.Understanding
	if state == nil {
		s := understanding.Classify(in.History, in.StudentMessage)
		state = &s
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeTutor)
	text, err := t.generate(ctx, buildContinuePrompt(in, *state, t.cfg.HistoryWindow))
	if err != nil {
		return nil, &UnavailableError{Op: "continue conversation", Err: err}
	}
	return t.reply(text, state), nil
}

func (t *Tutor) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := t.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   t.cfg.MaxTokens,
		Temperature: t.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty tutor reply")
	}
	return text, nil
}

func (t *Tutor) reply(text string, state *understanding.State) *Reply {
	v := ValidateResponse(text)
	if !v.IsValid {
		t.log.Warn().Strs("phrases", v.Matches).Msg("tutor reply may reveal the answer")
	}
	return &Reply{Message: text, Understanding: state, Validation: v}
}
