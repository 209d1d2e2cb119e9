package store

import (
	"context"
	"time"

	"github.com/abhisek/eslens/internal/domain"
)

// DefaultUserID owns every session until accounts exist.
const DefaultUserID = "default_user"

// NewSession is the input for SessionRepo.CreateSession.
type NewSession struct {
	UserID         string
	ImageRef       string
	Homework       domain.HomeworkContent
	TranslatedText string
	Language       string
}

// SessionRepo persists tutoring sessions and their conversation.
type SessionRepo interface {
	// CreateSession stores a new active session and returns its ID.
	CreateSession(ctx context.Context, s NewSession) (string, error)

	// GetSession returns the session, or nil if it does not exist.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns up to limit sessions, newest first.
	ListSessions(ctx context.Context, limit int) ([]domain.SessionSummary, error)

	// SetStatus updates the session status.
	SetStatus(ctx context.Context, id string, status domain.Status) error

	// AppendMessage stores a message and returns it with its assigned ID,
	// sequence and timestamp. Timestamps never decrease within a session.
	AppendMessage(ctx context.Context, sessionID string, role domain.Role, content, language string) (*domain.Message, error)

	// GetHistory returns the most recent limit messages in chronological
	// order. A non-positive limit returns the whole conversation.
	GetHistory(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// UserStats aggregates a user's sessions and messages.
	UserStats(ctx context.Context, userID string) (*domain.UserStats, error)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact purpose match when set
	From    time.Time
	To      time.Time
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates calls and tokens for one purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo records LLM calls.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// EventQuerier reads back recorded LLM calls.
type EventQuerier interface {
	EventRepo
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
