// Package domain holds the records shared by the tutoring pipeline: the
// homework extracted from an image, the session built around it, and the
// conversation messages exchanged inside that session.
package domain

import "time"

// Subject is the school subject a homework image was classified into.
type Subject string

const (
	SubjectMath    Subject = "math"
	SubjectScience Subject = "science"
	SubjectReading Subject = "reading"
	SubjectHistory Subject = "history"
	SubjectOther   Subject = "other"
)

// ParseSubject normalises s, mapping anything unrecognised to SubjectOther.
func ParseSubject(s string) Subject {
	switch Subject(s) {
	case SubjectMath, SubjectScience, SubjectReading, SubjectHistory:
		return Subject(s)
	}
	return SubjectOther
}

// Difficulty is the estimated grade band of the homework.
type Difficulty string

const (
	DifficultyElementary   Difficulty = "elementary"
	DifficultyMiddleSchool Difficulty = "middle_school"
	DifficultyHighSchool   Difficulty = "high_school"
)

// ParseDifficulty normalises s, defaulting to DifficultyMiddleSchool.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyElementary, DifficultyHighSchool:
		return Difficulty(s)
	}
	return DifficultyMiddleSchool
}

// HomeworkContent is the structured reading of one homework image.
type HomeworkContent struct {
	ExtractedText string     `json:"extractedText"`
	Subject       Subject    `json:"subject"`
	HasEquations  bool       `json:"hasEquations"`
	Difficulty    Difficulty `json:"difficulty"`
	Questions     []string   `json:"questions"`

	// RawResponse is the oracle output the content was parsed from.
	RawResponse string `json:"rawResponse,omitempty"`
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is one tutoring conversation anchored to a single homework image.
type Session struct {
	ID             string
	UserID         string
	ImageRef       string
	Homework       HomeworkContent
	TranslatedText string
	Language       string
	Status         Status
	CreatedAt      time.Time
}

// Subject returns the session's homework subject.
func (s *Session) Subject() Subject {
	return s.Homework.Subject
}

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Within a session messages are
// ordered by (Timestamp, Sequence).
type Message struct {
	ID        string
	SessionID string
	Sequence  int64
	Role      Role
	Content   string
	Language  string
	Timestamp time.Time
}

// SessionSummary is the list view of a session.
type SessionSummary struct {
	ID            string
	Subject       Subject
	Language      string
	Status        Status
	ExtractedText string
	MessageCount  int
	CreatedAt     time.Time
}

// UserStats aggregates a user's activity.
type UserStats struct {
	TotalSessions    int
	TotalMessages    int
	SubjectBreakdown map[Subject]int
}
