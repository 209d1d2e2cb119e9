package server

import (
	"time"

	"github.com/abhisek/eslens/internal/domain"
)

type sessionView struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"userId"`
	Subject        domain.Subject         `json:"subject"`
	Language       string                 `json:"language"`
	Status         domain.Status          `json:"status"`
	Homework       domain.HomeworkContent `json:"homework"`
	TranslatedText string                 `json:"translatedText"`
	HasImage       bool                   `json:"hasImage"`
	CreatedAt      time.Time              `json:"createdAt"`
}

func newSessionView(s *domain.Session) sessionView {
	hw := s.Homework
	hw.RawResponse = ""
	return sessionView{
		ID:             s.ID,
		UserID:         s.UserID,
		Subject:        s.Subject(),
		Language:       s.Language,
		Status:         s.Status,
		Homework:       hw,
		TranslatedText: s.TranslatedText,
		HasImage:       s.ImageRef != "",
		CreatedAt:      s.CreatedAt,
	}
}

type messageView struct {
	ID        string      `json:"id"`
	Role      domain.Role `json:"role"`
	Content   string      `json:"content"`
	Language  string      `json:"language"`
	Timestamp time.Time   `json:"timestamp"`
}

func newMessageView(m domain.Message) messageView {
	return messageView{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Language:  m.Language,
		Timestamp: m.Timestamp,
	}
}

type summaryView struct {
	ID            string         `json:"id"`
	Subject       domain.Subject `json:"subject"`
	Language      string         `json:"language"`
	Status        domain.Status  `json:"status"`
	ExtractedText string         `json:"extractedText"`
	MessageCount  int            `json:"messageCount"`
	CreatedAt     time.Time      `json:"createdAt"`
}

type statsView struct {
	TotalSessions    int                    `json:"totalSessions"`
	TotalMessages    int                    `json:"totalMessages"`
	SubjectBreakdown map[domain.Subject]int `json:"subjectBreakdown"`
}
