package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/eslens/internal/domain"
)

// sessionRepo implements SessionRepo with ent's SQL builder over SQLite.
type sessionRepo struct {
	store *Store
}

var sessionColumns = []string{
	"id", "user_id", "image_ref", "extracted_text", "translated_text", "subject",
	"has_equations", "difficulty", "questions", "language", "status", "created_at",
}

var messageColumns = []string{
	"id", "session_id", "sequence", "role", "content", "language", "created_at",
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *sessionRepo) CreateSession(ctx context.Context, in NewSession) (string, error) {
	userID := in.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	questions, err := json.Marshal(in.Homework.Questions)
	if err != nil {
		return "", fmt.Errorf("encode questions: %w", err)
	}

	id := uuid.NewString()
	query, args := builder().Insert(sessionsTable.Name).
		Columns(sessionColumns...).
		Values(
			id, userID, in.ImageRef, in.Homework.ExtractedText, in.TranslatedText,
			string(in.Homework.Subject), in.Homework.HasEquations, string(in.Homework.Difficulty),
			string(questions), in.Language, string(domain.StatusActive), r.store.now().UnixNano(),
		).
		Query()
	if _, err := r.store.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

func (r *sessionRepo) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query, args := builder().Select(sessionColumns...).
		From(builder().Table(sessionsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	sess, err := scanSession(r.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

func (r *sessionRepo) ListSessions(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	sel := builder().Select("id", "subject", "language", "status", "extracted_text", "created_at").
		From(builder().Table(sessionsTable.Name)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionSummary
	var ids []any
	for rows.Next() {
		var (
			s               domain.SessionSummary
			subject, status string
			createdAt       int64
		)
		if err := rows.Scan(&s.ID, &subject, &s.Language, &status, &s.ExtractedText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Subject = domain.Subject(subject)
		s.Status = domain.Status(status)
		s.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	counts, err := r.messageCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].MessageCount = counts[out[i].ID]
	}
	return out, nil
}

func (r *sessionRepo) messageCounts(ctx context.Context, ids []any) (map[string]int, error) {
	query, args := builder().Select("session_id", entsql.Count("*")).
		From(builder().Table(messagesTable.Name)).
		Where(entsql.In("session_id", ids...)).
		GroupBy("session_id").
		Query()

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(ids))
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan message count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *sessionRepo) SetStatus(ctx context.Context, id string, status domain.Status) error {
	query, args := builder().Update(sessionsTable.Name).
		Set("status", string(status)).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update session status: session %s not found", id)
	}
	return nil
}

func (r *sessionRepo) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content, language string) (*domain.Message, error) {
	s := r.store
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	last, err := r.lastTimestamp(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ts := s.now().UnixNano()
	if ts < last {
		ts = last
	}

	seq, err := s.seq.Next(ctx)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sequence:  seq,
		Role:      role,
		Content:   content,
		Language:  language,
		Timestamp: time.Unix(0, ts).UTC(),
	}

	query, args := builder().Insert(messagesTable.Name).
		Columns(messageColumns...).
		Values(msg.ID, sessionID, seq, string(role), content, language, ts).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (r *sessionRepo) lastTimestamp(ctx context.Context, sessionID string) (int64, error) {
	query, args := builder().Select(entsql.Max("created_at")).
		From(builder().Table(messagesTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	var last sql.NullInt64
	if err := r.store.db.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return 0, fmt.Errorf("last message timestamp: %w", err)
	}
	return last.Int64, nil
}

func (r *sessionRepo) GetHistory(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	sel := builder().Select(messageColumns...).
		From(builder().Table(messagesTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var (
			m         domain.Message
			role      string
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sequence, &role, &m.Content, &m.Language, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = domain.Role(role)
		m.Timestamp = time.Unix(0, createdAt).UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}

func (r *sessionRepo) UserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	stats := &domain.UserStats{SubjectBreakdown: make(map[domain.Subject]int)}

	query, args := builder().Select("subject", entsql.Count("*")).
		From(builder().Table(sessionsTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		GroupBy("subject").
		Query()
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("subject breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var subject string
		var n int
		if err := rows.Scan(&subject, &n); err != nil {
			return nil, fmt.Errorf("scan subject count: %w", err)
		}
		stats.SubjectBreakdown[domain.Subject(subject)] = n
		stats.TotalSessions += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	t := builder().Table(messagesTable.Name)
	st := builder().Table(sessionsTable.Name)
	query, args = builder().Select(entsql.Count("*")).
		From(t).
		Join(st).On(t.C("session_id"), st.C("id")).
		Where(entsql.EQ(st.C("user_id"), userID)).
		Query()
	if err := r.store.db.QueryRowContext(ctx, query, args...).Scan(&stats.TotalMessages); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s                           domain.Session
		subject, difficulty, status string
		questions                   string
		createdAt                   int64
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.ImageRef, &s.Homework.ExtractedText, &s.TranslatedText, &subject,
		&s.Homework.HasEquations, &difficulty, &questions, &s.Language, &status, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	s.Homework.Subject = domain.Subject(subject)
	s.Homework.Difficulty = domain.Difficulty(difficulty)
	s.Status = domain.Status(status)
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	if questions != "" {
		if err := json.Unmarshal([]byte(questions), &s.Homework.Questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
	}
	return &s, nil
}
