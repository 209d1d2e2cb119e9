// Package session coordinates the tutoring pipeline. Intake runs the
// extractor, translator and tutor over an uploaded worksheet; chat turns run
// the classifier and tutor over the persisted conversation.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/homework"
	"github.com/abhisek/eslens/internal/storage"
	"github.com/abhisek/eslens/internal/store"
	"github.com/abhisek/eslens/internal/translate"
	"github.com/abhisek/eslens/internal/tutor"
	"github.com/abhisek/eslens/internal/understanding"
)

// DefaultListLimit caps ListSessions when no limit is given.
const DefaultListLimit = 50

// Extractor turns a worksheet image into homework content.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*domain.HomeworkContent, error)
}

// Translator renders text in the student's language.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string, kind translate.Context) (*translate.Result, error)
}

// Tutor produces Socratic replies.
type Tutor interface {
	StartSession(ctx context.Context, homeworkText string, subject domain.Subject, studentLanguage string) (*tutor.Reply, error)
	ContinueConversation(ctx context.Context, in tutor.ConversationInput) (*tutor.Reply, error)
}

// Deps are the collaborators of an Orchestrator. Images may be nil, in
// which case uploads are not retained.
type Deps struct {
	Repo       store.SessionRepo
	Extractor  Extractor
	Translator Translator
	Tutor      Tutor
	Images     storage.ImageStore
	Log        zerolog.Logger
}

// Config holds orchestration settings.
type Config struct {
	// DefaultLanguage is used when an intake request names none.
	DefaultLanguage string

	// HistoryLimit bounds the messages read per chat turn. Zero reads the
	// whole conversation so the tutor can report how many turns it omitted.
	HistoryLimit int
}

// DefaultConfig returns the orchestration defaults.
func DefaultConfig() Config {
	return Config{DefaultLanguage: "spanish"}
}

// Orchestrator runs intake and chat turns against the store.
type Orchestrator struct {
	repo       store.SessionRepo
	extractor  Extractor
	translator Translator
	tutor      Tutor
	images     storage.ImageStore
	log        zerolog.Logger
	cfg        Config
	locks      *keyedMutex
}

// New creates an Orchestrator.
func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultConfig().DefaultLanguage
	}
	return &Orchestrator{
		repo:       deps.Repo,
		extractor:  deps.Extractor,
		translator: deps.Translator,
		tutor:      deps.Tutor,
		images:     deps.Images,
		log:        deps.Log,
		cfg:        cfg,
		locks:      newKeyedMutex(),
	}
}

// IntakeRequest is an uploaded worksheet.
type IntakeRequest struct {
	Image    []byte
	MIMEType string
	Filename string
	Language string
	UserID   string
}

// IntakeResult is a freshly created session with its translation and the
// tutor's opening message.
type IntakeResult struct {
	Session     *domain.Session
	Translation *translate.Result
	Opening     *domain.Message
}

// Intake extracts, translates and stores a worksheet, then asks the tutor
// for an opening message. Extraction or translation failures leave no
// session behind. A tutor failure after the session was stored returns the
// partial result together with an *IntakeError.
func (o *Orchestrator) Intake(ctx context.Context, req IntakeRequest) (*IntakeResult, error) {
	if len(req.Image) == 0 {
		return nil, ErrNoImage
	}
	if len(req.Image) > homework.MaxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(req.Image))
	}
	mimeType := req.MIMEType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = homework.MIMETypeFor(req.Filename)
	}
	if !homework.IsAllowedMIMEType(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mimeType)
	}
	lang := req.Language
	if lang == "" {
		lang = o.cfg.DefaultLanguage
	}
	userID := req.UserID
	if userID == "" {
		userID = store.DefaultUserID
	}

	log := o.log.With().Str("language", lang).Logger()
	log.Info().Int("bytes", len(req.Image)).Str("mime", mimeType).Msg("homework intake started")

	content, err := o.extractor.Extract(ctx, req.Image, mimeType)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("subject", string(content.Subject)).Int("questions", len(content.Questions)).Msg("homework extracted")

	tr, err := o.translator.Translate(ctx, content.ExtractedText, lang, translate.ContextHomework)
	if err != nil {
		return nil, fmt.Errorf("translate homework: %w", err)
	}

	var imageRef string
	if o.images != nil {
		imageRef, err = o.images.Put(ctx, req.Image, mimeType)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
	}

	id, err := o.repo.CreateSession(ctx, store.NewSession{
		UserID:         userID,
		ImageRef:       imageRef,
		Homework:       *content,
		TranslatedText: tr.Translated,
		Language:       lang,
	})
	if err != nil {
		o.discardImage(ctx, imageRef, log)
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess, err := o.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	log = log.With().Str("session_id", id).Logger()
	log.Info().Str("subject", string(content.Subject)).Bool("translation_degraded", tr.Degraded()).Msg("session created")

	res := &IntakeResult{Session: sess, Translation: tr}

	unlock := o.locks.Lock(id)
	defer unlock()

	opening, err := o.open(ctx, sess)
	if err != nil {
		log.Error().Err(err).Msg("tutor did not start, session needs bootstrap")
		return res, &IntakeError{SessionID: id, Err: err}
	}
	res.Opening = opening
	return res, nil
}

// discardImage removes an upload that no session row points to.
func (o *Orchestrator) discardImage(ctx context.Context, ref string, log zerolog.Logger) {
	if ref == "" {
		return
	}
	if err := o.images.Delete(context.WithoutCancel(ctx), ref); err != nil {
		log.Warn().Err(err).Str("image", ref).Msg("orphaned homework image left in store")
	}
}

// Bootstrap asks the tutor for the opening message of a session that has
// none, typically after an intake whose tutor call failed.
func (o *Orchestrator) Bootstrap(ctx context.Context, sessionID string) (*domain.Message, error) {
	unlock := o.locks.Lock(sessionID)
	defer unlock()

	sess, err := o.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history, err := o.repo.GetHistory(ctx, sessionID, 1)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if len(history) > 0 {
		return nil, ErrAlreadyBootstrapped
	}
	return o.open(ctx, sess)
}

func (o *Orchestrator) open(ctx context.Context, sess *domain.Session) (*domain.Message, error) {
	reply, err := o.tutor.StartSession(ctx, sess.Homework.ExtractedText, sess.Subject(), sess.Language)
	if err != nil {
		return nil, err
	}
	msg, err := o.repo.AppendMessage(ctx, sess.ID, domain.RoleAssistant, reply.Message, translate.English)
	if err != nil {
		return nil, fmt.Errorf("append opening message: %w", err)
	}
	return msg, nil
}

// ChatRequest is one student turn.
type ChatRequest struct {
	SessionID string
	Message   string

	// TranslateReply also renders the tutor reply in the session language.
	TranslateReply bool
}

// TurnResult is the outcome of a chat turn. Understanding is advisory and
// never persisted.
type TurnResult struct {
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
	Understanding    understanding.State
	Validation       tutor.Validation
	Translation      *translate.Result
}

// Chat persists the student's message, asks the tutor for a reply and
// persists that too. The student's message is stored before the tutor is
// called, so a tutor failure never loses it. Turns on the same session run
// one at a time.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) (*TurnResult, error) {
	text := sanitizeMessage(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	unlock := o.locks.Lock(req.SessionID)
	defer unlock()

	sess, err := o.activeSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	log := o.log.With().Str("session_id", sess.ID).Logger()

	history, err := o.repo.GetHistory(ctx, sess.ID, o.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	userMsg, err := o.repo.AppendMessage(ctx, sess.ID, domain.RoleUser, text, sess.Language)
	if err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	state := understanding.Classify(history, text)
	log.Debug().Str("level", string(state.Level)).Strs("matched", state.Matched).Msg("student message classified")

	reply, err := o.tutor.ContinueConversation(ctx, tutor.ConversationInput{
		History:         history,
		StudentMessage:  text,
		HomeworkContext: sess.Homework.ExtractedText,
		Subject:         sess.Subject(),
		Understanding:   &state,
	})
	if err != nil {
		log.Error().Err(err).Int64("user_sequence", userMsg.Sequence).Msg("tutor turn failed")
		return nil, err
	}

	assistantMsg, err := o.repo.AppendMessage(ctx, sess.ID, domain.RoleAssistant, reply.Message, translate.English)
	if err != nil {
		return nil, fmt.Errorf("append tutor message: %w", err)
	}

	res := &TurnResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Understanding:    state,
		Validation:       reply.Validation,
	}

	if req.TranslateReply && !translate.IsEnglish(sess.Language) {
		tr, err := o.translator.Translate(ctx, reply.Message, sess.Language, translate.ContextChat)
		if err != nil {
			log.Warn().Err(err).Msg("reply translation cancelled")
		} else {
			res.Translation = tr
		}
	}
	return res, nil
}

// Complete marks a session completed. Completing a completed session is a
// no-op.
func (o *Orchestrator) Complete(ctx context.Context, sessionID string) (*domain.Session, error) {
	unlock := o.locks.Lock(sessionID)
	defer unlock()

	sess, err := o.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == domain.StatusCompleted {
		return sess, nil
	}
	if err := o.repo.SetStatus(ctx, sessionID, domain.StatusCompleted); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	sess.Status = domain.StatusCompleted
	o.log.Info().Str("session_id", sessionID).Msg("session completed")
	return sess, nil
}

// History returns a session and its whole conversation in order.
func (o *Orchestrator) History(ctx context.Context, sessionID string) (*domain.Session, []domain.Message, error) {
	sess, err := o.session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := o.repo.GetHistory(ctx, sessionID, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("get history: %w", err)
	}
	return sess, msgs, nil
}

// Image returns the worksheet photo a session was created from.
func (o *Orchestrator) Image(ctx context.Context, sessionID string) ([]byte, string, error) {
	sess, err := o.session(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	if o.images == nil || sess.ImageRef == "" {
		return nil, "", ErrNoStoredImage
	}
	data, contentType, err := o.images.Get(ctx, sess.ImageRef)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", fmt.Errorf("%w: %s", ErrNoStoredImage, sess.ImageRef)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load image: %w", err)
	}
	return data, contentType, nil
}

// ListSessions returns recent sessions, newest first.
func (o *Orchestrator) ListSessions(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return o.repo.ListSessions(ctx, limit)
}

// Stats aggregates a user's activity. An empty userID means the default
// user.
func (o *Orchestrator) Stats(ctx context.Context, userID string) (*domain.UserStats, error) {
	if userID == "" {
		userID = store.DefaultUserID
	}
	return o.repo.UserStats(ctx, userID)
}

func (o *Orchestrator) session(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := o.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (o *Orchestrator) activeSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := o.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == domain.StatusCompleted {
		return nil, ErrSessionCompleted
	}
	return sess, nil
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
