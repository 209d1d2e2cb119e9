package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/abhisek/eslens/internal/homework"
	"github.com/abhisek/eslens/internal/session"
	"github.com/abhisek/eslens/internal/translate"
	"github.com/abhisek/eslens/internal/tutor"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API routes.
type Handler struct {
	sessions   *session.Orchestrator
	translator *translate.Translator
	db         Pinger
	model      string
	log        zerolog.Logger
}

// NewHandler creates a Handler. model is reported by the health check.
func NewHandler(sessions *session.Orchestrator, translator *translate.Translator, db Pinger, model string, log zerolog.Logger) *Handler {
	return &Handler{
		sessions:   sessions,
		translator: translator,
		db:         db,
		model:      model,
		log:        log,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	database := "ok"
	if err := h.db.Ping(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("database ping failed")
		status, code, database = "degraded", http.StatusServiceUnavailable, "unreachable"
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"model":     h.model,
		"database":  database,
	})
}

func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{"languages": translate.SupportedLanguages()})
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// Room for the form fields around the image.
	r.Body = http.MaxBytesReader(w, r.Body, homework.MaxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(homework.MaxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image exceeds the 10MB limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, homework.MaxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	res, err := h.sessions.Intake(r.Context(), session.IntakeRequest{
		Image:    data,
		MIMEType: header.Header.Get("Content-Type"),
		Filename: header.Filename,
		Language: strings.TrimSpace(r.FormValue("language")),
	})
	var intakeErr *session.IntakeError
	if errors.As(err, &intakeErr) {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":          http.StatusText(http.StatusBadGateway),
			"message":        intakeErr.Error(),
			"sessionId":      intakeErr.SessionID,
			"needsBootstrap": true,
		})
		return
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	sess := res.Session
	translation := map[string]any{
		"original":   res.Translation.Original,
		"translated": res.Translation.Translated,
		"language":   res.Translation.TargetLanguage,
	}
	if res.Translation.Degraded() {
		translation["error"] = res.Translation.Error
	}
	writeSuccess(w, map[string]any{
		"sessionId": sess.ID,
		"vision": map[string]any{
			"extractedText": sess.Homework.ExtractedText,
			"subject":       sess.Homework.Subject,
			"hasEquations":  sess.Homework.HasEquations,
			"difficulty":    sess.Homework.Difficulty,
			"questions":     sess.Homework.Questions,
		},
		"translation":  translation,
		"tutorMessage": res.Opening.Content,
	})
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessions.ListSessions(r.Context(), queryInt(r, "limit", session.DefaultListLimit))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	out := make([]summaryView, len(list))
	for i, s := range list {
		out[i] = summaryView(s)
	}
	writeSuccess(w, map[string]any{"sessions": out})
}

func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{"session": newSessionView(sess)})
}

// SessionImage streams back the uploaded worksheet photo.
func (h *Handler) SessionImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.sessions.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) BootstrapSession(w http.ResponseWriter, r *http.Request) {
	msg, err := h.sessions.Bootstrap(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{
		"tutorMessage": msg.Content,
		"message":      newMessageView(*msg),
	})
}

type chatRequest struct {
	SessionID      string `json:"sessionId"`
	Message        string `json:"message"`
	TranslateReply bool   `json:"translateReply"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "sessionId and message are required")
		return
	}

	turn, err := h.sessions.Chat(r.Context(), session.ChatRequest{
		SessionID:      req.SessionID,
		Message:        req.Message,
		TranslateReply: req.TranslateReply,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := map[string]any{
		"message":            turn.AssistantMessage.Content,
		"understandingLevel": turn.Understanding.Level,
		"suggestedNextStep":  turn.Understanding.NextStep,
		"confidence":         turn.Understanding.Confidence,
		"validation":         turn.Validation,
		"userMessage":        newMessageView(*turn.UserMessage),
		"assistantMessage":   newMessageView(*turn.AssistantMessage),
	}
	if turn.Translation != nil {
		resp["translatedMessage"] = turn.Translation.Translated
		if turn.Translation.Degraded() {
			resp["translationError"] = turn.Translation.Error
		}
	}
	writeSuccess(w, resp)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sess, msgs, err := h.sessions.History(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	history := make([]messageView, len(msgs))
	for i, m := range msgs {
		history[i] = newMessageView(m)
	}
	writeSuccess(w, map[string]any{
		"session":        newSessionView(sess),
		"history":        history,
		"needsBootstrap": len(msgs) == 0,
	})
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	Context        string `json:"context"`
}

func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" || req.TargetLanguage == "" {
		writeError(w, http.StatusBadRequest, "text and targetLanguage are required")
		return
	}

	res, err := h.translator.Translate(r.Context(), req.Text, req.TargetLanguage, translate.ParseContext(req.Context))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, res)
}

type detectRequest struct {
	Text string `json:"text"`
}

func (h *Handler) DetectLanguage(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	writeSuccess(w, map[string]any{"language": h.translator.DetectLanguage(r.Context(), req.Text)})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sessions.Stats(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{"stats": statsView(*stats)})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var extractErr *homework.ExtractionError
	switch {
	case errors.Is(err, session.ErrNoImage), errors.Is(err, session.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrNoStoredImage):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionCompleted), errors.Is(err, session.ErrAlreadyBootstrapped):
		return http.StatusConflict
	case errors.Is(err, session.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &extractErr), errors.Is(err, tutor.ErrTutorUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	log := zerolog.Ctx(r.Context())
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", code).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", code).Msg("request rejected")
	}
	writeError(w, code, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// writeSuccess writes fields alongside "success": true.
func writeSuccess(w http.ResponseWriter, fields any) {
	body := map[string]any{"success": true}
	switch f := fields.(type) {
	case map[string]any:
		for k, v := range f {
			body[k] = v
		}
	default:
		raw, err := json.Marshal(f)
		if err == nil {
			json.Unmarshal(raw, &body)
		}
	}
	writeJSON(w, http.StatusOK, body)
}
