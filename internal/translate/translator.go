// Package translate renders English homework and tutor text in the
// student's native language.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abhisek/eslens/internal/llm"
)

// Context selects the translation template.
type Context string

const (
	ContextHomework Context = "homework"
	ContextChat     Context = "chat"
	ContextGeneral  Context = "general"
)

// ParseContext maps s to a Context, defaulting to ContextGeneral.
func ParseContext(s string) Context {
	switch Context(strings.ToLower(s)) {
	case ContextHomework:
		return ContextHomework
	case ContextChat:
		return ContextChat
	}
	return ContextGeneral
}

// Result is the outcome of one translation. When the model fails,
// Translated equals Original and Error explains why.
type Result struct {
	Original       string `json:"original"`
	Translated     string `json:"translated"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Preserved      bool   `json:"preserved,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Degraded reports whether the translation fell back to the original text.
func (r *Result) Degraded() bool {
	return r.Error != ""
}

// Config holds translation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the translation defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2048,
		Temperature: 0.2,
	}
}

// Translator translates through the model.
type Translator struct {
	provider llm.Provider
	cfg      Config
	log      zerolog.Logger
}

// NewTranslator creates a Translator.
func NewTranslator(provider llm.Provider, cfg Config, log zerolog.Logger) *Translator {
	return &Translator{provider: provider, cfg: cfg, log: log}
}

// Translate renders text in targetLanguage. English targets return the
// input untouched without calling the model. Model failures degrade to the
// original text; the only error returned is the caller's cancellation.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage string, kind Context) (*Result, error) {
	res := &Result{
		Original:       text,
		Translated:     text,
		SourceLanguage: English,
		TargetLanguage: targetLanguage,
	}

	if IsEnglish(targetLanguage) {
		res.TargetLanguage = English
		res.Preserved = true
		return res, nil
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeTranslate)
	resp, err := t.provider.Generate(ctx, llm.Request{
		System: translateSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: buildTranslatePrompt(text, DisplayName(targetLanguage), kind),
		}},
		MaxTokens:   t.cfg.MaxTokens,
		Temperature: t.cfg.Temperature,
	})
	if err == nil && resp.Text() == "" {
		err = fmt.Errorf("empty translation")
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		t.log.Warn().Err(err).
			Str("target", targetLanguage).
			Str("context", string(kind)).
			Msg("translation failed, keeping original text")
		res.Error = err.Error()
		return res, nil
	}

	res.Translated = resp.Text()
	return res, nil
}

// DetectLanguage asks the model which language text is written in and
// returns the lower-case English name, or "unknown".
func (t *Translator) DetectLanguage(ctx context.Context, text string) string {
	ctx = llm.WithPurpose(ctx, llm.PurposeDetectLanguage)
	resp, err := t.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildDetectPrompt(text)}},
		MaxTokens:   16,
		Temperature: 0,
	})
	if err != nil {
		t.log.Warn().Err(err).Msg("language detection failed")
		return "unknown"
	}

	lang := strings.ToLower(strings.Trim(resp.Text(), " \t\n.\"'"))
	if lang == "" {
		return "unknown"
	}
	return lang
}
