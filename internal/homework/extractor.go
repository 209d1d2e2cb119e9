// Package homework turns a photo of a homework assignment into structured
// text using a multimodal model.
package homework

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/llm"
)

// ExtractionError reports that the model could not be reached. Unlike a
// malformed answer, this is fatal for the intake.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("homework extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor reads homework images.
type Extractor struct {
	provider llm.Provider
	cfg      Config
	log      zerolog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(provider llm.Provider, cfg Config, log zerolog.Logger) *Extractor {
	return &Extractor{provider: provider, cfg: cfg, log: log}
}

// Extract sends the image to the model and parses its answer. Output that
// is not the requested JSON degrades to a best-effort reading of the raw
// text; only an unreachable model fails.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) (*domain.HomeworkContent, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeExtract)

	req := llm.Request{
		System: extractSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: extractUserPrompt,
			Images:  []llm.Image{{Data: image, MIMEType: mimeType}},
		}},
		Schema:      ContentSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		if partial := unparsedOutput(err); len(partial) > 0 {
			e.log.Warn().Err(err).Msg("extraction output unusable as JSON, parsing leniently")
			return Parse(string(partial)), nil
		}
		return nil, &ExtractionError{Err: err}
	}

	return Parse(string(resp.Content)), nil
}

// unparsedOutput returns what the model wrote when the call reached it but
// the output failed validation or was cut off at the token limit.
func unparsedOutput(err error) json.RawMessage {
	var (
		inv    *llm.ErrInvalidResponse
		maxTok *llm.ErrMaxTokensExceeded
	)
	switch {
	case errors.As(err, &inv):
		return inv.Content
	case errors.As(err, &maxTok):
		return maxTok.Content
	}
	return nil
}

type contentOutput struct {
	ExtractedText string   `json:"extractedText"`
	Subject       string   `json:"subject"`
	HasEquations  bool     `json:"hasEquations"`
	Difficulty    string   `json:"difficulty"`
	Questions     []string `json:"questions"`
}

// Parse reads model output into HomeworkContent. Markdown code fences are
// stripped first; anything that still is not a JSON object becomes the
// extracted text itself.
func Parse(raw string) *domain.HomeworkContent {
	body := StripCodeFence(raw)

	var out contentOutput
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		text := strings.TrimSpace(raw)
		return &domain.HomeworkContent{
			ExtractedText: text,
			Subject:       domain.SubjectOther,
			HasEquations:  false,
			Difficulty:    domain.DifficultyMiddleSchool,
			Questions:     []string{text},
			RawResponse:   raw,
		}
	}

	c := &domain.HomeworkContent{
		ExtractedText: strings.TrimSpace(out.ExtractedText),
		Subject:       domain.ParseSubject(out.Subject),
		HasEquations:  out.HasEquations,
		Difficulty:    domain.ParseDifficulty(out.Difficulty),
		RawResponse:   raw,
	}
	for _, q := range out.Questions {
		if q = strings.TrimSpace(q); q != "" {
			c.Questions = append(c.Questions, q)
		}
	}
	if len(c.Questions) == 0 {
		c.Questions = []string{c.ExtractedText}
	}
	return c
}

// StripCodeFence removes a surrounding ```json ... ``` block.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string, e.g. "json".
		if !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// MIMETypeFor guesses an image MIME type from a file name, defaulting to
// image/jpeg.
func MIMETypeFor(filename string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return "image/jpeg"
}

// IsImageFile reports whether filename has a homework image extension.
func IsImageFile(filename string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// IsAllowedMIMEType reports whether mimeType is an accepted homework image.
func IsAllowedMIMEType(mimeType string) bool {
	mt, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(strings.ToLower(mt)) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
