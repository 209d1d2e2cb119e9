package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/eslens/internal/store"
)

// LoggingProvider records every generation call as a log line and, when a
// repo is set, as an llm_request_events row that `eslens llm` reads back.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
	log      zerolog.Logger
}

// WithLogging wraps p. provider names the backend ("gemini", "openai", ...)
// in the recorded events. repo may be nil.
func WithLogging(p Provider, provider string, repo store.EventRepo, log zerolog.Logger) Provider {
	return &LoggingProvider{inner: p, provider: provider, events: repo, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	data := l.event(PurposeFrom(ctx), req, resp, err, time.Since(start))
	l.logCall(data, err)

	if l.events != nil {
		// Calls cut short by the caller are still worth keeping.
		if recErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), data); recErr != nil {
			l.log.Warn().Err(recErr).Msg("failed to record llm request event")
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) event(purpose Purpose, req Request, resp *Response, err error, took time.Duration) store.LLMRequestEventData {
	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     string(purpose),
		LatencyMs:   took.Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if resp != nil {
		data.Model = resp.Model
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		// Keep what the model said when it failed validation.
		var invalid *ErrInvalidResponse
		if errors.As(err, &invalid) && data.ResponseBody == "" {
			data.ResponseBody = string(invalid.Content)
		}
	}
	return data
}

func (l *LoggingProvider) logCall(data store.LLMRequestEventData, err error) {
	ev := l.log.Debug()
	if err != nil {
		ev = l.log.Warn().Err(err)
	}
	ev.Str("provider", data.Provider).
		Str("purpose", data.Purpose).
		Str("model", data.Model).
		Int("input_tokens", data.InputTokens).
		Int("output_tokens", data.OutputTokens).
		Int64("latency_ms", data.LatencyMs).
		Msg("llm request")
}

// describeRequest renders a request for the event log. Images appear as a
// one-line summary; their bytes are never stored.
func describeRequest(req Request) string {
	var b strings.Builder
	section := func(label, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", label, body)
	}

	if req.System != "" {
		section("system", req.System)
	}
	for _, m := range req.Messages {
		var body strings.Builder
		for _, img := range m.Images {
			fmt.Fprintf(&body, "<image %s, %d bytes>\n", img.MIMEType, len(img.Data))
		}
		body.WriteString(m.Content)
		section(string(m.Role), body.String())
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			section("schema: "+req.Schema.Name, string(def))
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
