package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func unavailable() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}}
}

func invalid() MockResponse {
	return MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage("not json"), Err: errors.New("parse")}}
}

func ok(text string) MockResponse {
	return MockResponse{Content: json.RawMessage(text)}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt succeeds", []MockResponse{ok("hi")}, false, 1},
		{"transient then success", []MockResponse{unavailable(), ok("hi")}, false, 2},
		{"rate limit honours retry-after", []MockResponse{
			{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}}, ok("hi"),
		}, false, 2},
		{"exhausts attempts", []MockResponse{unavailable(), unavailable(), unavailable(), ok("late")}, true, 3},
		{"max tokens is final", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, ok("hi")}, true, 1},
		{"blocked photo is final", []MockResponse{{Err: &ErrContentBlocked{Reason: "SAFETY"}}, ok("hi")}, true, 1},
		{"bad api key is final", []MockResponse{{Err: &ErrRequestRejected{StatusCode: 401, Err: errors.New("401")}}, ok("hi")}, true, 1},
		{"cancellation is final", []MockResponse{{Err: context.Canceled}, ok("hi")}, true, 1},
		{"invalid output retried once", []MockResponse{invalid(), invalid(), ok("hi")}, true, 2},
		{"invalid output then success", []MockResponse{invalid(), ok("hi")}, false, 2},
		{"invalid output after outage", []MockResponse{unavailable(), invalid(), ok("hi")}, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, fastRetry(), zerolog.Nop())

			resp, err := p.Generate(context.Background(), Request{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && resp.Text() != "hi" {
				t.Fatalf("unexpected content %q", resp.Text())
			}
			if mock.CallCount() != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, mock.CallCount())
			}
		})
	}
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	mock := NewMockProvider(unavailable(), unavailable(), ok("hi"))
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Second, MaxWait: time.Second, Multiplier: 1}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected a single attempt, got %d", mock.CallCount())
	}
}

func TestRetry_BackoffCapped(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: 200 * time.Millisecond, Multiplier: 10}}
	for attempt := range 4 {
		wait := r.backoff(attempt, errors.New("x"))
		if wait > 240*time.Millisecond {
			t.Fatalf("attempt %d waited %s, above cap plus jitter", attempt, wait)
		}
	}
	if got := r.backoff(0, &ErrRateLimit{RetryAfter: 3 * time.Second}); got != 3*time.Second {
		t.Fatalf("retry-after should win, got %s", got)
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	if p := WithRetry(NewMockProvider(), fastRetry(), zerolog.Nop()); p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
}
