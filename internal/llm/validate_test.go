package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func worksheetSchema() *Schema {
	return &Schema{
		Name:        "test-worksheet",
		Description: "A worksheet reading",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"extractedText": map[string]any{"type": "string"},
				"hasEquations":  map[string]any{"type": "boolean"},
				"subject":       map[string]any{"type": "string", "enum": []any{"math", "science", "other"}},
				"questions": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []any{"extractedText", "hasEquations"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"complete", `{"extractedText":"3x + 5 = 14","hasEquations":true,"subject":"math","questions":["Solve for x"]}`, false},
		{"optional fields omitted", `{"extractedText":"Read chapter 2","hasEquations":false}`, false},
		{"missing required", `{"extractedText":"3x + 5 = 14"}`, true},
		{"wrong type", `{"extractedText":"x","hasEquations":"yes"}`, true},
		{"enum violation", `{"extractedText":"x","hasEquations":false,"subject":"art"}`, true},
		{"array item type", `{"extractedText":"x","hasEquations":false,"questions":[1,2]}`, true},
		{"not json", "Here is the text: 3x + 5 = 14", true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(worksheetSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got %T", err)
			}
			if string(inv.Content) != tt.raw {
				t.Fatalf("raw content not preserved: %q", inv.Content)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage("plain tutor text")); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestUnfence(t *testing.T) {
	tests := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1]\n```", `[1]`},
		{"```{\"a\":1}```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"```", "```"},
	}
	for _, tt := range tests {
		if got := string(unfence(json.RawMessage(tt.in))); got != tt.want {
			t.Errorf("unfence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateResponse_SchemaCompiledOnce(t *testing.T) {
	s := worksheetSchema()
	s.Name = "test-worksheet-cache"
	for range 3 {
		if err := validateResponse(s, json.RawMessage(`{"extractedText":"x","hasEquations":false}`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	compiledSchemas.Lock()
	_, ok := compiledSchemas.byName["test-worksheet-cache"]
	compiledSchemas.Unlock()
	if !ok {
		t.Fatal("schema should be cached by name")
	}
}
