package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiContents_InlinesImages(t *testing.T) {
	contents := buildGeminiContents([]Message{
		{
			Role:    RoleUser,
			Content: "Extract the homework.",
			Images:  []Image{{Data: []byte("gif"), MIMEType: "image/gif"}},
		},
		{Role: RoleAssistant, Content: "Done."},
	})

	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" {
		t.Fatalf("unexpected roles %q, %q", contents[0].Role, contents[1].Role)
	}
	parts := contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected image + text parts, got %d", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "image/gif" {
		t.Fatalf("first part should be inline image data: %+v", parts[0])
	}
	if parts[1].Text != "Extract the homework." {
		t.Fatalf("second part text = %q", parts[1].Text)
	}
	if len(contents[1].Parts) != 1 {
		t.Fatalf("assistant message should have a single text part")
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"extractedText": map[string]any{"type": "string"},
			"hasEquations":  map[string]any{"type": "boolean"},
			"difficulty":    map[string]any{"type": "string", "enum": []any{"elementary", "middle_school", "high_school"}},
			"questions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"extractedText", "hasEquations"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["extractedText"].Type != "STRING" {
		t.Fatalf("expected STRING for extractedText, got %s", schema.Properties["extractedText"].Type)
	}
	if schema.Properties["hasEquations"].Type != "BOOLEAN" {
		t.Fatalf("expected BOOLEAN for hasEquations, got %s", schema.Properties["hasEquations"].Type)
	}
	if len(schema.Properties["difficulty"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["difficulty"].Enum))
	}
	if schema.Properties["questions"].Items.Type != "STRING" {
		t.Fatalf("expected STRING for question items, got %s", schema.Properties["questions"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestBuildGeminiSchema_OrderingAndNullable(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject":       map[string]any{"type": "string"},
			"note":          map[string]any{"type": []any{"string", "null"}},
			"extractedText": map[string]any{"type": "string"},
			"hasEquations":  map[string]any{"type": "boolean"},
		},
		"required": []any{"extractedText", "subject"},
	}

	schema := buildGeminiSchema(def)

	want := []string{"extractedText", "subject", "hasEquations", "note"}
	if len(schema.PropertyOrdering) != len(want) {
		t.Fatalf("ordering = %v", schema.PropertyOrdering)
	}
	for i, name := range want {
		if schema.PropertyOrdering[i] != name {
			t.Fatalf("ordering = %v, want %v", schema.PropertyOrdering, want)
		}
	}
	note := schema.Properties["note"]
	if note.Type != genai.TypeString || note.Nullable == nil || !*note.Nullable {
		t.Fatalf("note should be a nullable string, got %+v", note)
	}
}
