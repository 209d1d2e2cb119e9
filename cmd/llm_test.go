package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/abhisek/eslens/internal/store"
)

func TestParsePurpose(t *testing.T) {
	for _, ok := range []string{"", "extract", "tutor-start"} {
		if got, err := parsePurpose(ok); err != nil || got != ok {
			t.Errorf("parsePurpose(%q) = %q, %v", ok, got, err)
		}
	}
	_, err := parsePurpose("lesson")
	if err == nil || !strings.Contains(err.Error(), "detect-language") {
		t.Errorf("expected error listing stages, got %v", err)
	}
}

func TestPrintStageUsage_PipelineOrder(t *testing.T) {
	var buf bytes.Buffer
	printStageUsage(&buf, []store.LLMUsage{
		{Purpose: "unknown", Calls: 1},
		{Purpose: "tutor", Calls: 4, InputTokens: 100, OutputTokens: 20},
		{Purpose: "extract", Calls: 1, InputTokens: 1000, OutputTokens: 80},
	})
	out := buf.String()

	extract := strings.Index(out, "extract")
	tutor := strings.Index(out, "tutor")
	unknown := strings.Index(out, "unknown")
	if extract < 0 || tutor < extract || unknown < tutor {
		t.Fatalf("stages out of order:\n%s", out)
	}
	if !strings.Contains(out, "1200") {
		t.Errorf("total tokens missing:\n%s", out)
	}
}

func TestPrintModelCost_UnpricedModels(t *testing.T) {
	var buf bytes.Buffer
	printModelCost(&buf, []store.LLMUsage{
		{Model: "gemini-2.5-flash", Calls: 2, InputTokens: 1_000_000},
		{Model: "local-llava", Calls: 1},
	})
	out := buf.String()
	for _, want := range []string{"$0.30", "TOTAL (partial)", "No pricing for: local-llava"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
