package homework

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/llm"
)

func newTestExtractor(responses ...llm.MockResponse) (*Extractor, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	return NewExtractor(mock, DefaultConfig(), zerolog.Nop()), mock
}

func TestExtract_StructuredOutput(t *testing.T) {
	ex, mock := newTestExtractor(llm.MockResponse{Content: json.RawMessage(`{
		"extractedText": "Solve for x: 3x + 5 = 14",
		"subject": "math",
		"hasEquations": true,
		"difficulty": "middle_school",
		"questions": ["Solve for x: 3x + 5 = 14"]
	}`)})

	img := []byte{0x89, 'P', 'N', 'G'}
	got, err := ex.Extract(context.Background(), img, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "Solve for x: 3x + 5 = 14", got.ExtractedText)
	assert.Equal(t, domain.SubjectMath, got.Subject)
	assert.True(t, got.HasEquations)
	assert.Equal(t, domain.DifficultyMiddleSchool, got.Difficulty)
	assert.Equal(t, []string{"Solve for x: 3x + 5 = 14"}, got.Questions)

	require.Equal(t, 1, mock.CallCount())
	call := mock.Calls[0]
	assert.Equal(t, ContentSchema, call.Schema)
	require.Len(t, call.Messages, 1)
	require.Len(t, call.Messages[0].Images, 1)
	assert.Equal(t, img, call.Messages[0].Images[0].Data)
	assert.Equal(t, "image/png", call.Messages[0].Images[0].MIMEType)
}

func TestExtract_NonJSONDegrades(t *testing.T) {
	ex, _ := newTestExtractor(llm.MockResponse{Content: json.RawMessage("Here is the text: 3x + 5 = 14")})

	got, err := ex.Extract(context.Background(), []byte("img"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "Here is the text: 3x + 5 = 14", got.ExtractedText)
	assert.Equal(t, domain.SubjectOther, got.Subject)
	assert.False(t, got.HasEquations)
	assert.Equal(t, domain.DifficultyMiddleSchool, got.Difficulty)
	assert.Equal(t, []string{"Here is the text: 3x + 5 = 14"}, got.Questions)
}

func TestExtract_InvalidResponseParsedLeniently(t *testing.T) {
	// Valid JSON that failed schema validation still yields what it can.
	ex, _ := newTestExtractor(llm.MockResponse{Err: &llm.ErrInvalidResponse{
		Content: json.RawMessage(`{"extractedText":"Name three causes of WW1","subject":"social studies"}`),
		Err:     errors.New("missing properties"),
	}})

	got, err := ex.Extract(context.Background(), []byte("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Name three causes of WW1", got.ExtractedText)
	assert.Equal(t, domain.SubjectOther, got.Subject)
	assert.Equal(t, []string{"Name three causes of WW1"}, got.Questions)
}

func TestExtract_TruncatedOutputDegrades(t *testing.T) {
	truncated := `{"extractedText": "Solve 3x + 5 = 14 and then`
	ex, _ := newTestExtractor(llm.MockResponse{Err: &llm.ErrMaxTokensExceeded{
		Content: json.RawMessage(truncated),
	}})

	got, err := ex.Extract(context.Background(), []byte("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, truncated, got.ExtractedText)
	assert.Equal(t, domain.SubjectOther, got.Subject)
	assert.Equal(t, []string{truncated}, got.Questions)
}

func TestExtract_TruncatedWithoutOutputFails(t *testing.T) {
	ex, _ := newTestExtractor(llm.MockResponse{Err: &llm.ErrMaxTokensExceeded{}})

	_, err := ex.Extract(context.Background(), []byte("img"), "image/jpeg")
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
}

func TestExtract_UnreachableFails(t *testing.T) {
	ex, _ := newTestExtractor(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("connection refused")}})

	_, err := ex.Extract(context.Background(), []byte("img"), "image/jpeg")
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)

	var unavail *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		text      string
		subject   domain.Subject
		diff      domain.Difficulty
		questions []string
	}{
		{
			name:      "fenced json",
			raw:       "```json\n{\"extractedText\":\"2 + 2\",\"subject\":\"math\",\"hasEquations\":true,\"difficulty\":\"elementary\",\"questions\":[\"2 + 2\"]}\n```",
			text:      "2 + 2",
			subject:   domain.SubjectMath,
			diff:      domain.DifficultyElementary,
			questions: []string{"2 + 2"},
		},
		{
			name:      "bare fence",
			raw:       "```\n{\"extractedText\":\"Label the cell\",\"subject\":\"science\",\"difficulty\":\"high_school\",\"questions\":[]}\n```",
			text:      "Label the cell",
			subject:   domain.SubjectScience,
			diff:      domain.DifficultyHighSchool,
			questions: []string{"Label the cell"},
		},
		{
			name:      "unknown enums normalised",
			raw:       `{"extractedText":"Read page 4","subject":"art","difficulty":"college","questions":["  ","Read page 4"]}`,
			text:      "Read page 4",
			subject:   domain.SubjectOther,
			diff:      domain.DifficultyMiddleSchool,
			questions: []string{"Read page 4"},
		},
		{
			name:      "prose",
			raw:       "  I cannot read this image clearly.  ",
			text:      "I cannot read this image clearly.",
			subject:   domain.SubjectOther,
			diff:      domain.DifficultyMiddleSchool,
			questions: []string{"I cannot read this image clearly."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.Equal(t, tt.text, got.ExtractedText)
			assert.Equal(t, tt.subject, got.Subject)
			assert.Equal(t, tt.diff, got.Difficulty)
			assert.Equal(t, tt.questions, got.Questions)
			assert.Equal(t, tt.raw, got.RawResponse)
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```{\"a\":1}```"))
	assert.Equal(t, `plain`, StripCodeFence("  plain "))
}

func TestMIMETypes(t *testing.T) {
	assert.Equal(t, "image/png", MIMETypeFor("worksheet.PNG"))
	assert.Equal(t, "image/jpeg", MIMETypeFor("photo.jpg"))
	assert.Equal(t, "image/jpeg", MIMETypeFor("scan"))

	assert.True(t, IsAllowedMIMEType("image/jpeg"))
	assert.True(t, IsAllowedMIMEType("image/webp; charset=binary"))
	assert.False(t, IsAllowedMIMEType("application/pdf"))
	assert.False(t, IsAllowedMIMEType(""))

	assert.True(t, IsImageFile("/tmp/page.WEBP"))
	assert.False(t, IsImageFile("notes.pdf"))
	assert.False(t, IsImageFile("scan"))
}
