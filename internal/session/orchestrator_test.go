package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/homework"
	"github.com/abhisek/eslens/internal/llm"
	"github.com/abhisek/eslens/internal/storage"
	"github.com/abhisek/eslens/internal/store"
	"github.com/abhisek/eslens/internal/translate"
	"github.com/abhisek/eslens/internal/tutor"
	"github.com/abhisek/eslens/internal/understanding"
)

func TestMain(m *testing.M) {
	// The genai client's opencensus dependency starts a stats worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const worksheetJSON = `{
	"extractedText": "3x+5=14",
	"subject": "math",
	"hasEquations": true,
	"difficulty": "middle_school",
	"questions": ["3x+5=14"]
}`

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}

type harness struct {
	orch       *Orchestrator
	repo       store.SessionRepo
	images     *storage.LocalStore
	dir        string
	extractLLM *llm.MockProvider
	translLLM  *llm.MockProvider
	tutorLLM   *llm.MockProvider
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "eslens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	dir := filepath.Join(t.TempDir(), "uploads")
	images, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	h := &harness{
		repo:       st.SessionRepo(),
		images:     images,
		dir:        dir,
		extractLLM: llm.NewMockProvider(),
		translLLM:  llm.NewMockProvider(),
		tutorLLM:   llm.NewMockProvider(),
	}
	log := zerolog.Nop()
	h.orch = New(Deps{
		Repo:       h.repo,
		Extractor:  homework.NewExtractor(h.extractLLM, homework.DefaultConfig(), log),
		Translator: translate.NewTranslator(h.translLLM, translate.DefaultConfig(), log),
		Tutor:      tutor.New(h.tutorLLM, tutor.DefaultConfig(), log),
		Images:     images,
		Log:        log,
	}, DefaultConfig())
	return h
}

func reply(s string) llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(s)}
}

func unavailable() llm.MockResponse {
	return llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("quota exceeded")}}
}

// intake runs a successful upload and returns the new session ID.
func (h *harness) intake(t *testing.T) string {
	t.Helper()
	h.extractLLM.AddResponse(reply(worksheetJSON))
	h.translLLM.AddResponse(reply("Resuelve: 3x+5=14"))
	h.tutorLLM.AddResponse(reply("Hola! Which part of this problem should we look at first?"))

	res, err := h.orch.Intake(context.Background(), IntakeRequest{
		Image:    pngBytes,
		MIMEType: "image/png",
		Language: "spanish",
	})
	require.NoError(t, err)
	return res.Session.ID
}

func TestEndToEnd_IntakeThenChat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.extractLLM.AddResponse(reply(worksheetJSON))
	h.translLLM.AddResponse(reply("Resuelve: 3x+5=14"))
	h.tutorLLM.AddResponse(reply("Hola! What do you think the problem is asking us to find?"))

	res, err := h.orch.Intake(ctx, IntakeRequest{
		Image:    pngBytes,
		MIMEType: "image/png",
		Language: "spanish",
	})
	require.NoError(t, err)

	sess := res.Session
	assert.Equal(t, domain.StatusActive, sess.Status)
	assert.Equal(t, domain.SubjectMath, sess.Subject())
	assert.Equal(t, "3x+5=14", sess.Homework.ExtractedText)
	assert.True(t, sess.Homework.HasEquations)
	assert.Equal(t, []string{"3x+5=14"}, sess.Homework.Questions)
	assert.Equal(t, "spanish", sess.Language)
	assert.Equal(t, store.DefaultUserID, sess.UserID)

	require.NotNil(t, res.Translation)
	assert.NotEmpty(t, res.Translation.Translated)
	assert.NotEqual(t, res.Translation.Original, res.Translation.Translated)
	assert.False(t, res.Translation.Degraded())
	assert.Equal(t, "Resuelve: 3x+5=14", sess.TranslatedText)

	_, msgs, err := h.orch.History(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.Equal(t, res.Opening.ID, msgs[0].ID)

	h.tutorLLM.AddResponse(reply("That's okay! Let's start small. What is being added to 3x?"))
	turn, err := h.orch.Chat(ctx, ChatRequest{SessionID: sess.ID, Message: "I don't know"})
	require.NoError(t, err)
	assert.Equal(t, understanding.LevelStruggling, turn.Understanding.Level)
	assert.Equal(t, understanding.NextSimplify, turn.Understanding.NextStep)
	assert.Equal(t, "I don't know", turn.UserMessage.Content)
	assert.True(t, turn.Validation.IsValid)
	assert.Nil(t, turn.Translation)

	_, msgs, err = h.orch.History(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.Equal(t, domain.RoleUser, msgs[1].Role)
	assert.Equal(t, "I don't know", msgs[1].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[2].Role)
	assert.Equal(t, turn.AssistantMessage.ID, msgs[2].ID)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp), "message %d is older than its predecessor", i)
	}

	// The tutor saw the opening message as history and the student's turn.
	prompt := h.tutorLLM.Calls[1].Messages[0].Content
	assert.Contains(t, prompt, "TUTOR: Hola!")
	assert.Contains(t, prompt, "I don't know")
	assert.Contains(t, prompt, "3x+5=14")
}

func TestIntake_StoresImage(t *testing.T) {
	h := newHarness(t)
	id := h.intake(t)

	sess, err := h.repo.GetSession(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ImageRef)

	data, ct, err := h.orch.Image(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", ct)
}

type failingCreateRepo struct {
	store.SessionRepo
}

func (failingCreateRepo) CreateSession(context.Context, store.NewSession) (string, error) {
	return "", errors.New("disk full")
}

func TestIntake_CreateFailureRemovesImage(t *testing.T) {
	h := newHarness(t)
	h.orch.repo = failingCreateRepo{h.repo}
	h.extractLLM.AddResponse(reply(worksheetJSON))
	h.translLLM.AddResponse(reply("Resuelve: 3x+5=14"))

	_, err := h.orch.Intake(context.Background(), IntakeRequest{
		Image:    pngBytes,
		MIMEType: "image/png",
		Language: "spanish",
	})
	require.ErrorContains(t, err, "disk full")

	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "upload should not outlive the failed session insert")
}

func TestImage_Missing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _, err := h.orch.Image(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	id := h.intake(t)
	sess, err := h.repo.GetSession(ctx, id)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(h.dir, sess.ImageRef)))

	_, _, err = h.orch.Image(ctx, id)
	assert.ErrorIs(t, err, ErrNoStoredImage)
}

func TestIntake_ExtractionFailureCreatesNoSession(t *testing.T) {
	h := newHarness(t)
	h.extractLLM.AddResponse(unavailable())

	res, err := h.orch.Intake(context.Background(), IntakeRequest{Image: pngBytes, MIMEType: "image/png"})
	assert.Nil(t, res)
	var extractErr *homework.ExtractionError
	require.ErrorAs(t, err, &extractErr)

	sessions, err := h.orch.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Zero(t, h.translLLM.CallCount())
	assert.Zero(t, h.tutorLLM.CallCount())
}

func TestIntake_CancelledTranslationCreatesNoSession(t *testing.T) {
	h := newHarness(t)
	h.extractLLM.AddResponse(reply(worksheetJSON))

	ctx, cancel := context.WithCancel(context.Background())
	h.translLLM.AddResponse(llm.MockResponse{Err: context.Canceled})
	cancel()

	_, err := h.orch.Intake(ctx, IntakeRequest{Image: pngBytes, MIMEType: "image/png", Language: "french"})
	require.ErrorIs(t, err, context.Canceled)

	sessions, err := h.orch.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestIntake_DegradedExtractionAndTranslationStillCreateSession(t *testing.T) {
	h := newHarness(t)
	h.extractLLM.AddResponse(reply("I could not read that clearly: 2 + 2 = ?"))
	h.translLLM.AddResponse(unavailable())
	h.tutorLLM.AddResponse(reply("Let's look at this together. What do you see?"))

	res, err := h.orch.Intake(context.Background(), IntakeRequest{Image: pngBytes, MIMEType: "image/png", Language: "korean"})
	require.NoError(t, err)

	assert.Equal(t, domain.SubjectOther, res.Session.Subject())
	assert.Equal(t, []string{"I could not read that clearly: 2 + 2 = ?"}, res.Session.Homework.Questions)
	assert.True(t, res.Translation.Degraded())
	assert.Equal(t, res.Session.Homework.ExtractedText, res.Session.TranslatedText)
	assert.NotNil(t, res.Opening)
}

func TestIntake_EnglishSkipsTranslation(t *testing.T) {
	h := newHarness(t)
	h.extractLLM.AddResponse(reply(worksheetJSON))
	h.tutorLLM.AddResponse(reply("Hi! Where should we begin?"))

	res, err := h.orch.Intake(context.Background(), IntakeRequest{Image: pngBytes, MIMEType: "image/png", Language: "English"})
	require.NoError(t, err)
	assert.True(t, res.Translation.Preserved)
	assert.Zero(t, h.translLLM.CallCount())
}

func TestIntake_TutorFailureNeedsBootstrap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.extractLLM.AddResponse(reply(worksheetJSON))
	h.translLLM.AddResponse(reply("Resuelve: 3x+5=14"))
	h.tutorLLM.AddResponse(unavailable())

	res, err := h.orch.Intake(ctx, IntakeRequest{Image: pngBytes, MIMEType: "image/png", Language: "spanish"})
	var intakeErr *IntakeError
	require.ErrorAs(t, err, &intakeErr)
	assert.ErrorIs(t, err, tutor.ErrTutorUnavailable)
	require.NotNil(t, res)
	assert.Equal(t, res.Session.ID, intakeErr.SessionID)
	assert.Nil(t, res.Opening)

	sess, msgs, err := h.orch.History(ctx, intakeErr.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, sess.Status)
	assert.Empty(t, msgs)

	h.tutorLLM.AddResponse(reply("Hello! Which question shall we try first?"))
	opening, err := h.orch.Bootstrap(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, opening.Role)
	assert.Equal(t, translate.English, opening.Language)

	_, err = h.orch.Bootstrap(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrAlreadyBootstrapped)
}

func TestIntake_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orch.Intake(ctx, IntakeRequest{})
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = h.orch.Intake(ctx, IntakeRequest{Image: make([]byte, homework.MaxImageBytes+1), MIMEType: "image/png"})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = h.orch.Intake(ctx, IntakeRequest{Image: []byte("%PDF"), MIMEType: "application/pdf"})
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	assert.Zero(t, h.extractLLM.CallCount())
}

func TestIntake_MIMETypeFromFilename(t *testing.T) {
	h := newHarness(t)
	h.extractLLM.AddResponse(reply(worksheetJSON))
	h.translLLM.AddResponse(reply("Resuelve"))
	h.tutorLLM.AddResponse(reply("Hi!"))

	_, err := h.orch.Intake(context.Background(), IntakeRequest{
		Image:    pngBytes,
		MIMEType: "application/octet-stream",
		Filename: "worksheet.webp",
	})
	require.NoError(t, err)
	assert.Equal(t, "image/webp", h.extractLLM.Calls[0].Messages[0].Images[0].MIMEType)
}

func TestChat_TutorFailureKeepsStudentMessage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.intake(t)

	h.tutorLLM.AddResponse(unavailable())
	turn, err := h.orch.Chat(ctx, ChatRequest{SessionID: id, Message: "is it 3?"})
	assert.Nil(t, turn)
	require.ErrorIs(t, err, tutor.ErrTutorUnavailable)

	_, msgs, err := h.orch.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[1].Role)
	assert.Equal(t, "is it 3?", msgs[1].Content)
}

func TestChat_UnknownAndCompletedSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orch.Chat(ctx, ChatRequest{SessionID: "missing", Message: "hello"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, IsNotFound(err))

	_, err = h.orch.Complete(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	id := h.intake(t)
	sess, err := h.orch.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, sess.Status)

	sess, err = h.orch.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, sess.Status)

	_, err = h.orch.Chat(ctx, ChatRequest{SessionID: id, Message: "one more question"})
	assert.ErrorIs(t, err, ErrSessionCompleted)

	_, err = h.orch.Bootstrap(ctx, id)
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestChat_SanitisesMessage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.intake(t)

	for _, msg := range []string{"", "   ", "<p></p>"} {
		_, err := h.orch.Chat(ctx, ChatRequest{SessionID: id, Message: msg})
		assert.ErrorIs(t, err, ErrEmptyMessage, "message %q", msg)
	}

	h.tutorLLM.AddResponse(reply("Great thinking! How could you check?"))
	turn, err := h.orch.Chat(ctx, ChatRequest{SessionID: id, Message: "  <b>so if</b> I subtract 5, I'd get 9?  "})
	require.NoError(t, err)
	assert.Equal(t, "so if I subtract 5, I'd get 9?", turn.UserMessage.Content)
	assert.Equal(t, understanding.LevelGood, turn.Understanding.Level)
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"I don't know", "I don't know"},
		{"3 < 5 and 9 > 2", "3 < 5 and 9 > 2"},
		{"<i>is it</i> 3?", "is it 3?"},
		{"\n\tx = 3?\n", "x = 3?"},
		{"is it x<y and y>2?", "is it x<y and y>2?"},
		{"if a<b, c>d then?", "if a<b, c>d then?"},
		{"x<=4 or x>=7", "x<=4 or x>=7"},
		{"<b>bold</b> 2<3", "bold 2<3"},
		{"<script>alert(1)</script>x>1", "x>1"},
		{"<img src=x onerror=alert(1)>2 > 1", "2 > 1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeMessage(tt.in), "input %q", tt.in)
	}
}

func TestChat_TranslateReply(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.intake(t)

	h.tutorLLM.AddResponse(reply("What is the opposite of adding 5?"))
	h.translLLM.AddResponse(reply("¿Qué es lo contrario de sumar 5?"))

	turn, err := h.orch.Chat(ctx, ChatRequest{SessionID: id, Message: "what do I do first", TranslateReply: true})
	require.NoError(t, err)
	require.NotNil(t, turn.Translation)
	assert.Equal(t, "¿Qué es lo contrario de sumar 5?", turn.Translation.Translated)
	assert.Equal(t, "What is the opposite of adding 5?", turn.AssistantMessage.Content)
	assert.Contains(t, h.translLLM.Calls[1].Messages[0].Content, "tutor")
}

func TestChat_FlagsLeakedAnswer(t *testing.T) {
	h := newHarness(t)
	id := h.intake(t)

	h.tutorLLM.AddResponse(reply("Subtract 5 and divide by 3, therefore x = 3."))
	turn, err := h.orch.Chat(context.Background(), ChatRequest{SessionID: id, Message: "just tell me"})
	require.NoError(t, err)
	assert.False(t, turn.Validation.IsValid)
	assert.Equal(t, "Subtract 5 and divide by 3, therefore x = 3.", turn.AssistantMessage.Content)
}

func TestChat_SameSessionTurnsAreSerialised(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.intake(t)

	const turns = 8
	for i := 0; i < turns; i++ {
		h.tutorLLM.AddResponse(reply(fmt.Sprintf("reply %d", i)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, turns)
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.orch.Chat(ctx, ChatRequest{SessionID: id, Message: fmt.Sprintf("attempt %d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	_, msgs, err := h.orch.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1+2*turns)
	for i := 1; i < len(msgs); i += 2 {
		assert.Equal(t, domain.RoleUser, msgs[i].Role, "message %d", i)
		assert.Equal(t, domain.RoleAssistant, msgs[i+1].Role, "message %d", i+1)
	}
	assert.Zero(t, h.orch.locks.size())
}

func TestListSessionsAndStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.intake(t)
	second := h.intake(t)

	h.tutorLLM.AddResponse(reply("Which step comes next?"))
	_, err := h.orch.Chat(ctx, ChatRequest{SessionID: second, Message: "got it"})
	require.NoError(t, err)

	sessions, err := h.orch.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second, sessions[0].ID)
	assert.Equal(t, first, sessions[1].ID)
	assert.Equal(t, 3, sessions[0].MessageCount)

	stats, err := h.orch.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 4, stats.TotalMessages)
	assert.Equal(t, 2, stats.SubjectBreakdown[domain.SubjectMath])
}
