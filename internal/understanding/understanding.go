// Package understanding classifies a student's latest message into a coarse
// pedagogical state that steers how the tutor phrases its next turn.
//
// Classification is a deterministic, case-insensitive substring match over
// three indicator sets. It is a heuristic: the state is advisory and never
// persisted.
package understanding

import (
	"strings"

	"github.com/abhisek/eslens/internal/domain"
)

// Level is the estimated understanding of the student.
type Level string

const (
	LevelGood        Level = "good"
	LevelStruggling  Level = "struggling"
	LevelProgressing Level = "progressing"
)

// NextStep is the suggested tutoring move.
type NextStep string

const (
	NextContinueGuiding  NextStep = "continue_guiding"
	NextSimplify         NextStep = "simplify_and_break_down"
	NextContinueSocratic NextStep = "continue_socratic"
)

// Confidence is how much weight the classification deserves.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// State is the result of classifying one student message.
type State struct {
	Level      Level      `json:"understandingLevel"`
	NextStep   NextStep   `json:"suggestedNextStep"`
	Confidence Confidence `json:"confidence"`

	// Matched lists the indicators that fired, for logging.
	Matched []string `json:"-"`
}

// Kind tags an indicator set.
type Kind string

const (
	KindUnderstanding Kind = "understanding"
	KindConfusion     Kind = "confusion"
	KindProgress      Kind = "progress"
)

// Indicators are the substrings that signal each kind. "understand" alone
// is deliberately absent: it would match "I don't understand".
var Indicators = map[Kind][]string{
	KindUnderstanding: {
		"oh i see", "got it", "makes sense", "i think", "so if",
		"that means", "oh okay", "right", "yes", "yeah", "i understand",
	},
	KindConfusion: {
		"confused", "don't understand", "dont understand", "don't get it",
		"dont get it", "what does", "help", "idk", "i don't know",
		"i dont know", "stuck", "lost", "what", "huh", "???",
	},
	KindProgress: {
		"is it", "would it be", "should i", "do i", "if i", "so then",
	},
}

// Classify maps the latest student message to a State. history is accepted
// so callers can pass the conversation, but the heuristic only looks at
// latest; the result is a pure function of it.
//
// Precedence: understanding or progress signals win over confusion, which
// wins over no signal at all.
func Classify(history []domain.Message, latest string) State {
	text := strings.ToLower(latest)

	understood := match(text, Indicators[KindUnderstanding])
	progress := match(text, Indicators[KindProgress])
	confused := match(text, Indicators[KindConfusion])

	switch {
	case len(understood) > 0 || len(progress) > 0:
		return State{
			Level:      LevelGood,
			NextStep:   NextContinueGuiding,
			Confidence: ConfidenceMedium,
			Matched:    append(understood, progress...),
		}
	case len(confused) > 0:
		return State{
			Level:      LevelStruggling,
			NextStep:   NextSimplify,
			Confidence: ConfidenceHigh,
			Matched:    confused,
		}
	default:
		return State{
			Level:      LevelProgressing,
			NextStep:   NextContinueSocratic,
			Confidence: ConfidenceLow,
		}
	}
}

func match(text string, indicators []string) []string {
	var hits []string
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			hits = append(hits, ind)
		}
	}
	return hits
}

// Guidance is the adaptation hint given to the tutor for a state.
func (s State) Guidance() string {
	switch s.Level {
	case LevelStruggling:
		return "The student seems confused. Break the problem into a smaller step, use a simpler example or analogy, and ask one easy question."
	case LevelGood:
		return "The student is making progress. Acknowledge their thinking and nudge them toward the next step with a guiding question."
	default:
		return "Keep guiding with Socratic questions and check what the student already knows."
	}
}
