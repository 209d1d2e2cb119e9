package tutor

import "strings"

// answerPhrases are wordings that usually mean the tutor stated a result.
var answerPhrases = []string{
	"the answer is",
	"the solution is",
	"equals to",
	"x =",
	"therefore",
	"so the result is",
}

// Validation is the outcome of checking a tutor reply for leaked answers.
type Validation struct {
	IsValid bool     `json:"isValid"`
	Warning string   `json:"warning,omitempty"`
	Matches []string `json:"matches,omitempty"`
}

// ValidateResponse flags replies that look like they give the answer away.
// The check is advisory; it never blocks a reply.
func ValidateResponse(text string) Validation {
	lower := strings.ToLower(text)
	var matches []string
	for _, p := range answerPhrases {
		if strings.Contains(lower, p) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return Validation{IsValid: true}
	}
	return Validation{
		IsValid: false,
		Warning: "Response may contain direct answer",
		Matches: matches,
	}
}
