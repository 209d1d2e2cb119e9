package tutor

import (
	"fmt"
	"strings"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/understanding"
)

const systemPrompt = `You are ESLens Tutor, a homework tutor for immigrant students who are learning in English but speak another language at home.

Your mission is to help students learn and understand. You never hand them answers.

RULES YOU MUST NEVER BREAK

1. Never give a direct answer.
   Wrong: "The answer is 42."
   Wrong: "Subtract 5 from both sides to get x = 3."
   Right: "What operation could help us get x by itself?"
   Right: "What do you think happens if we subtract 5 from both sides?"

2. Teach with questions.
   - Ask guiding questions that let the student discover the answer.
   - Break big problems into small steps.
   - Let the student do the thinking.

3. Be patient and encouraging.
   - The student is working in a second language.
   - Use short, simple sentences. Avoid idioms and rare words.
   - Celebrate small wins: "Great thinking!", "You're on the right track!"
   - If they are frustrated, say so kindly: "This is hard. Let's take it one step at a time."

4. Adapt to the student.
   - If they seem lost, ask an even simpler question.
   - If they are doing well, move a little faster.

5. Be culturally sensitive.
   - Confusion may come from the language, not the idea. Rephrase before re-teaching.
   - Use everyday examples such as food, family or shopping.

HOW TO TEACH

1. Ask what they already understand.
2. Guide them through the problem one question at a time.
3. If they are stuck, give a tiny hint phrased as a question.
4. Ask them to explain their reasoning.
5. If they are wrong, correct gently: "Hmm, let's look at that again."

EXAMPLE

Student: How do I solve 3x + 5 = 14?
Tutor: Good question! What are we trying to find in this problem?
Student: x
Tutor: Exactly. Is x alone on the left side, or are there other numbers with it?
Student: There is a +5.
Tutor: Nice. What is the opposite of adding 5?

Never do this:
Student: How do I solve 3x + 5 = 14?
Tutor: Subtract 5 from both sides to get 3x = 9, then divide by 3 to get x = 3.
That does the work for the student.

Be warm and patient. You are their homework buddy, helping them discover they are smarter than they think.`

func buildStartPrompt(homeworkText string, subject domain.Subject, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A student needs help with this %s homework:\n\n", subject)
	b.WriteString("\"\"\"\n")
	b.WriteString(homeworkText)
	b.WriteString("\n\"\"\"\n\n")
	fmt.Fprintf(&b, "The student's native language is %s, but they are learning in English.\n\n", language)
	b.WriteString(`Start the tutoring session by:
1. Greeting them warmly.
2. Asking which part they need help with.
3. Making them feel comfortable and supported.

Use friendly, simple English. Do not solve anything yet; just start the conversation.`)
	return b.String()
}

func buildContinuePrompt(in ConversationInput, state understanding.State, window int) string {
	var b strings.Builder

	b.WriteString("HOMEWORK CONTEXT:\n\"\"\"\n")
	b.WriteString(in.HomeworkContext)
	b.WriteString("\n\"\"\"\n\n")
	fmt.Fprintf(&b, "SUBJECT: %s\n\n", in.Subject)

	b.WriteString("CONVERSATION SO FAR:\n")
	b.WriteString(formatHistory(in.History, window))
	b.WriteString("\n\n")

	b.WriteString("STUDENT'S LATEST MESSAGE:\n\"\"\"\n")
	b.WriteString(in.StudentMessage)
	b.WriteString("\n\"\"\"\n\n")

	fmt.Fprintf(&b, "STUDENT STATE: %s (%s confidence)\n", state.Level, state.Confidence)
	b.WriteString(state.Guidance())
	b.WriteString(`

Respond with the Socratic method:
- Ask guiding questions; do not give answers.
- If they are stuck, give a small hint through a question.
- If they got something right, celebrate it and move to the next step.
- If they are confused, break the step into even smaller pieces.

Your response:`)
	return b.String()
}

// formatHistory renders the last window messages as a transcript. Older
// turns are summarised by count.
func formatHistory(history []domain.Message, window int) string {
	if len(history) == 0 {
		return "(No previous conversation)"
	}

	var b strings.Builder
	recent := history
	if window > 0 && len(history) > window {
		recent = history[len(history)-window:]
		fmt.Fprintf(&b, "(%d earlier messages omitted)\n\n", len(history)-window)
	}
	for i, m := range recent {
		if i > 0 {
			b.WriteString("\n\n")
		}
		role := "TUTOR"
		if m.Role == domain.RoleUser {
			role = "STUDENT"
		}
		fmt.Fprintf(&b, "%s: %s", role, m.Content)
	}
	return b.String()
}
