package translate

import (
	"fmt"
	"strings"
)

const translateSystemPrompt = `You are a translator for students who are learning English. You translate faithfully and never add commentary.`

var contextInstructions = map[Context]string{
	ContextHomework: `This is homework content for a student.

IMPORTANT RULES:
- Preserve ALL mathematical notation, equations and numbers exactly as written
- Keep formatting such as bullet points, numbering and line breaks
- Translate natural language but keep technical terms clear
- If there are equations (like "3x + 5 = 14"), keep them in the same format
- Make the translation clear for a middle school or high school student`,

	ContextChat: `This is a message from a tutor to a student.

IMPORTANT RULES:
- Keep a warm, encouraging and friendly tone
- Use clear, simple language appropriate for students
- Preserve every question or prompt in the message
- Keep the guiding, question-asking teaching style`,

	ContextGeneral: `Translate this text naturally and accurately.`,
}

func buildTranslatePrompt(text, targetName string, kind Context) string {
	instructions, ok := contextInstructions[kind]
	if !ok {
		instructions = contextInstructions[ContextGeneral]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following text from English to %s.\n\n", targetName)
	b.WriteString(instructions)
	b.WriteString("\n\nText to translate:\n")
	b.WriteString(text)
	b.WriteString("\n\nProvide ONLY the translation, no additional commentary.")
	return b.String()
}

func buildDetectPrompt(text string) string {
	return `What language is this text written in? Respond with just the language name in English (e.g. "Spanish", "French", "English").

Text: ` + text
}
