package homework

const extractSystemPrompt = `You read photos of student homework and transcribe them exactly. You never solve the problems.`

const extractUserPrompt = `Analyze this homework image and extract all of the text content.

Return a JSON object with exactly these fields:
{
  "extractedText": "the complete text from the image, including all numbers, equations and instructions",
  "subject": "math | science | reading | history | other",
  "hasEquations": true or false,
  "difficulty": "elementary | middle_school | high_school",
  "questions": ["each individual question or problem, in order"]
}

Rules:
- Transcribe equations exactly as written, e.g. 3x + 5 = 14.
- Keep the original wording of every instruction.
- Do not answer, solve or explain anything.
- Return only the JSON object, with no commentary.`
