package literary

import "strings"

const (
	contextHeader  = "Context:\n"
	questionHeader = "User Question:\n"
)

const analysisTemplate = `You are a Tamil literary expert.
Analyze the following poem and return ONLY valid JSON in this structure:

{
  "simplifiedTamil": "string",
  "simplifiedEnglish": "string",
  "ilakkanam": {
    "ezuthu": "string",
    "sol": "string",
    "porul": "string",
    "yaappu": "string",
    "ani": "string"
  }
}

Poem:
"""`

// ChatPrompt composes the retrieval-augmented chat prompt. An empty context
// still yields a well-formed prompt with an empty context section.
func ChatPrompt(context, question string) string {
	var b strings.Builder

	b.WriteString("You are a Tamil literary expert. ")
	b.WriteString("Use the following context to answer the user's question about the poem analysis.\n")
	b.WriteString("Be concise and accurate.\n\n")

	b.WriteString(contextHeader)
	b.WriteString(context)
	b.WriteString("\n\n")

	b.WriteString(questionHeader)
	b.WriteString(question)

	return b.String()
}

// AnalysisPrompt asks the model for the Analysis JSON of a poem.
func AnalysisPrompt(poem string) string {
	return analysisTemplate + poem + `"""` + "\n"
}
