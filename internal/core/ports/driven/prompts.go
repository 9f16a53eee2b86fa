package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer assembles the answer prompt. The template expects the
	// {{docs}} and {{user_question}} placeholders.
	PromptAnswer = "answer"
)

// Prompt template placeholders.
const (
	PlaceholderDocs     = "{{docs}}"
	PlaceholderQuestion = "{{user_question}}"
)
