package domain

// ConversationQualitySchemaName is the fixed, globally shared rubric name.
// Registration always overwrites, so the last run to register wins and
// earlier sessions referencing the name see the new instructions.
const ConversationQualitySchemaName = "conversation_quality"

// ConversationQualityInstruction is the rubric text shown to reviewers.
// A single 1-5 numeric rating keeps scoring accessible to non-technical
// reviewers.
const ConversationQualityInstruction = "Review the conversation and rate the quality of the agent's response on a " +
	"1–5 scale:\n" +
	"  1 – Very poor: response is incorrect, off-topic, or harmful\n" +
	"  2 – Poor: response partially addresses the question but has major gaps\n" +
	"  3 – Acceptable: response is generally correct but could be clearer\n" +
	"  4 – Good: response is helpful, accurate, and easy to understand\n" +
	"  5 – Excellent: response fully and clearly addresses the user's need\n\n" +
	"Please add a comment explaining your rating, especially for scores of 1 or 2."

// NumericInput is the numeric range a label schema accepts.
type NumericInput struct {
	MinValue float64 `json:"minValue"`
	MaxValue float64 `json:"maxValue"`
}

// LabelSchema is the rubric definition registered with the platform's
// label-schema registry.
type LabelSchema struct {
	Name          string       `json:"name"`
	Type          string       `json:"type"`
	Title         string       `json:"title"`
	Input         NumericInput `json:"input"`
	Instruction   string       `json:"instruction"`
	EnableComment bool         `json:"enableComment"`
	Overwrite     bool         `json:"overwrite"`
}

// ConversationQualitySchema returns the fixed rubric this job registers.
func ConversationQualitySchema() LabelSchema {
	return LabelSchema{
		Name:          ConversationQualitySchemaName,
		Type:          "feedback",
		Title:         "Conversation Quality (1–5)",
		Input:         NumericInput{MinValue: 1.0, MaxValue: 5.0},
		Instruction:   ConversationQualityInstruction,
		EnableComment: true,
		Overwrite:     true,
	}
}
