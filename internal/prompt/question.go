package prompt

import (
	"fmt"

	"github.com/google/uuid"
)

// Question is one unit of work: the user's material, the prompt built for
// it, and eventually the model's reply.
type Question struct {
	Kind           Kind
	ID             uuid.UUID
	Stem           string
	ImagePath      string
	Output         string
	AdditionalCode string

	answered bool
}

// NewQuestion builds a question with its template and automation snippet
// resolved from the kind.
func NewQuestion(kind Kind, stem, imagePath string) *Question {
	return &Question{
		Kind:           kind,
		ID:             uuid.New(),
		Stem:           stem,
		ImagePath:      imagePath,
		AdditionalCode: AdditionalCode(kind),
	}
}

// PromptText is the full text sent to the backend: the material followed by
// the kind's format instructions.
func (q *Question) PromptText() string {
	return Build(q.Kind, q.Stem)
}

// SetReply records the model's reply, stripping a stray code fence and
// regenerating blank ids so a re-pasted answer never collides with an
// earlier one.
func (q *Question) SetReply(reply string) {
	q.Output = RefreshBlankIDs(StripCodeFence(reply))
	q.answered = true
}

// FinalOutput is the paste-ready text: the reply followed by the automation
// snippet.
func (q *Question) FinalOutput() string {
	out := q.Output
	if q.AdditionalCode != "" {
		out += "\n\n" + q.AdditionalCode
	}
	return out
}

// IsComplete reports whether the question has material and a recorded reply.
func (q *Question) IsComplete() bool {
	return q.Stem != "" && q.answered
}

// Summary is a one-line description for logs and listings.
func (q *Question) Summary() string {
	status := "pending"
	if q.IsComplete() {
		status = "complete"
	}
	img := "no image"
	if q.ImagePath != "" {
		img = "with image"
	}
	stem := q.Stem
	// Truncate by runes; the material is often CJK and a byte cut could
	// split a character.
	if runes := []rune(stem); len(runes) > 50 {
		stem = string(runes[:50])
	}
	return fmt.Sprintf("[%s] %s - %s - %s - ID: %s", q.Kind, status, img, stem, q.ID)
}
