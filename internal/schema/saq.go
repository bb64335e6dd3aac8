package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType is the answer type of a questionnaire question
type QuestionType string

const (
	QuestionText   QuestionType = "text"
	QuestionYesNo  QuestionType = "yes_no"
	QuestionChoice QuestionType = "choice"
	QuestionNumber QuestionType = "number"
)

// SAQQuestion is a question in a self-assessment questionnaire template
type SAQQuestion struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required"`
	Options  []string     `json:"options,omitempty"`
}

// SAQTemplate is a questionnaire that can be sent to suppliers
type SAQTemplate struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Commodity Commodity     `json:"commodity,omitempty"`
	Questions []SAQQuestion `json:"questions"`
}

// SAQRequest is a questionnaire sent to a supplier
type SAQRequest struct {
	ID          uuid.UUID         `json:"id"`
	TenantID    uuid.UUID         `json:"tenant_id"`
	TemplateID  uuid.UUID         `json:"template_id"`
	SupplierID  uuid.UUID         `json:"supplier_id"`
	Status      SAQStatus         `json:"status"`
	DueDate     time.Time         `json:"due_date"`
	SentAt      time.Time         `json:"sent_at"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	Answers     map[string]string `json:"answers,omitempty"`
}

// NewSAQRequest sends a questionnaire to a supplier
type NewSAQRequest struct {
	TemplateID uuid.UUID `json:"template_id" validate:"required"`
	SupplierID uuid.UUID `json:"supplier_id" validate:"required"`
	DueDate    time.Time `json:"due_date" validate:"required"`
	Message    string    `json:"message,omitempty" validate:"max=2000"`
}

// SAQSubmission is a supplier's answers, keyed by question id
type SAQSubmission struct {
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

// AnswerError describes an invalid or missing answer
type AnswerError struct {
	QuestionID string
	Message    string
}

func (e AnswerError) Error() string {
	return fmt.Sprintf("question %s: %s", e.QuestionID, e.Message)
}

// AnswerErrors is returned by CheckAnswers when one or more answers are invalid
type AnswerErrors []AnswerError

func (ae AnswerErrors) Error() string {
	if len(ae) == 0 {
		return "invalid answers"
	}
	msgs := make([]string, len(ae))
	for i, e := range ae {
		msgs[i] = e.Error()
	}
	return "invalid answers: " + strings.Join(msgs, "; ")
}

// CheckAnswers validates a submission against the template questions.
// Errors are reported in question order, followed by answers to unknown questions (sorted by id).
func (t *SAQTemplate) CheckAnswers(answers map[string]string) error {
	var errs AnswerErrors
	known := make(map[string]bool, len(t.Questions))

	for _, q := range t.Questions {
		known[q.ID] = true

		answer, ok := answers[q.ID]
		answer = strings.TrimSpace(answer)
		if !ok || answer == "" {
			if q.Required {
				errs = append(errs, AnswerError{q.ID, "answer is required"})
			}
			continue
		}

		switch q.Type {
		case QuestionYesNo:
			if answer != "yes" && answer != "no" {
				errs = append(errs, AnswerError{q.ID, "answer must be yes or no"})
			}
		case QuestionChoice:
			if !slices.Contains(q.Options, answer) {
				errs = append(errs, AnswerError{q.ID, fmt.Sprintf("answer must be one of %s", strings.Join(q.Options, ", "))})
			}
		case QuestionNumber:
			if _, err := strconv.ParseFloat(answer, 64); err != nil {
				errs = append(errs, AnswerError{q.ID, "answer must be a number"})
			}
		}
	}

	var unknown []string
	for id := range answers {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	slices.Sort(unknown)
	for _, id := range unknown {
		errs = append(errs, AnswerError{id, "unknown question"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
