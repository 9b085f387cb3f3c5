package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var questionValidator = validator.New()

// ValidateResponse checks a single answer against the question's required
// policy. It returns ErrRequired or nil and has no side effects.
func ValidateResponse(q Question, v Value) error {
	if q.Required && v.IsBlank() {
		return ErrRequired
	}
	return nil
}

// ValidateSubmission applies ValidateResponse to every question. The result
// is keyed by question id and empty when the submission is acceptable.
func ValidateSubmission(questions []*Question, answers []Response) map[string]error {
	byQuestion := make(map[string]Value, len(answers))
	for _, a := range answers {
		// the last non-empty answer wins when a question is repeated
		if _, seen := byQuestion[a.QuestionID]; !seen || !a.Value.IsEmpty() {
			byQuestion[a.QuestionID] = a.Value
		}
	}
	out := map[string]error{}
	for _, q := range questions {
		if err := ValidateResponse(*q, byQuestion[q.ID]); err != nil {
			out[q.ID] = err
		}
	}
	return out
}

// ValidateQuestion checks a question definition the way the survey builder
// does before saving it. All problems are reported in one *ValidationError.
func ValidateQuestion(q Question) error {
	verr := &ValidationError{Entity: "question"}
	if err := questionValidator.Struct(q); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate question: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.AddError(describeFieldError(fe))
		}
	}

	info := LookupType(q.Type)
	if !q.Type.Known() {
		verr.AddError(fmt.Sprintf("unknown question type %q", q.Type))
	}
	if info.RequiresOptions {
		labels := 0
		seen := map[string]bool{}
		for _, opt := range q.Options {
			label := strings.TrimSpace(opt)
			if label == "" {
				continue
			}
			if seen[label] {
				verr.AddError(fmt.Sprintf("duplicate option %q", label))
			}
			seen[label] = true
			labels++
		}
		if labels == 0 {
			verr.AddError("at least one non-blank option is required")
		}
	}
	if info.HasScale {
		switch {
		case q.MinValue == nil || q.MaxValue == nil:
			verr.AddError("min_value and max_value are required")
		case *q.MinValue >= *q.MaxValue:
			verr.AddError("min_value must be less than max_value")
		case !scaleSpanOK(*q.MinValue, *q.MaxValue):
			verr.AddError(fmt.Sprintf("rating scale may not exceed %d points", MaxScaleSpan))
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s exceeds max %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
