package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResponseRequired(t *testing.T) {
	required := Question{ID: "q1", Type: TypeShortText, Prompt: "Name", Required: true}
	optional := Question{ID: "q2", Type: TypeShortText, Prompt: "Nickname"}

	cases := []struct {
		name string
		q    Question
		v    Value
		want error
	}{
		{"absent", required, Value{}, ErrRequired},
		{"empty string", required, TextValue(""), ErrRequired},
		{"whitespace", required, TextValue("   \t"), ErrRequired},
		{"empty list", required, ListValue(), ErrRequired},
		{"text", required, TextValue("Ada"), nil},
		{"zero number", required, NumberValue(0), nil},
		{"list", required, ListValue("A"), nil},
		{"optional absent", optional, Value{}, nil},
		{"optional blank", optional, TextValue(" "), nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ValidateResponse(c.q, c.v))
		})
	}
	assert.Equal(t, "this question is required", ErrRequired.Error())
}

func TestValidateSubmission(t *testing.T) {
	qs := []*Question{
		{ID: "a", Type: TypeShortText, Prompt: "A", Required: true},
		{ID: "b", Type: TypeShortText, Prompt: "B", Required: true},
		{ID: "c", Type: TypeShortText, Prompt: "C"},
	}
	failures := ValidateSubmission(qs, []Response{
		{QuestionID: "a", Value: TextValue("x")},
		{QuestionID: "a", Value: Value{}},
		{QuestionID: "b", Value: TextValue(" ")},
	})
	require.Len(t, failures, 1)
	assert.True(t, errors.Is(failures["b"], ErrRequired))

	assert.Empty(t, ValidateSubmission(qs, []Response{
		{QuestionID: "a", Value: TextValue("x")},
		{QuestionID: "b", Value: ListValue("y")},
	}))
}

func TestValidateQuestionAcceptsWellFormed(t *testing.T) {
	valid := []Question{
		{ID: "q1", Type: TypeSingleChoice, Prompt: "Pick", Options: []string{"A", "B"}},
		{ID: "q2", Type: TypeRating, Prompt: "Rate", MinValue: intPtr(1), MaxValue: intPtr(10)},
		{ID: "q3", Type: TypeLikert, Prompt: "Agree?"},
		{ID: "q4", Type: TypeYesNo, Prompt: "Yes?"},
		{ID: "q5", Type: TypeLongText, Prompt: "Comments"},
	}
	for _, q := range valid {
		assert.NoError(t, ValidateQuestion(q), q.ID)
	}
}

func TestValidateQuestionRejects(t *testing.T) {
	cases := []struct {
		name string
		q    Question
		want string
	}{
		{"choice without options", Question{ID: "q", Type: TypeMultiChoice, Prompt: "P", Options: []string{" "}}, "at least one non-blank option is required"},
		{"duplicate options", Question{ID: "q", Type: TypeDropdown, Prompt: "P", Options: []string{"A", "A"}}, `duplicate option "A"`},
		{"rating min >= max", Question{ID: "q", Type: TypeRating, Prompt: "P", MinValue: intPtr(5), MaxValue: intPtr(5)}, "min_value must be less than max_value"},
		{"rating without bounds", Question{ID: "q", Type: TypeRating, Prompt: "P"}, "min_value and max_value are required"},
		{"rating too wide", Question{ID: "q", Type: TypeRating, Prompt: "P", MinValue: intPtr(0), MaxValue: intPtr(500)}, "rating scale may not exceed 100 points"},
		{"unknown type", Question{ID: "q", Type: "matrix", Prompt: "P"}, `unknown question type "matrix"`},
		{"missing prompt", Question{ID: "q", Type: TypeShortText}, "prompt is required"},
		{"missing id", Question{Type: TypeShortText, Prompt: "P"}, "id is required"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateQuestion(c.q)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Errors, c.want)
		})
	}
}
