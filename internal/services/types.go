package services

import (
	"strings"
	"time"
)

// Survey groups the questions shown to respondents of one OBE survey.
type Survey struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenant_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	CourseID    string      `json:"course_id,omitempty"`
	Questions   []*Question `json:"questions"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Question finds a question of the survey by id.
func (s *Survey) Question(id string) *Question {
	for _, q := range s.Questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// Question is one prompt of a survey. MinValue and MaxValue only apply to
// rating questions; ReverseScored only to rating and likert questions.
type Question struct {
	ID            string       `json:"id" validate:"required,max=64"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt" validate:"required,max=1000"`
	Options       []string     `json:"options,omitempty" validate:"max=50,dive,max=200"`
	Required      bool         `json:"required"`
	MinValue      *int         `json:"min_value,omitempty"`
	MaxValue      *int         `json:"max_value,omitempty"`
	ReverseScored bool         `json:"reverse_scored,omitempty"`
	Position      int          `json:"position"`
}

// EffectiveOptions returns the declared options without blank labels, or the
// type's default list when none are declared.
func (q Question) EffectiveOptions() []string {
	out := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if s := strings.TrimSpace(opt); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return LookupType(ParseQuestionType(string(q.Type))).DefaultOptions()
	}
	return out
}

// MaxScaleSpan bounds the number of points of a rating scale.
const MaxScaleSpan = 100

// Scale returns the inclusive rating range. ok is false when either bound is
// missing, the range is empty, or it spans more than MaxScaleSpan points.
func (q Question) Scale() (lo, hi int, ok bool) {
	if q.MinValue == nil || q.MaxValue == nil {
		return 0, 0, false
	}
	lo, hi = *q.MinValue, *q.MaxValue
	return lo, hi, lo < hi && scaleSpanOK(lo, hi)
}

// scaleSpanOK reports whether lo..hi spans fewer than MaxScaleSpan steps.
// hi-lo wraps negative when the bounds are far apart.
func scaleSpanOK(lo, hi int) bool {
	span := hi - lo
	return span >= 0 && span < MaxScaleSpan
}

// Response is one respondent's answer to one question.
type Response struct {
	QuestionID string `json:"question_id"`
	Value      Value  `json:"value"`
}

// Submission is the set of answers one respondent sent for a survey.
type Submission struct {
	ID          string     `json:"id"`
	SurveyID    string     `json:"survey_id"`
	Respondent  string     `json:"respondent,omitempty"`
	Locale      string     `json:"locale,omitempty"`
	Answers     []Response `json:"answers"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// FlattenResponses concatenates the answers of all submissions, preserving
// submission order.
func FlattenResponses(subs []*Submission) []Response {
	n := 0
	for _, s := range subs {
		n += len(s.Answers)
	}
	out := make([]Response, 0, n)
	for _, s := range subs {
		out = append(out, s.Answers...)
	}
	return out
}

type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
}
