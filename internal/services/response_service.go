package services

import (
	"context"
	"errors"
	"strings"
	"time"
)

// SubmissionStore abstracts persistence operations required by ResponseService.
type SubmissionStore interface {
	GetSurvey(ctx context.Context, id string) (*Survey, error)
	AddSubmission(ctx context.Context, sub *Submission) error
}

// SubmitRequest transports the decoded handler input into the service layer.
type SubmitRequest struct {
	SurveyID   string
	Respondent string
	Locale     string
	Answers    []Response
}

// SubmitResult collects the data needed to emit the HTTP response.
type SubmitResult struct {
	SubmissionID   string
	ResponsesCount int
	Skipped        []string
}

// ResponseService hosts the submission workflow for survey answers.
type ResponseService struct {
	store       SubmissionStore
	now         func() time.Time
	idGenerator func() string
}

func NewResponseService(store SubmissionStore) *ResponseService {
	return &ResponseService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: shortID,
	}
}

// Submit validates the answers against the survey definition and stores
// them as one submission. Answers to unknown questions are skipped, and
// null, empty-string and empty-list answers are dropped. Whitespace-only text
// is kept as sent. A missing required answer rejects the whole submission
// with a *SubmissionError.
func (s *ResponseService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if s.store == nil {
		return nil, errors.New("response service store is nil")
	}
	sv, err := s.store.GetSurvey(ctx, req.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, ErrSurveyNotFound
	}

	result := &SubmitResult{}
	known := make([]Response, 0, len(req.Answers))
	for _, ans := range req.Answers {
		if sv.Question(ans.QuestionID) == nil {
			if ans.QuestionID != "" {
				result.Skipped = append(result.Skipped, ans.QuestionID)
			}
			continue
		}
		known = append(known, ans)
	}

	if failures := ValidateSubmission(sv.Questions, known); len(failures) > 0 {
		return nil, &SubmissionError{Fields: failures}
	}

	answers := make([]Response, 0, len(known))
	for _, ans := range known {
		if ans.Value.IsEmpty() {
			continue
		}
		answers = append(answers, ans)
	}

	sub := &Submission{
		ID:          s.idGenerator(),
		SurveyID:    sv.ID,
		Respondent:  strings.TrimSpace(req.Respondent),
		Locale:      req.Locale,
		Answers:     answers,
		SubmittedAt: s.now(),
	}
	if err := s.store.AddSubmission(ctx, sub); err != nil {
		return nil, err
	}
	result.SubmissionID = sub.ID
	result.ResponsesCount = len(answers)
	return result, nil
}
