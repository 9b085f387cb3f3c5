package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SurveyStore abstracts persistence for survey definitions. GetSurvey returns
// nil, nil when the survey does not exist.
type SurveyStore interface {
	InsertSurvey(ctx context.Context, sv *Survey) error
	GetSurvey(ctx context.Context, id string) (*Survey, error)
	ListSurveys(ctx context.Context, tenantID string) ([]*Survey, error)
	UpdateSurvey(ctx context.Context, sv *Survey) error
	DeleteSurvey(ctx context.Context, id string) error
	DeleteSubmissionsBySurvey(ctx context.Context, surveyID string) (int, error)
}

type SurveyService struct {
	store SurveyStore
	now   func() time.Time
	idGen func() string
}

// SurveyInput carries the editable survey fields.
type SurveyInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CourseID    string      `json:"course_id"`
	Questions   []*Question `json:"questions"`
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: shortID,
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *SurveyService) CreateSurvey(ctx context.Context, tenantID string, in SurveyInput) (*Survey, error) {
	if tenantID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, NewInvalidError("title required")
	}
	now := s.now()
	sv := &Survey{
		ID:          s.idGen(),
		TenantID:    tenantID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		CourseID:    strings.TrimSpace(in.CourseID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, q := range in.Questions {
		if q == nil {
			continue
		}
		if _, err := s.prepareQuestion(sv, *q); err != nil {
			return nil, err
		}
	}
	if err := s.store.InsertSurvey(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

// GetSurvey returns a survey owned by tenantID.
func (s *SurveyService) GetSurvey(ctx context.Context, tenantID, id string) (*Survey, error) {
	sv, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(ErrSurveyNotFound.Error())
	}
	if sv.TenantID != tenantID {
		return nil, NewForbiddenError("forbidden")
	}
	return sv, nil
}

// PublicForm returns the respondent view of a survey: effective options are
// filled in and nothing tenant-specific is exposed.
func (s *SurveyService) PublicForm(ctx context.Context, id string) (*Survey, error) {
	sv, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(ErrSurveyNotFound.Error())
	}
	form := &Survey{ID: sv.ID, Title: sv.Title, Description: sv.Description, CourseID: sv.CourseID}
	for _, q := range sv.Questions {
		cp := *q
		cp.Type = ParseQuestionType(string(q.Type))
		if LookupType(cp.Type).Kind == KindCategorical {
			cp.Options = cp.EffectiveOptions()
		}
		form.Questions = append(form.Questions, &cp)
	}
	return form, nil
}

func (s *SurveyService) ListSurveys(ctx context.Context, tenantID string) ([]*Survey, error) {
	if tenantID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	return s.store.ListSurveys(ctx, tenantID)
}

func (s *SurveyService) UpdateSurvey(ctx context.Context, tenantID, id string, in SurveyInput) (*Survey, error) {
	sv, err := s.GetSurvey(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		sv.Title = title
	}
	sv.Description = strings.TrimSpace(in.Description)
	sv.CourseID = strings.TrimSpace(in.CourseID)
	sv.UpdatedAt = s.now()
	if err := s.store.UpdateSurvey(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

// DeleteSurvey removes the survey and its submissions. It returns the number
// of submissions removed.
func (s *SurveyService) DeleteSurvey(ctx context.Context, tenantID, id string) (int, error) {
	if _, err := s.GetSurvey(ctx, tenantID, id); err != nil {
		return 0, err
	}
	removed, err := s.store.DeleteSubmissionsBySurvey(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.store.DeleteSurvey(ctx, id); err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *SurveyService) AddQuestion(ctx context.Context, tenantID, surveyID string, q Question) (*Question, error) {
	sv, err := s.GetSurvey(ctx, tenantID, surveyID)
	if err != nil {
		return nil, err
	}
	added, err := s.prepareQuestion(sv, q)
	if err != nil {
		return nil, err
	}
	sv.UpdatedAt = s.now()
	if err := s.store.UpdateSurvey(ctx, sv); err != nil {
		return nil, err
	}
	return added, nil
}

func (s *SurveyService) UpdateQuestion(ctx context.Context, tenantID, surveyID string, q Question) (*Question, error) {
	sv, err := s.GetSurvey(ctx, tenantID, surveyID)
	if err != nil {
		return nil, err
	}
	existing := sv.Question(q.ID)
	if existing == nil {
		return nil, NewNotFoundError(ErrQuestionNotFound.Error())
	}
	q.Options = trimOptions(q.Options)
	if err := ValidateQuestion(q); err != nil {
		return nil, NewInvalidError(err.Error())
	}
	q.Position = existing.Position
	*existing = q
	sv.UpdatedAt = s.now()
	if err := s.store.UpdateSurvey(ctx, sv); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *SurveyService) DeleteQuestion(ctx context.Context, tenantID, surveyID, questionID string) error {
	sv, err := s.GetSurvey(ctx, tenantID, surveyID)
	if err != nil {
		return err
	}
	kept := make([]*Question, 0, len(sv.Questions))
	for _, q := range sv.Questions {
		if q.ID != questionID {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(sv.Questions) {
		return NewNotFoundError(ErrQuestionNotFound.Error())
	}
	renumber(kept)
	sv.Questions = kept
	sv.UpdatedAt = s.now()
	return s.store.UpdateSurvey(ctx, sv)
}

// ReorderQuestions moves the listed questions to the front in the given
// order; unlisted questions keep their relative order after them.
func (s *SurveyService) ReorderQuestions(ctx context.Context, tenantID, surveyID string, order []string) ([]*Question, error) {
	if len(order) == 0 {
		return nil, NewInvalidError("order required")
	}
	sv, err := s.GetSurvey(ctx, tenantID, surveyID)
	if err != nil {
		return nil, err
	}
	rank := make(map[string]int, len(order))
	for i, id := range order {
		if sv.Question(id) == nil {
			return nil, NewInvalidError("unknown question " + id)
		}
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}
	sort.SliceStable(sv.Questions, func(i, j int) bool {
		ri, iok := rank[sv.Questions[i].ID]
		rj, jok := rank[sv.Questions[j].ID]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return false
		}
	})
	renumber(sv.Questions)
	sv.UpdatedAt = s.now()
	if err := s.store.UpdateSurvey(ctx, sv); err != nil {
		return nil, err
	}
	return sv.Questions, nil
}

func (s *SurveyService) prepareQuestion(sv *Survey, q Question) (*Question, error) {
	if q.ID == "" {
		q.ID = "q" + s.idGen()
	}
	if sv.Question(q.ID) != nil {
		return nil, NewConflictError("duplicate question id " + q.ID)
	}
	q.Options = trimOptions(q.Options)
	if err := ValidateQuestion(q); err != nil {
		return nil, NewInvalidError(err.Error())
	}
	q.Position = len(sv.Questions)
	added := q
	sv.Questions = append(sv.Questions, &added)
	return &added, nil
}

func trimOptions(opts []string) []string {
	if len(opts) == 0 {
		return nil
	}
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		if v := strings.TrimSpace(o); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func renumber(qs []*Question) {
	for i, q := range qs {
		q.Position = i
	}
}
