package services

import (
	"context"
	"errors"
	"sync"
)

func intPtr(v int) *int { return &v }

// stubStore backs the service tests. Surveys are copied on the way in and
// out so tests observe only what the services persist.
type stubStore struct {
	mu          sync.Mutex
	surveys     map[string]*Survey
	submissions []*Submission
	getErr      error
}

func newStubStore(surveys ...*Survey) *stubStore {
	s := &stubStore{surveys: map[string]*Survey{}}
	for _, sv := range surveys {
		s.surveys[sv.ID] = cloneSurvey(sv)
	}
	return s
}

func cloneSurvey(sv *Survey) *Survey {
	cp := *sv
	cp.Questions = make([]*Question, 0, len(sv.Questions))
	for _, q := range sv.Questions {
		qc := *q
		qc.Options = append([]string(nil), q.Options...)
		cp.Questions = append(cp.Questions, &qc)
	}
	return &cp
}

func (s *stubStore) InsertSurvey(_ context.Context, sv *Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; ok {
		return errors.New("duplicate survey")
	}
	s.surveys[sv.ID] = cloneSurvey(sv)
	return nil
}

func (s *stubStore) GetSurvey(_ context.Context, id string) (*Survey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if sv, ok := s.surveys[id]; ok {
		return cloneSurvey(sv), nil
	}
	return nil, nil
}

func (s *stubStore) ListSurveys(_ context.Context, tenantID string) ([]*Survey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*Survey{}
	for _, sv := range s.surveys {
		if sv.TenantID == tenantID {
			out = append(out, cloneSurvey(sv))
		}
	}
	return out, nil
}

func (s *stubStore) UpdateSurvey(_ context.Context, sv *Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; !ok {
		return errors.New("missing survey")
	}
	s.surveys[sv.ID] = cloneSurvey(sv)
	return nil
}

func (s *stubStore) DeleteSurvey(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.surveys, id)
	return nil
}

func (s *stubStore) DeleteSubmissionsBySurvey(_ context.Context, surveyID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.submissions[:0]
	removed := 0
	for _, sub := range s.submissions {
		if sub.SurveyID == surveyID {
			removed++
			continue
		}
		kept = append(kept, sub)
	}
	s.submissions = kept
	return removed, nil
}

func (s *stubStore) AddSubmission(_ context.Context, sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	cp.Answers = append([]Response(nil), sub.Answers...)
	s.submissions = append(s.submissions, &cp)
	return nil
}

func (s *stubStore) ListSubmissions(_ context.Context, surveyID string) ([]*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*Submission{}
	for _, sub := range s.submissions {
		if sub.SurveyID == surveyID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}
