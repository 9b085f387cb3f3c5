package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/soaringjerry/obe-survey/internal/services"
)

var (
	errDuplicateSurvey = errors.New("survey already exists")
	errMissingSurvey   = errors.New("survey does not exist")
	errDuplicateUser   = errors.New("user already exists")
)

type memoryStore struct {
	mu           sync.RWMutex
	surveys      map[string]*services.Survey
	submissions  map[string][]*services.Submission
	tenants      map[string]*services.Tenant
	usersByEmail map[string]*services.User
}

// NewMemoryStore returns a Store that keeps everything in process memory.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		surveys:      map[string]*services.Survey{},
		submissions:  map[string][]*services.Submission{},
		tenants:      map[string]*services.Tenant{},
		usersByEmail: map[string]*services.User{},
	}
}

func cloneSurvey(sv *services.Survey) *services.Survey {
	cp := *sv
	cp.Questions = make([]*services.Question, 0, len(sv.Questions))
	for _, q := range sv.Questions {
		qc := *q
		qc.Options = append([]string(nil), q.Options...)
		if q.MinValue != nil {
			v := *q.MinValue
			qc.MinValue = &v
		}
		if q.MaxValue != nil {
			v := *q.MaxValue
			qc.MaxValue = &v
		}
		cp.Questions = append(cp.Questions, &qc)
	}
	return &cp
}

func cloneSubmission(sub *services.Submission) *services.Submission {
	cp := *sub
	cp.Answers = append([]services.Response(nil), sub.Answers...)
	return &cp
}

func (s *memoryStore) InsertSurvey(_ context.Context, sv *services.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; ok {
		return errDuplicateSurvey
	}
	s.surveys[sv.ID] = cloneSurvey(sv)
	return nil
}

func (s *memoryStore) GetSurvey(_ context.Context, id string) (*services.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sv, ok := s.surveys[id]; ok {
		return cloneSurvey(sv), nil
	}
	return nil, nil
}

func (s *memoryStore) ListSurveys(_ context.Context, tenantID string) ([]*services.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Survey{}
	for _, sv := range s.surveys {
		if sv.TenantID == tenantID {
			out = append(out, cloneSurvey(sv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) UpdateSurvey(_ context.Context, sv *services.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; !ok {
		return errMissingSurvey
	}
	s.surveys[sv.ID] = cloneSurvey(sv)
	return nil
}

func (s *memoryStore) DeleteSurvey(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.surveys, id)
	return nil
}

func (s *memoryStore) AddSubmission(_ context.Context, sub *services.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sub.SurveyID]; !ok {
		return errMissingSurvey
	}
	s.submissions[sub.SurveyID] = append(s.submissions[sub.SurveyID], cloneSubmission(sub))
	return nil
}

func (s *memoryStore) ListSubmissions(_ context.Context, surveyID string) ([]*services.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := s.submissions[surveyID]
	out := make([]*services.Submission, 0, len(subs))
	for _, sub := range subs {
		out = append(out, cloneSubmission(sub))
	}
	return out, nil
}

func (s *memoryStore) DeleteSubmissionsBySurvey(_ context.Context, surveyID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.submissions[surveyID])
	delete(s.submissions, surveyID)
	return n, nil
}

func (s *memoryStore) AddTenant(_ context.Context, t *services.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tenants[t.ID] = &cp
	return nil
}

func (s *memoryStore) AddUser(_ context.Context, u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.usersByEmail[key]; ok {
		return errDuplicateUser
	}
	cp := *u
	s.usersByEmail[key] = &cp
	return nil
}

func (s *memoryStore) FindUserByEmail(_ context.Context, email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.usersByEmail[strings.ToLower(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}
