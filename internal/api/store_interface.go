package api

import (
	"context"

	"github.com/soaringjerry/obe-survey/internal/services"
)

// Store is the persistence surface the HTTP layer needs. Lookups return
// nil, nil when the record does not exist.
type Store interface {
	InsertSurvey(ctx context.Context, sv *services.Survey) error
	GetSurvey(ctx context.Context, id string) (*services.Survey, error)
	ListSurveys(ctx context.Context, tenantID string) ([]*services.Survey, error)
	UpdateSurvey(ctx context.Context, sv *services.Survey) error
	DeleteSurvey(ctx context.Context, id string) error

	AddSubmission(ctx context.Context, sub *services.Submission) error
	ListSubmissions(ctx context.Context, surveyID string) ([]*services.Submission, error)
	DeleteSubmissionsBySurvey(ctx context.Context, surveyID string) (int, error)

	AddTenant(ctx context.Context, t *services.Tenant) error
	AddUser(ctx context.Context, u *services.User) error
	FindUserByEmail(ctx context.Context, email string) (*services.User, error)
}

var (
	_ Store                    = (*memoryStore)(nil)
	_ services.SurveyStore     = Store(nil)
	_ services.SubmissionStore = Store(nil)
	_ services.AnalyticsStore  = Store(nil)
	_ services.ExportStore     = Store(nil)
	_ services.AuthStore       = Store(nil)
)
