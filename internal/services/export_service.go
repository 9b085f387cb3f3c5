package services

import (
	"context"
	"time"
)

type ExportStore interface {
	GetSurvey(ctx context.Context, id string) (*Survey, error)
	ListSubmissions(ctx context.Context, surveyID string) ([]*Submission, error)
}

type ExportParams struct {
	TenantID string
	SurveyID string
	Format   string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
	now   func() time.Time
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ExportService) ExportCSV(ctx context.Context, params ExportParams) (*ExportResult, error) {
	if params.SurveyID == "" {
		return nil, NewInvalidError("survey_id required")
	}
	format := params.Format
	if format == "" {
		format = "aggregates"
	}
	switch format {
	case "aggregates", "long", "wide":
	default:
		return nil, NewInvalidError("unsupported format")
	}
	sv, err := s.store.GetSurvey(ctx, params.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(ErrSurveyNotFound.Error())
	}
	if sv.TenantID != params.TenantID {
		return nil, NewForbiddenError("forbidden")
	}
	subs, err := s.store.ListSubmissions(ctx, sv.ID)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch format {
	case "long":
		data, err = ExportLongCSV(buildLongRows(subs))
	case "wide":
		ids := make([]string, len(sv.Questions))
		for i, q := range sv.Questions {
			ids[i] = q.ID
		}
		data, err = ExportWideCSV(ids, buildWideRows(subs))
	default:
		data, err = ExportAggregatesCSV(buildAggregateRows(AggregateAll(sv.Questions, FlattenResponses(subs))))
	}
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    sv.ID + "-" + format + "-" + s.now().Format("20060102") + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}
