package services

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type AnalyticsStore interface {
	GetSurvey(ctx context.Context, id string) (*Survey, error)
	ListSubmissions(ctx context.Context, surveyID string) ([]*Submission, error)
}

// Metrics receives observations from analytics operations.
type Metrics interface {
	ObserveAggregation(kind AggregateKind, d time.Duration)
	ObserveSummary(questions int, d time.Duration)
	AddDataWarnings(invalid, unmatched int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAggregation(AggregateKind, time.Duration) {}
func (nopMetrics) ObserveSummary(int, time.Duration)              {}
func (nopMetrics) AddDataWarnings(int, int)                       {}

type AnalyticsService struct {
	store   AnalyticsStore
	metrics Metrics
	tracer  trace.Tracer
	group   singleflight.Group
	now     func() time.Time
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DataWarning flags responses that were excluded from a question's counts.
type DataWarning struct {
	QuestionID string `json:"question_id"`
	Invalid    int    `json:"invalid,omitempty"`
	Unmatched  int    `json:"unmatched,omitempty"`
}

type AnalyticsSummary struct {
	SurveyID         string                `json:"survey_id"`
	Title            string                `json:"title"`
	TotalSubmissions int                   `json:"total_submissions"`
	CompletionRate   float64               `json:"completion_rate"`
	Questions        []QuestionAggregate   `json:"questions"`
	Timeseries       []AnalyticsTimeseries `json:"timeseries"`
	Warnings         []DataWarning         `json:"warnings,omitempty"`
	Reliability      *Reliability          `json:"reliability,omitempty"`
	GeneratedAt      time.Time             `json:"generated_at"`
}

func NewAnalyticsService(store AnalyticsStore, metrics Metrics) *AnalyticsService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &AnalyticsService{
		store:   store,
		metrics: metrics,
		tracer:  otel.Tracer("github.com/soaringjerry/obe-survey/internal/services"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Summary aggregates every question of a survey. Concurrent calls for the
// same tenant and survey share one computation, which keeps running when the
// caller that started it goes away; each caller returns on its own ctx.
func (s *AnalyticsService) Summary(ctx context.Context, tenantID, surveyID string) (*AnalyticsSummary, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(tenantID+"/"+surveyID, func() (any, error) {
		return s.summary(shared, tenantID, surveyID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*AnalyticsSummary), nil
	}
}

func (s *AnalyticsService) summary(ctx context.Context, tenantID, surveyID string) (_ *AnalyticsSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "AnalyticsService.Summary",
		trace.WithAttributes(attribute.String("survey.id", surveyID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	sv, subs, err := s.load(ctx, tenantID, surveyID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	responses := FlattenResponses(subs)
	aggregates := AggregateAll(sv.Questions, responses)
	out := &AnalyticsSummary{
		SurveyID:         sv.ID,
		Title:            sv.Title,
		TotalSubmissions: len(subs),
		CompletionRate:   completionRate(sv.Questions, subs),
		Questions:        aggregates,
		Timeseries:       buildTimeseries(subs),
		Reliability:      SurveyReliability(sv.Questions, subs),
		GeneratedAt:      s.now(),
	}
	invalid, unmatched := 0, 0
	for _, qa := range aggregates {
		w := warningFor(qa)
		if w.Invalid > 0 || w.Unmatched > 0 {
			out.Warnings = append(out.Warnings, w)
			invalid += w.Invalid
			unmatched += w.Unmatched
		}
	}
	s.metrics.ObserveSummary(len(aggregates), time.Since(start))
	s.metrics.AddDataWarnings(invalid, unmatched)
	span.SetAttributes(
		attribute.Int("survey.submissions", len(subs)),
		attribute.Int("survey.questions", len(aggregates)),
	)
	return out, nil
}

// QuestionAggregate aggregates one question. The aggregation is nil when the
// question has no responses yet.
func (s *AnalyticsService) QuestionAggregate(ctx context.Context, tenantID, surveyID, questionID string) (_ *QuestionAggregate, err error) {
	ctx, span := s.tracer.Start(ctx, "AnalyticsService.QuestionAggregate",
		trace.WithAttributes(
			attribute.String("survey.id", surveyID),
			attribute.String("question.id", questionID),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	sv, subs, err := s.load(ctx, tenantID, surveyID)
	if err != nil {
		return nil, err
	}
	q := sv.Question(questionID)
	if q == nil {
		return nil, NewNotFoundError(ErrQuestionNotFound.Error())
	}

	start := time.Now()
	result := Aggregate(*q, FlattenResponses(subs))
	if result != nil {
		s.metrics.ObserveAggregation(result.Kind(), time.Since(start))
	}
	qa := &QuestionAggregate{QuestionID: q.ID, Type: q.Type, Prompt: q.Prompt, Result: result}
	if w := warningFor(*qa); w.Invalid > 0 || w.Unmatched > 0 {
		s.metrics.AddDataWarnings(w.Invalid, w.Unmatched)
	}
	return qa, nil
}

func (s *AnalyticsService) load(ctx context.Context, tenantID, surveyID string) (*Survey, []*Submission, error) {
	var (
		sv   *Survey
		subs []*Submission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sv, err = s.store.GetSurvey(gctx, surveyID)
		return err
	})
	g.Go(func() error {
		var err error
		subs, err = s.store.ListSubmissions(gctx, surveyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if sv == nil {
		return nil, nil, NewNotFoundError(ErrSurveyNotFound.Error())
	}
	if sv.TenantID != tenantID {
		return nil, nil, NewForbiddenError("forbidden")
	}
	return sv, subs, nil
}

func warningFor(qa QuestionAggregate) DataWarning {
	w := DataWarning{QuestionID: qa.QuestionID}
	switch a := qa.Result.(type) {
	case *RatingAggregate:
		w.Invalid = a.Invalid
	case *CategoricalAggregate:
		w.Unmatched = a.Unmatched
	}
	return w
}

// completionRate is the percentage of submissions that answered every
// required question.
func completionRate(questions []*Question, subs []*Submission) float64 {
	if len(subs) == 0 {
		return 0
	}
	complete := 0
	for _, sub := range subs {
		if len(ValidateSubmission(questions, sub.Answers)) == 0 {
			complete++
		}
	}
	return Percentage(complete, len(subs))
}

func buildTimeseries(subs []*Submission) []AnalyticsTimeseries {
	counts := map[string]int{}
	for _, sub := range subs {
		counts[sub.SubmittedAt.UTC().Format("2006-01-02")]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]AnalyticsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}
