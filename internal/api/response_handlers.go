package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/obe-survey/internal/middleware"
	"github.com/soaringjerry/obe-survey/internal/services"
	"github.com/soaringjerry/obe-survey/internal/utils"
)

// POST /api/surveys/{id}/responses
// { respondent?: string, answers: [{question_id, value}] }
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Respondent string              `json:"respondent"`
		Answers    []services.Response `json:"answers"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	res, err := rt.responses.Submit(r.Context(), services.SubmitRequest{
		SurveyID:   chi.URLParam(r, "id"),
		Respondent: req.Respondent,
		Locale:     middleware.LocaleFromContext(r.Context()),
		Answers:    req.Answers,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	skipped := res.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	rt.writeJSON(w, http.StatusCreated, map[string]any{
		"ok":            true,
		"submission_id": res.SubmissionID,
		"count":         res.ResponsesCount,
		"skipped":       skipped,
	})
}

func (rt *Router) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := rt.analytics.Summary(r.Context(), tenantOf(r), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, summary)
}

// GET /api/surveys/{id}/questions/{qid}/analytics; 204 when nothing was answered yet.
func (rt *Router) handleQuestionAnalytics(w http.ResponseWriter, r *http.Request) {
	qa, err := rt.analytics.QuestionAggregate(r.Context(), tenantOf(r), chi.URLParam(r, "id"), chi.URLParam(r, "qid"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if qa.Result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	rt.writeJSON(w, http.StatusOK, qa)
}

// GET /api/surveys/{id}/export?format=aggregates|long|wide
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	tid := tenantOf(r)
	if !rt.exports.Allow(tid) {
		w.Header().Set("Retry-After", "5")
		rt.writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": utils.T(middleware.LocaleFromContext(r.Context()), "export.rate_limited"),
		})
		return
	}
	res, err := rt.exporter.ExportCSV(r.Context(), services.ExportParams{
		TenantID: tid,
		SurveyID: chi.URLParam(r, "id"),
		Format:   r.URL.Query().Get("format"),
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	if _, err := w.Write(res.Data); err != nil {
		rt.logger.Printf("write export: %v", err)
	}
}
