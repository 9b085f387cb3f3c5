package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/obe-survey/internal/services"
)

func (rt *Router) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	list, err := rt.surveys.ListSurveys(r.Context(), tenantOf(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"surveys": list})
}

func (rt *Router) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var in services.SurveyInput
	if !rt.decodeJSON(w, r, &in) {
		return
	}
	sv, err := rt.surveys.CreateSurvey(r.Context(), tenantOf(r), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusCreated, sv)
}

func (rt *Router) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	sv, err := rt.surveys.GetSurvey(r.Context(), tenantOf(r), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, sv)
}

func (rt *Router) handleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	var in services.SurveyInput
	if !rt.decodeJSON(w, r, &in) {
		return
	}
	sv, err := rt.surveys.UpdateSurvey(r.Context(), tenantOf(r), chi.URLParam(r, "id"), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, sv)
}

func (rt *Router) handleDeleteSurvey(w http.ResponseWriter, r *http.Request) {
	removed, err := rt.surveys.DeleteSurvey(r.Context(), tenantOf(r), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "removed_submissions": removed})
}

func (rt *Router) handlePublicForm(w http.ResponseWriter, r *http.Request) {
	form, err := rt.surveys.PublicForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, form)
}

func (rt *Router) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var q services.Question
	if !rt.decodeJSON(w, r, &q) {
		return
	}
	added, err := rt.surveys.AddQuestion(r.Context(), tenantOf(r), chi.URLParam(r, "id"), q)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusCreated, added)
}

func (rt *Router) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var q services.Question
	if !rt.decodeJSON(w, r, &q) {
		return
	}
	q.ID = chi.URLParam(r, "qid")
	updated, err := rt.surveys.UpdateQuestion(r.Context(), tenantOf(r), chi.URLParam(r, "id"), q)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, updated)
}

func (rt *Router) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := rt.surveys.DeleteQuestion(r.Context(), tenantOf(r), chi.URLParam(r, "id"), chi.URLParam(r, "qid")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (rt *Router) handleReorderQuestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []string `json:"order"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	qs, err := rt.surveys.ReorderQuestions(r.Context(), tenantOf(r), chi.URLParam(r, "id"), req.Order)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
}
