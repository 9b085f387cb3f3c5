package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/soaringjerry/obe-survey/internal/middleware"
	"github.com/soaringjerry/obe-survey/internal/services"
	"github.com/soaringjerry/obe-survey/internal/utils"
)

const maxBodyBytes = 1 << 20

func (rt *Router) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		rt.logger.Printf("encode response: %v", err)
	}
}

// decodeJSON reads a bounded JSON body into dst and reports a localized 400
// when it cannot.
func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		msg := utils.T(middleware.LocaleFromContext(r.Context()), "request.invalid_body")
		rt.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg, "detail": err.Error()})
		return false
	}
	return true
}

func statusForCode(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps service errors to status codes. Unknown errors are logged
// and reported as 500 without detail.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())

	var subErr *services.SubmissionError
	if errors.As(err, &subErr) {
		fields := make(map[string]string, len(subErr.Fields))
		for id, ferr := range subErr.Fields {
			if errors.Is(ferr, services.ErrRequired) {
				fields[id] = utils.T(locale, "validation.required")
			} else {
				fields[id] = ferr.Error()
			}
		}
		rt.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  utils.T(locale, "submission.rejected"),
			"fields": fields,
		})
		return
	}
	if errors.Is(err, services.ErrSurveyNotFound) {
		rt.writeJSON(w, http.StatusNotFound, map[string]string{"error": utils.T(locale, "survey.not_found")})
		return
	}
	if se, ok := services.AsServiceError(err); ok {
		rt.writeJSON(w, statusForCode(se.Code), map[string]string{"error": se.Message})
		return
	}
	rt.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	rt.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
