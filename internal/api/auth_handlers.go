package api

import "net/http"

type credentials struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	TenantName string `json:"tenant_name"`
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	res, err := rt.authSvc.Register(r.Context(), req.Email, req.Password, req.TenantName)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusCreated, res)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	res, err := rt.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, res)
}
