package apihttp

import (
	"net/http"
	"time"

	session "plantwatch/internal/session/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      session.User `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Token     string       `json:"token,omitempty"`
}

func (s *Server) routeSession(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/session", s.handleLogin)
	mux.HandleFunc("GET /api/v1/session", s.handleCurrentSession)
	mux.HandleFunc("DELETE /api/v1/session", s.handleLogout)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ok, err := s.session.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if !ok {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	sess, ok, err := s.session.Current(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if !ok {
		http.Error(w, "session not persisted", http.StatusInternalServerError)
		return
	}
	token, err := s.session.Token(sess)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: sess.User, ExpiresAt: sess.Expiry(), Token: token})
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	sess, ok, err := s.session.Current(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if !ok {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: sess.User, ExpiresAt: sess.Expiry()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Logout(r.Context()); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
