package api

import (
	"net/http"
	"time"

	"autoassist/internal/domain"
	"autoassist/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleRegister is public for customer accounts. An administrator token
// allows creating staff and administrator accounts.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var actor *domain.Actor
	if a, _, present, status, msg := s.authenticate(r); present {
		if status != 0 {
			writeError(w, status, msg)
			return
		}
		actor = &a
	}

	var reg models.Registration
	if err := s.decodeJSON(w, r, &reg); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.svc.Users.Register(r.Context(), actor, reg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	session, err := s.svc.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	expiresAt := time.Now().Add(s.tokens.TTL())
	if claims := claimsFrom(r.Context()); claims != nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.svc.Users.Logout(r.Context(), actor, expiresAt); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	user, err := s.svc.Users.GetProfile(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var update models.ProfileUpdate
	if err := s.decodeJSON(w, r, &update); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.svc.Users.UpdateProfile(r.Context(), actor, update)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
