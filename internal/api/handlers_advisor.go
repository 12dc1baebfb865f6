package api

import (
	"net/http"

	"autoassist/internal/domain"
	"autoassist/internal/models"
)

type chatRequest struct {
	History []models.ChatTurn `json:"history"`
	Message string            `json:"message"`
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	var req models.ServiceContext
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	advice, err := s.svc.Advisor.RecommendServices(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adviceResponse{Advice: advice})
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	var req models.DiagnosisRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	advice, err := s.svc.Advisor.Diagnose(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adviceResponse{Advice: advice})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	var req chatRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	reply, err := s.svc.Advisor.Chat(r.Context(), req.History, req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleAssistStaff(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	if err := actor.RequireManager("staff assistance"); err != nil {
		s.fail(w, r, err)
		return
	}
	var task models.StaffTask
	if err := s.decodeJSON(w, r, &task); err != nil {
		s.fail(w, r, err)
		return
	}
	advice, err := s.svc.Advisor.AssistStaff(r.Context(), task)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adviceResponse{Advice: advice})
}
