package api

import (
	"net/http"
	"strconv"

	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/shopspring/decimal"
)

type registerStaffRequest struct {
	StaffID string          `json:"staff_id"`
	Name    string          `json:"name"`
	Duty    string          `json:"duty"`
	Salary  decimal.Decimal `json:"salary"`
}

type dutyRequest struct {
	Duty string `json:"duty"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

func parseDuty(raw string) (models.Duty, error) {
	duty, ok := models.ParseDuty(raw)
	if !ok {
		return "", domain.Validation("unknown duty %q", raw)
	}
	return duty, nil
}

func (s *Server) handleRegisterStaff(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var req registerStaffRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	duty, err := parseDuty(req.Duty)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	staff, err := s.svc.Staff.RegisterStaff(r.Context(), actor, &models.Staff{
		StaffID: req.StaffID,
		Name:    req.Name,
		Duty:    duty,
		Salary:  req.Salary,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, staff)
}

func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))
	staff, err := s.svc.Staff.ListStaff(r.Context(), includeInactive)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if staff == nil {
		staff = []*models.Staff{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"staff": staff})
}

func (s *Server) handleStaffSummary(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	summary, err := s.svc.Staff.Summary(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetStaff(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	staff, err := s.svc.Staff.GetStaff(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (s *Server) handleAssignDuty(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var req dutyRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	duty, err := parseDuty(req.Duty)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	staff, err := s.svc.Staff.AssignDuty(r.Context(), actor, r.PathValue("id"), duty)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var perf models.Performance
	if err := s.decodeJSON(w, r, &perf); err != nil {
		s.fail(w, r, err)
		return
	}
	staff, err := s.svc.Staff.RecordPerformance(r.Context(), actor, r.PathValue("id"), perf)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var req activeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	staff, err := s.svc.Staff.SetActive(r.Context(), actor, r.PathValue("id"), req.Active)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}
