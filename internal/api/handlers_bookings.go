package api

import (
	"net/http"
	"strconv"
	"strings"

	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/shopspring/decimal"
)

type statusRequest struct {
	Status string `json:"status"`
}

type assignRequest struct {
	StaffID string `json:"staff_id"`
}

type costRequest struct {
	ActualCost decimal.Decimal `json:"actual_cost"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Bookings.Catalog())
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vehicle, ok := models.ParseVehicleType(q.Get("vehicle_type"))
	if !ok {
		s.fail(w, r, domain.Validation("unknown vehicle type %q", q.Get("vehicle_type")))
		return
	}
	serviceType, ok := models.ParseServiceType(q.Get("service_type"))
	if !ok {
		s.fail(w, r, domain.Validation("unknown service type %q", q.Get("service_type")))
		return
	}

	cost, err := s.svc.Bookings.EstimateCost(serviceType, vehicle)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vehicle_type":   vehicle,
		"service_type":   serviceType,
		"estimated_cost": cost,
		"currency":       "INR",
	})
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var req models.BookingRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	outcome, err := s.svc.Bookings.CreateBooking(r.Context(), actor, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	q := r.URL.Query()
	filter := models.BookingFilter{}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, ok := models.ParseBookingStatus(raw)
		if !ok {
			s.fail(w, r, domain.Validation("unknown status %q", raw))
			return
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			s.fail(w, r, domain.Validation("invalid user_id %q", raw))
			return
		}
		filter.UserID = id
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	filter.Limit = limit

	bookings, err := s.svc.Bookings.ListBookings(r.Context(), actor, filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.GetBooking(r.Context(), actor, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req statusRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	status, ok := models.ParseBookingStatus(req.Status)
	if !ok {
		s.fail(w, r, domain.Validation("unknown status %q", req.Status))
		return
	}

	booking, err := s.svc.Bookings.UpdateStatus(r.Context(), actor, id, status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleAssignStaff(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req assignRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.AssignStaff(r.Context(), actor, id, req.StaffID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleActualCost(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req costRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.RecordActualCost(r.Context(), actor, id, req.ActualCost)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
