package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autoassist/internal/config"
	"autoassist/internal/domain"
	"autoassist/internal/events"
	"autoassist/internal/metrics"
	"autoassist/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SlotPolicy describes which booking slots are acceptable.
type SlotPolicy struct {
	Hours          []int
	Capacity       int
	MaxAdvanceDays int
	Location       *time.Location
}

func NewSlotPolicy(cfg config.BookingConfig) (SlotPolicy, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return SlotPolicy{}, fmt.Errorf("load booking timezone: %w", err)
	}
	return SlotPolicy{
		Hours:          cfg.SlotHours,
		Capacity:       cfg.SlotCapacity,
		MaxAdvanceDays: cfg.MaxAdvanceDays,
		Location:       loc,
	}, nil
}

// Check validates slot against now and returns it normalized to UTC.
func (p SlotPolicy) Check(slot, now time.Time) (time.Time, error) {
	if slot.IsZero() {
		return time.Time{}, domain.Validation("slot is required")
	}
	if slot.Before(now) {
		return time.Time{}, domain.Validation("cannot book a slot in the past")
	}
	if p.MaxAdvanceDays > 0 && slot.After(now.AddDate(0, 0, p.MaxAdvanceDays)) {
		return time.Time{}, domain.Validation("slots can be booked at most %d days ahead", p.MaxAdvanceDays)
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	local := slot.In(loc)
	if local.Minute() != 0 || local.Second() != 0 || local.Nanosecond() != 0 {
		return time.Time{}, domain.Validation("slots start on the hour")
	}
	if len(p.Hours) > 0 && !containsHour(p.Hours, local.Hour()) {
		return time.Time{}, domain.Validation("%02d:00 is not a bookable slot", local.Hour())
	}
	return slot.UTC().Truncate(time.Minute), nil
}

func containsHour(hours []int, h int) bool {
	for _, candidate := range hours {
		if candidate == h {
			return true
		}
	}
	return false
}

type BookingService struct {
	repo     domain.BookingRepository
	prices   *PriceTable
	policy   SlotPolicy
	advisor  domain.Advisor
	enrich   bool
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewBookingService wires the booking operations. advisor may be nil; enrich
// controls whether a recommendation is requested after each new booking.
func NewBookingService(
	repo domain.BookingRepository,
	prices *PriceTable,
	policy SlotPolicy,
	advisor domain.Advisor,
	enrich bool,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *BookingService {
	if prices == nil {
		prices = DefaultPriceTable()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:     repo,
		prices:   prices,
		policy:   policy,
		advisor:  advisor,
		enrich:   enrich,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *BookingService) Catalog() models.Catalog {
	return models.NewCatalog(s.policy.Hours)
}

func (s *BookingService) EstimateCost(serviceType models.ServiceType, vehicleType models.VehicleType) (decimal.Decimal, error) {
	return s.prices.Estimate(serviceType, vehicleType)
}

func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, req models.BookingRequest) (*models.BookingOutcome, error) {
	booking, err := s.buildBooking(actor, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateBooking(ctx, booking, s.policy.Capacity); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("user_id", booking.UserID).
		Str("service_type", string(booking.ServiceType)).
		Time("slot", booking.Slot).
		Msg("booking created")
	metrics.IncBookingCreated(string(booking.VehicleType), string(booking.ServiceCategory))
	s.publishEvent(events.EventBookingCreated, booking, "", actor)

	outcome := &models.BookingOutcome{Booking: booking}
	if s.enrich && s.advisor != nil && s.advisor.Enabled() {
		advice, err := s.advisor.RecommendServices(ctx, models.ServiceContext{
			VehicleType:     booking.VehicleType,
			VehicleModel:    booking.VehicleModel,
			ServiceCategory: booking.ServiceCategory,
			ServiceType:     booking.ServiceType,
			Notes:           booking.Notes,
		})
		if err != nil {
			outcome.Warnings = append(outcome.Warnings, "service recommendations are unavailable right now")
		} else {
			outcome.Advice = advice
		}
	}
	return outcome, nil
}

func (s *BookingService) buildBooking(actor domain.Actor, req models.BookingRequest) (*models.Booking, error) {
	owner := actor.UserID
	if req.UserID != 0 && req.UserID != actor.UserID {
		if err := actor.RequireManager("booking on behalf of another user"); err != nil {
			return nil, err
		}
		owner = req.UserID
	}
	if owner <= 0 {
		return nil, domain.Validation("booking owner is required")
	}

	vehicle, ok := models.ParseVehicleType(req.VehicleType)
	if !ok {
		return nil, domain.Validation("unknown vehicle type %q", req.VehicleType)
	}
	category, ok := models.ParseServiceCategory(req.ServiceCategory)
	if !ok {
		return nil, domain.Validation("unknown service category %q", req.ServiceCategory)
	}
	serviceType, ok := models.ParseServiceType(req.ServiceType)
	if !ok {
		return nil, domain.Validation("unknown service type %q", req.ServiceType)
	}
	if serviceType.Category() != category {
		return nil, domain.Validation("%s is not a %s service", serviceType, category)
	}
	if !serviceType.OfferedFor(vehicle) {
		return nil, domain.Validation("%s is not offered for %s", serviceType, vehicle)
	}

	vehicleNumber := strings.ToUpper(strings.TrimSpace(req.VehicleNumber))
	if vehicleNumber == "" {
		return nil, domain.Validation("vehicle number is required")
	}

	slot, err := s.policy.Check(req.Slot, s.now())
	if err != nil {
		return nil, err
	}

	cost, err := s.prices.Estimate(serviceType, vehicle)
	if err != nil {
		return nil, err
	}

	return &models.Booking{
		UserID:          owner,
		VehicleType:     vehicle,
		VehicleNumber:   vehicleNumber,
		VehicleModel:    strings.TrimSpace(req.VehicleModel),
		ServiceCategory: category,
		ServiceType:     serviceType,
		Slot:            slot,
		Notes:           strings.TrimSpace(req.Notes),
		Status:          models.StatusPending,
		EstimatedCost:   cost,
	}, nil
}

// GetBooking returns a booking. Customers only see their own.
func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, id int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage() && booking.UserID != actor.UserID {
		return nil, domain.NotFound("booking %d not found", id)
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor, filter models.BookingFilter) ([]*models.Booking, error) {
	if !actor.CanManage() {
		filter.UserID = actor.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Validation("unknown status %q", filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > models.DefaultListLimit {
		filter.Limit = models.DefaultListLimit
	}
	return s.repo.ListBookings(ctx, filter)
}

func (s *BookingService) UpdateStatus(ctx context.Context, actor domain.Actor, id int64, status models.BookingStatus) (*models.Booking, error) {
	if err := actor.RequireManager("updating booking status"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.Validation("unknown status %q", status)
	}

	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	from := booking.Status
	if !from.CanTransitionTo(status) {
		return nil, domain.State("booking %d cannot move from %s to %s", id, from, status)
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, from, status); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", id).
		Str("from", string(from)).
		Str("to", string(status)).
		Int64("actor_id", actor.UserID).
		Msg("booking status changed")
	metrics.IncStatusTransition(string(from), string(status))
	s.publishEvent(events.EventBookingStatusChanged, updated, from, actor)
	return updated, nil
}

func (s *BookingService) AssignStaff(ctx context.Context, actor domain.Actor, id int64, staffID string) (*models.Booking, error) {
	if err := actor.RequireManager("assigning staff"); err != nil {
		return nil, err
	}
	staffID = strings.ToUpper(strings.TrimSpace(staffID))
	if staffID == "" {
		return nil, domain.Validation("staff id is required")
	}

	if err := s.repo.AssignStaff(ctx, id, staffID); err != nil {
		return nil, err
	}
	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("booking_id", id).Str("staff_id", staffID).Msg("staff assigned")
	s.publishEvent(events.EventBookingAssigned, updated, "", actor)
	return updated, nil
}

func (s *BookingService) RecordActualCost(ctx context.Context, actor domain.Actor, id int64, cost decimal.Decimal) (*models.Booking, error) {
	if err := actor.RequireManager("recording actual cost"); err != nil {
		return nil, err
	}
	if cost.IsNegative() {
		return nil, domain.Validation("actual cost must not be negative")
	}
	if err := s.repo.SetActualCost(ctx, id, cost.Round(2)); err != nil {
		return nil, err
	}
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, oldStatus models.BookingStatus, actor domain.Actor) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		VehicleType: string(booking.VehicleType),
		ServiceType: string(booking.ServiceType),
		Slot:        booking.Slot,
		Status:      string(booking.Status),
		OldStatus:   string(oldStatus),
		StaffID:     booking.StaffID,
		ChangedBy:   string(actor.Role),
		ChangedByID: actor.UserID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
