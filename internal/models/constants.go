package models

import "strings"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// successors lists the legal next states. Terminal states have none.
var successors = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

func (s BookingStatus) Valid() bool {
	_, ok := successors[s]
	return ok
}

// Terminal reports whether no transition may leave s.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, candidate := range successors[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseBookingStatus accepts the canonical value and a few spellings used by
// admin tooling ("In Progress", "in-progress", "canceled").
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	v := normalizeEnum(raw)
	if v == "canceled" {
		v = string(StatusCancelled)
	}
	s := BookingStatus(v)
	return s, s.Valid()
}

// Role is the permission level of an account.
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleStaff         Role = "staff"
	RoleAdministrator Role = "administrator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdministrator:
		return true
	}
	return false
}

// CanManage reports whether the role may mutate bookings and inventory.
func (r Role) CanManage() bool {
	return r == RoleStaff || r == RoleAdministrator
}

func ParseRole(raw string) (Role, bool) {
	r := Role(normalizeEnum(raw))
	if r == "admin" {
		r = RoleAdministrator
	}
	return r, r.Valid()
}

// Duty is the job a staff member is assigned to.
type Duty string

const (
	DutyMechanic     Duty = "mechanic"
	DutyHelper       Duty = "helper"
	DutyManager      Duty = "manager"
	DutyReceptionist Duty = "receptionist"
)

var AllDuties = []Duty{DutyMechanic, DutyHelper, DutyManager, DutyReceptionist}

func (d Duty) Valid() bool {
	for _, known := range AllDuties {
		if d == known {
			return true
		}
	}
	return false
}

func ParseDuty(raw string) (Duty, bool) {
	d := Duty(normalizeEnum(raw))
	return d, d.Valid()
}

// StockReason explains an inventory quantity change.
type StockReason string

const (
	ReasonUsed       StockReason = "used"
	ReasonRestocked  StockReason = "restocked"
	ReasonCorrection StockReason = "correction"
)

func (r StockReason) Valid() bool {
	switch r {
	case ReasonUsed, ReasonRestocked, ReasonCorrection:
		return true
	}
	return false
}

// AllowsDelta reports whether the sign of delta matches the reason.
// Corrections may go either way.
func (r StockReason) AllowsDelta(delta int64) bool {
	switch r {
	case ReasonUsed:
		return delta < 0
	case ReasonRestocked:
		return delta > 0
	case ReasonCorrection:
		return delta != 0
	}
	return false
}

func ParseStockReason(raw string) (StockReason, bool) {
	r := StockReason(normalizeEnum(raw))
	return r, r.Valid()
}

const (
	// DefaultSlotCapacity bookings accepted per time slot
	DefaultSlotCapacity = 3

	// DefaultMaxAdvanceDays how far ahead a slot may be booked
	DefaultMaxAdvanceDays = 30

	// ChatHistoryTurns number of previous chat turns sent as context
	ChatHistoryTurns = 5

	// DefaultListLimit page size for list endpoints
	DefaultListLimit = 100

	// MaxImportRecords upper bound on records in one bulk import
	MaxImportRecords = 5000
)

// DefaultSlotHours working hours at which a slot may start.
var DefaultSlotHours = []int{9, 10, 11, 12, 14, 15, 16, 17}

func normalizeEnum(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "-", "_")
	return strings.ReplaceAll(v, " ", "_")
}
