package domain

import (
	"context"
	"io"
	"time"

	"autoassist/internal/models"

	"github.com/shopspring/decimal"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking, slotCapacity int) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, from, to models.BookingStatus) error
	AssignStaff(ctx context.Context, bookingID int64, staffID string) error
	SetActualCost(ctx context.Context, id int64, cost decimal.Decimal) error
}

type StaffRepository interface {
	CreateStaff(ctx context.Context, staff *models.Staff) error
	GetStaff(ctx context.Context, staffID string) (*models.Staff, error)
	ListStaff(ctx context.Context, includeInactive bool) ([]*models.Staff, error)
	UpdateStaffDuty(ctx context.Context, staffID string, duty models.Duty) error
	RecordPerformance(ctx context.Context, staffID string, perf models.Performance) (*models.Staff, error)
	SetStaffActive(ctx context.Context, staffID string, active bool) error
}

type InventoryRepository interface {
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	CreateItemWithStock(ctx context.Context, item *models.InventoryItem, adj models.StockAdjustment, actorID int64) (*models.InventoryHistory, error)
	GetItem(ctx context.Context, id int64) (*models.InventoryItem, error)
	GetItemByName(ctx context.Context, name string) (*models.InventoryItem, error)
	ListItems(ctx context.Context, filter models.ItemFilter) ([]*models.InventoryItem, error)
	UpdateItem(ctx context.Context, item *models.InventoryItem) error
	AdjustStock(ctx context.Context, adj models.StockAdjustment, actorID int64) (*models.InventoryItem, *models.InventoryHistory, error)
	ListHistory(ctx context.Context, itemID int64, limit int) ([]*models.InventoryHistory, error)
	LowStockItems(ctx context.Context) ([]*models.InventoryItem, error)
}

// SessionStore keeps revoked tokens and per-key request counters.
type SessionStore interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Advisor produces optional AI advice. Every method returns an error wrapping
// ErrAdvisoryUnavailable on failure.
type Advisor interface {
	Enabled() bool
	RecommendServices(ctx context.Context, req models.ServiceContext) (string, error)
	Diagnose(ctx context.Context, req models.DiagnosisRequest) (string, error)
	AssistStaff(ctx context.Context, task models.StaffTask) (string, error)
	RestockAdvice(ctx context.Context, item *models.InventoryItem) (string, error)
	Chat(ctx context.Context, history []models.ChatTurn, message string) (string, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor Actor, req models.BookingRequest) (*models.BookingOutcome, error)
	GetBooking(ctx context.Context, actor Actor, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, actor Actor, filter models.BookingFilter) ([]*models.Booking, error)
	UpdateStatus(ctx context.Context, actor Actor, id int64, status models.BookingStatus) (*models.Booking, error)
	AssignStaff(ctx context.Context, actor Actor, id int64, staffID string) (*models.Booking, error)
	RecordActualCost(ctx context.Context, actor Actor, id int64, cost decimal.Decimal) (*models.Booking, error)
	EstimateCost(serviceType models.ServiceType, vehicleType models.VehicleType) (decimal.Decimal, error)
	Catalog() models.Catalog
}

type InventoryService interface {
	CreateItem(ctx context.Context, actor Actor, item *models.InventoryItem, initialQuantity int64) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id int64) (*models.InventoryItem, error)
	ListItems(ctx context.Context, filter models.ItemFilter) ([]*models.InventoryItem, error)
	UpdateItem(ctx context.Context, actor Actor, item *models.InventoryItem) (*models.InventoryItem, error)
	AdjustStock(ctx context.Context, actor Actor, adj models.StockAdjustment) (*models.StockOutcome, error)
	BulkImport(ctx context.Context, actor Actor, records []models.ImportRecord) (*models.ImportReport, error)
	History(ctx context.Context, itemID int64, limit int) ([]*models.InventoryHistory, error)
	LowStockReport(ctx context.Context) ([]*models.InventoryItem, error)
	Summary(ctx context.Context) (*models.InventorySummary, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
}

type StaffService interface {
	RegisterStaff(ctx context.Context, actor Actor, staff *models.Staff) (*models.Staff, error)
	GetStaff(ctx context.Context, staffID string) (*models.Staff, error)
	ListStaff(ctx context.Context, includeInactive bool) ([]*models.Staff, error)
	AssignDuty(ctx context.Context, actor Actor, staffID string, duty models.Duty) (*models.Staff, error)
	RecordPerformance(ctx context.Context, actor Actor, staffID string, perf models.Performance) (*models.Staff, error)
	SetActive(ctx context.Context, actor Actor, staffID string, active bool) (*models.Staff, error)
	Summary(ctx context.Context) (*models.StaffSummary, error)
}

type UserService interface {
	Register(ctx context.Context, actor *Actor, reg models.Registration) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.Session, error)
	Logout(ctx context.Context, actor Actor, expiresAt time.Time) error
	GetProfile(ctx context.Context, actor Actor) (*models.User, error)
	UpdateProfile(ctx context.Context, actor Actor, update models.ProfileUpdate) (*models.User, error)
}
