package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"autoassist/internal/auth"
	"autoassist/internal/config"
	"autoassist/internal/domain"

	"github.com/rs/zerolog"
)

// Backuper takes an on-demand snapshot of the stores.
type Backuper interface {
	PerformBackup(ctx context.Context) ([]string, error)
}

// Services are the domain operations exposed over HTTP. Advisor and Backup
// may be nil.
type Services struct {
	Users     domain.UserService
	Bookings  domain.BookingService
	Inventory domain.InventoryService
	Staff     domain.StaffService
	Advisor   domain.Advisor
	Backup    Backuper
}

// Options tune the HTTP surface.
type Options struct {
	MaxImportRecords   int
	AdvisorDailyQuota  int
	ImportMaxBodyBytes int64
}

// Server is the JSON HTTP API.
type Server struct {
	cfg      config.APIConfig
	svc      Services
	opts     Options
	tokens   *auth.TokenManager
	sessions domain.SessionStore
	limiter  *rateLimiter
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(
	cfg config.APIConfig,
	svc Services,
	opts Options,
	tokens *auth.TokenManager,
	sessions domain.SessionStore,
	logger *zerolog.Logger,
) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		cfg.HTTP.MaxBodyBytes = 1 << 20
	}
	if opts.ImportMaxBodyBytes <= 0 {
		opts.ImportMaxBodyBytes = cfg.HTTP.MaxBodyBytes
	}

	s := &Server{
		cfg:      cfg,
		svc:      svc,
		opts:     opts,
		tokens:   tokens,
		sessions: sessions,
		limiter:  newRateLimiter(cfg.RateLimit),
		logger:   logger,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	return s
}

// Handler returns the full middleware chain around the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return s.requestID(s.logRequests(s.recoverPanics(s.rateLimit(mux))))
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.Handle("POST /api/v1/auth/logout", s.authed(s.handleLogout))
	mux.Handle("GET /api/v1/profile", s.authed(s.handleGetProfile))
	mux.Handle("PATCH /api/v1/profile", s.authed(s.handleUpdateProfile))

	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/v1/estimate", s.handleEstimate)

	mux.Handle("POST /api/v1/bookings", s.authed(s.handleCreateBooking))
	mux.Handle("GET /api/v1/bookings", s.authed(s.handleListBookings))
	mux.Handle("GET /api/v1/bookings/{id}", s.authed(s.handleGetBooking))
	mux.Handle("PATCH /api/v1/bookings/{id}/status", s.authed(s.handleUpdateStatus))
	mux.Handle("POST /api/v1/bookings/{id}/assign", s.authed(s.handleAssignStaff))
	mux.Handle("POST /api/v1/bookings/{id}/cost", s.authed(s.handleActualCost))

	mux.Handle("POST /api/v1/inventory", s.managers(s.handleCreateItem))
	mux.Handle("GET /api/v1/inventory", s.managers(s.handleListItems))
	mux.Handle("GET /api/v1/inventory/low-stock", s.managers(s.handleLowStock))
	mux.Handle("GET /api/v1/inventory/summary", s.managers(s.handleInventorySummary))
	mux.Handle("GET /api/v1/inventory/export", s.managers(s.handleExport))
	mux.Handle("POST /api/v1/inventory/import", s.managers(s.handleImport))
	mux.Handle("GET /api/v1/inventory/{id}", s.managers(s.handleGetItem))
	mux.Handle("PATCH /api/v1/inventory/{id}", s.managers(s.handleUpdateItem))
	mux.Handle("POST /api/v1/inventory/{id}/adjust", s.managers(s.handleAdjustStock))
	mux.Handle("GET /api/v1/inventory/{id}/history", s.managers(s.handleHistory))

	mux.Handle("POST /api/v1/staff", s.managers(s.handleRegisterStaff))
	mux.Handle("GET /api/v1/staff", s.managers(s.handleListStaff))
	mux.Handle("GET /api/v1/staff/summary", s.managers(s.handleStaffSummary))
	mux.Handle("GET /api/v1/staff/{id}", s.managers(s.handleGetStaff))
	mux.Handle("PATCH /api/v1/staff/{id}/duty", s.managers(s.handleAssignDuty))
	mux.Handle("POST /api/v1/staff/{id}/performance", s.managers(s.handlePerformance))
	mux.Handle("POST /api/v1/staff/{id}/active", s.managers(s.handleSetActive))

	mux.Handle("POST /api/v1/advisor/recommend", s.advisory(s.handleRecommend))
	mux.Handle("POST /api/v1/advisor/diagnose", s.advisory(s.handleDiagnose))
	mux.Handle("POST /api/v1/advisor/chat", s.advisory(s.handleChat))
	mux.Handle("POST /api/v1/advisor/staff", s.advisory(s.handleAssistStaff))

	mux.Handle("POST /api/v1/admin/backup", s.authed(s.handleBackup))
}

func (s *Server) Start() error {
	if s.server == nil {
		return errors.New("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	if err := actor.RequireAdmin("running a backup"); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.svc.Backup == nil {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}
	files, err := s.svc.Backup.PerformBackup(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info().Strs("files", files).Int64("actor_id", actor.UserID).Msg("backup created")
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}
