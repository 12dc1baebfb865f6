package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"autoassist/internal/database"
	"autoassist/internal/domain"
	"autoassist/internal/events"
	"autoassist/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	// 2026-03-02 08:00 UTC, a Monday morning before the first slot.
	testNow  = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	testSlot = time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)

	admin   = domain.Actor{UserID: 1, Username: "admin", Role: models.RoleAdministrator}
	clerk   = domain.Actor{UserID: 2, Username: "clerk", Role: models.RoleStaff}
	visitor = domain.Actor{UserID: 3, Username: "visitor", Role: models.RoleCustomer}
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func setupServiceDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func setupInventoryDB(t *testing.T) *database.InventoryDB {
	t.Helper()
	db, err := database.NewInventoryDB(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// insertUser creates an active account with a fixed id.
func insertUser(t *testing.T, db *database.DB, id int64, username string, role models.Role) {
	t.Helper()
	now := time.Now().UTC()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, username, password_hash, role, full_name, is_active, created_at, updated_at)
		 VALUES (?, ?, 'hash', ?, ?, 1, ?, ?)`,
		id, username, role, username, now, now)
	require.NoError(t, err)
}

type fakeAdvisor struct {
	enabled bool
	err     error

	mu    sync.Mutex
	calls []string
}

func (f *fakeAdvisor) record(kind string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, kind)
	f.mu.Unlock()
	if f.err != nil {
		return "", domain.AdvisoryUnavailable(f.err)
	}
	return kind + " advice", nil
}

func (f *fakeAdvisor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAdvisor) Enabled() bool { return f.enabled }

func (f *fakeAdvisor) RecommendServices(context.Context, models.ServiceContext) (string, error) {
	return f.record("recommend")
}

func (f *fakeAdvisor) Diagnose(context.Context, models.DiagnosisRequest) (string, error) {
	return f.record("diagnose")
}

func (f *fakeAdvisor) AssistStaff(context.Context, models.StaffTask) (string, error) {
	return f.record("staff")
}

func (f *fakeAdvisor) RestockAdvice(context.Context, *models.InventoryItem) (string, error) {
	return f.record("restock")
}

func (f *fakeAdvisor) Chat(context.Context, []models.ChatTurn, string) (string, error) {
	return f.record("chat")
}

var errAdvisorDown = errors.New("upstream timeout")

// recorder collects events published on a real bus.
type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func newRecordingBus(types ...string) (*events.EventBus, *recorder) {
	bus := events.NewEventBus(testLogger())
	rec := &recorder{}
	for _, typ := range types {
		bus.Subscribe(typ, func(e *events.Event) error {
			rec.mu.Lock()
			rec.events = append(rec.events, e)
			rec.mu.Unlock()
			return nil
		})
	}
	return bus, rec
}

func (r *recorder) ofType(typ string) []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*events.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
