package database

import (
	"context"
	"testing"
	"time"

	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "driver")
	slot := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		b := newTestBooking(user.ID, slot)
		b.Notes = "scratches on the left door"
		require.NoError(t, db.CreateBooking(ctx, b, 3))
		assert.NotZero(t, b.ID)
		assert.False(t, b.CreatedAt.IsZero())

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.UserID)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Equal(t, models.ServicePremiumWash, got.ServiceType)
		assert.True(t, slot.Equal(got.Slot))
		assert.True(t, decimal.NewFromInt(1500).Equal(got.EstimatedCost))
		assert.False(t, got.ActualCost.Valid)
		assert.Empty(t, got.StaffID)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		err := db.CreateBooking(ctx, newTestBooking(9999, slot), 3)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("SlotCapacity", func(t *testing.T) {
		full := time.Date(2030, 5, 2, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 2; i++ {
			require.NoError(t, db.CreateBooking(ctx, newTestBooking(user.ID, full), 2))
		}
		err := db.CreateBooking(ctx, newTestBooking(user.ID, full), 2)
		assert.ErrorIs(t, err, ErrSlotFull)
		assert.ErrorIs(t, err, domain.ErrValidation)

		// Unlimited when capacity is zero
		require.NoError(t, db.CreateBooking(ctx, newTestBooking(user.ID, full), 0))
	})

	t.Run("CancelledBookingsFreeTheSlot", func(t *testing.T) {
		s := time.Date(2030, 5, 3, 9, 0, 0, 0, time.UTC)
		b := newTestBooking(user.ID, s)
		require.NoError(t, db.CreateBooking(ctx, b, 1))
		require.NoError(t, db.UpdateBookingStatus(ctx, b.ID, models.StatusPending, models.StatusCancelled))
		require.NoError(t, db.CreateBooking(ctx, newTestBooking(user.ID, s), 1))
	})
}

func TestGetBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetBooking(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	slot := time.Date(2030, 6, 1, 11, 0, 0, 0, time.UTC)

	var ids []int64
	for _, owner := range []int64{alice.ID, bob.ID, alice.ID} {
		b := newTestBooking(owner, slot)
		require.NoError(t, db.CreateBooking(ctx, b, 0))
		ids = append(ids, b.ID)
	}
	require.NoError(t, db.UpdateBookingStatus(ctx, ids[0], models.StatusPending, models.StatusInProgress))

	t.Run("NewestFirst", func(t *testing.T) {
		all, err := db.ListBookings(ctx, models.BookingFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, []int64{all[0].ID, all[1].ID, all[2].ID})
	})

	t.Run("ByUser", func(t *testing.T) {
		mine, err := db.ListBookings(ctx, models.BookingFilter{UserID: alice.ID})
		require.NoError(t, err)
		assert.Len(t, mine, 2)
		for _, b := range mine {
			assert.Equal(t, alice.ID, b.UserID)
		}
	})

	t.Run("ByStatus", func(t *testing.T) {
		inProgress, err := db.ListBookings(ctx, models.BookingFilter{Status: models.StatusInProgress})
		require.NoError(t, err)
		require.Len(t, inProgress, 1)
		assert.Equal(t, ids[0], inProgress[0].ID)
	})

	t.Run("Limit", func(t *testing.T) {
		limited, err := db.ListBookings(ctx, models.BookingFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "driver")
	b := newTestBooking(user.ID, time.Date(2030, 6, 1, 11, 0, 0, 0, time.UTC))
	require.NoError(t, db.CreateBooking(ctx, b, 0))

	t.Run("StaleFromStatus", func(t *testing.T) {
		err := db.UpdateBookingStatus(ctx, b.ID, models.StatusInProgress, models.StatusCompleted)
		assert.ErrorIs(t, err, ErrConcurrentModification)
		assert.ErrorIs(t, err, domain.ErrState)
	})

	t.Run("CompletionCountsStaffJob", func(t *testing.T) {
		staff := &models.Staff{StaffID: "STF001", Name: "Ravi", Duty: models.DutyMechanic, Salary: decimal.NewFromInt(25000)}
		require.NoError(t, db.CreateStaff(ctx, staff))
		require.NoError(t, db.AssignStaff(ctx, b.ID, staff.StaffID))
		require.NoError(t, db.UpdateBookingStatus(ctx, b.ID, models.StatusPending, models.StatusCompleted))

		got, err := db.GetStaff(ctx, staff.StaffID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.JobsCompleted)

		booking, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, booking.Status)
		assert.Equal(t, "STF001", booking.StaffID)
	})
}

func TestAssignStaff(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "driver")
	b := newTestBooking(user.ID, time.Date(2030, 6, 1, 11, 0, 0, 0, time.UTC))
	require.NoError(t, db.CreateBooking(ctx, b, 0))

	active := &models.Staff{StaffID: "STF001", Name: "Ravi", Duty: models.DutyMechanic}
	inactive := &models.Staff{StaffID: "STF002", Name: "Anil", Duty: models.DutyHelper}
	require.NoError(t, db.CreateStaff(ctx, active))
	require.NoError(t, db.CreateStaff(ctx, inactive))
	require.NoError(t, db.SetStaffActive(ctx, inactive.StaffID, false))

	assert.ErrorIs(t, db.AssignStaff(ctx, b.ID, "STF404"), domain.ErrNotFound)
	assert.ErrorIs(t, db.AssignStaff(ctx, b.ID, inactive.StaffID), domain.ErrState)
	require.NoError(t, db.AssignStaff(ctx, b.ID, active.StaffID))

	require.NoError(t, db.UpdateBookingStatus(ctx, b.ID, models.StatusPending, models.StatusCancelled))
	assert.ErrorIs(t, db.AssignStaff(ctx, b.ID, active.StaffID), domain.ErrState)
	assert.ErrorIs(t, db.AssignStaff(ctx, 999, active.StaffID), domain.ErrNotFound)
}

func TestSetActualCost(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "driver")
	b := newTestBooking(user.ID, time.Date(2030, 6, 1, 11, 0, 0, 0, time.UTC))
	require.NoError(t, db.CreateBooking(ctx, b, 0))

	require.NoError(t, db.SetActualCost(ctx, b.ID, decimal.RequireFromString("1725.50")))
	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, got.ActualCost.Valid)
	assert.True(t, decimal.RequireFromString("1725.5").Equal(got.ActualCost.Decimal))

	assert.ErrorIs(t, db.SetActualCost(ctx, 999, decimal.Zero), domain.ErrNotFound)
}
