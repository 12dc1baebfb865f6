package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBookingStatusTransitions(t *testing.T) {
	all := []BookingStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

	t.Run("TerminalStatesHaveNoSuccessors", func(t *testing.T) {
		for _, from := range []BookingStatus{StatusCompleted, StatusCancelled} {
			assert.True(t, from.Terminal())
			for _, to := range all {
				assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("Pending", func(t *testing.T) {
		assert.True(t, StatusPending.CanTransitionTo(StatusInProgress))
		assert.True(t, StatusPending.CanTransitionTo(StatusCompleted))
		assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
		assert.False(t, StatusPending.CanTransitionTo(StatusPending))
	})

	t.Run("InProgressCannotGoBack", func(t *testing.T) {
		assert.False(t, StatusInProgress.CanTransitionTo(StatusPending))
		assert.False(t, StatusInProgress.CanTransitionTo(StatusInProgress))
		assert.True(t, StatusInProgress.CanTransitionTo(StatusCompleted))
	})

	t.Run("Parse", func(t *testing.T) {
		s, ok := ParseBookingStatus("In Progress")
		assert.True(t, ok)
		assert.Equal(t, StatusInProgress, s)

		s, ok = ParseBookingStatus("canceled")
		assert.True(t, ok)
		assert.Equal(t, StatusCancelled, s)

		_, ok = ParseBookingStatus("confirmed")
		assert.False(t, ok)
	})
}

func TestCatalog(t *testing.T) {
	t.Run("ServiceBelongsToCategory", func(t *testing.T) {
		assert.Equal(t, CategoryWashing, ServicePremiumWash.Category())
		assert.Equal(t, CategoryRepair, ServiceACRepair.Category())
	})

	t.Run("VehicleRestrictions", func(t *testing.T) {
		assert.True(t, ServiceACRepair.OfferedFor(VehicleCar))
		assert.False(t, ServiceACRepair.OfferedFor(VehicleMotorcycle))
		assert.True(t, ServiceChainCleaning.OfferedFor(VehicleMotorcycle))
		assert.False(t, ServiceChainCleaning.OfferedFor(VehicleCar))
	})

	t.Run("ParseRejectsUnknown", func(t *testing.T) {
		_, ok := ParseVehicleType("truck")
		assert.False(t, ok)
		_, ok = ParseServiceCategory("painting")
		assert.False(t, ok)
		_, ok = ParseServiceType("teleport")
		assert.False(t, ok)

		v, ok := ParseVehicleType(" Car ")
		assert.True(t, ok)
		assert.Equal(t, VehicleCar, v)

		st, ok := ParseServiceType("Premium Wash")
		assert.True(t, ok)
		assert.Equal(t, ServicePremiumWash, st)
	})

	t.Run("NewCatalog", func(t *testing.T) {
		c := NewCatalog(DefaultSlotHours)
		assert.Len(t, c.VehicleTypes, 2)
		assert.Contains(t, c.Services[VehicleCar][CategoryRepair], ServiceACRepair)
		assert.NotContains(t, c.Services[VehicleMotorcycle][CategoryRepair], ServiceACRepair)
		assert.Equal(t, []ServiceType{ServiceBasicWash, ServiceDeepCleaning, ServicePremiumWash},
			c.Services[VehicleCar][CategoryWashing])
	})
}

func TestStockReason(t *testing.T) {
	assert.True(t, ReasonUsed.AllowsDelta(-1))
	assert.False(t, ReasonUsed.AllowsDelta(1))
	assert.True(t, ReasonRestocked.AllowsDelta(10))
	assert.False(t, ReasonRestocked.AllowsDelta(-10))
	assert.True(t, ReasonCorrection.AllowsDelta(-2))
	assert.True(t, ReasonCorrection.AllowsDelta(2))
	assert.False(t, ReasonCorrection.AllowsDelta(0))

	_, ok := ParseStockReason("stolen")
	assert.False(t, ok)
}

func TestInventoryItem(t *testing.T) {
	item := &InventoryItem{Quantity: 4, Threshold: 5, UnitCost: decimal.RequireFromString("12.50")}
	assert.True(t, item.LowStock())
	assert.True(t, decimal.RequireFromString("50").Equal(item.StockValue()))

	item.Quantity = 5
	assert.False(t, item.LowStock())
}

func TestRolesAndDuties(t *testing.T) {
	r, ok := ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdministrator, r)
	assert.True(t, r.CanManage())
	assert.False(t, RoleCustomer.CanManage())

	d, ok := ParseDuty("Mechanic")
	assert.True(t, ok)
	assert.Equal(t, DutyMechanic, d)
	_, ok = ParseDuty("janitor")
	assert.False(t, ok)
}

func TestLastTurns(t *testing.T) {
	history := make([]ChatTurn, 8)
	for i := range history {
		history[i] = ChatTurn{Role: "user", Content: string(rune('a' + i))}
	}
	last := LastTurns(history, ChatHistoryTurns)
	assert.Len(t, last, 5)
	assert.Equal(t, "d", last[0].Content)
	assert.Len(t, LastTurns(history[:2], ChatHistoryTurns), 2)
}
