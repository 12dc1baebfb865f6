package service

import (
	"context"
	"errors"
	"testing"

	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStaffService(t *testing.T) *StaffService {
	t.Helper()
	return NewStaffService(setupServiceDB(t), testLogger())
}

func register(t *testing.T, svc *StaffService, id, name string, duty models.Duty, salary int64) *models.Staff {
	t.Helper()
	staff, err := svc.RegisterStaff(context.Background(), admin, &models.Staff{
		StaffID: id, Name: name, Duty: duty, Salary: decimal.NewFromInt(salary),
	})
	require.NoError(t, err)
	return staff
}

func TestRegisterStaff(t *testing.T) {
	svc := newStaffService(t)
	ctx := context.Background()

	staff := register(t, svc, " mech-01 ", " Arjun ", models.DutyMechanic, 30000)
	assert.Equal(t, "MECH-01", staff.StaffID)
	assert.Equal(t, "Arjun", staff.Name)
	assert.True(t, staff.IsActive)

	got, err := svc.GetStaff(ctx, "mech-01")
	require.NoError(t, err)
	assert.Equal(t, models.DutyMechanic, got.Duty)
	assert.True(t, got.Salary.Equal(decimal.NewFromInt(30000)))

	_, err = svc.RegisterStaff(ctx, admin, &models.Staff{StaffID: "MECH-01", Name: "Dup", Duty: models.DutyHelper})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.RegisterStaff(ctx, clerk, &models.Staff{StaffID: "HELP-01", Name: "Ravi", Duty: models.DutyHelper})
	assert.True(t, errors.Is(err, domain.ErrAuthorization))

	_, err = svc.GetStaff(ctx, "NOPE-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRegisterStaff_Validation(t *testing.T) {
	svc := newStaffService(t)

	tests := []struct {
		name  string
		staff *models.Staff
	}{
		{"nil", nil},
		{"bad id", &models.Staff{StaffID: "a b", Name: "X", Duty: models.DutyHelper}},
		{"short id", &models.Staff{StaffID: "A", Name: "X", Duty: models.DutyHelper}},
		{"missing name", &models.Staff{StaffID: "S-1", Duty: models.DutyHelper}},
		{"unknown duty", &models.Staff{StaffID: "S-1", Name: "X", Duty: "janitor"}},
		{"negative salary", &models.Staff{StaffID: "S-1", Name: "X", Duty: models.DutyHelper, Salary: decimal.NewFromInt(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterStaff(context.Background(), admin, tt.staff)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestAssignDuty(t *testing.T) {
	svc := newStaffService(t)
	ctx := context.Background()
	register(t, svc, "S-1", "Meena", models.DutyHelper, 18000)

	updated, err := svc.AssignDuty(ctx, admin, "s-1", models.DutyReceptionist)
	require.NoError(t, err)
	assert.Equal(t, models.DutyReceptionist, updated.Duty)

	_, err = svc.AssignDuty(ctx, clerk, "S-1", models.DutyManager)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))

	_, err = svc.AssignDuty(ctx, admin, "S-1", "astronaut")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.AssignDuty(ctx, admin, "S-404", models.DutyManager)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRecordPerformance(t *testing.T) {
	svc := newStaffService(t)
	ctx := context.Background()
	register(t, svc, "S-1", "Meena", models.DutyMechanic, 25000)

	staff, err := svc.RecordPerformance(ctx, clerk, "S-1", models.Performance{Rating: 4, JobsCompleted: 2})
	require.NoError(t, err)
	staff, err = svc.RecordPerformance(ctx, clerk, "S-1", models.Performance{Rating: 5})
	require.NoError(t, err)
	staff, err = svc.RecordPerformance(ctx, admin, "S-1", models.Performance{JobsCompleted: 3})
	require.NoError(t, err)

	assert.InDelta(t, 4.5, staff.Rating, 0.001)
	assert.Equal(t, int64(2), staff.RatingCount)
	assert.Equal(t, int64(5), staff.JobsCompleted)

	invalid := []models.Performance{
		{Rating: 0.5},
		{Rating: 6},
		{JobsCompleted: -1},
		{},
	}
	for _, perf := range invalid {
		_, err := svc.RecordPerformance(ctx, clerk, "S-1", perf)
		assert.True(t, errors.Is(err, domain.ErrValidation), "%+v", perf)
	}

	_, err = svc.RecordPerformance(ctx, visitor, "S-1", models.Performance{Rating: 3})
	assert.True(t, errors.Is(err, domain.ErrAuthorization))
}

func TestSetActiveAndSummary(t *testing.T) {
	svc := newStaffService(t)
	ctx := context.Background()
	register(t, svc, "M-1", "Arjun", models.DutyMechanic, 30000)
	register(t, svc, "M-2", "Kiran", models.DutyMechanic, 28000)
	register(t, svc, "R-1", "Asha", models.DutyReceptionist, 20000)
	register(t, svc, "H-1", "Ravi", models.DutyHelper, 15000)

	_, err := svc.SetActive(ctx, clerk, "H-1", false)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))

	staff, err := svc.SetActive(ctx, admin, "H-1", false)
	require.NoError(t, err)
	assert.False(t, staff.IsActive)

	active, err := svc.ListStaff(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 3)
	everyone, err := svc.ListStaff(ctx, true)
	require.NoError(t, err)
	assert.Len(t, everyone, 4)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Headcount)
	assert.Equal(t, 3, summary.Active)
	assert.Equal(t, "78000", summary.Payroll.String())
	assert.Equal(t, "26000", summary.AverageSalary.String())
	assert.Equal(t, map[models.Duty]int{
		models.DutyMechanic:     2,
		models.DutyHelper:       0,
		models.DutyManager:      0,
		models.DutyReceptionist: 1,
	}, summary.ByDuty)
}

func TestStaffSummary_Empty(t *testing.T) {
	svc := newStaffService(t)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Headcount)
	assert.True(t, summary.Payroll.IsZero())
	assert.True(t, summary.AverageSalary.IsZero())
	assert.Len(t, summary.ByDuty, len(models.AllDuties))
}
