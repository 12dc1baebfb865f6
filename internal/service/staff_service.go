package service

import (
	"context"
	"regexp"
	"strings"

	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var staffIDPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,31}$`)

type StaffService struct {
	repo   domain.StaffRepository
	logger *zerolog.Logger
}

func NewStaffService(repo domain.StaffRepository, logger *zerolog.Logger) *StaffService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &StaffService{repo: repo, logger: logger}
}

func normalizeStaffID(raw string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if !staffIDPattern.MatchString(id) {
		return "", domain.Validation("invalid staff id %q", raw)
	}
	return id, nil
}

func (s *StaffService) RegisterStaff(ctx context.Context, actor domain.Actor, staff *models.Staff) (*models.Staff, error) {
	if err := actor.RequireAdmin("registering staff"); err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, domain.Validation("staff is required")
	}

	id, err := normalizeStaffID(staff.StaffID)
	if err != nil {
		return nil, err
	}
	staff.StaffID = id
	staff.Name = strings.TrimSpace(staff.Name)
	if staff.Name == "" {
		return nil, domain.Validation("staff name is required")
	}
	if !staff.Duty.Valid() {
		return nil, domain.Validation("unknown duty %q", staff.Duty)
	}
	if staff.Salary.IsNegative() {
		return nil, domain.Validation("salary must not be negative")
	}
	staff.Salary = staff.Salary.Round(2)

	if err := s.repo.CreateStaff(ctx, staff); err != nil {
		return nil, err
	}
	s.logger.Info().Str("staff_id", staff.StaffID).Str("duty", string(staff.Duty)).Msg("staff registered")
	return staff, nil
}

func (s *StaffService) GetStaff(ctx context.Context, staffID string) (*models.Staff, error) {
	id, err := normalizeStaffID(staffID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetStaff(ctx, id)
}

// ListStaff returns active staff, or everyone when includeInactive is set.
func (s *StaffService) ListStaff(ctx context.Context, includeInactive bool) ([]*models.Staff, error) {
	return s.repo.ListStaff(ctx, includeInactive)
}

func (s *StaffService) AssignDuty(ctx context.Context, actor domain.Actor, staffID string, duty models.Duty) (*models.Staff, error) {
	if err := actor.RequireAdmin("assigning duties"); err != nil {
		return nil, err
	}
	id, err := normalizeStaffID(staffID)
	if err != nil {
		return nil, err
	}
	if !duty.Valid() {
		return nil, domain.Validation("unknown duty %q", duty)
	}

	if err := s.repo.UpdateStaffDuty(ctx, id, duty); err != nil {
		return nil, err
	}
	s.logger.Info().Str("staff_id", id).Str("duty", string(duty)).Msg("duty assigned")
	return s.repo.GetStaff(ctx, id)
}

// RecordPerformance adds a rating (1..5, or 0 for none) and completed jobs.
func (s *StaffService) RecordPerformance(ctx context.Context, actor domain.Actor, staffID string, perf models.Performance) (*models.Staff, error) {
	if err := actor.RequireManager("recording performance"); err != nil {
		return nil, err
	}
	id, err := normalizeStaffID(staffID)
	if err != nil {
		return nil, err
	}
	if perf.Rating != 0 && (perf.Rating < 1 || perf.Rating > 5) {
		return nil, domain.Validation("rating must be between 1 and 5")
	}
	if perf.JobsCompleted < 0 {
		return nil, domain.Validation("completed jobs must not be negative")
	}
	if perf.Rating == 0 && perf.JobsCompleted == 0 {
		return nil, domain.Validation("nothing to record")
	}

	return s.repo.RecordPerformance(ctx, id, perf)
}

func (s *StaffService) SetActive(ctx context.Context, actor domain.Actor, staffID string, active bool) (*models.Staff, error) {
	if err := actor.RequireAdmin("changing staff status"); err != nil {
		return nil, err
	}
	id, err := normalizeStaffID(staffID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetStaffActive(ctx, id, active); err != nil {
		return nil, err
	}
	s.logger.Info().Str("staff_id", id).Bool("active", active).Msg("staff status changed")
	return s.repo.GetStaff(ctx, id)
}

// Summary covers active staff only; Headcount counts everyone on record.
func (s *StaffService) Summary(ctx context.Context) (*models.StaffSummary, error) {
	all, err := s.repo.ListStaff(ctx, true)
	if err != nil {
		return nil, err
	}

	summary := &models.StaffSummary{
		Payroll:       decimal.Zero,
		AverageSalary: decimal.Zero,
		ByDuty:        make(map[models.Duty]int, len(models.AllDuties)),
	}
	for _, d := range models.AllDuties {
		summary.ByDuty[d] = 0
	}
	for _, st := range all {
		summary.Headcount++
		if !st.IsActive {
			continue
		}
		summary.Active++
		summary.Payroll = summary.Payroll.Add(st.Salary)
		summary.ByDuty[st.Duty]++
	}
	if summary.Active > 0 {
		summary.AverageSalary = summary.Payroll.Div(decimal.NewFromInt(int64(summary.Active))).Round(2)
	}
	return summary, nil
}
