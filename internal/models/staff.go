package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Staff struct {
	StaffID       string          `json:"staff_id"`
	Name          string          `json:"name"`
	Duty          Duty            `json:"duty"`
	Salary        decimal.Decimal `json:"salary"`
	Rating        float64         `json:"rating"`
	RatingCount   int64           `json:"rating_count"`
	JobsCompleted int64           `json:"jobs_completed"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Performance is one performance record for a staff member.
// Rating of zero means no rating was given.
type Performance struct {
	Rating        float64 `json:"rating"`
	JobsCompleted int64   `json:"jobs_completed"`
}

type StaffSummary struct {
	Headcount     int             `json:"headcount"`
	Active        int             `json:"active"`
	Payroll       decimal.Decimal `json:"payroll"`
	AverageSalary decimal.Decimal `json:"average_salary"`
	ByDuty        map[Duty]int    `json:"by_duty"`
}
