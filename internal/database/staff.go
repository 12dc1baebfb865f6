package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"autoassist/internal/domain"
	"autoassist/internal/models"
)

const staffColumns = `staff_id, name, duty, salary, rating, rating_count, jobs_completed, is_active, created_at, updated_at`

func (db *DB) CreateStaff(ctx context.Context, staff *models.Staff) error {
	query := `INSERT INTO staff (
				staff_id, name, duty, salary, rating, rating_count, jobs_completed,
				is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, 0, 0, 0, 1, ?, ?)`
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, query, staff.StaffID, staff.Name, staff.Duty, staff.Salary, now, now)
	if err != nil {
		return classify(fmt.Sprintf("create staff %s", staff.StaffID), err)
	}
	staff.Rating = 0
	staff.RatingCount = 0
	staff.JobsCompleted = 0
	staff.IsActive = true
	staff.CreatedAt = now
	staff.UpdatedAt = now
	return nil
}

func (db *DB) GetStaff(ctx context.Context, staffID string) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE staff_id = ?`
	staff, err := scanStaff(db.QueryRowContext(ctx, query, staffID))
	if err != nil {
		return nil, classify(fmt.Sprintf("get staff %s", staffID), err)
	}
	return staff, nil
}

func (db *DB) ListStaff(ctx context.Context, includeInactive bool) ([]*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY staff_id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("list staff", err)
	}
	defer rows.Close()

	var out []*models.Staff
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, classify("list staff", err)
		}
		out = append(out, staff)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list staff", err)
	}
	return out, nil
}

// UpdateStaffDuty changes the duty of an active staff member.
func (db *DB) UpdateStaffDuty(ctx context.Context, staffID string, duty models.Duty) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var active bool
	err = tx.QueryRowContext(ctx, `SELECT is_active FROM staff WHERE staff_id = ?`, staffID).Scan(&active)
	if err != nil {
		return classify(fmt.Sprintf("get staff %s", staffID), err)
	}
	if !active {
		return domain.State("staff member %s is inactive", staffID)
	}

	_, err = tx.ExecContext(ctx, `UPDATE staff SET duty = ?, updated_at = ? WHERE staff_id = ?`,
		duty, time.Now().UTC(), staffID)
	if err != nil {
		return classify("update duty", err)
	}
	if err := tx.Commit(); err != nil {
		return classify("commit duty", err)
	}
	return nil
}

// RecordPerformance updates the average rating and the completed job count.
func (db *DB) RecordPerformance(ctx context.Context, staffID string, perf models.Performance) (*models.Staff, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + staffColumns + ` FROM staff WHERE staff_id = ?`
	staff, err := scanStaff(tx.QueryRowContext(ctx, query, staffID))
	if err != nil {
		return nil, classify(fmt.Sprintf("get staff %s", staffID), err)
	}

	if perf.Rating > 0 {
		total := staff.Rating*float64(staff.RatingCount) + perf.Rating
		staff.RatingCount++
		staff.Rating = total / float64(staff.RatingCount)
	}
	staff.JobsCompleted += perf.JobsCompleted
	staff.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE staff SET rating = ?, rating_count = ?, jobs_completed = ?, updated_at = ? WHERE staff_id = ?`,
		staff.Rating, staff.RatingCount, staff.JobsCompleted, staff.UpdatedAt, staffID)
	if err != nil {
		return nil, classify("record performance", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify("commit performance", err)
	}
	return staff, nil
}

func (db *DB) SetStaffActive(ctx context.Context, staffID string, active bool) error {
	result, err := db.ExecContext(ctx, `UPDATE staff SET is_active = ?, updated_at = ? WHERE staff_id = ?`,
		active, time.Now().UTC(), staffID)
	if err != nil {
		return classify("set staff active", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return classify(fmt.Sprintf("get staff %s", staffID), sql.ErrNoRows)
	}
	return nil
}

func scanStaff(row rowScanner) (*models.Staff, error) {
	var staff models.Staff
	err := row.Scan(
		&staff.StaffID, &staff.Name, &staff.Duty, &staff.Salary, &staff.Rating, &staff.RatingCount,
		&staff.JobsCompleted, &staff.IsActive, &staff.CreatedAt, &staff.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &staff, nil
}
