package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/shopspring/decimal"
)

const bookingColumns = `id, user_id, vehicle_type, vehicle_number, vehicle_model, service_category,
	service_type, slot, notes, status, staff_id, estimated_cost, actual_cost, created_at, updated_at`

// CreateBooking checks the user and the slot capacity and inserts the
// booking in one transaction.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking, slotCapacity int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ? AND is_active = 1`, booking.UserID).Scan(&exists)
	if err != nil {
		return classify("check booking owner", err)
	}
	if exists == 0 {
		return domain.Validation("user %d does not exist", booking.UserID)
	}

	if slotCapacity > 0 {
		var booked int
		queryCount := `SELECT COUNT(*) FROM bookings WHERE slot = ? AND status IN (?, ?)`
		err = tx.QueryRowContext(ctx, queryCount, booking.Slot,
			models.StatusPending, models.StatusInProgress).Scan(&booked)
		if err != nil {
			return classify("check slot capacity", err)
		}
		if booked >= slotCapacity {
			return ErrSlotFull
		}
	}

	queryInsert := `INSERT INTO bookings (
				user_id, vehicle_type, vehicle_number, vehicle_model, service_category,
				service_type, slot, notes, status, estimated_cost, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.UserID,
		booking.VehicleType,
		booking.VehicleNumber,
		booking.VehicleModel,
		booking.ServiceCategory,
		booking.ServiceType,
		booking.Slot,
		booking.Notes,
		booking.Status,
		booking.EstimatedCost,
		now,
		now,
	)
	if err != nil {
		return classify("insert booking", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return classify("insert booking", err)
	}

	if err := tx.Commit(); err != nil {
		return classify("commit booking", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(fmt.Sprintf("get booking %d", id), err)
	}
	return booking, nil
}

// ListBookings returns bookings, newest first.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list bookings", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, classify("list bookings", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list bookings", err)
	}
	return bookings, nil
}

// UpdateBookingStatus moves a booking from status from to status to. If the
// status changed in the meantime it returns ErrConcurrentModification.
// Completing a booking bumps the assigned staff member's job count.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, from, to models.BookingStatus) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := tx.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return classify("update booking status", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return classify("update booking status", err)
	}
	if rows == 0 {
		return ErrConcurrentModification
	}

	if to == models.StatusCompleted {
		_, err = tx.ExecContext(ctx, `UPDATE staff SET jobs_completed = jobs_completed + 1, updated_at = ?
			WHERE staff_id = (SELECT staff_id FROM bookings WHERE id = ?)`, time.Now().UTC(), id)
		if err != nil {
			return classify("update staff jobs", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("commit booking status", err)
	}
	return nil
}

// AssignStaff puts an active staff member on a booking that is not finished.
func (db *DB) AssignStaff(ctx context.Context, bookingID int64, staffID string) error {
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

	query := `UPDATE bookings SET staff_id = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`
	result, err := tx.ExecContext(ctx, query, staffID, time.Now().UTC(), bookingID,
		models.StatusPending, models.StatusInProgress)
	if err != nil {
		return classify("assign staff", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		var status models.BookingStatus
		err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, bookingID).Scan(&status)
		if err != nil {
			return classify(fmt.Sprintf("get booking %d", bookingID), err)
		}
		return domain.State("booking %d is %s", bookingID, status)
	}

	if err := tx.Commit(); err != nil {
		return classify("commit staff assignment", err)
	}
	return nil
}

func (db *DB) SetActualCost(ctx context.Context, id int64, cost decimal.Decimal) error {
	query := `UPDATE bookings SET actual_cost = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, cost, time.Now().UTC(), id)
	if err != nil {
		return classify("set actual cost", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return classify(fmt.Sprintf("get booking %d", id), sql.ErrNoRows)
	}
	return nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	var staffID sql.NullString
	err := row.Scan(
		&booking.ID, &booking.UserID, &booking.VehicleType, &booking.VehicleNumber, &booking.VehicleModel,
		&booking.ServiceCategory, &booking.ServiceType, &booking.Slot, &booking.Notes, &booking.Status,
		&staffID, &booking.EstimatedCost, &booking.ActualCost, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	booking.StaffID = staffID.String
	booking.Slot = booking.Slot.UTC()
	return &booking, nil
}
