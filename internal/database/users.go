package database

import (
	"context"
	"database/sql"
	"time"

	"autoassist/internal/models"
)

const userColumns = `id, username, password_hash, role, full_name, email, phone, is_active, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (
				username, password_hash, role, full_name, email, phone,
				is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.FullName,
		nullString(user.Email),
		user.Phone,
		true,
		now,
		now,
	)
	if err != nil {
		return classify("create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return classify("create user", err)
	}
	user.ID = id
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return db.queryUser(ctx, "get user", query, id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return db.queryUser(ctx, "get user", query, username)
}

// UpdateUserProfile updates the editable profile fields.
func (db *DB) UpdateUserProfile(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET full_name = ?, email = ?, phone = ?, updated_at = ? WHERE id = ?`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query, user.FullName, nullString(user.Email), user.Phone, now, user.ID)
	if err != nil {
		return classify("update profile", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return classify("update profile", sql.ErrNoRows)
	}
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("list users", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, classify("list users", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

func (db *DB) queryUser(ctx context.Context, op, query string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, classify(op, err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var email sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.FullName, &email,
		&user.Phone, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Email = email.String
	return &user, nil
}
