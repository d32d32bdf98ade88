package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

const userColumns = `uid, email, name, password_hash, role, is_active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.UID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser сохраняет сотрудника и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var uid string
	query := `INSERT INTO users (email, name, password_hash, role, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid`
	if err := s.conn(ctx).QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.Role, user.IsActive).Scan(&uid); err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err, "user not found"))
	}
	return uid, nil
}

// GetUserByEmail возвращает сотрудника по адресу почты.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	u, err := scanUser(s.conn(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, "user "+email+" not found"))
	}
	return u, nil
}

// GetUser возвращает сотрудника по UID.
func (s *Storage) GetUser(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.conn(ctx).QueryRowContext(ctx, query, uid))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, "user "+uid+" not found"))
	}
	return u, nil
}

// ListUsers возвращает всех сотрудников.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser меняет только переданные поля сотрудника.
func (s *Storage) UpdateUser(ctx context.Context, uid string, upd models.UserUpdate) (*models.User, error) {
	const op = "storage.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users SET
			      name = COALESCE($2, name),
			      role = COALESCE($3, role),
			      is_active = COALESCE($4, is_active),
			      password_hash = COALESCE($5, password_hash)
			  WHERE uid = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.conn(ctx).QueryRowContext(ctx, query,
		uid, upd.Name, upd.Role, upd.IsActive, upd.PasswordHash))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, "user "+uid+" not found"))
	}
	return u, nil
}

// DeleteUser удаляет сотрудника. Его платежи и бонусы сохраняются без автора.
func (s *Storage) DeleteUser(ctx context.Context, uid string) error {
	const op = "storage.DeleteUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOne(res, "user "+uid+" not found"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountUsers количество сотрудников.
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	const op = "storage.CountUsers"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
