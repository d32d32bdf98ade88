package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

func scanAttendance(row rowScanner) (*models.Attendance, error) {
	var (
		a          models.Attendance
		recordedBy sql.NullString
	)
	if err := row.Scan(&a.ID, &a.ClientDocument, &a.ClientName, &a.Date, &a.CheckedAt, &recordedBy); err != nil {
		return nil, err
	}
	a.RecordedBy = nullString(recordedBy)
	return &a, nil
}

func scanAttendances(rows *sql.Rows) ([]*models.Attendance, error) {
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Attendance, 0)
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// CreateAttendance записывает посещение на дату date и текущее время.
func (s *Storage) CreateAttendance(ctx context.Context, document string, date time.Time, recordedBy *string) (*models.Attendance, error) {
	const op = "storage.CreateAttendance"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `WITH ins AS (
			      INSERT INTO attendances (client_document, date, recorded_by)
			      VALUES ($1, $2, $3)
			      RETURNING id, client_document, date, checked_at, recorded_by
			  )
			  SELECT ins.id, ins.client_document, c.first_name || ' ' || c.last_name,
			         ins.date, ins.checked_at, ins.recorded_by
			  FROM ins JOIN clients c ON c.document = ins.client_document`
	a, err := scanAttendance(s.conn(ctx).QueryRowContext(ctx, query, document, date, recordedBy))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(document)))
	}
	return a, nil
}

// ListAttendances посещения в диапазоне дат [from, to], новые первыми.
// Пустой document означает всех клиентов.
func (s *Storage) ListAttendances(ctx context.Context, document string, from, to time.Time) ([]*models.Attendance, error) {
	const op = "storage.ListAttendances"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT a.id, a.client_document, c.first_name || ' ' || c.last_name,
			         a.date, a.checked_at, a.recorded_by
			  FROM attendances a JOIN clients c ON c.document = a.client_document
			  WHERE a.date BETWEEN $2 AND $3
			    AND ($1::text = '' OR a.client_document = $1)
			  ORDER BY a.checked_at DESC, a.id DESC`
	rows, err := s.conn(ctx).QueryContext(ctx, query, document, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list, err := scanAttendances(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// CountAttendances количество посещений и уникальных клиентов в [from, to].
func (s *Storage) CountAttendances(ctx context.Context, from, to time.Time) (total, unique int, err error) {
	const op = "storage.CountAttendances"
	if err := checkCtx(ctx, op); err != nil {
		return 0, 0, err
	}

	query := `SELECT COUNT(*), COUNT(DISTINCT client_document)
			  FROM attendances WHERE date BETWEEN $1 AND $2`
	if err := s.conn(ctx).QueryRowContext(ctx, query, from, to).Scan(&total, &unique); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, unique, nil
}

// CountAllAttendances количество посещений за всё время.
func (s *Storage) CountAllAttendances(ctx context.Context) (int, error) {
	const op = "storage.CountAllAttendances"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM attendances`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
