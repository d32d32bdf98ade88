package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

const clientColumns = `document, document_type, first_name, last_name, weight, birth_date, email, phone,
	plan_id, start_date, end_date, status, registered_at`

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c         models.Client
		weight    sql.NullFloat64
		birthDate sql.NullTime
		email     sql.NullString
		phone     sql.NullString
		planID    sql.NullInt64
		startDate sql.NullTime
		endDate   sql.NullTime
	)
	if err := row.Scan(&c.Document, &c.DocumentType, &c.FirstName, &c.LastName, &weight, &birthDate,
		&email, &phone, &planID, &startDate, &endDate, &c.Status, &c.RegisteredAt); err != nil {
		return nil, err
	}
	c.Weight = nullFloat(weight)
	c.BirthDate = nullTime(birthDate)
	c.Email = nullString(email)
	c.Phone = nullString(phone)
	c.PlanID = nullInt64(planID)
	c.StartDate = nullTime(startDate)
	c.EndDate = nullTime(endDate)
	return &c, nil
}

func scanClients(rows *sql.Rows) ([]*models.Client, error) {
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func clientNotFound(document string) string {
	return "client " + document + " not found"
}

// CreateClient сохраняет нового клиента. Повтор документа даёт ErrAlreadyExists.
func (s *Storage) CreateClient(ctx context.Context, c models.Client) (*models.Client, error) {
	const op = "storage.CreateClient"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO clients (document, document_type, first_name, last_name, weight, birth_date,
			      email, phone, plan_id, start_date, end_date, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING ` + clientColumns
	created, err := scanClient(s.conn(ctx).QueryRowContext(ctx, query,
		c.Document, c.DocumentType, c.FirstName, c.LastName, c.Weight, c.BirthDate,
		c.Email, c.Phone, c.PlanID, c.StartDate, c.EndDate, c.Status))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(c.Document)))
	}
	return created, nil
}

// GetClient возвращает клиента по документу.
func (s *Storage) GetClient(ctx context.Context, document string) (*models.Client, error) {
	const op = "storage.GetClient"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE document = $1`
	c, err := scanClient(s.conn(ctx).QueryRowContext(ctx, query, document))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(document)))
	}
	return c, nil
}

// GetClientForUpdate читает клиента и блокирует строку до конца транзакции.
// Вызывается только внутри RunInTx.
func (s *Storage) GetClientForUpdate(ctx context.Context, document string) (*models.Client, error) {
	const op = "storage.GetClientForUpdate"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE document = $1 FOR UPDATE`
	c, err := scanClient(s.conn(ctx).QueryRowContext(ctx, query, document))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(document)))
	}
	return c, nil
}

// SetMembershipWindow записывает план, даты и статус клиента одним UPDATE.
func (s *Storage) SetMembershipWindow(ctx context.Context, document string, w models.MembershipWindow) (*models.Client, error) {
	const op = "storage.SetMembershipWindow"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE clients SET plan_id = $2, start_date = $3, end_date = $4, status = $5
			  WHERE document = $1
			  RETURNING ` + clientColumns
	c, err := scanClient(s.conn(ctx).QueryRowContext(ctx, query,
		document, w.PlanID, w.StartDate, w.EndDate, w.Status))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(document)))
	}
	return c, nil
}

// ExtendEndDate сдвигает дату окончания абонемента на days дней.
func (s *Storage) ExtendEndDate(ctx context.Context, document string, days int) (*models.Client, error) {
	const op = "storage.ExtendEndDate"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE clients SET end_date = end_date + $2::int
			  WHERE document = $1 AND end_date IS NOT NULL
			  RETURNING ` + clientColumns
	c, err := scanClient(s.conn(ctx).QueryRowContext(ctx, query, document, days))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(document)))
	}
	return c, nil
}

// SetClientStatus меняет только статус клиента.
func (s *Storage) SetClientStatus(ctx context.Context, document, status string) error {
	const op = "storage.SetClientStatus"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE clients SET status = $2 WHERE document = $1`, document, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(document)))
	}
	if err := affectedOne(res, clientNotFound(document)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateClient меняет переданные анкетные поля. Статус и даты не затрагиваются.
func (s *Storage) UpdateClient(ctx context.Context, document string, upd models.ClientUpdate) (*models.Client, error) {
	const op = "storage.UpdateClient"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE clients SET
			      document_type = COALESCE($2, document_type),
			      first_name = COALESCE($3, first_name),
			      last_name = COALESCE($4, last_name),
			      weight = COALESCE($5, weight),
			      birth_date = COALESCE($6, birth_date),
			      email = COALESCE($7, email),
			      phone = COALESCE($8, phone)
			  WHERE document = $1
			  RETURNING ` + clientColumns
	c, err := scanClient(s.conn(ctx).QueryRowContext(ctx, query, document,
		upd.DocumentType, upd.FirstName, upd.LastName, upd.Weight, upd.BirthDateValue, upd.Email, upd.Phone))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(document)))
	}
	return c, nil
}

// DeleteClient удаляет клиента вместе с платежами, бонусами, посещениями и историей.
func (s *Storage) DeleteClient(ctx context.Context, document string) error {
	const op = "storage.DeleteClient"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM clients WHERE document = $1`, document)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOne(res, clientNotFound(document)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListClients ищет клиентов по подстроке в документе, имени, почте и телефоне.
func (s *Storage) ListClients(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error) {
	const op = "storage.ListClients"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients
			  WHERE ($1::text = '' OR document ILIKE '%' || $1 || '%'
			         OR first_name ILIKE '%' || $1 || '%'
			         OR last_name ILIKE '%' || $1 || '%'
			         OR COALESCE(email, '') ILIKE '%' || $1 || '%'
			         OR COALESCE(phone, '') ILIKE '%' || $1 || '%')
			    AND ($2::text = '' OR status = $2)
			  ORDER BY registered_at DESC, document
			  LIMIT NULLIF($3::int, 0) OFFSET $4`
	rows, err := s.conn(ctx).QueryContext(ctx, query, filter.Query, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	clients, err := scanClients(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return clients, nil
}

// RefreshStatuses приводит статусы active/inactive в соответствие с датой окончания.
// Клиенты в pending не затрагиваются. Повторный вызов с той же датой ничего не меняет.
func (s *Storage) RefreshStatuses(ctx context.Context, today time.Time) (models.SweepResult, error) {
	const op = "storage.RefreshStatuses"
	if err := checkCtx(ctx, op); err != nil {
		return models.SweepResult{}, err
	}

	var result models.SweepResult
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		res, err := s.conn(ctx).ExecContext(ctx,
			`UPDATE clients SET status = 'inactive' WHERE status = 'active' AND end_date < $1`, today)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		result.Deactivated = int(n)

		res, err = s.conn(ctx).ExecContext(ctx,
			`UPDATE clients SET status = 'active' WHERE status = 'inactive' AND end_date >= $1`, today)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		if err != nil {
			return err
		}
		result.Reactivated = int(n)
		return nil
	})
	if err != nil {
		return models.SweepResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListExpiring возвращает активных клиентов с окончанием абонемента в [from, to].
func (s *Storage) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Client, error) {
	const op = "storage.ListExpiring"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients
			  WHERE status = 'active' AND end_date BETWEEN $1 AND $2
			  ORDER BY end_date, document`
	rows, err := s.conn(ctx).QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	clients, err := scanClients(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return clients, nil
}

// ListWithEmailByStatus клиенты с указанной почтой в заданном статусе.
func (s *Storage) ListWithEmailByStatus(ctx context.Context, status string) ([]*models.Client, error) {
	const op = "storage.ListWithEmailByStatus"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients
			  WHERE status = $1 AND COALESCE(email, '') <> ''
			  ORDER BY document`
	rows, err := s.conn(ctx).QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	clients, err := scanClients(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return clients, nil
}
