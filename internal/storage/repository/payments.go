package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

const paymentColumns = `id, client_document, plan_id, concept, purpose, amount, method, status,
	receipt, notes, paid_at, validated_at, recorded_by, validated_by`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		p           models.Payment
		planID      sql.NullInt64
		validatedAt sql.NullTime
		recordedBy  sql.NullString
		validatedBy sql.NullString
	)
	if err := row.Scan(&p.ID, &p.ClientDocument, &planID, &p.Concept, &p.Purpose, &p.Amount, &p.Method,
		&p.Status, &p.Receipt, &p.Notes, &p.PaidAt, &validatedAt, &recordedBy, &validatedBy); err != nil {
		return nil, err
	}
	p.PlanID = nullInt64(planID)
	p.ValidatedAt = nullTime(validatedAt)
	p.RecordedBy = nullString(recordedBy)
	p.ValidatedBy = nullString(validatedBy)
	return &p, nil
}

func scanPayments(rows *sql.Rows) ([]*models.Payment, error) {
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func paymentNotFound(id int64) string {
	return "payment " + strconv.FormatInt(id, 10) + " not found"
}

// CreatePayment сохраняет платёж. Статус и время оплаты берутся из p.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	const op = "storage.CreatePayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO payments (client_document, plan_id, concept, purpose, amount, method, status,
			      receipt, notes, paid_at, recorded_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()), $11)
			  RETURNING ` + paymentColumns
	var paidAt any
	if !p.PaidAt.IsZero() {
		paidAt = p.PaidAt
	}
	created, err := scanPayment(s.conn(ctx).QueryRowContext(ctx, query,
		p.ClientDocument, p.PlanID, p.Concept, p.Purpose, p.Amount, p.Method, p.Status,
		p.Receipt, p.Notes, paidAt, p.RecordedBy))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(p.ClientDocument)))
	}
	return created, nil
}

// GetPayment возвращает платёж по ID.
func (s *Storage) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.GetPayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, paymentNotFound(id)))
	}
	return p, nil
}

// GetPaymentForUpdate читает платёж с блокировкой строки. Только внутри RunInTx.
func (s *Storage) GetPaymentForUpdate(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.GetPaymentForUpdate"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	p, err := scanPayment(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, paymentNotFound(id)))
	}
	return p, nil
}

// ListPayments возвращает платежи, новые первыми. Пустой статус означает все.
func (s *Storage) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE ($1::text = '' OR status = $1)
			  ORDER BY paid_at DESC, id DESC
			  LIMIT NULLIF($2::int, 0) OFFSET $3`
	rows, err := s.conn(ctx).QueryContext(ctx, query, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payments, err := scanPayments(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// ListPaymentsByClient платежи клиента, новые первыми.
func (s *Storage) ListPaymentsByClient(ctx context.Context, document string) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByClient"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE client_document = $1
			  ORDER BY paid_at DESC, id DESC`
	rows, err := s.conn(ctx).QueryContext(ctx, query, document)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payments, err := scanPayments(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// UpdatePayment меняет переданные поля платежа, который всё ещё ожидает проверки.
// Для обработанного платежа возвращает ErrInvalidState.
func (s *Storage) UpdatePayment(ctx context.Context, id int64, upd models.PaymentUpdate) (*models.Payment, error) {
	const op = "storage.UpdatePayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE payments SET
			      concept = COALESCE($2, concept),
			      purpose = COALESCE($3, purpose),
			      amount = COALESCE($4, amount),
			      method = COALESCE($5, method),
			      receipt = COALESCE($6, receipt),
			      notes = COALESCE($7, notes),
			      plan_id = COALESCE($8, plan_id)
			  WHERE id = $1 AND status = 'pending'
			  RETURNING ` + paymentColumns
	p, err := scanPayment(s.conn(ctx).QueryRowContext(ctx, query, id,
		upd.Concept, upd.Purpose, upd.Amount, upd.Method, upd.Receipt, upd.Notes, upd.PlanID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, s.pendingOnly(ctx, id))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, paymentNotFound(id)))
	}
	return p, nil
}

// DeletePayment удаляет платёж, пока он ожидает проверки.
func (s *Storage) DeletePayment(ctx context.Context, id int64) error {
	const op = "storage.DeletePayment"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM payments WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", op, s.pendingOnly(ctx, id))
	}
	return nil
}

// pendingOnly объясняет, почему условный UPDATE/DELETE не затронул строку.
func (s *Storage) pendingOnly(ctx context.Context, id int64) error {
	var status string
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT status FROM payments WHERE id = $1`, id).Scan(&status)
	if err != nil {
		return mapError(err, paymentNotFound(id))
	}
	return models.Errorf(models.ErrInvalidState, "payment %d is %s and can no longer be changed", id, status)
}

// SetPaymentDecision фиксирует итог проверки платежа.
func (s *Storage) SetPaymentDecision(ctx context.Context, id int64, d models.Decision) (*models.Payment, error) {
	const op = "storage.SetPaymentDecision"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var by *string
	if d.By != "" {
		by = &d.By
	}
	query := `UPDATE payments SET status = $2, validated_at = $3, validated_by = $4,
			      notes = COALESCE($5, notes)
			  WHERE id = $1
			  RETURNING ` + paymentColumns
	p, err := scanPayment(s.conn(ctx).QueryRowContext(ctx, query, id, d.Status, d.At, by, d.Notes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, paymentNotFound(id)))
	}
	return p, nil
}
