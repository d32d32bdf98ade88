package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

func scanGroupCounts(rows *sql.Rows) ([]models.GroupCount, error) {
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.GroupCount, 0)
	for rows.Next() {
		var g models.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func scanGroupSums(rows *sql.Rows) ([]models.GroupSum, error) {
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.GroupSum, 0)
	for rows.Next() {
		var g models.GroupSum
		if err := rows.Scan(&g.Key, &g.Count, &g.Total); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// rangeArgs превращает диапазон в параметры запроса; NULL снимает ограничение.
func rangeArgs(r models.TimeRange) (from, to any) {
	if !r.From.IsZero() {
		from = r.From
	}
	if !r.To.IsZero() {
		to = r.To
	}
	return from, to
}

const paidInRange = `($1::timestamptz IS NULL OR paid_at >= $1) AND ($2::timestamptz IS NULL OR paid_at < $2)`

// PaymentStats агрегаты по платежам за период. Суммы при отсутствии строк равны 0,
// группировки по подтверждённым платежам возвращаются пустыми списками.
// Поля Today* и MonthIncome заполняет вызывающий код.
func (s *Storage) PaymentStats(ctx context.Context, period models.TimeRange) (*models.PaymentStats, error) {
	const op = "storage.PaymentStats"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	from, to := rangeArgs(period)
	st := &models.PaymentStats{}
	query := `SELECT COUNT(*) FILTER (WHERE status = 'validated'),
			         COALESCE(SUM(amount) FILTER (WHERE status = 'validated'), 0),
			         COUNT(*) FILTER (WHERE status = 'pending'),
			         COUNT(*) FILTER (WHERE status = 'rejected')
			  FROM payments
			  WHERE ` + paidInRange
	if err := s.conn(ctx).QueryRowContext(ctx, query, from, to).Scan(
		&st.ValidatedCount, &st.TotalIncome, &st.PendingCount, &st.RejectedCount); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var err error
	if st.ByMethod, err = s.validatedGroupedBy(ctx, "method", from, to); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if st.ByPurpose, err = s.validatedGroupedBy(ctx, "purpose", from, to); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// PaymentsByMethod подтверждённые платежи за период по способам оплаты,
// по убыванию суммы.
func (s *Storage) PaymentsByMethod(ctx context.Context, period models.TimeRange) ([]models.GroupSum, error) {
	const op = "storage.PaymentsByMethod"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	from, to := rangeArgs(period)
	groups, err := s.validatedGroupedBy(ctx, "method", from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return groups, nil
}

// column подставляется только из фиксированного набора внутри пакета.
func (s *Storage) validatedGroupedBy(ctx context.Context, column string, from, to any) ([]models.GroupSum, error) {
	query := `SELECT ` + column + `, COUNT(*), COALESCE(SUM(amount), 0)
			  FROM payments
			  WHERE status = 'validated' AND ` + paidInRange + `
			  GROUP BY ` + column + `
			  ORDER BY 3 DESC, 1`
	rows, err := s.conn(ctx).QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	return scanGroupSums(rows)
}

// Income количество и сумма подтверждённых платежей за период.
func (s *Storage) Income(ctx context.Context, period models.TimeRange) (count int, total float64, err error) {
	const op = "storage.Income"
	if err := checkCtx(ctx, op); err != nil {
		return 0, 0, err
	}

	from, to := rangeArgs(period)
	query := `SELECT COUNT(*), COALESCE(SUM(amount), 0)
			  FROM payments
			  WHERE status = 'validated' AND ` + paidInRange
	if err := s.conn(ctx).QueryRowContext(ctx, query, from, to).Scan(&count, &total); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, total, nil
}

// ListValidatedPayments подтверждённые платежи за период, новые первыми.
func (s *Storage) ListValidatedPayments(ctx context.Context, period models.TimeRange) ([]*models.Payment, error) {
	const op = "storage.ListValidatedPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	from, to := rangeArgs(period)
	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE status = 'validated' AND ` + paidInRange + `
			  ORDER BY paid_at DESC, id DESC`
	rows, err := s.conn(ctx).QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payments, err := scanPayments(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// CountPayments количество платежей в статусе.
func (s *Storage) CountPayments(ctx context.Context, status string) (int, error) {
	const op = "storage.CountPayments"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ClientStats агрегаты по клиентам. Expiring: активные с окончанием в [today, expiringTo],
// Expired: активные с окончанием до today.
func (s *Storage) ClientStats(ctx context.Context, today, expiringTo time.Time) (*models.ClientStats, error) {
	const op = "storage.ClientStats"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	st := &models.ClientStats{}
	query := `SELECT COUNT(*),
			         COUNT(*) FILTER (WHERE status = 'active'),
			         COUNT(*) FILTER (WHERE status = 'inactive'),
			         COUNT(*) FILTER (WHERE status = 'pending'),
			         COUNT(*) FILTER (WHERE status = 'active' AND end_date BETWEEN $1 AND $2),
			         COUNT(*) FILTER (WHERE status = 'active' AND end_date < $1)
			  FROM clients`
	if err := s.conn(ctx).QueryRowContext(ctx, query, today, expiringTo).Scan(
		&st.Total, &st.Active, &st.Inactive, &st.Pending, &st.Expiring, &st.Expired); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// PlanDistribution количество активных клиентов по планам.
func (s *Storage) PlanDistribution(ctx context.Context) ([]models.GroupCount, error) {
	const op = "storage.PlanDistribution"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT p.name, COUNT(*)
			  FROM clients c JOIN membership_plans p ON p.id = c.plan_id
			  WHERE c.status = 'active'
			  GROUP BY p.name
			  ORDER BY 2 DESC, 1`
	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	groups, err := scanGroupCounts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return groups, nil
}

// TopClients клиенты по сумме подтверждённых платежей.
func (s *Storage) TopClients(ctx context.Context, limit int) ([]*models.TopClient, error) {
	const op = "storage.TopClients"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT c.document, c.first_name || ' ' || c.last_name, COUNT(p.id), COALESCE(SUM(p.amount), 0)
			  FROM clients c JOIN payments p ON p.client_document = c.document
			  WHERE p.status = 'validated'
			  GROUP BY c.document, c.first_name, c.last_name
			  ORDER BY 4 DESC, 1
			  LIMIT $1`
	rows, err := s.conn(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.TopClient, 0)
	for rows.Next() {
		t := &models.TopClient{}
		if err := rows.Scan(&t.Document, &t.Name, &t.Payments, &t.Total); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
