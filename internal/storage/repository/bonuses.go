package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

const bonusColumns = `id, client_document, kind, days_gift, reason, granted_by, applied, applied_at, granted_at`

func scanBonus(row rowScanner) (*models.Bonus, error) {
	var (
		b         models.Bonus
		grantedBy sql.NullString
		appliedAt sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.ClientDocument, &b.Kind, &b.DaysGift, &b.Reason, &grantedBy,
		&b.Applied, &appliedAt, &b.GrantedAt); err != nil {
		return nil, err
	}
	b.GrantedBy = nullString(grantedBy)
	b.AppliedAt = nullTime(appliedAt)
	return &b, nil
}

func scanBonuses(rows *sql.Rows) ([]*models.Bonus, error) {
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Bonus, 0)
	for rows.Next() {
		b, err := scanBonus(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func bonusNotFound(id int64) string {
	return "bonus " + strconv.FormatInt(id, 10) + " not found"
}

// CreateBonus сохраняет бонус. Применённый бонус сохраняется сразу с applied_at.
func (s *Storage) CreateBonus(ctx context.Context, b models.Bonus) (*models.Bonus, error) {
	const op = "storage.CreateBonus"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO bonuses (client_document, kind, days_gift, reason, granted_by, applied, applied_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + bonusColumns
	created, err := scanBonus(s.conn(ctx).QueryRowContext(ctx, query,
		b.ClientDocument, b.Kind, b.DaysGift, b.Reason, b.GrantedBy, b.Applied, b.AppliedAt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(b.ClientDocument)))
	}
	return created, nil
}

// GetBonus возвращает бонус по ID.
func (s *Storage) GetBonus(ctx context.Context, id int64) (*models.Bonus, error) {
	const op = "storage.GetBonus"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + bonusColumns + ` FROM bonuses WHERE id = $1`
	b, err := scanBonus(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, bonusNotFound(id)))
	}
	return b, nil
}

// GetBonusForUpdate читает бонус с блокировкой строки. Только внутри RunInTx.
func (s *Storage) GetBonusForUpdate(ctx context.Context, id int64) (*models.Bonus, error) {
	const op = "storage.GetBonusForUpdate"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + bonusColumns + ` FROM bonuses WHERE id = $1 FOR UPDATE`
	b, err := scanBonus(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, bonusNotFound(id)))
	}
	return b, nil
}

// MarkBonusApplied отмечает бонус применённым.
func (s *Storage) MarkBonusApplied(ctx context.Context, id int64, at time.Time) (*models.Bonus, error) {
	const op = "storage.MarkBonusApplied"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE bonuses SET applied = TRUE, applied_at = $2
			  WHERE id = $1 AND NOT applied
			  RETURNING ` + bonusColumns
	b, err := scanBonus(s.conn(ctx).QueryRowContext(ctx, query, id, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, s.unappliedOnly(ctx, id, models.ErrAlreadyProcessed))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, bonusNotFound(id)))
	}
	return b, nil
}

// DeleteBonus удаляет ещё не применённый бонус.
func (s *Storage) DeleteBonus(ctx context.Context, id int64) error {
	const op = "storage.DeleteBonus"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM bonuses WHERE id = $1 AND NOT applied`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", op, s.unappliedOnly(ctx, id, models.ErrInvalidState))
	}
	return nil
}

func (s *Storage) unappliedOnly(ctx context.Context, id int64, kind error) error {
	var applied bool
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT applied FROM bonuses WHERE id = $1`, id).Scan(&applied)
	if err != nil {
		return mapError(err, bonusNotFound(id))
	}
	return models.Errorf(kind, "bonus %d is already applied", id)
}

// ListBonuses возвращает бонусы по состоянию: applied, pending или все при пустом.
func (s *Storage) ListBonuses(ctx context.Context, state string) ([]*models.Bonus, error) {
	const op = "storage.ListBonuses"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + bonusColumns + ` FROM bonuses
			  WHERE ($1::text = '' OR ($1 = 'applied') = applied)
			  ORDER BY granted_at DESC, id DESC`
	rows, err := s.conn(ctx).QueryContext(ctx, query, state)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	bonuses, err := scanBonuses(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bonuses, nil
}

// ListBonusesByClient бонусы клиента, новые первыми.
func (s *Storage) ListBonusesByClient(ctx context.Context, document string) ([]*models.Bonus, error) {
	const op = "storage.ListBonusesByClient"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + bonusColumns + ` FROM bonuses
			  WHERE client_document = $1
			  ORDER BY granted_at DESC, id DESC`
	rows, err := s.conn(ctx).QueryContext(ctx, query, document)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	bonuses, err := scanBonuses(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bonuses, nil
}

// BonusStats агрегаты по бонусам. Подаренные дни считаются только по применённым.
func (s *Storage) BonusStats(ctx context.Context) (*models.BonusStats, error) {
	const op = "storage.BonusStats"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	st := &models.BonusStats{ByKind: make([]models.GroupCount, 0)}
	query := `SELECT COUNT(*),
			         COUNT(*) FILTER (WHERE applied),
			         COUNT(*) FILTER (WHERE NOT applied),
			         COALESCE(SUM(days_gift) FILTER (WHERE applied), 0)
			  FROM bonuses`
	if err := s.conn(ctx).QueryRowContext(ctx, query).Scan(
		&st.Total, &st.Applied, &st.Pending, &st.TotalDaysGift); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM bonuses GROUP BY kind ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	st.ByKind, err = scanGroupCounts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}
