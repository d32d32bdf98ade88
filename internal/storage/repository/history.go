package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// AddHistory дописывает запись в журнал абонементов.
func (s *Storage) AddHistory(ctx context.Context, h models.HistoryEntry) error {
	const op = "storage.AddHistory"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO membership_history (client_document, plan_id, start_date, end_date, price_paid)
			  VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.conn(ctx).ExecContext(ctx, query,
		h.ClientDocument, h.PlanID, h.StartDate, h.EndDate, h.PricePaid); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err, clientNotFound(h.ClientDocument)))
	}
	return nil
}

// ListHistory журнал абонементов клиента, новые первыми.
func (s *Storage) ListHistory(ctx context.Context, document string) ([]*models.HistoryEntry, error) {
	const op = "storage.ListHistory"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT h.id, h.client_document, h.plan_id, COALESCE(p.name, ''),
			         h.start_date, h.end_date, h.price_paid, h.recorded_at
			  FROM membership_history h
			  LEFT JOIN membership_plans p ON p.id = h.plan_id
			  WHERE h.client_document = $1
			  ORDER BY h.recorded_at DESC, h.id DESC`
	rows, err := s.conn(ctx).QueryContext(ctx, query, document)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.HistoryEntry, 0)
	for rows.Next() {
		var (
			h      models.HistoryEntry
			planID sql.NullInt64
		)
		if err := rows.Scan(&h.ID, &h.ClientDocument, &planID, &h.PlanName,
			&h.StartDate, &h.EndDate, &h.PricePaid, &h.RecordedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		h.PlanID = nullInt64(planID)
		result = append(result, &h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
