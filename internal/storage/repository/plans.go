package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

const planColumns = `id, name, duration_days, price, description, active, created_at`

func scanPlan(row rowScanner) (*models.Plan, error) {
	p := &models.Plan{}
	if err := row.Scan(&p.ID, &p.Name, &p.DurationDays, &p.Price, &p.Description, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func planNotFound(id int64) string {
	return "plan " + strconv.FormatInt(id, 10) + " not found"
}

// CreatePlan сохраняет тариф и возвращает его с присвоенным ID.
func (s *Storage) CreatePlan(ctx context.Context, req models.CreatePlanRequest) (*models.Plan, error) {
	const op = "storage.CreatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO membership_plans (name, duration_days, price, description)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + planColumns
	p, err := scanPlan(s.conn(ctx).QueryRowContext(ctx, query,
		req.Name, req.DurationDays, req.Price, req.Description))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, "plan not found"))
	}
	return p, nil
}

// GetPlan возвращает тариф по ID, в том числе выведенный из продажи.
func (s *Storage) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "storage.GetPlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM membership_plans WHERE id = $1`
	p, err := scanPlan(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, planNotFound(id)))
	}
	return p, nil
}

// ListPlans возвращает тарифы; при onlyActive скрывает выведенные из продажи.
func (s *Storage) ListPlans(ctx context.Context, onlyActive bool) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM membership_plans
			  WHERE ($1 = FALSE OR active)
			  ORDER BY price, id`
	rows, err := s.conn(ctx).QueryContext(ctx, query, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePlan меняет только переданные поля тарифа.
func (s *Storage) UpdatePlan(ctx context.Context, id int64, upd models.PlanUpdate) (*models.Plan, error) {
	const op = "storage.UpdatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE membership_plans SET
			      name = COALESCE($2, name),
			      duration_days = COALESCE($3, duration_days),
			      price = COALESCE($4, price),
			      description = COALESCE($5, description)
			  WHERE id = $1
			  RETURNING ` + planColumns
	p, err := scanPlan(s.conn(ctx).QueryRowContext(ctx, query,
		id, upd.Name, upd.DurationDays, upd.Price, upd.Description))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, planNotFound(id)))
	}
	return p, nil
}

// RetirePlan выводит тариф из продажи. Запись и ссылки на неё сохраняются.
func (s *Storage) RetirePlan(ctx context.Context, id int64) error {
	const op = "storage.RetirePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE membership_plans SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affectedOne(res, planNotFound(id)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PlanStats агрегаты по активным тарифам. Пустая выборка даёт нули.
func (s *Storage) PlanStats(ctx context.Context) (*models.PlanStats, error) {
	const op = "storage.PlanStats"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT COUNT(*),
			         COALESCE(AVG(price), 0),
			         COALESCE(AVG(duration_days), 0),
			         COALESCE(SUM(price), 0)
			  FROM membership_plans
			  WHERE active`
	st := &models.PlanStats{}
	if err := s.conn(ctx).QueryRowContext(ctx, query).Scan(
		&st.ActivePlans, &st.AveragePrice, &st.AverageDuration, &st.PotentialRevenue); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}
