package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
)

// InstallmentPlanRepository implements domain.InstallmentPlanRepository
// using PostgreSQL
type InstallmentPlanRepository struct {
	pool *pgxpool.Pool
}

// NewInstallmentPlanRepository creates a new InstallmentPlanRepository
func NewInstallmentPlanRepository(pool *pgxpool.Pool) *InstallmentPlanRepository {
	return &InstallmentPlanRepository{pool: pool}
}

const planColumns = `id, store_id, customer_id, customer_name, customer_address,
	product_name, brand, model, color, storage, serial_number, imei,
	total_value, custom_fee, down_payment, trade_in_name, trade_in_value,
	frequency, created_at`

const installmentColumns = `id, plan_id, number, due_date, value, status,
	paid_at, created_at, updated_at`

func scanPlan(row pgx.Row) (*domain.InstallmentPlan, error) {
	var p domain.InstallmentPlan
	var total, fee, down pgtype.Numeric
	var tradeInName *string
	var tradeInValue pgtype.Numeric
	var frequency string
	err := row.Scan(&p.ID, &p.StoreID, &p.CustomerID, &p.CustomerName,
		&p.CustomerAddress, &p.ProductName, &p.Brand, &p.Model, &p.Color,
		&p.Storage, &p.SerialNumber, &p.IMEI, &total, &fee, &down,
		&tradeInName, &tradeInValue, &frequency, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	p.TotalValue = pgNumericToDecimal(total)
	p.CustomFee = pgNumericToDecimal(fee)
	p.DownPayment = pgNumericToDecimal(down)
	p.Frequency = domain.PlanFrequency(frequency)
	if tradeInName != nil {
		p.TradeIn = &domain.TradeIn{Name: *tradeInName, Value: pgNumericToDecimal(tradeInValue)}
	}
	return &p, nil
}

func scanInstallment(row pgx.Row) (*domain.Installment, error) {
	var inst domain.Installment
	var value pgtype.Numeric
	var status string
	err := row.Scan(&inst.ID, &inst.PlanID, &inst.Number, &inst.DueDate,
		&value, &status, &inst.PaidAt, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrInstallmentNotFound
		}
		return nil, err
	}
	inst.Value = pgNumericToDecimal(value)
	inst.Status = domain.InstallmentStatus(status)
	return &inst, nil
}

// Create persists the plan and its full schedule in one transaction.
func (r *InstallmentPlanRepository) Create(plan *domain.InstallmentPlan) (*domain.InstallmentPlan, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	total, err := decimalToPgNumeric(plan.TotalValue)
	if err != nil {
		return nil, err
	}
	fee, err := decimalToPgNumeric(plan.CustomFee)
	if err != nil {
		return nil, err
	}
	down, err := decimalToPgNumeric(plan.DownPayment)
	if err != nil {
		return nil, err
	}
	var tradeInName *string
	tradeInValue := pgtype.Numeric{}
	if plan.TradeIn != nil {
		tradeInName = &plan.TradeIn.Name
		tradeInValue, err = decimalToPgNumeric(plan.TradeIn.Value)
		if err != nil {
			return nil, err
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO installment_plans (id, store_id, customer_id, customer_name,
			customer_address, product_name, brand, model, color, storage,
			serial_number, imei, total_value, custom_fee, down_payment,
			trade_in_name, trade_in_value, frequency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19)
		RETURNING `+planColumns,
		plan.ID, plan.StoreID, plan.CustomerID, plan.CustomerName,
		plan.CustomerAddress, plan.ProductName, plan.Brand, plan.Model,
		plan.Color, plan.Storage, plan.SerialNumber, plan.IMEI, total, fee,
		down, tradeInName, tradeInValue, string(plan.Frequency), plan.CreatedAt)
	created, err := scanPlan(row)
	if err != nil {
		return nil, err
	}

	for _, inst := range plan.Installments {
		value, err := decimalToPgNumeric(inst.Value)
		if err != nil {
			return nil, err
		}
		row := tx.QueryRow(ctx, `
			INSERT INTO installments (plan_id, number, due_date, value, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+installmentColumns,
			created.ID, inst.Number, inst.DueDate, value, string(inst.Status))
		saved, err := scanInstallment(row)
		if err != nil {
			return nil, err
		}
		created.Installments = append(created.Installments, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a plan with its installments ordered by number
func (r *InstallmentPlanRepository) GetByID(storeID int32, id uuid.UUID) (*domain.InstallmentPlan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+planColumns+`
		FROM installment_plans
		WHERE store_id = $1 AND id = $2`, storeID, id)
	plan, err := scanPlan(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadInstallments(ctx, []*domain.InstallmentPlan{plan}); err != nil {
		return nil, err
	}
	return plan, nil
}

// GetAllByStore retrieves all plans for a store, newest first
func (r *InstallmentPlanRepository) GetAllByStore(storeID int32) ([]*domain.InstallmentPlan, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+planColumns+`
		FROM installment_plans
		WHERE store_id = $1
		ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	plans, err := collectPlans(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadInstallments(ctx, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetByCustomer retrieves all plans for one customer, newest first
func (r *InstallmentPlanRepository) GetByCustomer(storeID int32, customerID int32) ([]*domain.InstallmentPlan, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+planColumns+`
		FROM installment_plans
		WHERE store_id = $1 AND customer_id = $2
		ORDER BY created_at DESC`, storeID, customerID)
	if err != nil {
		return nil, err
	}
	plans, err := collectPlans(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadInstallments(ctx, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// MarkInstallmentPaid sets the installment to paid. The status guard in the
// UPDATE keeps a second payment from overwriting the first; when zero rows
// match we disambiguate between already-paid and not-found.
func (r *InstallmentPlanRepository) MarkInstallmentPaid(planID uuid.UUID, number int32, paidAt time.Time) (*domain.Installment, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE installments
		SET status = 'paid', paid_at = $3, updated_at = now()
		WHERE plan_id = $1 AND number = $2 AND status = 'pending'
		RETURNING `+installmentColumns,
		planID, number, paidAt)
	inst, err := scanInstallment(row)
	if err == domain.ErrInstallmentNotFound {
		var status string
		probe := r.pool.QueryRow(ctx,
			`SELECT status FROM installments WHERE plan_id = $1 AND number = $2`,
			planID, number)
		if probeErr := probe.Scan(&status); probeErr == nil && status == "paid" {
			return nil, domain.ErrInstallmentAlreadyPaid
		}
		return nil, domain.ErrInstallmentNotFound
	}
	return inst, err
}

// UpdateInstallmentValue replaces the installment's value
func (r *InstallmentPlanRepository) UpdateInstallmentValue(planID uuid.UUID, number int32, value decimal.Decimal) (*domain.Installment, error) {
	ctx := context.Background()
	v, err := decimalToPgNumeric(value)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE installments
		SET value = $3, updated_at = now()
		WHERE plan_id = $1 AND number = $2
		RETURNING `+installmentColumns,
		planID, number, v)
	return scanInstallment(row)
}

func collectPlans(rows pgx.Rows) ([]*domain.InstallmentPlan, error) {
	defer rows.Close()
	var plans []*domain.InstallmentPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *InstallmentPlanRepository) loadInstallments(ctx context.Context, plans []*domain.InstallmentPlan) error {
	if len(plans) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(plans))
	byID := make(map[uuid.UUID]*domain.InstallmentPlan, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
		byID[p.ID] = p
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+installmentColumns+`
		FROM installments
		WHERE plan_id = ANY($1)
		ORDER BY plan_id, number`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return err
		}
		plan := byID[inst.PlanID]
		plan.Installments = append(plan.Installments, inst)
	}
	return rows.Err()
}
