package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techfix/techfix-backend/internal/domain"
)

// TransactionRepository implements domain.TransactionRepository using
// PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, store_id, kind, description, amount, method,
	category, sale_id, plan_id, occurred_at, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount pgtype.Numeric
	var kind string
	err := row.Scan(&t.ID, &t.StoreID, &kind, &t.Description, &amount,
		&t.Method, &t.Category, &t.SaleID, &t.PlanID, &t.OccurredAt, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	t.Kind = domain.TransactionKind(kind)
	t.Amount = pgNumericToDecimal(amount)
	return &t, nil
}

// Create creates a new ledger entry
func (r *TransactionRepository) Create(tx *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()
	amount, err := decimalToPgNumeric(tx.Amount)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (store_id, kind, description, amount, method,
			category, sale_id, plan_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+transactionColumns,
		tx.StoreID, string(tx.Kind), tx.Description, amount, tx.Method,
		tx.Category, tx.SaleID, tx.PlanID, tx.OccurredAt)
	return scanTransaction(row)
}

// GetByID retrieves a ledger entry by ID within a store
func (r *TransactionRepository) GetByID(storeID int32, id int32) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE store_id = $1 AND id = $2`, storeID, id)
	return scanTransaction(row)
}

// GetByMonth retrieves entries whose occurred_at falls within the month
func (r *TransactionRepository) GetByMonth(storeID int32, year, month int) ([]*domain.Transaction, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE store_id = $1
		  AND occurred_at >= make_timestamptz($2, $3, 1, 0, 0, 0, 'UTC')
		  AND occurred_at < make_timestamptz($2, $3, 1, 0, 0, 0, 'UTC') + interval '1 month'
		ORDER BY occurred_at DESC`, storeID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// Delete removes a ledger entry
func (r *TransactionRepository) Delete(storeID int32, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transactions WHERE store_id = $1 AND id = $2`, storeID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}
