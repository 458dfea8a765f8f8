package repositories

import (
	"context"

	"tracker/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository is append-only. No update or delete method exists for
// transaction records and none should be added.
type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction, tx pgx.Tx) error
	ListByUserID(ctx context.Context, userID uint, offset, limit int) ([]models.Transaction, error)
}

type transactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, t *models.Transaction, tx pgx.Tx) error {
	query := `
		INSERT INTO transactions (user_id, asset_name, quantity, amount, transaction_type, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	if tx != nil {
		return tx.QueryRow(ctx, query,
			t.UserID, t.AssetName, t.Quantity, t.Amount, t.TransactionType, t.Category,
		).Scan(&t.ID, &t.CreatedAt)
	}
	return r.db.QueryRow(ctx, query,
		t.UserID, t.AssetName, t.Quantity, t.Amount, t.TransactionType, t.Category,
	).Scan(&t.ID, &t.CreatedAt)
}

// ListByUserID returns a user's records newest first. Ordering is by id: ids are
// assigned at insert while the account row lock is held, so id order is commit
// order, while created_at of two concurrent transactions can invert it.
func (r *transactionRepo) ListByUserID(ctx context.Context, userID uint, offset, limit int) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, asset_name, quantity, amount, transaction_type, category, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY id DESC
		OFFSET $2 LIMIT $3`,
		userID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AssetName, &t.Quantity, &t.Amount, &t.TransactionType, &t.Category, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
