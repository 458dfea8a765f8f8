package repositories

import (
	"context"

	"tracker/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Account, error)
	// GetByUserIDForUpdate locks the account row for the duration of tx. The
	// row lock is the per-user serialization point for all balance mutations.
	GetByUserIDForUpdate(ctx context.Context, userID uint, tx pgx.Tx) (*models.Account, error)
	Create(ctx context.Context, a *models.Account, tx pgx.Tx) error
	UpdateBalance(ctx context.Context, a *models.Account, tx pgx.Tx) error
}

type accountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) GetByUserID(ctx context.Context, userID uint) (*models.Account, error) {
	return r.get(ctx, r.db, userID, false)
}

func (r *accountRepo) GetByUserIDForUpdate(ctx context.Context, userID uint, tx pgx.Tx) (*models.Account, error) {
	return r.get(ctx, tx, userID, true)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *accountRepo) get(ctx context.Context, q querier, userID uint, forUpdate bool) (*models.Account, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts
		WHERE user_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var a models.Account
	err := q.QueryRow(ctx, query, userID).Scan(&a.ID, &a.UserID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepo) Create(ctx context.Context, a *models.Account, tx pgx.Tx) error {
	query := `
		INSERT INTO accounts (user_id, balance)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	if tx != nil {
		return tx.QueryRow(ctx, query, a.UserID, a.Balance).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	}
	return r.db.QueryRow(ctx, query, a.UserID, a.Balance).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *accountRepo) UpdateBalance(ctx context.Context, a *models.Account, tx pgx.Tx) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = NOW()
		WHERE id = $1`

	if tx != nil {
		_, err := tx.Exec(ctx, query, a.ID, a.Balance)
		return err
	}
	_, err := r.db.Exec(ctx, query, a.ID, a.Balance)
	return err
}
