package repositories

import (
	"context"

	"tracker/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HoldingRepository interface {
	GetByUserAsset(ctx context.Context, userID uint, assetName string, tx pgx.Tx) (*models.Holding, error)
	Upsert(ctx context.Context, h *models.Holding, tx pgx.Tx) error
	Delete(ctx context.Context, userID uint, assetName string, tx pgx.Tx) error
	ListByUserID(ctx context.Context, userID uint, offset, limit int) ([]models.Holding, error)
}

type holdingRepo struct {
	db *pgxpool.Pool
}

func NewHoldingRepository(db *pgxpool.Pool) HoldingRepository {
	return &holdingRepo{db: db}
}

// GetByUserAsset returns pgx.ErrNoRows when the user holds none of the asset.
// Inside a tx the row is locked alongside the account row.
func (r *holdingRepo) GetByUserAsset(ctx context.Context, userID uint, assetName string, tx pgx.Tx) (*models.Holding, error) {
	query := `
		SELECT id, user_id, asset_name, quantity, total_value, category, created_at, updated_at
		FROM holdings
		WHERE user_id = $1 AND asset_name = $2`

	var row pgx.Row
	if tx != nil {
		row = tx.QueryRow(ctx, query+" FOR UPDATE", userID, assetName)
	} else {
		row = r.db.QueryRow(ctx, query, userID, assetName)
	}

	var h models.Holding
	err := row.Scan(&h.ID, &h.UserID, &h.AssetName, &h.Quantity, &h.TotalValue, &h.Category, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *holdingRepo) Upsert(ctx context.Context, h *models.Holding, tx pgx.Tx) error {
	query := `
		INSERT INTO holdings (user_id, asset_name, quantity, total_value, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, asset_name) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			total_value = EXCLUDED.total_value,
			updated_at = NOW()
		RETURNING id`

	if tx != nil {
		return tx.QueryRow(ctx, query, h.UserID, h.AssetName, h.Quantity, h.TotalValue, h.Category).Scan(&h.ID)
	}
	return r.db.QueryRow(ctx, query, h.UserID, h.AssetName, h.Quantity, h.TotalValue, h.Category).Scan(&h.ID)
}

func (r *holdingRepo) Delete(ctx context.Context, userID uint, assetName string, tx pgx.Tx) error {
	query := `DELETE FROM holdings WHERE user_id = $1 AND asset_name = $2`

	if tx != nil {
		_, err := tx.Exec(ctx, query, userID, assetName)
		return err
	}
	_, err := r.db.Exec(ctx, query, userID, assetName)
	return err
}

func (r *holdingRepo) ListByUserID(ctx context.Context, userID uint, offset, limit int) ([]models.Holding, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, asset_name, quantity, total_value, category, created_at, updated_at
		FROM holdings
		WHERE user_id = $1
		ORDER BY asset_name
		OFFSET $2 LIMIT $3`,
		userID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.ID, &h.UserID, &h.AssetName, &h.Quantity, &h.TotalValue, &h.Category, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}
