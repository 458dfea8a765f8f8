package controllers

import (
	"context"
	"time"

	"tracker/src/models"
	"tracker/src/repositories"
	"tracker/src/schemas"
	"tracker/src/utils"
)

type PortfolioControllerI interface {
	ListUserHoldings(ctx context.Context, userID uint, page, pageSize int) (*schemas.HoldingListResponse, error)
	ListUserTransactions(ctx context.Context, userID uint, page, pageSize int) (*schemas.TransactionListResponse, error)
}

const holdingsCacheTTL = 30 * time.Second

// PortfolioController is the read-only query side. It never mutates the store;
// writes invalidate its cache through the shared KeyedCache.
type PortfolioController struct {
	holdingRepo     repositories.HoldingRepository
	transactionRepo repositories.TransactionRepository
	holdingsCache   *utils.KeyedCache[uint, []models.Holding]
	pageSize        int
	maxPageSize     int
}

func NewPortfolioController(
	holdingRepo repositories.HoldingRepository,
	transactionRepo repositories.TransactionRepository,
	holdingsCache *utils.KeyedCache[uint, []models.Holding],
	pageSize, maxPageSize int,
) *PortfolioController {
	return &PortfolioController{
		holdingRepo:     holdingRepo,
		transactionRepo: transactionRepo,
		holdingsCache:   holdingsCache,
		pageSize:        pageSize,
		maxPageSize:     maxPageSize,
	}
}

// clampPage bounds page/pageSize to the configured defaults and ceiling.
func (c *PortfolioController) clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	if pageSize > c.maxPageSize {
		pageSize = c.maxPageSize
	}
	return page, pageSize
}

func (c *PortfolioController) ListUserHoldings(ctx context.Context, userID uint, page, pageSize int) (*schemas.HoldingListResponse, error) {
	page, pageSize = c.clampPage(page, pageSize)

	cacheable := page == 1 && pageSize == c.pageSize
	if cacheable {
		if cached, ok := c.holdingsCache.Get(userID); ok {
			return holdingsResponse(cached, page, pageSize), nil
		}
	}

	// Snapshot the generation before reading storage; a write committing in
	// between bumps it and the Set below becomes a no-op instead of caching
	// the pre-write rows.
	gen := c.holdingsCache.Generation(userID)
	holdings, err := c.holdingRepo.ListByUserID(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, classifyError(err)
	}
	if cacheable {
		c.holdingsCache.Set(userID, holdings, holdingsCacheTTL, gen)
	}
	return holdingsResponse(holdings, page, pageSize), nil
}

func holdingsResponse(holdings []models.Holding, page, pageSize int) *schemas.HoldingListResponse {
	resp := &schemas.HoldingListResponse{
		Holdings: make([]schemas.HoldingResponse, len(holdings)),
		Page:     page,
		PageSize: pageSize,
	}
	for i, h := range holdings {
		resp.Holdings[i] = schemas.HoldingResponse{
			AssetName:  h.AssetName,
			Quantity:   h.Quantity,
			TotalValue: h.TotalValue,
			Category:   h.Category,
		}
	}
	return resp
}

func (c *PortfolioController) ListUserTransactions(ctx context.Context, userID uint, page, pageSize int) (*schemas.TransactionListResponse, error) {
	page, pageSize = c.clampPage(page, pageSize)

	transactions, err := c.transactionRepo.ListByUserID(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, classifyError(err)
	}

	resp := &schemas.TransactionListResponse{
		Transactions: make([]schemas.TransactionRecordResponse, len(transactions)),
		Page:         page,
		PageSize:     pageSize,
	}
	for i, t := range transactions {
		resp.Transactions[i] = schemas.TransactionRecordResponse{
			ID:              t.ID,
			AssetName:       t.AssetName,
			Quantity:        t.Quantity,
			Amount:          t.Amount,
			TransactionType: t.TransactionType,
			Category:        t.Category,
			CreatedAt:       t.CreatedAt,
		}
	}
	return resp, nil
}
