package controllers

import (
	"context"
	"errors"

	"tracker/src/models"
	"tracker/src/notifications"
	"tracker/src/repositories"
	"tracker/src/schemas"
	"tracker/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type TransactionsControllerI interface {
	ApplyTransaction(ctx context.Context, userID uint, req *schemas.CreateTransactionRequest) (*schemas.TransactionResponse, error)
}

// TransactionsController is the transaction engine. It validates a buy/sell
// request and applies the three-way mutation (account balance, holding,
// transaction record) as one storage transaction serialized per user by the
// account row lock.
type TransactionsController struct {
	txManager       repositories.TxManager
	accountRepo     repositories.AccountRepository
	holdingRepo     repositories.HoldingRepository
	transactionRepo repositories.TransactionRepository
	userRepo        repositories.UserRepository
	dispatcher      EventDispatcher
	holdingsCache   *utils.KeyedCache[uint, []models.Holding]
}

func NewTransactionsController(
	txManager repositories.TxManager,
	accountRepo repositories.AccountRepository,
	holdingRepo repositories.HoldingRepository,
	transactionRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
	dispatcher EventDispatcher,
	holdingsCache *utils.KeyedCache[uint, []models.Holding],
) *TransactionsController {
	return &TransactionsController{
		txManager:       txManager,
		accountRepo:     accountRepo,
		holdingRepo:     holdingRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		dispatcher:      dispatcher,
		holdingsCache:   holdingsCache,
	}
}

func (c *TransactionsController) ApplyTransaction(ctx context.Context, userID uint, req *schemas.CreateTransactionRequest) (*schemas.TransactionResponse, error) {
	if !req.Quantity.IsPositive() {
		return nil, utils.BadRequest("Quantity must be greater than zero")
	}
	if !req.Amount.IsPositive() {
		return nil, utils.BadRequest("Amount must be greater than zero")
	}
	transactionType := schemas.NormalizeTransactionType(req.TransactionType)
	if transactionType != models.TransactionTypeBuy && transactionType != models.TransactionTypeSell {
		return nil, utils.BadRequest("Invalid transaction type")
	}
	category, err := schemas.ParseCategory(req.Category)
	if err != nil {
		return nil, utils.BadRequest(err.Error())
	}

	var newBalance, newQuantity decimal.Decimal
	err = c.txManager.RunInTx(ctx, func(tx pgx.Tx) error {
		// The account row lock serializes every ledger mutation for this user
		account, err := c.accountRepo.GetByUserIDForUpdate(ctx, userID, tx)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return utils.NotFound("Account not found")
			}
			return err
		}

		holding, err := c.holdingRepo.GetByUserAsset(ctx, userID, req.AssetName, tx)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		if transactionType == models.TransactionTypeSell {
			if holding == nil || holding.Quantity.LessThan(req.Quantity) {
				return utils.BadRequest("Insufficient holdings")
			}
			holding.Quantity = holding.Quantity.Sub(req.Quantity)
			if holding.Quantity.IsZero() {
				// A holding exists iff its quantity is positive
				if err := c.holdingRepo.Delete(ctx, userID, req.AssetName, tx); err != nil {
					return err
				}
			} else {
				holding.TotalValue = holding.TotalValue.Sub(req.Amount)
				if err := c.holdingRepo.Upsert(ctx, holding, tx); err != nil {
					return err
				}
			}
			account.Balance = account.Balance.Add(req.Amount)
			newQuantity = holding.Quantity
		} else {
			if account.Balance.LessThan(req.Amount) {
				return utils.BadRequest("Insufficient funds")
			}
			if holding == nil {
				holding = &models.Holding{
					UserID:     userID,
					AssetName:  req.AssetName,
					Quantity:   req.Quantity,
					TotalValue: req.Amount,
					Category:   category,
				}
			} else {
				holding.Quantity = holding.Quantity.Add(req.Quantity)
				holding.TotalValue = holding.TotalValue.Add(req.Amount)
			}
			if err := c.holdingRepo.Upsert(ctx, holding, tx); err != nil {
				return err
			}
			// Exact decimal on both paths; the buy side is not truncated
			account.Balance = account.Balance.Sub(req.Amount)
			newQuantity = holding.Quantity
		}

		if err := c.accountRepo.UpdateBalance(ctx, account, tx); err != nil {
			return err
		}

		record := &models.Transaction{
			UserID:          userID,
			AssetName:       req.AssetName,
			Quantity:        req.Quantity,
			Amount:          req.Amount,
			TransactionType: transactionType,
			Category:        category,
		}
		if err := c.transactionRepo.Create(ctx, record, tx); err != nil {
			return err
		}

		newBalance = account.Balance
		return nil
	})
	if err != nil {
		return nil, classifyError(err)
	}

	c.holdingsCache.Invalidate(userID)
	c.notifyTransaction(ctx, userID, req, transactionType, category)

	return &schemas.TransactionResponse{
		Message:            "Transaction successful",
		NewBalance:         newBalance,
		NewHoldingQuantity: newQuantity,
	}, nil
}

// notifyTransaction runs after commit, outside the row lock. Lookup or delivery
// problems are logged and swallowed.
func (c *TransactionsController) notifyTransaction(ctx context.Context, userID uint, req *schemas.CreateTransactionRequest, transactionType, category string) {
	logger := utils.LoggerFromContext(ctx)
	user, err := c.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.WithError(err).Warn("could not resolve user email for transaction notification")
		return
	}
	c.dispatcher.Dispatch(notifications.NewEvent(user.Email, notifications.KindTransaction, map[string]string{
		"Transaction Type": transactionType,
		"Asset Name":       req.AssetName,
		"Quantity":         req.Quantity.String(),
		"Amount":           req.Amount.String(),
		"Category":         category,
	}))
}
