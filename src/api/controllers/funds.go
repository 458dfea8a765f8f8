package controllers

import (
	"context"
	"errors"

	"tracker/src/notifications"
	"tracker/src/repositories"
	"tracker/src/schemas"
	"tracker/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type FundsControllerI interface {
	GetFunds(ctx context.Context, userID uint) (*schemas.FundsResponse, error)
	AddFunds(ctx context.Context, userID uint, amount decimal.Decimal) (*schemas.FundsResponse, error)
	SetFunds(ctx context.Context, userID uint, amount decimal.Decimal) (*schemas.FundsResponse, error)
}

// FundsController reads and mutates the cash balance. Mutations take the same
// account row lock as the transaction engine, so deposits never race a buy.
type FundsController struct {
	txManager   repositories.TxManager
	accountRepo repositories.AccountRepository
	userRepo    repositories.UserRepository
	dispatcher  EventDispatcher
}

func NewFundsController(
	txManager repositories.TxManager,
	accountRepo repositories.AccountRepository,
	userRepo repositories.UserRepository,
	dispatcher EventDispatcher,
) *FundsController {
	return &FundsController{
		txManager:   txManager,
		accountRepo: accountRepo,
		userRepo:    userRepo,
		dispatcher:  dispatcher,
	}
}

func (c *FundsController) GetFunds(ctx context.Context, userID uint) (*schemas.FundsResponse, error) {
	account, err := c.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NotFound("Account not found")
		}
		return nil, classifyError(err)
	}
	return &schemas.FundsResponse{Amount: account.Balance}, nil
}

func (c *FundsController) AddFunds(ctx context.Context, userID uint, amount decimal.Decimal) (*schemas.FundsResponse, error) {
	if !amount.IsPositive() {
		return nil, utils.BadRequest("Amount must be greater than zero")
	}
	return c.mutateBalance(ctx, userID, amount, func(balance, amount decimal.Decimal) decimal.Decimal {
		return balance.Add(amount)
	})
}

func (c *FundsController) SetFunds(ctx context.Context, userID uint, amount decimal.Decimal) (*schemas.FundsResponse, error) {
	if amount.IsNegative() {
		return nil, utils.BadRequest("Amount must not be negative")
	}
	return c.mutateBalance(ctx, userID, amount, func(_, amount decimal.Decimal) decimal.Decimal {
		return amount
	})
}

func (c *FundsController) mutateBalance(ctx context.Context, userID uint, amount decimal.Decimal, apply func(balance, amount decimal.Decimal) decimal.Decimal) (*schemas.FundsResponse, error) {
	var newBalance decimal.Decimal
	err := c.txManager.RunInTx(ctx, func(tx pgx.Tx) error {
		account, err := c.accountRepo.GetByUserIDForUpdate(ctx, userID, tx)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return utils.NotFound("Account not found")
			}
			return err
		}
		account.Balance = apply(account.Balance, amount)
		if err := c.accountRepo.UpdateBalance(ctx, account, tx); err != nil {
			return err
		}
		newBalance = account.Balance
		return nil
	})
	if err != nil {
		return nil, classifyError(err)
	}

	c.notifyFundsUpdated(ctx, userID, amount, newBalance)
	return &schemas.FundsResponse{Amount: newBalance}, nil
}

func (c *FundsController) notifyFundsUpdated(ctx context.Context, userID uint, amount, balance decimal.Decimal) {
	logger := utils.LoggerFromContext(ctx)
	user, err := c.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.WithError(err).Warn("could not resolve user email for funds notification")
		return
	}
	c.dispatcher.Dispatch(notifications.NewEvent(user.Email, notifications.KindFundsUpdated, map[string]string{
		"amount":  amount.String(),
		"balance": balance.String(),
	}))
}
