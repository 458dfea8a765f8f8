package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tracker/src/config"
	"tracker/src/models"
	"tracker/src/notifications"
	"tracker/src/repositories"
	"tracker/src/schemas"
	"tracker/src/utils"

	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type UsersControllerI interface {
	Signup(ctx context.Context, req *schemas.SignupRequest) (*schemas.TokenResponse, error)
	Login(ctx context.Context, req *schemas.LoginRequest) (*schemas.TokenResponse, error)
	Refresh(ctx context.Context, req *schemas.RefreshRequest) (*schemas.TokenResponse, error)
	ResetPassword(ctx context.Context, req *schemas.ResetPasswordRequest) error
	GetUserData(ctx context.Context, userID uint) (*schemas.UserResponse, error)
	UpdateUserData(ctx context.Context, userID uint, req *schemas.UpdateUserRequest) (*schemas.UserResponse, error)
}

// UsersController is the identity side: signup, login, password reset. Signup
// creates the user and its zero-balance account in one storage transaction; the
// account is an explicit orchestration step, not a side effect.
type UsersController struct {
	txManager   repositories.TxManager
	userRepo    repositories.UserRepository
	accountRepo repositories.AccountRepository
	dispatcher  EventDispatcher
	tokenAuth   *jwtauth.JWTAuth
	authCfg     config.AuthConfig
}

func NewUsersController(
	txManager repositories.TxManager,
	userRepo repositories.UserRepository,
	accountRepo repositories.AccountRepository,
	dispatcher EventDispatcher,
	tokenAuth *jwtauth.JWTAuth,
	authCfg config.AuthConfig,
) *UsersController {
	return &UsersController{
		txManager:   txManager,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		dispatcher:  dispatcher,
		tokenAuth:   tokenAuth,
		authCfg:     authCfg,
	}
}

func (c *UsersController) Signup(ctx context.Context, req *schemas.SignupRequest) (*schemas.TokenResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, utils.BadRequest("Username, email and password are required")
	}
	if len(req.Password) < 8 {
		return nil, utils.BadRequest("Password must be at least 8 characters")
	}

	usernameTaken, emailTaken, err := c.userRepo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, classifyError(err)
	}
	if usernameTaken {
		return nil, utils.BadRequest("A user with that username already exists")
	}
	if emailTaken {
		return nil, utils.BadRequest("A user with that email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, classifyError(err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Country:      req.Country,
		PhoneNumber:  req.PhoneNumber,
	}
	err = c.txManager.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := c.userRepo.Create(ctx, user, tx); err != nil {
			return err
		}
		account := &models.Account{UserID: user.ID, Balance: decimal.Zero}
		return c.accountRepo.Create(ctx, account, tx)
	})
	if err != nil {
		return nil, classifyError(err)
	}

	c.dispatcher.Dispatch(notifications.NewEvent(user.Email, notifications.KindSignup, map[string]string{
		"username": user.Username,
	}))

	return c.issueTokens(user.ID)
}

func (c *UsersController) Login(ctx context.Context, req *schemas.LoginRequest) (*schemas.TokenResponse, error) {
	user, err := c.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.Unauthorized("Invalid credentials")
		}
		return nil, classifyError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, utils.Unauthorized("Invalid credentials")
	}
	return c.issueTokens(user.ID)
}

func (c *UsersController) ResetPassword(ctx context.Context, req *schemas.ResetPasswordRequest) error {
	if req.Username == "" || req.Email == "" || req.PhoneNumber == "" || req.Password == "" {
		return utils.BadRequest("All fields are required")
	}
	user, err := c.userRepo.GetByIdentity(ctx, req.Username, req.Email, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return utils.BadRequest("No matching user found")
		}
		return classifyError(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return classifyError(err)
	}
	if err := c.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return classifyError(err)
	}
	return nil
}

func (c *UsersController) GetUserData(ctx context.Context, userID uint) (*schemas.UserResponse, error) {
	user, err := c.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NotFound("User not found")
		}
		return nil, classifyError(err)
	}
	return toUserResponse(user), nil
}

func (c *UsersController) UpdateUserData(ctx context.Context, userID uint, req *schemas.UpdateUserRequest) (*schemas.UserResponse, error) {
	user, err := c.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NotFound("User not found")
		}
		return nil, classifyError(err)
	}

	// Password change is its own path, gated on the confirmation field
	if req.Password != "" || req.ConfirmPassword != "" {
		if req.Password != req.ConfirmPassword {
			return nil, utils.BadRequest("Passwords do not match")
		}
		if len(req.Password) < 8 {
			return nil, utils.BadRequest("Password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, classifyError(err)
		}
		if err := c.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
			return nil, classifyError(err)
		}
		return toUserResponse(user), nil
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Country != "" {
		user.Country = req.Country
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if err := c.userRepo.Update(ctx, user); err != nil {
		return nil, classifyError(err)
	}
	return toUserResponse(user), nil
}

// Refresh redeems a refresh token for a fresh token pair. Access tokens are
// rejected even if otherwise valid.
func (c *UsersController) Refresh(ctx context.Context, req *schemas.RefreshRequest) (*schemas.TokenResponse, error) {
	if req.Refresh == "" {
		return nil, utils.BadRequest("Refresh token is required")
	}
	token, err := jwtauth.VerifyToken(c.tokenAuth, req.Refresh)
	if err != nil {
		return nil, utils.Unauthorized("Invalid refresh token")
	}
	claims, err := token.AsMap(ctx)
	if err != nil {
		return nil, utils.Unauthorized("Invalid refresh token")
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != "refresh" {
		return nil, utils.Unauthorized("Not a refresh token")
	}
	userID, ok := claimUserID(claims)
	if !ok {
		return nil, utils.Unauthorized("Invalid refresh token")
	}
	if _, err := c.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.Unauthorized("Invalid refresh token")
		}
		return nil, classifyError(err)
	}
	return c.issueTokens(userID)
}

func claimUserID(claims map[string]interface{}) (uint, bool) {
	switch v := claims["user_id"].(type) {
	case float64:
		return uint(v), true
	case int64:
		return uint(v), true
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return uint(id), true
	default:
		return 0, false
	}
}

func (c *UsersController) issueTokens(userID uint) (*schemas.TokenResponse, error) {
	access, err := c.encodeToken(userID, "access", c.authCfg.AccessTokenTTL)
	if err != nil {
		return nil, classifyError(err)
	}
	refresh, err := c.encodeToken(userID, "refresh", c.authCfg.RefreshTokenTTL)
	if err != nil {
		return nil, classifyError(err)
	}
	return &schemas.TokenResponse{Access: access, Refresh: refresh}, nil
}

func (c *UsersController) encodeToken(userID uint, tokenType string, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{
		"user_id":    int64(userID),
		"token_type": tokenType,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, ttl)
	_, tokenString, err := c.tokenAuth.Encode(claims)
	return tokenString, err
}

func toUserResponse(u *models.User) *schemas.UserResponse {
	return &schemas.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Country:     u.Country,
		PhoneNumber: u.PhoneNumber,
	}
}
