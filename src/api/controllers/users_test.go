package controllers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tracker/src/api/controllers"
	"tracker/src/config"
	"tracker/src/notifications"
	"tracker/src/schemas"
	"tracker/src/utils"

	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUsersFixture() (*engineFixture, *controllers.UsersController, *jwtauth.JWTAuth) {
	f := newEngineFixture()
	tokenAuth := jwtauth.New("HS256", []byte("testing-secret"), nil)
	users := controllers.NewUsersController(
		&fakeTxManager{store: f.store},
		&fakeUserRepo{store: f.store},
		&fakeAccountRepo{store: f.store},
		f.dispatcher,
		tokenAuth,
		config.AuthConfig{AccessTokenTTL: 15 * time.Minute, RefreshTokenTTL: 24 * time.Hour},
	)
	return f, users, tokenAuth
}

func signupRequest() *schemas.SignupRequest {
	return &schemas.SignupRequest{
		Username:    "alice",
		Email:       "alice@example.com",
		Password:    "correct-horse",
		FirstName:   "Alice",
		LastName:    "Doe",
		PhoneNumber: "555-0100",
	}
}

func TestSignupCreatesUserAndZeroBalanceAccount(t *testing.T) {
	f, users, tokenAuth := newUsersFixture()

	tokens, err := users.Signup(context.Background(), signupRequest())
	require.NoError(t, err)
	require.NotEmpty(t, tokens.Access)
	require.NotEmpty(t, tokens.Refresh)

	require.Len(t, f.store.users, 1)
	user := f.store.users[1]
	assert.Equal(t, "alice", user.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))

	account, ok := f.store.accounts[user.ID]
	require.True(t, ok, "signup must create the account alongside the user")
	assert.True(t, account.Balance.IsZero())

	events := f.dispatcher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notifications.KindSignup, events[0].Kind)

	token, err := jwtauth.VerifyToken(tokenAuth, tokens.Access)
	require.NoError(t, err)
	claims, err := token.AsMap(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, claims["user_id"])
}

func TestSignupRejectsDuplicates(t *testing.T) {
	_, users, _ := newUsersFixture()
	ctx := context.Background()

	_, err := users.Signup(ctx, signupRequest())
	require.NoError(t, err)

	dup := signupRequest()
	dup.Email = "other@example.com"
	_, err = users.Signup(ctx, dup)
	require.Error(t, err)

	var httpErr *utils.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Contains(t, httpErr.Message, "username")
}

func TestSignupRejectsShortPassword(t *testing.T) {
	_, users, _ := newUsersFixture()

	req := signupRequest()
	req.Password = "short"
	_, err := users.Signup(context.Background(), req)
	require.Error(t, err)

	var httpErr *utils.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestLogin(t *testing.T) {
	_, users, _ := newUsersFixture()
	ctx := context.Background()

	_, err := users.Signup(ctx, signupRequest())
	require.NoError(t, err)

	tokens, err := users.Login(ctx, &schemas.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Access)

	_, err = users.Login(ctx, &schemas.LoginRequest{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	var httpErr *utils.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	_, err = users.Login(ctx, &schemas.LoginRequest{Username: "nobody", Password: "x"})
	require.Error(t, err)
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestResetPassword(t *testing.T) {
	f, users, _ := newUsersFixture()
	ctx := context.Background()

	_, err := users.Signup(ctx, signupRequest())
	require.NoError(t, err)

	err = users.ResetPassword(ctx, &schemas.ResetPasswordRequest{
		Username:    "alice",
		Email:       "alice@example.com",
		PhoneNumber: "555-0100",
		Password:    "another-horse",
	})
	require.NoError(t, err)

	user := f.store.users[1]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("another-horse")))

	err = users.ResetPassword(ctx, &schemas.ResetPasswordRequest{
		Username:    "alice",
		Email:       "wrong@example.com",
		PhoneNumber: "555-0100",
		Password:    "whatever-pass",
	})
	require.Error(t, err)
}

func TestUpdateUserData(t *testing.T) {
	f, users, _ := newUsersFixture()
	ctx := context.Background()

	_, err := users.Signup(ctx, signupRequest())
	require.NoError(t, err)

	resp, err := users.UpdateUserData(ctx, 1, &schemas.UpdateUserRequest{Country: "France"})
	require.NoError(t, err)
	assert.Equal(t, "France", resp.Country)
	assert.Equal(t, "France", f.store.users[1].Country)

	_, err = users.UpdateUserData(ctx, 1, &schemas.UpdateUserRequest{
		Password:        "new-password",
		ConfirmPassword: "different",
	})
	require.Error(t, err)
	var httpErr *utils.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "Passwords do not match", httpErr.Message)
}

func TestRefreshIssuesNewTokenPair(t *testing.T) {
	_, users, tokenAuth := newUsersFixture()
	ctx := context.Background()

	tokens, err := users.Signup(ctx, signupRequest())
	require.NoError(t, err)

	refreshed, err := users.Refresh(ctx, &schemas.RefreshRequest{Refresh: tokens.Refresh})
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.Access)
	require.NotEmpty(t, refreshed.Refresh)

	token, err := jwtauth.VerifyToken(tokenAuth, refreshed.Access)
	require.NoError(t, err)
	claims, err := token.AsMap(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, claims["user_id"])
	assert.Equal(t, "access", claims["token_type"])
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	_, users, _ := newUsersFixture()
	ctx := context.Background()

	tokens, err := users.Signup(ctx, signupRequest())
	require.NoError(t, err)

	_, err = users.Refresh(ctx, &schemas.RefreshRequest{Refresh: tokens.Access})
	var httpErr *utils.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, "Not a refresh token", httpErr.Message)
}

func TestRefreshRejectsGarbageAndUnknownUser(t *testing.T) {
	f, users, _ := newUsersFixture()
	ctx := context.Background()

	_, err := users.Refresh(ctx, &schemas.RefreshRequest{Refresh: "not-a-token"})
	var httpErr *utils.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	tokens, err := users.Signup(ctx, signupRequest())
	require.NoError(t, err)
	delete(f.store.users, 1)

	_, err = users.Refresh(ctx, &schemas.RefreshRequest{Refresh: tokens.Refresh})
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
