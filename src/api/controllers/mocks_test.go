package controllers_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tracker/src/models"
	"tracker/src/notifications"

	"github.com/jackc/pgx/v5"
)

// memStore backs the fake repositories. txMu serializes RunInTx the way the
// account row lock serializes the real engine; mu guards the maps themselves.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	accounts     map[uint]models.Account
	holdings     map[string]models.Holding
	transactions []models.Transaction
	users        map[uint]models.User

	nextTransactionID uint
	nextHoldingID     uint
	nextUserID        uint
	holdingLists      int

	failures map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[uint]models.Account),
		holdings: make(map[string]models.Holding),
		users:    make(map[uint]models.User),
		failures: make(map[string]error),
	}
}

func holdingKey(userID uint, assetName string) string {
	return fmt.Sprintf("%d|%s", userID, assetName)
}

func (s *memStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = err
}

func (s *memStore) failureFor(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[method]
}

type snapshot struct {
	accounts     map[uint]models.Account
	holdings     map[string]models.Holding
	transactions []models.Transaction
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		accounts:     make(map[uint]models.Account, len(s.accounts)),
		holdings:     make(map[string]models.Holding, len(s.holdings)),
		transactions: append([]models.Transaction(nil), s.transactions...),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.holdings {
		snap.holdings[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.holdings = snap.holdings
	s.transactions = snap.transactions
}

// fakeTxManager applies fn under the store-wide lock and rolls the maps back
// when fn fails, mirroring the commit/rollback contract.
type fakeTxManager struct {
	store *memStore
}

func (m *fakeTxManager) RunInTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type fakeAccountRepo struct {
	store *memStore
}

func (r *fakeAccountRepo) GetByUserID(_ context.Context, userID uint) (*models.Account, error) {
	if err := r.store.failureFor("Account.Get"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (r *fakeAccountRepo) GetByUserIDForUpdate(ctx context.Context, userID uint, _ pgx.Tx) (*models.Account, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *fakeAccountRepo) Create(_ context.Context, a *models.Account, _ pgx.Tx) error {
	if err := r.store.failureFor("Account.Create"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a.ID = uint(len(r.store.accounts) + 1)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.store.accounts[a.UserID] = *a
	return nil
}

func (r *fakeAccountRepo) UpdateBalance(_ context.Context, a *models.Account, _ pgx.Tx) error {
	if err := r.store.failureFor("Account.UpdateBalance"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := r.store.accounts[a.UserID]
	stored.Balance = a.Balance
	stored.UpdatedAt = time.Now()
	r.store.accounts[a.UserID] = stored
	return nil
}

type fakeHoldingRepo struct {
	store *memStore
}

func (r *fakeHoldingRepo) GetByUserAsset(_ context.Context, userID uint, assetName string, _ pgx.Tx) (*models.Holding, error) {
	if err := r.store.failureFor("Holding.Get"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.holdings[holdingKey(userID, assetName)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &h, nil
}

func (r *fakeHoldingRepo) Upsert(_ context.Context, h *models.Holding, _ pgx.Tx) error {
	if err := r.store.failureFor("Holding.Upsert"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := holdingKey(h.UserID, h.AssetName)
	if existing, ok := r.store.holdings[key]; ok {
		h.ID = existing.ID
		h.CreatedAt = existing.CreatedAt
	} else {
		r.store.nextHoldingID++
		h.ID = r.store.nextHoldingID
		h.CreatedAt = time.Now()
	}
	h.UpdatedAt = time.Now()
	r.store.holdings[key] = *h
	return nil
}

func (r *fakeHoldingRepo) Delete(_ context.Context, userID uint, assetName string, _ pgx.Tx) error {
	if err := r.store.failureFor("Holding.Delete"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.holdings, holdingKey(userID, assetName))
	return nil
}

func (r *fakeHoldingRepo) ListByUserID(_ context.Context, userID uint, offset, limit int) ([]models.Holding, error) {
	if err := r.store.failureFor("Holding.List"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.holdingLists++
	var holdings []models.Holding
	for _, h := range r.store.holdings {
		if h.UserID == userID {
			holdings = append(holdings, h)
		}
	}
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].AssetName < holdings[j].AssetName
	})
	if offset >= len(holdings) {
		return nil, nil
	}
	end := offset + limit
	if end > len(holdings) {
		end = len(holdings)
	}
	return holdings[offset:end], nil
}

type fakeTransactionRepo struct {
	store *memStore
}

func (r *fakeTransactionRepo) Create(_ context.Context, t *models.Transaction, _ pgx.Tx) error {
	if err := r.store.failureFor("Transaction.Create"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextTransactionID++
	t.ID = r.store.nextTransactionID
	t.CreatedAt = time.Now()
	r.store.transactions = append(r.store.transactions, *t)
	return nil
}

func (r *fakeTransactionRepo) ListByUserID(_ context.Context, userID uint, offset, limit int) ([]models.Transaction, error) {
	if err := r.store.failureFor("Transaction.List"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var transactions []models.Transaction
	for _, t := range r.store.transactions {
		if t.UserID == userID {
			transactions = append(transactions, t)
		}
	}
	// Newest first by id; ids follow commit order, created_at may not
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].ID > transactions[j].ID
	})
	if offset >= len(transactions) {
		return nil, nil
	}
	end := offset + limit
	if end > len(transactions) {
		end = len(transactions)
	}
	return transactions[offset:end], nil
}

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User, _ pgx.Tx) error {
	if err := r.store.failureFor("User.Create"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextUserID++
	u.ID = r.store.nextUserID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.store.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	if err := r.store.failureFor("User.GetByID"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByIdentity(_ context.Context, username, email, phoneNumber string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Username == username && u.Email == email && u.PhoneNumber == phoneNumber {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var usernameTaken, emailTaken bool
	for _, u := range r.store.users {
		if u.Username == username {
			usernameTaken = true
		}
		if u.Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uint, passwordHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u := r.store.users[id]
	u.PasswordHash = passwordHash
	r.store.users[id] = u
	return nil
}

// fakeDispatcher records dispatched events.
type fakeDispatcher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (d *fakeDispatcher) Dispatch(e notifications.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *fakeDispatcher) Events() []notifications.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notifications.Event(nil), d.events...)
}
