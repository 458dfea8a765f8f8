package repositories

import (
	"context"

	"tracker/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User, tx pgx.Tx) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByIdentity matches a user on the full identity triple used by
	// password reset.
	GetByIdentity(ctx context.Context, username, email, phoneNumber string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	Update(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, country, phone_number, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Country, &u.PhoneNumber, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *models.User, tx pgx.Tx) error {
	query := `
		INSERT INTO users (username, email, password_hash, first_name, last_name, country, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	if tx != nil {
		return tx.QueryRow(ctx, query,
			u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Country, u.PhoneNumber,
		).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	}
	return r.db.QueryRow(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Country, u.PhoneNumber,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *userRepo) GetByIdentity(ctx context.Context, username, email, phoneNumber string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND email = $2 AND phone_number = $3`,
		username, email, phoneNumber))
}

func (r *userRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error) {
	var usernameTaken, emailTaken bool
	err := r.db.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1)),
			EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($2))`,
		username, email).Scan(&usernameTaken, &emailTaken)
	return usernameTaken, emailTaken, err
}

func (r *userRepo) Update(ctx context.Context, u *models.User) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET email = $2, country = $3, phone_number = $4, updated_at = NOW()
		WHERE id = $1`,
		u.ID, u.Email, u.Country, u.PhoneNumber)
	return err
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`,
		id, passwordHash)
	return err
}
