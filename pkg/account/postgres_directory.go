package account

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/vipgate/pkg/pg"
)

// Migrations holds the goose migrations for the accounts table.
// Apply them with pg.Migrate(ctx, pool, cfg, account.Migrations, log).
//
//go:embed migrations/*.sql
var Migrations embed.FS

// querier is the subset of *pgxpool.Pool used by PostgresDirectory.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresDirectory is a Directory backed by the accounts table.
type PostgresDirectory struct {
	db querier
}

// NewPostgresDirectory creates a directory on top of a pgx pool or connection.
func NewPostgresDirectory(db querier) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const selectAccount = `SELECT id, email, display_name, role, created_at, password_hash FROM accounts`

func (d *PostgresDirectory) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	acc, hash, err := d.scan(d.db.QueryRow(ctx, selectAccount+` WHERE email = $1`, NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return acc, nil
}

func (d *PostgresDirectory) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	acc, _, err := d.scan(d.db.QueryRow(ctx, selectAccount+` WHERE id = $1`, id))
	return acc, err
}

func (d *PostgresDirectory) SetRole(ctx context.Context, id uuid.UUID, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	tag, err := d.db.Exec(ctx, `UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1`, id, string(role))
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Create inserts a new account with a bcrypt password hash.
func (d *PostgresDirectory) Create(ctx context.Context, email, password, displayName string, role Role) (*Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc, _, err := d.scan(d.db.QueryRow(ctx,
		`INSERT INTO accounts (id, email, display_name, role, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, email, display_name, role, created_at, password_hash`,
		uuid.New(), NormalizeEmail(email), displayName, string(role), hash,
	))
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return acc, nil
}

func (d *PostgresDirectory) scan(row pgx.Row) (*Account, []byte, error) {
	var (
		acc  Account
		role string
		hash []byte
	)
	if err := row.Scan(&acc.ID, &acc.Email, &acc.DisplayName, &role, &acc.CreatedAt, &hash); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, errors.Join(ErrUnavailable, err)
	}
	r, err := ParseRole(role)
	if err != nil {
		return nil, nil, err
	}
	acc.Role = r
	return &acc, hash, nil
}
