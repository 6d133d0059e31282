package account

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memoryRecord struct {
	account Account
	hash    []byte
}

// MemoryDirectory is an in-process Directory backed by a map.
// Safe for concurrent use.
type MemoryDirectory struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*memoryRecord
	byEmail    map[string]uuid.UUID
	bcryptCost int
}

// MemoryOption configures a MemoryDirectory.
type MemoryOption func(*MemoryDirectory)

// WithBcryptCost sets the bcrypt cost used when hashing passwords.
// Tests use bcrypt.MinCost to keep seeding fast.
func WithBcryptCost(cost int) MemoryOption {
	return func(d *MemoryDirectory) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			d.bcryptCost = cost
		}
	}
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory(opts ...MemoryOption) *MemoryDirectory {
	d := &MemoryDirectory{
		byID:       make(map[uuid.UUID]*memoryRecord),
		byEmail:    make(map[string]uuid.UUID),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Add registers a new account. Account creation is normally owned by an
// external system; Add exists for seeding and tests.
func (d *MemoryDirectory) Add(ctx context.Context, email, password, displayName string, role Role) (*Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	email = NormalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byEmail[email]; exists {
		return nil, ErrEmailAlreadyExists
	}

	rec := &memoryRecord{
		account: Account{
			ID:          uuid.New(),
			Email:       email,
			DisplayName: displayName,
			Role:        role,
			CreatedAt:   time.Now().UTC(),
		},
		hash: hash,
	}
	d.byID[rec.account.ID] = rec
	d.byEmail[email] = rec.account.ID

	acc := rec.account
	return &acc, nil
}

// Remove deletes an account. Sessions referencing it are revoked on their next refresh.
func (d *MemoryDirectory) Remove(ctx context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	delete(d.byEmail, rec.account.Email)
	delete(d.byID, id)
	return nil
}

func (d *MemoryDirectory) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	email = NormalizeEmail(email)

	d.mu.RLock()
	id, ok := d.byEmail[email]
	var rec memoryRecord
	if ok {
		rec = *d.byID[id]
	}
	d.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &rec.account, nil
}

func (d *MemoryDirectory) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	acc := rec.account
	return &acc, nil
}

func (d *MemoryDirectory) SetRole(ctx context.Context, id uuid.UUID, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	rec.account.Role = role
	return nil
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
