package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/vipgate/pkg/logger"
)

// DefaultKey is the backend key the session blob is stored under.
const DefaultKey = "currentSession"

// Backend is a minimal key-value blob storage.
// Get must return (nil, nil) for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Sealer encrypts and authenticates records at rest. *secrets.Sealer implements it.
type Sealer interface {
	Seal(plaintext, additional []byte) ([]byte, error)
	Open(sealed, additional []byte) ([]byte, error)
}

// BlobStore persists the session as a single JSON blob in a Backend.
type BlobStore struct {
	backend Backend
	key     string
	sealer  Sealer
	logger  *slog.Logger
}

// BlobOption configures a BlobStore.
type BlobOption func(*BlobStore)

// WithKey overrides the backend key.
func WithKey(key string) BlobOption {
	return func(s *BlobStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used to report discarded records.
func WithLogger(l *slog.Logger) BlobOption {
	return func(s *BlobStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSealer seals the blob before it reaches the backend. A record that
// fails to open, including one written without a sealer, is discarded like
// any unreadable record, so an edited role never loads.
func WithSealer(sl Sealer) BlobOption {
	return func(s *BlobStore) { s.sealer = sl }
}

// NewBlobStore creates a store on top of backend.
func NewBlobStore(backend Backend, opts ...BlobOption) *BlobStore {
	s := &BlobStore{
		backend: backend,
		key:     DefaultKey,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BlobStore) Save(ctx context.Context, sess *Session) error {
	data, err := Marshal(sess)
	if err != nil {
		return err
	}
	if s.sealer != nil {
		if data, err = s.sealer.Seal(data, []byte(s.key)); err != nil {
			return err
		}
	}
	return s.backend.Set(ctx, s.key, data)
}

func (s *BlobStore) Load(ctx context.Context) (*Session, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	sess, err := s.decode(data)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable session record",
			logger.Component("session"),
			logger.Error(err),
		)
		if delErr := s.backend.Delete(ctx, s.key); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to delete unreadable session record",
				logger.Component("session"),
				logger.Error(delErr),
			)
		}
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *BlobStore) decode(data []byte) (*Session, error) {
	if s.sealer != nil {
		var err error
		if data, err = s.sealer.Open(data, []byte(s.key)); err != nil {
			return nil, err
		}
	}
	return Unmarshal(data)
}

func (s *BlobStore) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}
