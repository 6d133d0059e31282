package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/vipgate/pkg/account"
)

// record is the persisted session layout.
type record struct {
	AccountID string       `json:"accountId"`
	Role      account.Role `json:"role"`
	IssuedAt  time.Time    `json:"issuedAt"`
}

// Marshal encodes s in the persisted layout.
func Marshal(s *Session) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(record{
		AccountID: s.AccountID.String(),
		Role:      s.Role,
		IssuedAt:  s.IssuedAt.UTC(),
	})
}

// Unmarshal decodes a persisted session. Any deviation from the layout,
// including unknown roles, yields ErrMalformedSession.
func Unmarshal(data []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Join(ErrMalformedSession, err)
	}

	id, err := uuid.Parse(rec.AccountID)
	if err != nil {
		return nil, errors.Join(ErrMalformedSession, err)
	}

	s := &Session{AccountID: id, Role: rec.Role, IssuedAt: rec.IssuedAt}
	if err := s.Validate(); err != nil {
		return nil, errors.Join(ErrMalformedSession, err)
	}
	return s, nil
}
