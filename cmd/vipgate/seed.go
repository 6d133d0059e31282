package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/logger"
)

type seedAccount struct {
	Email    string
	Password string
	Role     account.Role
}

// createAccountFunc matches MemoryDirectory.Add and PostgresDirectory.Create.
type createAccountFunc func(ctx context.Context, email, password, displayName string, role account.Role) (*account.Account, error)

func parseSeeds(entries []string) ([]seedAccount, error) {
	seeds := make([]seedAccount, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		// the password may itself contain ':', so the role is taken from the end
		first := strings.Index(e, ":")
		last := strings.LastIndex(e, ":")
		if first <= 0 || last == first {
			return nil, fmt.Errorf("invalid seed account %q: want email:password:role", redactSeed(e))
		}
		role, err := account.ParseRole(e[last+1:])
		if err != nil {
			return nil, err
		}
		password := e[first+1 : last]
		if password == "" {
			return nil, fmt.Errorf("invalid seed account %q: empty password", redactSeed(e))
		}
		seeds = append(seeds, seedAccount{Email: e[:first], Password: password, Role: role})
	}
	return seeds, nil
}

func redactSeed(e string) string {
	if i := strings.Index(e, ":"); i >= 0 {
		return e[:i] + ":***"
	}
	return e
}

func seed(ctx context.Context, create createAccountFunc, seeds []seedAccount, log *slog.Logger) error {
	for _, s := range seeds {
		acc, err := create(ctx, s.Email, s.Password, s.Email, s.Role)
		switch {
		case errors.Is(err, account.ErrEmailAlreadyExists):
			log.DebugContext(ctx, "seed account already exists", slog.String("email", s.Email))
		case err != nil:
			return fmt.Errorf("seed %s: %w", s.Email, err)
		default:
			log.InfoContext(ctx, "seed account created", logger.AccountID(acc.ID), logger.Role(acc.Role))
		}
	}
	return nil
}
