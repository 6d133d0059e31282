package logger

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Group creates a group attribute.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". Nil errors produce an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// AccountID records the acting account.
func AccountID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("account_id", id.String())
}

// Role records an account role.
func Role(role fmt.Stringer) slog.Attr {
	if role == nil {
		return slog.Attr{}
	}
	return slog.String("role", role.String())
}

func PlanID(id string) slog.Attr {
	return slog.String("plan_id", id)
}

func AttemptID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("attempt_id", id.String())
}

func TransactionID(id string) slog.Attr {
	return slog.String("transaction_id", id)
}

// State records a state machine state.
func State(s fmt.Stringer) slog.Attr {
	return slog.String("state", s.String())
}

func Outcome(o string) slog.Attr {
	return slog.String("outcome", o)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}
