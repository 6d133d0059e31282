package payment

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func cardValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// CardDetails are raw card fields entered by the user.
type CardDetails struct {
	Number     string `json:"number" validate:"required,credit_card"`
	ExpMonth   int    `json:"expMonth" validate:"required,min=1,max=12"`
	ExpYear    int    `json:"expYear" validate:"required,min=2000,max=2200"`
	CVC        string `json:"cvc" validate:"required,number,min=3,max=4"`
	HolderName string `json:"holderName,omitempty" validate:"omitempty,max=200"`
	PostalCode string `json:"postalCode,omitempty" validate:"omitempty,alphanum,max=16"`
}

// Normalize strips spaces and dashes from the card number.
func (c CardDetails) Normalize() CardDetails {
	c.Number = strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, c.Number)
	c.CVC = strings.TrimSpace(c.CVC)
	c.HolderName = strings.TrimSpace(c.HolderName)
	c.PostalCode = strings.TrimSpace(c.PostalCode)
	return c
}

// Validate checks field formats, the Luhn checksum and that the card has not expired.
// Failures are joined with ErrInvalidCard.
func (c CardDetails) Validate() error {
	return c.validateAt(time.Now())
}

func (c CardDetails) validateAt(now time.Time) error {
	if err := cardValidator().Struct(c); err != nil {
		return errors.Join(ErrInvalidCard, err)
	}
	// a card is valid through the last day of its expiry month
	y, m, _ := now.Date()
	if c.ExpYear < y || (c.ExpYear == y && c.ExpMonth < int(m)) {
		return errors.Join(ErrInvalidCard, errors.New("card has expired"))
	}
	return nil
}

// Last4 returns the last four digits of the number.
func (c CardDetails) Last4() string {
	if len(c.Number) < 4 {
		return ""
	}
	return c.Number[len(c.Number)-4:]
}

// LogValue keeps the number and CVC out of logs.
func (c CardDetails) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("last4", c.Last4()),
		slog.Int("exp_month", c.ExpMonth),
		slog.Int("exp_year", c.ExpYear),
	)
}

// InvalidFields lists the struct fields that failed validation in err.
func InvalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
