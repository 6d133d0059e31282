package upgrade

import (
	"context"

	"github.com/dmitrymomot/vipgate/pkg/statemachine"
)

// Status is the state of an upgrade attempt.
type Status string

const (
	StatusIdle                  Status = "Idle"
	StatusPlanSelected          Status = "PlanSelected"
	StatusAwaitingPaymentMethod Status = "AwaitingPaymentMethod"
	StatusSubmitting            Status = "Submitting"
	StatusSucceeded             Status = "Succeeded"
	StatusFailed                Status = "Failed"
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further charge can happen in this status.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Event triggers a status transition.
type Event string

const (
	EventSelect          Event = "select"
	EventProvideCard     Event = "provide_card"
	EventBack            Event = "back"
	EventTokenized       Event = "tokenized"
	EventSubmit          Event = "submit"
	EventPriceRejected   Event = "price_rejected"
	EventChargeSucceeded Event = "charge_succeeded"
	EventChargeFailed    Event = "charge_failed"
	EventRetry           Event = "retry"
)

func (e Event) String() string {
	return string(e)
}

type machine = statemachine.Machine[Status, Event]

// newMachine builds the attempt state machine. retryable gates the retry
// transition; listener observes committed transitions.
func newMachine(retryable func() bool, listener statemachine.Listener[Status, Event]) *machine {
	canRetry := func(context.Context, Status, Event, any) bool { return retryable() }

	return statemachine.New[Status, Event](StatusIdle,
		statemachine.WithTransition(StatusIdle, EventSelect, StatusPlanSelected),
		statemachine.WithTransition(StatusPlanSelected, EventProvideCard, StatusAwaitingPaymentMethod),
		statemachine.WithTransition(StatusAwaitingPaymentMethod, EventBack, StatusPlanSelected),
		statemachine.WithTransition(StatusAwaitingPaymentMethod, EventTokenized, StatusAwaitingPaymentMethod),
		statemachine.WithTransition(StatusAwaitingPaymentMethod, EventSubmit, StatusSubmitting),
		statemachine.WithTransition(StatusAwaitingPaymentMethod, EventPriceRejected, StatusFailed),
		statemachine.WithTransition(StatusSubmitting, EventChargeSucceeded, StatusSucceeded),
		statemachine.WithTransition(StatusSubmitting, EventChargeFailed, StatusFailed),
		statemachine.WithTransition(StatusFailed, EventRetry, StatusAwaitingPaymentMethod,
			statemachine.WithGuard[Status, Event](canRetry),
		),
		statemachine.WithListener(listener),
	)
}
