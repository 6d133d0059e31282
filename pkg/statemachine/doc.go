// Package statemachine implements a small, thread-safe, generic finite
// state machine.
//
// States and events are any comparable types, typically string-based enums:
//
//	type Status string
//	type Event string
//
//	m := statemachine.New[Status, Event](Idle,
//	    statemachine.WithTransition(Idle, Select, PlanSelected),
//	    statemachine.WithTransition(Failed, Retry, AwaitingCard,
//	        statemachine.WithGuard(func(ctx context.Context, from Status, e Event, data any) bool {
//	            return !fatal
//	        }),
//	    ),
//	)
//	if err := m.Fire(ctx, Select, nil); err != nil {
//	    // statemachine.IsNotPermitted(err)
//	}
//
// Guards and actions run while the machine lock is held, so they must not
// call back into the same machine. Listeners run after the lock is released.
package statemachine
