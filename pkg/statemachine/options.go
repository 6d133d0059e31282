package statemachine

import "fmt"

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E])

// TransitionOption attaches guards and actions to a transition.
type TransitionOption[S, E comparable] func(*Transition[S, E])

// New creates a machine in state initial and applies opts in order.
// Transitions for the same (state, event) pair are tried in the order they
// were registered.
func New[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m := newMachine[S, E](initial)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTransition registers from --event--> to.
func WithTransition[S, E comparable](from S, event E, to S, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		t := Transition[S, E]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		m.addTransition(t)
	}
}

// WithTransitions registers several transitions at once.
func WithTransitions[S, E comparable](ts ...Transition[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		for _, t := range ts {
			m.addTransition(t)
		}
	}
}

// WithListener registers a callback invoked after every committed transition.
func WithListener[S, E comparable](l Listener[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		if l != nil {
			m.listeners = append(m.listeners, l)
		}
	}
}

// WithGuard adds a guard to the transition. All guards must pass for the
// transition to be taken. Nil guards are ignored.
func WithGuard[S, E comparable](g Guard[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if g != nil {
			t.Guards = append(t.Guards, g)
		}
	}
}

// WithAction adds an action run when the transition is taken.
func WithAction[S, E comparable](a Action[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if a != nil {
			t.Actions = append(t.Actions, a)
		}
	}
}

// String renders a transition as "from --event--> to".
func (t Transition[S, E]) String() string {
	return fmt.Sprintf("%v --%v--> %v", t.From, t.Event, t.To)
}
