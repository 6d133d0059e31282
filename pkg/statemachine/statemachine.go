package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Guard decides at fire time whether a transition may be taken.
// Guards see the state being left and the data passed to Fire. They run
// under the machine lock and must not call back into the machine.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action runs side effects before the state changes. An error aborts the
// transition and leaves the machine in the state it was in; actions that
// already ran are not undone.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Listener observes committed transitions. It runs after the lock is
// released, so it may read the machine, but a listener that fires further
// events races with other callers.
type Listener[S, E comparable] func(ctx context.Context, from, to S, event E)

// Transition is a state change triggered by an event.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // run in order
}

// Machine is a thread-safe finite state machine over state type S and event type E.
// Transitions are looked up by (current state, event); when several are
// registered for the same pair the first one whose guards pass wins, which
// allows branching on the data passed to Fire.
//
// The transition table is fixed once New returns. Only the current state
// changes afterwards.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	current     S
	transitions map[S]map[E][]Transition[S, E]
	listeners   []Listener[S, E]
}

func newMachine[S, E comparable](initial S) *Machine[S, E] {
	return &Machine[S, E]{
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
	}
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is in state s.
func (m *Machine[S, E]) Is(s S) bool {
	return m.Current() == s
}

func (m *Machine[S, E]) addTransition(t Transition[S, E]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
}

// Fire applies event to the current state.
// It returns *ErrNoTransitionAvailable when nothing is registered for the pair,
// *ErrTransitionRejected when every candidate is blocked by a guard, and the
// wrapped action error when an action fails. The state is unchanged on error.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()

	from := m.current
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		m.mu.Unlock()
		return &ErrNoTransitionAvailable{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}

	t := m.pick(ctx, candidates, data)
	if t == nil {
		m.mu.Unlock()
		return &ErrTransitionRejected{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}

	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event, data); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("statemachine: action %v -> %v on %v: %w", from, t.To, event, err)
		}
	}

	m.current = t.To
	listeners := m.listeners
	m.mu.Unlock()

	for _, l := range listeners {
		l(ctx, from, t.To, event)
	}
	return nil
}

// CanFire reports whether Fire(event) would find a transition whose guards pass.
// Actions are not run. The answer can be stale by the time the caller acts
// on it unless the caller serialises access to the machine itself.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pick(ctx, m.transitions[m.current][event], data) != nil
}

// Events lists the events registered for the current state, ignoring guards.
// The order is unspecified.
func (m *Machine[S, E]) Events() []E {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]E, 0, len(m.transitions[m.current]))
	for e := range m.transitions[m.current] {
		events = append(events, e)
	}
	return events
}

func (m *Machine[S, E]) pick(ctx context.Context, candidates []Transition[S, E], data any) *Transition[S, E] {
	for i := range candidates {
		t := &candidates[i]
		passed := true
		for _, g := range t.Guards {
			if !g(ctx, m.current, t.Event, data) {
				passed = false
				break
			}
		}
		if passed {
			return t
		}
	}
	return nil
}
