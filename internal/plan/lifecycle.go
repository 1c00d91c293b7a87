package plan

import (
	"github.com/qmuntal/stateless"
)

// Lifecycle states of a health plan
const (
	StateNone     = "none"
	StateActive   = "active"
	StateInactive = "inactive"
)

// Lifecycle triggers
const (
	triggerActivate   = "activate"
	triggerDeactivate = "deactivate"
)

// Lifecycle models the allowed state transitions of a plan. A plan goes
// from none to active exactly once and from active to inactive exactly
// once; there is no way back.
type Lifecycle struct {
	sm *stateless.StateMachine
}

// NewLifecycle creates a lifecycle in the given state
func NewLifecycle(initial string) *Lifecycle {
	sm := stateless.NewStateMachine(initial)

	sm.Configure(StateNone).
		Permit(triggerActivate, StateActive)

	sm.Configure(StateActive).
		Permit(triggerDeactivate, StateInactive)

	sm.Configure(StateInactive)

	return &Lifecycle{sm: sm}
}

// LifecycleOf returns the lifecycle for a stored plan
func LifecycleOf(active bool) *Lifecycle {
	if active {
		return NewLifecycle(StateActive)
	}
	return NewLifecycle(StateInactive)
}

// Activate fires the activation trigger
func (l *Lifecycle) Activate() error {
	return l.sm.Fire(triggerActivate)
}

// Deactivate fires the deactivation trigger
func (l *Lifecycle) Deactivate() error {
	return l.sm.Fire(triggerDeactivate)
}

// CanDeactivate reports whether deactivation is a legal transition
func (l *Lifecycle) CanDeactivate() bool {
	ok, _ := l.sm.CanFire(triggerDeactivate)
	return ok
}

// State returns the current lifecycle state
func (l *Lifecycle) State() string {
	return l.sm.MustState().(string)
}
