package subscribe

// state is the subscriber's internal state. MalformedFilter and
// RequestTooLong are not distinct internal states — spec §4.5 stores them
// as unexpectedlyDisconnected and reports the distinctive category
// instead — so the enum only needs the five states that actually gate
// transitions.
type state int

const (
	stateInitialized state = iota
	stateConnected
	stateDisconnected
	stateUnexpectedlyDisconnected
	stateAccessDenied
)

// target names the column of the transition table a caller is asking the
// machine to move toward.
type target int

const (
	targetConnected target = iota
	targetDisconnected
	targetUnexpectedDisconnect
	targetAccessDenied
	targetMalformedFilter
	targetRequestTooLong
)

// StateMachine implements the transition table of spec §4.5: five
// internal states, six requestable targets, a category reported to
// listeners for each observable transition, and a mayRequireRestore flag
// consulted by the restore path.
//
// StateMachine is plain data guarded by the engine's single lock, like
// Cursor and SubscriptionSet.
type StateMachine struct {
	current        state
	mayRequireRestore bool
}

// NewStateMachine returns a machine in the Initialized state.
func NewStateMachine() *StateMachine {
	return &StateMachine{current: stateInitialized}
}

// Handle applies one requested transition and returns the category to
// report and whether the transition is observable (listener-notifiable).
// overrideCategory, if non-empty, replaces the category that would
// otherwise be reported for an observable transition — used for the
// transient failure categories (Timeout, MalformedResponse,
// TLSConnectionFailed) that drive the same mechanics as
// targetUnexpectedDisconnect but must surface their own name to the
// listener (spec §4.5).
func (m *StateMachine) Handle(t target, overrideCategory Category) (category Category, observable bool) {
	switch m.current {
	case stateInitialized:
		category, observable = m.fromInitialized(t)
	case stateDisconnected:
		category, observable = m.fromDisconnected(t)
	case stateConnected:
		category, observable = m.fromConnected(t)
	case stateUnexpectedlyDisconnected:
		category, observable = m.fromUnexpectedlyDisconnected(t)
	case stateAccessDenied:
		category, observable = m.fromAccessDenied(t)
	}

	if observable && overrideCategory != "" {
		category = overrideCategory
	}

	switch t {
	case targetConnected:
		m.mayRequireRestore = true
	case targetDisconnected, targetUnexpectedDisconnect:
		m.mayRequireRestore = observable
	case targetAccessDenied, targetMalformedFilter, targetRequestTooLong:
		m.mayRequireRestore = false
	}

	return category, observable
}

func (m *StateMachine) fromInitialized(t target) (Category, bool) {
	switch t {
	case targetConnected:
		m.current = stateConnected
		return CategoryConnected, true
	case targetDisconnected:
		m.current = stateDisconnected
		return CategoryDisconnected, true
	case targetUnexpectedDisconnect:
		m.current = stateUnexpectedlyDisconnected
		return CategoryUnexpectedDisconnect, true
	case targetAccessDenied:
		m.current = stateAccessDenied
		return CategoryAccessDenied, true
	case targetMalformedFilter:
		m.current = stateUnexpectedlyDisconnected
		return CategoryMalformedFilter, true
	case targetRequestTooLong:
		m.current = stateUnexpectedlyDisconnected
		return CategoryRequestTooLong, true
	}
	return "", false
}

func (m *StateMachine) fromDisconnected(t target) (Category, bool) {
	switch t {
	case targetConnected:
		m.current = stateConnected
		return CategoryConnected, true
	case targetAccessDenied:
		m.current = stateAccessDenied
		return CategoryAccessDenied, true
	case targetMalformedFilter:
		m.current = stateUnexpectedlyDisconnected
		return CategoryMalformedFilter, true
	case targetRequestTooLong:
		m.current = stateUnexpectedlyDisconnected
		return CategoryRequestTooLong, true
	}
	// targetDisconnected (already disconnected) and targetUnexpectedDisconnect
	// are both "ignore" cells: no state change, no notification.
	return "", false
}

func (m *StateMachine) fromConnected(t target) (Category, bool) {
	switch t {
	case targetConnected:
		// Same-state transition, still observable (spec §9 Open Question: a
		// redundant Connected acknowledgement is reported, not suppressed).
		return CategoryConnected, true
	case targetDisconnected:
		m.current = stateDisconnected
		return CategoryDisconnected, true
	case targetUnexpectedDisconnect:
		m.current = stateUnexpectedlyDisconnected
		return CategoryUnexpectedDisconnect, true
	case targetAccessDenied:
		m.current = stateAccessDenied
		return CategoryAccessDenied, true
	case targetMalformedFilter:
		m.current = stateUnexpectedlyDisconnected
		return CategoryMalformedFilter, true
	case targetRequestTooLong:
		m.current = stateUnexpectedlyDisconnected
		return CategoryRequestTooLong, true
	}
	return "", false
}

func (m *StateMachine) fromUnexpectedlyDisconnected(t target) (Category, bool) {
	switch t {
	case targetConnected:
		m.current = stateConnected
		return CategoryReconnected, true
	case targetDisconnected:
		m.current = stateDisconnected
		return CategoryDisconnected, true
	case targetUnexpectedDisconnect:
		// Self-loop: stays unexpectedly-disconnected, still observable (a
		// failed restore attempt is reported again).
		return CategoryUnexpectedDisconnect, true
	case targetAccessDenied:
		m.current = stateAccessDenied
		return CategoryAccessDenied, true
	case targetMalformedFilter:
		return CategoryMalformedFilter, true
	case targetRequestTooLong:
		return CategoryRequestTooLong, true
	}
	return "", false
}

func (m *StateMachine) fromAccessDenied(t target) (Category, bool) {
	switch t {
	case targetConnected:
		m.current = stateConnected
		return CategoryConnected, true
	case targetMalformedFilter:
		m.current = stateUnexpectedlyDisconnected
		return CategoryMalformedFilter, true
	case targetRequestTooLong:
		m.current = stateUnexpectedlyDisconnected
		return CategoryRequestTooLong, true
	}
	// targetDisconnected/targetUnexpectedDisconnect/targetAccessDenied from
	// AccessDenied aren't reachable in practice (the gate suppresses further
	// requests) but are defensively ignored rather than panicking.
	return "", false
}

// CurrentState exposes the internal state for the restore path's checks.
func (m *StateMachine) CurrentState() state { return m.current }

// IsAccessDenied reports whether the machine is currently gated.
func (m *StateMachine) IsAccessDenied() bool { return m.current == stateAccessDenied }

// IsUnexpectedlyDisconnected reports whether the machine is in the
// generic-failure state.
func (m *StateMachine) IsUnexpectedlyDisconnected() bool {
	return m.current == stateUnexpectedlyDisconnected
}

// MayRequireRestore reports whether the most recent transition left the
// machine in a state the restore path should try to recover from.
func (m *StateMachine) MayRequireRestore() bool { return m.mayRequireRestore }
