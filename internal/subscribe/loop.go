package subscribe

import (
	"context"
	"encoding/json"
)

// Subscribe issues the next long-poll request, or a synthetic
// Disconnected status if the subscription set is empty (spec §4.2
// "Request lifecycle").
//
// initial marks this as an initial registration rather than a plain
// continuation. overrideToken, if non-nil and non-zero, is remembered as
// the Cursor's next first-response override. state, if non-nil, is
// merged by the ClientStateStore with the currently-subscribed objects
// for this request only. queryParams are merged into the built request
// last, per §4.7's "caller-supplied query parameters are merged last
// (they may add, never override builder keys)". onBegun, if non-nil, is
// invoked synchronously with a synthetic Connected status before the
// request is issued — used for the "connecting" callback on a plain
// continuation (spec §4.2 point 4).
func (e *Engine) Subscribe(ctx context.Context, initial bool, overrideToken *uint64, state json.RawMessage, queryParams map[string]string, onBegun func(Status)) {
	if !e.alive() {
		return
	}

	e.mu.Lock()
	e.retry.Stop()
	e.subscribeCalls++

	if e.set.Empty() {
		e.cursor.Reset()
		e.restoringAfterNetworkIssues = false
		cancel := e.inFlightCancel
		e.inFlightCancel = nil
		cat, observable := e.sm.Handle(targetDisconnected, "")
		e.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		e.transport.CancelAll()

		if observable {
			e.notifyStatus(Status{Operation: OpSubscribe, Category: cat})
		}
		return
	}

	if initial && !e.restoringAfterNetworkIssues {
		var ov uint64
		hasOverride := overrideToken != nil && *overrideToken != 0
		if hasOverride {
			ov = *overrideToken
		}
		e.cursor.BeginInitial(ov, hasOverride)
	}

	params := buildParams(e.set, e.cursor, e.cfg.FilterExpression, e.cfg.PresenceHeartbeatValue, e.mergedClientState(state), e.cfg.ManagePresenceListManually, queryParams)

	prevCancel := e.inFlightCancel
	e.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}

	if !initial && onBegun != nil {
		onBegun(Status{Operation: OpSubscribe, Category: CategoryConnected})
	}

	reqCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.inFlightCancel = cancel
	e.mu.Unlock()

	e.transport.Process(reqCtx, OpSubscribe, params, initial, func(status Status) {
		e.handleOutcome(status, initial)
	})
}

// mergedClientState asks the client-state store to merge state — the
// per-call state passed to Subscribe, or nil to merge whatever custom
// state has already been set via the store's Set — with the currently-
// subscribed objects. Returns nil when no store is configured.
func (e *Engine) mergedClientState(state json.RawMessage) []byte {
	if e.stateStore == nil {
		return nil
	}
	return e.stateStore.Merge(state, e.set.Objects())
}

func (e *Engine) handleOutcome(status Status, isInitial bool) {
	if status.Category == CategoryCancelled {
		e.heartbeat.StopIfPossible()
		return
	}
	if status.IsError {
		e.handleFailure(status, isInitial)
		return
	}
	e.handleSuccess(status, isInitial)
}

func (e *Engine) handleSuccess(status Status, isInitial bool) {
	e.mu.Lock()

	hadOverride, overrideToken := e.cursor.HasOverride, e.cursor.Override

	var events []WireEvent
	if status.ServiceData != nil {
		e.cursor.Accept(status.ServiceData.Timetoken, status.ServiceData.Region, isInitial,
			e.cfg.KeepTimeTokenOnListChange, e.cfg.CatchUpOnSubscriptionRestore, e.restoringAfterNetworkIssues)
		events = status.ServiceData.Events
	}
	e.restoringAfterNetworkIssues = false
	e.mu.Unlock()

	delivered, duplicates := e.fanout.Dispatch(events, hadOverride && isInitial, overrideToken, func() {
		e.Subscribe(context.Background(), false, nil, nil, nil, nil)
	})

	e.mu.Lock()
	e.deliveredEvents += uint64(delivered)
	e.suppressedDups += uint64(duplicates)
	e.mu.Unlock()

	if !e.cfg.ManagePresenceListManually {
		e.heartbeat.StartIfRequired()
	}

	if isInitial {
		e.mu.Lock()
		cat, observable := e.sm.Handle(targetConnected, "")
		e.mu.Unlock()
		if observable {
			e.notifyStatus(Status{Operation: OpSubscribe, Category: cat})
		}
	}
}

func (e *Engine) handleFailure(status Status, isInitial bool) {
	category := status.Category
	var t target
	var overrideCategory Category
	autoRetry := true

	switch category {
	case CategoryAccessDenied:
		t = targetAccessDenied
	case CategoryMalformedFilter:
		t = targetMalformedFilter
		autoRetry = false
	case CategoryRequestTooLong:
		t = targetRequestTooLong
		autoRetry = false
	case CategoryTimeout, CategoryMalformedResponse, CategoryTLSConnectionFailed:
		t = targetUnexpectedDisconnect
		overrideCategory = category
	default:
		// Generic disconnect is a network-layer error, handled by the
		// transport's own reachability logic (spec §4.5/§7) — it is marked
		// for automatic retry by moving to UnexpectedlyDisconnected, but it
		// does not arm the 1 Hz retry timer the way AccessDenied/Timeout/
		// MalformedResponse/TLSConnectionFailed do.
		t = targetUnexpectedDisconnect
		autoRetry = false
		e.mu.Lock()
		if e.cfg.CatchUpOnSubscriptionRestore {
			e.cursor.BeginInitial(0, false)
		} else {
			e.cursor.Reset()
		}
		e.restoringAfterNetworkIssues = true
		e.mu.Unlock()
		e.heartbeat.StopIfPossible()
	}

	e.mu.Lock()
	cat, observable := e.sm.Handle(t, overrideCategory)
	e.mu.Unlock()

	if observable {
		e.notifyStatus(Status{Operation: OpSubscribe, Category: cat, Err: status.Err})
	}
	if autoRetry {
		e.retry.Start()
	}
}

// Restore is the external reachability signal's entry point (spec §4.5
// "Restore path... invoked by timer or external reachability signal").
// A Transport whose own reachability monitor regains connectivity after
// a generic disconnect — the case the retry timer deliberately does not
// cover — calls this to re-drive the same restore path the timer uses.
func (e *Engine) Restore() {
	e.restore()
}

// restore is the Retry Timer's tick callback and the entry point for an
// external reachability signal. It re-issues an initial registration
// when the subscriber is gated by AccessDenied or sitting
// UnexpectedlyDisconnected with a transition that warrants a retry, and
// there is something to subscribe to (spec §4.5 "Restore path").
func (e *Engine) restore() {
	if !e.alive() {
		return
	}

	e.mu.Lock()
	if e.sm.IsAccessDenied() {
		e.retry.Stop()
	}
	empty := e.set.Empty()
	shouldRestore := !empty && (e.sm.IsAccessDenied() || (e.sm.IsUnexpectedlyDisconnected() && e.sm.MayRequireRestore()))
	e.mu.Unlock()

	if shouldRestore {
		e.Subscribe(context.Background(), true, nil, nil, nil, nil)
	}
}

func (e *Engine) notifyStatus(status Status) {
	if e.sink != nil {
		e.sink.NotifyStatus(status)
	}
}
