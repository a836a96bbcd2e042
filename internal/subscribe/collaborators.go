package subscribe

import (
	"context"
	"encoding/json"
)

// Transport issues the actual subscribe/unsubscribe long-poll requests.
// Process must call callback exactly once, either synchronously or from
// another goroutine; the engine never blocks on it.  When ctx is
// cancelled before the transport has produced an outcome, Process must
// still invoke callback, reporting CategoryCancelled.
//
// CancelAll aborts whatever request is currently in flight without
// issuing a replacement; used for unsubscribe-from-all and teardown.
type Transport interface {
	Process(ctx context.Context, op Operation, params RequestParams, isInitial bool, callback func(Status))
	CancelAll()
}

// HeartbeatManager is consulted, never driven in detail, by the engine:
// StartIfRequired is called on every successful subscribe reply (unless
// presence is managed manually), StopIfPossible on Cancelled and on
// generic disconnect. Both must be safe no-ops when heartbeat isn't
// configured at all.
type HeartbeatManager interface {
	StartIfRequired()
	StopIfPossible()
}

// ClientStateStore merges/filters the custom presence state the engine
// attaches to subscribe requests. Set is called when a self-targeted
// presence state-change event arrives; Remove clears custom state for
// objects that have just been unsubscribed from.
type ClientStateStore interface {
	Merge(state json.RawMessage, forObjects []string) json.RawMessage
	Set(state json.RawMessage, forObjects []string)
	Remove(objects []string)
}

// ListenerSink is the typed fan-out target. Every method must be safe to
// call from the goroutine the Transport's callback runs on, and must not
// itself call back into the engine (spec §5's "no blocking/listener calls
// held under the guard" is actually about the inverse: the engine never
// calls these while holding its lock).
type ListenerSink interface {
	NotifyStatus(Status)
	NotifyMessage(Event)
	NotifySignal(Event)
	NotifyMessageAction(Event)
	NotifyObject(Event)
	NotifyFile(Event)
	NotifyPresence(Event)
}

// Owner is the weak, non-owning back-reference to the client that created
// this engine (spec §9). Every access the engine makes through it checks
// Alive first and is a no-op once the client has torn down, so the engine
// never keeps the client alive past its own lifetime.
type Owner interface {
	Alive() bool
}
