package subscribe

import (
	"sync"

	"github.com/rs/zerolog"

	"subscribecore/internal/config"
)

// Engine is the top-level subscribe engine: it owns the cursor,
// subscription set, de-dup cache, retry timer, and state machine behind
// a single lock, and exposes the public add/remove/subscribe/unsubscribe
// surface a client wraps.
//
// All mutable state is guarded by Engine.mu — one reader-writer region
// per engine instance, per spec §5. Transport/listener calls are never
// made while the lock is held.
type Engine struct {
	mu sync.RWMutex

	cfg *config.Config

	cursor *Cursor
	set    *SubscriptionSet
	dedup  *DedupCache
	sm     *StateMachine
	retry  *RetryTimer
	fanout *EventFanout

	transport  Transport
	heartbeat  HeartbeatManager
	stateStore ClientStateStore
	sink       ListenerSink
	owner      Owner

	restoringAfterNetworkIssues bool
	inFlightCancel              func()
	closed                      bool

	logger zerolog.Logger

	subscribeCalls   uint64
	unsubscribeCalls uint64
	deliveredEvents  uint64
	suppressedDups   uint64
}

// Collaborators bundles the external dependencies the engine is built
// against (spec §6). Transport and ListenerSink are required; the rest
// may be left nil and are then treated as no-ops.
type Collaborators struct {
	Transport  Transport
	Heartbeat  HeartbeatManager
	StateStore ClientStateStore
	Sink       ListenerSink
}

// noHeartbeat stands in for a nil Collaborators.Heartbeat.
type noHeartbeat struct{}

func (noHeartbeat) StartIfRequired() {}
func (noHeartbeat) StopIfPossible()  {}

// New wires an Engine from a configuration and its collaborators. logger
// is the parent logger; a "subscribe" component child is derived from it
// the way the teacher derives every subsystem's logger.
func New(cfg *config.Config, collab Collaborators, logger zerolog.Logger) *Engine {
	e := &Engine{
		cfg:        cfg,
		cursor:     NewCursor(),
		set:        NewSubscriptionSet(),
		dedup:      NewDedupCache(cfg.MaximumMessagesCacheSize),
		sm:         NewStateMachine(),
		transport:  collab.Transport,
		heartbeat:  collab.Heartbeat,
		stateStore: collab.StateStore,
		sink:       collab.Sink,
		logger:     logger.With().Str("component", "subscribe-engine").Logger(),
	}
	if e.heartbeat == nil {
		e.heartbeat = noHeartbeat{}
	}
	e.fanout = NewEventFanout(e.dedup, e.sink, e.stateStore, cfg.UUID, cfg.RequestMessageCountThreshold, e.logger)
	e.retry = NewRetryTimer(cfg.RetryInterval(), e.restore)
	return e
}

// SetOwner installs the weak back-reference to the owning client (spec
// §9). Every engine entry point that would otherwise act past the
// client's lifetime checks it first.
func (e *Engine) SetOwner(owner Owner) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.owner = owner
}

func (e *Engine) alive() bool {
	return e.owner == nil || e.owner.Alive()
}

// AddChannels adds data/presence channels to the subscription set. The
// caller must follow up with Subscribe(ctx, true, nil, nil, nil, nil) to
// actually re-issue the request with the new set (spec §4.2 "list
// mutation under an in-flight request" — mutation and re-issue are
// deliberately separate steps).
func (e *Engine) AddChannels(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set.AddChannels(names)
}

// RemoveChannels removes channels from both the data and presence sets.
func (e *Engine) RemoveChannels(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set.RemoveChannels(names)
}

// AddPresence adds presence-only channels.
func (e *Engine) AddPresence(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set.AddPresence(names)
}

// RemovePresence removes presence-only channels.
func (e *Engine) RemovePresence(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set.RemovePresence(names)
}

// AddGroups adds channel groups.
func (e *Engine) AddGroups(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set.AddGroups(names)
}

// RemoveGroups removes channel groups.
func (e *Engine) RemoveGroups(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set.RemoveGroups(names)
}

// SubscribedChannels returns the data channels currently in the set.
func (e *Engine) SubscribedChannels() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.set.DataChannels()
}

// SubscribedGroups returns the channel groups currently in the set.
func (e *Engine) SubscribedGroups() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.set.Groups()
}

// SubscribeCount, UnsubscribeCount, DeliveredEventCount, and
// DuplicateSuppressedCount are plain engine-level counters, read under
// the same lock that guards the state they describe (spec SUPPLEMENTAL
// FEATURES — mirrors subscription.Manager.GetSessionCount in the
// teacher).
func (e *Engine) SubscribeCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.subscribeCalls
}

func (e *Engine) UnsubscribeCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.unsubscribeCalls
}

func (e *Engine) DeliveredEventCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.deliveredEvents
}

func (e *Engine) DuplicateSuppressedCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.suppressedDups
}

// Close tears the engine down: stops the retry timer, cancels any
// in-flight request, and clears the de-dup cache and subscription set.
// Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	cancel := e.inFlightCancel
	e.inFlightCancel = nil
	e.retry.Stop()
	e.dedup.Clear()
	e.set = NewSubscriptionSet()
	e.cursor.Reset()
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if e.transport != nil {
		e.transport.CancelAll()
	}
}
