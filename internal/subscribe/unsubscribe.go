package subscribe

import (
	"context"
	"strings"
)

// Unsubscribe removes channels and groups from the subscription set,
// clears any custom client state held for them, and — unless suppressed
// by configuration — sends a best-effort leave request so the broker's
// presence feed reflects the departure promptly (spec §4.2 "Unsubscribe").
//
// queryParams are merged into the leave request last, the same
// merge-last rule §4.7 applies to subscribe requests. informListener
// controls whether a successful leave is reported to the listener as
// Disconnected; subscribeOnRest controls whether the engine re-enters
// the loop afterward if the set is still non-empty and unchanged by the
// time the leave completes. cb, if non-nil, receives the raw leave
// outcome.
func (e *Engine) Unsubscribe(channels, groups []string, queryParams map[string]string, informListener, subscribeOnRest bool, cb func(Status)) {
	if !e.alive() {
		return
	}

	e.mu.Lock()
	e.unsubscribeCalls++

	objects := make([]string, 0, len(channels)+len(groups))
	objects = append(objects, channels...)
	objects = append(objects, groups...)
	if e.stateStore != nil {
		e.stateStore.Remove(objects)
	}

	e.set.RemoveChannels(channels)
	e.set.RemoveGroups(groups)

	if e.set.Empty() {
		e.cursor.Reset()
	}

	leaveTargets := stripPresenceSuffixed(channels)
	groupParam := strings.Join(groups, ",")
	before := e.set.Snapshot()
	suppressed := e.cfg.SuppressLeaveEvents
	e.mu.Unlock()

	if len(leaveTargets) == 0 || suppressed {
		e.afterNoLeave()
		return
	}

	params := RequestParams{Channels: strings.Join(leaveTargets, ","), ChannelGroup: groupParam}
	if len(queryParams) > 0 {
		params.Extra = make(map[string]string, len(queryParams))
		for k, v := range queryParams {
			params.Extra[k] = v
		}
	}
	e.transport.Process(context.Background(), OpUnsubscribe, params, false, func(status Status) {
		e.handleLeaveOutcome(status, informListener, subscribeOnRest, before, cb)
	})
}

// UnsubscribeFromAll removes every channel, presence channel, and group
// currently subscribed and issues a single leave request for them,
// mirroring ClientSession.Close / Manager.CloseAll in the teacher.
func (e *Engine) UnsubscribeFromAll(informListener bool, cb func(Status)) {
	e.mu.RLock()
	channels := e.set.DataChannels()
	for n := range e.set.presence {
		channels = append(channels, n+presenceSuffix)
	}
	groups := e.set.Groups()
	e.mu.RUnlock()

	e.Unsubscribe(channels, groups, nil, informListener, false, cb)
}

func (e *Engine) afterNoLeave() {
	e.mu.RLock()
	nonEmpty := !e.set.Empty()
	e.mu.RUnlock()

	if nonEmpty {
		e.Subscribe(context.Background(), true, nil, nil, nil, nil)
	}
}

func (e *Engine) handleLeaveOutcome(status Status, informListener, subscribeOnRest bool, before snapshot, cb func(Status)) {
	if status.Category == CategoryAccessDenied {
		e.mu.Lock()
		cat, observable := e.sm.Handle(targetAccessDenied, "")
		e.mu.Unlock()
		if observable {
			e.notifyStatus(Status{Operation: OpUnsubscribe, Category: cat})
		}
	} else if informListener {
		e.mu.Lock()
		cat, observable := e.sm.Handle(targetDisconnected, "")
		e.mu.Unlock()
		if observable {
			e.notifyStatus(Status{Operation: OpUnsubscribe, Category: cat})
		}
	}

	if cb != nil {
		cb(status)
	}

	e.mu.RLock()
	nonEmpty := !e.set.Empty()
	unchanged := e.set.Snapshot().Equal(before)
	e.mu.RUnlock()

	if subscribeOnRest && nonEmpty && unchanged {
		e.Subscribe(context.Background(), false, nil, nil, nil, nil)
	}
}

// stripPresenceSuffixed drops any name ending in "-pnpres": a presence
// channel cannot itself be leave-announced (spec §4.2 step 2).
func stripPresenceSuffixed(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasSuffix(n, presenceSuffix) {
			continue
		}
		out = append(out, n)
	}
	return out
}
