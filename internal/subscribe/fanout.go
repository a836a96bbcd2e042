package subscribe

import (
	"time"

	"github.com/rs/zerolog"
)

// EventFanout demultiplexes one subscribe response into typed listener
// notifications, de-duplicating along the way and reporting
// RequestMessageCountExceeded when a response's raw event count reaches
// the configured threshold (spec §4.6).
type EventFanout struct {
	dedup      *DedupCache
	sink       ListenerSink
	stateStore ClientStateStore
	uuid       string
	threshold  int
	logger     zerolog.Logger
}

// NewEventFanout wires a fan-out against its collaborators. stateStore
// may be nil if the engine wasn't given one.
func NewEventFanout(dedup *DedupCache, sink ListenerSink, stateStore ClientStateStore, uuid string, threshold int, logger zerolog.Logger) *EventFanout {
	return &EventFanout{
		dedup:      dedup,
		sink:       sink,
		stateStore: stateStore,
		uuid:       uuid,
		threshold:  threshold,
		logger:     logger.With().Str("component", "fanout").Logger(),
	}
}

// Dispatch processes one response's events in order. When overrideActive
// is set (an initial registration whose cursor override just superseded
// the cache's contents for that range), the cache is purged of anything
// at or beyond overrideToken before dedup runs. scheduleNext, if
// non-nil, is invoked immediately after dedup and before any listener
// notification, so message-handler latency never serializes against the
// loop cadence (spec §4.6 point 3).
func (f *EventFanout) Dispatch(events []WireEvent, overrideActive bool, overrideToken uint64, scheduleNext func()) (delivered, duplicates int) {
	if overrideActive {
		f.dedup.PurgeNewerThan(overrideToken)
	}

	original := len(events)
	kept := make([]WireEvent, 0, len(events))
	for _, e := range events {
		if f.isDedupable(e) {
			if novel := f.dedup.TryInsert(e.Timetoken, e.Channel, e.Payload); !novel {
				duplicates++
				continue
			}
		}
		kept = append(kept, e)
	}

	if scheduleNext != nil {
		scheduleNext()
	}

	if f.threshold > 0 && original >= f.threshold {
		f.sink.NotifyStatus(Status{Operation: OpSubscribe, Category: CategoryRequestMessageCountExceeded})
	}

	for _, e := range kept {
		f.deliverOne(e)
	}
	return len(kept), duplicates
}

func (f *EventFanout) isDedupable(e WireEvent) bool {
	return e.Envelope.MessageType == MessageTypeRegular && e.PresenceEvent == "" && !e.DecryptError
}

func (f *EventFanout) deliverOne(e WireEvent) {
	start := time.Now()
	defer func() {
		if d := time.Since(start); d > time.Second {
			f.logger.Warn().Str("channel", e.Channel).Dur("duration", d).Msg("listener delivery slow")
		}
	}()

	if e.DecryptError {
		f.sink.NotifyStatus(Status{
			Operation: OpSubscribe,
			Category:  CategoryDecryptionError,
			Channel:   e.Channel,
			Timetoken: e.Timetoken,
			Publisher: e.Publisher,
		})
		return
	}

	if e.PresenceEvent != "" {
		f.sink.NotifyPresence(toEvent(EventPresence, e))
		if e.PresenceEvent == "state-change" && e.PresenceUUID != "" && e.PresenceUUID == f.uuid && f.stateStore != nil {
			f.stateStore.Set(e.Payload, []string{e.Channel})
		}
		return
	}

	switch e.Envelope.MessageType {
	case MessageTypeRegular:
		f.sink.NotifyMessage(toEvent(EventMessage, e))
	case MessageTypeSignal:
		f.sink.NotifySignal(toEvent(EventSignal, e))
	case MessageTypeMessageAction:
		f.sink.NotifyMessageAction(toEvent(EventMessageAction, e))
	case MessageTypeObject:
		f.sink.NotifyObject(toEvent(EventObject, e))
	case MessageTypeFile:
		f.sink.NotifyFile(toEvent(EventFile, e))
	}
}
