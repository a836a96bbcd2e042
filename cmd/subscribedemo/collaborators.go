package main

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"subscribecore/internal/subscribe"
)

// consoleSink logs every notification instead of handing it to
// application code; good enough for a demo binary.
type consoleSink struct {
	logger zerolog.Logger
}

func newConsoleSink(logger zerolog.Logger) *consoleSink {
	return &consoleSink{logger: logger.With().Str("component", "listener").Logger()}
}

func (s *consoleSink) NotifyStatus(st subscribe.Status) {
	s.logger.Info().Str("category", string(st.Category)).Msg("status")
}

func (s *consoleSink) NotifyMessage(e subscribe.Event) {
	s.logger.Info().Str("channel", e.Channel).Uint64("timetoken", e.Timetoken).Msg("message")
}

func (s *consoleSink) NotifySignal(e subscribe.Event) {
	s.logger.Info().Str("channel", e.Channel).Msg("signal")
}

func (s *consoleSink) NotifyMessageAction(e subscribe.Event) {
	s.logger.Info().Str("channel", e.Channel).Msg("message action")
}

func (s *consoleSink) NotifyObject(e subscribe.Event) {
	s.logger.Info().Str("channel", e.Channel).Msg("object event")
}

func (s *consoleSink) NotifyFile(e subscribe.Event) {
	s.logger.Info().Str("channel", e.Channel).Msg("file event")
}

func (s *consoleSink) NotifyPresence(e subscribe.Event) {
	s.logger.Info().Str("channel", e.Channel).Str("event", e.PresenceEvent).Msg("presence")
}

// noopHeartbeat is used when the demo doesn't run its own presence
// announcement scheduler.
type noopHeartbeat struct{}

func (noopHeartbeat) StartIfRequired() {}
func (noopHeartbeat) StopIfPossible()  {}

// memoryStateStore is a minimal ClientStateStore: a single JSON object
// merged in, filtered by object on demand.
type memoryStateStore struct {
	mu    sync.Mutex
	state map[string]json.RawMessage
}

func newMemoryStateStore() *memoryStateStore {
	return &memoryStateStore{state: make(map[string]json.RawMessage)}
}

func (m *memoryStateStore) Merge(_ json.RawMessage, forObjects []string) json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.state) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(forObjects))
	for _, o := range forObjects {
		if v, ok := m.state[o]; ok {
			out[o] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	return data
}

func (m *memoryStateStore) Set(state json.RawMessage, forObjects []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range forObjects {
		m.state[o] = state
	}
}

func (m *memoryStateStore) Remove(objects []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range objects {
		delete(m.state, o)
	}
}
