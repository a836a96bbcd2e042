// Package subscribe implements the client-side subscribe engine: the
// cursor, subscription set, de-dup cache, retry timer, state machine, loop
// scheduler, event fan-out, and request builder that together keep a
// long-polling conversation with a broker alive and translate its outcomes
// into a typed event stream for listeners.
//
// The pieces are split across files in this one package rather than across
// several packages because they are mutually coupled by design: a
// transport outcome feeds the state machine, which decides whether to
// reschedule the loop or retry on a timer, and the loop advances the
// cursor that in turn affects which events the de-duplicator accepts.
package subscribe

import "encoding/json"

// RegionUnset is the sentinel region value meaning "no region recorded yet".
const RegionUnset = -1

// presenceSuffix marks a channel name as designating a presence channel
// when passed to AddChannels.
const presenceSuffix = "-pnpres"

// Category is the user-visible outcome category reported to listeners.
type Category string

const (
	CategoryConnected                   Category = "Connected"
	CategoryReconnected                 Category = "Reconnected"
	CategoryDisconnected                Category = "Disconnected"
	CategoryUnexpectedDisconnect        Category = "UnexpectedDisconnect"
	CategoryAccessDenied                Category = "AccessDenied"
	CategoryMalformedFilter             Category = "MalformedFilter"
	CategoryRequestTooLong              Category = "RequestTooLong"
	CategoryCancelled                   Category = "Cancelled"
	CategoryTimeout                     Category = "Timeout"
	CategoryMalformedResponse           Category = "MalformedResponse"
	CategoryTLSConnectionFailed         Category = "TLSConnectionFailed"
	CategoryDecryptionError             Category = "DecryptionError"
	CategoryRequestMessageCountExceeded Category = "RequestMessageCountExceeded"
	CategoryAcknowledgment              Category = "Acknowledgment"
)

// Operation identifies which transport operation produced a Status.
type Operation int

const (
	OpSubscribe Operation = iota
	OpUnsubscribe
)

// MessageType tags the envelope of a wire event (spec §3 "Event").
type MessageType string

const (
	MessageTypeRegular       MessageType = "regular"
	MessageTypeSignal        MessageType = "signal"
	MessageTypeMessageAction MessageType = "messageAction"
	MessageTypeObject        MessageType = "object"
	MessageTypeFile          MessageType = "file"
)

// Envelope carries the broker metadata attached to every wire event.
type Envelope struct {
	MessageType MessageType `json:"messageType"`
}

// WireEvent is one element of a subscribe response's event list, as
// produced by the Transport (§6).
type WireEvent struct {
	Envelope     Envelope        `json:"envelope"`
	PresenceEvent string         `json:"presenceEvent,omitempty"`
	PresenceUUID  string         `json:"presenceUUID,omitempty"`
	Channel      string          `json:"channel"`
	Subscription string          `json:"subscription,omitempty"`
	Timetoken    uint64          `json:"timetoken"`
	Publisher    string          `json:"publisher,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	DecryptError bool            `json:"decryptError,omitempty"`
}

// ServiceData is the subscribe-specific payload of a successful Status
// (§6 "the subscribe serviceData must contain timetoken, region, events").
type ServiceData struct {
	Timetoken uint64
	Region    int
	Events    []WireEvent
}

// Status is what the Transport hands back to the engine for every
// subscribe/unsubscribe completion, and also what the fan-out reports for
// a synthetic per-event status such as DecryptionError. Channel, Timetoken,
// and Publisher are only populated for the latter: spec §4.6 point 6 strips
// the decryptError flag and envelope off the event before reporting it as a
// status, but the identifying fields that locate which event failed are
// kept.
type Status struct {
	Operation   Operation
	Category    Category
	IsError     bool
	ServiceData *ServiceData
	Err         error

	Channel   string
	Timetoken uint64
	Publisher string
}

// EventType is the tagged-variant discriminator for Event (spec §3/§9
// "runtime polymorphism of events").
type EventType string

const (
	EventMessage       EventType = "message"
	EventSignal        EventType = "signal"
	EventMessageAction EventType = "messageAction"
	EventObject        EventType = "object"
	EventFile          EventType = "file"
	EventPresence      EventType = "presence"
)

// Event is the listener-facing record delivered by NotifyMessage and its
// siblings.
type Event struct {
	Type          EventType
	Channel       string
	Subscription  string
	Timetoken     uint64
	Publisher     string
	Payload       json.RawMessage
	PresenceEvent string
}

func toEvent(t EventType, w WireEvent) Event {
	return Event{
		Type:          t,
		Channel:       w.Channel,
		Subscription:  w.Subscription,
		Timetoken:     w.Timetoken,
		Publisher:     w.Publisher,
		Payload:       w.Payload,
		PresenceEvent: w.PresenceEvent,
	}
}

// RequestParams is the parameter bag the Request Builder assembles for a
// single subscribe or unsubscribe call (spec §4.7/§6).
type RequestParams struct {
	Channels     string
	ChannelGroup string
	TimeToken    string
	Region       string
	Heartbeat    string
	State        string
	FilterExpr   string
	Extra        map[string]string
}
