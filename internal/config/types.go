package config

import "time"

// Config holds the subscribe engine's tunables, loaded from a JSON file.
type Config struct {
	// UUID identifies this client to the broker; self-targeted presence
	// state-change events are matched against this value.
	UUID string `json:"uuid"`

	LogLevel string `json:"logLevel"`

	// KeepTimeTokenOnListChange reuses the last accepted timetoken as the
	// next initial-registration cursor instead of registering from "now"
	// when the subscription list changes.
	KeepTimeTokenOnListChange bool `json:"keepTimeTokenOnListChange"`

	// CatchUpOnSubscriptionRestore reuses the last accepted timetoken when
	// restoring after a network-layer disconnect.
	CatchUpOnSubscriptionRestore bool `json:"catchUpOnSubscriptionRestore"`

	// SuppressLeaveEvents skips the leave request entirely on unsubscribe.
	SuppressLeaveEvents bool `json:"suppressLeaveEvents"`

	// ManagePresenceListManually filters merged client state down to keys
	// belonging to the currently subscribed objects before it is sent.
	ManagePresenceListManually bool `json:"managePresenceListManually"`

	// MaximumMessagesCacheSize is K, the de-dup cache capacity. 0 disables
	// the cache entirely.
	MaximumMessagesCacheSize int `json:"maximumMessagesCacheSize"`

	// RequestMessageCountThreshold is M; 0 disables the
	// RequestMessageCountExceeded status.
	RequestMessageCountThreshold int `json:"requestMessageCountThreshold"`

	// PresenceHeartbeatValue is the heartbeat interval in seconds sent with
	// every subscribe request; 0 omits the heartbeat parameter.
	PresenceHeartbeatValue int `json:"presenceHeartbeatValue"`

	// FilterExpression is pre-escaped and passed through to the request
	// builder unchanged.
	FilterExpression string `json:"filterExpression"`

	// RetryIntervalMillis overrides the 1 Hz retry timer tick, mostly for
	// tests; 0 means the spec default of 1000ms.
	RetryIntervalMillis int `json:"retryIntervalMillis"`
}

// Default values.
const (
	DefaultLogLevel                     = "info"
	DefaultMaximumMessagesCacheSize      = 100
	DefaultRequestMessageCountThreshold  = 0
	DefaultRetryIntervalMillis           = 1000
	DefaultKeepTimeTokenOnListChange     = false
	DefaultCatchUpOnSubscriptionRestore  = false
)

// RetryInterval returns the retry timer tick as a time.Duration.
func (c *Config) RetryInterval() time.Duration {
	if c.RetryIntervalMillis <= 0 {
		return DefaultRetryIntervalMillis * time.Millisecond
	}
	return time.Duration(c.RetryIntervalMillis) * time.Millisecond
}
