package transport

import "encoding/json"

// wireRequest is the frame sent over the WebSocket connection for every
// subscribe or unsubscribe call. RequestID correlates it to the matching
// wireResponse.
type wireRequest struct {
	RequestID    int64             `json:"requestId"`
	Op           string            `json:"op"`
	Channels     string            `json:"channels,omitempty"`
	ChannelGroup string            `json:"channelGroup,omitempty"`
	TimeToken    string            `json:"tt,omitempty"`
	Region       string            `json:"tr,omitempty"`
	Heartbeat    string            `json:"heartbeat,omitempty"`
	State        string            `json:"state,omitempty"`
	FilterExpr   string            `json:"filterExpr,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// wireResponse is the frame the broker sends back. ErrorCategory, when
// non-empty, names one of the engine's failure categories directly so
// the transport doesn't have to guess a category from an HTTP status.
type wireResponse struct {
	RequestID     int64           `json:"requestId"`
	ErrorCategory string          `json:"errorCategory,omitempty"`
	Timetoken     uint64          `json:"t,omitempty"`
	Region        int             `json:"r,omitempty"`
	Events        []wireEventJSON `json:"events,omitempty"`
}

type wireEventJSON struct {
	MessageType   string          `json:"messageType"`
	PresenceEvent string          `json:"presenceEvent,omitempty"`
	PresenceUUID  string          `json:"presenceUUID,omitempty"`
	Channel       string          `json:"channel"`
	Subscription  string          `json:"subscription,omitempty"`
	Timetoken     uint64          `json:"timetoken"`
	Publisher     string          `json:"publisher,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	DecryptError  bool            `json:"decryptError,omitempty"`
}
