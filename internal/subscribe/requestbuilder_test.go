package subscribe

import (
	"encoding/json"
	"net/url"
	"testing"
)

func TestBuildParams_BasicChannelsAndTimeToken(t *testing.T) {
	set := NewSubscriptionSet()
	set.AddChannels([]string{"room1"})
	cur := NewCursor()
	cur.Accept(100, 3, true, false, false, false)

	params := buildParams(set, cur, "", 0, nil, false, nil)

	if params.Channels != "room1" {
		t.Fatalf("Channels = %q, want room1", params.Channels)
	}
	if params.TimeToken != "100" {
		t.Fatalf("TimeToken = %q, want 100", params.TimeToken)
	}
	if params.Region != "3" {
		t.Fatalf("Region = %q, want 3", params.Region)
	}
}

func TestBuildParams_OmitsRegionWhenUnset(t *testing.T) {
	set := NewSubscriptionSet()
	set.AddChannels([]string{"room1"})
	cur := NewCursor()

	params := buildParams(set, cur, "", 0, nil, false, nil)
	if params.Region != "" {
		t.Fatalf("Region = %q, want empty when unset", params.Region)
	}
}

func TestBuildParams_HeartbeatAndFilterExpr(t *testing.T) {
	set := NewSubscriptionSet()
	set.AddChannels([]string{"room1"})
	cur := NewCursor()

	params := buildParams(set, cur, `uuid == "x"`, 30, nil, false, nil)
	if params.Heartbeat != "30" {
		t.Fatalf("Heartbeat = %q, want 30", params.Heartbeat)
	}
	if params.FilterExpr != `uuid == "x"` {
		t.Fatalf("FilterExpr = %q", params.FilterExpr)
	}
}

func TestBuildParams_StateFilteredToSubscribedObjects(t *testing.T) {
	set := NewSubscriptionSet()
	set.AddChannels([]string{"room1"})
	cur := NewCursor()

	state := json.RawMessage(`{"room1":{"mood":"happy"},"room2":{"mood":"sad"}}`)
	params := buildParams(set, cur, "", 0, state, true, nil)

	if params.State == "" {
		t.Fatal("expected a non-empty State parameter")
	}
	decoded, err := decodeQueryEscapedJSON(params.State)
	if err != nil {
		t.Fatalf("failed to decode State: %v", err)
	}
	if _, ok := decoded["room2"]; ok {
		t.Fatal("room2 should have been filtered out: not currently subscribed")
	}
	if _, ok := decoded["room1"]; !ok {
		t.Fatal("room1 should be present in the filtered state")
	}
}

func TestBuildParams_StateOmittedWhenNull(t *testing.T) {
	set := NewSubscriptionSet()
	cur := NewCursor()

	params := buildParams(set, cur, "", 0, json.RawMessage(`null`), false, nil)
	if params.State != "" {
		t.Fatalf("State = %q, want empty for null merged state", params.State)
	}
}

func decodeQueryEscapedJSON(escaped string) (map[string]json.RawMessage, error) {
	unescaped, err := url.QueryUnescape(escaped)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(unescaped), &out); err != nil {
		return nil, err
	}
	return out, nil
}
