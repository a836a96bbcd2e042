package subscribe

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// buildParams assembles the parameter bag for the next subscribe request
// from the current cursor, subscription set, and configuration (spec
// §4.7). mergedState is the client-state payload already merged by the
// ClientStateStore; it is filtered down to currently-subscribed objects
// when managePresenceManually is set, then URL-escaped. Any failure to
// produce a usable State value is silently dropped from the bag rather
// than surfaced as an error (spec §7).
func buildParams(set *SubscriptionSet, cur *Cursor, filterExpr string, heartbeatSeconds int, mergedState json.RawMessage, managePresenceManually bool, extra map[string]string) RequestParams {
	params := RequestParams{
		Channels:  set.WireChannels(),
		TimeToken: strconv.FormatUint(cur.Current, 10),
	}

	if cur.CurrentRegion > RegionUnset {
		params.Region = strconv.Itoa(cur.CurrentRegion)
	}

	if groups := set.Groups(); len(groups) > 0 {
		params.ChannelGroup = strings.Join(groups, ",")
	}

	if heartbeatSeconds > 0 {
		params.Heartbeat = strconv.Itoa(heartbeatSeconds)
	}

	if state := buildStateParam(set, mergedState, managePresenceManually); state != "" {
		params.State = state
	}

	if filterExpr != "" {
		params.FilterExpr = filterExpr
	}

	if len(extra) > 0 {
		params.Extra = make(map[string]string, len(extra))
		for k, v := range extra {
			params.Extra[k] = v
		}
	}

	return params
}

func buildStateParam(set *SubscriptionSet, state json.RawMessage, managePresenceManually bool) string {
	if len(state) == 0 || string(state) == "null" {
		return ""
	}

	if managePresenceManually {
		state = filterStateToSubscribed(state, set.Objects())
		if state == nil {
			return ""
		}
	}

	return url.QueryEscape(string(state))
}

// filterStateToSubscribed drops every top-level key of state that isn't
// one of objects. Returns nil on any decode failure so the caller drops
// the field entirely rather than sending a half-built value.
func filterStateToSubscribed(state json.RawMessage, objects []string) json.RawMessage {
	var full map[string]json.RawMessage
	if err := json.Unmarshal(state, &full); err != nil {
		return nil
	}

	allowed := make(map[string]struct{}, len(objects))
	for _, o := range objects {
		allowed[o] = struct{}{}
	}

	filtered := make(map[string]json.RawMessage, len(full))
	for k, v := range full {
		if _, ok := allowed[k]; ok {
			filtered[k] = v
		}
	}

	out, err := json.Marshal(filtered)
	if err != nil {
		return nil
	}
	return out
}
