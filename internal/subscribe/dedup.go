package subscribe

import (
	"bytes"
	"encoding/json"
)

// dedupKey identifies one stream position: the (timetoken, channel) pair
// a duplicate payload would arrive on (spec §3/§4.4).
type dedupKey struct {
	timetoken uint64
	channel   string
}

// DedupCache suppresses duplicate payloads re-delivered under the same
// (timetoken, channel) identifier, most commonly from server-side
// retransmission after a reconnect. It tracks, per identifier, the
// ordered list of distinct payloads already seen, and a parallel
// insertion-ordered sequence of identifiers (one entry per accepted
// payload, not per unique identifier) that drives oldest-first eviction
// once the configured capacity is exceeded.
//
// Capacity 0 disables the cache: TryInsert always reports novel and never
// mutates any state, matching spec §4.4's "bypassed entirely".
type DedupCache struct {
	capacity int
	entries  map[dedupKey][]json.RawMessage
	order    []dedupKey
}

// NewDedupCache returns a cache with the given capacity K.
func NewDedupCache(capacity int) *DedupCache {
	if capacity < 0 {
		capacity = 0
	}
	return &DedupCache{
		capacity: capacity,
		entries:  make(map[dedupKey][]json.RawMessage),
	}
}

// TryInsert records a payload under (timetoken, channel) and reports
// whether it was novel. A payload already present under that identifier
// (byte-for-byte equal) is reported as a duplicate and not re-recorded.
func (d *DedupCache) TryInsert(timetoken uint64, channel string, payload json.RawMessage) bool {
	if d.capacity == 0 {
		return true
	}

	key := dedupKey{timetoken, channel}
	for _, p := range d.entries[key] {
		if bytes.Equal(p, payload) {
			return false
		}
	}

	d.entries[key] = append(d.entries[key], payload)
	d.order = append(d.order, key)
	d.evict()
	return true
}

func (d *DedupCache) evict() {
	for len(d.order) > d.capacity {
		oldest := d.order[0]
		d.order = d.order[1:]
		list := d.entries[oldest]
		if len(list) > 0 {
			list = list[1:]
		}
		if len(list) == 0 {
			delete(d.entries, oldest)
		} else {
			d.entries[oldest] = list
		}
	}
}

// PurgeNewerThan drops every tracked identifier whose timetoken is
// greater than or equal to t. Used when an initial registration's
// override cursor supersedes everything the cache already holds for the
// range it is about to re-request (spec §4.4/§4.2, scenario S5).
func (d *DedupCache) PurgeNewerThan(t uint64) {
	if d.capacity == 0 || len(d.order) == 0 {
		return
	}
	kept := d.order[:0:0]
	for _, k := range d.order {
		if k.timetoken >= t {
			delete(d.entries, k)
			continue
		}
		kept = append(kept, k)
	}
	d.order = kept
}

// Clear empties the cache entirely.
func (d *DedupCache) Clear() {
	d.entries = make(map[dedupKey][]json.RawMessage)
	d.order = nil
}

// Len reports the number of tracked (identifier, payload) entries, i.e.
// the length of the eviction sequence.
func (d *DedupCache) Len() int { return len(d.order) }
