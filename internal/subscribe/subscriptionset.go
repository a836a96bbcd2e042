package subscribe

import (
	"sort"
	"strings"
)

// SubscriptionSet holds the three disjoint name sets the loop scheduler
// subscribes to: data channels, presence channels, and channel groups.
//
// Presence channel names are stored bare (the "-pnpres" suffix stripped):
// spec.md §3 notes "the same underlying channel name may appear in both
// 'data' and 'presence' sets; this is intentional", and storing the bare
// name in both sets is what makes AddChannels' suffix-routing and
// RemoveChannels' "removes from both sets" symmetric without special
// casing. WireChannels reattaches the suffix when building the request.
type SubscriptionSet struct {
	data     map[string]struct{}
	presence map[string]struct{}
	groups   map[string]struct{}
}

// NewSubscriptionSet returns an empty set.
func NewSubscriptionSet() *SubscriptionSet {
	return &SubscriptionSet{
		data:     make(map[string]struct{}),
		presence: make(map[string]struct{}),
		groups:   make(map[string]struct{}),
	}
}

// AddChannels adds data channel names, routing any name with the
// "-pnpres" suffix to the presence set instead.
func (s *SubscriptionSet) AddChannels(names []string) {
	for _, n := range names {
		if n == "" {
			continue
		}
		if strings.HasSuffix(n, presenceSuffix) {
			s.presence[strings.TrimSuffix(n, presenceSuffix)] = struct{}{}
			continue
		}
		s.data[n] = struct{}{}
	}
}

// RemoveChannels removes names from both the data and presence sets,
// accepting either the bare or the "-pnpres"-suffixed form.
func (s *SubscriptionSet) RemoveChannels(names []string) {
	for _, n := range names {
		bare := strings.TrimSuffix(n, presenceSuffix)
		delete(s.data, n)
		delete(s.data, bare)
		delete(s.presence, n)
		delete(s.presence, bare)
	}
}

// AddPresence adds presence-only channel names (bare form stored).
func (s *SubscriptionSet) AddPresence(names []string) {
	for _, n := range names {
		if n == "" {
			continue
		}
		s.presence[strings.TrimSuffix(n, presenceSuffix)] = struct{}{}
	}
}

// RemovePresence removes names from the presence set only.
func (s *SubscriptionSet) RemovePresence(names []string) {
	for _, n := range names {
		delete(s.presence, strings.TrimSuffix(n, presenceSuffix))
	}
}

// AddGroups adds channel-group names.
func (s *SubscriptionSet) AddGroups(names []string) {
	for _, n := range names {
		if n == "" {
			continue
		}
		s.groups[n] = struct{}{}
	}
}

// RemoveGroups removes channel-group names.
func (s *SubscriptionSet) RemoveGroups(names []string) {
	for _, n := range names {
		delete(s.groups, n)
	}
}

// Empty reports whether the set has no data channels, presence channels,
// or groups at all.
func (s *SubscriptionSet) Empty() bool {
	return len(s.data) == 0 && len(s.presence) == 0 && len(s.groups) == 0
}

// Objects returns every distinct channel/group identity currently
// subscribed, bare form, for use as a client-state-store merge scope.
func (s *SubscriptionSet) Objects() []string {
	out := make([]string, 0, len(s.data)+len(s.presence)+len(s.groups))
	seen := make(map[string]struct{}, len(out))
	for n := range s.data {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for n := range s.presence {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for n := range s.groups {
		out = append(out, n)
	}
	return out
}

// DataChannels returns the data channel names.
func (s *SubscriptionSet) DataChannels() []string { return keys(s.data) }

// Groups returns the channel-group names.
func (s *SubscriptionSet) Groups() []string { return keys(s.groups) }

// WireChannels returns the comma-joined list of channel names to place on
// the wire: every data channel plus every presence channel with its
// "-pnpres" suffix reattached. Returns "," (the broker's "no channels, use
// groups only" placeholder) when there are none.
func (s *SubscriptionSet) WireChannels() string {
	names := make([]string, 0, len(s.data)+len(s.presence))
	for n := range s.data {
		names = append(names, n)
	}
	for n := range s.presence {
		names = append(names, n+presenceSuffix)
	}
	if len(names) == 0 {
		return ","
	}
	return strings.Join(names, ",")
}

// snapshot is a cheap comparable summary used to detect whether the set
// changed while a leave request was in flight (spec §4.2 step 6).
type snapshot struct {
	data, presence, groups int
	sig                    string
}

// Snapshot captures the set's current membership for later comparison.
func (s *SubscriptionSet) Snapshot() snapshot {
	all := append(append(keys(s.data), keys(s.presence)...), keys(s.groups)...)
	sort.Strings(all)
	return snapshot{
		data:     len(s.data),
		presence: len(s.presence),
		groups:   len(s.groups),
		sig:      strings.Join(all, "\x00"),
	}
}

// Equal reports whether two snapshots describe the same membership.
func (sn snapshot) Equal(other snapshot) bool {
	return sn.data == other.data && sn.presence == other.presence && sn.groups == other.groups && sn.sig == other.sig
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
