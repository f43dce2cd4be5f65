package transcript

import "sort"

// Report describes how complete one extraction is. It is computed fresh on
// every call and never carried over.
type Report struct {
	RunID string `json:"run_id" yaml:"run_id"`

	SkippedUnparsable   int `json:"skipped_unparsable" yaml:"skipped_unparsable"`
	EmptyFragments      int `json:"empty_fragments" yaml:"empty_fragments"`
	UnverifiedPositions int `json:"unverified_positions" yaml:"unverified_positions"`
	FallbackOrdered     int `json:"fallback_ordered" yaml:"fallback_ordered"`
	MissingFragments    int `json:"missing_fragments" yaml:"missing_fragments"`
	UnknownRoles        int `json:"unknown_roles" yaml:"unknown_roles"`
	UntimedMessages     int `json:"untimed_messages" yaml:"untimed_messages"`

	SessionsNotFound  []string        `json:"sessions_not_found,omitempty" yaml:"sessions_not_found,omitempty"`
	UnavailableStores []string        `json:"unavailable_stores,omitempty" yaml:"unavailable_stores,omitempty"`
	Sessions          []SessionHandle `json:"sessions,omitempty" yaml:"sessions,omitempty"`

	AssembledMessages int  `json:"assembled_messages" yaml:"assembled_messages"`
	WindowedMessages  int  `json:"windowed_messages" yaml:"windowed_messages"`
	Complete          bool `json:"complete" yaml:"complete"`
}

func (r *Report) addUnavailable(paths ...string) {
	for _, p := range paths {
		if !containsString(r.UnavailableStores, p) {
			r.UnavailableStores = append(r.UnavailableStores, p)
		}
	}
	sort.Strings(r.UnavailableStores)
}

// countMessages fills the per-message counters from an assembled transcript.
func (r *Report) countMessages(t *Transcript) {
	r.AssembledMessages = t.Len()
	for _, m := range t.Messages {
		if m.Kind == KindEmpty {
			r.EmptyFragments++
		}
		if m.Role == RoleUnknown {
			r.UnknownRoles++
		}
		if m.Timestamp.IsZero() {
			r.UntimedMessages++
		}
		switch m.OrderSource {
		case OrderUnverified:
			r.UnverifiedPositions++
		case OrderNumericSuffix:
			r.FallbackOrdered++
		}
	}
}
