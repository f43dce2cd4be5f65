package transcript

import "time"

// Window bounds a transcript to the time around a commit. A zero Start
// leaves the lower side open (no previous commit); a zero End leaves the
// upper side open.
type Window struct {
	Start        time.Time
	End          time.Time
	LeadPadding  time.Duration
	TrailPadding time.Duration
}

// Bounds returns the padded window. Open sides are the zero time.
func (w Window) Bounds() (lower, upper time.Time) {
	if !w.Start.IsZero() {
		lower = w.Start.Add(-w.LeadPadding)
	}
	if !w.End.IsZero() {
		upper = w.End.Add(w.TrailPadding)
	}
	return lower, upper
}

func (w Window) contains(ts time.Time) bool {
	lower, upper := w.Bounds()
	if !lower.IsZero() && ts.Before(lower) {
		return false
	}
	if !upper.IsZero() && ts.After(upper) {
		return false
	}
	return true
}

// Apply returns the messages from the first to the last timestamped message
// inside the window. Timed messages in that span whose timestamp falls
// outside the window are dropped; untimed ones are kept. Position indexes
// are preserved.
//
// complete is true only when the transcript has at least one message on
// each side of the selection and nothing inside it was dropped. A selection
// touching either end of the transcript means the real boundary may lie
// outside what was assembled; a gap means timestamps disagree with order.
func (w Window) Apply(t *Transcript) (*Transcript, bool) {
	out := &Transcript{Messages: []Message{}}
	if t.IsEmpty() {
		return out, false
	}
	msgs := t.Messages
	lower, upper := w.Bounds()

	first, last := -1, -1
	for i, m := range msgs {
		if m.Timestamp.IsZero() || !w.contains(m.Timestamp) {
			continue
		}
		if first == -1 {
			first = i
		}
		last = i
	}

	if first == -1 {
		if lower.IsZero() && upper.IsZero() {
			out.Messages = append(out.Messages, msgs...)
			return out, false
		}
		return out, hasBefore(msgs, lower) && hasAfter(msgs, upper)
	}

	// An open side extends over untimed messages at the transcript edge.
	if lower.IsZero() {
		for first > 0 && msgs[first-1].Timestamp.IsZero() {
			first--
		}
	}
	if upper.IsZero() {
		for last < len(msgs)-1 && msgs[last+1].Timestamp.IsZero() {
			last++
		}
	}

	contiguous := true
	for _, m := range msgs[first : last+1] {
		if !m.Timestamp.IsZero() && !w.contains(m.Timestamp) {
			contiguous = false
			continue
		}
		out.Messages = append(out.Messages, m)
	}
	return out, contiguous && first > 0 && last < len(msgs)-1
}

func hasBefore(msgs []Message, lower time.Time) bool {
	if lower.IsZero() {
		return false
	}
	for _, m := range msgs {
		if !m.Timestamp.IsZero() && m.Timestamp.Before(lower) {
			return true
		}
	}
	return false
}

func hasAfter(msgs []Message, upper time.Time) bool {
	if upper.IsZero() {
		return false
	}
	for _, m := range msgs {
		if !m.Timestamp.IsZero() && m.Timestamp.After(upper) {
			return true
		}
	}
	return false
}
