package transcript

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/iksnae/cursor-chatlog/internal/store"
	"github.com/tidwall/gjson"
)

// OrderSource records how a fragment's position was established.
type OrderSource string

const (
	OrderAuthoritative OrderSource = "authoritative"
	OrderNumericSuffix OrderSource = "numericSuffix"
	OrderUnverified    OrderSource = "unverified"
)

// OrderEntry is one fragment position within a session.
type OrderEntry struct {
	FragmentID string
	Source     OrderSource
}

// OrderedSequence is the resolved fragment order of one storage session.
// Keys never imply order; only this sequence does.
type OrderedSequence struct {
	StorageID        string
	Entries          []OrderEntry
	Missing          []string // listed by the session but not in the store
	HasAuthoritative bool
}

// Count returns the number of entries with the given source.
func (s OrderedSequence) Count(source OrderSource) int {
	n := 0
	for _, e := range s.Entries {
		if e.Source == source {
			n++
		}
	}
	return n
}

var (
	uuidShape     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	numericSuffix = regexp.MustCompile(`^(.*?)[-_:.]?([0-9]+)$`)
	separators    = "-_:."
)

// sequenceNumber returns the trailing counter of a fragment id. The id must
// be all digits, or the digits must follow a label holding a non-hex
// character; a hex group that happens to be all digits is not a counter.
func sequenceNumber(id string) (string, bool) {
	if uuidShape.MatchString(id) {
		return "", false
	}
	m := numericSuffix.FindStringSubmatch(id)
	if m == nil {
		return "", false
	}
	if m[1] == "" {
		return m[2], true
	}
	prefix := strings.TrimRight(m[1], separators)
	label := prefix[strings.LastIndexAny(prefix, separators)+1:]
	if strings.IndexFunc(label, isNonHex) == -1 {
		return "", false
	}
	return m[2], true
}

func isNonHex(r rune) bool {
	return !('0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F')
}

// authoritativeOrder reads the session's own ordered list of fragment ids.
// ok is false when the session record or its list is absent.
func authoritativeOrder(ctx context.Context, reader store.Reader, storePath, storageID string) ([]string, bool, error) {
	rec, err := reader.Get(ctx, storePath, sessionKeyPrefix+storageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	ids, ok := orderListFromMetadata(gjson.ParseBytes(rec.Value))
	return ids, ok, nil
}

// orderListFromMetadata prefers fullConversationHeadersOnly over the
// legacy inline conversation array.
func orderListFromMetadata(meta gjson.Result) ([]string, bool) {
	for _, path := range []string{"fullConversationHeadersOnly", "conversation"} {
		list := meta.Get(path)
		if !list.IsArray() {
			continue
		}
		var ids []string
		for _, header := range list.Array() {
			if id := header.Get("bubbleId").String(); id != "" {
				ids = append(ids, id)
			}
		}
		return ids, true
	}
	return nil, false
}

// ResolveOrder orders the fragment ids present in a session. Listed ids
// come first in list order; the rest follow by sequence number, and ids
// without one are appended in natural id order and marked unverified.
func ResolveOrder(storageID string, present []string, listed []string, hasList bool) OrderedSequence {
	seq := OrderedSequence{StorageID: storageID, HasAuthoritative: hasList}

	inStore := make(map[string]bool, len(present))
	for _, id := range present {
		inStore[id] = true
	}

	placed := make(map[string]bool, len(present))
	for _, id := range listed {
		if placed[id] {
			continue
		}
		if !inStore[id] {
			if !containsString(seq.Missing, id) {
				seq.Missing = append(seq.Missing, id)
			}
			continue
		}
		placed[id] = true
		seq.Entries = append(seq.Entries, OrderEntry{FragmentID: id, Source: OrderAuthoritative})
	}

	type suffixed struct {
		id     string
		digits string
	}
	var numbered []suffixed
	var unverified []string
	for _, id := range present {
		if placed[id] {
			continue
		}
		placed[id] = true
		if digits, ok := sequenceNumber(id); ok {
			numbered = append(numbered, suffixed{id: id, digits: digits})
		} else {
			unverified = append(unverified, id)
		}
	}

	sort.SliceStable(numbered, func(i, j int) bool {
		if c := compareDigits(numbered[i].digits, numbered[j].digits); c != 0 {
			return c < 0
		}
		return numbered[i].id < numbered[j].id
	})
	sort.SliceStable(unverified, func(i, j int) bool {
		return naturalLess(unverified[i], unverified[j])
	})

	for _, n := range numbered {
		seq.Entries = append(seq.Entries, OrderEntry{FragmentID: n.id, Source: OrderNumericSuffix})
	}
	for _, id := range unverified {
		seq.Entries = append(seq.Entries, OrderEntry{FragmentID: id, Source: OrderUnverified})
	}
	return seq
}

// compareDigits compares two decimal digit strings by value without
// overflowing on long runs.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// naturalLess compares ids chunk by chunk, with digit runs compared by value.
func naturalLess(a, b string) bool {
	x, y := a, b
	for x != "" && y != "" {
		cx, cy := leadingChunk(x), leadingChunk(y)
		x, y = x[len(cx):], y[len(cy):]

		dx, dy := isDigit(cx[0]), isDigit(cy[0])
		switch {
		case dx && dy:
			if c := compareDigits(cx, cy); c != 0 {
				return c < 0
			}
		case dx != dy:
			return dx
		default:
			if cx != cy {
				return cx < cy
			}
		}
	}
	if len(x) != len(y) {
		return x == ""
	}
	return a < b
}

// leadingChunk returns the leading run of digits or of non-digits in s.
func leadingChunk(s string) string {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i]
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
