package transcript

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/store"
)

const defaultConcurrency = 4

// Engine extracts transcripts. It holds configuration only; every call
// reads the stores afresh.
type Engine struct {
	reader      store.Reader
	stores      Stores
	concurrency int
	scanTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds the number of storage sessions scanned at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithScanTimeout bounds each per-session scan. A scan that runs out of
// time drops that session only.
func WithScanTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.scanTimeout = d
	}
}

// New returns an Engine reading stores through reader.
func New(reader store.Reader, stores Stores, opts ...Option) *Engine {
	e := &Engine{
		reader:      reader,
		stores:      stores,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stores returns the store paths the engine reads.
func (e *Engine) Stores() Stores {
	return e.stores
}

// Resolve maps logical ids to their storage segments without reading
// fragments.
func (e *Engine) Resolve(ctx context.Context, logicalIDs []string) *Resolution {
	return ResolveSessions(ctx, e.reader, e.stores, normalizeIDs(logicalIDs))
}

// Assemble returns the full, un-windowed transcript for logicalIDs. Its
// report leaves Complete false.
func (e *Engine) Assemble(ctx context.Context, logicalIDs []string) (*Transcript, *Report) {
	runID := uuid.NewString()
	log := internal.Logger().With("run", runID)
	ids := normalizeIDs(logicalIDs)

	report := &Report{RunID: runID}
	res := ResolveSessions(ctx, e.reader, e.stores, ids)
	report.SkippedUnparsable += res.SkippedUnparsable
	report.SessionsNotFound = res.NotFound
	report.Sessions = res.Handles
	report.addUnavailable(res.UnavailableStores...)

	for _, id := range res.NotFound {
		log.Info("no session metadata", "session", id,
			"err", &internal.ReconstructionError{SessionID: id, Err: internal.ErrSessionNotFound})
	}

	a := &assembler{
		reader:      e.reader,
		concurrency: e.concurrency,
		scanTimeout: e.scanTimeout,
		log:         log,
	}
	t := a.assemble(ctx, res.Handles, report)
	report.countMessages(t)

	log.Debug("assembled transcript", "sessions", len(res.Handles), "messages", t.Len(),
		"unverified", report.UnverifiedPositions, "missing", report.MissingFragments)
	return t, report
}

// Extract assembles the transcript for logicalIDs and bounds it to w.
// Nothing here fails: missing sessions, unreadable stores and unparsable
// records shrink the transcript and are counted in the report.
func (e *Engine) Extract(ctx context.Context, logicalIDs []string, w Window) (*Transcript, *Report) {
	full, report := e.Assemble(ctx, logicalIDs)
	windowed, complete := w.Apply(full)
	report.WindowedMessages = windowed.Len()
	report.Complete = complete
	return windowed, report
}

// normalizeIDs drops blanks and duplicates and sorts the rest.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
