package transcript

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/store"
	"golang.org/x/sync/errgroup"
)

// segment is the scan result of one storage session. Each goroutine owns
// exactly one segment slot.
type segment struct {
	handle     SessionHandle
	sequence   OrderedSequence
	fragments  map[string]Fragment
	unparsable int
	err        error
}

// assembler merges storage sessions into one transcript.
type assembler struct {
	reader      store.Reader
	concurrency int
	scanTimeout time.Duration
	log         *log.Logger
}

// assemble scans every handle concurrently, then walks the segments in
// handle order, numbering messages 0..n-1.
func (a *assembler) assemble(ctx context.Context, handles []SessionHandle, report *Report) *Transcript {
	segments := make([]segment, len(handles))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, h := range handles {
		g.Go(func() error {
			segments[i] = a.loadSegment(ctx, h)
			return nil
		})
	}
	_ = g.Wait()

	t := &Transcript{Messages: []Message{}}
	for _, seg := range segments {
		report.SkippedUnparsable += seg.unparsable
		if seg.err != nil {
			a.log.Warn("session dropped", "session", seg.handle.LogicalID, "storage_id", seg.handle.StorageID,
				"err", &internal.ReconstructionError{SessionID: seg.handle.LogicalID, Err: seg.err})
			report.addUnavailable(seg.handle.StorePath)
			continue
		}

		report.MissingFragments += len(seg.sequence.Missing)
		for _, entry := range seg.sequence.Entries {
			frag := seg.fragments[entry.FragmentID]
			if entry.Source == OrderUnverified {
				a.log.Debug("fragment position unverified", "storage_id", seg.handle.StorageID,
					"fragment", entry.FragmentID, "err", internal.ErrAmbiguousOrdering)
			}
			t.Messages = append(t.Messages, Message{
				Role:             frag.Role,
				Kind:             frag.Kind,
				Content:          frag.Content,
				LogicalID:        seg.handle.LogicalID,
				SessionStorageID: seg.handle.StorageID,
				FragmentID:       entry.FragmentID,
				PositionIndex:    len(t.Messages),
				Timestamp:        frag.Timestamp,
				OrderSource:      entry.Source,
				OrdinalHint:      frag.OrdinalHint,
				ToolName:         frag.ToolName,
			})
		}
	}
	return t
}

// loadSegment reads one storage session's fragments and its order list.
func (a *assembler) loadSegment(ctx context.Context, h SessionHandle) segment {
	seg := segment{handle: h, fragments: make(map[string]Fragment)}

	if a.scanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.scanTimeout)
		defer cancel()
	}

	result, err := a.reader.Scan(ctx, h.StorePath, fragmentScanPrefix(h.StorageID))
	if err != nil {
		seg.err = err
		return seg
	}
	seg.unparsable = len(result.Unparsable)

	present := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		frag, err := ExtractFragment(h.StorageID, rec)
		if err != nil {
			a.log.Debug("fragment skipped", "key", rec.Key, "err", err)
			seg.unparsable++
			continue
		}
		seg.fragments[frag.FragmentID] = frag
		present = append(present, frag.FragmentID)
	}

	listed, hasList, err := authoritativeOrder(ctx, a.reader, h.StorePath, h.StorageID)
	if err != nil {
		if !errors.Is(err, internal.ErrRecordUnparsable) {
			seg.err = err
			return seg
		}
		seg.unparsable++
	}

	seg.sequence = ResolveOrder(h.StorageID, present, listed, hasList)
	return seg
}
