package importer

import "sync"

// progressTracker turns out-of-order batch completions into a contiguous
// acknowledged record count. Batches are numbered from zero in file order;
// the tracker only advances past a batch once every batch before it is
// done, so a checkpoint never claims records that are still in flight.
type progressTracker struct {
	mu        sync.Mutex
	base      int64
	nextSeq   int64
	completed map[int64]int64
	acked     int64
}

func newProgressTracker(base int64) *progressTracker {
	return &progressTracker{
		base:      base,
		completed: make(map[int64]int64),
		acked:     base,
	}
}

// MarkDone records that batch seq with the given record count finished,
// and returns the new contiguous acknowledged total.
func (pt *progressTracker) MarkDone(seq int64, records int) int64 {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.completed[seq] = int64(records)

	for {
		count, ok := pt.completed[pt.nextSeq]
		if !ok {
			break
		}
		delete(pt.completed, pt.nextSeq)
		pt.acked += count
		pt.nextSeq++
	}

	return pt.acked
}

// Acked returns the contiguous acknowledged record count, including the
// records a resumed run skipped over.
func (pt *progressTracker) Acked() int64 {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.acked
}
