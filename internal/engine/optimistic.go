package engine

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/wellsfam/tripsync/internal/domain"
)

// tempID returns a timestamp-derived placeholder identifier for an
// optimistic local entry. It is superseded by the backend-assigned id on
// the next hydrate and never sent to the remote store.
func tempID() string {
	return "local-" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

// isTempID reports whether id was produced by tempID.
func isTempID(id string) bool {
	return len(id) > 6 && id[:6] == "local-"
}

// mutateView publishes fn's result as the new view atomically. fn receives
// a value copy and must return a fully formed next view without mutating
// any slice or map reachable from the input — readers may still hold the
// previous publication.
func (e *Engine) mutateView(fn func(v domain.Assembled) domain.Assembled) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == nil {
		return fmt.Errorf("%w: no trip loaded", domain.ErrValidation)
	}
	next := fn(*e.view)
	e.view = &next
	return nil
}

// mapBlock rewrites one block identified by blockID, copying the day and
// block slices along the path so the previous view stays intact. An
// unknown id is a no-op: the block may have been deleted by a concurrent
// hydrate, which is exactly the race the last-hydrate-wins model accepts.
func mapBlock(v domain.Assembled, blockID string, fn func(domain.BlockView) domain.BlockView) domain.Assembled {
	days := make([]domain.DayView, len(v.Trip.Days))
	copy(days, v.Trip.Days)
	for di := range days {
		for bi, b := range days[di].Blocks {
			if b.ID != blockID {
				continue
			}
			blocks := make([]domain.BlockView, len(days[di].Blocks))
			copy(blocks, days[di].Blocks)
			blocks[bi] = fn(b)
			days[di].Blocks = blocks
			v.Trip.Days = days
			return v
		}
	}
	return v
}

// dropBlock removes one block, copying along the path.
func dropBlock(v domain.Assembled, blockID string) domain.Assembled {
	days := make([]domain.DayView, len(v.Trip.Days))
	copy(days, v.Trip.Days)
	for di := range days {
		for bi, b := range days[di].Blocks {
			if b.ID != blockID {
				continue
			}
			blocks := make([]domain.BlockView, 0, len(days[di].Blocks)-1)
			blocks = append(blocks, days[di].Blocks[:bi]...)
			blocks = append(blocks, days[di].Blocks[bi+1:]...)
			days[di].Blocks = blocks
			v.Trip.Days = days
			return v
		}
	}
	return v
}

// appendBlock adds a block to its day keeping the start-time order, copying
// along the path.
func appendBlock(v domain.Assembled, dayID string, block domain.BlockView) domain.Assembled {
	days := make([]domain.DayView, len(v.Trip.Days))
	copy(days, v.Trip.Days)
	for di := range days {
		if days[di].ID != dayID {
			continue
		}
		blocks := make([]domain.BlockView, 0, len(days[di].Blocks)+1)
		blocks = append(blocks, days[di].Blocks...)
		blocks = append(blocks, block)
		sort.SliceStable(blocks, func(i, j int) bool {
			return blocks[i].StartTime < blocks[j].StartTime
		})
		days[di].Blocks = blocks
		v.Trip.Days = days
		return v
	}
	return v
}
