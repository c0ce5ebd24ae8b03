package tmam

import "github.com/2767mr/tmam/internal/shape"

// comboSets pairs logo heights. Each pair gets its own queue of subsets.
var comboSets = [3][2]int{{2, 3}, {3, 4}, {2, 4}}

// maxComboLogos keeps subset masks inside a uint64.
const maxComboLogos = 63

// findLogos returns every half logo contained in target, grouped by height,
// at every position and vertical offset.
func findLogos(target shape.Code) [shape.Layers + 1][]shape.Code {
	var bySize [shape.Layers + 1][]shape.Code
	for size := 2; size <= shape.Layers; size++ {
		for variant := range logoBases {
			for pos := 0; pos < 4; pos++ {
				for offset := 0; offset+size <= shape.Layers; offset++ {
					logo := logoBases[variant][size].Rotate(pos) << (4 * offset)
					if target&logo == logo {
						bySize[size] = append(bySize[size], logo)
					}
				}
			}
		}
	}
	return bySize
}

// comboQueue walks the subsets of logos by ascending size, and in
// lexicographic bit order within a size.
type comboQueue struct {
	logos      []shape.Code
	k          int
	mask       uint64
	done       bool
	iterations int
}

func newComboQueue(logos []shape.Code) *comboQueue {
	if len(logos) > maxComboLogos {
		logos = logos[:maxComboLogos]
	}
	return &comboQueue{logos: logos, k: 1, mask: 1, done: len(logos) == 0}
}

func (q *comboQueue) advance() {
	// Gosper's hack: next larger mask with the same number of bits
	c := q.mask & -q.mask
	r := q.mask + c
	q.mask = (((r ^ q.mask) >> 2) / c) | r

	if q.mask >= 1<<len(q.logos) {
		q.k++
		if q.k > min(len(q.logos), MaxParts) {
			q.done = true
			return
		}
		q.mask = 1<<q.k - 1
	}
}

// next returns the next subset whose logos do not overlap, together with
// the bits they cover.
func (q *comboQueue) next(stats *Stats) (uint64, shape.Code, bool) {
	for !q.done {
		mask := q.mask
		q.advance()
		stats.Candidates++

		var union shape.Code
		disjoint := true
		for i, logo := range q.logos {
			if mask&(1<<i) == 0 {
				continue
			}
			if union&logo != 0 {
				disjoint = false
				break
			}
			union |= logo
		}
		if disjoint {
			return mask, union, true
		}
	}
	return 0, 0, false
}

// combo removes subsets of logos from the target, covers the rest with
// flats and checks the result.
func (r *run) combo() (Result, bool) {
	bySize := findLogos(r.target)
	for _, logos := range bySize {
		r.stats.LogosFound += len(logos)
	}

	var queues [len(comboSets)]*comboQueue
	for i, set := range comboSets {
		logos := make([]shape.Code, 0, len(bySize[set[0]])+len(bySize[set[1]]))
		logos = append(logos, bySize[set[0]]...)
		logos = append(logos, bySize[set[1]]...)
		queues[i] = newComboQueue(logos)
	}

	var res Result
	found := r.interleave(queues[:], func(q *comboQueue, mask uint64, union shape.Code) bool {
		var ok bool
		res, ok = r.tryCombo(q.logos, mask, union)
		return ok
	})
	return res, found
}

// interleave draws one candidate from each queue in turn and hands it to
// try, so that a solution in any queue is reached in bounded time. It
// returns false once every queue is dry or the iteration cap is hit.
func (r *run) interleave(queues []*comboQueue, try func(q *comboQueue, mask uint64, union shape.Code) bool) bool {
	for active := true; active && !r.exhausted; {
		active = false
		for _, q := range queues {
			mask, union, ok := q.next(&r.stats)
			if !ok {
				continue
			}
			active = true
			q.iterations++
			r.stats.MaxQueueIterations = max(r.stats.MaxQueueIterations, q.iterations)

			if try(q, mask, union) {
				return true
			}
		}
	}
	return false
}

func (r *run) tryCombo(logos []shape.Code, mask uint64, union shape.Code) (Result, bool) {
	residue := r.target &^ union

	var buf [MaxParts + 1]shape.Code
	parts := buf[:0]
	for layer := 0; layer < shape.Layers; layer++ {
		if flat := residue & (shape.LayerMask << (4 * layer)); flat != 0 {
			parts = append(parts, flat)
		}
		for i, logo := range logos {
			if mask&(1<<i) != 0 && logo.BottomLayer() == layer {
				parts = append(parts, logo)
			}
		}
		if len(parts) > MaxParts {
			return Result{}, false
		}
	}

	if order, ok := r.tryBuild(parts); ok {
		return r.result(parts, order, StrategyCombo), true
	}
	if r.target.LayerCount() == shape.Layers && len(parts) < MaxParts {
		parts = append(parts, shape.Scaffold)
		if order, ok := r.tryBuild(parts); ok {
			return r.result(parts, order, StrategyCombo), true
		}
	}
	return Result{}, false
}
