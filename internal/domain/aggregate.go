package domain

import "container/heap"

// SourceResult is one source's contribution to a snapshot: its filtered
// events, already sorted by lessLocated, plus the bookkeeping counts.
type SourceResult struct {
	Source Source
	Events []Located
	Counts SourceCounts
}

// Aggregate merges per-source result sets into a single globally ordered
// event list and a per-source counts map. A failed source contributes zero
// events but still appears in the counts with its failure flag set, so one
// feed outage degrades the snapshot instead of sinking it.
func Aggregate(results []SourceResult) ([]Located, map[Source]SourceCounts) {
	counts := make(map[Source]SourceCounts, len(results))
	seqs := make([][]Located, 0, len(results))
	for _, r := range results {
		counts[r.Source] = r.Counts
		if len(r.Events) > 0 {
			seqs = append(seqs, r.Events)
		}
	}
	return MergeByDistance(seqs...), counts
}

// MergeByDistance k-way merges sequences that are each sorted by lessLocated
// into one sorted slice. With n total events across k sequences this is
// O(n log k); merging an empty set of sequences yields an empty slice.
func MergeByDistance(seqs ...[]Located) []Located {
	h := make(mergeHeap, 0, len(seqs))
	total := 0
	for _, s := range seqs {
		if len(s) == 0 {
			continue
		}
		h = append(h, cursor{events: s})
		total += len(s)
	}
	heap.Init(&h)

	merged := make([]Located, 0, total)
	for h.Len() > 0 {
		c := h[0]
		merged = append(merged, c.events[c.next])
		c.next++
		if c.next < len(c.events) {
			h[0] = c
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}
	return merged
}

// cursor walks one sorted sequence during a merge.
type cursor struct {
	events []Located
	next   int
}

type mergeHeap []cursor

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	return lessLocated(h[i].events[h[i].next], h[j].events[h[j].next])
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(cursor)) }

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
