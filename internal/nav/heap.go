package nav

// openEntry pairs a pooled node index with the f key it was pushed under.
// A node may be pushed again with a better key before an older entry is
// popped; the search loop discards entries whose node is already closed.
type openEntry struct {
	idx int32
	f   float64
}

// openHeap is the binary min-heap backing the open set. It satisfies
// heap.Interface; the backing slice is owned by the Pathfinder and reused
// across searches.
type openHeap []openEntry

func (h openHeap) Len() int { return len(h) }

func (h openHeap) Less(i, j int) bool { return h[i].f < h[j].f }

func (h openHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *openHeap) Push(x any) {
	*h = append(*h, x.(openEntry))
}

func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}
