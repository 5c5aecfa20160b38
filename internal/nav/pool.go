package nav

import "math"

const noParent = int32(-1)

// searchNode is one pooled A* record, addressed by window-local flat index.
// A node is only meaningful while its stamp matches the pool's current
// generation; stale nodes are lazily reinitialized on first access, so a
// pool reset never touches the array.
type searchNode struct {
	g      float64
	h      float64
	parent int32
	stamp  uint32
	opened bool
	closed bool
}

// nodePool is the fixed-capacity arena shared across searches.
type nodePool struct {
	nodes []searchNode
	gen   uint32
}

func newNodePool(capacity int) *nodePool {
	return &nodePool{
		nodes: make([]searchNode, capacity),
		gen:   1,
	}
}

// nextGeneration starts a new search epoch in O(1). When the counter wraps
// around, every stamp is cleared once so nodes from the overflowed epoch
// cannot alias the new one.
func (p *nodePool) nextGeneration() {
	p.gen++
	if p.gen == 0 {
		for i := range p.nodes {
			p.nodes[i].stamp = 0
		}
		p.gen = 1
	}
}

// node returns the slot for idx, reinitializing it first if it belongs to
// an earlier generation.
func (p *nodePool) node(idx int) *searchNode {
	n := &p.nodes[idx]
	if n.stamp != p.gen {
		*n = searchNode{
			g:      math.Inf(1),
			parent: noParent,
			stamp:  p.gen,
		}
	}
	return n
}
