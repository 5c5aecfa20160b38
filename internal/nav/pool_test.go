package nav

import (
	"math"
	"testing"
)

func TestNodePoolLazyReset(t *testing.T) {
	pool := newNodePool(8)

	n := pool.node(3)
	if !math.IsInf(n.g, 1) || n.parent != noParent || n.opened || n.closed {
		t.Fatalf("fresh node not initialized: %+v", n)
	}
	n.g = 4.5
	n.parent = 1
	n.opened = true

	if again := pool.node(3); again.g != 4.5 || !again.opened {
		t.Fatalf("node reinitialized inside its own generation: %+v", again)
	}

	pool.nextGeneration()
	if stale := pool.node(3); !math.IsInf(stale.g, 1) || stale.parent != noParent || stale.opened {
		t.Fatalf("stale node survived a generation bump: %+v", stale)
	}
}

func TestNodePoolGenerationWraparound(t *testing.T) {
	pool := newNodePool(4)
	pool.node(2).g = 7

	pool.gen = math.MaxUint32
	pool.nodes[2].stamp = math.MaxUint32
	pool.nextGeneration()

	if pool.gen != 1 {
		t.Fatalf("generation after wraparound = %d, want 1", pool.gen)
	}
	for i := range pool.nodes {
		if pool.nodes[i].stamp == pool.gen {
			t.Fatalf("node %d still stamped current after wraparound", i)
		}
	}
	if n := pool.node(2); !math.IsInf(n.g, 1) {
		t.Fatalf("wrapped node not reinitialized: %+v", n)
	}
}
