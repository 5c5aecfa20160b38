package nav

// Pathfinder owns the reusable search state: the generational node pool,
// the open-set heap storage, and the traversability scratch buffer. One
// instance serves one goroutine at a time; concurrent searches need
// separate instances or external serialization.
type Pathfinder struct {
	pool     *nodePool
	open     openHeap
	passable []bool
	stats    SearchStats
}

// SearchStats counts pathfinder activity since construction. The counters
// explain failures without widening the boolean FindPath contract.
type SearchStats struct {
	Searches      uint64 `json:"searches"`
	Found         uint64 `json:"found"`
	Failed        uint64 `json:"failed"`
	NodesExpanded uint64 `json:"nodesExpanded"`
	WindowShrinks uint64 `json:"windowShrinks"`
	Truncated     uint64 `json:"truncated"`
}

// NewPathfinder constructs a search context with a PoolCapacity node pool.
func NewPathfinder() *Pathfinder {
	return &Pathfinder{pool: newNodePool(PoolCapacity)}
}

// Stats returns a copy of the accumulated counters.
func (p *Pathfinder) Stats() SearchStats {
	return p.stats
}

// FindPath computes a route between two world positions and reports
// whether one was found. It returns false with no path when the map is
// unusable, either endpoint's tile is not enterable under opts, the search
// region cannot be bounded within the node budget, or the open set drains
// without reaching the goal. Failures are never fatal and never retried
// here; retry policy belongs to the calling AI layer.
func (p *Pathfinder) FindPath(m Map, start, goal Point, opts SearchOptions) ([]Point, bool) {
	return p.FindPathAvoiding(m, start, goal, opts, nil)
}

// FindPathAvoiding is FindPath with additional temporarily blocked cells,
// used to route around live agents without mutating the map.
func (p *Pathfinder) FindPathAvoiding(m Map, start, goal Point, opts SearchOptions, blocked map[GridPos]struct{}) ([]Point, bool) {
	p.stats.Searches++
	if m == nil {
		return p.fail()
	}
	cols, rows := m.Dims()
	if cols <= 0 || rows <= 0 || m.TileSize() <= 0 {
		return p.fail()
	}

	startPos := Locate(m, start)
	goalPos := Locate(m, goal)
	if !inBounds(cols, rows, startPos) || !inBounds(cols, rows, goalPos) {
		return p.fail()
	}

	if startPos == goalPos {
		if !walkableTile(m, startPos.Col, startPos.Row, opts) {
			return p.fail()
		}
		p.stats.Found++
		return []Point{Center(m, startPos)}, true
	}

	win, shrinks, ok := fitWindow(cols, rows, startPos, goalPos, len(p.pool.nodes))
	p.stats.WindowShrinks += uint64(shrinks)
	if !ok {
		return p.fail()
	}

	p.buildPassable(m, win, opts, blocked)
	if !p.passable[win.index(startPos.Col, startPos.Row)] ||
		!p.passable[win.index(goalPos.Col, goalPos.Row)] {
		return p.fail()
	}

	goalIdx, ok := p.search(m, win, startPos, goalPos, opts)
	if !ok {
		return p.fail()
	}

	path := p.reconstruct(m, win, goalIdx)
	p.stats.Found++
	return path, true
}

func (p *Pathfinder) fail() ([]Point, bool) {
	p.stats.Failed++
	return nil, false
}

func inBounds(cols, rows int, pos GridPos) bool {
	return pos.Col >= 0 && pos.Row >= 0 && pos.Col < cols && pos.Row < rows
}
