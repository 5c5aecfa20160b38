package nav

import (
	"container/heap"
	"math"
)

// neighborStep describes one expansion direction and its base cost. The
// four orthogonal steps come first so 4-directional search can take a
// prefix of the table.
type neighborStep struct {
	dc       int
	dr       int
	cost     float64
	diagonal bool
}

var neighborSteps = [8]neighborStep{
	{0, -1, 1, false},
	{1, 0, 1, false},
	{0, 1, 1, false},
	{-1, 0, 1, false},
	{1, -1, math.Sqrt2, true},
	{1, 1, math.Sqrt2, true},
	{-1, 1, math.Sqrt2, true},
	{-1, -1, math.Sqrt2, true},
}

// octile estimates the remaining distance assuming 8-directional movement:
// orthogonal legs cost 1, diagonal legs sqrt(2). The slight overweighting
// reduces expansions, see heuristicWeight.
func octile(a, b GridPos) float64 {
	dx := math.Abs(float64(a.Col - b.Col))
	dy := math.Abs(float64(a.Row - b.Row))
	return heuristicWeight * (dx + dy + (math.Sqrt2-2)*math.Min(dx, dy))
}

// moveCostFactor returns the terrain multiplier for entering a tile.
// Non-positive factors count as 1 so malformed terrain data cannot make
// the search loop forever or divide the world into free moves.
func moveCostFactor(m Map, col, row int) float64 {
	_, cost := m.TerrainAt(col, row)
	if cost <= 0 {
		return 1
	}
	return cost
}

// diagonalClear reports whether a diagonal step from (col,row) may be
// taken: both orthogonal tiles flanking the move must themselves be
// enterable, otherwise the step would cut the corner between them.
func (p *Pathfinder) diagonalClear(win window, col, row, dc, dr int) bool {
	if !win.contains(col+dc, row) || !win.contains(col, row+dr) {
		return false
	}
	return p.passable[win.index(col+dc, row)] && p.passable[win.index(col, row+dr)]
}

// search runs the A* loop inside the fitted window and returns the goal's
// window-local index on success. The traversability scratch must already
// be built for this window.
func (p *Pathfinder) search(m Map, win window, start, goal GridPos, opts SearchOptions) (int, bool) {
	p.pool.nextGeneration()
	p.open = p.open[:0]

	startIdx := win.index(start.Col, start.Row)
	goalIdx := win.index(goal.Col, goal.Row)

	first := p.pool.node(startIdx)
	first.g = 0
	first.h = octile(start, goal)
	first.opened = true
	heap.Push(&p.open, openEntry{idx: int32(startIdx), f: first.h})

	steps := neighborSteps[:4]
	if opts.AllowDiagonal {
		steps = neighborSteps[:]
	}

	for p.open.Len() > 0 {
		entry := heap.Pop(&p.open).(openEntry)
		idx := int(entry.idx)
		node := p.pool.node(idx)
		if node.closed {
			continue
		}
		node.closed = true
		if idx == goalIdx {
			return idx, true
		}
		p.stats.NodesExpanded++

		col, row := win.coord(idx)
		for _, step := range steps {
			nc := col + step.dc
			nr := row + step.dr
			if !win.contains(nc, nr) {
				continue
			}
			nIdx := win.index(nc, nr)
			if !p.passable[nIdx] {
				continue
			}
			if step.diagonal && !p.diagonalClear(win, col, row, step.dc, step.dr) {
				continue
			}
			neighbor := p.pool.node(nIdx)
			if neighbor.closed {
				continue
			}
			tentative := node.g + step.cost*moveCostFactor(m, nc, nr)
			if neighbor.opened && tentative >= neighbor.g {
				continue
			}
			if !neighbor.opened {
				neighbor.h = octile(GridPos{Col: nc, Row: nr}, goal)
				neighbor.opened = true
			}
			neighbor.g = tentative
			neighbor.parent = int32(idx)
			heap.Push(&p.open, openEntry{idx: int32(nIdx), f: tentative + neighbor.h})
		}
	}
	return 0, false
}
