package nav

// walkableTile applies the walkability rule to a single tile: the terrain
// must be enterable, and any object on the tile must be passable or be a
// door the current policy may open.
func walkableTile(m Map, col, row int, opts SearchOptions) bool {
	walkable, _ := m.TerrainAt(col, row)
	if !walkable {
		return false
	}
	present, passable, door := m.ObjectAt(col, row)
	if !present {
		return true
	}
	if passable {
		return true
	}
	return door && opts.CanOpenDoors
}

// buildPassable evaluates the walkability rule once per window cell into
// the reusable scratch buffer, then masks any dynamically blocked cells.
// The buffer grows only when a window larger than any seen before arrives.
func (p *Pathfinder) buildPassable(m Map, win window, opts SearchOptions, blocked map[GridPos]struct{}) {
	need := win.cells()
	if cap(p.passable) < need {
		p.passable = make([]bool, need)
	} else {
		p.passable = p.passable[:need]
	}
	for row := win.minRow; row < win.minRow+win.rows; row++ {
		for col := win.minCol; col < win.minCol+win.cols; col++ {
			p.passable[win.index(col, row)] = walkableTile(m, col, row, opts)
		}
	}
	for pos := range blocked {
		if win.contains(pos.Col, pos.Row) {
			p.passable[win.index(pos.Col, pos.Row)] = false
		}
	}
}

// ClosestWalkable scans outward from pos in growing rings for the nearest
// tile satisfying the walkability rule, giving up after limit rings. Cells
// are visited in a fixed order so the result is deterministic.
func ClosestWalkable(m Map, pos GridPos, opts SearchOptions, limit int) (GridPos, bool) {
	cols, rows := m.Dims()
	if pos.Col >= 0 && pos.Row >= 0 && pos.Col < cols && pos.Row < rows {
		if walkableTile(m, pos.Col, pos.Row, opts) {
			return pos, true
		}
	}
	for ring := 1; ring <= limit; ring++ {
		for row := pos.Row - ring; row <= pos.Row+ring; row++ {
			for col := pos.Col - ring; col <= pos.Col+ring; col++ {
				onEdge := row == pos.Row-ring || row == pos.Row+ring ||
					col == pos.Col-ring || col == pos.Col+ring
				if !onEdge {
					continue
				}
				if col < 0 || row < 0 || col >= cols || row >= rows {
					continue
				}
				if walkableTile(m, col, row, opts) {
					return GridPos{Col: col, Row: row}, true
				}
			}
		}
	}
	return GridPos{}, false
}

// BlockedCells maps actor positions onto the tiles they occupy so a search
// can route around live agents without mutating the map. Cells listed in
// exclude (typically the searcher's own tile and the goal tile) are left
// open.
func BlockedCells(m Map, positions []Point, exclude ...GridPos) map[GridPos]struct{} {
	if len(positions) == 0 {
		return nil
	}
	skip := make(map[GridPos]struct{}, len(exclude))
	for _, pos := range exclude {
		skip[pos] = struct{}{}
	}
	blocked := make(map[GridPos]struct{}, len(positions))
	for _, p := range positions {
		cell := Locate(m, p)
		if _, excluded := skip[cell]; excluded {
			continue
		}
		blocked[cell] = struct{}{}
	}
	if len(blocked) == 0 {
		return nil
	}
	return blocked
}
