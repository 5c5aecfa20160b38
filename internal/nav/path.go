package nav

// reconstruct walks parent links from the goal node and emits tile-center
// waypoints in start-to-goal order. The walk stops after MaxPathLength
// nodes: a route longer than the cap loses its start end and keeps the
// goal end, so the agent still converges on the destination and replans
// from wherever it is.
func (p *Pathfinder) reconstruct(m Map, win window, goalIdx int) []Point {
	points := make([]Point, 0, 16)
	idx := int32(goalIdx)
	for idx != noParent && len(points) < MaxPathLength {
		col, row := win.coord(int(idx))
		points = append(points, Center(m, GridPos{Col: col, Row: row}))
		idx = p.pool.node(int(idx)).parent
	}
	if len(points) == MaxPathLength && idx != noParent {
		p.stats.Truncated++
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}
