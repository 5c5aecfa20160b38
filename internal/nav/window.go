package nav

// window is the rectangular sub-grid one search is allowed to explore. It
// is always clamped to map bounds and sized to fit the node pool, which
// keeps worst-case cost bounded at the price of missing routes that only
// exist outside the window.
type window struct {
	minCol int
	minRow int
	cols   int
	rows   int
}

func (w window) cells() int {
	return w.cols * w.rows
}

func (w window) contains(col, row int) bool {
	return col >= w.minCol && row >= w.minRow &&
		col < w.minCol+w.cols && row < w.minRow+w.rows
}

// index maps a grid coordinate inside the window to its flat scratch index.
func (w window) index(col, row int) int {
	return (row-w.minRow)*w.cols + (col - w.minCol)
}

// coord is the inverse of index.
func (w window) coord(idx int) (col, row int) {
	return w.minCol + idx%w.cols, w.minRow + idx/w.cols
}

// fitWindow bounds the search region around start and goal. The bounding
// box of the two endpoints is padded by the initial margin and clamped to
// the map; while the cell count exceeds capacity the margin shrinks one
// step at a time. Below the minimum margin the region cannot be bounded
// and the search must report failure instead of exploding.
func fitWindow(cols, rows int, start, goal GridPos, capacity int) (window, int, bool) {
	shrinks := 0
	for margin := initialWindowMargin; margin >= minWindowMargin; margin -= windowMarginStep {
		w := clampedWindow(cols, rows, start, goal, margin)
		if w.cells() <= capacity {
			return w, shrinks, true
		}
		shrinks++
	}
	return window{}, shrinks, false
}

func clampedWindow(cols, rows int, start, goal GridPos, margin int) window {
	minCol := min(start.Col, goal.Col) - margin
	maxCol := max(start.Col, goal.Col) + margin
	minRow := min(start.Row, goal.Row) - margin
	maxRow := max(start.Row, goal.Row) + margin
	if minCol < 0 {
		minCol = 0
	}
	if minRow < 0 {
		minRow = 0
	}
	if maxCol > cols-1 {
		maxCol = cols - 1
	}
	if maxRow > rows-1 {
		maxRow = rows - 1
	}
	return window{
		minCol: minCol,
		minRow: minRow,
		cols:   maxCol - minCol + 1,
		rows:   maxRow - minRow + 1,
	}
}
