// Package nav implements the grid pathfinding engine: a bounded-window A*
// search over a tile map, with diagonal movement, corner-cut prevention,
// terrain cost factors, and a door policy. Search state (node pool, open
// heap, traversability scratch) lives in a Pathfinder instance and is
// reused across calls, so a steady-state search allocates almost nothing
// beyond the returned waypoints.
package nav

import "math"

const (
	// DefaultTileSize is the tile edge length in world units assumed by the
	// world layer. Maps may use a different size; the engine only reads
	// Map.TileSize.
	DefaultTileSize = 32.0

	// PoolCapacity bounds how many cells a single search may touch. The
	// search window is shrunk until it fits this budget, so worst-case
	// memory and iteration stay fixed regardless of map size.
	PoolCapacity = 4096

	// MaxPathLength caps the number of waypoints in a reconstructed path.
	// Routes longer than the cap lose their start end, never the goal end.
	MaxPathLength = 96

	initialWindowMargin = 30
	windowMarginStep    = 5
	minWindowMargin     = 2

	// heuristicWeight scales the octile estimate slightly above one. This
	// trades strict admissibility for fewer node expansions; a returned
	// path can be marginally longer than optimal in rare layouts.
	heuristicWeight = 1.001
)

// Point is a position in world units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GridPos addresses a single tile of the map.
type GridPos struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Map is the read-only view of the tile world the pathfinder consumes.
// Implementations must be stable for the duration of one search call; the
// engine never mutates the map and never observes changes mid-search.
type Map interface {
	// Dims returns the grid extent in tiles.
	Dims() (cols, rows int)
	// TileSize returns the edge length of one tile in world units.
	TileSize() float64
	// TerrainAt reports whether the tile's terrain can be entered and its
	// movement cost factor. Out-of-range coordinates must report false.
	TerrainAt(col, row int) (walkable bool, moveCost float64)
	// ObjectAt reports the object occupying the tile, if any.
	ObjectAt(col, row int) (present, passable, door bool)
}

// SearchOptions tune a single search call.
type SearchOptions struct {
	// AllowDiagonal enables 8-directional movement. Diagonal steps are
	// still refused when either flanking orthogonal tile is blocked.
	AllowDiagonal bool
	// CanOpenDoors lets the route pass through door objects.
	CanOpenDoors bool
	// AgentRadius is reserved for clearance-aware search. It is carried on
	// the options but currently applied to neither cost nor walkability.
	AgentRadius float64
}

// Locate maps a world position onto the grid by floor division. Positions
// outside the map land on out-of-range coordinates; callers that need an
// in-bounds cell must clamp or fail themselves.
func Locate(m Map, p Point) GridPos {
	size := m.TileSize()
	return GridPos{
		Col: int(math.Floor(p.X / size)),
		Row: int(math.Floor(p.Y / size)),
	}
}

// Center returns the world-space center of a tile.
func Center(m Map, pos GridPos) Point {
	size := m.TileSize()
	return Point{
		X: (float64(pos.Col) + 0.5) * size,
		Y: (float64(pos.Row) + 0.5) * size,
	}
}

// PathCost sums the euclidean leg lengths of a path in world units.
func PathCost(path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += math.Hypot(path[i].X-path[i-1].X, path[i].Y-path[i-1].Y)
	}
	return total
}
