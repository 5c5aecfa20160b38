package tile

import "sort"

// Snapshot is the wire form of a Map: the palette once, ground as palette
// indices in row-major order, and placed objects with their cells. Ground
// is widened to int so it serializes as a JSON array rather than base64.
type Snapshot struct {
	Cols     int            `json:"cols"`
	Rows     int            `json:"rows"`
	TileSize float64        `json:"tileSize"`
	Terrains []Terrain      `json:"terrains"`
	Ground   []int          `json:"ground"`
	Objects  []PlacedObject `json:"objects"`
}

// PlacedObject pins an object to its cell.
type PlacedObject struct {
	Col    int    `json:"col"`
	Row    int    `json:"row"`
	Object Object `json:"object"`
}

// Snapshot copies the map into its wire form. Objects are ordered by cell
// index so identical maps serialize identically.
func (m *Map) Snapshot() Snapshot {
	snap := Snapshot{
		Cols:     m.cols,
		Rows:     m.rows,
		TileSize: m.tileSize,
		Terrains: append([]Terrain(nil), m.palette...),
		Ground:   make([]int, len(m.ground)),
		Objects:  make([]PlacedObject, 0, len(m.objects)),
	}
	for i, idx := range m.ground {
		snap.Ground[i] = int(idx)
	}
	indices := make([]int, 0, len(m.objects))
	for idx := range m.objects {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		snap.Objects = append(snap.Objects, PlacedObject{
			Col:    idx % m.cols,
			Row:    idx / m.cols,
			Object: m.objects[idx],
		})
	}
	return snap
}
