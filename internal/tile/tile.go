// Package tile stores the grid world: a palette of terrain kinds, one
// palette index per cell, and a sparse overlay of placed objects. The Map
// accessors match the shape the navigation engine queries through, so a
// *Map can be handed to it directly.
package tile

import "fmt"

// Terrain describes one ground kind. MoveCost scales the price of stepping
// onto a cell of this terrain; values at or below zero are treated as 1 by
// consumers.
type Terrain struct {
	ID       string  `json:"id"`
	Walkable bool    `json:"walkable"`
	MoveCost float64 `json:"moveCost"`
}

// Object is something standing on a cell. An impassable object blocks the
// cell outright; a door blocks it unless the mover may open doors.
type Object struct {
	ID       string `json:"id"`
	Passable bool   `json:"passable"`
	Door     bool   `json:"door"`
}

const maxPaletteSize = 256

// Map is a cols x rows grid. Ground terrain is stored as one byte per cell
// indexing into the palette; objects are sparse.
type Map struct {
	cols     int
	rows     int
	tileSize float64
	palette  []Terrain
	ground   []uint8
	objects  map[int]Object
}

// NewMap allocates a grid filled with the given terrain.
func NewMap(cols, rows int, tileSize float64, fill Terrain) (*Map, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("tile: invalid dimensions %dx%d", cols, rows)
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("tile: invalid tile size %v", tileSize)
	}
	if fill.ID == "" {
		return nil, fmt.Errorf("tile: fill terrain needs an id")
	}
	m := &Map{
		cols:     cols,
		rows:     rows,
		tileSize: tileSize,
		palette:  []Terrain{fill},
		ground:   make([]uint8, cols*rows),
		objects:  make(map[int]Object),
	}
	return m, nil
}

func (m *Map) Dims() (int, int)  { return m.cols, m.rows }
func (m *Map) TileSize() float64 { return m.tileSize }

func (m *Map) InBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < m.cols && row < m.rows
}

func (m *Map) index(col, row int) int { return row*m.cols + col }

// TerrainAt reports whether the terrain at col,row is walkable and what its
// movement cost factor is. Out-of-bounds cells are unwalkable.
func (m *Map) TerrainAt(col, row int) (bool, float64) {
	if !m.InBounds(col, row) {
		return false, 0
	}
	ter := m.palette[m.ground[m.index(col, row)]]
	return ter.Walkable, ter.MoveCost
}

// ObjectAt reports whether an object occupies col,row and, if so, whether
// it is passable and whether it is a door.
func (m *Map) ObjectAt(col, row int) (bool, bool, bool) {
	if !m.InBounds(col, row) {
		return false, false, false
	}
	obj, ok := m.objects[m.index(col, row)]
	if !ok {
		return false, false, false
	}
	return true, obj.Passable, obj.Door
}

// Terrain returns the full terrain record at col,row.
func (m *Map) Terrain(col, row int) (Terrain, bool) {
	if !m.InBounds(col, row) {
		return Terrain{}, false
	}
	return m.palette[m.ground[m.index(col, row)]], true
}

// Object returns the object at col,row, if any.
func (m *Map) Object(col, row int) (Object, bool) {
	if !m.InBounds(col, row) {
		return Object{}, false
	}
	obj, ok := m.objects[m.index(col, row)]
	return obj, ok
}

// SetTerrain writes the ground at col,row, interning the terrain into the
// palette by id. The palette holds at most 256 kinds.
func (m *Map) SetTerrain(col, row int, ter Terrain) error {
	if !m.InBounds(col, row) {
		return fmt.Errorf("tile: cell %d,%d out of bounds", col, row)
	}
	idx, err := m.intern(ter)
	if err != nil {
		return err
	}
	m.ground[m.index(col, row)] = idx
	return nil
}

// FillRect writes the terrain over a rectangle, clipped to the map.
func (m *Map) FillRect(minCol, minRow, cols, rows int, ter Terrain) error {
	idx, err := m.intern(ter)
	if err != nil {
		return err
	}
	for row := max(minRow, 0); row < min(minRow+rows, m.rows); row++ {
		for col := max(minCol, 0); col < min(minCol+cols, m.cols); col++ {
			m.ground[m.index(col, row)] = idx
		}
	}
	return nil
}

func (m *Map) intern(ter Terrain) (uint8, error) {
	if ter.ID == "" {
		return 0, fmt.Errorf("tile: terrain needs an id")
	}
	for i, existing := range m.palette {
		if existing.ID == ter.ID {
			return uint8(i), nil
		}
	}
	if len(m.palette) >= maxPaletteSize {
		return 0, fmt.Errorf("tile: palette full at %d terrains", maxPaletteSize)
	}
	m.palette = append(m.palette, ter)
	return uint8(len(m.palette) - 1), nil
}

// PlaceObject puts an object on col,row, replacing any existing one.
func (m *Map) PlaceObject(col, row int, obj Object) error {
	if !m.InBounds(col, row) {
		return fmt.Errorf("tile: cell %d,%d out of bounds", col, row)
	}
	if obj.ID == "" {
		return fmt.Errorf("tile: object needs an id")
	}
	m.objects[m.index(col, row)] = obj
	return nil
}

// RemoveObject clears the object at col,row, reporting whether one was
// there.
func (m *Map) RemoveObject(col, row int) bool {
	if !m.InBounds(col, row) {
		return false
	}
	idx := m.index(col, row)
	if _, ok := m.objects[idx]; !ok {
		return false
	}
	delete(m.objects, idx)
	return true
}

// ObjectCount returns the number of placed objects.
func (m *Map) ObjectCount() int { return len(m.objects) }
