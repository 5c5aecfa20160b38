package world

import (
	"fmt"
	"math/rand"

	"drift-and-delve/server/internal/nav"
	"drift-and-delve/server/internal/tile"
)

// Terrain and object identifiers the generator resolves from the catalog.
const (
	terrainGrass = "grass"
	terrainMud   = "mud"
	terrainWater = "water"
	terrainStone = "stone-floor"

	objectWall = "wall"
	objectDoor = "door"
)

const (
	mudMinSpan = 2
	mudMaxSpan = 5

	waterMinSpan = 2
	waterMaxSpan = 4

	buildingMinCols = 4
	buildingMaxCols = 7
	buildingMinRows = 4
	buildingMaxRows = 6

	edgeMargin        = 1
	spawnReserveTiles = 3

	placementAttemptFactor = 20
	spawnAttemptLimit      = 200
)

// generateMap builds the tile map from the normalized configuration. Every
// feature draws from its own subsystem RNG, so identical configurations
// always produce identical maps.
func (w *World) generateMap() (*tile.Map, error) {
	grass, err := w.terrainDef(terrainGrass)
	if err != nil {
		return nil, err
	}

	m, err := tile.NewMap(w.config.Cols, w.config.Rows, w.config.TileSize, grass)
	if err != nil {
		return nil, fmt.Errorf("world: new map: %w", err)
	}

	if err := w.paintMudPatches(m); err != nil {
		return nil, err
	}
	if err := w.paintWaterPools(m); err != nil {
		return nil, err
	}
	if err := w.placeBuildings(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (w *World) terrainDef(id string) (tile.Terrain, error) {
	ter, ok := w.catalog.Terrain(id)
	if !ok {
		return tile.Terrain{}, fmt.Errorf("world: terrain %q missing from catalog", id)
	}
	return ter, nil
}

func (w *World) objectDef(id string) (tile.Object, error) {
	obj, ok := w.catalog.Object(id)
	if !ok {
		return tile.Object{}, fmt.Errorf("world: object %q missing from catalog", id)
	}
	return obj, nil
}

// paintMudPatches stamps walkable-but-slow rectangles anywhere on the map.
// Overlaps are harmless, so patches are placed without rejection.
func (w *World) paintMudPatches(m *tile.Map) error {
	count := w.config.MudPatches
	if count <= 0 {
		return nil
	}
	mud, err := w.terrainDef(terrainMud)
	if err != nil {
		return err
	}

	rng := w.SubsystemRNG("terrain.mud")
	cols, rows := m.Dims()
	for i := 0; i < count; i++ {
		spanCols := randomSpan(rng, mudMinSpan, mudMaxSpan)
		spanRows := randomSpan(rng, mudMinSpan, mudMaxSpan)
		col := rng.Intn(max(cols-spanCols, 1))
		row := rng.Intn(max(rows-spanRows, 1))
		if err := m.FillRect(col, row, spanCols, spanRows, mud); err != nil {
			return fmt.Errorf("world: mud patch: %w", err)
		}
	}
	return nil
}

// paintWaterPools stamps unwalkable rectangles away from the spawn reserve.
func (w *World) paintWaterPools(m *tile.Map) error {
	count := w.config.WaterPools
	if count <= 0 {
		return nil
	}
	water, err := w.terrainDef(terrainWater)
	if err != nil {
		return err
	}

	rng := w.SubsystemRNG("terrain.water")
	cols, rows := m.Dims()
	placed := 0
	for attempts := 0; placed < count && attempts < count*placementAttemptFactor; attempts++ {
		spanCols := randomSpan(rng, waterMinSpan, waterMaxSpan)
		spanRows := randomSpan(rng, waterMinSpan, waterMaxSpan)
		maxCol := cols - edgeMargin - spanCols
		maxRow := rows - edgeMargin - spanRows
		if maxCol < edgeMargin || maxRow < edgeMargin {
			break
		}
		col := randomSpan(rng, edgeMargin, maxCol)
		row := randomSpan(rng, edgeMargin, maxRow)
		if rectTouchesSpawnReserve(m, col, row, spanCols, spanRows) {
			continue
		}
		if err := m.FillRect(col, row, spanCols, spanRows, water); err != nil {
			return fmt.Errorf("world: water pool: %w", err)
		}
		placed++
	}
	return nil
}

// placeBuildings stamps walled rectangles with a stone floor and exactly one
// door gap. Footprints must be clear with one tile of padding so buildings
// never fuse into larger blobs.
func (w *World) placeBuildings(m *tile.Map) error {
	count := w.config.Buildings
	if count <= 0 {
		return nil
	}
	stone, err := w.terrainDef(terrainStone)
	if err != nil {
		return err
	}
	wall, err := w.objectDef(objectWall)
	if err != nil {
		return err
	}
	door, err := w.objectDef(objectDoor)
	if err != nil {
		return err
	}

	rng := w.SubsystemRNG("structures.base")
	cols, rows := m.Dims()
	placed := 0
	for attempts := 0; placed < count && attempts < count*placementAttemptFactor; attempts++ {
		spanCols := randomSpan(rng, buildingMinCols, buildingMaxCols)
		spanRows := randomSpan(rng, buildingMinRows, buildingMaxRows)
		maxCol := cols - edgeMargin - spanCols
		maxRow := rows - edgeMargin - spanRows
		if maxCol < edgeMargin || maxRow < edgeMargin {
			break
		}
		col := randomSpan(rng, edgeMargin, maxCol)
		row := randomSpan(rng, edgeMargin, maxRow)
		if rectTouchesSpawnReserve(m, col, row, spanCols, spanRows) {
			continue
		}
		if !rectClearForBuilding(m, col, row, spanCols, spanRows) {
			continue
		}
		if err := stampBuilding(m, rng, stone, wall, door, col, row, spanCols, spanRows); err != nil {
			return err
		}
		placed++
	}
	return nil
}

func stampBuilding(m *tile.Map, rng *rand.Rand, stone tile.Terrain, wall, door tile.Object, col, row, spanCols, spanRows int) error {
	if err := m.FillRect(col, row, spanCols, spanRows, stone); err != nil {
		return fmt.Errorf("world: building floor: %w", err)
	}
	doorAt := pickDoorCell(rng, col, row, spanCols, spanRows)
	for _, cell := range perimeterCells(col, row, spanCols, spanRows) {
		def := wall
		if cell == doorAt {
			def = door
		}
		if err := m.PlaceObject(cell.Col, cell.Row, def); err != nil {
			return fmt.Errorf("world: building wall: %w", err)
		}
	}
	return nil
}

// pickDoorCell chooses a non-corner cell on a random side of the rectangle.
func pickDoorCell(rng *rand.Rand, col, row, spanCols, spanRows int) nav.GridPos {
	switch rng.Intn(4) {
	case 0:
		return nav.GridPos{Col: col + 1 + rng.Intn(spanCols-2), Row: row}
	case 1:
		return nav.GridPos{Col: col + 1 + rng.Intn(spanCols-2), Row: row + spanRows - 1}
	case 2:
		return nav.GridPos{Col: col, Row: row + 1 + rng.Intn(spanRows-2)}
	default:
		return nav.GridPos{Col: col + spanCols - 1, Row: row + 1 + rng.Intn(spanRows-2)}
	}
}

func perimeterCells(col, row, spanCols, spanRows int) []nav.GridPos {
	cells := make([]nav.GridPos, 0, 2*spanCols+2*spanRows-4)
	for c := col; c < col+spanCols; c++ {
		cells = append(cells, nav.GridPos{Col: c, Row: row})
		cells = append(cells, nav.GridPos{Col: c, Row: row + spanRows - 1})
	}
	for r := row + 1; r < row+spanRows-1; r++ {
		cells = append(cells, nav.GridPos{Col: col, Row: r})
		cells = append(cells, nav.GridPos{Col: col + spanCols - 1, Row: r})
	}
	return cells
}

func rectClearForBuilding(m *tile.Map, col, row, spanCols, spanRows int) bool {
	for r := row - 1; r <= row+spanRows; r++ {
		for c := col - 1; c <= col+spanCols; c++ {
			if !m.InBounds(c, r) {
				continue
			}
			walkable, _ := m.TerrainAt(c, r)
			if !walkable {
				return false
			}
			if present, _, _ := m.ObjectAt(c, r); present {
				return false
			}
		}
	}
	return true
}

// rectTouchesSpawnReserve rejects footprints that would cover the central
// tiles agents spawn on.
func rectTouchesSpawnReserve(m *tile.Map, col, row, spanCols, spanRows int) bool {
	cols, rows := m.Dims()
	minCol := cols/2 - spawnReserveTiles
	maxCol := cols/2 + spawnReserveTiles
	minRow := rows/2 - spawnReserveTiles
	maxRow := rows/2 + spawnReserveTiles
	return col <= maxCol && col+spanCols-1 >= minCol &&
		row <= maxRow && row+spanRows-1 >= minRow
}
