package tile

import (
	"fmt"
	"reflect"
	"testing"
)

var (
	grass = Terrain{ID: "grass", Walkable: true, MoveCost: 1}
	mud   = Terrain{ID: "mud", Walkable: true, MoveCost: 2.5}
	water = Terrain{ID: "water"}
)

func TestNewMapValidation(t *testing.T) {
	cases := []struct {
		name string
		cols int
		rows int
		size float64
		fill Terrain
	}{
		{"zero cols", 0, 4, 32, grass},
		{"negative rows", 4, -1, 32, grass},
		{"zero tile size", 4, 4, 0, grass},
		{"missing fill id", 4, 4, 32, Terrain{Walkable: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewMap(tc.cols, tc.rows, tc.size, tc.fill); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestTerrainInterning(t *testing.T) {
	m, err := NewMap(4, 4, 32, grass)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}

	if err := m.SetTerrain(1, 1, mud); err != nil {
		t.Fatalf("SetTerrain: %v", err)
	}
	if err := m.SetTerrain(2, 2, mud); err != nil {
		t.Fatalf("SetTerrain: %v", err)
	}
	if got := len(m.palette); got != 2 {
		t.Fatalf("palette size = %d, want 2 (mud interned once)", got)
	}

	walkable, cost := m.TerrainAt(1, 1)
	if !walkable || cost != 2.5 {
		t.Fatalf("TerrainAt(1,1) = %v,%v, want true,2.5", walkable, cost)
	}
	if ter, ok := m.Terrain(0, 0); !ok || ter.ID != "grass" {
		t.Fatalf("Terrain(0,0) = %+v,%v", ter, ok)
	}

	if walkable, _ := m.TerrainAt(-1, 0); walkable {
		t.Fatalf("out-of-bounds terrain must be unwalkable")
	}
	if err := m.SetTerrain(9, 9, mud); err == nil {
		t.Fatalf("out-of-bounds SetTerrain must fail")
	}
}

func TestPaletteOverflow(t *testing.T) {
	m, err := NewMap(2, 2, 32, grass)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	for i := 1; i < maxPaletteSize; i++ {
		ter := Terrain{ID: fmt.Sprintf("kind-%d", i), Walkable: true, MoveCost: 1}
		if err := m.SetTerrain(0, 0, ter); err != nil {
			t.Fatalf("intern %d: %v", i, err)
		}
	}
	if err := m.SetTerrain(0, 0, Terrain{ID: "overflow", Walkable: true}); err == nil {
		t.Fatalf("expected palette overflow error")
	}
	if err := m.SetTerrain(1, 1, grass); err != nil {
		t.Fatalf("existing terrain must still intern: %v", err)
	}
}

func TestFillRectClips(t *testing.T) {
	m, err := NewMap(5, 5, 32, grass)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	if err := m.FillRect(3, 3, 10, 10, water); err != nil {
		t.Fatalf("FillRect: %v", err)
	}
	if walkable, _ := m.TerrainAt(4, 4); walkable {
		t.Fatalf("filled cell should be water")
	}
	if walkable, _ := m.TerrainAt(2, 2); !walkable {
		t.Fatalf("cell outside the rect should stay grass")
	}
	if err := m.FillRect(-2, -2, 3, 3, mud); err != nil {
		t.Fatalf("negative origin should clip, not fail: %v", err)
	}
	if ter, _ := m.Terrain(0, 0); ter.ID != "mud" {
		t.Fatalf("clipped fill missed 0,0: %+v", ter)
	}
}

func TestObjects(t *testing.T) {
	m, err := NewMap(3, 3, 32, grass)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	door := Object{ID: "door", Door: true}
	if err := m.PlaceObject(1, 1, door); err != nil {
		t.Fatalf("PlaceObject: %v", err)
	}

	present, passable, isDoor := m.ObjectAt(1, 1)
	if !present || passable || !isDoor {
		t.Fatalf("ObjectAt(1,1) = %v,%v,%v", present, passable, isDoor)
	}
	if present, _, _ := m.ObjectAt(0, 0); present {
		t.Fatalf("empty cell reports an object")
	}
	if obj, ok := m.Object(1, 1); !ok || obj.ID != "door" {
		t.Fatalf("Object(1,1) = %+v,%v", obj, ok)
	}

	if err := m.PlaceObject(1, 1, Object{ID: "wall"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if obj, _ := m.Object(1, 1); obj.ID != "wall" {
		t.Fatalf("replacement did not take: %+v", obj)
	}

	if err := m.PlaceObject(5, 5, door); err == nil {
		t.Fatalf("out-of-bounds placement must fail")
	}
	if err := m.PlaceObject(0, 0, Object{}); err == nil {
		t.Fatalf("object without id must fail")
	}

	if !m.RemoveObject(1, 1) {
		t.Fatalf("RemoveObject should report the removal")
	}
	if m.RemoveObject(1, 1) || m.RemoveObject(9, 9) {
		t.Fatalf("second and out-of-bounds removals should report false")
	}
	if m.ObjectCount() != 0 {
		t.Fatalf("object count = %d after removal", m.ObjectCount())
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	build := func() *Map {
		m, err := NewMap(3, 2, 32, grass)
		if err != nil {
			t.Fatalf("NewMap: %v", err)
		}
		if err := m.SetTerrain(2, 1, mud); err != nil {
			t.Fatalf("SetTerrain: %v", err)
		}
		// Map iteration order differs between runs; snapshots must not.
		cells := [][2]int{{2, 0}, {0, 1}, {1, 0}}
		for _, c := range cells {
			if err := m.PlaceObject(c[0], c[1], Object{ID: "crate"}); err != nil {
				t.Fatalf("PlaceObject: %v", err)
			}
		}
		return m
	}

	a := build().Snapshot()
	b := build().Snapshot()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("snapshots diverge:\n%+v\n%+v", a, b)
	}

	if a.Cols != 3 || a.Rows != 2 || a.TileSize != 32 {
		t.Fatalf("snapshot header = %+v", a)
	}
	if len(a.Ground) != 6 || a.Ground[5] != 1 {
		t.Fatalf("ground encoding wrong: %+v", a.Ground)
	}
	if len(a.Terrains) != 2 || a.Terrains[1].ID != "mud" {
		t.Fatalf("palette encoding wrong: %+v", a.Terrains)
	}
	wantCells := [][2]int{{1, 0}, {2, 0}, {0, 1}}
	for i, obj := range a.Objects {
		if obj.Col != wantCells[i][0] || obj.Row != wantCells[i][1] {
			t.Fatalf("object %d at %d,%d, want %d,%d", i, obj.Col, obj.Row, wantCells[i][0], wantCells[i][1])
		}
	}
}
