package nav

import (
	"reflect"
	"testing"
)

func TestWalkableTileRule(t *testing.T) {
	m := parseFixture(t,
		".#~",
		"DBp",
	)
	cases := []struct {
		name string
		col  int
		row  int
		opts SearchOptions
		want bool
	}{
		{"open floor", 0, 0, SearchOptions{}, true},
		{"wall terrain", 1, 0, SearchOptions{}, false},
		{"water terrain", 2, 0, SearchOptions{}, false},
		{"closed door", 0, 1, SearchOptions{}, false},
		{"door under policy", 0, 1, SearchOptions{CanOpenDoors: true}, true},
		{"boulder", 1, 1, SearchOptions{}, false},
		{"boulder under door policy", 1, 1, SearchOptions{CanOpenDoors: true}, false},
		{"passable object", 2, 1, SearchOptions{}, true},
		{"outside map", -1, 0, SearchOptions{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := walkableTile(m, tc.col, tc.row, tc.opts); got != tc.want {
				t.Fatalf("walkableTile(%d,%d) = %v, want %v", tc.col, tc.row, got, tc.want)
			}
		})
	}
}

func TestClosestWalkable(t *testing.T) {
	m := parseFixture(t,
		"###",
		"#B#",
		"...",
	)

	if got, ok := ClosestWalkable(m, GridPos{Col: 0, Row: 2}, SearchOptions{}, 3); !ok || (got != GridPos{Col: 0, Row: 2}) {
		t.Fatalf("walkable origin should return itself, got %+v ok=%v", got, ok)
	}

	got, ok := ClosestWalkable(m, GridPos{Col: 1, Row: 1}, SearchOptions{}, 3)
	if !ok {
		t.Fatalf("expected a walkable neighbor within 3 rings")
	}
	// Ring cells are scanned top to bottom, left to right; (0,2) is the
	// first open one.
	if (got != GridPos{Col: 0, Row: 2}) {
		t.Fatalf("closest walkable = %+v, want {0 2}", got)
	}

	walled := parseFixture(t,
		"###",
		"###",
	)
	if _, ok := ClosestWalkable(walled, GridPos{Col: 1, Row: 0}, SearchOptions{}, 4); ok {
		t.Fatalf("fully walled map should exhaust the ring limit")
	}

	doors := parseFixture(t,
		"##",
		"D#",
	)
	if _, ok := ClosestWalkable(doors, GridPos{Col: 1, Row: 0}, SearchOptions{}, 2); ok {
		t.Fatalf("closed door should not count without door policy")
	}
	if got, ok := ClosestWalkable(doors, GridPos{Col: 1, Row: 0}, SearchOptions{CanOpenDoors: true}, 2); !ok || (got != GridPos{Col: 0, Row: 1}) {
		t.Fatalf("door policy should admit the door tile, got %+v ok=%v", got, ok)
	}
}

func TestBlockedCells(t *testing.T) {
	m := parseFixture(t,
		"....",
		"....",
	)

	if got := BlockedCells(m, nil); got != nil {
		t.Fatalf("no positions should yield nil, got %+v", got)
	}

	positions := []Point{
		tileCenter(m, 1, 0),
		tileCenter(m, 2, 1),
		{X: 1, Y: 1}, // also tile (0,0)
	}
	got := BlockedCells(m, positions)
	want := map[GridPos]struct{}{
		{Col: 1, Row: 0}: {},
		{Col: 2, Row: 1}: {},
		{Col: 0, Row: 0}: {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("blocked cells = %+v, want %+v", got, want)
	}

	excluded := BlockedCells(m, positions, GridPos{Col: 1, Row: 0}, GridPos{Col: 0, Row: 0})
	if len(excluded) != 1 {
		t.Fatalf("exclusions not applied: %+v", excluded)
	}
	if _, blocked := excluded[GridPos{Col: 2, Row: 1}]; !blocked {
		t.Fatalf("surviving cell missing from %+v", excluded)
	}

	if got := BlockedCells(m, positions[:1], GridPos{Col: 1, Row: 0}); got != nil {
		t.Fatalf("fully excluded set should collapse to nil, got %+v", got)
	}
}

func TestLocateCenterRoundTrip(t *testing.T) {
	m := parseFixture(t,
		"....",
		"....",
		"....",
	)
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			pos := GridPos{Col: col, Row: row}
			if got := Locate(m, Center(m, pos)); got != pos {
				t.Fatalf("Locate(Center(%+v)) = %+v", pos, got)
			}
		}
	}

	cases := []struct {
		p    Point
		want GridPos
	}{
		{Point{X: 0, Y: 0}, GridPos{Col: 0, Row: 0}},
		{Point{X: 31.9, Y: 31.9}, GridPos{Col: 0, Row: 0}},
		{Point{X: 32, Y: 32}, GridPos{Col: 1, Row: 1}},
		{Point{X: -0.5, Y: 10}, GridPos{Col: -1, Row: 0}},
		{Point{X: 10, Y: -40}, GridPos{Col: 0, Row: -2}},
	}
	for _, tc := range cases {
		if got := Locate(m, tc.p); got != tc.want {
			t.Fatalf("Locate(%+v) = %+v, want %+v", tc.p, got, tc.want)
		}
	}
}
