package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"drift-and-delve/server/internal/tile"
)

type memorySource struct {
	path string
	data []byte
	err  error
}

func (m memorySource) Load() ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]byte(nil), m.data...), nil
}

func (m memorySource) Path() string {
	return m.path
}

func TestResolverBuiltins(t *testing.T) {
	resolver, err := NewResolver()
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	grass, ok := resolver.Terrain("grass")
	if !ok || !grass.Walkable || grass.MoveCost != 1 {
		t.Fatalf("builtin grass = %+v ok=%v", grass, ok)
	}
	water, ok := resolver.Terrain("water")
	if !ok || water.Walkable {
		t.Fatalf("builtin water = %+v ok=%v", water, ok)
	}
	door, ok := resolver.Object("door")
	if !ok || !door.Door || door.Passable {
		t.Fatalf("builtin door = %+v ok=%v", door, ok)
	}
	if _, ok := resolver.Terrain("lava"); ok {
		t.Fatalf("unknown terrain should not resolve")
	}
}

func TestResolverLoadArraySyntax(t *testing.T) {
	data := []byte(`{
		"terrains": [
			{"id": "lava", "walkable": false},
			{"id": "snow", "walkable": true, "moveCost": 1.8}
		],
		"objects": [
			{"id": "gate", "door": true}
		]
	}`)

	resolver, err := NewResolver(memorySource{path: "inline.json", data: data})
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	snow, ok := resolver.Terrain("snow")
	if !ok || snow.MoveCost != 1.8 {
		t.Fatalf("snow = %+v ok=%v", snow, ok)
	}
	if lava, ok := resolver.Terrain("lava"); !ok || lava.Walkable || lava.MoveCost != 1 {
		t.Fatalf("lava should default moveCost to 1, got %+v ok=%v", lava, ok)
	}
	if gate, ok := resolver.Object("gate"); !ok || !gate.Door {
		t.Fatalf("gate = %+v ok=%v", gate, ok)
	}
	// Builtins survive alongside the overlay.
	if _, ok := resolver.Terrain("grass"); !ok {
		t.Fatalf("builtin grass lost after load")
	}
}

func TestResolverObjectSyntax(t *testing.T) {
	data := []byte(`{
		"terrains": {
			"ice": {"walkable": true, "moveCost": 0.8},
			"grass": {"id": "grass", "walkable": true, "moveCost": 1.5}
		}
	}`)

	resolver, err := NewResolver(memorySource{path: "inline.json", data: data})
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	if ice, ok := resolver.Terrain("ice"); !ok || ice.MoveCost != 0.8 {
		t.Fatalf("keyed terrain not resolved: %+v ok=%v", ice, ok)
	}
	// Overlay overrides the builtin by id.
	if grass, _ := resolver.Terrain("grass"); grass.MoveCost != 1.5 {
		t.Fatalf("overlay should override builtin grass, got %+v", grass)
	}

	mismatched := []byte(`{"terrains": {"ice": {"id": "snow", "walkable": true}}}`)
	if _, err := NewResolver(memorySource{path: "bad.json", data: mismatched}); err == nil {
		t.Fatalf("mismatched key and id must fail")
	}
}

func TestResolverOverlayOrder(t *testing.T) {
	base := memorySource{path: "base.json", data: []byte(`{"terrains": [{"id": "snow", "walkable": true, "moveCost": 2}]}`)}
	overlay := memorySource{path: "overlay.json", data: []byte(`{"terrains": [{"id": "snow", "walkable": true, "moveCost": 3}]}`)}

	resolver, err := NewResolver(base, overlay)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	if snow, _ := resolver.Terrain("snow"); snow.MoveCost != 3 {
		t.Fatalf("later source should win, got %+v", snow)
	}
}

func TestResolverReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "definitions.json")
	if err := os.WriteFile(path, []byte(`{"terrains": [{"id": "snow", "walkable": true}]}`), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	resolver, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := resolver.Terrain("snow"); !ok {
		t.Fatalf("expected snow from disk")
	}

	if err := os.WriteFile(path, []byte(`{"terrains": [{"id": "ash", "walkable": true, "moveCost": 1.4}]}`), 0o644); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}
	if err := resolver.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if _, ok := resolver.Terrain("snow"); ok {
		t.Fatalf("stale terrain survived reload")
	}
	if ash, ok := resolver.Terrain("ash"); !ok || ash.MoveCost != 1.4 {
		t.Fatalf("ash = %+v ok=%v", ash, ok)
	}
}

func TestResolverValidation(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"missing terrain id", `{"terrains": [{"walkable": true}]}`, "missing id"},
		{"duplicate terrain id", `{"terrains": [{"id": "snow", "walkable": true}, {"id": "snow"}]}`, "duplicate terrain id"},
		{"negative move cost", `{"terrains": [{"id": "snow", "walkable": true, "moveCost": -2}]}`, "negative moveCost"},
		{"missing object id", `{"objects": [{"door": true}]}`, "missing id"},
		{"duplicate object id", `{"objects": [{"id": "gate"}, {"id": "gate"}]}`, "duplicate object id"},
		{"passable door", `{"objects": [{"id": "gate", "door": true, "passable": true}]}`, "both passable and door"},
		{"malformed json", `{"terrains": [`, "failed parsing"},
		{"wrong section shape", `{"terrains": 7}`, "failed parsing terrains"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewResolver(memorySource{path: "bad.json", data: []byte(tc.data)})
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadIgnoresMissingFiles(t *testing.T) {
	resolver, err := Load(filepath.Join(t.TempDir(), "nope.json"), "  ")
	if err != nil {
		t.Fatalf("missing files should be skipped: %v", err)
	}
	if _, ok := resolver.Terrain("grass"); !ok {
		t.Fatalf("builtins should still resolve")
	}

	failing := memorySource{path: "broken.json", err: errors.New("disk on fire")}
	if _, err := NewResolver(failing); err == nil {
		t.Fatalf("non-notexist load errors must propagate")
	}
}

func TestResolverTableCopies(t *testing.T) {
	resolver, err := NewResolver()
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	terrains := resolver.Terrains()
	terrains["grass"] = tile.Terrain{ID: "grass", Walkable: true, MoveCost: 99}
	if grass, _ := resolver.Terrain("grass"); grass.MoveCost != 1 {
		t.Fatalf("caller mutation leaked into resolver: %+v", grass)
	}
	if len(resolver.Objects()) == 0 {
		t.Fatalf("expected builtin objects")
	}
}

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()
	if len(paths) == 0 {
		t.Fatalf("expected candidate paths")
	}
	seen := map[string]struct{}{}
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			t.Fatalf("duplicate path %q", p)
		}
		seen[p] = struct{}{}
		if !strings.Contains(p, filepath.Join("tiles", "definitions.json")) {
			t.Fatalf("unexpected path %q", p)
		}
	}
}
