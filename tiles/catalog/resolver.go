// Package catalog resolves designer-authored tile definitions into the
// terrain and object records the world builds maps from. Definitions ship
// with built-in defaults; on-disk catalogs override them by id.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"drift-and-delve/server/internal/tile"
)

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

// Resolver merges the built-in definitions with one or more catalog sources
// into a stable lookup table. Call Reload to pick up on-disk changes (used
// for dev hot reload).
type Resolver struct {
	mu       sync.RWMutex
	sources  []source
	terrains map[string]tile.Terrain
	objects  map[string]tile.Object
}

// DefaultPaths returns the canonical catalog locations relative to the
// server module root. Callers may pass these to Load.
func DefaultPaths() []string {
	candidates := []string{
		filepath.Join("config", "tiles", "definitions.json"),
		filepath.Join("..", "config", "tiles", "definitions.json"),
	}

	paths := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		cleaned := filepath.Clean(candidate)
		if _, duplicate := seen[cleaned]; duplicate {
			continue
		}
		seen[cleaned] = struct{}{}
		paths = append(paths, cleaned)
	}
	return paths
}

// Load constructs a Resolver backed by the provided catalog file paths.
// Missing files are skipped, so passing DefaultPaths() works in a fresh
// checkout with no config directory.
func Load(paths ...string) (*Resolver, error) {
	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		sources = append(sources, fileSource{path: trimmed})
	}
	return NewResolver(sources...)
}

// NewResolver constructs a Resolver from arbitrary sources. Tests can
// supply in-memory sources while production code uses fileSource.
func NewResolver(sources ...source) (*Resolver, error) {
	r := &Resolver{
		sources: append([]source(nil), sources...),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses all catalog sources over the built-in defaults. Later
// sources override earlier ones to support local overlays during
// development.
func (r *Resolver) Reload() error {
	if r == nil {
		return nil
	}
	terrains, objects := builtinDefinitions()
	for _, src := range r.sources {
		data, err := src.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("catalog: failed loading %s: %w", src.Path(), err)
		}
		if err := mergeDefinitions(data, src.Path(), terrains, objects); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.terrains = terrains
	r.objects = objects
	r.mu.Unlock()
	return nil
}

func mergeDefinitions(data []byte, path string, terrains map[string]tile.Terrain, objects map[string]tile.Object) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	var file struct {
		Terrains json.RawMessage `json:"terrains"`
		Objects  json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return fmt.Errorf("catalog: failed parsing %s: %w", path, err)
	}

	terrainDocs, err := decodeTerrains(file.Terrains)
	if err != nil {
		return fmt.Errorf("catalog: failed parsing terrains in %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(terrainDocs))
	for _, doc := range terrainDocs {
		id := strings.TrimSpace(doc.ID)
		if id == "" {
			return fmt.Errorf("catalog: terrain missing id in %s", path)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("catalog: duplicate terrain id %q in %s", id, path)
		}
		seen[id] = struct{}{}
		if doc.MoveCost < 0 {
			return fmt.Errorf("catalog: terrain %q has negative moveCost %v", id, doc.MoveCost)
		}
		cost := doc.MoveCost
		if cost == 0 {
			cost = 1
		}
		terrains[id] = tile.Terrain{ID: id, Walkable: doc.Walkable, MoveCost: cost}
	}

	objectDocs, err := decodeObjects(file.Objects)
	if err != nil {
		return fmt.Errorf("catalog: failed parsing objects in %s: %w", path, err)
	}
	seen = make(map[string]struct{}, len(objectDocs))
	for _, doc := range objectDocs {
		id := strings.TrimSpace(doc.ID)
		if id == "" {
			return fmt.Errorf("catalog: object missing id in %s", path)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("catalog: duplicate object id %q in %s", id, path)
		}
		seen[id] = struct{}{}
		if doc.Passable && doc.Door {
			return fmt.Errorf("catalog: object %q sets both passable and door; passable objects never block", id)
		}
		objects[id] = tile.Object{ID: id, Passable: doc.Passable, Door: doc.Door}
	}
	return nil
}

// Terrain returns the terrain definition for the provided id.
func (r *Resolver) Terrain(id string) (tile.Terrain, bool) {
	if r == nil {
		return tile.Terrain{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ter, ok := r.terrains[id]
	return ter, ok
}

// Object returns the object definition for the provided id.
func (r *Resolver) Object(id string) (tile.Object, bool) {
	if r == nil {
		return tile.Object{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[id]
	return obj, ok
}

// Terrains returns a copy of the resolved terrain table keyed by id.
func (r *Resolver) Terrains() map[string]tile.Terrain {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]tile.Terrain, len(r.terrains))
	for id, ter := range r.terrains {
		out[id] = ter
	}
	return out
}

// Objects returns a copy of the resolved object table keyed by id.
func (r *Resolver) Objects() map[string]tile.Object {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]tile.Object, len(r.objects))
	for id, obj := range r.objects {
		out[id] = obj
	}
	return out
}

func builtinDefinitions() (map[string]tile.Terrain, map[string]tile.Object) {
	terrains := map[string]tile.Terrain{
		"grass":       {ID: "grass", Walkable: true, MoveCost: 1},
		"sand":        {ID: "sand", Walkable: true, MoveCost: 1.2},
		"mud":         {ID: "mud", Walkable: true, MoveCost: 2.5},
		"stone-floor": {ID: "stone-floor", Walkable: true, MoveCost: 1},
		"water":       {ID: "water", Walkable: false, MoveCost: 1},
	}
	objects := map[string]tile.Object{
		"wall":  {ID: "wall"},
		"door":  {ID: "door", Door: true},
		"crate": {ID: "crate"},
		"shrub": {ID: "shrub", Passable: true},
	}
	return terrains, objects
}

func decodeTerrains(data json.RawMessage) ([]TerrainDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var docs []TerrainDocument
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	case '{':
		var object map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &object); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(object))
		for id := range object {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		docs := make([]TerrainDocument, 0, len(ids))
		for _, id := range ids {
			var doc TerrainDocument
			if err := json.Unmarshal(object[id], &doc); err != nil {
				return nil, fmt.Errorf("terrain %q: %w", id, err)
			}
			if doc.ID == "" {
				doc.ID = id
			} else if doc.ID != id {
				return nil, fmt.Errorf("terrain id %q does not match key %q", doc.ID, id)
			}
			docs = append(docs, doc)
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("unexpected json token %q", string(trimmed[:1]))
	}
}

func decodeObjects(data json.RawMessage) ([]ObjectDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var docs []ObjectDocument
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	case '{':
		var object map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &object); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(object))
		for id := range object {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		docs := make([]ObjectDocument, 0, len(ids))
		for _, id := range ids {
			var doc ObjectDocument
			if err := json.Unmarshal(object[id], &doc); err != nil {
				return nil, fmt.Errorf("object %q: %w", id, err)
			}
			if doc.ID == "" {
				doc.ID = id
			} else if doc.ID != id {
				return nil, fmt.Errorf("object id %q does not match key %q", doc.ID, id)
			}
			docs = append(docs, doc)
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("unexpected json token %q", string(trimmed[:1]))
	}
}
