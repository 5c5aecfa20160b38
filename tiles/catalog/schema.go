package catalog

// TerrainDocument models one terrain entry in config/tiles/definitions.json.
// It is shared with the schema generator so designers get a machine-readable
// contract for validation and editor tooling.
type TerrainDocument struct {
	ID       string  `json:"id" jsonschema:"title=Terrain id,pattern=^[a-z0-9-]+$,description=Designer facing identifier for the terrain kind"`
	Walkable bool    `json:"walkable,omitempty" jsonschema:"description=Whether agents may stand on this terrain"`
	MoveCost float64 `json:"moveCost,omitempty" jsonschema:"minimum=0,description=Cost factor for stepping onto this terrain; omitted or zero means 1"`
}

// ObjectDocument models one placeable object entry.
type ObjectDocument struct {
	ID       string `json:"id" jsonschema:"title=Object id,pattern=^[a-z0-9-]+$,description=Designer facing identifier for the object kind"`
	Passable bool   `json:"passable,omitempty" jsonschema:"description=Whether agents may walk through the object"`
	Door     bool   `json:"door,omitempty" jsonschema:"description=Whether the object opens for agents that handle doors"`
}

// FileDefinitions represents the contents of config/tiles/definitions.json.
// The loader accepts each section as either an array or an object keyed by
// id; the schema models the canonical array format authored by designers.
type FileDefinitions struct {
	Terrains []TerrainDocument `json:"terrains,omitempty" jsonschema:"description=Terrain kinds available to map generation"`
	Objects  []ObjectDocument  `json:"objects,omitempty" jsonschema:"description=Object kinds available to map generation"`
}
