package world

import (
	"strings"

	"drift-and-delve/server/internal/nav"
)

const (
	DefaultSeed       = "prototype"
	DefaultCols       = 48
	DefaultRows       = 36
	DefaultAgentCount = 6
	DefaultBuildings  = 4
	DefaultWaterPools = 3
	DefaultMudPatches = 5

	maxGridCols   = 256
	maxGridRows   = 256
	maxAgentCount = 64
)

// Config describes one world: the deterministic seed, the grid extent, and
// how much of each generated feature the map carries.
type Config struct {
	Seed        string  `json:"seed"`
	Cols        int     `json:"cols"`
	Rows        int     `json:"rows"`
	TileSize    float64 `json:"tileSize"`
	AgentCount  int     `json:"agentCount"`
	Buildings   int     `json:"buildings"`
	WaterPools  int     `json:"waterPools"`
	MudPatches  int     `json:"mudPatches"`
	CatalogPath string  `json:"catalogPath,omitempty"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	if normalized.Cols <= 0 {
		normalized.Cols = DefaultCols
	}
	if normalized.Cols > maxGridCols {
		normalized.Cols = maxGridCols
	}
	if normalized.Rows <= 0 {
		normalized.Rows = DefaultRows
	}
	if normalized.Rows > maxGridRows {
		normalized.Rows = maxGridRows
	}
	if normalized.TileSize <= 0 {
		normalized.TileSize = nav.DefaultTileSize
	}
	if normalized.AgentCount < 0 {
		normalized.AgentCount = 0
	}
	if normalized.AgentCount > maxAgentCount {
		normalized.AgentCount = maxAgentCount
	}
	if normalized.Buildings < 0 {
		normalized.Buildings = 0
	}
	if normalized.WaterPools < 0 {
		normalized.WaterPools = 0
	}
	if normalized.MudPatches < 0 {
		normalized.MudPatches = 0
	}
	normalized.CatalogPath = strings.TrimSpace(normalized.CatalogPath)
	return normalized
}

// Normalized returns the configuration with defaults and clamps applied.
func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

// DefaultConfig returns the configuration used when no overrides arrive.
func DefaultConfig() Config {
	return Config{
		Seed:       DefaultSeed,
		Cols:       DefaultCols,
		Rows:       DefaultRows,
		TileSize:   nav.DefaultTileSize,
		AgentCount: DefaultAgentCount,
		Buildings:  DefaultBuildings,
		WaterPools: DefaultWaterPools,
		MudPatches: DefaultMudPatches,
	}
}
