// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all simulation settings.
//
// IMPORTANT: when changing values, only modify this file.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// FIELD CONFIGURATION
// =============================================================================

// FieldConfig holds the battle grid's dimensions.
type FieldConfig struct {
	Width    int
	Height   int
	TileSize int
}

// DefaultField returns the default field configuration (6x3, matching the
// standard two-team grid from spec.md §3).
func DefaultField() FieldConfig {
	return FieldConfig{
		Width:    6,
		Height:   3,
		TileSize: 40,
	}
}

// FieldFromEnv returns field configuration with environment variable
// overrides.
func FieldFromEnv() FieldConfig {
	cfg := DefaultField()

	if w := getEnvInt("FIELD_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("FIELD_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if ts := getEnvInt("FIELD_TILE_SIZE", 0); ts > 0 {
		cfg.TileSize = ts
	}

	return cfg
}

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the deterministic scheduler's timing parameters.
type SimConfig struct {
	TickRate            int // ticks per second
	RollbackWindow      int // max frames the snapshot buffer can rewind
	CounterWindowFrames int // time-freeze counter-window length, in ticks
	InputDelayFrames    int // PlayerInputBuffer's fixed input delay
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:            60,
		RollbackWindow:      8,
		CounterWindowFrames: 60,
		InputDelayFrames:    2,
	}
}

// SimFromEnv returns simulation configuration with environment variable
// overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if tr := getEnvInt("SIM_TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if rw := getEnvInt("SIM_ROLLBACK_WINDOW", 0); rw > 0 {
		cfg.RollbackWindow = rw
	}
	if cw := getEnvInt("SIM_COUNTER_WINDOW_FRAMES", 0); cw > 0 {
		cfg.CounterWindowFrames = cw
	}
	if id := getEnvInt("SIM_INPUT_DELAY_FRAMES", -1); id >= 0 {
		cfg.InputDelayFrames = id
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls DoS protection and performance limits across the
// entity/action/VM/snapshot arenas.
type ResourceLimits struct {
	MaxEntities     int
	MaxActions      int
	MaxScriptVMs    int
	MaxSnapshots    int
	MaxDefenseRules int
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxEntities:     256,
		MaxActions:      512,
		MaxScriptVMs:    64,
		MaxSnapshots:    64,
		MaxDefenseRules: 32,
	}
}

// LimitsFromEnv returns resource limits with environment variable
// overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if v := getEnvInt("LIMIT_MAX_ENTITIES", 0); v > 0 {
		cfg.MaxEntities = v
	}
	if v := getEnvInt("LIMIT_MAX_ACTIONS", 0); v > 0 {
		cfg.MaxActions = v
	}
	if v := getEnvInt("LIMIT_MAX_SCRIPT_VMS", 0); v > 0 {
		cfg.MaxScriptVMs = v
	}
	if v := getEnvInt("LIMIT_MAX_SNAPSHOTS", 0); v > 0 {
		cfg.MaxSnapshots = v
	}
	if v := getEnvInt("LIMIT_MAX_DEFENSE_RULES", 0); v > 0 {
		cfg.MaxDefenseRules = v
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete battle-core configuration.
type AppConfig struct {
	Field  FieldConfig
	Sim    SimConfig
	Limits ResourceLimits
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Field:  FieldFromEnv(),
		Sim:    SimFromEnv(),
		Limits: LimitsFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
