package config

import (
	"os"
	"testing"
)

func TestDefaultFieldMatchesStandardGrid(t *testing.T) {
	cfg := DefaultField()
	if cfg.Width != 6 || cfg.Height != 3 {
		t.Errorf("expected the standard 6x3 two-team grid, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestFieldFromEnvOverridesWidth(t *testing.T) {
	os.Setenv("FIELD_WIDTH", "8")
	defer os.Unsetenv("FIELD_WIDTH")

	cfg := FieldFromEnv()
	if cfg.Width != 8 {
		t.Errorf("expected FIELD_WIDTH override to apply, got %d", cfg.Width)
	}
	if cfg.Height != DefaultField().Height {
		t.Error("expected unrelated fields to keep their defaults")
	}
}

func TestSimFromEnvIgnoresInvalidValues(t *testing.T) {
	os.Setenv("SIM_TICK_RATE", "not-a-number")
	defer os.Unsetenv("SIM_TICK_RATE")

	cfg := SimFromEnv()
	if cfg.TickRate != DefaultSim().TickRate {
		t.Errorf("expected an unparsable override to fall back to the default, got %d", cfg.TickRate)
	}
}

func TestLimitsFromEnvZeroOrNegativeIgnored(t *testing.T) {
	os.Setenv("LIMIT_MAX_ENTITIES", "0")
	defer os.Unsetenv("LIMIT_MAX_ENTITIES")

	cfg := LimitsFromEnv()
	if cfg.MaxEntities != DefaultLimits().MaxEntities {
		t.Errorf("expected a zero override to be ignored, got %d", cfg.MaxEntities)
	}
}
