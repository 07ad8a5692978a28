package domain

import (
	"testing"
	"time"
)

// --- NextRate Tests ---

func TestConfig_NextRate_ZeroPercent(t *testing.T) {
	cfg := WaterfallConfig{RateIncreasePerRoundPercent: 0}

	if got := cfg.NextRate(100000); got != 100000 {
		t.Errorf("expected rate unchanged, got %d", got)
	}
}

func TestConfig_NextRate_FivePercent(t *testing.T) {
	cfg := WaterfallConfig{RateIncreasePerRoundPercent: 5}

	// 100000 * 1.05 = 105000
	if got := cfg.NextRate(100000); got != 105000 {
		t.Errorf("expected 105000, got %d", got)
	}
}

func TestConfig_NextRate_RoundsHalfUp(t *testing.T) {
	cfg := WaterfallConfig{RateIncreasePerRoundPercent: 5}

	// 101 * 1.05 = 106.05 → 106
	if got := cfg.NextRate(101); got != 106 {
		t.Errorf("expected 106, got %d", got)
	}

	// 110 * 1.05 = 115.5 → 116 (half up)
	if got := cfg.NextRate(110); got != 116 {
		t.Errorf("expected 116, got %d", got)
	}
}

func TestConfig_NextRate_Compounds(t *testing.T) {
	cfg := WaterfallConfig{RateIncreasePerRoundPercent: 10}

	rate := cfg.NextRate(100000) // 110000
	rate = cfg.NextRate(rate)    // 121000

	if rate != 121000 {
		t.Errorf("expected 121000 after two rounds, got %d", rate)
	}
}

func TestConfig_NextRate_NoFractionalCents(t *testing.T) {
	cfg := WaterfallConfig{RateIncreasePerRoundPercent: 3.5}

	// 99999 * 1.035 = 103498.965 → 103499
	if got := cfg.NextRate(99999); got != 103499 {
		t.Errorf("expected 103499, got %d", got)
	}
}

// --- StepTimeout Tests ---

func TestConfig_StepTimeout(t *testing.T) {
	cfg := WaterfallConfig{TimeoutMinutes: 15}

	if got := cfg.StepTimeout(); got != 15*time.Minute {
		t.Errorf("expected 15m, got %v", got)
	}
}

func TestConfig_StepTimeout_DefaultsWhenUnset(t *testing.T) {
	cfg := WaterfallConfig{}

	if got := cfg.StepTimeout(); got != DefaultTimeoutMinutes*time.Minute {
		t.Errorf("expected default timeout, got %v", got)
	}
}

// --- Merge Tests ---

func TestConfig_Merge_EmptyOverrides(t *testing.T) {
	base := DefaultConfig()

	merged := base.Merge(ConfigOverrides{})

	if merged != base {
		t.Errorf("expected defaults unchanged, got %+v", merged)
	}
}

func TestConfig_Merge_PartialOverrides(t *testing.T) {
	base := DefaultConfig()
	timeout := 10
	autoEscalate := false

	merged := base.Merge(ConfigOverrides{
		TimeoutMinutes: &timeout,
		AutoEscalate:   &autoEscalate,
	})

	if merged.TimeoutMinutes != 10 {
		t.Errorf("expected timeout 10, got %d", merged.TimeoutMinutes)
	}
	if merged.AutoEscalate {
		t.Error("expected auto_escalate false")
	}
	if merged.MaxCarriers != base.MaxCarriers {
		t.Error("max_carriers should keep the default")
	}
}

func TestConfig_Merge_IgnoresInvalidOverrides(t *testing.T) {
	base := DefaultConfig()
	timeout := 0
	maxCarriers := -1

	merged := base.Merge(ConfigOverrides{
		TimeoutMinutes: &timeout,
		MaxCarriers:    &maxCarriers,
	})

	if merged.TimeoutMinutes != base.TimeoutMinutes {
		t.Error("non-positive timeout override should be ignored")
	}
	if merged.MaxCarriers != base.MaxCarriers {
		t.Error("non-positive max_carriers override should be ignored")
	}
}
