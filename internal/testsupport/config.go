package testsupport

import (
	"path/filepath"
	"testing"

	"vinyasa/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The narrator is disabled and its command stubbed so tests never shell out
// to a real voice; everything else keeps repository defaults.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LibraryPath = filepath.Join(base, "data", "poses.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Archive.Path = filepath.Join(base, "data", "practice.db")
	cfgVal.Narrator.Enabled = false
	cfgVal.Narrator.SpeakSummary = false
	cfgVal.Narrator.Command = []string{"true"}

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCooldownSeconds overrides the feedback cooldown window.
func WithCooldownSeconds(seconds float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Narrator.CooldownSeconds = seconds
	}
}

// WithMinHoldSeconds overrides the minimum pose hold gate.
func WithMinHoldSeconds(seconds float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Detection.MinHoldSeconds = seconds
	}
}

// WithConfidenceFloor overrides the confidence gate.
func WithConfidenceFloor(floor float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Detection.ConfidenceFloor = floor
	}
}

// WithImprovementThreshold overrides the improvement-over-average margin.
func WithImprovementThreshold(degrees float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tracking.ImprovementThreshold = degrees
	}
}

// WithArchiveDisabled turns the sqlite practice archive off.
func WithArchiveDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
