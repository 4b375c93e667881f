package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for session data and logs.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LibraryPath string `toml:"library_path"`
	AnglesPath  string `toml:"angles_path"` // optional; empty uses the built-in tables
	LogDir      string `toml:"log_dir"`
}

// Source contains configuration for the external keypoint stream.
type Source struct {
	Kind          string `toml:"kind"`    // "stdin", "socket", or "replay"
	Address       string `toml:"address"` // unix socket path or host:port
	ReplayPath    string `toml:"replay_path"`
	WaitCamera    bool   `toml:"wait_camera"`
	CameraTimeout int    `toml:"camera_timeout"` // seconds
}

// Detection contains thresholds for pose matching and gating.
type Detection struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	ConfidenceFloor     float64 `toml:"confidence_floor"`
	HysteresisEpsilon   float64 `toml:"hysteresis_epsilon"`
	ScaleEpsilon        float64 `toml:"scale_epsilon"`
	MinHoldSeconds      float64 `toml:"min_hold_seconds"`
}

// Narrator contains configuration for spoken feedback.
type Narrator struct {
	Enabled              bool     `toml:"enabled"`
	Command              []string `toml:"command"`
	CooldownSeconds      float64  `toml:"cooldown_seconds"`
	AnnouncePoseEntry    bool     `toml:"announce_pose_entry"`
	EntryCooldownSeconds float64  `toml:"entry_cooldown_seconds"`
	SpeakSummary         bool     `toml:"speak_summary"`
}

// Tracking contains configuration for the performance record.
type Tracking struct {
	WindowDays                 int     `toml:"window_days"`
	ImprovementThreshold       float64 `toml:"improvement_threshold"`
	RecordEveryNFrames         int     `toml:"record_every_n_frames"`        // 0 disables frame recording
	MeasurementIntervalSeconds float64 `toml:"measurement_interval_seconds"` // 0 journals every held cycle
}

// Archive contains configuration for the derived sqlite practice archive.
// The JSON documents under data_dir stay authoritative; the archive is an
// index rebuilt from them on demand.
type Archive struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for vinyasa.
//
// Configuration sections by subsystem:
//   - Paths: data directory, reference pose library, log directory
//   - Source: where keypoint frames come from (stdin/socket/replay)
//   - Detection: similarity threshold, confidence floor, hold time
//   - Narrator: speech command and cooldowns
//   - Tracking: rolling window, improvement threshold, frame sampling
//   - Archive: derived sqlite index for history and trend queries
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Source    Source    `toml:"source"`
	Detection Detection `toml:"detection"`
	Narrator  Narrator  `toml:"narrator"`
	Tracking  Tracking  `toml:"tracking"`
	Archive   Archive   `toml:"archive"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vinyasa/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/vinyasa/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vinyasa.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// SessionsDir returns the directory holding per-session recording documents.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.Paths.DataDir, "sessions")
}

// LockPath returns the lock file guarding exclusive session access to the
// data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "session.lock")
}

// EnsureDirectories creates required directories for session operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.SessionsDir(), c.Paths.LogDir}
	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.Archive.Path))
	}
	if strings.TrimSpace(c.Paths.LibraryPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.LibraryPath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
