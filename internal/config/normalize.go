package config

import (
	"fmt"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeDetection()
	c.normalizeNarrator()
	c.normalizeTracking()
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LibraryPath) == "" {
		c.Paths.LibraryPath = defaultLibraryPath
	}
	if c.Paths.LibraryPath, err = expandPath(c.Paths.LibraryPath); err != nil {
		return fmt.Errorf("paths.library_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.AnglesPath) != "" {
		if c.Paths.AnglesPath, err = expandPath(c.Paths.AnglesPath); err != nil {
			return fmt.Errorf("paths.angles_path: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() error {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = defaultSourceKind
	}
	c.Source.Address = strings.TrimSpace(c.Source.Address)
	if c.Source.ReplayPath != "" {
		expanded, err := expandPath(c.Source.ReplayPath)
		if err != nil {
			return fmt.Errorf("source.replay_path: %w", err)
		}
		c.Source.ReplayPath = expanded
	}
	if c.Source.CameraTimeout <= 0 {
		c.Source.CameraTimeout = defaultCameraTimeout
	}
	return nil
}

func (c *Config) normalizeDetection() {
	if c.Detection.SimilarityThreshold <= 0 {
		c.Detection.SimilarityThreshold = defaultSimilarityThreshold
	}
	if c.Detection.ConfidenceFloor < 0 {
		c.Detection.ConfidenceFloor = 0
	}
	if c.Detection.HysteresisEpsilon < 0 {
		c.Detection.HysteresisEpsilon = 0
	}
	if c.Detection.ScaleEpsilon <= 0 {
		c.Detection.ScaleEpsilon = defaultScaleEpsilon
	}
	if c.Detection.MinHoldSeconds < 0 {
		c.Detection.MinHoldSeconds = 0
	}
}

func (c *Config) normalizeNarrator() {
	if len(c.Narrator.Command) == 0 {
		c.Narrator.Command = defaultSpeechCommand()
	} else {
		trimmed := make([]string, 0, len(c.Narrator.Command))
		for _, part := range c.Narrator.Command {
			if part = strings.TrimSpace(part); part != "" {
				trimmed = append(trimmed, part)
			}
		}
		if len(trimmed) == 0 {
			trimmed = defaultSpeechCommand()
		}
		c.Narrator.Command = trimmed
	}
	if c.Narrator.CooldownSeconds <= 0 {
		c.Narrator.CooldownSeconds = defaultCooldownSeconds
	}
	if c.Narrator.EntryCooldownSeconds <= 0 {
		c.Narrator.EntryCooldownSeconds = defaultEntryCooldown
	}
}

func defaultSpeechCommand() []string {
	if runtime.GOOS == "darwin" {
		return []string{"say"}
	}
	return []string{"espeak"}
}

func (c *Config) normalizeTracking() {
	if c.Tracking.WindowDays <= 0 {
		c.Tracking.WindowDays = defaultWindowDays
	}
	if c.Tracking.ImprovementThreshold <= 0 {
		c.Tracking.ImprovementThreshold = defaultImprovement
	}
	if c.Tracking.RecordEveryNFrames < 0 {
		c.Tracking.RecordEveryNFrames = 0
	}
}

func (c *Config) normalizeArchive() error {
	if strings.TrimSpace(c.Archive.Path) == "" {
		c.Archive.Path = defaultArchivePath
	}
	expanded, err := expandPath(c.Archive.Path)
	if err != nil {
		return fmt.Errorf("archive.path: %w", err)
	}
	c.Archive.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
