package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateNarrator(); err != nil {
		return err
	}
	if err := c.validateTracking(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryPath) == "" {
		return errors.New("paths.library_path must be set")
	}
	return nil
}

func (c *Config) validateSource() error {
	switch c.Source.Kind {
	case "stdin":
	case "socket":
		if c.Source.Address == "" {
			return errors.New("source.address must be set when source.kind is \"socket\"")
		}
	case "replay":
		if c.Source.ReplayPath == "" {
			return errors.New("source.replay_path must be set when source.kind is \"replay\"")
		}
	default:
		return fmt.Errorf("source.kind must be one of stdin, socket, replay (got %q)", c.Source.Kind)
	}
	if c.Source.CameraTimeout <= 0 {
		return errors.New("source.camera_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.SimilarityThreshold <= 0 {
		return errors.New("detection.similarity_threshold must be positive")
	}
	if c.Detection.ConfidenceFloor < 0 || c.Detection.ConfidenceFloor > 1 {
		return errors.New("detection.confidence_floor must be between 0 and 1")
	}
	if c.Detection.HysteresisEpsilon < 0 {
		return errors.New("detection.hysteresis_epsilon must be >= 0")
	}
	if c.Detection.ScaleEpsilon <= 0 {
		return errors.New("detection.scale_epsilon must be positive")
	}
	if c.Detection.MinHoldSeconds < 0 {
		return errors.New("detection.min_hold_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateNarrator() error {
	if c.Narrator.Enabled && len(c.Narrator.Command) == 0 {
		return errors.New("narrator.command must be set when narrator.enabled is true")
	}
	if c.Narrator.CooldownSeconds < 0 {
		return errors.New("narrator.cooldown_seconds must be >= 0")
	}
	if c.Narrator.EntryCooldownSeconds < 0 {
		return errors.New("narrator.entry_cooldown_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateTracking() error {
	if c.Tracking.WindowDays < 1 {
		return errors.New("tracking.window_days must be >= 1")
	}
	if c.Tracking.ImprovementThreshold < 0 {
		return errors.New("tracking.improvement_threshold must be >= 0")
	}
	if c.Tracking.RecordEveryNFrames < 0 {
		return errors.New("tracking.record_every_n_frames must be >= 0")
	}
	if c.Tracking.MeasurementIntervalSeconds < 0 {
		return errors.New("tracking.measurement_interval_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Path) == "" {
		return errors.New("archive.path must be set when archive.enabled is true")
	}
	return nil
}
