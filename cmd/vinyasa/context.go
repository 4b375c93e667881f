package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vinyasa/internal/angles"
	"vinyasa/internal/config"
	"vinyasa/internal/logging"
	"vinyasa/internal/perfstore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// store opens a handle on the JSON performance record. Read paths never
// take the session lock; only the coach command mutates the record.
func (c *commandContext) store(logger *slog.Logger) (*perfstore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return perfstore.New(cfg.Paths.DataDir, logger), nil
}

// definitions loads the angle requirement catalog the config points at,
// falling back to the built-in poses.
func (c *commandContext) definitions() (*angles.Definitions, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Paths.AnglesPath) != "" {
		return angles.LoadFile(cfg.Paths.AnglesPath)
	}
	return angles.Builtin(), nil
}

func (c *commandContext) quietLogger() *slog.Logger {
	return logging.NewNop()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
