package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RoboDK/RoboDK-API-sub002/logger"
	"github.com/RoboDK/RoboDK-API-sub002/robolink"
)

// fileConfig is the YAML configuration file. Unset fields keep the library defaults.
type fileConfig struct {
	Host           string          `yaml:"host"`
	Port           int             `yaml:"port"`
	PortEnd        int             `yaml:"port_end"`
	ConnectTimeout time.Duration   `yaml:"connect_timeout"`
	CommandTimeout time.Duration   `yaml:"command_timeout"`
	LongTimeout    time.Duration   `yaml:"long_timeout"`
	SafeMode       *bool           `yaml:"safe_mode"`
	AutoRender     *bool           `yaml:"auto_render"`
	LogLevel       string          `yaml:"log_level"`
	Launcher       *launcherConfig `yaml:"launcher"`
}

type launcherConfig struct {
	Path         string        `yaml:"path"`
	Args         []string      `yaml:"args"`
	Env          []string      `yaml:"env"`
	Hidden       bool          `yaml:"hidden"`
	ReadyMarker  string        `yaml:"ready_marker"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// options maps the file onto connection options, logging through log.
func (c *fileConfig) options(log logger.Logger) []robolink.ConnOption {
	opts := []robolink.ConnOption{robolink.WithLogger(log)}

	if c.PortEnd > 0 {
		port := c.Port
		if port == 0 {
			port = robolink.DefaultPort
		}
		opts = append(opts, robolink.WithPortRange(port, c.PortEnd))
	}
	if c.ConnectTimeout > 0 {
		opts = append(opts, robolink.WithConnectTimeout(c.ConnectTimeout))
	}
	if c.CommandTimeout > 0 {
		opts = append(opts, robolink.WithCommandTimeout(c.CommandTimeout))
	}
	if c.LongTimeout > 0 {
		opts = append(opts, robolink.WithLongTimeout(c.LongTimeout))
	}
	if c.SafeMode != nil {
		opts = append(opts, robolink.WithSafeMode(*c.SafeMode))
	}
	if c.AutoRender != nil {
		opts = append(opts, robolink.WithAutoRender(*c.AutoRender))
	}
	if l := c.Launcher; l != nil {
		opts = append(opts, robolink.WithLauncher(&robolink.Launcher{
			Path:         l.Path,
			Args:         l.Args,
			Env:          l.Env,
			Hidden:       l.Hidden,
			ReadyMarker:  l.ReadyMarker,
			ReadyTimeout: l.ReadyTimeout,
			Logger:       log,
		}))
	}

	return opts
}
