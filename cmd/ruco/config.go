package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/ruco"
)

// demoConfig is the demo configuration, read from YAML and overridden by
// flags that were set explicitly.
type demoConfig struct {
	Filter       bool   `yaml:"filter"`
	Indent       bool   `yaml:"indent"`
	IgnoreSelf   bool   `yaml:"ignore_self"`
	IndentMarker string `yaml:"indent_marker"`
	Debug        int    `yaml:"debug"`
	Workers      int    `yaml:"workers"`
	Orders       int    `yaml:"orders"`
	JSON         bool   `yaml:"json"`
	Metrics      bool   `yaml:"metrics"`
}

func defaultDemoConfig() demoConfig {
	return demoConfig{
		Filter:       true,
		Indent:       true,
		IgnoreSelf:   true,
		IndentMarker: ruco.DefaultIndentMarker,
		Workers:      2,
		Orders:       3,
	}
}

// loadDemoConfig reads path over the defaults. An empty path keeps the
// defaults; a named file that does not exist is an error.
func loadDemoConfig(path string) (demoConfig, error) {
	cfg := defaultDemoConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read demo config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c demoConfig) validate() error {
	if c.Workers < 0 {
		return errors.New("workers must be >= 0")
	}
	if c.Orders <= 0 {
		return errors.New("orders must be > 0")
	}
	return nil
}

// applyFlags overrides cfg with every flag the user set.
func applyFlags(cmd *cobra.Command, cfg *demoConfig) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("filter") {
		cfg.Filter, err = flags.GetBool("filter")
		if err != nil {
			return err
		}
	}
	if flags.Changed("indent") {
		cfg.Indent, err = flags.GetBool("indent")
		if err != nil {
			return err
		}
	}
	if flags.Changed("ignore-self") {
		cfg.IgnoreSelf, err = flags.GetBool("ignore-self")
		if err != nil {
			return err
		}
	}
	if flags.Changed("indent-marker") {
		cfg.IndentMarker, err = flags.GetString("indent-marker")
		if err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		cfg.Workers, err = flags.GetInt("workers")
		if err != nil {
			return err
		}
	}
	if flags.Changed("orders") {
		cfg.Orders, err = flags.GetInt("orders")
		if err != nil {
			return err
		}
	}
	if flags.Changed("json") {
		cfg.JSON, err = flags.GetBool("json")
		if err != nil {
			return err
		}
	}
	if flags.Changed("metrics") {
		cfg.Metrics, err = flags.GetBool("metrics")
		if err != nil {
			return err
		}
	}
	if flags.Changed("debug") {
		cfg.Debug, err = flags.GetInt("debug")
		if err != nil {
			return err
		}
	}
	return cfg.validate()
}

func (c demoConfig) hookConfig(w io.Writer) ruco.HookConfig {
	cfg := ruco.DefaultConfig()
	cfg.Writer = w
	cfg.FilterActive = c.Filter
	cfg.IndentEnabled = c.Indent
	cfg.IgnoreSelf = c.IgnoreSelf
	if c.IndentMarker != "" {
		cfg.IndentMarker = c.IndentMarker
	}
	return cfg
}
