// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"gate.computer/intercept"
	"gate.computer/intercept/encoder"
)

// config file contents.
type config struct {
	Context           uint64 `toml:"context"`
	Dispatcher        uint64 `toml:"dispatcher"`
	MinPatchSize      int    `toml:"min_patch_size"`
	SyscallSize       int    `toml:"syscall_size"`
	Trampolines       string `toml:"trampolines"` // auto, always or never.
	TrampolineEntries int    `toml:"trampoline_entries"`
	WrapperSpace      int    `toml:"wrapper_space"`
	LogLevel          string `toml:"log_level"`
}

func defaultConfig() config {
	return config{
		Trampolines:  "auto",
		WrapperSpace: 1024 * 1024,
		LogLevel:     "info",
	}
}

// loadConfig overrides defaults with the file's contents.  An empty path
// yields the defaults.
func loadConfig(path string) (config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}

	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return c, xerrors.Errorf("config: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return c, xerrors.Errorf("config: %s: unknown key %q", path, keys[0].String())
	}

	return c, c.validate()
}

func (c *config) validate() error {
	if _, err := c.routing(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return xerrors.Errorf("config: log_level: %w", err)
	}
	if c.MinPatchSize < 0 || c.SyscallSize < 0 || c.TrampolineEntries < 0 {
		return xerrors.New("config: sizes must not be negative")
	}
	if c.WrapperSpace <= 0 {
		return xerrors.Errorf("config: wrapper_space: %d is not positive", c.WrapperSpace)
	}
	if c.SyscallSize%encoder.InsnSize != 0 {
		return xerrors.Errorf("config: syscall_size: %d is not a multiple of %d", c.SyscallSize, encoder.InsnSize)
	}
	return nil
}

func (c *config) routing() (intercept.Routing, error) {
	switch c.Trampolines {
	case "", "auto":
		return intercept.RouteAuto, nil

	case "always":
		return intercept.RouteTrampolines, nil

	case "never":
		return intercept.RouteDirect, nil

	default:
		return 0, xerrors.Errorf("config: trampolines: %q is not auto, always or never", c.Trampolines)
	}
}

func (c *config) patcherConfig(log logrus.FieldLogger) intercept.Config {
	routing, _ := c.routing()

	return intercept.Config{
		Context:      c.Context,
		Dispatcher:   uintptr(c.Dispatcher),
		SyscallSize:  c.SyscallSize,
		MinPatchSize: c.MinPatchSize,
		Routing:      routing,
		Log:          log,
	}
}

func (c *config) logger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return log
}
