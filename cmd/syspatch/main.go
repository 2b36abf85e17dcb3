// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Program syspatch inspects and rehearses system call interception of
// ppc64le ELF libraries.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

func main() {
	var (
		configFile = ""
		logLevel   = ""
	)

	flag.StringVar(&configFile, "config", configFile, "TOML configuration file")
	flag.StringVar(&logLevel, "log-level", logLevel, "override the configured log level")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(scanCmd), "")
	subcommands.Register(new(patchCmd), "")
	subcommands.Register(new(templateCmd), "")

	flag.Parse()

	c, err := loadConfig(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if logLevel != "" {
		c.LogLevel = logLevel
		if err := c.validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	os.Exit(int(subcommands.Execute(context.Background(), &c)))
}

// configOf the Execute arguments.
func configOf(args []any) *config {
	return args[0].(*config)
}
