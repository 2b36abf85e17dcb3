// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package intercept

import (
	"github.com/sirupsen/logrus"

	"gate.computer/intercept/encoder"
	"gate.computer/intercept/wrapper"
)

// Routing policy.
type Routing int

const (
	RouteAuto        Routing = iota // Trampolines if the wrapper space is far.
	RouteDirect                     // Branch directly from the sites.
	RouteTrampolines                // Always go through trampolines.
)

func (r Routing) String() string {
	switch r {
	case RouteAuto:
		return "auto"

	case RouteDirect:
		return "direct"

	case RouteTrampolines:
		return "trampolines"

	default:
		return "<invalid>"
	}
}

// State of an image during activation.
type State int

const (
	Unpatched State = iota
	Writable
	Patched
	ReadOnly
)

func (s State) String() string {
	switch s {
	case Unpatched:
		return "unpatched"

	case Writable:
		return "writable"

	case Patched:
		return "patched"

	case ReadOnly:
		return "read-only"

	default:
		return "<invalid>"
	}
}

// Config of a Patcher.  Zero values select defaults.
type Config struct {
	Context    uint64  // Value for the wrapper's context register (TOC).
	Dispatcher uintptr // Address of the dispatcher routine.

	Template *wrapper.Template // Default is wrapper.Default().

	// SyscallSize is the width of the intercepted instruction.  Control
	// resumes after it.
	SyscallSize int

	// MinPatchSize is the number of overwritable bytes required at a site.
	// It cannot be less than the size of a short branch.
	MinPatchSize int

	Routing Routing

	Log logrus.FieldLogger

	// Observe is invoked after each activation state transition.
	Observe func(*Image, State)
}

func (c *Config) template() *wrapper.Template {
	if c.Template != nil {
		return c.Template
	}
	return wrapper.Default()
}

func (c *Config) syscallSize() int {
	if c.SyscallSize > 0 {
		return c.SyscallSize
	}
	return encoder.SyscallSize
}

func (c *Config) minPatchSize() int {
	return max(c.MinPatchSize, encoder.ShortBranchSize)
}

func (c *Config) log() logrus.FieldLogger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}
