// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package intercept

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"gate.computer/intercept/encoder"
	"gate.computer/intercept/errors"
	"gate.computer/intercept/internal/pan"
	"gate.computer/intercept/trampoline"
)

// Patched images are referenced for the lifetime of the process, because
// wrapper code embeds the addresses of their sites.
var keepAlive struct {
	mu     sync.Mutex
	images []*Image
}

func retain(img *Image) {
	keepAlive.mu.Lock()
	defer keepAlive.mu.Unlock()

	keepAlive.images = append(keepAlive.images, img)
}

// Patcher rewrites system call sites.  A Patcher may be used for multiple
// images, but not concurrently.
type Patcher struct {
	config Config
	log    logrus.FieldLogger
}

// NewPatcher panics if config.SyscallSize is not a multiple of the
// instruction size.
func NewPatcher(config Config) *Patcher {
	if config.SyscallSize%encoder.InsnSize != 0 {
		panic(fmt.Errorf("intercept: system call size %d is misaligned", config.SyscallSize))
	}

	return &Patcher{
		config: config,
		log:    config.log(),
	}
}

// Patch an image: generate the wrappers into space, seal it, and activate
// the image.  The trampoline table is allocated if the routing policy needs
// one and the image doesn't have one already.
//
// The returned error, if any, is a fatal condition.  The process should be
// terminated; see Abort.
func (p *Patcher) Patch(img *Image, space *Space) (err error) {
	defer func() { err = pan.Error(recover()) }()

	p.patch(img, space)
	return
}

// MustPatch is like Patch, but aborts the process on error.
func (p *Patcher) MustPatch(img *Image, space *Space) {
	if err := p.Patch(img, space); err != nil {
		Abort(p.log, err)
	}
}

func (p *Patcher) patch(img *Image, space *Space) {
	switch p.config.Routing {
	case RouteDirect:
		img.UseTrampolines = false

	case RouteTrampolines:
		img.UseTrampolines = true

	default:
		img.UseTrampolines = !trampoline.Reachable(img.TextStart, img.TextEnd, space.Addr(), space.End())
	}

	p.log.WithFields(logrus.Fields{
		"path":        img.Path,
		"sites":       len(img.Sites),
		"trampolines": img.UseTrampolines,
	}).Debug("patching image")

	p.prepare(img, space)

	if err := space.Seal(); err != nil {
		pan.Panic(errors.Wrap(errors.Protection, img.Path, err, "wrapper space"))
	}

	if img.UseTrampolines && img.Trampolines == nil && len(img.Sites) > 0 {
		t, err := trampoline.Allocate(img.TextStart, img.TextEnd, len(img.Sites))
		if err != nil {
			pan.Panic(errors.Wrap(errors.TrampolineExhausted, img.Path, err, "allocation"))
		}
		img.Trampolines = t
	}

	p.activate(img)
}

// Abort the process after logging a fatal condition.  The abort signal
// is raised so that a core dump may be produced.
func Abort(log logrus.FieldLogger, err error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	entry := log.WithError(err)

	var f *errors.Fatal
	if errors.As(err, &f) {
		entry = entry.WithField("kind", f.Kind.String())
		if f.Path != "" {
			entry = entry.WithField("path", f.Path)
		}
		if f.Offset >= 0 {
			entry = entry.WithField("offset", f.Offset)
		}
	}

	entry.Error("fatal condition")

	unix.Kill(unix.Getpid(), unix.SIGABRT)
	os.Exit(134)
}
