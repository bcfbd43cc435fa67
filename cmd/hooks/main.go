// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// The hooks command is the charm's single hook executable. Each hook
// in the charm's hooks/ directory is a symlink to this binary; the
// hook name is taken from the name it was invoked as, or from the
// first argument when run directly.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/juju/loggo"

	"github.com/bcsaller/juju-docker/internal/docker"
	"github.com/bcsaller/juju-docker/internal/hookenv"
	"github.com/bcsaller/juju-docker/internal/rethinkdb"
)

var logger = loggo.GetLogger("juju-docker.hooks")

const (
	// exitErr is returned when the binary is invoked incorrectly.
	exitErr = 2
	// exitPanic is returned when we exit due to an unhandled panic.
	exitPanic = 3
)

func main() {
	os.Exit(Main(os.Args))
}

// Main is separate from main() so tests can drive it with arbitrary
// arguments.
func Main(args []string) int {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			logger.Criticalf("unhandled panic: \n%v\n%s", r, buf)
			os.Exit(exitPanic)
		}
	}()

	hctx := hookenv.NewDefaultContext()
	hookName := filepath.Base(args[0])
	if hookName == "hooks" {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "error: no hook name given")
			return exitErr
		}
		hookName = args[1]
	}

	if err := hctx.InstallLogWriter(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	meta, err := hctx.Metadata()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if !knownHook(meta, hookName) {
		fmt.Fprintf(os.Stderr, "error: unknown hook %q\n", hookName)
		return exitErr
	}
	if err := runHook(hctx, hookName); err != nil {
		logger.Errorf("hook %q failed: %v", hookName, err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func runHook(hctx *hookenv.Context, hookName string) error {
	client, err := docker.NewEnvClient()
	if err != nil {
		return err
	}
	charm := &rethinkdb.Charm{Hookenv: hctx, Docker: client}

	ctx := context.Background()
	if hookName == "install" {
		if err := charm.Install(ctx); err != nil {
			return err
		}
	}
	return charm.Manage(ctx, hookName)
}

func knownHook(meta *hookenv.Metadata, hookName string) bool {
	for _, name := range meta.HookNames() {
		if name == hookName {
			return true
		}
	}
	return false
}
