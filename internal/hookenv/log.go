// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

// Log writes a message to the Juju unit log via juju-log.
func (ctx *Context) Log(level loggo.Level, message string) error {
	args := []string{"-l", level.String(), message}
	_, err := ctx.runner.Run("juju-log", args...)
	return errors.Trace(err)
}

// jujuLogWriter forwards loggo output to juju-log, so module loggers
// land in the unit log alongside direct Log calls.
type jujuLogWriter struct {
	ctx *Context
}

func (w *jujuLogWriter) Write(entry loggo.Entry) {
	// Logging about a failed log write would recurse.
	_ = w.ctx.Log(entry.Level, entry.Module+": "+entry.Message)
}

// InstallLogWriter replaces loggo's default writer with one that
// forwards to juju-log. It is called once, from hook main.
func (ctx *Context) InstallLogWriter() error {
	_, err := loggo.ReplaceDefaultWriter(&jujuLogWriter{ctx: ctx})
	return errors.Trace(err)
}
