// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package hookenv provides access to the Juju hook environment: the
// hook tools on $PATH and the JUJU_* environment variables set by the
// unit agent for the duration of a hook.
package hookenv

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/names/v5"
	"github.com/juju/naturalsort"
)

var logger = loggo.GetLogger("juju-docker.hookenv")

// Settings holds the string settings of a single unit on a relation.
type Settings map[string]string

// ExitError reports a hook tool that ran but exited non-zero.
type ExitError struct {
	Tool   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited %d: %s", e.Tool, e.Code, strings.TrimSpace(e.Stderr))
}

// Runner executes a hook tool and returns its stdout. Implementations
// return *ExitError for non-zero exits so callers can inspect the code.
type Runner interface {
	Run(tool string, args ...string) ([]byte, error)
}

// ExecRunner runs hook tools found on $PATH.
type ExecRunner struct{}

func (ExecRunner) Run(tool string, args ...string) ([]byte, error) {
	cmd := exec.Command(tool, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return out, &ExitError{
				Tool:   tool,
				Code:   exitErr.ExitCode(),
				Stderr: stderr.String(),
			}
		}
		return out, errors.Annotatef(err, "running %s", tool)
	}
	return out, nil
}

// Context mediates all interaction with the hook environment. Read-only
// tool results are memoized for the life of the process, matching the
// behaviour charms rely on for cheap repeated lookups within one hook.
type Context struct {
	runner Runner

	mu    sync.Mutex
	cache map[string][]byte
}

// NewContext returns a Context using the given runner.
func NewContext(runner Runner) *Context {
	return &Context{runner: runner, cache: make(map[string][]byte)}
}

// NewDefaultContext returns a Context that runs the real hook tools.
func NewDefaultContext() *Context {
	return NewContext(ExecRunner{})
}

func getenv(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", errors.Errorf("%s not set", name)
	}
	return value, nil
}

// HookName returns the name of the executing hook: JUJU_HOOK_NAME when
// the agent sets it, otherwise the basename of the running executable.
func (ctx *Context) HookName() string {
	if name := os.Getenv("JUJU_HOOK_NAME"); name != "" {
		return name
	}
	return filepath.Base(os.Args[0])
}

// CharmDir returns the root directory of the running charm.
func (ctx *Context) CharmDir() (string, error) {
	return getenv("CHARM_DIR")
}

// LocalUnit returns the name of the local unit, e.g. "rdb/0".
func (ctx *Context) LocalUnit() (string, error) {
	return getenv("JUJU_UNIT_NAME")
}

// ApplicationName returns the application the local unit belongs to.
func (ctx *Context) ApplicationName() (string, error) {
	unit, err := ctx.LocalUnit()
	if err != nil {
		return "", errors.Trace(err)
	}
	app, err := names.UnitApplication(unit)
	if err != nil {
		return "", errors.Trace(err)
	}
	return app, nil
}

// RemoteUnit returns the unit that triggered the current relation hook.
func (ctx *Context) RemoteUnit() (string, error) {
	return getenv("JUJU_REMOTE_UNIT")
}

// RelationName returns the relation name for the current relation hook,
// or "" outside one.
func (ctx *Context) RelationName() string {
	return os.Getenv("JUJU_RELATION")
}

// RelationID returns the relation id for the current relation hook, or
// "" outside one.
func (ctx *Context) RelationID() string {
	return os.Getenv("JUJU_RELATION_ID")
}

// InRelationHook reports whether the current hook is a relation hook.
func (ctx *Context) InRelationHook() bool {
	return ctx.RelationName() != ""
}

func (ctx *Context) cacheKey(tool string, args []string) string {
	return tool + "\x00" + strings.Join(args, "\x00")
}

// runCached runs a read-only hook tool, memoizing its stdout.
func (ctx *Context) runCached(tool string, args ...string) ([]byte, error) {
	key := ctx.cacheKey(tool, args)
	ctx.mu.Lock()
	out, ok := ctx.cache[key]
	ctx.mu.Unlock()
	if ok {
		return out, nil
	}
	out, err := ctx.runner.Run(tool, args...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	ctx.mu.Lock()
	ctx.cache[key] = out
	ctx.mu.Unlock()
	return out, nil
}

// flush drops memoized results for the named tool.
func (ctx *Context) flush(tool string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	for key := range ctx.cache {
		if strings.HasPrefix(key, tool+"\x00") {
			delete(ctx.cache, key)
		}
	}
}

func (ctx *Context) runJSON(v interface{}, tool string, args ...string) error {
	out, err := ctx.runCached(tool, args...)
	if err != nil {
		return errors.Trace(err)
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil
	}
	if err := json.Unmarshal(out, v); err != nil {
		return errors.Annotatef(err, "decoding %s output", tool)
	}
	return nil
}

// ConfigSettings returns the raw charm configuration.
func (ctx *Context) ConfigSettings() (map[string]interface{}, error) {
	var settings map[string]interface{}
	if err := ctx.runJSON(&settings, "config-get", "--format=json"); err != nil {
		return nil, errors.Trace(err)
	}
	return settings, nil
}

// RelationIDs returns the ids of all current relations with the given
// name, e.g. ["intracluster:0"].
func (ctx *Context) RelationIDs(name string) ([]string, error) {
	var ids []string
	if err := ctx.runJSON(&ids, "relation-ids", "--format=json", name); err != nil {
		return nil, errors.Trace(err)
	}
	naturalsort.Sort(ids)
	return ids, nil
}

// RelatedUnits returns the remote units present on the given relation,
// in natural order.
func (ctx *Context) RelatedUnits(relationID string) ([]string, error) {
	args := []string{"--format=json"}
	if relationID != "" {
		args = append(args, "-r", relationID)
	}
	var units []string
	if err := ctx.runJSON(&units, "relation-list", args...); err != nil {
		return nil, errors.Trace(err)
	}
	naturalsort.Sort(units)
	return units, nil
}

// RelationGet returns the settings of a unit on a relation. A missing
// unit or relation reports errors.NotFound; relation-get signals that
// with exit code 2.
func (ctx *Context) RelationGet(relationID, unit string) (Settings, error) {
	args := []string{"--format=json"}
	if relationID != "" {
		args = append(args, "-r", relationID)
	}
	args = append(args, "-")
	if unit != "" {
		args = append(args, unit)
	}
	var settings Settings
	err := ctx.runJSON(&settings, "relation-get", args...)
	if exitErr, ok := errors.Cause(err).(*ExitError); ok && exitErr.Code == 2 {
		return nil, errors.NotFoundf("settings for %q on %q", unit, relationID)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return settings, nil
}

// RelationSet writes settings for the local unit onto a relation. An
// empty value removes the key. Memoized relation reads are flushed.
func (ctx *Context) RelationSet(relationID string, settings Settings) error {
	if len(settings) == 0 {
		return nil
	}
	var args []string
	if relationID != "" {
		args = append(args, "-r", relationID)
	}
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	naturalsort.Sort(keys)
	for _, key := range keys {
		args = append(args, fmt.Sprintf("%s=%s", key, settings[key]))
	}
	if _, err := ctx.runner.Run("relation-set", args...); err != nil {
		return errors.Trace(err)
	}
	ctx.flush("relation-get")
	return nil
}

// UnitGet returns a unit attribute: "private-address" or "public-address".
func (ctx *Context) UnitGet(attribute string) (string, error) {
	var value string
	if err := ctx.runJSON(&value, "unit-get", "--format=json", attribute); err != nil {
		return "", errors.Trace(err)
	}
	return value, nil
}

// PrivateAddress returns the local unit's private address.
func (ctx *Context) PrivateAddress() (string, error) {
	return ctx.UnitGet("private-address")
}

// PublicAddress returns the local unit's public address.
func (ctx *Context) PublicAddress() (string, error) {
	return ctx.UnitGet("public-address")
}

// OpenPort opens a port to the unit's service.
func (ctx *Context) OpenPort(port int, protocol string) error {
	_, err := ctx.runner.Run("open-port", portSpec(port, protocol))
	return errors.Trace(err)
}

// ClosePort closes a previously opened port.
func (ctx *Context) ClosePort(port int, protocol string) error {
	_, err := ctx.runner.Run("close-port", portSpec(port, protocol))
	return errors.Trace(err)
}

// OpenedPorts returns the ports currently opened by the unit, as
// "port/protocol" strings.
func (ctx *Context) OpenedPorts() ([]string, error) {
	out, err := ctx.runner.Run("opened-ports", "--format=json")
	if err != nil {
		return nil, errors.Trace(err)
	}
	var ports []string
	if len(strings.TrimSpace(string(out))) == 0 {
		return ports, nil
	}
	if err := json.Unmarshal(out, &ports); err != nil {
		return nil, errors.Annotate(err, "decoding opened-ports output")
	}
	return ports, nil
}

func portSpec(port int, protocol string) string {
	if protocol == "" {
		protocol = "tcp"
	}
	return fmt.Sprintf("%d/%s", port, strings.ToLower(protocol))
}
