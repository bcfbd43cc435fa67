// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package hookenvtesting provides a stub hook-tool runner for tests.
package hookenvtesting

import (
	"strings"
	"sync"

	"github.com/bcsaller/juju-docker/internal/hookenv"
)

// Call records one hook tool invocation.
type Call struct {
	Tool string
	Args []string
}

// String renders the call the way Outputs keys are written.
func (c Call) String() string {
	return strings.Join(append([]string{c.Tool}, c.Args...), " ")
}

// StubRunner replays canned hook tool output. Lookup is by the full
// command line first, then by tool name.
type StubRunner struct {
	mu sync.Mutex

	// Outputs maps "tool arg arg..." (or just "tool") to stdout.
	Outputs map[string]string

	// Errors maps the same keys to errors, checked before Outputs.
	Errors map[string]error

	// Calls records every invocation in order.
	Calls []Call
}

// Run implements hookenv.Runner.
func (r *StubRunner) Run(tool string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := Call{Tool: tool, Args: args}
	r.Calls = append(r.Calls, call)
	for _, key := range []string{call.String(), tool} {
		if err, ok := r.Errors[key]; ok {
			return nil, err
		}
		if out, ok := r.Outputs[key]; ok {
			return []byte(out), nil
		}
	}
	return nil, nil
}

// CallNames returns the tools invoked, in order.
func (r *StubRunner) CallNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Calls))
	for i, call := range r.Calls {
		names[i] = call.Tool
	}
	return names
}

var _ hookenv.Runner = (*StubRunner)(nil)
