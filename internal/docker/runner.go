// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package docker

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
)

// containerIDFile records the running container between hooks,
// relative to the charm directory.
const containerIDFile = "CONTAINER_ID"

// Runner manages the charm's single service container. The id of the
// last started container is kept in the charm directory so the next
// hook invocation can replace it.
type Runner struct {
	Client   *Client
	CharmDir string
}

func (r *Runner) idPath() string {
	return filepath.Join(r.CharmDir, containerIDFile)
}

// recordedID returns the container id from the previous start, or "".
func (r *Runner) recordedID() (string, error) {
	raw, err := os.ReadFile(r.idPath())
	if os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", errors.Trace(err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// Start replaces the service container: any previously recorded
// container is stopped and removed first, then a fresh one is run from
// the spec and its id recorded. Hooks call this for every start event,
// which is how config and relation changes reach the container's
// command line.
func (r *Runner) Start(ctx context.Context, spec RunSpec) error {
	if err := r.Stop(ctx); err != nil {
		return errors.Trace(err)
	}
	id, err := r.Client.Run(ctx, spec)
	if err != nil {
		return errors.Trace(err)
	}
	if err := os.WriteFile(r.idPath(), []byte(id+"\n"), 0644); err != nil {
		return errors.Annotate(err, "recording container id")
	}
	return nil
}

// Stop stops and removes the recorded container, if any, and clears
// the record. Stopping with no record is a no-op.
func (r *Runner) Stop(ctx context.Context) error {
	id, err := r.recordedID()
	if err != nil {
		return errors.Trace(err)
	}
	if id == "" {
		return nil
	}
	if err := r.Client.Stop(ctx, id); err != nil {
		return errors.Trace(err)
	}
	if err := os.Remove(r.idPath()); err != nil && !os.IsNotExist(err) {
		return errors.Trace(err)
	}
	return nil
}
