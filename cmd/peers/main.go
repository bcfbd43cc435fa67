// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// The peers command lists the unit's cluster peers as rethinkdb --join
// arguments. It runs inside a hook, where the relation tools are
// available on $PATH.
package main

import (
	"os"

	"github.com/juju/cmd/v3"

	"github.com/bcsaller/juju-docker/internal/hookenv"
)

func main() {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		cmd.WriteError(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(cmd.Main(newPeersCommand(hookenv.NewDefaultContext()), ctx, os.Args[1:]))
}
