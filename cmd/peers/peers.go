// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"strings"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/bcsaller/juju-docker/internal/hookenv"
	"github.com/bcsaller/juju-docker/internal/rethinkdb"
)

// peersCommand prints the rethinkdb --join arguments for every peer on
// the intracluster relation, for use from hook scripts:
//
//	rethinkdb $(peers) ...
//
// Output is empty when the unit has no peers.
type peersCommand struct {
	cmd.CommandBase
	hctx *hookenv.Context

	port       int
	relationID string
	logLevel   string
}

func newPeersCommand(hctx *hookenv.Context) cmd.Command {
	return &peersCommand{hctx: hctx}
}

func (c *peersCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "peers",
		Purpose: "print rethinkdb --join arguments for the unit's cluster peers",
		Doc: `
Lists the units present on the intracluster peer relation and prints a
"--join <private-address>:<port>" pair for each one, space separated.
Outside a relation hook the first intracluster relation is used.
`,
	}
}

func (c *peersCommand) SetFlags(f *gnuflag.FlagSet) {
	f.IntVar(&c.port, "port", rethinkdb.ClusterPort, "cluster port to join on")
	f.StringVar(&c.relationID, "r", "", "relation id to inspect")
	f.StringVar(&c.relationID, "relation", "", "")
	f.StringVar(&c.logLevel, "l", "INFO", "log level")
	f.StringVar(&c.logLevel, "log-level", "INFO", "")
}

func (c *peersCommand) Init(args []string) error {
	if level, ok := loggo.ParseLevel(c.logLevel); ok {
		loggo.GetLogger("juju-docker").SetLogLevel(level)
	}
	return cmd.CheckEmpty(args)
}

func (c *peersCommand) Run(ctx *cmd.Context) error {
	relID := c.relationID
	if relID == "" {
		relID = c.hctx.RelationID()
	}
	if relID == "" {
		relIDs, err := c.hctx.RelationIDs(rethinkdb.ClusterRelation)
		if err != nil {
			return errors.Trace(err)
		}
		if len(relIDs) == 0 {
			fmt.Fprintln(ctx.Stdout, "")
			return nil
		}
		relID = relIDs[0]
	}

	units, err := c.hctx.RelatedUnits(relID)
	if err != nil {
		return errors.Trace(err)
	}
	var addresses []string
	for _, unit := range units {
		settings, err := c.hctx.RelationGet(relID, unit)
		if errors.IsNotFound(err) {
			continue
		} else if err != nil {
			return errors.Trace(err)
		}
		if address := settings["private-address"]; address != "" {
			addresses = append(addresses, address)
		}
	}
	fmt.Fprintln(ctx.Stdout, strings.Join(rethinkdb.JoinArgs(addresses, c.port), " "))
	return nil
}
