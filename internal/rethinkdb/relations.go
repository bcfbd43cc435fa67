// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rethinkdb

import (
	"fmt"
	"strconv"

	"github.com/juju/errors"

	"github.com/bcsaller/juju-docker/internal/hookenv"
	"github.com/bcsaller/juju-docker/internal/service"
)

const (
	// ClusterRelation is the peer relation RethinkDB instances join
	// each other through.
	ClusterRelation = "intracluster"

	// ClusterInterface is the peer relation's interface name.
	ClusterInterface = "rethinkdb-cluster"

	// ClusterPort is the RethinkDB intracluster port.
	ClusterPort = 29015

	// WebsiteRelation is the http relation haproxy binds to.
	WebsiteRelation = "website"

	// WebsitePort is the port published for the web UI.
	WebsitePort = 80
)

// ClusterPeers exposes the peer relation as container arguments: one
// "--join address:port" pair per peer that has published its address.
// A unit with no peers yet is a cluster of one, so the relation never
// gates startup.
type ClusterPeers struct {
	*service.RelationContext
	Port int
}

// NewClusterPeers returns the intracluster peer context.
func NewClusterPeers(ctx *hookenv.Context) *ClusterPeers {
	return &ClusterPeers{
		RelationContext: service.NewRelationContext(
			ctx, ClusterRelation, ClusterInterface, []string{"private-address"}),
		Port: ClusterPort,
	}
}

// Ready implements service.DataSource. Peers are optional.
func (p *ClusterPeers) Ready() (bool, error) {
	return true, nil
}

// Addresses returns the private address of each joined peer.
func (p *ClusterPeers) Addresses() ([]string, error) {
	units, err := p.Units()
	if err != nil {
		return nil, errors.Trace(err)
	}
	addresses := make([]string, 0, len(units))
	for _, settings := range units {
		addresses = append(addresses, settings["private-address"])
	}
	return addresses, nil
}

// ContainerArgs implements docker.ArgsProvider.
func (p *ClusterPeers) ContainerArgs() ([]string, error) {
	addresses, err := p.Addresses()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return JoinArgs(addresses, p.Port), nil
}

// JoinArgs renders peer addresses as rethinkdb --join arguments.
func JoinArgs(addresses []string, port int) []string {
	var args []string
	for _, address := range addresses {
		args = append(args, "--join", fmt.Sprintf("%s:%d", address, port))
	}
	return args
}

// Website provides the http interface consumed by load balancers:
// the unit's private address and the published web UI port.
type Website struct {
	ctx *hookenv.Context
}

// NewWebsite returns the website relation provider.
func NewWebsite(ctx *hookenv.Context) *Website {
	return &Website{ctx: ctx}
}

// RelationName implements service.DataProvider.
func (w *Website) RelationName() string {
	return WebsiteRelation
}

// ProvideData implements service.DataProvider.
func (w *Website) ProvideData() (hookenv.Settings, error) {
	hostname, err := w.ctx.PrivateAddress()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return hookenv.Settings{
		"hostname": hostname,
		"port":     strconv.Itoa(WebsitePort),
	}, nil
}
