// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package rethinkdb holds the charm's service logic: what container to
// run, with which ports, volumes and cluster arguments, and how the
// hook lifecycle maps onto it.
package rethinkdb

import (
	"context"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/bcsaller/juju-docker/internal/docker"
	"github.com/bcsaller/juju-docker/internal/hookenv"
	"github.com/bcsaller/juju-docker/internal/service"
)

var logger = loggo.GetLogger("juju-docker.rethinkdb")

// servicePorts are opened on the unit while the container runs.
var servicePorts = []int{80, 28015, 29015}

// portMappings maps host ports to container ports. The web UI listens
// on 8080 inside the container and is published on 80.
var portMappings = docker.PortMappings{
	80:    8080,
	28015: 28015,
	29015: 29015,
}

// hostname is a hook point for tests.
var hostname = os.Hostname

// Charm wires the hook environment and the Docker engine together.
type Charm struct {
	Hookenv *hookenv.Context
	Docker  *docker.Client
}

// Install provisions the Docker engine and pulls the configured image
// so later hooks only have to start containers.
func (c *Charm) Install(ctx context.Context) error {
	if err := installEngine(); err != nil {
		return errors.Trace(err)
	}
	cfg, err := c.config()
	if err != nil {
		return errors.Trace(err)
	}
	logger.Infof("pulling image %q", cfg.Image)
	return errors.Trace(c.Docker.Pull(ctx, cfg.Image, cfg.RegistryAuth))
}

// Manage runs the services framework for the given hook: publish
// relation data, then restart or stop the container according to the
// readiness of its data, then persist config for change tracking.
func (c *Charm) Manage(ctx context.Context, hookName string) error {
	rawCfg, err := c.Hookenv.Config()
	if err != nil {
		return errors.Trace(err)
	}
	cfg, err := ParseConfig(rawCfg)
	if err != nil {
		return errors.Trace(err)
	}
	charmDir, err := c.Hookenv.CharmDir()
	if err != nil {
		return errors.Trace(err)
	}

	peers := NewClusterPeers(c.Hookenv)
	spec, err := c.buildSpec(cfg, charmDir, peers)
	if err != nil {
		return errors.Trace(err)
	}
	runner := &docker.Runner{Client: c.Docker, CharmDir: charmDir}

	manager := service.NewManager(c.Hookenv, service.Definition{
		Name:  cfg.Image,
		Ports: servicePorts,
		RequiredData: []service.DataSource{
			peers,
		},
		ProvidedData: []service.DataProvider{
			NewWebsite(c.Hookenv),
		},
		Start: func(m *service.Manager, name string, event service.Event) error {
			return runner.Start(ctx, spec)
		},
		Stop: func(m *service.Manager, name string, event service.Event) error {
			return runner.Stop(ctx)
		},
	})
	if err := manager.Manage(hookName); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(rawCfg.Save())
}

// buildSpec derives the container run spec from config, unit addresses
// and peer data. Any change to those shows up in the spec, and the
// restart on the next hook applies it.
func (c *Charm) buildSpec(cfg Config, charmDir string, peers *ClusterPeers) (docker.RunSpec, error) {
	publicAddress, err := c.Hookenv.PublicAddress()
	if err != nil {
		return docker.RunSpec{}, errors.Trace(err)
	}
	privateAddress, err := c.Hookenv.PrivateAddress()
	if err != nil {
		return docker.RunSpec{}, errors.Trace(err)
	}
	host, err := hostname()
	if err != nil {
		return docker.RunSpec{}, errors.Trace(err)
	}
	return docker.RunSpec{
		Image: cfg.Image,
		Ports: portMappings,
		Volumes: docker.Volumes{
			CharmDir: charmDir,
			Mapped:   map[string]string{cfg.StoragePath: "/rethinkdb"},
		},
		Args: []docker.ArgsProvider{
			docker.ContainerArgs{
				"rethinkdb",
				"--bind", "all",
				"--canonical-address", publicAddress,
				"--canonical-address", privateAddress,
				"--machine-name", MachineName(host),
			},
			peers,
		},
	}, nil
}

// MachineName converts a hostname into a name RethinkDB accepts:
// dashes become underscores.
func MachineName(host string) string {
	return strings.ReplaceAll(host, "-", "_")
}

func (c *Charm) config() (Config, error) {
	rawCfg, err := c.Hookenv.Config()
	if err != nil {
		return Config{}, errors.Trace(err)
	}
	return ParseConfig(rawCfg)
}
