// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package docker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/juju/errors"
)

// ArgsProvider contributes arguments to the container command line.
// Relation contexts implement it to turn peer data into arguments.
type ArgsProvider interface {
	ContainerArgs() ([]string, error)
}

// ContainerArgs is a fixed argument list. If the container should run
// a specific command rather than the image default, it comes first.
type ContainerArgs []string

func (a ContainerArgs) ContainerArgs() ([]string, error) {
	return a, nil
}

// PortMappings maps host ports to container ports.
type PortMappings map[int]int

// portConfig renders the mappings as the engine's exposed-port set and
// host bindings.
func (m PortMappings) portConfig() (nat.PortSet, nat.PortMap, error) {
	exposed := make(nat.PortSet)
	bindings := make(nat.PortMap)
	for hostPort, containerPort := range m {
		port, err := nat.NewPort("tcp", fmt.Sprint(containerPort))
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		exposed[port] = struct{}{}
		bindings[port] = append(bindings[port], nat.PortBinding{
			HostPort: fmt.Sprint(hostPort),
		})
	}
	return exposed, bindings, nil
}

// Volumes maps host paths to container paths. Relative host paths are
// resolved under the charm directory and created on demand.
type Volumes struct {
	CharmDir string
	Mapped   map[string]string
}

// binds renders the volume map as engine bind specs, in a stable order.
func (v Volumes) binds() ([]string, error) {
	hostPaths := make([]string, 0, len(v.Mapped))
	for hostPath := range v.Mapped {
		hostPaths = append(hostPaths, hostPath)
	}
	sort.Strings(hostPaths)

	var binds []string
	for _, hostPath := range hostPaths {
		containerPath := v.Mapped[hostPath]
		resolved := hostPath
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(v.CharmDir, resolved)
		}
		if err := os.MkdirAll(resolved, 0755); err != nil {
			return nil, errors.Annotatef(err, "creating volume path %q", resolved)
		}
		binds = append(binds, resolved+":"+containerPath)
	}
	return binds, nil
}

// RunSpec describes the container to start: the image, its published
// ports, its volumes, and the command line assembled from providers.
type RunSpec struct {
	Image   string
	Ports   PortMappings
	Volumes Volumes
	Env     []string
	Args    []ArgsProvider
}

// CommandLine flattens the spec's argument providers.
func (s RunSpec) CommandLine() ([]string, error) {
	var cmdline []string
	for _, provider := range s.Args {
		args, err := provider.ContainerArgs()
		if err != nil {
			return nil, errors.Trace(err)
		}
		cmdline = append(cmdline, args...)
	}
	return cmdline, nil
}

func (s RunSpec) engineConfig() (*container.Config, *container.HostConfig, error) {
	if s.Image == "" {
		return nil, nil, errors.New("run spec has no image")
	}
	exposed, bindings, err := s.Ports.portConfig()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	binds, err := s.Volumes.binds()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	cmdline, err := s.CommandLine()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	config := &container.Config{
		Image:        s.Image,
		Cmd:          cmdline,
		Env:          s.Env,
		ExposedPorts: exposed,
	}
	hostConfig := &container.HostConfig{
		PortBindings: bindings,
		Binds:        binds,
		RestartPolicy: container.RestartPolicy{
			Name: "unless-stopped",
		},
	}
	return config, hostConfig, nil
}
