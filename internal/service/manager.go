// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package service implements the charm's services framework: each hook
// re-evaluates every service definition against the data available
// from config and relations, restarting the service when its required
// data is complete and stopping it when not.
package service

import (
	"strconv"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/bcsaller/juju-docker/internal/hookenv"
)

var logger = loggo.GetLogger("juju-docker.service")

// Event tells a callback why it is being invoked.
type Event string

const (
	// StartEvent asks the callback to (re)start the service.
	StartEvent Event = "start"

	// StopEvent asks the callback to stop the service.
	StopEvent Event = "stop"
)

// Callback performs a start or stop action for a service.
type Callback func(m *Manager, serviceName string, event Event) error

// DataSource gates a service on externally provided data.
type DataSource interface {
	// Ready reports whether the data this source needs is complete.
	Ready() (bool, error)
}

// DataProvider publishes data onto a relation when the matching
// relation hook fires.
type DataProvider interface {
	// RelationName names the relation the data belongs on.
	RelationName() string

	// ProvideData returns the settings to publish.
	ProvideData() (hookenv.Settings, error)
}

// Definition describes one managed service.
type Definition struct {
	// Name identifies the service, conventionally the image name.
	Name string

	// Ports are opened on the unit while the service runs and closed
	// when it stops.
	Ports []int

	// RequiredData must all be ready before the service starts.
	RequiredData []DataSource

	// ProvidedData is published on matching relation hooks.
	ProvidedData []DataProvider

	// Start and Stop perform the actual service transitions.
	Start Callback
	Stop  Callback
}

// Manager evaluates service definitions against the hook environment.
type Manager struct {
	hctx     *hookenv.Context
	services map[string]*Definition
	order    []string
}

// NewManager returns a Manager over the given definitions.
func NewManager(hctx *hookenv.Context, defs ...Definition) *Manager {
	m := &Manager{
		hctx:     hctx,
		services: make(map[string]*Definition),
	}
	for i := range defs {
		def := defs[i]
		m.services[def.Name] = &def
		m.order = append(m.order, def.Name)
	}
	return m
}

// Context returns the hook environment the manager operates in.
func (m *Manager) Context() *hookenv.Context {
	return m.hctx
}

// Service returns the named definition.
func (m *Manager) Service(name string) (*Definition, error) {
	def, ok := m.services[name]
	if !ok {
		return nil, errors.NotFoundf("service %q", name)
	}
	return def, nil
}

// Manage handles the named hook: stop hooks stop everything, any other
// hook publishes provided data and reconfigures all services.
func (m *Manager) Manage(hookName string) error {
	if hookName == "stop" {
		return errors.Trace(m.StopServices())
	}
	if err := m.ProvideData(hookName); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(m.ReconfigureServices())
}

// ProvideData publishes each provider's data on the current relation
// when the hook is that relation's -joined or -changed hook.
func (m *Manager) ProvideData(hookName string) error {
	for _, name := range m.order {
		for _, provider := range m.services[name].ProvidedData {
			relName := provider.RelationName()
			if hookName != relName+"-relation-joined" && hookName != relName+"-relation-changed" {
				continue
			}
			data, err := provider.ProvideData()
			if err != nil {
				return errors.Annotatef(err, "providing %q data", relName)
			}
			if len(data) == 0 {
				continue
			}
			if err := m.hctx.RelationSet(m.hctx.RelationID(), data); err != nil {
				return errors.Annotatef(err, "publishing %q data", relName)
			}
		}
	}
	return nil
}

// ReconfigureServices starts or stops each service according to the
// readiness of its required data.
func (m *Manager) ReconfigureServices(serviceNames ...string) error {
	if len(serviceNames) == 0 {
		serviceNames = m.order
	}
	for _, name := range serviceNames {
		def, err := m.Service(name)
		if err != nil {
			return errors.Trace(err)
		}
		ready, err := m.IsReady(name)
		if err != nil {
			return errors.Trace(err)
		}
		if ready {
			logger.Infof("service %q ready, restarting", name)
			if def.Start != nil {
				if err := def.Start(m, name, StartEvent); err != nil {
					return errors.Annotatef(err, "starting %q", name)
				}
			}
			if err := m.openPorts(def); err != nil {
				return errors.Trace(err)
			}
		} else {
			logger.Infof("service %q not ready, stopping", name)
			if err := m.stopService(def); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return nil
}

// StopServices stops every managed service and closes its ports.
func (m *Manager) StopServices() error {
	for _, name := range m.order {
		if err := m.stopService(m.services[name]); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (m *Manager) stopService(def *Definition) error {
	if err := m.closePorts(def); err != nil {
		return errors.Trace(err)
	}
	if def.Stop != nil {
		if err := def.Stop(m, def.Name, StopEvent); err != nil {
			return errors.Annotatef(err, "stopping %q", def.Name)
		}
	}
	return nil
}

// IsReady reports whether all of the service's required data is ready.
func (m *Manager) IsReady(name string) (bool, error) {
	def, err := m.Service(name)
	if err != nil {
		return false, errors.Trace(err)
	}
	for _, source := range def.RequiredData {
		ready, err := source.Ready()
		if err != nil {
			return false, errors.Trace(err)
		}
		if !ready {
			return false, nil
		}
	}
	return true, nil
}

// wantedPorts returns the service's ports as "port/tcp" specs.
func wantedPorts(def *Definition) set.Strings {
	wanted := set.NewStrings()
	for _, port := range def.Ports {
		wanted.Add(portProto(port))
	}
	return wanted
}

func portProto(port int) string {
	return strconv.Itoa(port) + "/tcp"
}

// splitPortProto parses a "port/protocol" spec as reported by
// opened-ports. A missing protocol means tcp.
func splitPortProto(spec string) (int, string, error) {
	proto := "tcp"
	portStr := spec
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		portStr, proto = spec[:i], spec[i+1:]
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, "", errors.Errorf("invalid port spec %q", spec)
	}
	return port, proto, nil
}

// openPorts opens the service's declared ports, closing any opened
// ports the definition no longer wants.
func (m *Manager) openPorts(def *Definition) error {
	opened, err := m.openedPorts()
	if err != nil {
		return errors.Trace(err)
	}
	wanted := wantedPorts(def)
	for _, spec := range wanted.Difference(opened).SortedValues() {
		port, proto, err := splitPortProto(spec)
		if err != nil {
			return errors.Trace(err)
		}
		if err := m.hctx.OpenPort(port, proto); err != nil {
			return errors.Annotatef(err, "opening %s", spec)
		}
	}
	for _, spec := range opened.Difference(wanted).SortedValues() {
		port, proto, err := splitPortProto(spec)
		if err != nil {
			return errors.Trace(err)
		}
		if err := m.hctx.ClosePort(port, proto); err != nil {
			return errors.Annotatef(err, "closing %s", spec)
		}
	}
	return nil
}

// closePorts closes any of the service's ports that are open.
func (m *Manager) closePorts(def *Definition) error {
	opened, err := m.openedPorts()
	if err != nil {
		return errors.Trace(err)
	}
	for _, spec := range wantedPorts(def).Intersection(opened).SortedValues() {
		port, proto, err := splitPortProto(spec)
		if err != nil {
			return errors.Trace(err)
		}
		if err := m.hctx.ClosePort(port, proto); err != nil {
			return errors.Annotatef(err, "closing %s", spec)
		}
	}
	return nil
}

func (m *Manager) openedPorts() (set.Strings, error) {
	ports, err := m.hctx.OpenedPorts()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return set.NewStrings(ports...), nil
}
