// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package service_test

import (
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/bcsaller/juju-docker/internal/hookenv"
	"github.com/bcsaller/juju-docker/internal/hookenv/hookenvtesting"
	"github.com/bcsaller/juju-docker/internal/service"
)

type managerSuite struct {
	jujutesting.IsolationSuite
	runner *hookenvtesting.StubRunner
	hctx   *hookenv.Context

	events []service.Event
}

var _ = gc.Suite(&managerSuite{})

func (s *managerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.runner = &hookenvtesting.StubRunner{Outputs: map[string]string{}}
	s.hctx = hookenv.NewContext(s.runner)
	s.events = nil
}

func (s *managerSuite) record(m *service.Manager, name string, event service.Event) error {
	s.events = append(s.events, event)
	return nil
}

type readiness bool

func (r readiness) Ready() (bool, error) { return bool(r), nil }

type stubProvider struct {
	relName string
	data    hookenv.Settings
}

func (p *stubProvider) RelationName() string { return p.relName }

func (p *stubProvider) ProvideData() (hookenv.Settings, error) { return p.data, nil }

func (s *managerSuite) definition(ready bool) service.Definition {
	return service.Definition{
		Name:  "dockerfile/rethinkdb",
		Ports: []int{80, 28015},
		RequiredData: []service.DataSource{
			readiness(ready),
		},
		ProvidedData: []service.DataProvider{
			&stubProvider{
				relName: "website",
				data:    hookenv.Settings{"hostname": "10.0.0.1", "port": "80"},
			},
		},
		Start: s.record,
		Stop:  s.record,
	}
}

func (s *managerSuite) TestReadyServiceStartsAndOpensPorts(c *gc.C) {
	s.runner.Outputs["opened-ports --format=json"] = `["80/tcp", "9999/tcp"]`
	m := service.NewManager(s.hctx, s.definition(true))
	err := m.Manage("config-changed")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.events, jc.DeepEquals, []service.Event{service.StartEvent})

	// Only the missing port is opened, the unwanted one is closed.
	var ports []hookenvtesting.Call
	for _, call := range s.runner.Calls {
		if call.Tool == "open-port" || call.Tool == "close-port" {
			ports = append(ports, call)
		}
	}
	c.Assert(ports, gc.HasLen, 2)
	c.Check(ports[0].Tool, gc.Equals, "open-port")
	c.Check(ports[0].Args, jc.DeepEquals, []string{"28015/tcp"})
	c.Check(ports[1].Tool, gc.Equals, "close-port")
	c.Check(ports[1].Args, jc.DeepEquals, []string{"9999/tcp"})
}

func (s *managerSuite) TestUnreadyServiceStopsAndClosesPorts(c *gc.C) {
	s.runner.Outputs["opened-ports --format=json"] = `["80/tcp"]`
	m := service.NewManager(s.hctx, s.definition(false))
	err := m.Manage("config-changed")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.events, jc.DeepEquals, []service.Event{service.StopEvent})

	var closed []string
	for _, call := range s.runner.Calls {
		if call.Tool == "close-port" {
			closed = append(closed, call.Args[0])
		}
	}
	c.Check(closed, jc.DeepEquals, []string{"80/tcp"})
}

func (s *managerSuite) TestMalformedOpenedPortIsAnError(c *gc.C) {
	s.runner.Outputs["opened-ports --format=json"] = `["80/tcp", "garbage/tcp"]`
	m := service.NewManager(s.hctx, s.definition(true))
	err := m.Manage("config-changed")
	c.Assert(err, gc.ErrorMatches, `invalid port spec "garbage/tcp"`)

	// Nothing was closed on the strength of a bad parse.
	for _, call := range s.runner.Calls {
		c.Check(call.Tool, gc.Not(gc.Equals), "close-port")
	}
}

func (s *managerSuite) TestStopHookStopsServices(c *gc.C) {
	m := service.NewManager(s.hctx, s.definition(true))
	err := m.Manage("stop")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.events, jc.DeepEquals, []service.Event{service.StopEvent})
}

func (s *managerSuite) TestProvideDataOnMatchingHook(c *gc.C) {
	s.PatchEnvironment("JUJU_RELATION_ID", "website:2")
	m := service.NewManager(s.hctx, s.definition(true))
	err := m.ProvideData("website-relation-joined")
	c.Assert(err, jc.ErrorIsNil)

	c.Assert(s.runner.Calls, gc.HasLen, 1)
	c.Check(s.runner.Calls[0].Tool, gc.Equals, "relation-set")
	c.Check(s.runner.Calls[0].Args, jc.DeepEquals, []string{
		"-r", "website:2", "hostname=10.0.0.1", "port=80",
	})
}

func (s *managerSuite) TestProvideDataIgnoresOtherHooks(c *gc.C) {
	m := service.NewManager(s.hctx, s.definition(true))
	err := m.ProvideData("config-changed")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.runner.Calls, gc.HasLen, 0)

	err = m.ProvideData("website-relation-broken")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.runner.Calls, gc.HasLen, 0)
}

func (s *managerSuite) TestServiceNotFound(c *gc.C) {
	m := service.NewManager(s.hctx)
	err := m.ReconfigureServices("nonsense")
	c.Assert(err, gc.ErrorMatches, `service "nonsense" not found`)
}
