// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv_test

import (
	"github.com/juju/errors"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/bcsaller/juju-docker/internal/hookenv"
	"github.com/bcsaller/juju-docker/internal/hookenv/hookenvtesting"
)

type contextSuite struct {
	jujutesting.IsolationSuite
	runner *hookenvtesting.StubRunner
	ctx    *hookenv.Context
}

var _ = gc.Suite(&contextSuite{})

func (s *contextSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.runner = &hookenvtesting.StubRunner{
		Outputs: map[string]string{},
		Errors:  map[string]error{},
	}
	s.ctx = hookenv.NewContext(s.runner)
}

func (s *contextSuite) TestLocalUnit(c *gc.C) {
	s.PatchEnvironment("JUJU_UNIT_NAME", "rdb/0")
	unit, err := s.ctx.LocalUnit()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(unit, gc.Equals, "rdb/0")
}

func (s *contextSuite) TestLocalUnitMissing(c *gc.C) {
	s.PatchEnvironment("JUJU_UNIT_NAME", "")
	_, err := s.ctx.LocalUnit()
	c.Assert(err, gc.ErrorMatches, "JUJU_UNIT_NAME not set")
}

func (s *contextSuite) TestApplicationName(c *gc.C) {
	s.PatchEnvironment("JUJU_UNIT_NAME", "rdb/3")
	app, err := s.ctx.ApplicationName()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(app, gc.Equals, "rdb")
}

func (s *contextSuite) TestRelationHookAccessors(c *gc.C) {
	s.PatchEnvironment("JUJU_RELATION", "intracluster")
	s.PatchEnvironment("JUJU_RELATION_ID", "intracluster:0")
	c.Check(s.ctx.InRelationHook(), jc.IsTrue)
	c.Check(s.ctx.RelationName(), gc.Equals, "intracluster")
	c.Check(s.ctx.RelationID(), gc.Equals, "intracluster:0")
}

func (s *contextSuite) TestHookNameFromEnv(c *gc.C) {
	s.PatchEnvironment("JUJU_HOOK_NAME", "config-changed")
	c.Check(s.ctx.HookName(), gc.Equals, "config-changed")
}

func (s *contextSuite) TestConfigSettings(c *gc.C) {
	s.runner.Outputs["config-get --format=json"] = `{"storage-path": "data", "image": null}`
	settings, err := s.ctx.ConfigSettings()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(settings, jc.DeepEquals, map[string]interface{}{
		"storage-path": "data",
		"image":        nil,
	})
}

func (s *contextSuite) TestRelationIDsSorted(c *gc.C) {
	s.runner.Outputs["relation-ids --format=json intracluster"] = `["intracluster:10", "intracluster:2"]`
	ids, err := s.ctx.RelationIDs("intracluster")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(ids, jc.DeepEquals, []string{"intracluster:2", "intracluster:10"})
}

func (s *contextSuite) TestRelatedUnitsSorted(c *gc.C) {
	s.runner.Outputs["relation-list --format=json -r intracluster:0"] = `["rdb/10", "rdb/2"]`
	units, err := s.ctx.RelatedUnits("intracluster:0")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(units, jc.DeepEquals, []string{"rdb/2", "rdb/10"})
}

func (s *contextSuite) TestRelationGet(c *gc.C) {
	s.runner.Outputs["relation-get --format=json -r intracluster:0 - rdb/1"] =
		`{"private-address": "10.0.0.2"}`
	settings, err := s.ctx.RelationGet("intracluster:0", "rdb/1")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(settings, jc.DeepEquals, hookenv.Settings{"private-address": "10.0.0.2"})
}

func (s *contextSuite) TestRelationGetMissingUnit(c *gc.C) {
	s.runner.Errors["relation-get"] = &hookenv.ExitError{
		Tool: "relation-get", Code: 2, Stderr: "invalid value",
	}
	_, err := s.ctx.RelationGet("intracluster:0", "rdb/9")
	c.Check(err, jc.Satisfies, errors.IsNotFound)
}

func (s *contextSuite) TestRelationGetCached(c *gc.C) {
	s.runner.Outputs["relation-get"] = `{"private-address": "10.0.0.2"}`
	for i := 0; i < 3; i++ {
		_, err := s.ctx.RelationGet("intracluster:0", "rdb/1")
		c.Assert(err, jc.ErrorIsNil)
	}
	c.Check(s.runner.Calls, gc.HasLen, 1)
}

func (s *contextSuite) TestRelationSetFlushesRelationGet(c *gc.C) {
	s.runner.Outputs["relation-get"] = `{"private-address": "10.0.0.2"}`
	_, err := s.ctx.RelationGet("intracluster:0", "rdb/1")
	c.Assert(err, jc.ErrorIsNil)

	err = s.ctx.RelationSet("website:1", hookenv.Settings{
		"hostname": "10.0.0.1",
		"port":     "80",
	})
	c.Assert(err, jc.ErrorIsNil)

	_, err = s.ctx.RelationGet("intracluster:0", "rdb/1")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.runner.CallNames(), jc.DeepEquals, []string{
		"relation-get", "relation-set", "relation-get",
	})
	// Settings are passed in stable key order.
	c.Check(s.runner.Calls[1].Args, jc.DeepEquals, []string{
		"-r", "website:1", "hostname=10.0.0.1", "port=80",
	})
}

func (s *contextSuite) TestRelationSetNothing(c *gc.C) {
	err := s.ctx.RelationSet("website:1", nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.runner.Calls, gc.HasLen, 0)
}

func (s *contextSuite) TestUnitGet(c *gc.C) {
	s.runner.Outputs["unit-get --format=json private-address"] = `"10.0.0.1"`
	address, err := s.ctx.PrivateAddress()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(address, gc.Equals, "10.0.0.1")
}

func (s *contextSuite) TestPorts(c *gc.C) {
	err := s.ctx.OpenPort(80, "")
	c.Assert(err, jc.ErrorIsNil)
	err = s.ctx.ClosePort(29015, "TCP")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.runner.Calls[0].Args, jc.DeepEquals, []string{"80/tcp"})
	c.Check(s.runner.Calls[1].Args, jc.DeepEquals, []string{"29015/tcp"})
}

func (s *contextSuite) TestOpenedPorts(c *gc.C) {
	s.runner.Outputs["opened-ports --format=json"] = `["80/tcp", "28015/tcp"]`
	ports, err := s.ctx.OpenedPorts()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(ports, jc.DeepEquals, []string{"80/tcp", "28015/tcp"})
}

func (s *contextSuite) TestOpenedPortsEmpty(c *gc.C) {
	ports, err := s.ctx.OpenedPorts()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(ports, gc.HasLen, 0)
}
