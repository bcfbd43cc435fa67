// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rethinkdb_test

import (
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/bcsaller/juju-docker/internal/hookenv"
	"github.com/bcsaller/juju-docker/internal/hookenv/hookenvtesting"
	"github.com/bcsaller/juju-docker/internal/rethinkdb"
)

type relationsSuite struct {
	jujutesting.IsolationSuite
	runner *hookenvtesting.StubRunner
	hctx   *hookenv.Context
}

var _ = gc.Suite(&relationsSuite{})

func (s *relationsSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.runner = &hookenvtesting.StubRunner{Outputs: map[string]string{}}
	s.hctx = hookenv.NewContext(s.runner)
}

func (s *relationsSuite) TestJoinArgs(c *gc.C) {
	c.Check(rethinkdb.JoinArgs(nil, 29015), gc.HasLen, 0)
	c.Check(rethinkdb.JoinArgs([]string{"10.0.0.2", "10.0.0.3"}, 29015), jc.DeepEquals, []string{
		"--join", "10.0.0.2:29015",
		"--join", "10.0.0.3:29015",
	})
}

func (s *relationsSuite) TestClusterPeersAlwaysReady(c *gc.C) {
	peers := rethinkdb.NewClusterPeers(s.hctx)
	ready, err := peers.Ready()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(ready, jc.IsTrue)
}

func (s *relationsSuite) TestClusterPeersArgs(c *gc.C) {
	s.runner.Outputs["relation-ids --format=json intracluster"] = `["intracluster:0"]`
	s.runner.Outputs["relation-list --format=json -r intracluster:0"] = `["rdb/1", "rdb/2"]`
	s.runner.Outputs["relation-get --format=json -r intracluster:0 - rdb/1"] =
		`{"private-address": "10.0.0.2"}`
	s.runner.Outputs["relation-get --format=json -r intracluster:0 - rdb/2"] =
		`{"private-address": "10.0.0.3"}`

	args, err := rethinkdb.NewClusterPeers(s.hctx).ContainerArgs()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(args, jc.DeepEquals, []string{
		"--join", "10.0.0.2:29015",
		"--join", "10.0.0.3:29015",
	})
}

func (s *relationsSuite) TestClusterPeersAloneNoArgs(c *gc.C) {
	args, err := rethinkdb.NewClusterPeers(s.hctx).ContainerArgs()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(args, gc.HasLen, 0)
}

func (s *relationsSuite) TestWebsiteProvideData(c *gc.C) {
	s.runner.Outputs["unit-get --format=json private-address"] = `"10.0.0.1"`
	website := rethinkdb.NewWebsite(s.hctx)
	c.Check(website.RelationName(), gc.Equals, "website")
	data, err := website.ProvideData()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(data, jc.DeepEquals, hookenv.Settings{
		"hostname": "10.0.0.1",
		"port":     "80",
	})
}
