// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rethinkdb

var (
	BuildSpec = (*Charm).buildSpec
	Hostname  = &hostname

	NewPackageManager = &newPackageManager
	DockerCLITarget   = &dockerCLITarget
	DockerCLILink     = &dockerCLILink
)
