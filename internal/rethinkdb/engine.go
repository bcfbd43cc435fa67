// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rethinkdb

import (
	"os"

	"github.com/juju/errors"
	"github.com/juju/packaging/v3/manager"
)

// enginePackage is the Ubuntu archive package providing the Docker
// engine. On trusty it ships the CLI as docker.io.
const enginePackage = "docker.io"

var (
	dockerCLITarget = "/usr/bin/docker.io"
	dockerCLILink   = "/usr/local/bin/docker"
)

// PackageManager is the slice of apt behaviour the install hook needs.
type PackageManager interface {
	IsInstalled(pack string) bool
	Install(packs ...string) error
}

var newPackageManager = func() PackageManager {
	return manager.NewAptPackageManager()
}

// installEngine provisions the Docker engine on the unit: apt-installs
// the docker.io package and links the CLI onto $PATH as "docker", so
// both the engine socket and the operator's CLI are available before
// the first pull.
func installEngine() error {
	pm := newPackageManager()
	if !pm.IsInstalled(enginePackage) {
		if err := pm.Install(enginePackage); err != nil {
			return errors.Annotatef(err, "installing %s", enginePackage)
		}
	}
	if err := os.Remove(dockerCLILink); err != nil && !os.IsNotExist(err) {
		return errors.Trace(err)
	}
	if err := os.Symlink(dockerCLITarget, dockerCLILink); err != nil {
		return errors.Annotate(err, "linking docker CLI")
	}
	return nil
}
