// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rethinkdb

import (
	"github.com/juju/errors"
	"github.com/juju/schema"

	"github.com/bcsaller/juju-docker/internal/hookenv"
)

// DefaultImage is the image run when config leaves "image" unset.
const DefaultImage = "dockerfile/rethinkdb"

// Config is the charm's validated configuration.
type Config struct {
	// StoragePath is the host path mounted at /rethinkdb. Relative
	// paths live under the charm directory.
	StoragePath string

	// Image is the container image to run.
	Image string

	// RegistryAuth optionally holds a base64 "username:password"
	// credential for pulling from a private registry.
	RegistryAuth string
}

var configChecker = schema.FieldMap(
	schema.Fields{
		"storage-path":  schema.String(),
		"image":         schema.String(),
		"registry-auth": schema.String(),
	},
	schema.Defaults{
		"storage-path":  "data",
		"image":         DefaultImage,
		"registry-auth": "",
	},
)

// ParseConfig validates raw charm config and applies defaults. Unset
// options arrive from config-get as nulls and fall back to defaults.
func ParseConfig(raw *hookenv.Config) (Config, error) {
	data := raw.Map()
	for key, value := range data {
		if value == nil {
			delete(data, key)
		}
	}
	coerced, err := configChecker.Coerce(data, nil)
	if err != nil {
		return Config{}, errors.Annotate(err, "invalid charm config")
	}
	fields := coerced.(map[string]interface{})
	return Config{
		StoragePath:  fields["storage-path"].(string),
		Image:        fields["image"].(string),
		RegistryAuth: fields["registry-auth"].(string),
	}, nil
}
