// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package service

import (
	"github.com/juju/errors"

	"github.com/bcsaller/juju-docker/internal/hookenv"
)

// RelationContext gathers the settings of every remote unit on a named
// relation that has published all required keys. It is both a
// DataSource (ready once at least one complete unit exists) and, via
// ProvideData, the providing side of the relation.
type RelationContext struct {
	// Name is the relation name from metadata.yaml.
	Name string

	// Interface documents the relation interface; it is not used to
	// select data but kept so definitions read like the metadata.
	Interface string

	// RequiredKeys must all be present in a unit's settings for that
	// unit to be included.
	RequiredKeys []string

	ctx      *hookenv.Context
	gathered bool
	units    []hookenv.Settings
}

// NewRelationContext returns a RelationContext bound to the hook
// environment. Data is gathered lazily on first use.
func NewRelationContext(ctx *hookenv.Context, name, iface string, requiredKeys []string) *RelationContext {
	return &RelationContext{
		Name:         name,
		Interface:    iface,
		RequiredKeys: requiredKeys,
		ctx:          ctx,
	}
}

// gather collects complete unit settings across every relation id of
// this name. Units are visited in natural order, so peer data is
// stable between hooks.
func (r *RelationContext) gather() error {
	if r.gathered {
		return nil
	}
	relIDs, err := r.ctx.RelationIDs(r.Name)
	if err != nil {
		return errors.Trace(err)
	}
	for _, relID := range relIDs {
		units, err := r.ctx.RelatedUnits(relID)
		if err != nil {
			return errors.Trace(err)
		}
		for _, unit := range units {
			settings, err := r.ctx.RelationGet(relID, unit)
			if errors.IsNotFound(err) {
				continue
			} else if err != nil {
				return errors.Trace(err)
			}
			if r.complete(settings) {
				r.units = append(r.units, settings)
			}
		}
	}
	r.gathered = true
	return nil
}

func (r *RelationContext) complete(settings hookenv.Settings) bool {
	for _, key := range r.RequiredKeys {
		if settings[key] == "" {
			return false
		}
	}
	return true
}

// Units returns the settings of each complete remote unit.
func (r *RelationContext) Units() ([]hookenv.Settings, error) {
	if err := r.gather(); err != nil {
		return nil, errors.Trace(err)
	}
	return r.units, nil
}

// Ready implements DataSource: true once any complete unit exists.
func (r *RelationContext) Ready() (bool, error) {
	units, err := r.Units()
	if err != nil {
		return false, errors.Trace(err)
	}
	if len(units) == 0 {
		logger.Debugf("incomplete relation %q", r.Name)
		return false, nil
	}
	return true, nil
}

// RelationName implements DataProvider.
func (r *RelationContext) RelationName() string {
	return r.Name
}

// ProvideData implements DataProvider; the base context publishes
// nothing. Embedders override it.
func (r *RelationContext) ProvideData() (hookenv.Settings, error) {
	return nil, nil
}
