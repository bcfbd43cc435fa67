// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/juju/naturalsort"
	"gopkg.in/yaml.v2"
)

// Relation describes one relation endpoint declared in metadata.yaml.
type Relation struct {
	Interface string `yaml:"interface"`
}

// Metadata holds the subset of charm metadata the runtime needs.
type Metadata struct {
	Name     string              `yaml:"name"`
	Summary  string              `yaml:"summary"`
	Provides map[string]Relation `yaml:"provides"`
	Requires map[string]Relation `yaml:"requires"`
	Peers    map[string]Relation `yaml:"peers"`
}

// Metadata reads and parses the charm's metadata.yaml.
func (ctx *Context) Metadata() (*Metadata, error) {
	charmDir, err := ctx.CharmDir()
	if err != nil {
		return nil, errors.Trace(err)
	}
	raw, err := os.ReadFile(filepath.Join(charmDir, "metadata.yaml"))
	if err != nil {
		return nil, errors.Annotate(err, "reading charm metadata")
	}
	var meta Metadata
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return nil, errors.Annotate(err, "parsing charm metadata")
	}
	return &meta, nil
}

// RelationNames returns every relation name declared by the charm, in
// natural order.
func (m *Metadata) RelationNames() []string {
	var relNames []string
	for _, section := range []map[string]Relation{m.Provides, m.Requires, m.Peers} {
		for name := range section {
			relNames = append(relNames, name)
		}
	}
	naturalsort.Sort(relNames)
	return relNames
}

// lifecycleHooks are the hooks every charm may receive.
var lifecycleHooks = []string{
	"install",
	"config-changed",
	"start",
	"stop",
	"upgrade-charm",
}

// relationHookSuffixes are the hook kinds generated per relation.
var relationHookSuffixes = []string{
	"joined",
	"changed",
	"departed",
	"broken",
}

// HookNames returns the names of all hooks the charm can be invoked
// with, derived from its declared relations.
func (m *Metadata) HookNames() []string {
	hookNames := append([]string{}, lifecycleHooks...)
	for _, relName := range m.RelationNames() {
		for _, suffix := range relationHookSuffixes {
			hookNames = append(hookNames, relName+"-relation-"+suffix)
		}
	}
	return hookNames
}
