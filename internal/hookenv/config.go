// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"

	"github.com/juju/errors"
)

// configFileName is where a charm's previous configuration is kept,
// relative to the charm directory.
const configFileName = ".juju-persistent-config"

// Config holds charm configuration together with the values saved by
// the previous hook, so hooks can ask what changed.
type Config struct {
	data map[string]interface{}
	prev map[string]interface{}
	path string
}

// Config returns the charm configuration, loading any previously saved
// values from the charm directory for change tracking.
func (ctx *Context) Config() (*Config, error) {
	settings, err := ctx.ConfigSettings()
	if err != nil {
		return nil, errors.Trace(err)
	}
	charmDir, err := ctx.CharmDir()
	if err != nil {
		return nil, errors.Trace(err)
	}
	cfg := &Config{
		data: settings,
		path: filepath.Join(charmDir, configFileName),
	}
	raw, err := os.ReadFile(cfg.path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return nil, errors.Annotate(err, "reading previous config")
	}
	if err := json.Unmarshal(raw, &cfg.prev); err != nil {
		return nil, errors.Annotate(err, "decoding previous config")
	}
	return cfg, nil
}

// Get returns the current value for key, or nil.
func (c *Config) Get(key string) interface{} {
	return c.data[key]
}

// GetString returns the current value for key as a string. Missing and
// non-string values report "".
func (c *Config) GetString(key string) string {
	s, _ := c.data[key].(string)
	return s
}

// Set overrides a value for the rest of the hook; Save persists it.
func (c *Config) Set(key string, value interface{}) {
	c.data[key] = value
}

// Map returns a copy of the current configuration.
func (c *Config) Map() map[string]interface{} {
	data := make(map[string]interface{}, len(c.data))
	for key, value := range c.data {
		data[key] = value
	}
	return data
}

// Previous returns the value saved for key by the previous hook, or nil.
func (c *Config) Previous(key string) interface{} {
	if c.prev == nil {
		return nil
	}
	return c.prev[key]
}

// Changed reports whether key differs from the previously saved value.
// Every key counts as changed when nothing has been saved yet. Values
// are compared deeply; JSON decodes list options to uncomparable types.
func (c *Config) Changed(key string) bool {
	if c.prev == nil {
		return true
	}
	return !reflect.DeepEqual(c.prev[key], c.data[key])
}

// Save writes the current configuration to the charm directory.
// Previously saved keys absent from the current data are preserved.
func (c *Config) Save() error {
	for key, value := range c.prev {
		if _, ok := c.data[key]; !ok {
			c.data[key] = value
		}
	}
	raw, err := json.Marshal(c.data)
	if err != nil {
		return errors.Trace(err)
	}
	if err := os.WriteFile(c.path, raw, 0644); err != nil {
		return errors.Annotate(err, "saving config")
	}
	return nil
}
