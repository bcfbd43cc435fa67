// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package docker drives the Docker engine for the charm: pulling the
// service image and running, stopping and inspecting the service
// container. It talks to the engine API directly rather than shelling
// out to the docker CLI.
package docker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/docker/distribution/reference"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/retry"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

var logger = loggo.GetLogger("juju-docker.docker")

// API is the slice of the Docker engine client the charm uses.
type API interface {
	ImagePull(ctx context.Context, refStr string, options types.ImagePullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *specs.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
}

// Client wraps the engine API with the retry and reference handling
// the charm wants.
type Client struct {
	api   API
	clock clock.Clock
}

// NewClient returns a Client over the given engine API.
func NewClient(api API, clk clock.Clock) *Client {
	return &Client{api: api, clock: clk}
}

// NewEnvClient connects to the engine configured by the DOCKER_*
// environment variables, defaulting to the local socket.
func NewEnvClient() (*Client, error) {
	api, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Annotate(err, "connecting to docker engine")
	}
	return NewClient(api, clock.WallClock), nil
}

// encodeRegistryAuth turns a base64 "username:password" credential, as
// stored in charm config, into the header value ImagePull expects.
func encodeRegistryAuth(auth string) (string, error) {
	buf, err := json.Marshal(registry.AuthConfig{Auth: auth})
	if err != nil {
		return "", errors.Trace(err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// Pull fetches an image, normalizing short names like
// "dockerfile/rethinkdb" the same way the docker CLI does. Transient
// engine errors are retried.
func (c *Client) Pull(ctx context.Context, image, auth string) error {
	ref, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return errors.Annotatef(err, "invalid image reference %q", image)
	}
	ref = reference.TagNameOnly(ref)

	var opts types.ImagePullOptions
	if auth != "" {
		opts.RegistryAuth, err = encodeRegistryAuth(auth)
		if err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(retry.Call(retry.CallArgs{
		Func: func() error {
			rc, err := c.api.ImagePull(ctx, ref.String(), opts)
			if err != nil {
				return errors.Trace(err)
			}
			defer rc.Close()
			// The pull only completes once the progress stream is drained.
			_, err = io.Copy(io.Discard, rc)
			return errors.Trace(err)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Warningf("pull of %q failed (attempt %d): %v", image, attempt, err)
		},
		Attempts: 3,
		Delay:    5 * time.Second,
		Clock:    c.clock,
		Stop:     ctx.Done(),
	}))
}

// Run creates and starts a detached container from the given spec,
// returning the new container's id.
func (c *Client) Run(ctx context.Context, spec RunSpec) (string, error) {
	config, hostConfig, err := spec.engineConfig()
	if err != nil {
		return "", errors.Trace(err)
	}
	created, err := c.api.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return "", errors.Annotatef(err, "creating container from %q", spec.Image)
	}
	logger.Infof("created container %s from %q", created.ID, spec.Image)
	if err := c.api.ContainerStart(ctx, created.ID, types.ContainerStartOptions{}); err != nil {
		return "", errors.Annotatef(err, "starting container %s", created.ID)
	}
	return created.ID, nil
}

// Running reports whether the given container exists and is running.
func (c *Client) Running(ctx context.Context, id string) (bool, error) {
	info, err := c.api.ContainerInspect(ctx, id)
	if client.IsErrNotFound(err) {
		return false, nil
	} else if err != nil {
		return false, errors.Trace(err)
	}
	return info.State != nil && info.State.Running, nil
}

// Stop stops the container if it is running and removes it along with
// its anonymous volumes. Unknown containers are ignored: the recorded
// id may be stale after a host reboot or manual cleanup.
func (c *Client) Stop(ctx context.Context, id string) error {
	running, err := c.Running(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	if running {
		if err := c.api.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
			return errors.Annotatef(err, "stopping container %s", id)
		}
		logger.Infof("stopped container %s", id)
	}
	err = c.api.ContainerRemove(ctx, id, types.ContainerRemoveOptions{RemoveVolumes: true})
	if err != nil && !client.IsErrNotFound(err) {
		return errors.Annotatef(err, "removing container %s", id)
	}
	return nil
}
