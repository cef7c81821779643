package docker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
)

// ServiceOptions describes a long running container with published TCP ports.
type ServiceOptions struct {
	Name  string
	Image string
	Cmd   []string
	// Ports maps container TCP ports to ports on the host loopback interface.
	Ports map[int]int
}

// ContainerRunning reports whether a container with the given name exists and
// is running.
func (c *Client) ContainerRunning(ctx context.Context, name string) (exists bool, running bool, err error) {
	inspect, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}

	return true, inspect.State != nil && inspect.State.Running, nil
}

// StartService creates and starts a detached container.
func (c *Client) StartService(ctx context.Context, opts ServiceOptions) (string, error) {
	exposed, bindings, err := portMappings(opts.Ports)
	if err != nil {
		return "", err
	}

	config := &container.Config{
		Image:        opts.Image,
		Cmd:          opts.Cmd,
		ExposedPorts: exposed,
	}
	hostConfig := &container.HostConfig{
		PortBindings: bindings,
	}

	resp, err := c.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, opts.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create container %s: %w", opts.Name, err)
	}

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = c.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("failed to start container %s: %w", opts.Name, err)
	}

	c.logger.With("name", opts.Name).With("id", resp.ID).Info("container started")

	return resp.ID, nil
}

// RemoveContainer force-removes a container. A missing container is not an error.
func (c *Client) RemoveContainer(ctx context.Context, name string) error {
	err := c.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove container %s: %w", name, err)
	}

	return nil
}

func portMappings(ports map[int]int) (nat.PortSet, nat.PortMap, error) {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}

	for containerPort, hostPort := range ports {
		port, err := nat.NewPort("tcp", strconv.Itoa(containerPort))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid container port %d: %w", containerPort, err)
		}

		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{
			HostIP:   "127.0.0.1",
			HostPort: strconv.Itoa(hostPort),
		}}
	}

	return exposed, bindings, nil
}
