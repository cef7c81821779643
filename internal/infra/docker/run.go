package docker

import (
	"bytes"
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/moby/go-archive"
)

type RunOptions struct {
	Image   string
	Cmd     []string
	Env     []string
	WorkDir string
	// CopyFrom is a host directory tarred into the container at CopyTo before
	// it starts. Only the entries listed in CopyInclude are sent when set.
	CopyFrom    string
	CopyTo      string
	CopyInclude []string
}

// RunOutput is what a finished container wrote.
type RunOutput struct {
	Stdout string
	Stderr string
}

// Run runs a Docker container to completion and returns its output. The
// container is removed afterwards.
func (c *Client) Run(ctx context.Context, opts RunOptions) (RunOutput, error) {
	config := &container.Config{
		Image:        opts.Image,
		Cmd:          opts.Cmd,
		Env:          opts.Env,
		WorkingDir:   opts.WorkDir,
		AttachStdout: true,
		AttachStderr: true,
	}

	resp, err := c.cli.ContainerCreate(ctx, config, &container.HostConfig{}, nil, nil, "")
	if err != nil {
		return RunOutput{}, fmt.Errorf("failed to create container: %w", err)
	}

	containerID := resp.ID
	defer func() {
		// the run context may already be cancelled
		if err := c.cli.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true}); err != nil {
			c.logger.With("container_id", containerID).With("err", err.Error()).Warn("failed to remove container")
		}
	}()

	if opts.CopyFrom != "" {
		if err := c.copyIn(ctx, containerID, opts); err != nil {
			return RunOutput{}, err
		}
	}

	attachResp, err := c.cli.ContainerAttach(ctx, containerID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return RunOutput{}, fmt.Errorf("failed to attach to container: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	copied := make(chan struct{})
	go func() {
		defer close(copied)
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
	}()

	if err := c.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return RunOutput{}, fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := c.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return RunOutput{}, fmt.Errorf("error waiting for container: %w", err)
		}
	case status := <-statusCh:
		<-copied
		if status.StatusCode != 0 {
			errorOutput := stderr.String()
			if errorOutput == "" {
				errorOutput = stdout.String()
			}
			if errorOutput != "" {
				return RunOutput{}, fmt.Errorf("container exited with code %d: %s", status.StatusCode, errorOutput)
			}
			return RunOutput{}, fmt.Errorf("container exited with code %d", status.StatusCode)
		}
	}

	return RunOutput{Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

func (c *Client) copyIn(ctx context.Context, containerID string, opts RunOptions) error {
	content, err := archive.TarWithOptions(opts.CopyFrom, &archive.TarOptions{
		IncludeFiles: opts.CopyInclude,
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", opts.CopyFrom, err)
	}
	defer content.Close()

	dest := opts.CopyTo
	if dest == "" {
		dest = "/"
	}

	if err := c.cli.CopyToContainer(ctx, containerID, dest, content, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("failed to copy %s into container: %w", opts.CopyFrom, err)
	}

	return nil
}
