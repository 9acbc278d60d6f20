// Package test provides a fake Docker engine client for testing the build
// pipeline without a running daemon.
package test

import (
	"bytes"
	"context"
	"fmt"
	"io"

	dockertypes "github.com/docker/docker/api/types"
	dockercontainer "github.com/docker/docker/api/types/container"
	dockernetwork "github.com/docker/docker/api/types/network"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// FakeDockerClient provides a fake engine client for testing.
type FakeDockerClient struct {
	// Images maps normalized image names to their inspect responses.
	Images map[string]dockertypes.ImageInspect

	// Containers maps created container names to their configs.
	Containers map[string]dockercontainer.Config

	// Calls records the engine operations in invocation order.
	Calls []string

	ServerVersionErr error

	PullErr    error
	PullOutput string

	BuildImageOpts    dockertypes.ImageBuildOptions
	BuildImageContext []byte
	BuildErr          error
	BuildOutput       string

	RemoveImageErr error

	ContainerCreateErr error
	ContainerStartErr  error
	ContainerLogsErr   error
	ContainerRemoveErr error

	WaitStatusCode int64
	WaitErr        error

	LogsOutput string
}

// NewFakeDockerClient returns a new FakeDockerClient.
func NewFakeDockerClient() *FakeDockerClient {
	return &FakeDockerClient{
		Images:     make(map[string]dockertypes.ImageInspect),
		Containers: make(map[string]dockercontainer.Config),
		Calls:      make([]string, 0),
	}
}

// AssertCalls compares the expected engine calls against the recorded ones.
func (d *FakeDockerClient) AssertCalls(expected []string) error {
	if len(expected) != len(d.Calls) {
		return fmt.Errorf("expected calls %v, got %v", expected, d.Calls)
	}
	for i := range expected {
		if expected[i] != d.Calls[i] {
			return fmt.Errorf("expected calls %v, got %v", expected, d.Calls)
		}
	}
	return nil
}

func (d *FakeDockerClient) ServerVersion(ctx context.Context) (dockertypes.Version, error) {
	d.Calls = append(d.Calls, "server_version")
	return dockertypes.Version{}, d.ServerVersionErr
}

func (d *FakeDockerClient) ImageInspectWithRaw(ctx context.Context, imageID string) (dockertypes.ImageInspect, []byte, error) {
	d.Calls = append(d.Calls, "inspect_image")
	if img, exists := d.Images[imageID]; exists {
		return img, nil, nil
	}
	return dockertypes.ImageInspect{}, nil, notFoundError{imageID}
}

func (d *FakeDockerClient) ImagePull(ctx context.Context, ref string, opts dockertypes.ImagePullOptions) (io.ReadCloser, error) {
	d.Calls = append(d.Calls, "pull")
	if d.PullErr != nil {
		return nil, d.PullErr
	}
	return io.NopCloser(bytes.NewReader([]byte(d.PullOutput))), nil
}

func (d *FakeDockerClient) ImageBuild(ctx context.Context, buildContext io.Reader, options dockertypes.ImageBuildOptions) (dockertypes.ImageBuildResponse, error) {
	d.Calls = append(d.Calls, "build")
	d.BuildImageOpts = options
	if buildContext != nil {
		d.BuildImageContext, _ = io.ReadAll(buildContext)
	}
	return dockertypes.ImageBuildResponse{
		Body: io.NopCloser(bytes.NewReader([]byte(d.BuildOutput))),
	}, d.BuildErr
}

func (d *FakeDockerClient) ImageRemove(ctx context.Context, image string, options dockertypes.ImageRemoveOptions) ([]dockertypes.ImageDeleteResponseItem, error) {
	d.Calls = append(d.Calls, "remove_image")
	return nil, d.RemoveImageErr
}

func (d *FakeDockerClient) ContainerCreate(ctx context.Context, config *dockercontainer.Config, hostConfig *dockercontainer.HostConfig, networkingConfig *dockernetwork.NetworkingConfig, platform *ocispec.Platform, containerName string) (dockercontainer.CreateResponse, error) {
	d.Calls = append(d.Calls, "create")
	if config != nil {
		d.Containers[containerName] = *config
	}
	return dockercontainer.CreateResponse{ID: "fake-container-id"}, d.ContainerCreateErr
}

func (d *FakeDockerClient) ContainerStart(ctx context.Context, container string, options dockertypes.ContainerStartOptions) error {
	d.Calls = append(d.Calls, "start")
	return d.ContainerStartErr
}

func (d *FakeDockerClient) ContainerWait(ctx context.Context, container string, condition dockercontainer.WaitCondition) (<-chan dockercontainer.WaitResponse, <-chan error) {
	d.Calls = append(d.Calls, "wait")
	waitCh := make(chan dockercontainer.WaitResponse, 1)
	errCh := make(chan error, 1)
	if d.WaitErr != nil {
		errCh <- d.WaitErr
	} else {
		waitCh <- dockercontainer.WaitResponse{StatusCode: d.WaitStatusCode}
	}
	return waitCh, errCh
}

func (d *FakeDockerClient) ContainerLogs(ctx context.Context, container string, options dockertypes.ContainerLogsOptions) (io.ReadCloser, error) {
	d.Calls = append(d.Calls, "logs")
	if d.ContainerLogsErr != nil {
		return nil, d.ContainerLogsErr
	}
	return io.NopCloser(bytes.NewReader([]byte(d.LogsOutput))), nil
}

func (d *FakeDockerClient) ContainerRemove(ctx context.Context, container string, options dockertypes.ContainerRemoveOptions) error {
	d.Calls = append(d.Calls, "remove")
	return d.ContainerRemoveErr
}

// notFoundError mimics the engine's not-found error category.
type notFoundError struct {
	object string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("Error: No such image: %s", e.object)
}

func (e notFoundError) NotFound() {}
