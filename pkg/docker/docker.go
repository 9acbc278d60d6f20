// Package docker wraps the Docker engine API behind a narrow interface the
// build pipeline uses, so tests can substitute a fake engine.
package docker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	dockertypes "github.com/docker/docker/api/types"
	dockercontainer "github.com/docker/docker/api/types/container"
	dockernetwork "github.com/docker/docker/api/types/network"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/go-connections/nat"
	"github.com/moby/term"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/lockship/lock-to-image/pkg/api"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
	"github.com/lockship/lock-to-image/pkg/util"
	"github.com/lockship/lock-to-image/pkg/util/interrupt"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// DefaultTimeout is the timeout applied to engine API requests that are
// expected to return promptly.
const DefaultTimeout = 2 * time.Minute

// Client is the subset of the Docker engine API client this tool consumes.
type Client interface {
	ServerVersion(ctx context.Context) (dockertypes.Version, error)
	ImageInspectWithRaw(ctx context.Context, image string) (dockertypes.ImageInspect, []byte, error)
	ImagePull(ctx context.Context, ref string, options dockertypes.ImagePullOptions) (io.ReadCloser, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options dockertypes.ImageBuildOptions) (dockertypes.ImageBuildResponse, error)
	ImageRemove(ctx context.Context, image string, options dockertypes.ImageRemoveOptions) ([]dockertypes.ImageDeleteResponseItem, error)
	ContainerCreate(ctx context.Context, config *dockercontainer.Config, hostConfig *dockercontainer.HostConfig, networkingConfig *dockernetwork.NetworkingConfig, platform *ocispec.Platform, containerName string) (dockercontainer.CreateResponse, error)
	ContainerStart(ctx context.Context, container string, options dockertypes.ContainerStartOptions) error
	ContainerWait(ctx context.Context, container string, condition dockercontainer.WaitCondition) (<-chan dockercontainer.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, container string, options dockertypes.ContainerLogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, container string, options dockertypes.ContainerRemoveOptions) error
}

// Docker is the interface between the build pipeline and the container
// engine.
type Docker interface {
	CheckReachable() error
	IsImageInLocalRegistry(name string) (bool, error)
	InspectImage(name string) (*api.Image, error)
	PullImage(name string) (*api.Image, error)
	CheckAndPullImage(name string) (*api.Image, error)
	CheckImage(name string) (*api.Image, error)
	BuildImage(opts BuildImageOptions) error
	RemoveImage(name string) error
	GetImageID(name string) (string, error)
	GetLabels(name string) (map[string]string, error)
	GetExposedPorts(name string) ([]string, error)
	RunContainer(opts RunContainerOptions) error
}

// BuildImageOptions are options available for the engine build.
type BuildImageOptions struct {
	Name       string
	Stdin      io.Reader
	Stdout     io.Writer
	Dockerfile string
	Network    string
	PullPolicy api.PullPolicy
}

// RunContainerOptions are options passed in to the RunContainer method.
type RunContainerOptions struct {
	Image        string
	Entrypoint   []string
	Command      []string
	Env          []string
	PublishPorts bool
	Stdout       io.Writer
	Stderr       io.Writer
}

// New creates a new implementation of the Docker interface using the engine
// API client and the given pull authentication.
func New(client Client, auth api.AuthConfig) Docker {
	return &engineDocker{
		client: client,
		pullAuth: dockertypes.AuthConfig{
			Username:      auth.Username,
			Password:      auth.Password,
			Email:         auth.Email,
			ServerAddress: auth.ServerAddress,
		},
	}
}

type engineDocker struct {
	client   Client
	pullAuth dockertypes.AuthConfig
}

func getDefaultContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultTimeout)
}

// CheckReachable returns if the engine is reachable from this tool.
func (d *engineDocker) CheckReachable() error {
	ctx, cancel := getDefaultContext()
	defer cancel()
	_, err := d.client.ServerVersion(ctx)
	return err
}

// IsImageInLocalRegistry determines whether the supplied image is in the
// local registry.
func (d *engineDocker) IsImageInLocalRegistry(name string) (bool, error) {
	name = getImageName(name)
	resp, err := d.InspectImage(name)
	if resp != nil {
		return true, nil
	}
	if err != nil && !dockerclient.IsErrNotFound(unwrapDetails(err)) {
		return false, err
	}
	return false, nil
}

// InspectImage returns the image metadata for the named image.
func (d *engineDocker) InspectImage(name string) (*api.Image, error) {
	ctx, cancel := getDefaultContext()
	defer cancel()
	resp, _, err := d.client.ImageInspectWithRaw(ctx, name)
	if err != nil {
		log.V(4).Infof("error inspecting image %s: %v", name, err)
		return nil, l2ierr.NewInspectImageError(name, err)
	}
	return imageFromInspect(resp), nil
}

// CheckImage checks image from the local registry.
func (d *engineDocker) CheckImage(name string) (*api.Image, error) {
	return d.InspectImage(getImageName(name))
}

// PullImage pulls the image and returns its metadata.
func (d *engineDocker) PullImage(name string) (*api.Image, error) {
	name = getImageName(name)

	// RegistryAuth is the base64 encoded credentials for the registry
	base64Auth, err := base64EncodeAuth(d.pullAuth)
	if err != nil {
		return nil, l2ierr.NewPullImageError(name, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp, err := d.client.ImagePull(ctx, name, dockertypes.ImagePullOptions{RegistryAuth: base64Auth})
	if err != nil {
		return nil, l2ierr.NewPullImageError(name, err)
	}
	defer resp.Close()

	err = streamProgress(resp, log.Is(1))
	if err != nil {
		return nil, l2ierr.NewPullImageError(name, err)
	}

	return d.InspectImage(name)
}

// CheckAndPullImage pulls an image into the local registry if not present and
// returns the image metadata.
func (d *engineDocker) CheckAndPullImage(name string) (*api.Image, error) {
	name = getImageName(name)
	displayName := name
	if !log.Is(3) {
		displayName = imageShortName(name)
	}

	image, err := d.CheckImage(name)
	if err != nil && !dockerclient.IsErrNotFound(unwrapDetails(err)) {
		return nil, err
	}
	if image == nil {
		log.V(1).Infof("Image %q not available locally, pulling ...", displayName)
		return d.PullImage(name)
	}

	log.V(3).Infof("Using locally available image %q", displayName)
	return image, nil
}

// BuildImage submits the build context to the engine and streams the build
// output. Any failing instruction fails the whole build; the engine never
// tags a partially built image.
func (d *engineDocker) BuildImage(opts BuildImageOptions) error {
	dockerOpts := dockertypes.ImageBuildOptions{
		Tags:           []string{opts.Name},
		Dockerfile:     opts.Dockerfile,
		NetworkMode:    opts.Network,
		SuppressOutput: false,
		Remove:         true,
		ForceRemove:    true,
		PullParent:     opts.PullPolicy == api.PullAlways,
	}
	log.V(2).Infof("Building container using config: %+v", dockerOpts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp, err := d.client.ImageBuild(ctx, opts.Stdin, dockerOpts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out := opts.Stdout
	if out == nil {
		return jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, nil)
	}
	outFd, isTerminalOut := term.GetFdInfo(out)
	return jsonmessage.DisplayJSONMessagesStream(resp.Body, out, outFd, isTerminalOut, nil)
}

// RemoveImage removes the named image from the local registry.
func (d *engineDocker) RemoveImage(name string) error {
	ctx, cancel := getDefaultContext()
	defer cancel()
	_, err := d.client.ImageRemove(ctx, name, dockertypes.ImageRemoveOptions{})
	if err != nil {
		return l2ierr.NewRemoveImageError(name, err)
	}
	return nil
}

// GetImageID retrieves the ID of the image identified by name.
func (d *engineDocker) GetImageID(name string) (string, error) {
	image, err := d.InspectImage(getImageName(name))
	if err != nil {
		return "", err
	}
	return image.ID, nil
}

// GetLabels returns the labels of the named image.
func (d *engineDocker) GetLabels(name string) (map[string]string, error) {
	image, err := d.InspectImage(getImageName(name))
	if err != nil {
		return nil, err
	}
	return image.Config.Labels, nil
}

// GetExposedPorts returns the ports the named image declares, without the
// protocol suffix, in sorted order.
func (d *engineDocker) GetExposedPorts(name string) ([]string, error) {
	image, err := d.InspectImage(getImageName(name))
	if err != nil {
		return nil, err
	}
	return image.Config.ExposedPorts, nil
}

// RunContainer creates and starts a container from the image, streams its
// output, and waits for it to finish. A non-zero container exit code is
// returned as a ContainerExitError.
func (d *engineDocker) RunContainer(opts RunContainerOptions) error {
	image := getImageName(opts.Image)

	config := &dockercontainer.Config{
		Image: image,
		Env:   opts.Env,
	}
	if len(opts.Entrypoint) > 0 {
		config.Entrypoint = opts.Entrypoint
	}
	if len(opts.Command) > 0 {
		config.Cmd = opts.Command
	}

	hostConfig := &dockercontainer.HostConfig{
		PublishAllPorts: opts.PublishPorts,
	}

	ctx := context.Background()
	name := containerName(image)
	log.V(2).Infof("Creating container %q from image %q with env: %s", name, image, util.SafeForLoggingEnv(config.Env))
	createResp, err := d.client.ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	if err != nil {
		return err
	}
	containerID := createResp.ID

	removeContainer := func() {
		log.V(4).Infof("Removing container %q ...", containerID)
		if err := d.client.ContainerRemove(context.Background(), containerID, dockertypes.ContainerRemoveOptions{Force: true}); err != nil {
			log.V(0).Infof("warning: Failed to remove container %q: %v", containerID, err)
		} else {
			log.V(4).Infof("Removed container %q", containerID)
		}
	}

	return interrupt.New(nil, removeContainer).Run(func() error {
		log.V(2).Infof("Starting container %q ...", containerID)
		if err := d.client.ContainerStart(ctx, containerID, dockertypes.ContainerStartOptions{}); err != nil {
			return err
		}

		logsResp, err := d.client.ContainerLogs(ctx, containerID, dockertypes.ContainerLogsOptions{
			ShowStdout: true,
			ShowStderr: true,
			Follow:     true,
		})
		if err != nil {
			return err
		}
		defer logsResp.Close()

		streamDone := make(chan struct{})
		go func() {
			defer close(streamDone)
			StreamContainerIO(logsResp, opts.Stdout, opts.Stderr)
		}()

		waitCh, errCh := d.client.ContainerWait(ctx, containerID, dockercontainer.WaitConditionNotRunning)
		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
		case resp := <-waitCh:
			<-streamDone
			if resp.StatusCode != 0 {
				return l2ierr.NewContainerExitError(image, int(resp.StatusCode), "")
			}
		}
		return nil
	})
}

// imageFromInspect converts the engine inspect response into our image
// abstraction.
func imageFromInspect(resp dockertypes.ImageInspect) *api.Image {
	image := &api.Image{
		ID:     resp.ID,
		Size:   resp.Size,
		Config: &api.ContainerConfig{},
	}
	if resp.Config != nil {
		image.Config = &api.ContainerConfig{
			User:         resp.Config.User,
			Env:          resp.Config.Env,
			Labels:       resp.Config.Labels,
			WorkingDir:   resp.Config.WorkingDir,
			Entrypoint:   resp.Config.Entrypoint,
			Cmd:          resp.Config.Cmd,
			ExposedPorts: sortedPorts(resp.Config.ExposedPorts),
		}
	}
	return image
}

// sortedPorts flattens the engine's port set into bare port numbers in
// deterministic order.
func sortedPorts(portSet nat.PortSet) []string {
	if len(portSet) == 0 {
		return nil
	}
	ports := make([]nat.Port, 0, len(portSet))
	for port := range portSet {
		ports = append(ports, port)
	}
	nat.Sort(ports, func(a, b nat.Port) bool { return a.Int() < b.Int() })
	result := make([]string, len(ports))
	for i, p := range ports {
		result[i] = p.Port()
	}
	return result
}

// base64EncodeAuth serializes the auth configuration the way the engine API
// expects it in the X-Registry-Auth header.
func base64EncodeAuth(auth dockertypes.AuthConfig) (string, error) {
	var buf []byte
	buf, err := json.Marshal(auth)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// streamProgress consumes the engine's json message stream, optionally
// echoing progress to stderr.
func streamProgress(r io.Reader, verbose bool) error {
	if !verbose {
		return jsonmessage.DisplayJSONMessagesStream(r, io.Discard, 0, false, nil)
	}
	// progress goes through the logger so stdout stays machine readable
	return jsonmessage.DisplayJSONMessagesStream(r, logWriter{}, 0, false, nil)
}

// logWriter adapts the logger to an io.Writer for progress streaming.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	log.V(1).Info(string(p))
	return len(p), nil
}

// unwrapDetails digs the engine error out of our coded error so the error
// category checks of the engine client keep working.
func unwrapDetails(err error) error {
	if e, ok := err.(l2ierr.Error); ok && e.Details != nil {
		return e.Details
	}
	return err
}
