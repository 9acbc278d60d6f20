// Package buildah drives the buildah command line as an alternative to the
// Docker daemon. The image is assembled step by step on a working container,
// mirroring the instructions of the generated Dockerfile, and committed at
// the end.
package buildah

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/docker"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// buildahCmd is the executable consumed through os/exec.
const buildahCmd = "buildah"

// Buildah assembles images by executing buildah subcommands.
type Buildah struct{}

// New returns a buildah driver.
func New() *Buildah {
	return &Buildah{}
}

// CheckReachable verifies the buildah executable is usable.
func (b *Buildah) CheckReachable() error {
	if _, err := Execute([]string{buildahCmd, "version"}, nil, false); err != nil {
		return fmt.Errorf("buildah is not available: %w", err)
	}
	return nil
}

// InspectImage runs a local "buildah inspect" and transforms the output into
// an api.Image instance. It can return error when the command does.
func (b *Buildah) InspectImage(name string) (*api.Image, error) {
	imageMetadata, err := InspectImage(name)
	if err != nil {
		log.V(4).Infof("error inspecting image %s: %v", name, err)
		return nil, l2ierr.NewInspectImageError(name, err)
	}
	return &api.Image{
		ID: imageMetadata.FromImageID,
		Config: &api.ContainerConfig{
			User:         imageMetadata.Docker.Config.User,
			Env:          imageMetadata.Docker.Config.Env,
			Labels:       imageMetadata.Docker.Config.Labels,
			WorkingDir:   imageMetadata.Docker.Config.WorkingDir,
			Entrypoint:   imageMetadata.Docker.Config.Entrypoint,
			Cmd:          imageMetadata.Docker.Config.Cmd,
			ExposedPorts: sortedPorts(imageMetadata.Docker.Config.ExposedPorts),
		},
	}, nil
}

// CheckImage proxies to image inspection.
func (b *Buildah) CheckImage(name string) (*api.Image, error) {
	return b.InspectImage(docker.GetImageName(name))
}

// PullImage executes "buildah pull" and inspects the image afterwards. It
// can return error when the buildah commands do.
func (b *Buildah) PullImage(name string) (*api.Image, error) {
	name = docker.GetImageName(name)
	log.V(1).Infof("Pulling image %q ...", name)
	if _, err := Execute([]string{buildahCmd, "pull", name}, nil, true); err != nil {
		return nil, l2ierr.NewPullImageError(name, err)
	}
	return b.InspectImage(name)
}

// CheckAndPullImage makes sure the image exists locally, pulling it when it
// does not.
func (b *Buildah) CheckAndPullImage(name string) (*api.Image, error) {
	name = docker.GetImageName(name)

	image, err := b.CheckImage(name)
	if err == nil {
		log.V(3).Infof("Using locally available image %q", name)
		return image, nil
	}
	return b.PullImage(name)
}

// From creates a working container from the base image and returns its ID.
func (b *Buildah) From(name string) (string, error) {
	log.V(2).Infof("Creating working container from %q ...", name)
	containerIDBytes, err := Execute([]string{buildahCmd, "from", "--quiet", name}, nil, true)
	if err != nil {
		return "", err
	}
	containerID := chompBytesToString(containerIDBytes)
	log.V(3).Infof("Working container ID %q for image %q", containerID, name)
	return containerID, nil
}

// Copy copies host paths into the working container at dest.
func (b *Buildah) Copy(containerID, dest string, sources ...string) error {
	log.V(3).Infof("Copying %q into %q at %q", sources, containerID, dest)
	cmd := append([]string{buildahCmd, "copy", containerID}, sources...)
	cmd = append(cmd, dest)
	_, err := Execute(cmd, nil, true)
	return err
}

// Run executes a command inside the working container.
func (b *Buildah) Run(containerID string, args ...string) error {
	log.V(2).Infof("Running %q in %q ...", args, containerID)
	cmd := append([]string{buildahCmd, "run", containerID, "--"}, args...)
	output, err := Execute(cmd, nil, true)
	if len(output) > 0 {
		log.V(1).Infof("%s", output)
	}
	return err
}

// ConfigOptions describes the runtime configuration applied to the working
// container before the commit.
type ConfigOptions struct {
	WorkingDir string
	Env        []string
	Labels     map[string]string
	Ports      []string
	Cmd        []string
}

// Config applies the runtime configuration to the working container.
func (b *Buildah) Config(containerID string, opts ConfigOptions) error {
	cmd := []string{buildahCmd, "config"}
	if opts.WorkingDir != "" {
		cmd = append(cmd, "--workingdir", opts.WorkingDir)
	}
	for _, e := range opts.Env {
		cmd = append(cmd, "--env", e)
	}
	for _, k := range sortedKeys(opts.Labels) {
		cmd = append(cmd, "--label", fmt.Sprintf("%s=%s", k, opts.Labels[k]))
	}
	for _, p := range opts.Ports {
		cmd = append(cmd, "--port", p)
	}
	if len(opts.Cmd) > 0 {
		cmd = append(cmd, "--cmd", fmt.Sprintf("[\"%s\"]", strings.Join(opts.Cmd, "\",\"")))
	}
	cmd = append(cmd, containerID)
	_, err := Execute(cmd, nil, true)
	return err
}

// Commit commits the working container as tag and returns the image ID.
func (b *Buildah) Commit(containerID, tag string) (string, error) {
	log.V(2).Infof("Committing container %q as %q ...", containerID, tag)
	cmd := []string{buildahCmd, "commit", "--quiet", containerID}
	if tag != "" {
		cmd = append(cmd, tag)
	}
	imageIDBytes, err := Execute(cmd, nil, true)
	if err != nil {
		return "", l2ierr.NewCommitError(tag, err)
	}
	imageID := chompBytesToString(imageIDBytes)
	log.V(2).Infof("Container %q committed as image %q", containerID, imageID)
	return imageID, nil
}

// RemoveContainer removes the working container.
func (b *Buildah) RemoveContainer(containerID string) error {
	_, err := Execute([]string{buildahCmd, "rm", containerID}, nil, true)
	return err
}

// RemoveImage removes the named image from local storage.
func (b *Buildah) RemoveImage(name string) error {
	log.V(2).Infof("Removing image %q ...", name)
	if _, err := Execute([]string{buildahCmd, "rmi", "--force", name}, nil, true); err != nil {
		return l2ierr.NewRemoveImageError(name, err)
	}
	return nil
}

// sortedPorts flattens the inspect port set into bare port numbers in
// deterministic order.
func sortedPorts(portSet map[string]struct{}) []string {
	if len(portSet) == 0 {
		return nil
	}
	ports := make([]string, 0, len(portSet))
	for port := range portSet {
		ports = append(ports, strings.TrimSuffix(port, "/tcp"))
	}
	sort.Strings(ports)
	return ports
}

// sortedKeys returns the map keys in deterministic order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
