// Package run supports starting images produced by l2i. It is used by the
// --run command line option and the run subcommand.
package run

import (
	"os"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/docker"
	"github.com/lockship/lock-to-image/pkg/scripts"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// DockerRunner runs a produced image as a new container, streaming its
// stdout and stderr to the terminal.
type DockerRunner struct {
	ContainerClient docker.Docker
}

// New creates a DockerRunner for starting the produced image in a container
// for verification purposes.
func New(config *api.Config) (*DockerRunner, error) {
	client, err := docker.NewEngineAPIClient(config.DockerConfig)
	if err != nil {
		log.Errorf("Failed to connect to Docker daemon: %v", err)
		return nil, err
	}
	return &DockerRunner{docker.New(client, config.PullAuthentication)}, nil
}

// Run starts a container from the image named by config.Tag. Ports declared
// by the image are published to random host ports, and config.RunCommand, if
// set, overrides the image's default command. Run blocks until the container
// exits.
func (r *DockerRunner) Run(config *api.Config) error {
	log.V(4).Infof("Attempting to run image %s", config.Tag)

	opts := docker.RunContainerOptions{
		Image:        config.Tag,
		Command:      config.RunCommand,
		Env:          scripts.ConvertEnvironmentList(config.Environment),
		PublishPorts: true,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	}
	return r.ContainerClient.RunContainer(opts)
}
