// Package strategies selects the build backend for a configuration.
package strategies

import (
	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
	"github.com/lockship/lock-to-image/pkg/build"
	buildahstrategy "github.com/lockship/lock-to-image/pkg/build/strategies/buildah"
	dockerfilestrategy "github.com/lockship/lock-to-image/pkg/build/strategies/dockerfile"
	"github.com/lockship/lock-to-image/pkg/build/strategies/engine"
	"github.com/lockship/lock-to-image/pkg/buildah"
	"github.com/lockship/lock-to-image/pkg/docker"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
	"github.com/lockship/lock-to-image/pkg/tar"
	"github.com/lockship/lock-to-image/pkg/util/fs"
)

// Strategy returns the builder matching the configuration: the Dockerfile
// writer when --as-dockerfile is set, the buildah driver when selected, and
// the Docker engine otherwise.
func Strategy(config *api.Config) (build.Builder, error) {
	if len(config.AsDockerfile) > 0 {
		return dockerfilestrategy.New(fs.NewFileSystem()), nil
	}

	switch config.ContainerManager {
	case constants.BuildahContainerManager:
		return buildahstrategy.New(buildah.New(), tar.New(), fs.NewFileSystem()), nil
	default:
		client, err := docker.NewEngineAPIClient(config.DockerConfig)
		if err != nil {
			return nil, l2ierr.NewEngineUnreachableError(config.DockerConfig.Endpoint, err)
		}
		d := docker.New(client, config.PullAuthentication)
		if err := d.CheckReachable(); err != nil {
			return nil, l2ierr.NewEngineUnreachableError(config.DockerConfig.Endpoint, err)
		}
		return engine.New(d, tar.New()), nil
	}
}
