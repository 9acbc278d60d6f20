// Package dockerfile implements the strategy behind --as-dockerfile: the
// recipe is validated and written to disk instead of being submitted to a
// container engine.
package dockerfile

import (
	"path/filepath"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/build"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
	"github.com/lockship/lock-to-image/pkg/util/fs"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// Builder writes the generated Dockerfile to the configured path.
type Builder struct {
	fs fs.FileSystem
}

// New returns a Dockerfile writing builder.
func New(fileSystem fs.FileSystem) *Builder {
	return &Builder{fs: fileSystem}
}

// Build validates the manifest/lock pair and writes the rendered recipe to
// config.AsDockerfile. No image is produced.
func (b *Builder) Build(config *api.Config) (*api.Result, error) {
	result := &api.Result{Tag: config.Tag}

	plan, err := build.Prepare(config)
	if err != nil {
		result.BuildInfo.FailureReason = build.FailureFor(err)
		return result, err
	}
	result.BuildInfo.Stages = plan.Stages
	result.LockDigest = plan.LockDigest

	path := config.AsDockerfile
	if dir := filepath.Dir(path); dir != "." {
		if err := b.fs.MkdirAll(dir); err != nil {
			return result, l2ierr.NewDockerfileCreateError(path, err)
		}
	}
	if err := b.fs.WriteFile(path, plan.Dockerfile); err != nil {
		return result, l2ierr.NewDockerfileCreateError(path, err)
	}

	log.V(1).Infof("Dockerfile written to %s", path)
	result.Messages = append(result.Messages, "Dockerfile written to "+path)
	result.Success = true
	return result, nil
}
