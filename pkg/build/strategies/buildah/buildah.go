// Package buildah implements the daemonless build strategy: the recipe the
// engine strategy hands to the Docker daemon is executed step by step on a
// buildah working container, which is committed at the end.
package buildah

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/build"
	"github.com/lockship/lock-to-image/pkg/buildah"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
	"github.com/lockship/lock-to-image/pkg/scripts"
	"github.com/lockship/lock-to-image/pkg/tar"
	"github.com/lockship/lock-to-image/pkg/util/fs"
	"github.com/lockship/lock-to-image/pkg/util/interrupt"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
	"github.com/lockship/lock-to-image/pkg/util/status"
)

var log = utillog.StderrLog

// Driver is the subset of buildah operations the strategy needs. It is
// satisfied by *buildah.Buildah.
type Driver interface {
	CheckImage(name string) (*api.Image, error)
	PullImage(name string) (*api.Image, error)
	CheckAndPullImage(name string) (*api.Image, error)
	From(name string) (string, error)
	Copy(containerID, dest string, sources ...string) error
	Run(containerID string, args ...string) error
	Config(containerID string, opts buildah.ConfigOptions) error
	Commit(containerID, tag string) (string, error)
	RemoveContainer(containerID string) error
}

// Builder executes builds by driving the buildah command line.
type Builder struct {
	driver Driver
	tar    tar.Tar
	fs     fs.FileSystem
}

// New returns a buildah builder.
func New(driver Driver, t tar.Tar, fileSystem fs.FileSystem) *Builder {
	return &Builder{driver: driver, tar: t, fs: fileSystem}
}

// Prepare creates the temporary working directory holding the filtered
// source tree handed to buildah copy.
func (b *Builder) Prepare(config *api.Config) error {
	if len(config.WorkingDir) > 0 {
		return nil
	}
	dir, err := b.fs.CreateWorkingDirectory()
	if err != nil {
		return l2ierr.NewWorkDirError(dir, err)
	}
	config.WorkingDir = dir
	return nil
}

// Cleanup removes the temporary working directory unless the configuration
// asks to keep it.
func (b *Builder) Cleanup(config *api.Config) {
	if config.PreserveWorkingDir || len(config.WorkingDir) == 0 {
		return
	}
	log.V(2).Infof("Removing temporary directory %s", config.WorkingDir)
	if err := b.fs.RemoveDirectory(config.WorkingDir); err != nil {
		log.V(0).Infof("warning: Failed to remove temporary directory %s: %v", config.WorkingDir, err)
	}
}

// Build assembles the image on a working container, mirroring the recipe
// instruction by instruction, and commits it as the configured tag.
func (b *Builder) Build(config *api.Config) (*api.Result, error) {
	result := &api.Result{Tag: config.Tag}

	plan, err := build.Prepare(config)
	if err != nil {
		result.BuildInfo.FailureReason = build.FailureFor(err)
		return result, err
	}
	result.BuildInfo.Stages = plan.Stages
	result.LockDigest = plan.LockDigest

	if err := b.Prepare(config); err != nil {
		result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonFSOperationFailed, status.ReasonMessageFSOperationFailed)
		return result, err
	}
	defer b.Cleanup(config)

	startTime := time.Now()
	if err := b.pullBaseImage(config); err != nil {
		result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonPullBaseImageFailed, status.ReasonMessagePullBaseImageFailed)
		return result, err
	}
	result.BuildInfo.Stages = api.RecordStageAndStepInfo(
		result.BuildInfo.Stages, api.StagePullImages, api.StepPullBaseImage, startTime, time.Now())

	imageID, err := b.assemble(config, plan, result)
	if err != nil {
		if result.BuildInfo.FailureReason.Reason == "" {
			result.BuildInfo.FailureReason = status.NewFailureReason(
				status.ReasonEngineBuildFailed, status.ReasonMessageEngineBuildFailed)
		}
		return result, err
	}

	result.ImageID = imageID
	result.Messages = append(result.Messages, "Image "+config.Tag+" built successfully")
	result.Success = true
	return result, nil
}

// pullBaseImage makes the base image available per the pull policy.
func (b *Builder) pullBaseImage(config *api.Config) error {
	name := config.BaseImage
	switch config.BasePullPolicy {
	case api.PullNever:
		_, err := b.driver.CheckImage(name)
		return err
	case api.PullAlways:
		_, err := b.driver.PullImage(name)
		return err
	default:
		_, err := b.driver.CheckAndPullImage(name)
		return err
	}
}

// assemble runs the recipe steps on a working container and commits it. The
// working container is always removed, whether the build succeeded or not.
func (b *Builder) assemble(config *api.Config, plan *build.Plan, result *api.Result) (string, error) {
	startTime := time.Now()
	contextDir, err := b.extractSource(config)
	if err != nil {
		result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonTarSourceFailed, status.ReasonMessageTarSourceFailed)
		return "", l2ierr.NewTarError(config.Source, err)
	}
	result.BuildInfo.Stages = api.RecordStageAndStepInfo(
		result.BuildInfo.Stages, api.StageBuild, api.StepTarContext, startTime, time.Now())

	startTime = time.Now()
	containerID, err := b.driver.From(config.BaseImage)
	if err != nil {
		return "", l2ierr.NewBuildError(config.Tag, err)
	}
	removeContainer := func() {
		if err := b.driver.RemoveContainer(containerID); err != nil {
			log.V(0).Infof("warning: Failed to remove working container %q: %v", containerID, err)
		}
	}

	var imageID string
	err = interrupt.New(nil, removeContainer).Run(func() error {
		workDir := config.ImageWorkDir
		if err := b.driver.Config(containerID, buildah.ConfigOptions{WorkingDir: workDir}); err != nil {
			return l2ierr.NewBuildError(config.Tag, err)
		}
		if err := b.driver.Run(containerID, "pip", "install", "--no-cache-dir", "uv=="+config.InstallerVersion); err != nil {
			return l2ierr.NewBuildError(config.Tag, err)
		}

		manifestSrc := filepath.Join(contextDir, config.ManifestFile)
		lockSrc := filepath.Join(contextDir, config.LockFile)
		if err := b.driver.Copy(containerID, workDir+"/", manifestSrc, lockSrc); err != nil {
			return l2ierr.NewBuildError(config.Tag, err)
		}
		if err := b.driver.Copy(containerID, workDir+"/", contextDir); err != nil {
			return l2ierr.NewBuildError(config.Tag, err)
		}

		if err := b.driver.Run(containerID, "uv", "sync", "--frozen"); err != nil {
			return l2ierr.NewBuildError(config.Tag, err)
		}
		result.BuildInfo.Stages = api.RecordStageAndStepInfo(
			result.BuildInfo.Stages, api.StageBuild, api.StepEngineBuild, startTime, time.Now())

		startTime = time.Now()
		opts := buildah.ConfigOptions{
			WorkingDir: workDir,
			Env:        scripts.ConvertEnvironmentList(config.Environment),
			Labels:     plan.Labels,
			Ports:      config.ExposedPorts,
			Cmd:        []string{"uv", "run", config.EntrypointScript},
		}
		if err := b.driver.Config(containerID, opts); err != nil {
			return l2ierr.NewBuildError(config.Tag, err)
		}

		imageID, err = b.driver.Commit(containerID, config.Tag)
		if err != nil {
			result.BuildInfo.FailureReason = status.NewFailureReason(
				status.ReasonCommitContainerFailed, status.ReasonMessageCommitContainerFailed)
			return err
		}
		result.BuildInfo.Stages = api.RecordStageAndStepInfo(
			result.BuildInfo.Stages, api.StageBuild, api.StepCommitContainer, startTime, time.Now())
		return nil
	})
	if err != nil {
		return "", err
	}
	return imageID, nil
}

// extractSource lays down the filtered source tree inside the working
// directory. Filtering happens by round-tripping the tree through the same
// tar writer the engine strategy streams to the daemon.
func (b *Builder) extractSource(config *api.Config) (string, error) {
	if len(config.ExcludeRegExp) > 0 {
		exclude, err := regexp.Compile(config.ExcludeRegExp)
		if err != nil {
			return "", err
		}
		b.tar.SetExclusionPattern(exclude)
	}

	contextDir := filepath.Join(config.WorkingDir, "context")
	if err := os.MkdirAll(contextDir, 0755); err != nil {
		return "", err
	}

	r, w := io.Pipe()
	go func() {
		w.CloseWithError(b.tar.CreateTarStream(config.Source, nil, w))
	}()
	if err := b.tar.ExtractTarStream(contextDir, r); err != nil {
		return "", err
	}
	return contextDir, nil
}
