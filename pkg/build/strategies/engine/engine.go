// Package engine implements the build strategy backed by the Docker daemon:
// the source tree is streamed as a tar build context together with the
// generated Dockerfile, and the engine executes the recipe.
package engine

import (
	"io"
	"os"
	"regexp"
	"time"

	units "github.com/docker/go-units"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/build"
	"github.com/lockship/lock-to-image/pkg/docker"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
	"github.com/lockship/lock-to-image/pkg/tar"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
	"github.com/lockship/lock-to-image/pkg/util/status"
)

var log = utillog.StderrLog

// dockerfileName is the name of the generated recipe inside the build
// context. The suffix keeps it from clobbering a Dockerfile the project may
// carry for other purposes.
const dockerfileName = "Dockerfile.l2i"

// Builder executes builds through the Docker engine API.
type Builder struct {
	docker docker.Docker
	tar    tar.Tar
}

// New returns a Docker engine builder.
func New(d docker.Docker, t tar.Tar) *Builder {
	return &Builder{docker: d, tar: t}
}

// Build runs the whole pipeline: validate, generate, pull, build, inspect.
func (b *Builder) Build(config *api.Config) (*api.Result, error) {
	result := &api.Result{Tag: config.Tag}

	plan, err := build.Prepare(config)
	if err != nil {
		result.BuildInfo.FailureReason = build.FailureFor(err)
		return result, err
	}
	result.BuildInfo.Stages = plan.Stages
	result.LockDigest = plan.LockDigest

	if err := b.pullBaseImage(config, result); err != nil {
		result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonPullBaseImageFailed, status.ReasonMessagePullBaseImageFailed)
		return result, err
	}

	if err := b.buildImage(config, plan, result); err != nil {
		result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonEngineBuildFailed, status.ReasonMessageEngineBuildFailed)
		return result, err
	}

	if err := b.inspectOutputImage(config, result); err != nil {
		result.BuildInfo.FailureReason = status.NewFailureReason(
			status.ReasonPortDeclarationMismatch, status.ReasonMessagePortDeclarationMismatch)
		return result, err
	}

	result.Success = true
	return result, nil
}

// pullBaseImage makes the base image available per the pull policy.
func (b *Builder) pullBaseImage(config *api.Config, result *api.Result) error {
	startTime := time.Now()
	defer func() {
		result.BuildInfo.Stages = api.RecordStageAndStepInfo(
			result.BuildInfo.Stages, api.StagePullImages, api.StepPullBaseImage, startTime, time.Now())
	}()

	name := config.BaseImage
	switch config.BasePullPolicy {
	case api.PullNever:
		log.V(3).Infof("Checking for presence of %q without pulling", name)
		_, err := b.docker.CheckImage(name)
		return err
	case api.PullAlways:
		log.V(1).Infof("Pulling image %q ...", name)
		_, err := b.docker.PullImage(name)
		return err
	default:
		_, err := b.docker.CheckAndPullImage(name)
		return err
	}
}

// buildImage streams the build context to the engine and waits for the
// recipe to finish. The engine tags the image only after every instruction
// succeeded.
func (b *Builder) buildImage(config *api.Config, plan *build.Plan, result *api.Result) error {
	startTime := time.Now()
	defer func() {
		result.BuildInfo.Stages = api.RecordStageAndStepInfo(
			result.BuildInfo.Stages, api.StageBuild, api.StepEngineBuild, startTime, time.Now())
	}()

	if len(config.ExcludeRegExp) > 0 {
		exclude, err := regexp.Compile(config.ExcludeRegExp)
		if err != nil {
			return err
		}
		b.tar.SetExclusionPattern(exclude)
	}

	r, w := io.Pipe()
	go func() {
		w.CloseWithError(b.tar.CreateTarStream(config.Source, map[string][]byte{
			dockerfileName: plan.Dockerfile,
		}, w))
	}()
	defer r.Close()

	var out io.Writer
	if !config.Quiet {
		out = os.Stdout
	}

	log.V(1).Infof("Building image %q ...", config.Tag)
	opts := docker.BuildImageOptions{
		Name:       config.Tag,
		Stdin:      r,
		Stdout:     out,
		Dockerfile: dockerfileName,
		Network:    config.Network,
		PullPolicy: config.BasePullPolicy,
	}
	if err := b.docker.BuildImage(opts); err != nil {
		return l2ierr.NewBuildError(config.Tag, err)
	}
	return nil
}

// inspectOutputImage verifies the produced image declares the configured
// ports and records its ID.
func (b *Builder) inspectOutputImage(config *api.Config, result *api.Result) error {
	startTime := time.Now()
	defer func() {
		result.BuildInfo.Stages = api.RecordStageAndStepInfo(
			result.BuildInfo.Stages, api.StageInspect, api.StepInspectImage, startTime, time.Now())
	}()

	image, err := b.docker.InspectImage(config.Tag)
	if err != nil {
		return err
	}
	result.ImageID = image.ID

	// the image has to declare exactly the configured ports, no more and
	// no fewer
	declared := map[string]bool{}
	for _, p := range image.Config.ExposedPorts {
		declared[p] = true
	}
	for _, p := range config.ExposedPorts {
		if !declared[p] {
			return l2ierr.NewPortDeclarationError(config.Tag, config.ExposedPorts, image.Config.ExposedPorts)
		}
		delete(declared, p)
	}
	if len(declared) > 0 {
		return l2ierr.NewPortDeclarationError(config.Tag, config.ExposedPorts, image.Config.ExposedPorts)
	}

	log.V(1).Infof("Image %q built successfully, ID %s, size %s",
		config.Tag, image.ID, units.HumanSize(float64(image.Size)))
	result.Messages = append(result.Messages, "Image "+config.Tag+" built successfully")
	return nil
}
