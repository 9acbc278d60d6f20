// Package build defines the build strategy interfaces and the preparation
// steps shared by all of them: validating the manifest/lock pair and
// rendering the build recipe.
package build

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/dockerfile"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
	"github.com/lockship/lock-to-image/pkg/manifest"
	"github.com/lockship/lock-to-image/pkg/scripts"
	"github.com/lockship/lock-to-image/pkg/util"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
	"github.com/lockship/lock-to-image/pkg/util/status"
)

var log = utillog.StderrLog

// Plan is the validated input of a build: the parsed manifest and lock, the
// digest tying the image to the lock, the labels of the output image, and
// the rendered recipe.
type Plan struct {
	Manifest   *manifest.Manifest
	Lock       *manifest.Lock
	LockDigest string
	Labels     map[string]string
	Dockerfile []byte

	// Stages records the timing of the preparation steps; strategies append
	// their own stages to it.
	Stages []api.StageInfo
}

// Prepare validates the manifest and lock file of the source tree and
// renders the build recipe. Every check failing here fails the build before
// the engine is ever contacted.
func Prepare(config *api.Config) (*Plan, error) {
	plan := &Plan{}

	manifestPath := filepath.Join(config.Source, config.ManifestFile)
	lockPath := filepath.Join(config.Source, config.LockFile)

	startTime := time.Now()
	m, err := manifest.ReadManifest(manifestPath)
	if err != nil {
		return nil, l2ierr.NewManifestReadError(manifestPath, err)
	}
	plan.Manifest = m
	plan.Stages = api.RecordStageAndStepInfo(plan.Stages, api.StageValidate, api.StepReadManifest, startTime, time.Now())

	startTime = time.Now()
	l, err := manifest.ReadLock(lockPath)
	if err != nil {
		return nil, l2ierr.NewLockMissingError(lockPath, err)
	}
	plan.Lock = l
	plan.Stages = api.RecordStageAndStepInfo(plan.Stages, api.StageValidate, api.StepReadLock, startTime, time.Now())

	startTime = time.Now()
	if err := manifest.CheckConsistency(m, l); err != nil {
		return nil, l2ierr.NewLockInconsistentError(lockPath, err)
	}
	digest, err := manifest.Digest(lockPath)
	if err != nil {
		return nil, l2ierr.NewLockMissingError(lockPath, err)
	}
	plan.LockDigest = digest
	plan.Stages = api.RecordStageAndStepInfo(plan.Stages, api.StageValidate, api.StepCheckConsistency, startTime, time.Now())
	log.V(2).Infof("Lock file %s is consistent with %s, digest %s", config.LockFile, config.ManifestFile, digest)

	startTime = time.Now()
	if err := mergeEnvironment(config); err != nil {
		return nil, err
	}
	plan.Labels = util.GenerateOutputImageLabels(m, digest, config)
	plan.Dockerfile, err = dockerfile.Generate(config, plan.Labels)
	if err != nil {
		return nil, l2ierr.NewDockerfileCreateError(config.AsDockerfile, err)
	}
	plan.Stages = api.RecordStageAndStepInfo(plan.Stages, api.StageGenerate, api.StepGenerateDockerfile, startTime, time.Now())

	return plan, nil
}

// mergeEnvironment folds the environment sources into config.Environment:
// the in-tree environment file first, then the file named on the command
// line, with variables given directly on the command line winning.
func mergeEnvironment(config *api.Config) error {
	merged := api.EnvironmentList{}

	sourceEnv, err := scripts.GetEnvironment(config.Source)
	if err == nil {
		merged = append(merged, sourceEnv...)
	}

	if len(config.EnvironmentFile) > 0 {
		fileEnv, err := util.ReadEnvironmentFile(config.EnvironmentFile)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(fileEnv))
		for k := range fileEnv {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			merged = append(merged, api.EnvironmentSpec{Name: k, Value: fileEnv[k]})
		}
	}

	merged = append(merged, config.Environment...)
	config.Environment = deduplicateEnv(merged)
	return nil
}

// deduplicateEnv keeps the last value set for each variable, preserving the
// order of first appearance.
func deduplicateEnv(env api.EnvironmentList) api.EnvironmentList {
	last := map[string]string{}
	order := []string{}
	for _, e := range env {
		if _, seen := last[e.Name]; !seen {
			order = append(order, e.Name)
		}
		last[e.Name] = e.Value
	}
	result := make(api.EnvironmentList, 0, len(order))
	for _, name := range order {
		result = append(result, api.EnvironmentSpec{Name: name, Value: last[name]})
	}
	return result
}

// FailureFor maps a preparation error to the failure reason recorded on the
// build result.
func FailureFor(err error) api.FailureReason {
	reason := status.ReasonGenericBuildFailed
	message := status.ReasonMessageGenericBuildFailed
	if e, ok := err.(l2ierr.Error); ok {
		switch e.ErrorCode {
		case l2ierr.ManifestReadError:
			reason, message = status.ReasonManifestReadFailed, status.ReasonMessageManifestReadFailed
		case l2ierr.LockMissingError:
			reason, message = status.ReasonLockMissing, status.ReasonMessageLockMissing
		case l2ierr.LockInconsistentError:
			reason, message = status.ReasonLockInconsistent, status.ReasonMessageLockInconsistent
		case l2ierr.DockerfileCreateError:
			reason, message = status.ReasonDockerfileCreateFailed, status.ReasonMessageDockerfileCreateFailed
		}
	}
	return status.NewFailureReason(reason, message)
}
