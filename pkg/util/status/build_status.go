// Package status defines the failure reasons reported when a build step
// fails. A build has no partial-success state: the first failed step aborts
// it and its reason ends up on the result.
package status

import (
	"github.com/lockship/lock-to-image/pkg/api"
)

const (
	// ReasonManifestReadFailed is the reason associated with the project
	// manifest being absent or unparsable.
	ReasonManifestReadFailed        api.StepFailureReason  = "ManifestReadFailed"
	ReasonMessageManifestReadFailed api.StepFailureMessage = "Failed to read project manifest"

	// ReasonLockMissing is the reason associated with a missing or corrupt
	// lock file.
	ReasonLockMissing        api.StepFailureReason  = "LockFileMissing"
	ReasonMessageLockMissing api.StepFailureMessage = "Lock file is missing or corrupt"

	// ReasonLockInconsistent is the reason associated with a lock file that
	// does not pin what the manifest declares.
	ReasonLockInconsistent        api.StepFailureReason  = "LockFileInconsistent"
	ReasonMessageLockInconsistent api.StepFailureMessage = "Lock file is inconsistent with the manifest"

	// ReasonDockerfileCreateFailed is the reason associated with failing to
	// generate the build recipe.
	ReasonDockerfileCreateFailed        api.StepFailureReason  = "DockerfileCreateFailed"
	ReasonMessageDockerfileCreateFailed api.StepFailureMessage = "Failed to create Dockerfile"

	// ReasonPullBaseImageFailed is the reason associated with failing to pull
	// the base image.
	ReasonPullBaseImageFailed        api.StepFailureReason  = "PullBaseImageFailed"
	ReasonMessagePullBaseImageFailed api.StepFailureMessage = "Failed to pull base image"

	// ReasonTarSourceFailed is the reason associated with a failure to tar
	// the build context.
	ReasonTarSourceFailed        api.StepFailureReason  = "TarSourceFailed"
	ReasonMessageTarSourceFailed api.StepFailureMessage = "Failed to tar source files"

	// ReasonEngineBuildFailed is the reason associated with a failed engine
	// image build, including a failed dependency install step.
	ReasonEngineBuildFailed        api.StepFailureReason  = "EngineBuildFailed"
	ReasonMessageEngineBuildFailed api.StepFailureMessage = "Container engine build failed"

	// ReasonCommitContainerFailed is the reason associated with failing to
	// commit the working container to the final image.
	ReasonCommitContainerFailed        api.StepFailureReason  = "ContainerCommitFailed"
	ReasonMessageCommitContainerFailed api.StepFailureMessage = "Failed to commit container"

	// ReasonPortDeclarationMismatch is the reason associated with the output
	// image not advertising exactly the configured ports.
	ReasonPortDeclarationMismatch        api.StepFailureReason  = "PortDeclarationMismatch"
	ReasonMessagePortDeclarationMismatch api.StepFailureMessage = "Image does not advertise the configured ports"

	// ReasonFSOperationFailed is the reason associated with a failed fs
	// operation. Create, remove directory, copy file, etc.
	ReasonFSOperationFailed        api.StepFailureReason  = "FileSystemOperationFailed"
	ReasonMessageFSOperationFailed api.StepFailureMessage = "Failed to perform filesystem operation"

	// ReasonGenericBuildFailed is the reason associated with a broad range of
	// failures.
	ReasonGenericBuildFailed        api.StepFailureReason  = "GenericBuildFailed"
	ReasonMessageGenericBuildFailed api.StepFailureMessage = "Generic build failure - check logs for details"
)

// NewFailureReason initializes a new failure reason that contains both the
// reason and a message to be displayed.
func NewFailureReason(reason api.StepFailureReason, message api.StepFailureMessage) api.FailureReason {
	return api.FailureReason{
		Reason:  reason,
		Message: message,
	}
}
