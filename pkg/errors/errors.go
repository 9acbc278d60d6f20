// Package errors provides the error types used across the build pipeline.
// Every failure is fatal to the build; the CLI turns the error code into the
// process exit code and the suggestion into operator guidance.
package errors

import (
	"fmt"
)

// Common error codes. They double as process exit codes.
const (
	InspectImageError int = 1 + iota
	PullImageError
	BuildError
	ManifestReadError
	LockMissingError
	LockInconsistentError
	DockerfileCreateError
	TarError
	WorkDirError
	EngineUnreachableError
	ContainerError
	CommitContainerError
	RemoveImageError
	PortDeclarationError
	LockDigestMismatchError
)

// Error is the build error with details and suggestions for the operator.
type Error struct {
	Message    string
	Details    error
	ErrorCode  int
	Suggestion string
}

// Error returns the error message.
func (e Error) Error() string {
	return e.Message
}

// NewInspectImageError returns a new error for an image inspection failure.
func NewInspectImageError(name string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to get metadata for %s", name),
		Details:    err,
		ErrorCode:  InspectImageError,
		Suggestion: "check image name and tag",
	}
}

// NewPullImageError returns a new error when pulling the base image fails.
func NewPullImageError(name string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to get %s", name),
		Details:    err,
		ErrorCode:  PullImageError,
		Suggestion: "check image name, or if using a local image set the pull policy to never",
	}
}

// NewBuildError returns a new error for a failed image build.
func NewBuildError(name string, err error) error {
	return Error{
		Message:    fmt.Sprintf("build of %s failed", name),
		Details:    err,
		ErrorCode:  BuildError,
		Suggestion: "rerun with --loglevel=2 to inspect the engine build output",
	}
}

// NewManifestReadError returns a new error when the project manifest cannot
// be read or parsed.
func NewManifestReadError(path string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to read manifest %s", path),
		Details:    err,
		ErrorCode:  ManifestReadError,
		Suggestion: "check that the source tree contains a valid project manifest",
	}
}

// NewLockMissingError returns a new error when the lock file is absent or
// unreadable. The build aborts before any dependency is installed.
func NewLockMissingError(path string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to read lock file %s", path),
		Details:    err,
		ErrorCode:  LockMissingError,
		Suggestion: "generate the lock file from the manifest and commit it with the source",
	}
}

// NewLockInconsistentError returns a new error when the lock file does not
// pin the dependencies the manifest declares.
func NewLockInconsistentError(path string, err error) error {
	return Error{
		Message:    fmt.Sprintf("lock file %s is inconsistent with the manifest", path),
		Details:    err,
		ErrorCode:  LockInconsistentError,
		Suggestion: "re-resolve the lock file from the manifest before building",
	}
}

// NewDockerfileCreateError returns a new error when the build recipe cannot
// be generated.
func NewDockerfileCreateError(path string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to write Dockerfile %s", path),
		Details:    err,
		ErrorCode:  DockerfileCreateError,
		Suggestion: "check permissions on the output path",
	}
}

// NewTarError returns a new error when packaging the build context fails.
func NewTarError(path string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to tar build context %s", path),
		Details:    err,
		ErrorCode:  TarError,
		Suggestion: "check permissions on the source tree",
	}
}

// NewWorkDirError returns a new error when the host working directory cannot
// be created.
func NewWorkDirError(dir string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to create working directory %s", dir),
		Details:    err,
		ErrorCode:  WorkDirError,
		Suggestion: "check temporary directory permissions",
	}
}

// NewEngineUnreachableError returns a new error when the container engine
// cannot be reached.
func NewEngineUnreachableError(endpoint string, err error) error {
	return Error{
		Message:    fmt.Sprintf("cannot connect to container engine at %s", endpoint),
		Details:    err,
		ErrorCode:  EngineUnreachableError,
		Suggestion: "check that the daemon is running and that the endpoint, certificates and TLS settings are correct",
	}
}

// ContainerExitError is returned when a container run as part of the build or
// verification exits non-zero.
type ContainerExitError struct {
	Name     string
	ExitCode int
	Output   string
}

// Error returns the error message.
func (e ContainerExitError) Error() string {
	if len(e.Output) > 0 {
		return fmt.Sprintf("container %q returned non-zero exit code: %d, output: %s", e.Name, e.ExitCode, e.Output)
	}
	return fmt.Sprintf("container %q returned non-zero exit code: %d", e.Name, e.ExitCode)
}

// NewContainerExitError returns a new error for a container exiting non-zero.
func NewContainerExitError(name string, code int, output string) error {
	return ContainerExitError{Name: name, ExitCode: code, Output: output}
}

// NewCommitError returns a new error when committing the container fails.
func NewCommitError(tag string, err error) error {
	return Error{
		Message:    fmt.Sprintf("unable to commit container image %s", tag),
		Details:    err,
		ErrorCode:  CommitContainerError,
		Suggestion: "check container engine logs for details",
	}
}

// NewRemoveImageError returns a new error when removing an image fails.
func NewRemoveImageError(name string, err error) error {
	return Error{
		Message:   fmt.Sprintf("unable to remove image %s", name),
		Details:   err,
		ErrorCode: RemoveImageError,
	}
}

// NewPortDeclarationError returns a new error when the built image does not
// advertise exactly the configured ports.
func NewPortDeclarationError(name string, want, got []string) error {
	return Error{
		Message:    fmt.Sprintf("image %s declares ports %v, expected %v", name, got, want),
		Details:    nil,
		ErrorCode:  PortDeclarationError,
		Suggestion: "the base image may expose additional ports; pick a base image without EXPOSE declarations",
	}
}

// NewLockDigestMismatchError returns a new error when an image was built from
// a different lock file than the one present locally.
func NewLockDigestMismatchError(image, imageDigest, localDigest string) error {
	return Error{
		Message:    fmt.Sprintf("image %s was built from lock digest %s, local lock digest is %s", image, imageDigest, localDigest),
		ErrorCode:  LockDigestMismatchError,
		Suggestion: "rebuild the image or restore the lock file the image was built from",
	}
}
