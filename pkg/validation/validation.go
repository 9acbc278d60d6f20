// Package validation checks an api.Config for problems the CLI can report
// before any work starts.
package validation

import (
	"fmt"
	"strings"

	"github.com/docker/distribution/reference"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
)

// ValidateConfig returns a list of problems with the configuration, empty
// when the configuration is usable.
func ValidateConfig(config *api.Config) []Error {
	allErrs := []Error{}
	if len(config.Source) == 0 {
		allErrs = append(allErrs, NewFieldRequired("source"))
	}
	if len(config.BaseImage) == 0 {
		allErrs = append(allErrs, NewFieldRequired("baseImage"))
	} else if !validImageName(config.BaseImage) {
		allErrs = append(allErrs, NewFieldInvalidValue("baseImage"))
	}
	if len(config.Tag) > 0 && !validImageName(config.Tag) {
		allErrs = append(allErrs, NewFieldInvalidValue("tag"))
	}
	if len(config.ManifestFile) == 0 {
		allErrs = append(allErrs, NewFieldRequired("manifestFile"))
	}
	if len(config.LockFile) == 0 {
		allErrs = append(allErrs, NewFieldRequired("lockFile"))
	}
	if len(config.InstallerVersion) == 0 {
		allErrs = append(allErrs, NewFieldRequired("installerVersion"))
	}
	switch config.ContainerManager {
	case "", constants.DockerContainerManager, constants.BuildahContainerManager:
	default:
		allErrs = append(allErrs, NewFieldInvalidValue("containerManager"))
	}
	if config.ContainerManager != constants.BuildahContainerManager &&
		len(config.AsDockerfile) == 0 && config.DockerConfig == nil {
		allErrs = append(allErrs, NewFieldRequired("dockerConfig"))
	}
	for _, e := range config.Environment {
		if len(e.Name) == 0 || strings.Contains(e.Name, "=") {
			allErrs = append(allErrs, NewFieldInvalidValue("environment"))
			break
		}
	}
	return allErrs
}

func validImageName(name string) bool {
	_, err := reference.ParseNormalizedNamed(name)
	return err == nil
}

// NewFieldRequired returns a *Error indicating "value required".
func NewFieldRequired(field string) Error {
	return Error{Type: ErrorTypeRequired, Field: field}
}

// NewFieldInvalidValue returns a Error indicating "invalid value".
func NewFieldInvalidValue(field string) Error {
	return Error{Type: ErrorInvalidValue, Field: field}
}

// ErrorType is a machine readable value providing more detail about why a
// field is invalid.
type ErrorType string

const (
	// ErrorTypeRequired is used to report required values that are not
	// provided (e.g. empty strings, null values).
	ErrorTypeRequired ErrorType = "FieldValueRequired"
	// ErrorInvalidValue is used to report values that do not conform to the
	// expected schema.
	ErrorInvalidValue ErrorType = "InvalidValue"
)

// Error is an implementation of the 'error' interface, which represents a
// validation error.
type Error struct {
	Type  ErrorType
	Field string
}

func (v Error) Error() string {
	var msg string
	switch v.Type {
	case ErrorInvalidValue:
		msg = fmt.Sprintf("Invalid value specified for %q", v.Field)
	case ErrorTypeRequired:
		msg = fmt.Sprintf("Required value not specified for %q", v.Field)
	default:
		msg = fmt.Sprintf("%s: %s", v.Type, v.Field)
	}
	return msg
}
