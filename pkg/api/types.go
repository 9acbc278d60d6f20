package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete description of a lock-to-image build: where the
// source tree lives, which manifest/lock pair pins the dependencies, what the
// produced image should look like, and how to reach the container engine.
type Config struct {
	// DisplayName is a friendly name for the application; used as the
	// display-name label of the output image (defaults to the output tag).
	DisplayName string

	// Description is an optional description for the output image.
	Description string

	// Source is the path of the project source tree supplied as build
	// context.
	Source string

	// Tag is the name of the resulting image.
	Tag string

	// BaseImage is the runtime image the build starts from.
	BaseImage string

	// BasePullPolicy specifies when to pull the base image.
	BasePullPolicy PullPolicy

	// ManifestFile is the dependency manifest, relative to Source.
	ManifestFile string

	// LockFile is the pinned lock file, relative to Source.
	LockFile string

	// EntrypointScript is the script the default start command runs.
	EntrypointScript string

	// InstallerVersion pins the dependency manager installed into the image.
	InstallerVersion string

	// ImageWorkDir is the working directory established inside the image.
	ImageWorkDir string

	// ExposedPorts lists the ports declared on the output image.
	ExposedPorts []string

	// Environment contains user-provided environment variables baked into the
	// image.
	Environment EnvironmentList

	// EnvironmentFile optionally points at a file with additional variables.
	EnvironmentFile string

	// Labels to set on the output image, merged over the generated ones.
	Labels map[string]string

	// LabelNamespace provides the namespace under which generated labels are
	// created.
	LabelNamespace string

	// ContainerManager selects the build backend (docker or buildah).
	ContainerManager string

	// AsDockerfile, when set, makes the build only write the generated
	// Dockerfile to this path instead of producing an image.
	AsDockerfile string

	// WorkingDir is the host temporary directory used during the build.
	WorkingDir string

	// PreserveWorkingDir keeps the temporary directory for debugging.
	PreserveWorkingDir bool

	// ExcludeRegExp matches file names in the source tree that are excluded
	// from the build context.
	ExcludeRegExp string

	// Network sets the network mode of the engine build.
	Network string

	// Quiet suppresses all non-error output.
	Quiet bool

	// RunImage starts the produced image after a successful build.
	RunImage bool

	// RunCommand overrides the image's default command when running it.
	RunCommand []string

	// DockerConfig describes how to reach the Docker daemon.
	DockerConfig *DockerConfig

	// DockerCfgPath is the path to the Docker configuration file with
	// registry credentials.
	DockerCfgPath string

	// PullAuthentication holds the credentials for pulling the base image.
	PullAuthentication AuthConfig
}

// DockerConfig contains the Docker daemon connection settings.
type DockerConfig struct {
	Endpoint  string
	CertFile  string
	KeyFile   string
	CAFile    string
	UseTLS    bool
	TLSVerify bool
}

// AuthConfig is our abstraction of the Registry authorization information.
type AuthConfig struct {
	Username      string
	Password      string
	Email         string
	ServerAddress string
}

// EnvironmentSpec specifies a single environment variable.
type EnvironmentSpec struct {
	Name  string
	Value string
}

// EnvironmentList contains list of environment variables.
type EnvironmentList []EnvironmentSpec

// Set implements the Set() function of pflag.Value so this flag can be parsed
// out of NAME=VALUE pairs. Repeated use appends to the list.
func (e *EnvironmentList) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 || len(parts[0]) == 0 {
		return fmt.Errorf("invalid environment format %q, must be NAME=VALUE", value)
	}
	*e = append(*e, EnvironmentSpec{
		Name:  strings.TrimSpace(parts[0]),
		Value: strings.TrimSpace(parts[1]),
	})
	return nil
}

// String implements the String() function of pflag.Value.
func (e *EnvironmentList) String() string {
	result := []string{}
	for _, env := range *e {
		result = append(result, strings.Join([]string{env.Name, env.Value}, "="))
	}
	return strings.Join(result, ",")
}

// Type implements the Type() function of pflag.Value.
func (e *EnvironmentList) Type() string {
	return "string"
}

// PullPolicy specifies a type for the method used to retrieve an image.
type PullPolicy string

// String implements the String() function of pflag.Value.
func (p *PullPolicy) String() string {
	return string(*p)
}

// Type implements the Type() function of pflag.Value.
func (p *PullPolicy) Type() string {
	return "string"
}

// Set implements the Set() function of pflag.Value.
func (p *PullPolicy) Set(v string) error {
	switch v {
	case string(PullAlways), string(PullNever), string(PullIfNotPresent):
		*p = PullPolicy(v)
		return nil
	}
	return errors.New("invalid pull policy, valid values are: always, never or if-not-present")
}

const (
	// PullAlways means that we always attempt to pull the image.
	PullAlways PullPolicy = "always"

	// PullNever means that we never pull the image, it has to be present
	// locally.
	PullNever PullPolicy = "never"

	// PullIfNotPresent means that we pull the image only when it is missing
	// locally.
	PullIfNotPresent PullPolicy = "if-not-present"

	// DefaultBasePullPolicy specifies the default pull policy to use.
	DefaultBasePullPolicy = PullIfNotPresent
)

// Result structure contains the information from the build process.
type Result struct {
	// Success describes whether the build was successful.
	Success bool

	// Messages is a list of messages from the build process.
	Messages []string

	// ImageID is the ID of the resulting image.
	ImageID string

	// Tag is the name the resulting image was tagged with.
	Tag string

	// LockDigest is the digest of the lock file the image was built from.
	LockDigest string

	// BuildInfo holds information about the result of a build.
	BuildInfo BuildInfo
}

// BuildInfo contains metadata about a particular build.
type BuildInfo struct {
	// Stages consists of the stages and steps the build went through.
	Stages []StageInfo

	// FailureReason is set on failure; empty on success.
	FailureReason FailureReason
}

// StageInfo contains details about a build stage.
type StageInfo struct {
	Name      StageName
	StartTime time.Time
	Duration  time.Duration
	Steps     []StepInfo
}

// StageName is the identifier of a build stage.
type StageName string

const (
	// StageValidate covers manifest and lock file pre-flight checks.
	StageValidate StageName = "Validate"

	// StageGenerate covers Dockerfile generation.
	StageGenerate StageName = "Generate"

	// StagePullImages covers pulling the base image.
	StagePullImages StageName = "PullImages"

	// StageBuild covers the engine build itself.
	StageBuild StageName = "Build"

	// StageInspect covers post-build verification of the image metadata.
	StageInspect StageName = "Inspect"
)

// StepInfo contains details about a build step within a stage.
type StepInfo struct {
	Name      StepName
	StartTime time.Time
	Duration  time.Duration
}

// StepName is the identifier of a step within a build stage.
type StepName string

const (
	// StepReadManifest reads and parses the project manifest.
	StepReadManifest StepName = "ReadManifest"

	// StepReadLock reads and parses the lock file.
	StepReadLock StepName = "ReadLock"

	// StepCheckConsistency verifies the lock pins the manifest dependencies.
	StepCheckConsistency StepName = "CheckConsistency"

	// StepGenerateDockerfile renders the build recipe.
	StepGenerateDockerfile StepName = "GenerateDockerfile"

	// StepPullBaseImage pulls the base image per the pull policy.
	StepPullBaseImage StepName = "PullBaseImage"

	// StepTarContext packages the build context.
	StepTarContext StepName = "TarContext"

	// StepEngineBuild submits the build to the container engine.
	StepEngineBuild StepName = "EngineBuild"

	// StepCommitContainer commits the working container (buildah backend).
	StepCommitContainer StepName = "CommitContainer"

	// StepInspectImage verifies the produced image metadata.
	StepInspectImage StepName = "InspectImage"
)

// StepFailureReason is a camelCase reason identifying why a step failed.
type StepFailureReason string

// StepFailureMessage is a human readable message describing a step failure.
type StepFailureMessage string

// FailureReason holds the failure reason and message of a failed build.
type FailureReason struct {
	Reason  StepFailureReason
	Message StepFailureMessage
}

// Image is our abstraction of the container image metadata this tool needs.
type Image struct {
	ID     string
	Size   int64
	Config *ContainerConfig
}

// ContainerConfig is the subset of the image runtime configuration we
// inspect and assert on.
type ContainerConfig struct {
	User         string
	Env          []string
	Labels       map[string]string
	WorkingDir   string
	Entrypoint   []string
	Cmd          []string
	ExposedPorts []string
}
