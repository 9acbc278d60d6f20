package constants

const (
	// DefaultNamespace is the namespace prefix used for the generated labels.
	DefaultNamespace = "io.l2i."

	// KubernetesNamespace is the namespace used for Kubernetes description
	// and display labels.
	KubernetesNamespace = "io.k8s."

	// KubernetesDescriptionLabel describes the image contents.
	KubernetesDescriptionLabel = KubernetesNamespace + "description"

	// KubernetesDisplayNameLabel is a short friendly name of the image.
	KubernetesDisplayNameLabel = KubernetesNamespace + "display-name"
)

const (
	// DefaultManifestFile is the conventional name of the project manifest.
	DefaultManifestFile = "pyproject.toml"

	// DefaultLockFile is the conventional name of the pinned lock file.
	DefaultLockFile = "uv.lock"

	// DefaultEntrypointScript is the script run by the default start command.
	DefaultEntrypointScript = "entrypoint.sh"

	// DefaultBaseImage is the runtime image builds start from unless
	// overridden.
	DefaultBaseImage = "docker.io/library/python:3.12-slim"

	// DefaultImageWorkDir is the working directory established inside the
	// image.
	DefaultImageWorkDir = "/app"

	// DefaultInstaller is the dependency manager installed into the image.
	DefaultInstaller = "uv"

	// DefaultInstallerVersion pins the dependency manager version so the
	// install step itself is reproducible.
	DefaultInstallerVersion = "0.5.24"

	// IgnoreFile is the per-project file listing context exclusions.
	IgnoreFile = ".l2iignore"

	// EnvironmentDir holds optional build-time configuration inside the
	// source tree.
	EnvironmentDir = ".l2i"

	// EnvironmentFile is the name of the optional environment file inside
	// EnvironmentDir.
	EnvironmentFile = "environment"

	// ConfigFile is the file the build command persists its flags into when
	// --use-config is set.
	ConfigFile = ".l2ifile"
)

// DefaultExposedPorts are the service endpoints declared on the output
// image: the API port and the dashboard port.
var DefaultExposedPorts = []string{"8000", "8501"}
