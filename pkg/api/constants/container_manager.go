package constants

const (
	// ContainerManager term for docker, buildah, etc.
	ContainerManager = "container-manager"

	// DockerContainerManager builds through the Docker daemon API.
	DockerContainerManager = "docker"

	// BuildahContainerManager builds through buildah command execution.
	BuildahContainerManager = "buildah"
)
