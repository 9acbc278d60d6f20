package docker

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/distribution/reference"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/lockship/lock-to-image/pkg/api"
)

// defaultRegistry is the key used for docker.io credentials in the Docker
// configuration file.
const defaultRegistry = "https://index.docker.io/v1/"

// GetDefaultDockerConfig returns the engine connection settings from the
// conventional environment variables, falling back to the local socket.
func GetDefaultDockerConfig() *api.DockerConfig {
	cfg := &api.DockerConfig{}

	if cfg.Endpoint = os.Getenv("DOCKER_HOST"); cfg.Endpoint == "" {
		cfg.Endpoint = "unix:///var/run/docker.sock"
	}

	certPath := os.Getenv("DOCKER_CERT_PATH")
	if certPath == "" {
		certPath = filepath.Join(os.Getenv("HOME"), ".docker")
	}
	cfg.CertFile = filepath.Join(certPath, "cert.pem")
	cfg.KeyFile = filepath.Join(certPath, "key.pem")
	cfg.CAFile = filepath.Join(certPath, "ca.pem")

	if tlsVerify := os.Getenv("DOCKER_TLS_VERIFY"); tlsVerify != "" {
		cfg.TLSVerify = true
	}

	return cfg
}

// NewEngineAPIClient creates a new Docker engine API client from the
// connection settings.
func NewEngineAPIClient(config *api.DockerConfig) (*dockerclient.Client, error) {
	opts := []dockerclient.Opt{
		dockerclient.WithHost(config.Endpoint),
		dockerclient.WithAPIVersionNegotiation(),
	}
	if config.UseTLS || config.TLSVerify {
		opts = append(opts, dockerclient.WithTLSClientConfig(config.CAFile, config.CertFile, config.KeyFile))
	}
	return dockerclient.NewClientWithOpts(opts...)
}

// getImageName checks the image name and adds the :latest tag if a tag is
// not provided.
func getImageName(name string) string {
	ref, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		log.V(1).Infof("error parsing image name %s: %v", name, err)
		return name
	}
	return reference.TagNameOnly(ref).String()
}

// GetImageName exposes image name normalization for other packages.
func GetImageName(name string) string {
	return getImageName(name)
}

// imageShortName renders the familiar form of an image name for log output.
func imageShortName(name string) string {
	ref, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return name
	}
	return reference.FamiliarString(reference.TagNameOnly(ref))
}

// containerNameInvalid replaces the characters not allowed in container
// names.
var containerNameInvalid = strings.NewReplacer("/", "_", ":", "_", "@", "_", ".", "_")

// containerName creates names for engine containers launched during the
// build, in the form l2i_<image-name>_<random suffix>.
func containerName(image string) string {
	uid := fmt.Sprintf("%08x", rand.Uint32())
	return "l2i_" + containerNameInvalid.Replace(image) + "_" + uid
}

// StreamContainerIO demultiplexes an engine log stream into the given
// writers. Nil writers discard their stream.
func StreamContainerIO(r io.Reader, stdout, stderr io.Writer) {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if _, err := stdcopy.StdCopy(stdout, stderr, r); err != nil && err != io.EOF {
		log.V(2).Infof("error streaming container output: %v", err)
	}
}

// dockerConfigFile is the on-disk layout of ~/.docker/config.json.
type dockerConfigFile struct {
	Auths map[string]dockerAuthEntry `json:"auths"`
}

type dockerAuthEntry struct {
	Auth  string `json:"auth"`
	Email string `json:"email"`
}

// LoadImageRegistryAuth reads the auth configurations from a Docker
// configuration file. Both the modern "auths" wrapper and the legacy flat
// format are understood.
func LoadImageRegistryAuth(r io.Reader) map[string]api.AuthConfig {
	data, err := io.ReadAll(r)
	if err != nil {
		log.V(2).Infof("error reading docker config: %v", err)
		return nil
	}

	cfg := dockerConfigFile{}
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.V(2).Infof("error parsing docker config: %v", err)
		return nil
	}
	entries := cfg.Auths
	if len(entries) == 0 {
		// legacy files have the auth entries at the top level
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil
		}
	}

	auths := map[string]api.AuthConfig{}
	for server, entry := range entries {
		decoded, err := base64.StdEncoding.DecodeString(entry.Auth)
		if err != nil {
			log.V(2).Infof("error decoding credentials for %s: %v", server, err)
			continue
		}
		parts := strings.SplitN(string(decoded), ":", 2)
		if len(parts) != 2 {
			continue
		}
		auths[server] = api.AuthConfig{
			Username:      parts[0],
			Password:      parts[1],
			Email:         entry.Email,
			ServerAddress: server,
		}
	}
	return auths
}

// GetImageRegistryAuth returns the credentials for the registry hosting the
// named image, or an empty config when none are known.
func GetImageRegistryAuth(auths map[string]api.AuthConfig, imageName string) api.AuthConfig {
	if len(auths) == 0 {
		return api.AuthConfig{}
	}
	ref, err := reference.ParseNormalizedNamed(imageName)
	if err != nil {
		return api.AuthConfig{}
	}
	domain := reference.Domain(ref)
	if auth, ok := auths[domain]; ok {
		return auth
	}
	if domain == "docker.io" {
		if auth, ok := auths[defaultRegistry]; ok {
			return auth
		}
	}
	return api.AuthConfig{}
}
