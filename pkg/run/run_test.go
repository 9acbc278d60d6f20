package run

import (
	"errors"
	"testing"

	dockercontainer "github.com/docker/docker/api/types/container"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/docker"
	"github.com/lockship/lock-to-image/pkg/docker/test"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
)

func newTestRunner(fake *test.FakeDockerClient) *DockerRunner {
	return &DockerRunner{ContainerClient: docker.New(fake, api.AuthConfig{})}
}

func createdConfig(t *testing.T, fake *test.FakeDockerClient) dockercontainer.Config {
	t.Helper()
	if len(fake.Containers) != 1 {
		t.Fatalf("expected one created container, got %d", len(fake.Containers))
	}
	for _, cfg := range fake.Containers {
		return cfg
	}
	return dockercontainer.Config{}
}

func TestRunDefaultCommand(t *testing.T) {
	fake := test.NewFakeDockerClient()
	r := newTestRunner(fake)

	cfg := &api.Config{Tag: "flight-api:latest"}
	if err := r.Run(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created := createdConfig(t, fake)
	if len(created.Cmd) != 0 {
		t.Errorf("expected the image's default command to be kept, got %v", created.Cmd)
	}
	if created.Image != "docker.io/library/flight-api:latest" {
		t.Errorf("unexpected image %q", created.Image)
	}
}

func TestRunCommandOverride(t *testing.T) {
	fake := test.NewFakeDockerClient()
	r := newTestRunner(fake)

	cfg := &api.Config{
		Tag:        "flight-api:latest",
		RunCommand: []string{"uv", "run", "pytest"},
		Environment: api.EnvironmentList{
			{Name: "LOG_LEVEL", Value: "debug"},
		},
	}
	if err := r.Run(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created := createdConfig(t, fake)
	if got, want := len(created.Cmd), 3; got != want {
		t.Fatalf("expected %d command args, got %v", want, created.Cmd)
	}
	if created.Cmd[2] != "pytest" {
		t.Errorf("expected the run command to override the default, got %v", created.Cmd)
	}
	if len(created.Env) != 1 || created.Env[0] != "LOG_LEVEL=debug" {
		t.Errorf("unexpected environment %v", created.Env)
	}
}

func TestRunExitCode(t *testing.T) {
	fake := test.NewFakeDockerClient()
	fake.WaitStatusCode = 2
	r := newTestRunner(fake)

	err := r.Run(&api.Config{Tag: "flight-api:latest"})
	var exitErr l2ierr.ContainerExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected a container exit error, got %v", err)
	}
	if exitErr.ExitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitErr.ExitCode)
	}
}
