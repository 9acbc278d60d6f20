package docker

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	dockertypes "github.com/docker/docker/api/types"
	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/docker/test"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
)

func newFakeDocker(client *test.FakeDockerClient) *engineDocker {
	return &engineDocker{client: client}
}

func TestInspectImage(t *testing.T) {
	fake := test.NewFakeDockerClient()
	fake.Images["python:3.12-slim"] = dockertypes.ImageInspect{
		ID: "sha256:abc",
		Config: &dockercontainer.Config{
			Labels:     map[string]string{"maintainer": "someone"},
			WorkingDir: "/app",
		},
	}
	d := newFakeDocker(fake)

	image, err := d.InspectImage("python:3.12-slim")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if image.ID != "sha256:abc" {
		t.Errorf("unexpected image ID %q", image.ID)
	}
	if image.Config.WorkingDir != "/app" {
		t.Errorf("unexpected working dir %q", image.Config.WorkingDir)
	}

	_, err = d.InspectImage("missing:latest")
	if err == nil {
		t.Fatal("expected error for missing image")
	}
	var coded l2ierr.Error
	if !errors.As(err, &coded) {
		t.Errorf("expected a coded error, got %T", err)
	}
}

func TestIsImageInLocalRegistry(t *testing.T) {
	fake := test.NewFakeDockerClient()
	fake.Images["docker.io/library/python:3.12-slim"] = dockertypes.ImageInspect{ID: "sha256:abc"}
	d := newFakeDocker(fake)

	present, err := d.IsImageInLocalRegistry("python:3.12-slim")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !present {
		t.Error("expected image to be reported present")
	}

	present, err = d.IsImageInLocalRegistry("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if present {
		t.Error("expected image to be reported absent")
	}
}

func TestCheckAndPullImage(t *testing.T) {
	t.Run("present locally", func(t *testing.T) {
		fake := test.NewFakeDockerClient()
		fake.Images["docker.io/library/python:3.12-slim"] = dockertypes.ImageInspect{ID: "sha256:abc"}
		d := newFakeDocker(fake)

		image, err := d.CheckAndPullImage("python:3.12-slim")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if image.ID != "sha256:abc" {
			t.Errorf("unexpected image ID %q", image.ID)
		}
		if err := fake.AssertCalls([]string{"inspect_image"}); err != nil {
			t.Error(err)
		}
	})

	t.Run("absent locally", func(t *testing.T) {
		fake := test.NewFakeDockerClient()
		d := newFakeDocker(fake)

		_, err := d.CheckAndPullImage("python:3.12-slim")
		if err == nil {
			t.Fatal("expected error when pull leaves no image behind")
		}
		if err := fake.AssertCalls([]string{"inspect_image", "pull", "inspect_image"}); err != nil {
			t.Error(err)
		}
	})

	t.Run("pull fails", func(t *testing.T) {
		fake := test.NewFakeDockerClient()
		fake.PullErr = errors.New("no network")
		d := newFakeDocker(fake)

		_, err := d.CheckAndPullImage("python:3.12-slim")
		if err == nil {
			t.Fatal("expected pull error")
		}
		var coded l2ierr.Error
		if !errors.As(err, &coded) || coded.ErrorCode != l2ierr.PullImageError {
			t.Errorf("expected pull image error, got %v", err)
		}
	})
}

func TestBuildImage(t *testing.T) {
	fake := test.NewFakeDockerClient()
	d := newFakeDocker(fake)

	opts := BuildImageOptions{
		Name:       "flight-api:latest",
		Stdin:      strings.NewReader("build context"),
		Dockerfile: "Dockerfile.l2i",
		Network:    "bridge",
		PullPolicy: api.PullAlways,
	}
	if err := d.BuildImage(opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := fake.BuildImageOpts
	if len(got.Tags) != 1 || got.Tags[0] != "flight-api:latest" {
		t.Errorf("unexpected tags %v", got.Tags)
	}
	if got.Dockerfile != "Dockerfile.l2i" {
		t.Errorf("unexpected dockerfile %q", got.Dockerfile)
	}
	if got.NetworkMode != "bridge" {
		t.Errorf("unexpected network mode %q", got.NetworkMode)
	}
	if !got.PullParent {
		t.Error("expected PullParent with the always pull policy")
	}
	if !got.Remove || !got.ForceRemove {
		t.Error("expected intermediate containers to be removed")
	}
	if string(fake.BuildImageContext) != "build context" {
		t.Errorf("unexpected build context %q", fake.BuildImageContext)
	}
}

func TestBuildImageError(t *testing.T) {
	fake := test.NewFakeDockerClient()
	fake.BuildErr = errors.New("engine exploded")
	d := newFakeDocker(fake)

	err := d.BuildImage(BuildImageOptions{Name: "x", Stdin: strings.NewReader("")})
	if err == nil {
		t.Fatal("expected build error")
	}
}

func TestGetExposedPorts(t *testing.T) {
	fake := test.NewFakeDockerClient()
	fake.Images["docker.io/library/flight-api:latest"] = dockertypes.ImageInspect{
		ID: "sha256:abc",
		Config: &dockercontainer.Config{
			ExposedPorts: map[nat.Port]struct{}{
				"8501/tcp": {},
				"8000/tcp": {},
			},
		},
	}
	d := newFakeDocker(fake)

	ports, err := d.GetExposedPorts("flight-api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"8000", "8501"}
	if len(ports) != len(expected) {
		t.Fatalf("expected ports %v, got %v", expected, ports)
	}
	for i := range expected {
		if ports[i] != expected[i] {
			t.Errorf("expected ports %v, got %v", expected, ports)
		}
	}
}

func TestRunContainer(t *testing.T) {
	fake := test.NewFakeDockerClient()
	d := newFakeDocker(fake)

	var stdout bytes.Buffer
	err := d.RunContainer(RunContainerOptions{
		Image:        "flight-api:latest",
		Command:      []string{"uv", "run", "entrypoint.sh"},
		Env:          []string{"PORT=8000"},
		PublishPorts: true,
		Stdout:       &stdout,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fake.AssertCalls([]string{"create", "start", "logs", "wait", "remove"}); err != nil {
		t.Error(err)
	}

	if len(fake.Containers) != 1 {
		t.Fatalf("expected one created container, got %d", len(fake.Containers))
	}
	for name, config := range fake.Containers {
		if !strings.HasPrefix(name, "l2i_") {
			t.Errorf("unexpected container name %q", name)
		}
		if len(config.Cmd) != 3 || config.Cmd[0] != "uv" {
			t.Errorf("unexpected command %v", config.Cmd)
		}
		if len(config.Env) != 1 || config.Env[0] != "PORT=8000" {
			t.Errorf("unexpected env %v", config.Env)
		}
	}
}

func TestRunContainerExitCode(t *testing.T) {
	fake := test.NewFakeDockerClient()
	fake.WaitStatusCode = 3
	d := newFakeDocker(fake)

	err := d.RunContainer(RunContainerOptions{Image: "flight-api"})
	if err == nil {
		t.Fatal("expected error for non-zero exit code")
	}
	var exitErr l2ierr.ContainerExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected a container exit error, got %T", err)
	}
	if exitErr.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", exitErr.ExitCode)
	}
}

func TestRemoveImage(t *testing.T) {
	fake := test.NewFakeDockerClient()
	d := newFakeDocker(fake)
	if err := d.RemoveImage("flight-api:latest"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fake.RemoveImageErr = errors.New("in use")
	err := d.RemoveImage("flight-api:latest")
	var coded l2ierr.Error
	if !errors.As(err, &coded) || coded.ErrorCode != l2ierr.RemoveImageError {
		t.Errorf("expected remove image error, got %v", err)
	}
}
