package dockerfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
	"github.com/lockship/lock-to-image/pkg/test"
)

const testManifest = `
[project]
name = "forty-one"
version = "0.1.0"
dependencies = ["fastapi"]
`

const testLock = `
version = 1

[[package]]
name = "forty-one"
version = "0.1.0"
source = { editable = "." }

[[package]]
name = "fastapi"
version = "0.110.0"
source = { registry = "https://pypi.org/simple" }
`

func testConfig(t *testing.T) *api.Config {
	t.Helper()
	source := t.TempDir()
	for name, content := range map[string]string{
		"pyproject.toml": testManifest,
		"uv.lock":        testLock,
	} {
		if err := os.WriteFile(filepath.Join(source, name), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return &api.Config{
		Source:           source,
		Tag:              "flight-api:latest",
		BaseImage:        constants.DefaultBaseImage,
		ManifestFile:     constants.DefaultManifestFile,
		LockFile:         constants.DefaultLockFile,
		EntrypointScript: constants.DefaultEntrypointScript,
		InstallerVersion: constants.DefaultInstallerVersion,
		ImageWorkDir:     constants.DefaultImageWorkDir,
		ExposedPorts:     constants.DefaultExposedPorts,
		AsDockerfile:     "out/Dockerfile.gen",
	}
}

func TestBuild(t *testing.T) {
	fakeFS := &test.FakeFileSystem{}
	builder := New(fakeFS)

	result, err := builder.Build(testConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("expected a successful result")
	}
	if len(fakeFS.MkdirAllDir) != 1 || fakeFS.MkdirAllDir[0] != "out" {
		t.Errorf("expected the output directory to be created, got %v", fakeFS.MkdirAllDir)
	}
	if fakeFS.WriteFileName != "out/Dockerfile.gen" {
		t.Errorf("unexpected output path %q", fakeFS.WriteFileName)
	}

	recipe := string(fakeFS.WriteFileContent)
	for _, fragment := range []string{
		"FROM " + constants.DefaultBaseImage,
		"RUN uv sync --frozen",
		"EXPOSE 8000 8501",
	} {
		if !strings.Contains(recipe, fragment) {
			t.Errorf("expected recipe to contain %q:\n%s", fragment, recipe)
		}
	}
	if result.LockDigest == "" {
		t.Error("expected the lock digest to be recorded")
	}
}

func TestBuildWriteFailure(t *testing.T) {
	fakeFS := &test.FakeFileSystem{WriteFileError: errors.New("disk full")}
	builder := New(fakeFS)

	if _, err := builder.Build(testConfig(t)); err == nil {
		t.Fatal("expected error when the Dockerfile cannot be written")
	}
}
