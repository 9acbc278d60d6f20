package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
	l2ierr "github.com/lockship/lock-to-image/pkg/errors"
	"github.com/lockship/lock-to-image/pkg/util/status"
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

func testSource(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if files == nil {
		files = map[string]string{
			"pyproject.toml": testManifest,
			"uv.lock":        testLock,
		}
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testConfig(source string) *api.Config {
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
	}
}

func TestPrepare(t *testing.T) {
	config := testConfig(testSource(t, nil))
	plan, err := Prepare(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Manifest.Project.Name != "forty-one" {
		t.Errorf("unexpected project name %q", plan.Manifest.Project.Name)
	}
	if !strings.HasPrefix(plan.LockDigest, "xxh64:") {
		t.Errorf("unexpected lock digest %q", plan.LockDigest)
	}
	if plan.Labels[constants.LockDigestLabel] != plan.LockDigest {
		t.Errorf("expected the lock digest label to match the digest, got %q",
			plan.Labels[constants.LockDigestLabel])
	}
	if !strings.Contains(string(plan.Dockerfile), "RUN uv sync --frozen") {
		t.Errorf("unexpected recipe:\n%s", plan.Dockerfile)
	}

	if len(plan.Stages) != 2 {
		t.Fatalf("expected validate and generate stages, got %v", plan.Stages)
	}
	if plan.Stages[0].Name != api.StageValidate || plan.Stages[1].Name != api.StageGenerate {
		t.Errorf("unexpected stages %v", plan.Stages)
	}
	if len(plan.Stages[0].Steps) != 3 {
		t.Errorf("expected 3 validation steps, got %v", plan.Stages[0].Steps)
	}
}

func TestPrepareDeterministicDigest(t *testing.T) {
	config := testConfig(testSource(t, nil))
	first, err := Prepare(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Prepare(testConfig(testSource(t, nil)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.LockDigest != second.LockDigest {
		t.Errorf("digest changed between identical lock files: %q vs %q",
			first.LockDigest, second.LockDigest)
	}
}

func TestPrepareEnvironmentPrecedence(t *testing.T) {
	source := testSource(t, map[string]string{
		"pyproject.toml":   testManifest,
		"uv.lock":          testLock,
		".l2i/environment": "LOG_LEVEL=debug\nREGION=eu\n",
	})
	config := testConfig(source)
	config.Environment = api.EnvironmentList{{Name: "LOG_LEVEL", Value: "info"}}

	if _, err := Prepare(config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := map[string]string{}
	for _, e := range config.Environment {
		got[e.Name] = e.Value
	}
	if got["LOG_LEVEL"] != "info" {
		t.Errorf("expected the command line value to win, got %q", got["LOG_LEVEL"])
	}
	if got["REGION"] != "eu" {
		t.Errorf("expected the in-tree environment to be merged, got %q", got["REGION"])
	}
}

func TestPrepareEnvironmentFileOrdering(t *testing.T) {
	source := testSource(t, nil)
	envFile := filepath.Join(t.TempDir(), "build.env")
	if err := os.WriteFile(envFile, []byte("ZONE=eu\nAPP=flight\nMODE=prod\nLOG_LEVEL=info\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var first []byte
	for i := 0; i < 5; i++ {
		config := testConfig(source)
		config.EnvironmentFile = envFile
		plan, err := Prepare(config)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first == nil {
			first = plan.Dockerfile
			continue
		}
		if string(plan.Dockerfile) != string(first) {
			t.Fatalf("recipe changed between identical preparations:\n%s\nvs\n%s",
				first, plan.Dockerfile)
		}
	}
}

func TestPrepareErrors(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		code   int
		reason api.StepFailureReason
	}{
		{
			name:   "missing manifest",
			files:  map[string]string{"uv.lock": testLock},
			code:   l2ierr.ManifestReadError,
			reason: status.ReasonManifestReadFailed,
		},
		{
			name:   "missing lock",
			files:  map[string]string{"pyproject.toml": testManifest},
			code:   l2ierr.LockMissingError,
			reason: status.ReasonLockMissing,
		},
		{
			name: "unpinned dependency",
			files: map[string]string{
				"pyproject.toml": testManifest,
				"uv.lock": `
version = 1

[[package]]
name = "forty-one"
version = "0.1.0"
source = { editable = "." }
`,
			},
			code:   l2ierr.LockInconsistentError,
			reason: status.ReasonLockInconsistent,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Prepare(testConfig(testSource(t, tc.files)))
			if err == nil {
				t.Fatal("expected error")
			}
			coded, ok := err.(l2ierr.Error)
			if !ok || coded.ErrorCode != tc.code {
				t.Fatalf("unexpected error %v", err)
			}
			if failure := FailureFor(err); failure.Reason != tc.reason {
				t.Errorf("expected failure reason %q, got %q", tc.reason, failure.Reason)
			}
		})
	}
}
