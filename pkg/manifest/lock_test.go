package manifest

import (
	"path/filepath"
	"strings"
	"testing"
)

const testLock = `
version = 1
requires-python = ">=3.12"

[[package]]
name = "forty-one"
version = "0.1.0"
source = { editable = "." }

[[package]]
name = "fastapi"
version = "0.110.0"
source = { registry = "https://pypi.org/simple" }

[[package]]
name = "polars"
version = "1.2.0"
source = { registry = "https://pypi.org/simple" }

[[package]]
name = "uvicorn"
version = "0.30.1"
source = { registry = "https://pypi.org/simple" }

[[package]]
name = "starlette"
version = "0.37.2"
source = { registry = "https://pypi.org/simple" }
`

func TestReadLock(t *testing.T) {
	path := writeFile(t, "uv.lock", testLock)
	l, err := ReadLock(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Packages) != 5 {
		t.Errorf("expected 5 locked packages, got %d", len(l.Packages))
	}
	pkg, ok := l.Package("FastAPI")
	if !ok {
		t.Fatal("expected fastapi to be pinned")
	}
	if pkg.Version != "0.110.0" {
		t.Errorf("unexpected pinned version %q", pkg.Version)
	}
}

func TestReadLockUnsupportedRevision(t *testing.T) {
	path := writeFile(t, "uv.lock", "version = 99\n")
	_, err := ReadLock(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported lock file revision") {
		t.Errorf("expected unsupported revision error, got %v", err)
	}
}

func TestReadLockMissing(t *testing.T) {
	if _, err := ReadLock(filepath.Join(t.TempDir(), "uv.lock")); err == nil {
		t.Error("expected error for missing lock file")
	}
}

func TestLockDigestStable(t *testing.T) {
	first := writeFile(t, "uv.lock", testLock)
	second := writeFile(t, "uv.lock", testLock)

	d1, err := Digest(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2, err := Digest(second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d1 != d2 {
		t.Errorf("identical lock files produced different digests: %s vs %s", d1, d2)
	}
	if !strings.HasPrefix(d1, "xxh64:") {
		t.Errorf("unexpected digest format %q", d1)
	}

	changed := writeFile(t, "uv.lock", testLock+"\n# trailing change\n")
	d3, err := Digest(changed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d3 == d1 {
		t.Error("digest did not change with lock contents")
	}
}
