package manifest

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/pelletier/go-toml/v2"
)

// SupportedLockVersion is the lock file schema revision this tool understands.
const SupportedLockVersion = 1

// Lock is the parsed lock file (uv.lock). Its contents fully determine the
// installed dependency versions.
type Lock struct {
	Version        int             `toml:"version"`
	RequiresPython string          `toml:"requires-python"`
	Packages       []LockedPackage `toml:"package"`
}

// LockedPackage is one pinned package entry of the lock file.
type LockedPackage struct {
	Name    string        `toml:"name"`
	Version string        `toml:"version"`
	Source  PackageSource `toml:"source"`
}

// PackageSource describes where a locked package comes from.
type PackageSource struct {
	Registry  string `toml:"registry"`
	Editable  string `toml:"editable"`
	Virtual   string `toml:"virtual"`
	Directory string `toml:"directory"`
}

// ReadLock parses the lock file at path.
func ReadLock(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l := &Lock{}
	if err := toml.Unmarshal(data, l); err != nil {
		return nil, err
	}
	if l.Version != SupportedLockVersion {
		return nil, fmt.Errorf("unsupported lock file revision %d in %s", l.Version, path)
	}
	return l, nil
}

// Package looks up a pinned package by normalized name.
func (l *Lock) Package(name string) (*LockedPackage, bool) {
	name = NormalizeName(name)
	for i := range l.Packages {
		if NormalizeName(l.Packages[i].Name) == name {
			return &l.Packages[i], true
		}
	}
	return nil, false
}

// Digest computes the content digest of the lock file at path. An unchanged
// lock file always yields the same digest, which is what makes rebuilds
// comparable.
func Digest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("xxh64:%016x", xxhash.Sum64(data)), nil
}
