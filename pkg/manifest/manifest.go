// Package manifest reads the project manifest and lock file pair and checks
// that the lock fully pins what the manifest declares. All checks run before
// anything is sent to a container engine, so a bad pair fails the build
// before any dependency is installed.
package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the parsed project manifest (pyproject.toml).
type Manifest struct {
	Project Project `toml:"project"`
}

// Project is the [project] table of the manifest.
type Project struct {
	Name           string   `toml:"name"`
	Version        string   `toml:"version"`
	RequiresPython string   `toml:"requires-python"`
	Dependencies   []string `toml:"dependencies"`
}

// ReadManifest parses the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, err
	}
	if len(m.Project.Name) == 0 {
		return nil, fmt.Errorf("manifest %s does not declare a project name", path)
	}
	return m, nil
}

// DirectDependencies returns the normalized names of the manifest's direct
// dependencies, with version specifiers, extras and markers stripped.
func (m *Manifest) DirectDependencies() []string {
	names := make([]string, 0, len(m.Project.Dependencies))
	for _, req := range m.Project.Dependencies {
		if name := requirementName(req); len(name) > 0 {
			names = append(names, name)
		}
	}
	return names
}

var nameRunRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName canonicalizes a package name: lower case, with runs of
// '-', '_' and '.' collapsed to a single '-'.
func NormalizeName(name string) string {
	return nameRunRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// requirementName extracts the bare package name from a dependency
// requirement string such as "fastapi[standard]>=0.110 ; python_version>'3'".
func requirementName(req string) string {
	req = strings.TrimSpace(req)
	end := len(req)
	for i, r := range req {
		if strings.ContainsRune(" <>=!~;([@", r) {
			end = i
			break
		}
	}
	return NormalizeName(req[:end])
}
