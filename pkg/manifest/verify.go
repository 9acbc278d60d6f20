package manifest

import (
	"fmt"
	"strings"
)

// CheckConsistency verifies that the lock file pins everything the manifest
// declares: the project itself must appear in the lock with a matching
// version, and every direct dependency must have a pinned entry.
func CheckConsistency(m *Manifest, l *Lock) error {
	var problems []string

	root, ok := l.Package(m.Project.Name)
	if !ok {
		problems = append(problems, fmt.Sprintf("project %q has no entry in the lock file", m.Project.Name))
	} else if len(m.Project.Version) > 0 && root.Version != m.Project.Version {
		problems = append(problems, fmt.Sprintf("project %q is locked at version %s, manifest declares %s",
			m.Project.Name, root.Version, m.Project.Version))
	}

	for _, dep := range m.DirectDependencies() {
		if _, ok := l.Package(dep); !ok {
			problems = append(problems, fmt.Sprintf("dependency %q is not pinned in the lock file", dep))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
