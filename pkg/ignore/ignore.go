// Package ignore filters the build context based on the contents of the
// .l2iignore file, following dockerignore conventions.
package ignore

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	utillog "github.com/lockship/lock-to-image/pkg/util/log"

	"github.com/lockship/lock-to-image/pkg/api/constants"
)

var log = utillog.StderrLog

// fileSpec is a single pattern of the ignore file. Inverse specs reinstate
// previously excluded paths.
type fileSpec struct {
	glob    string
	inverse bool
}

// Matcher matches relative paths against the parsed ignore patterns.
type Matcher struct {
	specs []fileSpec
}

// NewMatcher parses the ignore file at ignorePath. A missing file yields an
// empty matcher that excludes nothing.
func NewMatcher(ignorePath string) (Matcher, error) {
	file, err := os.Open(ignorePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("Ignore processing, problem opening %s because of %v", ignorePath, err)
			return Matcher{}, err
		}
		log.V(4).Infof("%s file does not exist", constants.IgnoreFile)
		return Matcher{}, nil
	}
	defer file.Close()

	var specs []fileSpec
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		filespec := strings.Trim(scanner.Text(), " ")

		if len(filespec) == 0 {
			continue
		}

		if strings.HasPrefix(filespec, "#") {
			continue
		}

		log.V(4).Infof("%s lists a file spec of %s", constants.IgnoreFile, filespec)

		if strings.HasPrefix(filespec, "!") {
			filespec = strings.Replace(filespec, "!", "", 1)
			specs = append(specs, fileSpec{
				glob:    filespec,
				inverse: true,
			})
			continue
		}

		specs = append(specs, fileSpec{glob: filespec})
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		log.Errorf("Problem processing %s: %v", constants.IgnoreFile, err)
		return Matcher{}, err
	}
	return Matcher{specs: specs}, nil
}

// Match reports whether the relative path is excluded. The dockerignore
// rules are not recursive: subdirectories have to be listed explicitly, and
// the last matching pattern wins.
func (m Matcher) Match(path string) bool {
	var matches bool
	for _, spec := range m.specs {
		if ok, _ := filepath.Match(spec.glob, path); ok {
			matches = !spec.inverse
		}
	}
	return matches
}
