// Package tar packages the filtered source tree into the tar stream handed
// to the container engine as build context.
package tar

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lockship/lock-to-image/pkg/api/constants"
	"github.com/lockship/lock-to-image/pkg/ignore"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// DefaultExclusionPattern is the pattern of files that will not be included
// in the build context. Those files are only meaningful to the repository.
var DefaultExclusionPattern = regexp.MustCompile(`(^|/)\.git(/|$)`)

// Tar writes build context tar streams.
type Tar interface {
	// SetExclusionPattern sets the exclusion pattern for tar creation. A nil
	// pattern excludes nothing.
	SetExclusionPattern(*regexp.Regexp)

	// CreateTarStream streams the contents of dir into writer, honoring the
	// exclusion pattern and the ignore file, with extra in-memory files laid
	// over the tree (used for the generated Dockerfile).
	CreateTarStream(dir string, extras map[string][]byte, writer io.Writer) error

	// ExtractTarStream unpacks a tar stream produced by CreateTarStream
	// into dir.
	ExtractTarStream(dir string, reader io.Reader) error
}

// New creates a new Tar.
func New() Tar {
	return &l2iTar{
		exclude: DefaultExclusionPattern,
	}
}

type l2iTar struct {
	exclude *regexp.Regexp
}

func (t *l2iTar) SetExclusionPattern(p *regexp.Regexp) {
	t.exclude = p
}

func (t *l2iTar) shouldExclude(path string) bool {
	return t.exclude != nil && t.exclude.String() != "" && t.exclude.MatchString(path)
}

func (t *l2iTar) CreateTarStream(dir string, extras map[string][]byte, writer io.Writer) error {
	tarWriter := tar.NewWriter(writer)
	defer tarWriter.Close()

	matcher, err := ignore.NewMatcher(filepath.Join(dir, constants.IgnoreFile))
	if err != nil {
		return err
	}

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if t.shouldExclude(rel) || matcher.Match(rel) {
			log.V(5).Infof("Excluding '%s' from build context", rel)
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		// extras shadow files of the same name in the tree
		if _, shadowed := extras[rel]; shadowed {
			return nil
		}

		if info.IsDir() {
			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			header.Name = rel + "/"
			return tarWriter.WriteHeader(header)
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = rel

		if err = tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			if _, err = io.Copy(tarWriter, file); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for name, data := range extras {
		header := &tar.Header{
			Name:    name,
			Mode:    0644,
			Size:    int64(len(data)),
			ModTime: time.Now(),
		}
		if err = tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if _, err = tarWriter.Write(data); err != nil {
			return err
		}
	}

	return nil
}

func (t *l2iTar) ExtractTarStream(dir string, reader io.Reader) error {
	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := safeJoin(dir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := checkLinkTarget(dir, target, header); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(file, tarReader); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
		default:
			log.V(3).Infof("Skipping tar entry %q of unsupported type %v", header.Name, header.Typeflag)
		}
	}
}

// checkLinkTarget rejects symlink entries whose target resolves outside the
// extraction directory. Absolute link targets and relative ones are both
// resolved against the location of the link itself.
func checkLinkTarget(dir, target string, header *tar.Header) error {
	linkname := filepath.FromSlash(header.Linkname)
	resolved := linkname
	if !filepath.IsAbs(linkname) {
		resolved = filepath.Join(filepath.Dir(target), linkname)
	}
	resolved = filepath.Clean(resolved)
	if resolved != filepath.Clean(dir) &&
		!strings.HasPrefix(resolved, filepath.Clean(dir)+string(os.PathSeparator)) {
		return fmt.Errorf("tar entry %q links to %q outside the extraction directory", header.Name, header.Linkname)
	}
	return nil
}

// safeJoin resolves an archive entry name inside dir, rejecting entries that
// would escape it.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("tar entry %q escapes the extraction directory", name)
	}
	return target, nil
}
