// Package create bootstraps a new project directory in the layout the build
// expects: a manifest, an entrypoint script, and the optional dot files.
package create

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/lockship/lock-to-image/pkg/api/constants"
	"github.com/lockship/lock-to-image/pkg/create/templates"
	"github.com/lockship/lock-to-image/pkg/util/fs"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// Bootstrap creates a new project scaffold.
type Bootstrap struct {
	ProjectName    string
	DestinationDir string
	fs             fs.FileSystem
}

// New returns a new bootstrap for the given project name and destination.
func New(name, dst string) *Bootstrap {
	return &Bootstrap{ProjectName: name, DestinationDir: dst, fs: fs.NewFileSystem()}
}

// AddManifest writes the scaffolded project manifest.
func (b *Bootstrap) AddManifest() {
	b.addTemplate(constants.DefaultManifestFile, templates.Manifest)
}

// AddEntrypoint writes the scaffolded entrypoint script.
func (b *Bootstrap) AddEntrypoint() {
	b.addTemplate(constants.DefaultEntrypointScript, templates.EntrypointScript)
	if err := os.Chmod(filepath.Join(b.DestinationDir, constants.DefaultEntrypointScript), 0755); err != nil {
		log.Warningf("Unable to mark %s executable: %v", constants.DefaultEntrypointScript, err)
	}
}

// AddDotFiles writes the ignore file and the environment file.
func (b *Bootstrap) AddDotFiles() {
	b.addTemplate(constants.IgnoreFile, templates.IgnoreFile)
	b.addTemplate(filepath.Join(constants.EnvironmentDir, constants.EnvironmentFile), templates.Environment)
}

func (b *Bootstrap) addTemplate(name, content string) {
	tmpl := template.Must(template.New(name).Parse(content))
	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, b); err != nil {
		log.Errorf("Unable to render %s: %v", name, err)
		return
	}
	path := filepath.Join(b.DestinationDir, name)
	if err := b.fs.MkdirAll(filepath.Dir(path)); err != nil {
		log.Errorf("Unable to create directory for %s: %v", name, err)
		return
	}
	if err := b.fs.WriteFile(path, buf.Bytes()); err != nil {
		log.Errorf("Unable to write %s: %v", name, err)
	}
}
