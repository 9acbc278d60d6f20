// Package dockerfile renders the build recipe: a linear sequence of steps
// that installs the dependency manager, copies the manifest/lock pair and
// the source tree, installs dependencies strictly from the lock file, and
// declares the service ports and default start command.
package dockerfile

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/scripts"
	"github.com/lockship/lock-to-image/pkg/util/fs"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// dockerfileTemplate is the single linear recipe. There is no branching:
// each instruction depends on the one before it, and any failing step aborts
// the build with no usable image.
const dockerfileTemplate = `FROM {{.BaseImage}}

WORKDIR {{.WorkDir}}

RUN pip install --no-cache-dir {{.Installer}}=={{.InstallerVersion}}

COPY {{.ManifestFile}} {{.LockFile}} ./

COPY . .

RUN {{.Installer}} sync --frozen

{{if .Env}}{{.Env}}{{end -}}
{{if .Labels}}{{.Labels}}{{end -}}
EXPOSE {{.Ports}}

CMD [{{.Cmd}}]
`

// templateData is the fully resolved input of the recipe template.
type templateData struct {
	BaseImage        string
	WorkDir          string
	Installer        string
	InstallerVersion string
	ManifestFile     string
	LockFile         string
	Env              string
	Labels           string
	Ports            string
	Cmd              string
}

// Generate renders the Dockerfile for the given configuration and image
// labels.
func Generate(config *api.Config, labels map[string]string) ([]byte, error) {
	if len(config.BaseImage) == 0 {
		return nil, fmt.Errorf("no base image specified")
	}

	data := templateData{
		BaseImage:        config.BaseImage,
		WorkDir:          config.ImageWorkDir,
		Installer:        "uv",
		InstallerVersion: config.InstallerVersion,
		ManifestFile:     config.ManifestFile,
		LockFile:         config.LockFile,
		Env:              scripts.ConvertEnvironmentToDocker(config.Environment),
		Labels:           convertLabelsToDocker(labels),
		Ports:            strings.Join(config.ExposedPorts, " "),
		Cmd:              convertCmdToDocker([]string{"uv", "run", config.EntrypointScript}),
	}

	tmpl, err := template.New("Dockerfile").Parse(dockerfileTemplate)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, data); err != nil {
		return nil, err
	}
	log.V(4).Infof("Generated Dockerfile:\n%s", buf.String())
	return buf.Bytes(), nil
}

// Write renders the Dockerfile and writes it to path using the given
// filesystem.
func Write(config *api.Config, labels map[string]string, fileSystem fs.FileSystem, path string) error {
	data, err := Generate(config, labels)
	if err != nil {
		return err
	}
	return fileSystem.WriteFile(path, data)
}

// convertLabelsToDocker renders the labels as a single LABEL instruction
// with deterministic ordering.
func convertLabelsToDocker(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result string
	for i, k := range keys {
		if i == 0 {
			result += fmt.Sprintf("LABEL %q=%q", k, labels[k])
		} else {
			result += fmt.Sprintf(" \\\n      %q=%q", k, labels[k])
		}
	}
	result += "\n"
	return result
}

// convertCmdToDocker renders the exec-form argument list of the CMD
// instruction.
func convertCmdToDocker(cmd []string) string {
	quoted := make([]string, len(cmd))
	for i, c := range cmd {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(quoted, ", ")
}
