package scripts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
	"github.com/lockship/lock-to-image/pkg/util"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// GetEnvironment reads the optional .l2i/environment file located in the
// source tree and parses it into an environment variable list.
func GetEnvironment(sourceDir string) (api.EnvironmentList, error) {
	envPath := filepath.Join(sourceDir, constants.EnvironmentDir, constants.EnvironmentFile)
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil, errors.New("no environment file found in application sources")
	}

	vars, err := util.ReadEnvironmentFile(envPath)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	result := api.EnvironmentList{}
	for _, name := range names {
		log.V(1).Infof("Setting '%s' to '%s'", name, vars[name])
		result = append(result, api.EnvironmentSpec{Name: name, Value: vars[name]})
	}

	return result, nil
}

// ConvertEnvironmentList converts the EnvironmentList to "key=val" strings.
func ConvertEnvironmentList(env api.EnvironmentList) (result []string) {
	for _, e := range env {
		result = append(result, fmt.Sprintf("%s=%s", e.Name, e.Value))
	}
	return
}

// ConvertEnvironmentToDocker converts the EnvironmentList into the Dockerfile
// ENV instruction format.
func ConvertEnvironmentToDocker(env api.EnvironmentList) string {
	var result string
	for i, e := range env {
		if i == 0 {
			result += fmt.Sprintf("ENV %s=\"%s\"", e.Name, escape(e.Value))
		} else {
			result += fmt.Sprintf(" \\\n    %s=\"%s\"", e.Name, escape(e.Value))
		}
	}
	if len(result) > 0 {
		result += "\n"
	}
	return result
}

// escape quotes backslashes, double quotes and dollar signs so values survive
// the Dockerfile parser verbatim, without variable expansion.
func escape(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)
	return r.Replace(value)
}
