package buildah

import (
	"bytes"
	"io"
	"os/exec"
)

// Execute runs the command described by cmdSlice and returns its standard
// output. When verbose is set, failures are logged with the captured output.
func Execute(cmdSlice []string, stdin io.Reader, verbose bool) ([]byte, error) {
	log.V(3).Infof("Executing shell command '%s'", cmdSlice)

	cmd := exec.Command(cmdSlice[0], cmdSlice[1:]...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = stdin

	if err := cmd.Run(); err != nil {
		if verbose {
			log.V(0).Infof("ERROR: Command '%q' failed with error '%s', stdout: '%s', stderr: '%s'",
				cmdSlice, err, stdout.Bytes(), stderr.Bytes())
		}
		return stderr.Bytes(), err
	}
	if verbose {
		log.V(5).Infof("command='%q', stdout='%s', stderr='%s'",
			cmdSlice, stdout.Bytes(), stderr.Bytes())
	}
	return stdout.Bytes(), nil
}
