package buildah

import (
	"strings"
)

// chompBytesToString removes the trailing newline from a command output and
// returns it as a string.
func chompBytesToString(in []byte) string {
	return strings.TrimRight(string(in), "\n")
}
