package api

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Describe returns a human readable rendering of the build configuration.
func (c *Config) Describe() string {
	out, err := tabbedString(func(out io.Writer) error {
		fmt.Fprintf(out, "Base Image:\t%s\n", c.BaseImage)
		fmt.Fprintf(out, "Source:\t%s\n", c.Source)
		fmt.Fprintf(out, "Output Image Tag:\t%s\n", c.Tag)
		fmt.Fprintf(out, "Manifest File:\t%s\n", c.ManifestFile)
		fmt.Fprintf(out, "Lock File:\t%s\n", c.LockFile)
		fmt.Fprintf(out, "Image Workdir:\t%s\n", c.ImageWorkDir)
		fmt.Fprintf(out, "Entrypoint Script:\t%s\n", c.EntrypointScript)
		fmt.Fprintf(out, "Exposed Ports:\t%s\n", strings.Join(c.ExposedPorts, ","))
		if len(c.InstallerVersion) > 0 {
			fmt.Fprintf(out, "Installer Version:\t%s\n", c.InstallerVersion)
		}
		printEnv(out, c.Environment)
		if len(c.EnvironmentFile) > 0 {
			fmt.Fprintf(out, "Environment File:\t%s\n", c.EnvironmentFile)
		}
		fmt.Fprintf(out, "Container Manager:\t%s\n", c.ContainerManager)
		fmt.Fprintf(out, "Pull Policy:\t%s\n", c.BasePullPolicy)
		fmt.Fprintf(out, "Quiet:\t%s\n", printBool(c.Quiet))
		if len(c.Network) > 0 {
			fmt.Fprintf(out, "Network:\t%s\n", c.Network)
		}
		if len(c.WorkingDir) > 0 {
			fmt.Fprintf(out, "Workdir:\t%s\n", c.WorkingDir)
		}
		if c.DockerConfig != nil {
			fmt.Fprintf(out, "Docker Endpoint:\t%s\n", c.DockerConfig.Endpoint)
		}
		if _, err := os.Open(c.DockerCfgPath); err == nil {
			fmt.Fprintf(out, "Docker Pull Config:\t%s\n", c.DockerCfgPath)
			fmt.Fprintf(out, "Docker Pull User:\t%s\n", c.PullAuthentication.Username)
		}
		return nil
	})
	if err != nil {
		fmt.Printf("ERROR: %v", err)
	}
	return out
}

func printEnv(out io.Writer, env EnvironmentList) {
	if len(env) == 0 {
		return
	}
	result := []string{}
	for _, e := range env {
		result = append(result, fmt.Sprintf("%s=%s", e.Name, e.Value))
	}
	fmt.Fprintf(out, "Environment:\t%s\n", strings.Join(result, ","))
}

func printBool(b bool) string {
	if b {
		return "\033[1menabled\033[0m"
	}
	return "disabled"
}

func tabbedString(f func(io.Writer) error) (string, error) {
	out := new(tabwriter.Writer)
	buf := &bytes.Buffer{}
	out.Init(buf, 0, 8, 1, '\t', 0)

	err := f(out)
	if err != nil {
		return "", err
	}

	out.Flush()
	return buf.String(), nil
}
