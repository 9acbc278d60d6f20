// Package config persists build command line options into a file inside the
// source tree, so repeated builds of the same project need no flags.
package config

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// Config is the serialized form of the build options: the positional
// arguments plus every flag the user set explicitly.
type Config struct {
	Source string            `json:"source"`
	Tag    string            `json:"tag"`
	Flags  map[string]string `json:"flags"`
}

// Save persists the build command line arguments into the config file inside
// the source tree.
func Save(config *api.Config, cmd *cobra.Command) {
	c := Config{
		Source: config.Source,
		Tag:    config.Tag,
		Flags:  map[string]string{},
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		c.Flags[f.Name] = f.Value.String()
	})
	data, err := yaml.Marshal(c)
	if err != nil {
		log.V(1).Infof("Unable to serialize config: %v", err)
		return
	}
	if err := os.WriteFile(constants.ConfigFile, data, 0644); err != nil {
		log.V(1).Infof("Unable to save config: %v", err)
	}
}

// Restore loads the arguments from the config file and prefills the build
// configuration. Flags given on the command line win over stored ones.
func Restore(config *api.Config, cmd *cobra.Command) {
	data, err := os.ReadFile(constants.ConfigFile)
	if err != nil {
		log.V(1).Infof("Unable to restore %s: %v", constants.ConfigFile, err)
		return
	}

	c := Config{}
	if err := yaml.Unmarshal(data, &c); err != nil {
		log.V(1).Infof("Unable to parse %s: %v", constants.ConfigFile, err)
		return
	}

	config.Source = c.Source
	config.Tag = c.Tag

	for name, value := range c.Flags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}
		if err := cmd.Flags().Set(name, value); err != nil {
			log.V(1).Infof("Unable to restore flag %s: %v", name, err)
		}
	}
}
