package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
)

// AddCommonFlags adds the flags shared by the build, generate and validate
// commands.
func AddCommonFlags(c *cobra.Command, cfg *api.Config) {
	c.Flags().BoolVarP(&(cfg.Quiet), "quiet", "q", false,
		"Operate quietly. Suppress all non-error output.")
	c.Flags().StringVarP(&(cfg.BaseImage), "image", "i", constants.DefaultBaseImage,
		"Specify the base image the build starts from")
	c.Flags().VarP(&(cfg.BasePullPolicy), "pull-policy", "p",
		"Specify when to pull the base image (always, never or if-not-present)")
	c.Flags().StringVar(&(cfg.ManifestFile), "manifest", constants.DefaultManifestFile,
		"Specify the dependency manifest, relative to the source tree")
	c.Flags().StringVar(&(cfg.LockFile), "lock", constants.DefaultLockFile,
		"Specify the pinned lock file, relative to the source tree")
	c.Flags().StringVar(&(cfg.EntrypointScript), "entrypoint-script", constants.DefaultEntrypointScript,
		"Specify the script run by the default start command of the image")
	c.Flags().StringVar(&(cfg.InstallerVersion), "installer-version", constants.DefaultInstallerVersion,
		"Specify the pinned version of the dependency manager installed into the image")
	c.Flags().StringVar(&(cfg.ImageWorkDir), "workdir", constants.DefaultImageWorkDir,
		"Specify the working directory established inside the image")
	c.Flags().StringSliceVar(&(cfg.ExposedPorts), "port", constants.DefaultExposedPorts,
		"Specify a port the output image declares; repeat for multiple ports")
	c.Flags().VarP(&(cfg.Environment), "env", "e",
		"Specify an environment variable baked into the image, in NAME=VALUE format")
	c.Flags().StringVarP(&(cfg.EnvironmentFile), "environment-file", "E", "",
		"Specify the path to the file with environment")
	c.Flags().StringToStringVar(&(cfg.Labels), "label", nil,
		"Specify a label set on the output image, in NAME=VALUE format")
	c.Flags().StringVar(&(cfg.LabelNamespace), "label-namespace", "",
		"Specify the namespace of the generated image labels")
	c.Flags().StringVarP(&(cfg.DisplayName), "application-name", "n", "",
		"Specify the display name for the application (default: output image name)")
	c.Flags().StringVar(&(cfg.Description), "description", "",
		"Specify the description of the application")
	c.Flags().BoolVar(&(cfg.PreserveWorkingDir), "save-temp-dir", false,
		"Save the temporary directory used during the build instead of deleting it")
	c.Flags().StringVarP(&(cfg.DockerCfgPath), "dockercfg-path", "", filepath.Join(os.Getenv("HOME"), ".docker/config.json"),
		"Specify the path to the Docker configuration file")
}
