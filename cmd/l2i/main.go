package main

import (
	goflag "flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
	"github.com/lockship/lock-to-image/pkg/build"
	"github.com/lockship/lock-to-image/pkg/build/strategies"
	cmdutil "github.com/lockship/lock-to-image/pkg/cmd"
	"github.com/lockship/lock-to-image/pkg/config"
	"github.com/lockship/lock-to-image/pkg/create"
	"github.com/lockship/lock-to-image/pkg/docker"
	"github.com/lockship/lock-to-image/pkg/errors"
	"github.com/lockship/lock-to-image/pkg/manifest"
	"github.com/lockship/lock-to-image/pkg/run"
	"github.com/lockship/lock-to-image/pkg/tar"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
	"github.com/lockship/lock-to-image/pkg/validation"
	"github.com/lockship/lock-to-image/pkg/version"
)

var log = utillog.StderrLog

func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version",
		Long:  "Display version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("l2i %v\n", version.Get())
		},
	}
}

func newCmdBuild(cfg *api.Config) *cobra.Command {
	useConfig := false

	buildCmd := &cobra.Command{
		Use:   "build <source> <tag>",
		Short: "Build a new image",
		Long:  "Build a new container image named <tag> from a locked source tree and a base image.",
		Example: `
# Build an image from the current directory
$ l2i build . flight-api:latest

# Build against a different base image with buildah
$ l2i build . flight-api:latest --image python:3.13-slim --container-manager buildah
`,
		Run: func(cmd *cobra.Command, args []string) {
			log.V(1).Infof("Running l2i version %q", version.Get())

			// Attempt to restore the build command from the configuration file
			if useConfig {
				config.Restore(cfg, cmd)
			}

			// If user specifies the arguments, then we override the stored ones
			if len(args) >= 1 {
				cfg.Source = args[0]
			}
			if len(args) >= 2 {
				cfg.Tag = args[1]
			}
			if len(cfg.Source) == 0 || len(cfg.Tag) == 0 {
				cmd.Help()
				os.Exit(1)
			}

			if len(cfg.BasePullPolicy) == 0 {
				cfg.BasePullPolicy = api.DefaultBasePullPolicy
			}

			// Persists the current command line options into the config file
			if useConfig {
				config.Save(cfg, cmd)
			}

			// Attempt to read the docker config and extract the authentication
			// for the base image pull
			if r, err := os.Open(cfg.DockerCfgPath); err == nil {
				defer r.Close()
				auths := docker.LoadImageRegistryAuth(r)
				cfg.PullAuthentication = docker.GetImageRegistryAuth(auths, cfg.BaseImage)
			}

			if errs := validation.ValidateConfig(cfg); len(errs) > 0 {
				for _, e := range errs {
					fmt.Printf("ERROR: %s\n", e)
				}
				fmt.Println(cmd.UsageString())
				os.Exit(1)
			}

			log.V(2).Infof("\n%s\n", cfg.Describe())

			builder, err := strategies.Strategy(cfg)
			checkErr(err)
			result, err := builder.Build(cfg)
			checkErr(err)

			for _, message := range result.Messages {
				log.V(1).Info(message)
			}
			fmt.Println(result.ImageID)

			if cfg.RunImage {
				runner, err := run.New(cfg)
				checkErr(err)
				err = runner.Run(cfg)
				checkErr(err)
			}
		},
	}

	cmdutil.AddCommonFlags(buildCmd, cfg)

	buildCmd.Flags().BoolVar(&(cfg.RunImage), "run", false,
		"Run resulting image as part of invocation of this command")
	buildCmd.Flags().StringVar(&(cfg.ContainerManager), "container-manager", constants.DockerContainerManager,
		"Select the build backend (docker or buildah)")
	buildCmd.Flags().StringVar(&(cfg.Network), "network", "",
		"Specify the network mode of the engine build")
	buildCmd.Flags().StringVar(&(cfg.ExcludeRegExp), "exclude", tar.DefaultExclusionPattern.String(),
		"Regular expression for selecting files from the source tree to exclude from the build, where the default excludes the '.git' directory (see https://golang.org/pkg/regexp for syntax, but note that \"\" will be interpreted as allow all files and exclude no files)")
	buildCmd.Flags().BoolVar(&useConfig, "use-config", false,
		"Store command line options to "+constants.ConfigFile)

	return buildCmd
}

func newCmdGenerate(cfg *api.Config) *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate <source> <output file>",
		Short: "Generate the Dockerfile for a locked source tree",
		Long: "Validate the manifest and lock file of the source tree and write the " +
			"Dockerfile the build would execute, without contacting a container engine.",
		Example: `
# Write the Dockerfile the build of the current directory would run
$ l2i generate . Dockerfile.gen
`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				cmd.Help()
				os.Exit(1)
			}
			cfg.Source = args[0]
			cfg.AsDockerfile = args[1]

			builder, err := strategies.Strategy(cfg)
			checkErr(err)
			result, err := builder.Build(cfg)
			checkErr(err)

			for _, message := range result.Messages {
				log.V(1).Info(message)
			}
		},
	}

	cmdutil.AddCommonFlags(generateCmd, cfg)
	return generateCmd
}

func newCmdValidate(cfg *api.Config) *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate <source>",
		Short: "Validate the manifest and lock file of a source tree",
		Long: "Check that the lock file exists, parses, and pins every direct dependency " +
			"of the manifest, without building anything.",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				cmd.Help()
				os.Exit(1)
			}
			cfg.Source = args[0]

			plan, err := build.Prepare(cfg)
			checkErr(err)

			fmt.Printf("%s %s: %d direct dependencies pinned, lock digest %s\n",
				plan.Manifest.Project.Name, plan.Manifest.Project.Version,
				len(plan.Manifest.DirectDependencies()), plan.LockDigest)
		},
	}

	cmdutil.AddCommonFlags(validateCmd, cfg)
	return validateCmd
}

func newCmdVerify(cfg *api.Config) *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify <image> <source>",
		Short: "Verify an image was built from the source tree's lock file",
		Long: "Compare the lock digest label of the image against the digest of the " +
			"local lock file. Matching digests mean the image's dependency set is " +
			"exactly the one the lock pins.",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				cmd.Help()
				os.Exit(1)
			}
			tag := args[0]
			cfg.Source = args[1]

			client, err := docker.NewEngineAPIClient(cfg.DockerConfig)
			checkErr(err)
			d := docker.New(client, cfg.PullAuthentication)

			labels, err := d.GetLabels(tag)
			checkErr(err)
			imageDigest := labels[constants.LockDigestLabel]

			lockPath := filepath.Join(cfg.Source, cfg.LockFile)
			localDigest, err := manifest.Digest(lockPath)
			checkErr(err)

			if imageDigest != localDigest {
				checkErr(errors.NewLockDigestMismatchError(tag, imageDigest, localDigest))
			}
			fmt.Printf("%s matches %s (%s)\n", tag, lockPath, localDigest)
		},
	}

	verifyCmd.Flags().StringVar(&(cfg.LockFile), "lock", constants.DefaultLockFile,
		"Specify the pinned lock file, relative to the source tree")
	return verifyCmd
}

func newCmdRun(cfg *api.Config) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <image> [command...]",
		Short: "Run a produced image",
		Long: "Start a container from the image with its ports published to random host " +
			"ports. Additional arguments override the image's default start command.",
		Example: `
# Run the image with its default start command
$ l2i run flight-api:latest

# Override the start command
$ l2i run flight-api:latest uv run pytest
`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				cmd.Help()
				os.Exit(1)
			}
			cfg.Tag = args[0]
			cfg.RunCommand = args[1:]

			runner, err := run.New(cfg)
			checkErr(err)
			err = runner.Run(cfg)
			checkErr(err)
		},
	}

	runCmd.Flags().VarP(&(cfg.Environment), "env", "e",
		"Specify an environment variable for the container, in NAME=VALUE format")
	return runCmd
}

func newCmdCreate() *cobra.Command {
	return &cobra.Command{
		Use:   "create <projectName> <destination>",
		Short: "Bootstrap a new project directory",
		Long: "Bootstrap a new project with the given name inside the destination " +
			"directory, in the layout the build command expects. Run 'uv lock' in the " +
			"directory afterwards to produce the lock file.",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				cmd.Help()
				os.Exit(1)
			}
			b := create.New(args[0], args[1])
			b.AddManifest()
			b.AddEntrypoint()
			b.AddDotFiles()
		},
	}
}

func newCmdCompletion(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion <bash|zsh>",
		Short: "Generate completion for the l2i command",
		Long:  "Generate completion for the l2i command into standard output",
		Run: func(cmd *cobra.Command, args []string) {
			shell := "bash"
			if len(args) > 0 {
				shell = args[0]
			}
			switch shell {
			case "zsh":
				root.GenZshCompletion(os.Stdout)
			default:
				root.GenBashCompletion(os.Stdout)
			}
		},
	}
}

// setupLogLevel exposes klog's verbosity as the --loglevel flag.
func setupLogLevel(flags *pflag.FlagSet) {
	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	klogFlags.Set("logtostderr", "true")

	loglevel := new(int32)
	flags.Int32Var(loglevel, "loglevel", 0, "Set the level of log output (0-5)")
	cobra.OnInitialize(func() {
		klogFlags.Set("v", strconv.Itoa(int(*loglevel)))
	})
}

func checkErr(err error) {
	if err == nil {
		return
	}
	if e, ok := err.(errors.Error); ok {
		log.Errorf("An error occurred: %v", e)
		log.Errorf("Suggested solution: %v", e.Suggestion)
		if e.Details != nil {
			log.V(1).Infof("Details: %v", e.Details)
		}
		log.Error("If the problem persists consult the docs at https://github.com/lockship/lock-to-image/tree/master/docs " +
			"or file an issue at https://github.com/lockship/lock-to-image/issues " +
			"providing us with a log from your build using --loglevel=3")
		os.Exit(e.ErrorCode)
	}
	log.Errorf("An error occurred: %v", err)
	os.Exit(1)
}

func main() {
	cfg := &api.Config{}
	l2iCmd := &cobra.Command{
		Use: "l2i",
		Long: "Lock-to-image (l2i) builds repeatable container images for locked Python projects.\n\n" +
			"A command line interface that turns a source tree with a dependency manifest\n" +
			"and lock file into a runnable container image, installing dependencies\n" +
			"strictly from the lock.\n" +
			"Complete documentation is available at http://github.com/lockship/lock-to-image",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	cfg.DockerConfig = docker.GetDefaultDockerConfig()
	l2iCmd.PersistentFlags().StringVarP(&(cfg.DockerConfig.Endpoint), "url", "U", cfg.DockerConfig.Endpoint, "Set the url of the docker socket to use")
	l2iCmd.PersistentFlags().StringVar(&(cfg.DockerConfig.CertFile), "cert", cfg.DockerConfig.CertFile, "Set the path of the docker TLS certificate file")
	l2iCmd.PersistentFlags().StringVar(&(cfg.DockerConfig.KeyFile), "key", cfg.DockerConfig.KeyFile, "Set the path of the docker TLS key file")
	l2iCmd.PersistentFlags().StringVar(&(cfg.DockerConfig.CAFile), "ca", cfg.DockerConfig.CAFile, "Set the path of the docker TLS ca file")
	l2iCmd.PersistentFlags().BoolVar(&(cfg.DockerConfig.UseTLS), "tls", cfg.DockerConfig.UseTLS, "Use TLS to connect to docker; implied by --tlsverify")
	l2iCmd.PersistentFlags().BoolVar(&(cfg.DockerConfig.TLSVerify), "tlsverify", cfg.DockerConfig.TLSVerify, "Use TLS to connect to docker and verify the remote")
	l2iCmd.AddCommand(newCmdVersion())
	l2iCmd.AddCommand(newCmdBuild(cfg))
	l2iCmd.AddCommand(newCmdGenerate(cfg))
	l2iCmd.AddCommand(newCmdValidate(cfg))
	l2iCmd.AddCommand(newCmdVerify(cfg))
	l2iCmd.AddCommand(newCmdRun(cfg))
	l2iCmd.AddCommand(newCmdCreate())
	l2iCmd.AddCommand(newCmdCompletion(l2iCmd))
	setupLogLevel(l2iCmd.PersistentFlags())

	if err := l2iCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
