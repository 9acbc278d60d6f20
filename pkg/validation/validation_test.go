package validation

import (
	"testing"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
)

func validConfig() *api.Config {
	return &api.Config{
		Source:           ".",
		Tag:              "flight-api:latest",
		BaseImage:        constants.DefaultBaseImage,
		ManifestFile:     constants.DefaultManifestFile,
		LockFile:         constants.DefaultLockFile,
		InstallerVersion: constants.DefaultInstallerVersion,
		DockerConfig:     &api.DockerConfig{Endpoint: "unix:///var/run/docker.sock"},
	}
}

func TestValidateConfig(t *testing.T) {
	if errs := ValidateConfig(validConfig()); len(errs) != 0 {
		t.Errorf("unexpected validation errors: %v", errs)
	}

	cases := []struct {
		name   string
		mutate func(*api.Config)
		field  string
	}{
		{"missing source", func(c *api.Config) { c.Source = "" }, "source"},
		{"missing base image", func(c *api.Config) { c.BaseImage = "" }, "baseImage"},
		{"invalid base image", func(c *api.Config) { c.BaseImage = "python:3.12:slim" }, "baseImage"},
		{"invalid tag", func(c *api.Config) { c.Tag = "UPPER CASE" }, "tag"},
		{"missing manifest", func(c *api.Config) { c.ManifestFile = "" }, "manifestFile"},
		{"missing lock", func(c *api.Config) { c.LockFile = "" }, "lockFile"},
		{"missing installer version", func(c *api.Config) { c.InstallerVersion = "" }, "installerVersion"},
		{"unknown container manager", func(c *api.Config) { c.ContainerManager = "podman" }, "containerManager"},
		{"missing docker config", func(c *api.Config) { c.DockerConfig = nil }, "dockerConfig"},
		{"malformed environment", func(c *api.Config) {
			c.Environment = api.EnvironmentList{{Name: "A=B", Value: "x"}}
		}, "environment"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			errs := ValidateConfig(cfg)
			if len(errs) == 0 {
				t.Fatalf("expected a validation error for %s", tc.field)
			}
			found := false
			for _, e := range errs {
				if e.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %v", tc.field, errs)
			}
		})
	}
}

func TestValidateConfigBuildahNeedsNoDaemon(t *testing.T) {
	cfg := validConfig()
	cfg.ContainerManager = constants.BuildahContainerManager
	cfg.DockerConfig = nil
	if errs := ValidateConfig(cfg); len(errs) != 0 {
		t.Errorf("buildah builds should not require a docker config, got %v", errs)
	}
}
