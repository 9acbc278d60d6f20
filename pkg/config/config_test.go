package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
)

func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
	return dir
}

func testCommand(config *api.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "build"}
	cmd.Flags().StringVar(&config.BaseImage, "image", "", "")
	cmd.Flags().StringVar(&config.Network, "network", "", "")
	return cmd
}

func TestSaveRestore(t *testing.T) {
	dir := chdir(t)

	config := &api.Config{Source: "/src/app", Tag: "flight-api:latest"}
	cmd := testCommand(config)
	if err := cmd.Flags().Set("image", "python:3.12-slim"); err != nil {
		t.Fatal(err)
	}

	Save(config, cmd)
	if _, err := os.Stat(filepath.Join(dir, constants.ConfigFile)); err != nil {
		t.Fatalf("expected %s to be written: %v", constants.ConfigFile, err)
	}

	restored := &api.Config{}
	restoredCmd := testCommand(restored)
	Restore(restored, restoredCmd)

	if restored.Source != "/src/app" {
		t.Errorf("unexpected source %q", restored.Source)
	}
	if restored.Tag != "flight-api:latest" {
		t.Errorf("unexpected tag %q", restored.Tag)
	}
	if restored.BaseImage != "python:3.12-slim" {
		t.Errorf("unexpected base image %q", restored.BaseImage)
	}
	if restored.Network != "" {
		t.Errorf("expected unset flags to stay unset, got %q", restored.Network)
	}
}

func TestRestoreKeepsExplicitFlags(t *testing.T) {
	chdir(t)

	config := &api.Config{Source: "/src/app", Tag: "flight-api:latest"}
	cmd := testCommand(config)
	if err := cmd.Flags().Set("image", "python:3.12-slim"); err != nil {
		t.Fatal(err)
	}
	Save(config, cmd)

	restored := &api.Config{}
	restoredCmd := testCommand(restored)
	if err := restoredCmd.Flags().Set("image", "python:3.13-slim"); err != nil {
		t.Fatal(err)
	}
	Restore(restored, restoredCmd)

	if restored.BaseImage != "python:3.13-slim" {
		t.Errorf("expected the command line flag to win, got %q", restored.BaseImage)
	}
}

func TestRestoreMissingFile(t *testing.T) {
	chdir(t)
	config := &api.Config{}
	Restore(config, testCommand(config))
	if config.Source != "" || config.Tag != "" {
		t.Errorf("expected config to stay untouched, got %+v", config)
	}
}
