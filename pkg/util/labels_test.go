package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/manifest"
)

func TestImageMetadataLabels(t *testing.T) {
	tests := []struct {
		json  string
		count int
	}{
		{
			json:  "{\"labels\": [{\"org.example/service\":\"flight-emissions\"}]}",
			count: 1,
		},
		{
			json:  "{\"labels\": [{\"labelkey1\":\"value1\"},{\"labelkey2\":\"value2\"}]}",
			count: 2,
		},
		{
			json:  "{\"labels\": [{\"labelkey1\":\"value1\",\"labelkey2\":\"value2\"}]}",
			count: 2,
		},
	}
	for _, tc := range tests {
		tempDir := t.TempDir()
		path := filepath.Join(tempDir, MetadataFilename)
		if err := os.WriteFile(path, []byte(tc.json), 0600); err != nil {
			t.Fatalf("could not create temp image_metadata.json: %v", err)
		}

		cfg := &api.Config{Source: tempDir}
		data := GenerateOutputImageLabels(nil, "", cfg)
		if len(data) != tc.count {
			t.Fatalf("GenerateOutputImageLabels len %d when needed %d for %s", len(data), tc.count, tc.json)
		}
	}
}

func TestGenerateOutputImageLabels(t *testing.T) {
	m := &manifest.Manifest{}
	m.Project.Name = "forty-one"
	m.Project.Version = "0.1.0"
	m.Project.RequiresPython = ">=3.12"

	cfg := &api.Config{
		Source:      t.TempDir(),
		Tag:         "forty-one:latest",
		BaseImage:   "python:3.12-slim",
		Description: "flight emissions service",
		Labels:      map[string]string{"custom": "value"},
	}

	labels := GenerateOutputImageLabels(m, "xxh64:00000000deadbeef", cfg)

	expected := map[string]string{
		"io.k8s.description":              "flight emissions service",
		"io.k8s.display-name":             "forty-one:latest",
		"io.l2i.build.image":              "python:3.12-slim",
		"io.l2i.manifest.name":            "forty-one",
		"io.l2i.manifest.version":         "0.1.0",
		"io.l2i.manifest.requires-python": ">=3.12",
		"io.l2i.lock.digest":              "xxh64:00000000deadbeef",
		"custom":                          "value",
	}
	for k, v := range expected {
		if labels[k] != v {
			t.Errorf("expected label %s=%q, got %q", k, v, labels[k])
		}
	}
	if len(labels) != len(expected) {
		t.Errorf("expected %d labels, got %d: %v", len(expected), len(labels), labels)
	}
}
