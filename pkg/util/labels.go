package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lockship/lock-to-image/pkg/api"
	"github.com/lockship/lock-to-image/pkg/api/constants"
	"github.com/lockship/lock-to-image/pkg/manifest"
	utillog "github.com/lockship/lock-to-image/pkg/util/log"
)

var log = utillog.StderrLog

// MetadataFilename is the name of the config file defining additional labels
// to set on the output image.
const MetadataFilename = "image_metadata.json"

// GenerateOutputImageLabels generates the labels for the output image based
// on the build configuration and the parsed project manifest.
func GenerateOutputImageLabels(m *manifest.Manifest, lockDigest string, config *api.Config) map[string]string {
	labels := map[string]string{}
	namespace := constants.DefaultNamespace
	if len(config.LabelNamespace) > 0 {
		namespace = config.LabelNamespace
	}

	labels = GenerateLabelsFromConfig(labels, config, namespace)
	labels = GenerateLabelsFromManifest(labels, m, lockDigest, namespace)

	if data, err := ProcessImageMetadataFile(config.Source); err == nil {
		ll := data["labels"]
		if entries, ok := ll.([]interface{}); ok {
			for _, l := range entries {
				if entry, ok := l.(map[string]interface{}); ok {
					for k, v := range entry {
						if s, ok := v.(string); ok {
							labels[k] = s
						}
					}
				}
			}
		}
	}

	// user-provided labels win over generated ones
	for k, v := range config.Labels {
		labels[k] = v
	}
	return labels
}

// GenerateLabelsFromConfig generates labels from the build configuration.
func GenerateLabelsFromConfig(labels map[string]string, config *api.Config, namespace string) map[string]string {
	if len(config.Description) > 0 {
		labels[constants.KubernetesDescriptionLabel] = config.Description
	}

	if len(config.DisplayName) > 0 {
		labels[constants.KubernetesDisplayNameLabel] = config.DisplayName
	} else if len(config.Tag) > 0 {
		labels[constants.KubernetesDisplayNameLabel] = config.Tag
	}

	if len(config.BaseImage) > 0 {
		labels[namespace+"build.image"] = config.BaseImage
	}
	return labels
}

// GenerateLabelsFromManifest generates labels from the parsed manifest and
// the lock file digest.
func GenerateLabelsFromManifest(labels map[string]string, m *manifest.Manifest, lockDigest string, namespace string) map[string]string {
	if m == nil {
		log.V(3).Info("No manifest information available, the output image labels will not be set")
		return labels
	}

	if len(m.Project.Name) > 0 {
		labels[namespace+"manifest.name"] = m.Project.Name
	}
	if len(m.Project.Version) > 0 {
		labels[namespace+"manifest.version"] = m.Project.Version
	}
	if len(m.Project.RequiresPython) > 0 {
		labels[namespace+"manifest.requires-python"] = m.Project.RequiresPython
	}
	if len(lockDigest) > 0 {
		labels[namespace+"lock.digest"] = lockDigest
	}
	return labels
}

// ProcessImageMetadataFile returns a map of the labels to set on the output
// image, read from the optional metadata file in the source tree.
func ProcessImageMetadataFile(dir string) (map[string]interface{}, error) {
	filePath := filepath.Join(dir, MetadataFilename)
	fd, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to open file '%s': %v", filePath, err)
	}
	defer fd.Close()

	var data map[string]interface{}
	if err = json.NewDecoder(fd).Decode(&data); err != nil {
		return nil, fmt.Errorf("JSON unmarshal error with '%s' file: %v", MetadataFilename, err)
	}
	return data, nil
}
