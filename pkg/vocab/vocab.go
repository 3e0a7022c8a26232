package vocab

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Load reads the versioned label vocabulary: one label per line, blank lines
// and #-comments ignored. The version is part of the filename so re-labeling
// runs against a new list never mix with old partitions unnoticed.
func Load(dir string, version int) ([]string, error) {
	path := filepath.Join(dir, fmt.Sprintf("keywords_config_v%d.txt", version))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load label vocabulary v%d", version)
	}

	var labels []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("label vocabulary %s is empty", path)
	}

	log.Infof("loaded %d labels from %s", len(labels), path)
	return labels, nil
}
