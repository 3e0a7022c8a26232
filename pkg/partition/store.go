package partition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// DataFile is the row file inside each partition directory.
const DataFile = "issues.jsonl"

// Store writes immutable dated partitions of postprocessed issues under a
// local data directory. A partition is created once per pipeline run and
// never mutated afterwards.
type Store struct {
	dataDir      string
	vocabVersion int
}

func NewStore(dataDir string, vocabVersion int) *Store {
	return &Store{dataDir: dataDir, vocabVersion: vocabVersion}
}

// Name returns the partition directory name for a processing date.
func Name(processingDate time.Time) string {
	return fmt.Sprintf("processing_date=%s", processingDate.UTC().Format("2006-01-02"))
}

// Write persists one partition as JSON lines, one row object per issue, and
// returns the partition directory path.
func (s *Store) Write(issues []v1.EnrichedIssue, processingDate time.Time) (string, error) {
	dir := filepath.Join(s.dataDir, Name(processingDate))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "could not create partition directory")
	}

	var buf strings.Builder
	for i := range issues {
		line, err := json.Marshal(issues[i].Row(s.vocabVersion))
		if err != nil {
			return "", errors.Wrapf(err, "could not serialize issue %d", issues[i].IID)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	path := filepath.Join(dir, DataFile)
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return "", errors.Wrap(err, "could not write partition file")
	}

	log.Infof("saved %d issues to %s", len(issues), path)
	return dir, nil
}

// ListLocal returns the partition directory names under the data directory in
// ascending (oldest-first) order, which is the order reconciliation relies on
// for its keep-last semantics.
func ListLocal(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not list partitions")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "processing_date=") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
