package runmeta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// Tracker persists the run metadata file that gates incremental fetches.
// Two pipeline processes must not run against the same file concurrently;
// the scheduler (CI cron) is expected to guarantee non-overlap.
type Tracker struct {
	path string
}

func NewTracker(path string) *Tracker {
	return &Tracker{path: path}
}

// Load returns the metadata from the last successful run. A missing or
// corrupt file degrades to the zero value, meaning "no prior run": the next
// run then processes everything, which is safe, just slower.
func (t *Tracker) Load() v1.RunMetadata {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warning("failed to load run metadata")
		}
		return v1.RunMetadata{}
	}

	var metadata v1.RunMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		log.WithError(err).Warning("failed to parse run metadata, treating as no prior run")
		return v1.RunMetadata{}
	}
	return metadata
}

// Save persists the current run's metadata. It must only be called after the
// entire pipeline succeeded; a partial failure leaves the previous watermark
// untouched so the next run retries the same window. Write errors are logged
// and swallowed: losing bookkeeping costs a re-run, not data.
func (t *Tracker) Save(metadata v1.RunMetadata) {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		log.WithError(err).Error("failed to create run metadata directory")
		return
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		log.WithError(err).Error("failed to marshal run metadata")
		return
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		log.WithError(err).Error("failed to save run metadata")
		return
	}
	if metadata.LastSuccessfulRun != nil {
		log.Infof("metadata saved, next run will process issues created after %s",
			metadata.LastSuccessfulRun.Format(time.RFC3339))
	}
}

// Watermark computes the new watermark for a completed run: the maximum
// created_at across the processed issues, deliberately not wall-clock time,
// so it lines up exactly with the created_at > watermark filter on the next
// fetch.
func Watermark(issues []v1.EnrichedIssue) *time.Time {
	var max *time.Time
	for i := range issues {
		createdAt := issues[i].CreatedAt
		if max == nil || createdAt.After(*max) {
			max = &createdAt
		}
	}
	return max
}
