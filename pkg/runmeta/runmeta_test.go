package runmeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

func TestLoadMissingFileMeansNoPriorRun(t *testing.T) {
	tracker := NewTracker(filepath.Join(t.TempDir(), "run_metadata.json"))

	metadata := tracker.Load()

	assert.Nil(t, metadata.LastSuccessfulRun)
	assert.Zero(t, metadata.LastFetchedIssues)
	assert.Zero(t, metadata.TotalIssuesProcessed)
}

func TestLoadCorruptFileMeansNoPriorRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	metadata := NewTracker(path).Load()

	assert.Nil(t, metadata.LastSuccessfulRun)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run_metadata.json")
	tracker := NewTracker(path)

	watermark := time.Date(2025, 6, 25, 7, 49, 22, 0, time.UTC)
	tracker.Save(v1.RunMetadata{
		LastSuccessfulRun:    &watermark,
		LastFetchedIssues:    12,
		TotalIssuesProcessed: 10,
		RunID:                "run-1",
	})

	metadata := tracker.Load()
	require.NotNil(t, metadata.LastSuccessfulRun)
	assert.True(t, watermark.Equal(*metadata.LastSuccessfulRun))
	assert.Equal(t, 12, metadata.LastFetchedIssues)
	assert.Equal(t, 10, metadata.TotalIssuesProcessed)
	assert.Equal(t, "run-1", metadata.RunID)
}

func TestWatermarkIsMaxCreatedAt(t *testing.T) {
	issues := []v1.EnrichedIssue{
		{CleanedIssue: v1.CleanedIssue{CreatedAt: time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)}},
		{CleanedIssue: v1.CleanedIssue{CreatedAt: time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)}},
		{CleanedIssue: v1.CleanedIssue{CreatedAt: time.Date(2025, 6, 26, 0, 0, 0, 0, time.UTC)}},
	}

	watermark := Watermark(issues)
	require.NotNil(t, watermark)
	assert.Equal(t, time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC), *watermark)
}

func TestWatermarkEmptyBatch(t *testing.T) {
	assert.Nil(t, Watermark(nil))
}
