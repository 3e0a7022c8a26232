package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configv1 "github.com/dstack/feedback-pipeline/pkg/apis/config/v1"
	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

func rawIssue(iid int, title, description, createdAt string) v1.RawIssue {
	return v1.RawIssue{
		IID:         iid,
		Title:       title,
		Description: description,
		State:       "opened",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		Author:      v1.Author{ID: 7, Name: "Jo Tester", State: "active"},
		References:  v1.References{Full: "dstack/d-stack-home#" + title},
	}
}

func TestCleanDeduplicatesOnTitleAndDescription(t *testing.T) {
	cleaner := NewCleaner(configv1.Default().Clean)

	raw := []v1.RawIssue{
		rawIssue(100, "Feedback für die Seite /beteiligung", "Guter Vorschlag", "2025-06-25T07:49:22.496Z"),
		rawIssue(101, "Feedback für die Seite /beteiligung", "Guter Vorschlag", "2025-06-26T09:00:00.000Z"),
		rawIssue(102, "Feedback für die Seite /beteiligung", "Anderer Vorschlag", "2025-06-27T10:00:00.000Z"),
	}

	cleaned, err := cleaner.Clean(raw)
	require.NoError(t, err)
	require.Len(t, cleaned, 2)
	assert.Equal(t, 100, cleaned[0].IID)
	assert.Equal(t, 102, cleaned[1].IID)
}

func TestCleanExcludesSeedIssues(t *testing.T) {
	cleaner := NewCleaner(configv1.Default().Clean)

	raw := []v1.RawIssue{
		rawIssue(3, "Seed", "Seed-Inhalt", "2025-01-01T00:00:00.000Z"),
		rawIssue(42, "Echtes Feedback", "Inhalt", "2025-01-02T00:00:00.000Z"),
	}

	cleaned, err := cleaner.Clean(raw)
	require.NoError(t, err)
	require.Len(t, cleaned, 1)
	assert.Equal(t, 42, cleaned[0].IID)
}

func TestCleanParsesTimestamps(t *testing.T) {
	cleaner := NewCleaner(configv1.Default().Clean)

	open := rawIssue(100, "Offen", "Inhalt", "2025-06-25T07:49:22.496Z")
	closed := rawIssue(101, "Geschlossen", "Anderer Inhalt", "2025-06-25T08:00:00.000Z")
	closed.ClosedAt = "2025-07-01T12:30:00.000Z"

	cleaned, err := cleaner.Clean([]v1.RawIssue{open, closed})
	require.NoError(t, err)
	require.Len(t, cleaned, 2)

	assert.Equal(t, time.Date(2025, 6, 25, 7, 49, 22, 496000000, time.UTC), cleaned[0].CreatedAt)
	assert.Nil(t, cleaned[0].ClosedAt)
	require.NotNil(t, cleaned[1].ClosedAt)
	assert.Equal(t, time.Date(2025, 7, 1, 12, 30, 0, 0, time.UTC), *cleaned[1].ClosedAt)

	assert.Equal(t, int64(7), cleaned[0].AuthorID)
	assert.Equal(t, "Jo Tester", cleaned[0].AuthorName)
	assert.Equal(t, "active", cleaned[0].AuthorState)
}

func TestCleanRejectsMalformedTimestamp(t *testing.T) {
	cleaner := NewCleaner(configv1.Default().Clean)

	raw := []v1.RawIssue{rawIssue(100, "Kaputt", "Inhalt", "25.06.2025 07:49")}

	_, err := cleaner.Clean(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")
}

func TestCleanDerivesFormPage(t *testing.T) {
	tests := []struct {
		name           string
		title          string
		wantIsFromForm bool
		wantFormPage   string
	}{
		{
			name:           "form submission",
			title:          "Feedback für die Seite /beteiligung/",
			wantIsFromForm: true,
			wantFormPage:   "/beteiligung/",
		},
		{
			name:           "form submission for root",
			title:          "Feedback für die Seite /",
			wantIsFromForm: true,
			wantFormPage:   "/",
		},
		{
			name:           "direct issue",
			title:          "Vorschlag zur Interoperabilität",
			wantIsFromForm: false,
			wantFormPage:   "Via OpenCode",
		},
	}

	cleaner := NewCleaner(configv1.Default().Clean)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := []v1.RawIssue{rawIssue(100, tc.title, "Inhalt", "2025-06-25T07:49:22.496Z")}
			cleaned, err := cleaner.Clean(raw)
			require.NoError(t, err)
			require.Len(t, cleaned, 1)
			assert.Equal(t, tc.wantIsFromForm, cleaned[0].IsFromForm)
			assert.Equal(t, tc.wantFormPage, cleaned[0].FormPage)
		})
	}
}

func TestCleanStripsBoilerplateAndDropsEmptySubmissions(t *testing.T) {
	cleaner := NewCleaner(configv1.Default().Clean)

	raw := []v1.RawIssue{
		rawIssue(100, "Feedback für die Seite /a", "**Feedback:** <br>Guter Vorschlag", "2025-06-25T07:00:00.000Z"),
		rawIssue(101, "Feedback für die Seite /b", "**Feedback:** <br>", "2025-06-25T08:00:00.000Z"),
		rawIssue(102, "Feedback für die Seite /c", "test", "2025-06-25T09:00:00.000Z"),
	}

	cleaned, err := cleaner.Clean(raw)
	require.NoError(t, err)
	require.Len(t, cleaned, 1)
	assert.Equal(t, 100, cleaned[0].IID)
	assert.Equal(t, "Guter Vorschlag", cleaned[0].DescClean)
}
