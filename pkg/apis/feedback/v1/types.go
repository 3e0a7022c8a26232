package v1

import (
	"fmt"
	"time"
)

// SentinelUnclear is the fallback value meaning "unknown/unclear". It is used
// both as the label for issues no vocabulary label fits and as the
// organization for issues that cannot be attributed.
const SentinelUnclear = "Unklar"

// RawIssue is one issue as returned by the GitLab issues listing API. Only the
// fields the pipeline consumes are mapped; everything else is dropped at decode
// time.
type RawIssue struct {
	IID            int        `json:"iid"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	State          string     `json:"state"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
	ClosedAt       string     `json:"closed_at"`
	Author         Author     `json:"author"`
	UserNotesCount int        `json:"user_notes_count"`
	Upvotes        int        `json:"upvotes"`
	Downvotes      int        `json:"downvotes"`
	References     References `json:"references"`
}

type Author struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

type References struct {
	Short    string `json:"short"`
	Relative string `json:"relative"`
	Full     string `json:"full"`
}

// CleanedIssue is the post-cleaning projection of a RawIssue: author flattened,
// timestamps parsed, and the derived submission-channel fields populated.
// ClosedAt is nil for issues that are still open.
type CleanedIssue struct {
	IID            int
	Title          string
	Description    string
	State          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time
	AuthorID       int64
	AuthorName     string
	AuthorState    string
	UserNotesCount int
	Upvotes        int
	Downvotes      int
	References     string

	// DescClean is the description with the feedback-form boilerplate stripped.
	DescClean string
	// IsFromForm reports whether the issue was submitted through the website
	// feedback form rather than directly on OpenCode.
	IsFromForm bool
	// FormPage is the page the feedback form was submitted from, or the
	// "Via OpenCode" sentinel for issues filed directly.
	FormPage string
}

// EnrichedIssue carries the cleaned issue plus all enrichment and
// postprocessing columns.
type EnrichedIssue struct {
	CleanedIssue

	// Sentiment is the document sentiment score in [-1.0, 1.0]; 0.0 when the
	// scorer failed or the text was empty.
	Sentiment float64
	// Labels holds the validated topic labels. Empty until labeling ran;
	// guaranteed non-empty after postprocessing ("Unklar" backfill).
	Labels []string
	// Org is the attributed organization, or "Unklar".
	Org string
	// FeedbackRound is the consultation round derived from the creation year.
	FeedbackRound int
}

// Row flattens the issue into one partition row. The labels column name
// carries the vocabulary version so that re-labeled datasets remain
// distinguishable across partitions.
func (i *EnrichedIssue) Row(vocabVersion int) map[string]interface{} {
	var closedAt interface{}
	if i.ClosedAt != nil {
		closedAt = i.ClosedAt.UTC().Format(time.RFC3339)
	}
	labels := i.Labels
	if labels == nil {
		labels = []string{}
	}
	return map[string]interface{}{
		"iid":              i.IID,
		"title":            i.Title,
		"description":      i.Description,
		"state":            i.State,
		"created_at":       i.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":       i.UpdatedAt.UTC().Format(time.RFC3339),
		"closed_at":        closedAt,
		"author_id":        i.AuthorID,
		"author_name":      i.AuthorName,
		"author_state":     i.AuthorState,
		"user_notes_count": i.UserNotesCount,
		"upvotes":          i.Upvotes,
		"downvotes":        i.Downvotes,
		"references":       i.References,
		"desc_clean":       i.DescClean,
		"is_from_form":     i.IsFromForm,
		"form_page":        i.FormPage,
		"sentiment":        i.Sentiment,
		fmt.Sprintf("labels_v%d", vocabVersion): labels,
		"org":            i.Org,
		"feedback_round": i.FeedbackRound,
	}
}

// RunMetadata is the persisted bookkeeping from the last successful pipeline
// run. LastSuccessfulRun is the watermark: the maximum created_at across the
// issues processed by that run, nil when no run has succeeded yet.
type RunMetadata struct {
	LastSuccessfulRun    *time.Time `json:"last_successful_run"`
	LastFetchedIssues    int        `json:"last_fetched_issues"`
	TotalIssuesProcessed int        `json:"total_issues_processed"`
	RunID                string     `json:"run_id,omitempty"`
}
