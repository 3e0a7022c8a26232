package ingestion

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	configv1 "github.com/dstack/feedback-pipeline/pkg/apis/config/v1"
	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// gitlabTimeLayout matches GitLab's millisecond-precision UTC timestamps.
const gitlabTimeLayout = "2006-01-02T15:04:05.000Z"

// Cleaner turns raw fetched issues into the cleaned projection: author
// flattened, timestamps parsed, seed issues excluded, duplicates collapsed and
// the submission-channel fields derived.
type Cleaner struct {
	config configv1.CleanConfig
}

func NewCleaner(config configv1.CleanConfig) *Cleaner {
	return &Cleaner{config: config}
}

// Clean is a total function over its input with no side effects. A timestamp
// that fails to parse is a hard error: timestamps drive both ordering and the
// incremental watermark, so there is deliberately no skip-and-log path.
//
// Deduplication is on the (title, description) pair rather than iid, so two
// distinct issues with identical text collapse to one record. That is the
// established duplicate-submission policy, not an accident.
func (c *Cleaner) Clean(raw []v1.RawIssue) ([]v1.CleanedIssue, error) {
	excluded := make(map[int]bool, len(c.config.ExcludeIIDs))
	for _, iid := range c.config.ExcludeIIDs {
		excluded[iid] = true
	}
	dropDescriptions := make(map[string]bool, len(c.config.ExcludeDescriptions))
	for _, desc := range c.config.ExcludeDescriptions {
		dropDescriptions[desc] = true
	}

	seen := make(map[string]bool, len(raw))
	cleaned := make([]v1.CleanedIssue, 0, len(raw))
	for i := range raw {
		issue := &raw[i]
		if excluded[issue.IID] {
			log.Debugf("excluding seed issue %d", issue.IID)
			continue
		}

		dedupKey := issue.Title + "\x00" + issue.Description
		if seen[dedupKey] {
			log.Debugf("dropping issue %d as duplicate of earlier title/description", issue.IID)
			continue
		}
		seen[dedupKey] = true

		createdAt, err := time.Parse(gitlabTimeLayout, issue.CreatedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "issue %d: unparseable created_at %q", issue.IID, issue.CreatedAt)
		}
		updatedAt, err := time.Parse(gitlabTimeLayout, issue.UpdatedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "issue %d: unparseable updated_at %q", issue.IID, issue.UpdatedAt)
		}
		var closedAt *time.Time
		if issue.ClosedAt != "" {
			parsed, err := time.Parse(gitlabTimeLayout, issue.ClosedAt)
			if err != nil {
				return nil, errors.Wrapf(err, "issue %d: unparseable closed_at %q", issue.IID, issue.ClosedAt)
			}
			closedAt = &parsed
		}

		descClean := strings.ReplaceAll(issue.Description, c.config.DescriptionBoilerplate, "")
		if dropDescriptions[descClean] {
			log.Debugf("dropping issue %d with empty/test description", issue.IID)
			continue
		}

		isFromForm := strings.HasPrefix(issue.Title, c.config.FormTitlePrefix)
		formPage := c.config.NonFormPage
		if isFromForm {
			formPage = strings.TrimSpace(strings.TrimPrefix(issue.Title, c.config.FormTitlePrefix))
		}

		cleaned = append(cleaned, v1.CleanedIssue{
			IID:            issue.IID,
			Title:          issue.Title,
			Description:    issue.Description,
			State:          issue.State,
			CreatedAt:      createdAt,
			UpdatedAt:      updatedAt,
			ClosedAt:       closedAt,
			AuthorID:       issue.Author.ID,
			AuthorName:     issue.Author.Name,
			AuthorState:    issue.Author.State,
			UserNotesCount: issue.UserNotesCount,
			Upvotes:        issue.Upvotes,
			Downvotes:      issue.Downvotes,
			References:     issue.References.Full,
			DescClean:      descClean,
			IsFromForm:     isFromForm,
			FormPage:       formPage,
		})
	}

	log.Infof("cleaned %d raw issues down to %d", len(raw), len(cleaned))
	return cleaned, nil
}
