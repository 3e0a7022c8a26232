package ingestion

import (
	"strings"

	log "github.com/sirupsen/logrus"

	configv1 "github.com/dstack/feedback-pipeline/pkg/apis/config/v1"
	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// homePage is what the bare root path is normalized to.
const homePage = "home"

// Postprocessor applies the business rules over the fully enriched issues:
// the "Unklar" label backfill, the page exclusion list and the form_page
// normalization. The transformation is pure and idempotent: applying it to
// its own output changes nothing.
type Postprocessor struct {
	config configv1.PostprocessConfig
}

func NewPostprocessor(config configv1.PostprocessConfig) *Postprocessor {
	return &Postprocessor{config: config}
}

func (p *Postprocessor) Apply(issues []v1.EnrichedIssue) []v1.EnrichedIssue {
	excludePages := make(map[string]bool, len(p.config.ExcludePages))
	for _, page := range p.config.ExcludePages {
		excludePages[page] = true
	}

	out := make([]v1.EnrichedIssue, 0, len(issues))
	for _, issue := range issues {
		if len(issue.Labels) == 0 {
			issue.Labels = []string{v1.SentinelUnclear}
		}

		if excludePages[issue.FormPage] {
			log.Debugf("excluding issue %d from page %q", issue.IID, issue.FormPage)
			continue
		}

		if issue.FormPage == "/" {
			issue.FormPage = homePage
		} else {
			issue.FormPage = strings.TrimSuffix(issue.FormPage, "/")
		}

		out = append(out, issue)
	}

	log.Infof("postprocessed %d issues, %d remain", len(issues), len(out))
	return out
}

// AssignFeedbackRounds derives the consultation round from the creation year.
// The configured year maps to round 2, every other year to round 1, so the
// mapping is deterministic and exhaustive.
func AssignFeedbackRounds(issues []v1.EnrichedIssue, secondRoundYear int) {
	for i := range issues {
		if issues[i].CreatedAt.Year() == secondRoundYear {
			issues[i].FeedbackRound = 2
		} else {
			issues[i].FeedbackRound = 1
		}
	}
}
