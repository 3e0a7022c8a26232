package feedbackloader

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	configv1 "github.com/dstack/feedback-pipeline/pkg/apis/config/v1"
	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
	"github.com/dstack/feedback-pipeline/pkg/enrich"
	"github.com/dstack/feedback-pipeline/pkg/gitlab"
	"github.com/dstack/feedback-pipeline/pkg/ingestion"
	"github.com/dstack/feedback-pipeline/pkg/partition"
	"github.com/dstack/feedback-pipeline/pkg/runmeta"
)

// FeedbackLoader runs the complete ingestion pipeline: incremental fetch,
// clean, the three enrichment passes, postprocess, partition write, and
// best-effort GCS mirror. The run metadata watermark is only advanced after
// everything else succeeded.
type FeedbackLoader struct {
	config     *configv1.PipelineConfig
	gitlab     *gitlab.Client
	sentiment  enrich.Enricher
	labeler    enrich.Enricher
	attributor enrich.Enricher
	tracker    *runmeta.Tracker
	store      *partition.Store
	publisher  *partition.Publisher

	// now is the processing-date clock, injectable for tests.
	now func() time.Time

	runID  string
	errors []error
}

func New(config *configv1.PipelineConfig, gitlabClient *gitlab.Client,
	sentiment, labeler, attributor enrich.Enricher,
	tracker *runmeta.Tracker, store *partition.Store, publisher *partition.Publisher) *FeedbackLoader {
	return &FeedbackLoader{
		config:     config,
		gitlab:     gitlabClient,
		sentiment:  sentiment,
		labeler:    labeler,
		attributor: attributor,
		tracker:    tracker,
		store:      store,
		publisher:  publisher,
		now:        time.Now,
		runID:      uuid.NewString(),
	}
}

func (l *FeedbackLoader) Name() string {
	return "feedback"
}

func (l *FeedbackLoader) Errors() []error {
	return l.errors
}

func (l *FeedbackLoader) Load() {
	ctx := context.TODO()
	runLog := log.WithField("run", l.runID)
	runLog.Info("starting feedback ingestion pipeline")

	metadata := l.tracker.Load()

	raw, err := l.gitlab.FetchAllIssues(ctx)
	if err != nil {
		l.errors = append(l.errors, errors.Wrap(err, "fetching issues"))
		return
	}

	if metadata.LastSuccessfulRun != nil {
		runLog.Infof("filtering issues created after %s", metadata.LastSuccessfulRun.Format(time.RFC3339))
		raw, err = FilterNew(raw, metadata.LastSuccessfulRun)
		if err != nil {
			l.errors = append(l.errors, errors.Wrap(err, "filtering new issues"))
			return
		}
		runLog.Infof("filtered to %d new issues", len(raw))
	}

	if len(raw) == 0 {
		runLog.Info("no new issues to process")
		return
	}

	cleaned, err := ingestion.NewCleaner(l.config.Clean).Clean(raw)
	if err != nil {
		l.errors = append(l.errors, errors.Wrap(err, "cleaning issues"))
		return
	}
	runLog.Infof("prepared %d issues for enrichment", len(cleaned))

	issues := make([]v1.EnrichedIssue, len(cleaned))
	for i := range cleaned {
		issues[i] = v1.EnrichedIssue{CleanedIssue: cleaned[i]}
	}

	driver := enrich.NewDriver(l.config.Enrich)
	for _, enricher := range []enrich.Enricher{l.sentiment, l.labeler, l.attributor} {
		runLog.Infof("running %s enrichment", enricher.Name())
		results := driver.Run(ctx, enricher, issues)
		defaulted := 0
		for _, result := range results {
			if result.Defaulted {
				defaulted++
			}
		}
		if defaulted > 0 {
			runLog.Warningf("%s enrichment defaulted for %d of %d issues", enricher.Name(), defaulted, len(issues))
		}
	}

	processed := ingestion.NewPostprocessor(l.config.Postprocess).Apply(issues)
	ingestion.AssignFeedbackRounds(processed, l.config.Postprocess.SecondRoundYear)

	partitionDir, err := l.store.Write(processed, l.now().UTC())
	if err != nil {
		l.errors = append(l.errors, errors.Wrap(err, "writing partition"))
		return
	}

	// Mirroring is best-effort: local persistence is the durability floor.
	if l.publisher != nil {
		if err := l.publisher.Upload(ctx, partitionDir); err != nil {
			runLog.WithError(err).Error("failed to upload partition, continuing")
		}
	} else {
		runLog.Warning("no publisher configured, skipping GCS upload")
	}

	l.tracker.Save(v1.RunMetadata{
		LastSuccessfulRun:    runmeta.Watermark(processed),
		LastFetchedIssues:    len(raw),
		TotalIssuesProcessed: len(processed),
		RunID:                l.runID,
	})
	runLog.Infof("pipeline complete, processed %d issues", len(processed))
}

// FilterNew returns the raw issues created strictly after the watermark. A
// record created exactly at the watermark was processed by the previous run.
func FilterNew(raw []v1.RawIssue, watermark *time.Time) ([]v1.RawIssue, error) {
	if watermark == nil {
		return raw, nil
	}
	filtered := make([]v1.RawIssue, 0, len(raw))
	for _, issue := range raw {
		createdAt, err := time.Parse("2006-01-02T15:04:05.000Z", issue.CreatedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "issue %d: unparseable created_at %q", issue.IID, issue.CreatedAt)
		}
		if createdAt.After(*watermark) {
			filtered = append(filtered, issue)
		}
	}
	return filtered, nil
}
