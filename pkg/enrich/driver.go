package enrich

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	configv1 "github.com/dstack/feedback-pipeline/pkg/apis/config/v1"
	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// Result reports how one record's enrichment concluded. The zero value means
// the remote call succeeded and its value was applied.
type Result struct {
	// Defaulted reports that the enricher substituted its documented safe
	// default instead of a service result.
	Defaulted bool
	// Failed reports that the remote call itself failed. Failures drive the
	// longer rate-limit backoff; a Defaulted-but-not-Failed result (e.g.
	// empty input) does not.
	Failed bool
	// Reason says why the default was substituted.
	Reason string
}

// An Enricher enriches a single issue in place via a remote inference call.
// Enrich must absorb per-record service failures and apply the documented
// default itself; a single bad record must never abort a batch or the run.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, issue *v1.EnrichedIssue) Result
	// ApplyDefault sets the enricher's documented safe default on the issue.
	// The driver uses it when Enrich itself blows up.
	ApplyDefault(issue *v1.EnrichedIssue)
}

// Driver applies one Enricher across all issues in fixed-size batches with
// sleep-based pacing between sequential calls. Batch boundaries are a
// checkpointing and logging convenience only; results are order-preserving
// and one Result is returned per input issue regardless of batch size.
type Driver struct {
	batchSize    int
	successDelay time.Duration
	errorDelay   time.Duration
}

func NewDriver(config configv1.EnrichConfig) *Driver {
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Driver{
		batchSize:    batchSize,
		successDelay: time.Duration(config.SuccessDelay),
		errorDelay:   time.Duration(config.ErrorDelay),
	}
}

func (d *Driver) Run(ctx context.Context, enricher Enricher, issues []v1.EnrichedIssue) []Result {
	results := make([]Result, len(issues))
	for start := 0; start < len(issues); start += d.batchSize {
		end := start + d.batchSize
		if end > len(issues) {
			end = len(issues)
		}
		batchNum := start/d.batchSize + 1
		log.Infof("%s batch %d: rows %d to %d", enricher.Name(), batchNum, start, end-1)

		for i := start; i < end; i++ {
			results[i] = d.enrichOne(ctx, enricher, &issues[i])
			if results[i].Failed {
				time.Sleep(d.errorDelay)
			} else {
				time.Sleep(d.successDelay)
			}
		}

		// The working column is already committed in place for this batch, so
		// a later failure does not undo completed batches within this run.
		log.Infof("%s completed batch %d", enricher.Name(), batchNum)
	}
	return results
}

// enrichOne guards the loop against a misbehaving enricher: clients already
// absorb service errors, so the recover only catches programming errors, and
// substitutes the documented default plus the longer backoff.
func (d *Driver) enrichOne(ctx context.Context, enricher Enricher, issue *v1.EnrichedIssue) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("%s enricher panicked on issue %d: %v", enricher.Name(), issue.IID, r)
			enricher.ApplyDefault(issue)
			result = Result{Defaulted: true, Failed: true, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()
	result = enricher.Enrich(ctx, issue)
	if result.Defaulted {
		log.WithField("issue", issue.IID).WithField("reason", result.Reason).
			Warningf("%s enrichment defaulted", enricher.Name())
	}
	return result
}
