package enrich

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configv1 "github.com/dstack/feedback-pipeline/pkg/apis/config/v1"
	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// fastConfig runs the driver without real rate-limit sleeps.
func fastConfig(batchSize int) configv1.EnrichConfig {
	return configv1.EnrichConfig{BatchSize: batchSize}
}

type fakeEnricher struct {
	failIIDs  map[int]bool
	panicIIDs map[int]bool
	calls     []int
}

func (f *fakeEnricher) Name() string { return "fake" }

func (f *fakeEnricher) ApplyDefault(issue *v1.EnrichedIssue) {
	issue.Org = v1.SentinelUnclear
}

func (f *fakeEnricher) Enrich(_ context.Context, issue *v1.EnrichedIssue) Result {
	f.calls = append(f.calls, issue.IID)
	if f.panicIIDs[issue.IID] {
		panic("fake enricher exploded")
	}
	if f.failIIDs[issue.IID] {
		f.ApplyDefault(issue)
		return Result{Defaulted: true, Failed: true, Reason: "service unavailable"}
	}
	issue.Org = fmt.Sprintf("org-%d", issue.IID)
	return Result{}
}

func driverIssues(iids ...int) []v1.EnrichedIssue {
	issues := make([]v1.EnrichedIssue, 0, len(iids))
	for _, iid := range iids {
		issues = append(issues, v1.EnrichedIssue{CleanedIssue: v1.CleanedIssue{IID: iid}})
	}
	return issues
}

func TestDriverPreservesOrderAcrossBatches(t *testing.T) {
	enricher := &fakeEnricher{}
	issues := driverIssues(10, 11, 12, 13, 14)

	results := NewDriver(fastConfig(2)).Run(context.Background(), enricher, issues)

	require.Len(t, results, 5)
	assert.Equal(t, []int{10, 11, 12, 13, 14}, enricher.calls)
	for i, issue := range issues {
		assert.Equal(t, fmt.Sprintf("org-%d", issue.IID), issue.Org, "issue %d", i)
	}
}

func TestDriverIsolatesSingleRecordFailure(t *testing.T) {
	enricher := &fakeEnricher{failIIDs: map[int]bool{11: true}}
	issues := driverIssues(10, 11, 12)

	results := NewDriver(fastConfig(10)).Run(context.Background(), enricher, issues)

	require.Len(t, results, 3)
	assert.False(t, results[0].Defaulted)
	assert.True(t, results[1].Defaulted)
	assert.True(t, results[1].Failed)
	assert.False(t, results[2].Defaulted)

	assert.Equal(t, "org-10", issues[0].Org)
	assert.Equal(t, v1.SentinelUnclear, issues[1].Org)
	assert.Equal(t, "org-12", issues[2].Org)
}

func TestDriverRecoversFromPanic(t *testing.T) {
	enricher := &fakeEnricher{panicIIDs: map[int]bool{11: true}}
	issues := driverIssues(10, 11, 12)

	results := NewDriver(fastConfig(10)).Run(context.Background(), enricher, issues)

	require.Len(t, results, 3)
	assert.True(t, results[1].Defaulted)
	assert.True(t, results[1].Failed)
	assert.Contains(t, results[1].Reason, "panic")
	assert.Equal(t, v1.SentinelUnclear, issues[1].Org)

	// The loop carried on past the panicking record.
	assert.Equal(t, []int{10, 11, 12}, enricher.calls)
}

func TestDriverHandlesEmptyInput(t *testing.T) {
	results := NewDriver(fastConfig(10)).Run(context.Background(), &fakeEnricher{}, nil)
	assert.Empty(t, results)
}
