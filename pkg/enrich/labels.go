package enrich

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// labelingInstructions is the system prompt for multi-label classification.
// The model is told to only use the provided vocabulary; ValidateLabels
// enforces that regardless of what comes back.
const labelingInstructions = "Du bekommst GitLab-Issues aus dem Deutschland-Stack-Konsultationsverfahren. " +
	"Du bist ein Klassifizierungs-Experte. Deine Aufgabe ist es, die Beschreibung zu analysieren " +
	"und sie anhand der Labels in der Liste zu klassifizieren. " +
	"Nutze NUR die zur Verfügung gestellten Labels. Erfinde keine neuen Labels! " +
	"Stelle das Ergebnis als Komma-separierten String zur Verfügung. " +
	"Der String enthält NUR die von dir vergebenen Labels (eins oder bis zu 5). " +
	"Versuche nur so viele Labels wie nötig zu vergeben. " +
	"Wenn kein Label passt, nutze das Label Unklar"

// LabelClassifier assigns up to five topic labels from the configured
// vocabulary to each issue. The documented default on error is an empty label
// list; the postprocessor later backfills "Unklar".
type LabelClassifier struct {
	llm        ChatCompleter
	vocabulary []string
}

func NewLabelClassifier(llm ChatCompleter, vocabulary []string) *LabelClassifier {
	return &LabelClassifier{llm: llm, vocabulary: vocabulary}
}

func (c *LabelClassifier) Name() string {
	return "labels"
}

func (c *LabelClassifier) ApplyDefault(issue *v1.EnrichedIssue) {
	issue.Labels = []string{}
}

func (c *LabelClassifier) Enrich(ctx context.Context, issue *v1.EnrichedIssue) Result {
	prompt := fmt.Sprintf("Labels:\n%s\n\nIssue:\n%s", strings.Join(c.vocabulary, ", "), issue.DescClean)

	response, err := c.llm.Chat(ctx, labelingInstructions, prompt)
	if err != nil {
		log.WithError(err).Errorf("error classifying issue %d", issue.IID)
		c.ApplyDefault(issue)
		return Result{Defaulted: true, Failed: true, Reason: err.Error()}
	}

	issue.Labels = ValidateLabels(response, c.vocabulary)
	return Result{}
}

// ValidateLabels parses a comma-delimited model response and intersects it
// with the allowed vocabulary, preserving response order. Hallucinated labels
// are silently dropped: this is the guard that keeps the dataset's label set
// closed under model drift.
func ValidateLabels(response string, allowed []string) []string {
	allowedSet := make(map[string]bool, len(allowed))
	for _, label := range allowed {
		allowedSet[label] = true
	}

	validated := []string{}
	for _, label := range strings.Split(response, ",") {
		label = strings.TrimSpace(label)
		if allowedSet[label] {
			validated = append(validated, label)
		}
	}
	return validated
}
