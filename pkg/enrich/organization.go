package enrich

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// orgInstructions is the system prompt for organization attribution. Unlike
// labeling this is single-label: at most one organization per issue.
const orgInstructions = "Du bekommst GitLab-Issues aus dem Deutschland-Stack-Konsultationsverfahren. " +
	"Deine Aufgabe ist es, die Issues einer Organisation zuzuordnen, wenn möglich. " +
	"Ordne sie NUR EINER ORGANISATION zu. Erfinde keine neuen Organisationen! " +
	"Stelle das Ergebnis als Text zur Verfügung. " +
	"Wenn keine Organisation erkennbar ist, antworte mit 'Unklar'. " +
	"Beispiel: " +
	"Konsultationsbeitrag der publicplan GmbH zum Deutschland-Stack " +
	"Deine Antwort: publicplan GmbH"

// OrgAttributor attributes each issue to at most one organization. The
// documented default on error, and the model's own answer when no
// organization is identifiable, is the "Unklar" sentinel.
type OrgAttributor struct {
	llm ChatCompleter
}

func NewOrgAttributor(llm ChatCompleter) *OrgAttributor {
	return &OrgAttributor{llm: llm}
}

func (a *OrgAttributor) Name() string {
	return "organization"
}

func (a *OrgAttributor) ApplyDefault(issue *v1.EnrichedIssue) {
	issue.Org = v1.SentinelUnclear
}

func (a *OrgAttributor) Enrich(ctx context.Context, issue *v1.EnrichedIssue) Result {
	prompt := fmt.Sprintf("Titel:\n%s\n\nInhalt:\n%s", issue.Title, issue.DescClean)

	response, err := a.llm.Chat(ctx, orgInstructions, prompt)
	if err != nil {
		log.WithError(err).Errorf("error attributing organization for issue %d", issue.IID)
		a.ApplyDefault(issue)
		return Result{Defaulted: true, Failed: true, Reason: err.Error()}
	}

	org := strings.TrimSpace(response)
	if org == "" {
		a.ApplyDefault(issue)
		return Result{Defaulted: true, Reason: "empty response"}
	}

	issue.Org = org
	return Result{}
}
