package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// SentimentClient scores document sentiment via the Cloud Natural Language
// REST endpoint. Scores are in [-1.0, 1.0]; the documented default on error
// or empty input is 0.0.
type SentimentClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewSentimentClient(endpoint, apiKey string) *SentimentClient {
	return &SentimentClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{},
	}
}

func (c *SentimentClient) Name() string {
	return "sentiment"
}

func (c *SentimentClient) ApplyDefault(issue *v1.EnrichedIssue) {
	issue.Sentiment = 0.0
}

func (c *SentimentClient) Enrich(ctx context.Context, issue *v1.EnrichedIssue) Result {
	if strings.TrimSpace(issue.DescClean) == "" {
		c.ApplyDefault(issue)
		return Result{Defaulted: true, Reason: "empty input"}
	}

	score, err := c.score(ctx, issue.DescClean)
	if err != nil {
		log.WithError(err).Warningf("error analyzing sentiment for issue %d", issue.IID)
		c.ApplyDefault(issue)
		return Result{Defaulted: true, Failed: true, Reason: err.Error()}
	}

	issue.Sentiment = score
	return Result{}
}

type sentimentRequest struct {
	Document sentimentDocument `json:"document"`
}

type sentimentDocument struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type sentimentResponse struct {
	DocumentSentiment struct {
		Score float64 `json:"score"`
	} `json:"documentSentiment"`
}

func (c *SentimentClient) score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(sentimentRequest{
		Document: sentimentDocument{Type: "PLAIN_TEXT", Content: text},
	})
	if err != nil {
		return 0, err
	}

	endpoint := c.endpoint
	if c.apiKey != "" {
		endpoint += "?key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sentiment api returned status %d", resp.StatusCode)
	}

	var out sentimentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.DocumentSentiment.Score, nil
}
