package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

// Client fetches issues from a GitLab project over the REST v4 API. It is
// stateless across calls; public projects need no token.
type Client struct {
	baseURL string
	project string
	perPage int
	http    *http.Client
}

func New(baseURL, project string, perPage int, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		project: project,
		perPage: perPage,
		http:    &http.Client{Timeout: timeout},
	}
}

// NewWithToken builds a client that authenticates with a GitLab access token,
// needed when the feedback project is not publicly readable.
func NewWithToken(baseURL, project string, perPage int, timeout time.Duration, accessToken string) *Client {
	client := oauth2.NewClient(context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	client.Timeout = timeout
	return &Client{
		baseURL: baseURL,
		project: project,
		perPage: perPage,
		http:    client,
	}
}

// FetchAllIssues returns every issue in the project ordered by created_at
// ascending. The fetch is atomic from the caller's perspective: any page
// failure aborts the whole fetch, and no partial result is returned. There is
// no retry at this layer; re-running the pipeline is the retry mechanism.
func (c *Client) FetchAllIssues(ctx context.Context) ([]v1.RawIssue, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/issues", c.baseURL, url.PathEscape(c.project))

	var issues []v1.RawIssue
	for page := 1; ; page++ {
		batch, err := c.fetchPage(ctx, endpoint, page)
		if err != nil {
			return nil, errors.Wrapf(err, "error fetching issues page %d", page)
		}
		if len(batch) == 0 {
			break
		}
		issues = append(issues, batch...)
		log.Debugf("fetched page %d with %d issues", page, len(batch))
	}

	log.Infof("fetched %d issues from %s", len(issues), c.project)
	return issues, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint string, page int) ([]v1.RawIssue, error) {
	q := url.Values{}
	q.Set("state", "all")
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("order_by", "created_at")
	q.Set("sort", "asc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gitlab api returned status %d", resp.StatusCode)
	}

	var batch []v1.RawIssue
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, errors.Wrap(err, "error decoding issues page")
	}
	return batch, nil
}
