package gitlab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/dstack/feedback-pipeline/pkg/apis/feedback/v1"
)

func TestFetchAllIssuesPaginates(t *testing.T) {
	pages := map[string][]v1.RawIssue{
		"1": {{IID: 1, Title: "erste"}, {IID: 2, Title: "zweite"}},
		"2": {{IID: 3, Title: "dritte"}},
		"3": {},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/projects/dstack%2Fd-stack-home/issues", r.URL.EscapedPath())
		q := r.URL.Query()
		assert.Equal(t, "all", q.Get("state"))
		assert.Equal(t, "2", q.Get("per_page"))
		assert.Equal(t, "created_at", q.Get("order_by"))
		assert.Equal(t, "asc", q.Get("sort"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(pages[q.Get("page")]))
	}))
	defer server.Close()

	client := New(server.URL, "dstack/d-stack-home", 2, 5*time.Second)
	issues, err := client.FetchAllIssues(context.Background())
	require.NoError(t, err)

	require.Len(t, issues, 3)
	assert.Equal(t, 1, issues[0].IID)
	assert.Equal(t, 3, issues[2].IID)
}

func TestFetchAllIssuesFailsOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, "dstack/d-stack-home", 100, 5*time.Second)
	issues, err := client.FetchAllIssues(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Nil(t, issues, "no partial results on failure")
}
