package flags

import (
	"os"
	"time"

	"github.com/spf13/pflag"

	configv1 "github.com/dstack/feedback-pipeline/pkg/apis/config/v1"
	"github.com/dstack/feedback-pipeline/pkg/gitlab"
)

// GitLabFlags allow overriding the issue source from the command line; unset
// flags defer to the pipeline configuration.
type GitLabFlags struct {
	BaseURL     string
	Project     string
	AccessToken string
}

func NewGitLabFlags() *GitLabFlags {
	return &GitLabFlags{
		AccessToken: os.Getenv("GITLAB_TOKEN"),
	}
}

func (f *GitLabFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.BaseURL, "gitlab-url", f.BaseURL,
		"GitLab instance to fetch issues from (defaults to the configured instance)")
	fs.StringVar(&f.Project, "gitlab-project", f.Project,
		"namespace/project path of the feedback project (defaults to the configured project)")
	fs.StringVar(&f.AccessToken, "gitlab-token", f.AccessToken,
		"access token for non-public projects (defaults to the GITLAB_TOKEN environment variable)")
}

// GetClient builds the fetcher, applying any command-line overrides on top of
// the configured fetch settings.
func (f *GitLabFlags) GetClient(config configv1.FetchConfig) *gitlab.Client {
	baseURL := config.BaseURL
	if f.BaseURL != "" {
		baseURL = f.BaseURL
	}
	project := config.Project
	if f.Project != "" {
		project = f.Project
	}
	timeout := time.Duration(config.RequestTimeout)
	if f.AccessToken != "" {
		return gitlab.NewWithToken(baseURL, project, config.PerPage, timeout, f.AccessToken)
	}
	return gitlab.New(baseURL, project, config.PerPage, timeout)
}
