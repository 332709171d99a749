// Package codehost defines the external collaborator interface for
// third-party code-host integration (pull requests, issues). No concrete
// implementation ships in the core — wiring an API client is deployment-
// specific and out of scope; pkg/sandbox degrades to a no-op signal when
// no Client is configured.
package codehost

import "context"

// Client is the code-host operations the Sandbox Manager's pr merge
// policy needs.
type Client interface {
	// OpenPullRequest opens a PR merging branch into repo's default branch
	// and returns its URL.
	OpenPullRequest(ctx context.Context, owner, repo, branch, title, body string) (url string, err error)

	// ListIssues returns open issue titles for repo, used by future CLI
	// surfaces; unused by the core merge-back path.
	ListIssues(ctx context.Context, owner, repo string) ([]string, error)
}
