// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package buildstatus

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/go-github/v66/github"

	"gitforum/internal/apperr"
)

// GitHub reads workflow runs through the Actions API.
type GitHub struct {
	client  *github.Client
	owner   string
	repo    string
	timeout time.Duration
}

// NewGitHub returns a checker for owner/repo. A zero timeout means 10s.
func NewGitHub(client *github.Client, owner, repo string, timeout time.Duration) *GitHub {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GitHub{client: client, owner: owner, repo: repo, timeout: timeout}
}

func fromRun(run *github.WorkflowRun) Status {
	return Status{
		RunID:      run.GetID(),
		Status:     run.GetStatus(),
		Conclusion: run.GetConclusion(),
		CreatedAt:  run.GetCreatedAt().Time,
		URL:        run.GetHTMLURL(),
		Found:      true,
	}
}

// ForCommit implements Checker.
func (g *GitHub) ForCommit(ctx context.Context, sha string) (Status, error) {
	const op = "buildstatus.ForCommit"
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	runs, _, err := g.client.Actions.ListRepositoryWorkflowRuns(ctx, g.owner, g.repo, &github.ListWorkflowRunsOptions{
		HeadSHA:     sha,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return Status{}, apperr.Wrap(apperr.KindRemoteUnavailable, op, "", err)
	}
	if len(runs.WorkflowRuns) == 0 {
		return Status{}, nil
	}
	return fromRun(runs.WorkflowRuns[0]), nil
}

// ForRun implements Checker.
func (g *GitHub) ForRun(ctx context.Context, runID int64) (Status, error) {
	const op = "buildstatus.ForRun"
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	run, _, err := g.client.Actions.GetWorkflowRunByID(ctx, g.owner, g.repo, runID)
	if err != nil {
		var ge *github.ErrorResponse
		if errors.As(err, &ge) && ge.Response != nil && ge.Response.StatusCode == http.StatusNotFound {
			return Status{}, nil
		}
		return Status{}, apperr.Wrap(apperr.KindRemoteUnavailable, op, "", err)
	}
	return fromRun(run), nil
}
