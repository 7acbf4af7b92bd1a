package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"site-deployer/internal/metrics"
	"time"
)

type Site struct {
	Repository

	// Sha of the last commit made while publishing.
	LastCommitSHA string
	PagesEnabled  bool
}

func (s Site) PagesURL() string {
	return PagesURL(s.Owner.Login, s.Name)
}

func PagesURL(owner, repo string) string {
	return fmt.Sprintf("https://%s.github.io/%s/", owner, repo)
}

type PollConfig struct {
	Interval time.Duration
	Attempts int
}

type Publisher struct {
	client *Client
	prefix string
	branch string
	poll   PollConfig
}

func NewPublisher(client *Client, prefix, branch string, poll PollConfig) *Publisher {
	if poll.Attempts < 1 {
		poll.Attempts = 1
	}
	return &Publisher{client: client, prefix: prefix, branch: branch, poll: poll}
}

func (p *Publisher) RepoName(task string) string {
	return p.prefix + "-" + task
}

// Publish creates the repository for task, commits the page, license and
// readme, and enables GitHub Pages. Failures after the repository is created
// leave it partially populated. A failure to enable pages is not an error;
// it is reported through Site.PagesEnabled.
func (p *Publisher) Publish(ctx context.Context, task, html string) (Site, error) {
	name := p.RepoName(task)

	repo, err := p.client.CreateRepository(ctx, name)
	if err != nil {
		return Site{}, err
	}
	owner := repo.Owner.Login
	slog.Info("created repository", "repo", repo.FullName, "url", repo.HTMLURL)

	readme, err := Readme(repo.Name)
	if err != nil {
		return Site{}, fmt.Errorf("error rendering readme: %w", err)
	}

	files := []struct {
		path    string
		message string
		content string
	}{
		{path: "index.html", message: "Initial commit", content: html},
		{path: "LICENSE", message: "Add MIT license", content: License()},
		{path: "README.md", message: "Add README", content: readme},
	}

	site := Site{Repository: repo}
	for _, file := range files {
		sha, err := p.client.PutFile(ctx, owner, repo.Name, file.path, file.message, p.branch, []byte(file.content))
		if err != nil {
			slog.Error("error committing file, repository left partially populated", "repo", repo.FullName, "path", file.path, "error", err)
			return Site{}, err
		}
		site.LastCommitSHA = sha
	}

	site.PagesEnabled = p.enablePages(ctx, owner, repo.Name)

	return site, nil
}

func (p *Publisher) enablePages(ctx context.Context, owner, repo string) bool {
	err := p.client.EnablePages(ctx, owner, repo, p.branch, "/")
	if err == nil {
		metrics.IncPagesEnable("enabled")
		return true
	}
	slog.Warn("error enabling pages, falling back to has_pages flag", "owner", owner, "repo", repo, "error", err)

	if err := p.client.SetHasPages(ctx, owner, repo); err != nil {
		metrics.IncPagesEnable("failed")
		slog.Error("pages could not be enabled", "owner", owner, "repo", repo, "error", err)
		return false
	}

	metrics.IncPagesEnable("fallback")
	return true
}

// WaitForCommit polls the branch head until the last commit made by Publish
// is visible, for at most the configured number of attempts. If it never
// shows up the most recent head seen is returned instead, or failing that the
// sha recorded while publishing.
func (p *Publisher) WaitForCommit(ctx context.Context, site Site) (string, error) {
	var head string
	for attempt := 1; attempt <= p.poll.Attempts; attempt++ {
		sha, err := p.client.LatestCommit(ctx, site.Owner.Login, site.Name, p.branch)
		switch {
		case err == nil && (site.LastCommitSHA == "" || sha == site.LastCommitSHA):
			return sha, nil
		case err == nil:
			head = sha
			slog.Debug("latest commit not visible yet", "repo", site.FullName, "head", sha, "want", site.LastCommitSHA, "attempt", attempt)
		case errors.Is(err, ErrNoCommits):
			slog.Debug("repository has no visible commits yet", "repo", site.FullName, "attempt", attempt)
		default:
			slog.Warn("error reading latest commit", "repo", site.FullName, "attempt", attempt, "error", err)
		}

		if attempt < p.poll.Attempts {
			if err := sleep(ctx, p.poll.Interval); err != nil {
				return "", err
			}
		}
	}

	if head != "" {
		slog.Warn("latest commit never matched, using last head seen", "repo", site.FullName, "head", head)
		return head, nil
	}
	if site.LastCommitSHA != "" {
		slog.Warn("no commits visible, using sha recorded while publishing", "repo", site.FullName, "sha", site.LastCommitSHA)
		return site.LastCommitSHA, nil
	}
	return "", fmt.Errorf("latest commit of %s not visible after %d attempts: %w", site.FullName, p.poll.Attempts, ErrNoCommits)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
