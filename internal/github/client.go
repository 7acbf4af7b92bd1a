package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

var (
	ErrRepositoryExists = errors.New("repository already exists")
	ErrNoCommits        = errors.New("repository has no commits")
)

type Owner struct {
	Login string `json:"login"`
}

type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Owner         Owner  `json:"owner"`
}

type Commit struct {
	SHA string `json:"sha"`
}

type contentResponse struct {
	Commit Commit `json:"commit"`
}

type apiError struct {
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *apiError) mentions(text string) bool {
	if strings.Contains(e.Message, text) {
		return true
	}
	for _, detail := range e.Errors {
		if strings.Contains(detail.Message, text) {
			return true
		}
	}
	return false
}

// Client is a minimal GitHub REST client covering what publishing a static
// site needs.
type Client struct {
	client *resty.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(token).
			SetHeader("Accept", "application/vnd.github+json").
			SetHeader("X-GitHub-Api-Version", "2022-11-28"),
	}
}

func responseError(op string, res *resty.Response) error {
	return fmt.Errorf("github %s failed: status %d: %s", op, res.StatusCode(), res.String())
}

func (c *Client) CreateRepository(ctx context.Context, name string) (Repository, error) {
	var repo Repository
	var apiErr apiError
	res, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"name":      name,
			"private":   false,
			"auto_init": false,
		}).
		SetResult(&repo).
		SetError(&apiErr).
		Post("/user/repos")
	if err != nil {
		return Repository{}, fmt.Errorf("github create repository request failed: %w", err)
	}

	if res.StatusCode() == http.StatusUnprocessableEntity && apiErr.mentions("already exists") {
		slog.Error("github rejected repository creation, name taken", "repo", name)
		return Repository{}, fmt.Errorf("%w: %s", ErrRepositoryExists, name)
	}
	if !res.IsSuccess() {
		return Repository{}, responseError("create repository", res)
	}

	return repo, nil
}

// PutFile creates a file on branch and returns the sha of the commit it made.
func (c *Client) PutFile(ctx context.Context, owner, repo, path, message, branch string, content []byte) (string, error) {
	var result contentResponse
	res, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"owner": owner, "repo": repo}).
		SetPathParam("path", path).
		SetBody(map[string]any{
			"message": message,
			"content": base64.StdEncoding.EncodeToString(content),
			"branch":  branch,
		}).
		SetResult(&result).
		Put("/repos/{owner}/{repo}/contents/{path}")
	if err != nil {
		return "", fmt.Errorf("github put file %s request failed: %w", path, err)
	}
	if !res.IsSuccess() {
		return "", responseError("put file "+path, res)
	}

	return result.Commit.SHA, nil
}

func (c *Client) EnablePages(ctx context.Context, owner, repo, branch, path string) error {
	res, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"owner": owner, "repo": repo}).
		SetBody(map[string]any{
			"source": map[string]string{"branch": branch, "path": path},
		}).
		Post("/repos/{owner}/{repo}/pages")
	if err != nil {
		return fmt.Errorf("github enable pages request failed: %w", err)
	}
	if !res.IsSuccess() {
		return responseError("enable pages", res)
	}
	return nil
}

// SetHasPages flips the repository level has_pages flag. Used when the pages
// API itself rejects the request.
func (c *Client) SetHasPages(ctx context.Context, owner, repo string) error {
	res, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"owner": owner, "repo": repo}).
		SetBody(map[string]any{"has_pages": true}).
		Patch("/repos/{owner}/{repo}")
	if err != nil {
		return fmt.Errorf("github edit repository request failed: %w", err)
	}
	if !res.IsSuccess() {
		return responseError("edit repository", res)
	}
	return nil
}

// LatestCommit returns the head commit of branch. Empty repositories report
// ErrNoCommits.
func (c *Client) LatestCommit(ctx context.Context, owner, repo, branch string) (string, error) {
	var commits []Commit
	res, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"owner": owner, "repo": repo}).
		SetQueryParams(map[string]string{"sha": branch, "per_page": "1"}).
		SetResult(&commits).
		Get("/repos/{owner}/{repo}/commits")
	if err != nil {
		return "", fmt.Errorf("github list commits request failed: %w", err)
	}

	switch {
	case res.StatusCode() == http.StatusConflict, res.StatusCode() == http.StatusNotFound:
		return "", ErrNoCommits
	case !res.IsSuccess():
		return "", responseError("list commits", res)
	case len(commits) == 0:
		return "", ErrNoCommits
	}

	return commits[0].SHA, nil
}
