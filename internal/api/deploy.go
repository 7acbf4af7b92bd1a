package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"site-deployer/internal/codegen"
	"site-deployer/internal/github"
	"site-deployer/internal/metrics"
	"site-deployer/pkg/api"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SitePublisher interface {
	Publish(ctx context.Context, task, html string) (github.Site, error)
	WaitForCommit(ctx context.Context, site github.Site) (string, error)
}

type EvaluationNotifier interface {
	Notify(ctx context.Context, url string, payload api.EvaluationPayload) bool
}

type DeployService struct {
	secret    string
	generator codegen.Generator
	publisher SitePublisher
	notifier  EvaluationNotifier
}

func NewDeployService(secret string, generator codegen.Generator, publisher SitePublisher, notifier EvaluationNotifier) *DeployService {
	return &DeployService{
		secret:    secret,
		generator: generator,
		publisher: publisher,
		notifier:  notifier,
	}
}

func (s *DeployService) AddRoutes(r chi.Router) {
	r.Get("/", RestHandler(s.Home))
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Post("/deploy", RestHandler(s.Deploy))
}

func (s *DeployService) Home(r *http.Request) (any, error) {
	return api.StatusResponse{Status: "API is running", Endpoint: "/deploy"}, nil
}

func missingFields(req api.DeployRequest) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		unset bool
	}{
		{"email", req.Email == ""},
		{"task", req.Task == ""},
		{"nonce", req.Nonce == ""},
		{"brief", req.Brief == ""},
		{"checks", req.Checks == nil},
		{"evaluation_url", req.EvaluationURL == ""},
	} {
		if f.unset {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func (s *DeployService) Deploy(r *http.Request) (any, error) {
	body, err := ParseRequest[json.RawMessage](r)
	if err != nil {
		metrics.IncDeploy("invalid")
		return nil, err
	}

	// The secret is checked before the rest of the body is decoded so that
	// unauthenticated callers never see field level errors.
	var gate struct {
		Secret any `json:"secret"`
	}
	err = json.Unmarshal(body, &gate)
	if secret, ok := gate.Secret.(string); err != nil || !ok || secret != s.secret {
		metrics.IncDeploy("forbidden")
		return nil, CodedErrorf(http.StatusForbidden, "Invalid secret")
	}

	var req api.DeployRequest
	if err := json.Unmarshal(body, &req); err != nil {
		metrics.IncDeploy("invalid")
		slog.Error("error parsing deploy request", "error", err)
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse request body")
	}

	if missing := missingFields(req); len(missing) > 0 {
		metrics.IncDeploy("invalid")
		return nil, CodedErrorf(http.StatusBadRequest, "missing required fields: %s", strings.Join(missing, ", "))
	}

	// Once started a deploy runs to completion even if the caller goes away.
	ctx := context.WithoutCancel(r.Context())
	deployId := uuid.New()
	log := slog.With("deploy_id", deployId, "task", req.Task, "round", req.Round)

	log.Info("processing deploy request", "checks", len(req.Checks), "evaluation_url", req.EvaluationURL)

	start := time.Now()
	html, err := s.generator.Generate(ctx, req.Brief, req.Checks)
	metrics.ObserveStage("generate", time.Since(start))
	if err != nil {
		metrics.IncDeploy("failed")
		log.Error("error generating page", "error", err)
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	start = time.Now()
	site, err := s.publisher.Publish(ctx, req.Task, html)
	metrics.ObserveStage("publish", time.Since(start))
	if err != nil {
		metrics.IncDeploy("failed")
		log.Error("error publishing site", "error", err)
		return nil, CodedError(http.StatusInternalServerError, err)
	}
	if !site.PagesEnabled {
		log.Warn("pages hosting is not enabled for repository", "repo", site.FullName)
	}

	start = time.Now()
	commitSha, err := s.publisher.WaitForCommit(ctx, site)
	metrics.ObserveStage("wait_for_commit", time.Since(start))
	if err != nil {
		metrics.IncDeploy("failed")
		log.Error("error reading latest commit", "repo", site.FullName, "error", err)
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	pagesUrl := site.PagesURL()

	start = time.Now()
	notified := s.notifier.Notify(ctx, req.EvaluationURL, api.EvaluationPayload{
		Email:     req.Email,
		Task:      req.Task,
		Round:     req.Round,
		Nonce:     req.Nonce,
		RepoURL:   site.HTMLURL,
		CommitSHA: commitSha,
		PagesURL:  pagesUrl,
	})
	metrics.ObserveStage("notify", time.Since(start))
	if !notified {
		log.Warn("evaluation callback was not delivered", "evaluation_url", req.EvaluationURL)
	}

	metrics.IncDeploy("success")
	log.Info("deploy complete", "repo", site.HTMLURL, "commit_sha", commitSha, "pages_url", pagesUrl, "pages_enabled", site.PagesEnabled, "evaluation_notified", notified)

	return api.DeployResponse{
		Status:             "success",
		Repo:               site.HTMLURL,
		PagesURL:           pagesUrl,
		CommitSHA:          commitSha,
		PagesEnabled:       site.PagesEnabled,
		EvaluationNotified: notified,
	}, nil
}
