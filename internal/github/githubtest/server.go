// Package githubtest provides an in-memory fake of the GitHub REST endpoints
// used to publish a site.
package githubtest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

type Options struct {
	Owner string
	// Token, when set, must be presented as a bearer token.
	Token string

	FailPages    bool
	FailHasPages bool
	// FailPutPath makes committing the file at this path fail.
	FailPutPath string
	// HiddenCommitReads is the number of commit listings answered as if the
	// repository were still empty.
	HiddenCommitReads int
}

type Repo struct {
	Name        string
	Files       map[string][]byte
	Commits     []string
	PagesSource map[string]string
	HasPages    bool
}

type Server struct {
	*httptest.Server

	opts Options

	mu          sync.Mutex
	repos       map[string]*Repo
	requests    []string
	commitReads int
	nextSHA     int
}

func NewServer(t testing.TB, opts Options) *Server {
	if opts.Owner == "" {
		opts.Owner = "octocat"
	}

	s := &Server{opts: opts, repos: make(map[string]*Repo)}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/user/repos", s.createRepo)
	r.Route("/repos/{owner}/{repo}", func(r chi.Router) {
		r.Patch("/", s.editRepo)
		r.Put("/contents/*", s.putFile)
		r.Post("/pages", s.enablePages)
		r.Get("/commits", s.listCommits)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddRepo registers an existing repository so that creating it again conflicts.
func (s *Server) AddRepo(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[name] = &Repo{Name: name, Files: make(map[string][]byte)}
}

func (s *Server) Repo(name string) (Repo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	repo, ok := s.repos[name]
	if !ok {
		return Repo{}, false
	}
	files := make(map[string][]byte, len(repo.Files))
	for k, v := range repo.Files {
		files[k] = v
	}
	cp := *repo
	cp.Files = files
	cp.Commits = append([]string(nil), repo.Commits...)
	return cp, true
}

func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) HTMLURL(repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s", s.opts.Owner, repo)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.opts.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) repoJSON(repo *Repo) map[string]any {
	return map[string]any{
		"name":           repo.Name,
		"full_name":      s.opts.Owner + "/" + repo.Name,
		"html_url":       s.HTMLURL(repo.Name),
		"default_branch": "main",
		"owner":          map[string]string{"login": s.opts.Owner},
	}
}

// lookup must be called with s.mu held.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Repo, bool) {
	if chi.URLParam(r, "owner") != s.opts.Owner {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return nil, false
	}
	repo, ok := s.repos[chi.URLParam(r, "repo")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return nil, false
	}
	return repo, true
}

func (s *Server) createRepo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Private bool   `json:"private"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}

	if strings.ContainsAny(req.Name, " /\\") {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "Repository creation failed.",
			"errors":  []map[string]string{{"resource": "Repository", "field": "name", "message": "name is invalid"}},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.repos[req.Name]; exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "Repository creation failed.",
			"errors":  []map[string]string{{"resource": "Repository", "field": "name", "message": "name already exists on this account"}},
		})
		return
	}

	repo := &Repo{Name: req.Name, Files: make(map[string][]byte)}
	s.repos[req.Name] = repo
	writeJSON(w, http.StatusCreated, s.repoJSON(repo))
}

func (s *Server) putFile(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	var req struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "content is not valid Base64"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	repo, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if path == s.opts.FailPutPath {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server Error"})
		return
	}
	if _, exists := repo.Files[path]; exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": `Invalid request. "sha" wasn't supplied.`})
		return
	}

	s.nextSHA++
	sha := fmt.Sprintf("%040x", s.nextSHA)
	repo.Files[path] = content
	repo.Commits = append(repo.Commits, sha)

	writeJSON(w, http.StatusCreated, map[string]any{
		"content": map[string]string{"path": path},
		"commit":  map[string]string{"sha": sha, "message": req.Message},
	})
}

func (s *Server) enablePages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source map[string]string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	repo, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if s.opts.FailPages || repo.PagesSource != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "GitHub Pages is already enabled."})
		return
	}
	repo.PagesSource = req.Source
	repo.HasPages = true
	writeJSON(w, http.StatusCreated, map[string]any{
		"url":      fmt.Sprintf("https://%s.github.io/%s/", s.opts.Owner, repo.Name),
		"source":   req.Source,
		"html_url": fmt.Sprintf("https://%s.github.io/%s/", s.opts.Owner, repo.Name),
	})
}

func (s *Server) editRepo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HasPages *bool `json:"has_pages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	repo, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if s.opts.FailHasPages {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Validation Failed"})
		return
	}
	if req.HasPages != nil {
		repo.HasPages = *req.HasPages
	}
	writeJSON(w, http.StatusOK, s.repoJSON(repo))
}

func (s *Server) listCommits(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.commitReads++
	if len(repo.Commits) == 0 || s.commitReads <= s.opts.HiddenCommitReads {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Git Repository is empty."})
		return
	}

	commits := make([]map[string]string, 0, len(repo.Commits))
	for i := len(repo.Commits) - 1; i >= 0; i-- {
		commits = append(commits, map[string]string{"sha": repo.Commits[i]})
	}
	writeJSON(w, http.StatusOK, commits)
}
