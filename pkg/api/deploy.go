package api

type DeployRequest struct {
	Secret        string   `json:"secret"`
	Email         string   `json:"email"`
	Task          string   `json:"task"`
	Round         int      `json:"round"`
	Nonce         string   `json:"nonce"`
	Brief         string   `json:"brief"`
	Checks        []string `json:"checks"`
	EvaluationURL string   `json:"evaluation_url"`
}

type DeployResponse struct {
	Status string `json:"status"`
	Repo   string `json:"repo"`

	PagesURL  string `json:"pages_url,omitempty"`
	CommitSHA string `json:"commit_sha,omitempty"`

	// Set to false when the corresponding step failed without aborting the deploy.
	PagesEnabled       bool `json:"pages_enabled"`
	EvaluationNotified bool `json:"evaluation_notified"`
}

type StatusResponse struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// EvaluationPayload is posted to the caller supplied evaluation_url once the
// site has been published.
type EvaluationPayload struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}
