package responses

// Job - result of a sitemap generation run
type Job struct {
	Success bool   `json:"success"`
	Stopped bool   `json:"stopped"`
	RunID   string `json:"runId"`
	// one line per sitemap
	Message string `json:"message"`
	// seconds
	Runtime float64 `json:"runtime"`
}
