package casebud

// SourceWebSearch is the Answer.Source of web-search answers.
const SourceWebSearch = "web_search"

// Answer is the assistant's reply to one query.
type Answer struct {
	Query    string  `json:"query"`
	Response string  `json:"response"`
	Source   string  `json:"source"`
	IsDocGen *string `json:"is_doc_gen,omitempty"`
}

// WantsDocument reports whether the classifier judged the query to be a
// document-drafting request.
func (a Answer) WantsDocument() bool {
	return a.IsDocGen != nil && *a.IsDocGen == "true"
}

// HealthStatus represents the aggregated readiness of the service.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

// OK reports whether every component passed.
func (h HealthStatus) OK() bool { return h.Status == "ok" }

type askRequest struct {
	Query     string `json:"query"`
	WebSearch bool   `json:"web_search"`
	DeepThink bool   `json:"deep_think"`
}

type errorEnvelope struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}
