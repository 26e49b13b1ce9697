package answer

// SourceWebSearch labels answers produced by the search branch.
const SourceWebSearch = "web_search"

// Answer is the assembled response for one query.
type Answer struct {
	query    string
	response string
	source   string
	isDocGen *string
}

// FromSearch builds an answer for the web-search branch. It never carries a
// document flag.
func FromSearch(query, response string) Answer {
	return Answer{query: query, response: response, source: SourceWebSearch}
}

// FromModel builds an answer for the direct branch.
func FromModel(query, response, source, isDocGen string) Answer {
	return Answer{query: query, response: response, source: source, isDocGen: &isDocGen}
}

// Query returns the echoed query text.
func (a Answer) Query() string { return a.query }

// Response returns the generated text.
func (a Answer) Response() string { return a.response }

// Source returns the label of the path that produced the answer.
func (a Answer) Source() string { return a.source }

// IsDocGen returns the classifier token and whether it is present.
func (a Answer) IsDocGen() (string, bool) {
	if a.isDocGen == nil {
		return "", false
	}
	return *a.isDocGen, true
}
