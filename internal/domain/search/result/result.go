package result

import "strings"

// Result is a single ranked web-search hit.
type Result struct {
	title   string
	snippet string
	link    string
}

// New creates a search result. link may be empty.
func New(title, snippet, link string) Result {
	return Result{title: title, snippet: snippet, link: link}
}

// Title returns the page title.
func (r Result) Title() string { return r.title }

// Snippet returns the search-engine excerpt.
func (r Result) Snippet() string { return r.snippet }

// Link returns the page URL, possibly empty.
func (r Result) Link() string { return r.link }

// Block renders the result as a three-line prompt block.
func (r Result) Block() string {
	return "Title: " + r.title + "\nSnippet: " + r.snippet + "\nLink: " + r.link
}

// JoinBlocks renders results as blocks separated by a blank line.
func JoinBlocks(results []Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = r.Block()
	}
	return strings.Join(blocks, "\n\n")
}
