package result

// Result is a single web search hit.
type Result struct {
	title   string
	url     string
	snippet string
}

// New creates a search result.
func New(title, url, snippet string) Result {
	return Result{title: title, url: url, snippet: snippet}
}

// Title returns the page title.
func (r *Result) Title() string { return r.title }

// URL returns the page address.
func (r *Result) URL() string { return r.url }

// Snippet returns the text excerpt shown under the title.
func (r *Result) Snippet() string { return r.snippet }

// Valid reports whether the hit has both a title and an address.
func (r *Result) Valid() bool { return r.title != "" && r.url != "" }
