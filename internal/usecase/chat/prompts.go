package chat

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/studyplan/internal/domain/search/result"
)

// User-facing replies served instead of a model answer.
const (
	NoSearchResultsReply = "I could not retrieve web results right now. Please try again."
	UnavailableReply     = "I'm sorry, I'm having trouble connecting right now. Please try again later."
	ErrorReply           = "I'm sorry, I encountered an error processing your request. Please try again."
)

const persona = "You are a friendly study planner AI assistant. " +
	"Explain things in a structured but simple way, using headings, bullet points, and short paragraphs. " +
	"Avoid long blocks of text. Use emojis occasionally to keep it engaging for students. " +
	"If someone asks about creating a study plan, suggest they specify the topic they want to learn."

const researcher = "You are an AI research assistant. Use the provided web search results to answer the user query. " +
	"Synthesize concisely, cite sources inline like [1], [2] where relevant, and include a brief summary."

// chatPrompt prefixes the user's text with the assistant persona.
func chatPrompt(text string) string {
	return persona + "\nUser: " + text
}

// searchPrompt asks the model to answer query from the numbered references.
func searchPrompt(query string, results []result.Result) string {
	return "\n" + researcher + "\n\nQuery: " + query + "\n\nSearch Results:\n" + references(results) + "\n"
}

// refFormat renders one numbered reference with its snippet on the next line.
const refFormat = "[%d] %s \u2014 %s\n%s"

// references joins the numbered results with blank lines.
func references(results []result.Result) string {
	refs := make([]string, len(results))
	for i := range results {
		r := &results[i]
		refs[i] = fmt.Sprintf(refFormat, i+1, r.Title(), r.URL(), r.Snippet())
	}
	return strings.Join(refs, "\n\n")
}

// searchQuery reports whether text asks for a web search and returns the query.
// "search: q" and "/search q" (any case) trigger; a blank query does not.
func searchQuery(text string) (string, bool) {
	t := strings.TrimSpace(text)
	lower := strings.ToLower(t)

	var q string
	switch {
	case strings.HasPrefix(lower, "search:"):
		q = t[strings.Index(t, ":")+1:]
	case strings.HasPrefix(lower, "/search "):
		q = t[strings.Index(t, " ")+1:]
	default:
		return "", false
	}
	q = strings.TrimSpace(q)
	return q, q != ""
}
