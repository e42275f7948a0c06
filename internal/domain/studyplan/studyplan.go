// Package studyplan builds study-plan prompts and post-processes the HTML table the model returns.
package studyplan

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	tableOpen  = "<table>"
	tableClose = "</table>"
)

// Columns are the four headers every study plan table carries.
var Columns = []string{"Topic", "Resources", "What You'll Learn", "Hours of Learning"}

const promptTemplate = `
You are an AI-powered study planner. Generate a study plan for the topic: "%[1]s"

CRITICAL REQUIREMENTS:
- Output ONLY a valid HTML <table> element
- Use <tr>, <th>, and <td> elements
- NO markdown formatting, asterisks, or plain text separators
- NO text outside the table tags
- Table must have 4 columns: Topic | Resources | What You'll Learn | Hours of Learning

CONTENT REQUIREMENTS:
- Break "%[1]s" into exactly 4-6 meaningful subtopics
- For each subtopic provide:
  • Topic: Clear subtopic name
  • Resources: Specific books, courses, or websites (real resources)
  • What You'll Learn: 1-2 concise learning outcomes
  • Hours of Learning: Realistic study time (e.g., "3 hrs", "5 hrs")

EXAMPLE FORMAT (DO NOT COPY CONTENT):
<table>
<tr>
<th>Topic</th>
<th>Resources</th>
<th>What You'll Learn</th>
<th>Hours of Learning</th>
</tr>
<tr>
<td>Subtopic 1</td>
<td>Book Name, Online Course</td>
<td>Key skill, Core concept</td>
<td>4 hrs</td>
</tr>
</table>

Generate the study plan for: %[1]s
`

// Prompt returns the instruction sent to the model for a topic.
func Prompt(topic string) string {
	return fmt.Sprintf(promptTemplate, topic)
}

// FallbackTable is served verbatim when the model cannot be reached.
const FallbackTable = `<table>
<tr>
<th>Topic</th>
<th>Resources</th>
<th>What You'll Learn</th>
<th>Hours of Learning</th>
</tr>
<tr>
<td>Foundations</td>
<td>Online tutorials, Documentation</td>
<td>Basic concepts and terminology</td>
<td>3 hrs</td>
</tr>
<tr>
<td>Core Principles</td>
<td>Textbooks, Video courses</td>
<td>Fundamental principles and methods</td>
<td>5 hrs</td>
</tr>
<tr>
<td>Practical Application</td>
<td>Hands-on projects, Exercises</td>
<td>Real-world problem solving</td>
<td>4 hrs</td>
</tr>
<tr>
<td>Advanced Topics</td>
<td>Research papers, Expert blogs</td>
<td>Advanced techniques and best practices</td>
<td>6 hrs</td>
</tr>
</table>`

// ExtractTable trims a model reply down to its first <table>...</table> span.
// ok is false when the reply has no complete table; the trimmed reply is returned as-is then.
func ExtractTable(reply string) (table string, ok bool) {
	reply = strings.TrimSpace(reply)
	start := strings.Index(reply, tableOpen)
	end := strings.Index(reply, tableClose)
	if start < 0 || end < 0 || end < start {
		return reply, false
	}
	return reply[start : end+len(tableClose)], true
}

// Sanitizer strips everything but table markup, links and inline emphasis.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer for model-generated tables.
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td", "strong", "em", "b", "i", "br", "ul", "ol", "li")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Sanitizer{policy: p}
}

// Sanitize cleans a table fragment. Apostrophes are restored after escaping so
// headers such as "What You'll Learn" read the same; attributes are double-quoted.
func (s *Sanitizer) Sanitize(fragment string) string {
	return strings.TrimSpace(strings.ReplaceAll(s.policy.Sanitize(fragment), "&#39;", "'"))
}
