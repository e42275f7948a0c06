// Package intent classifies a user message into a study-plan request or plain chat.
package intent

import "strings"

// Kind is the classified purpose of a message.
type Kind string

const (
	// StudyPlan asks for a study plan table.
	StudyPlan Kind = "study_plan"
	// Chat is a plain conversational message.
	Chat Kind = "chat"
)

// keywords select the study-plan intent (substring match on the lowercased message).
var keywords = []string{"study plan", "plan for", "learn", "study"}

// leadIns are checked in order; the topic is whatever follows the first match.
var leadIns = []string{
	"study plan for ",
	"plan for ",
	"learn ",
	"study ",
	"create a plan for ",
	"i want to learn ",
	"help me with ",
}

// trailers are stripped from the end of an extracted topic.
var trailers = []string{"please", "?"}

// Intent is the result of classifying a message.
type Intent struct {
	kind  Kind
	topic string
}

// Kind returns the classified intent.
func (i Intent) Kind() Kind { return i.kind }

// Topic returns the extracted study topic. Empty for Chat.
func (i Intent) Topic() string { return i.topic }

// Classify inspects a trimmed, non-empty message.
func Classify(message string) Intent {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return Intent{kind: StudyPlan, topic: ExtractTopic(lower)}
		}
	}
	return Intent{kind: Chat}
}

// ExtractTopic pulls the study topic out of a message.
// Falls back to the whole lowercased message when no lead-in phrase matches.
func ExtractTopic(message string) string {
	lower := strings.TrimSpace(strings.ToLower(message))
	for _, p := range leadIns {
		if _, after, ok := strings.Cut(lower, p); ok {
			return stripTrailers(after)
		}
	}
	return lower
}

func stripTrailers(s string) string {
	s = strings.TrimSpace(s)
	for {
		trimmed := s
		for _, t := range trailers {
			trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, t))
		}
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}
