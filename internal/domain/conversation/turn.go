package conversation

import "fmt"

// Role identifies who produced a turn.
type Role string

const (
	// RoleUser is a turn sent to the model.
	RoleUser Role = "user"
	// RoleModel is a turn produced by the model.
	RoleModel Role = "model"
)

// ParseRole validates a stored role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleModel:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Turn is a single message in a conversation session.
type Turn struct {
	role Role
	text string
}

// NewTurn creates a turn.
func NewTurn(role Role, text string) Turn {
	return Turn{role: role, text: text}
}

// User creates a user turn.
func User(text string) Turn { return NewTurn(RoleUser, text) }

// Model creates a model turn.
func Model(text string) Turn { return NewTurn(RoleModel, text) }

// Role returns who produced the turn.
func (t Turn) Role() Role { return t.role }

// Text returns the turn content.
func (t Turn) Text() string { return t.text }

// Window keeps at most the last n turns. n <= 0 keeps everything.
// The window never starts with a model turn, so the history handed to a
// backend always opens with a user message.
func Window(turns []Turn, n int) []Turn {
	if n <= 0 || len(turns) <= n {
		return turns
	}
	w := turns[len(turns)-n:]
	for len(w) > 0 && w[0].role == RoleModel {
		w = w[1:]
	}
	return w
}
