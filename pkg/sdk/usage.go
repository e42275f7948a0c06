package studyplan

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/studyplan/internal/domain"
)

// Usage reports the model calls made while answering one message.
type Usage struct {
	Calls       int
	TotalTokens int
}

// ChatWithUsage is Chat plus the token usage of the model calls it made.
// Fallback replies report zero calls.
func (c *Client) ChatWithUsage(ctx context.Context, sessionID, message string) (reply string, usage Usage, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("chat", start, err, "session_id", sessionID, "tokens", usage.TotalTokens)
	}()

	ctx, u := domain.NewContextWithUsage(ctx)
	reply, err = c.chat.Handle(ctx, sessionID, message)
	if err != nil {
		return "", Usage{}, fmt.Errorf("chat: %w", err)
	}
	return reply, Usage{Calls: u.Calls, TotalTokens: u.TotalTokens}, nil
}
