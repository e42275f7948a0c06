package history

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
)

// turnRow is the JSON-serializable representation of a turn.
type turnRow struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func encodeTurns(turns []conversation.Turn) ([]byte, error) {
	rows := make([]turnRow, len(turns))
	for i, t := range turns {
		rows[i] = turnRow{Role: string(t.Role()), Text: t.Text()}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal turns: %w", err)
	}
	return b, nil
}

func decodeTurns(b []byte) ([]conversation.Turn, error) {
	var rows []turnRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal turns: %w", err)
	}
	turns := make([]conversation.Turn, 0, len(rows))
	for _, r := range rows {
		role, err := conversation.ParseRole(r.Role)
		if err != nil {
			return nil, err
		}
		turns = append(turns, conversation.NewTurn(role, r.Text))
	}
	return turns, nil
}
