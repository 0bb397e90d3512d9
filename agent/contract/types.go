package contract

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one utterance in a conversation. Turn sequences are append-only;
// a turn is never edited after creation.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn stamps a turn with an identifier and timestamp.
func NewTurn(role Role, text string, now time.Time) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: now.UTC(),
	}
}

// Record is the open mapping decoded from one delimited payload. The field
// set is tenant-defined at runtime, so no fixed schema applies.
type Record map[string]any
