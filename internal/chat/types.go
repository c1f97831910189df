package chat

import "strings"

// Role tags the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ParseRole normalizes s into a Role. The second result is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Params holds the caller's optional generation parameters. A nil field means
// "use the configured default".
type Params struct {
	MaxNewTokens *int
	Temperature  *float64
	TopP         *float64
	Stop         []string
}

// Resolved is the parameter set handed to a Backend. It is computed once per
// Generate call.
type Resolved struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
	Stop         []string
}

// Int, Float are small helpers for building Params literals.
func Int(v int) *int { return &v }

func Float(v float64) *float64 { return &v }
