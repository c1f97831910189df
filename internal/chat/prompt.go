package chat

import "strings"

// Template renders a conversation in a model's native chat format.
type Template interface {
	Render(msgs []Message, addGenerationPrompt bool) (string, error)
}

// RenderPrompt renders msgs with t and an assistant generation marker. When t
// is nil, fails, or renders nothing, FallbackPrompt is used instead. native
// reports which path produced the prompt.
func RenderPrompt(t Template, msgs []Message) (prompt string, native bool) {
	if t != nil {
		if out, err := t.Render(msgs, true); err == nil && strings.TrimSpace(out) != "" {
			return out, true
		}
	}
	return FallbackPrompt(msgs), false
}

// FallbackPrompt renders each message as "ROLE: content" on its own line and
// ends with an empty "ASSISTANT:" turn.
func FallbackPrompt(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(strings.ToUpper(string(m.Role)))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	b.WriteString("ASSISTANT:")
	return b.String()
}
