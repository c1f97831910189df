package chat

// withPersona returns msgs with a system message at position 0. When msgs
// already starts with one it is returned as is and persona is not called.
// The caller's slice is never modified.
func withPersona(msgs []Message, persona func() string) []Message {
	if len(msgs) > 0 && msgs[0].Role == RoleSystem {
		return msgs
	}
	out := make([]Message, 0, len(msgs)+1)
	out = append(out, Message{Role: RoleSystem, Content: persona()})
	return append(out, msgs...)
}
