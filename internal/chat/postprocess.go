package chat

import "strings"

// finalize applies echo removal, stop truncation and whitespace trimming, in
// that order.
func finalize(c Completion, stop []string) string {
	text := stripEcho(c.Text, c.Prompt)
	text = truncateAtStop(text, stop)
	return strings.TrimSpace(text)
}

// stripEcho removes prompt when text starts with it verbatim.
func stripEcho(text, prompt string) string {
	if prompt == "" {
		return text
	}
	return strings.TrimPrefix(text, prompt)
}

// truncateAtStop cuts text before the first stop sequence, trying sequences in
// the order given. The first sequence found anywhere in text wins even when a
// later one occurs earlier in text.
func truncateAtStop(text string, stop []string) string {
	for _, s := range stop {
		if s == "" {
			continue
		}
		if i := strings.Index(text, s); i >= 0 {
			return text[:i]
		}
	}
	return text
}
