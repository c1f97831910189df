package local

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// tokenizerConfig is the subset of a Hugging Face tokenizer_config.json the
// local backend needs: the chat template and the special-token texts.
type tokenizerConfig struct {
	ChatTemplate string
	BOS          string
	EOS          string
	// Special lists the text of every special token, longest first.
	Special []string
}

type rawTokenizerConfig struct {
	ChatTemplate       json.RawMessage            `json:"chat_template"`
	BOSToken           json.RawMessage            `json:"bos_token"`
	EOSToken           json.RawMessage            `json:"eos_token"`
	PadToken           json.RawMessage            `json:"pad_token"`
	AddedTokensDecoder map[string]addedTokenEntry `json:"added_tokens_decoder"`
}

type addedTokenEntry struct {
	Content string `json:"content"`
	Special bool   `json:"special"`
}

type namedTemplate struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

// loadTokenizerConfig reads path. An empty path yields an empty config.
func loadTokenizerConfig(path string) (tokenizerConfig, error) {
	if path == "" {
		return tokenizerConfig{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return tokenizerConfig{}, err
	}
	return parseTokenizerConfig(b)
}

func parseTokenizerConfig(b []byte) (tokenizerConfig, error) {
	var raw rawTokenizerConfig
	if err := json.Unmarshal(b, &raw); err != nil {
		return tokenizerConfig{}, fmt.Errorf("parse tokenizer config: %w", err)
	}
	tmpl, err := chatTemplateText(raw.ChatTemplate)
	if err != nil {
		return tokenizerConfig{}, err
	}
	cfg := tokenizerConfig{
		ChatTemplate: tmpl,
		BOS:          tokenText(raw.BOSToken),
		EOS:          tokenText(raw.EOSToken),
	}
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			cfg.Special = append(cfg.Special, s)
		}
	}
	add(cfg.BOS)
	add(cfg.EOS)
	add(tokenText(raw.PadToken))
	for _, t := range raw.AddedTokensDecoder {
		if t.Special {
			add(t.Content)
		}
	}
	// Longest first so "<|im_end|>" is removed before any shorter prefix token.
	sort.SliceStable(cfg.Special, func(i, j int) bool { return len(cfg.Special[i]) > len(cfg.Special[j]) })
	return cfg, nil
}

// chatTemplateText accepts either a template string or the list form
// [{"name": "default", "template": "..."}].
func chatTemplateText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var list []namedTemplate
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", fmt.Errorf("parse chat_template: %w", err)
	}
	for _, t := range list {
		if t.Name == "default" {
			return t.Template, nil
		}
	}
	if len(list) > 0 {
		return list[0].Template, nil
	}
	return "", nil
}

// tokenText accepts "<s>" or {"content": "<s>", ...}.
func tokenText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Content
	}
	return ""
}

// stripSpecial removes special-token text from generated output.
func stripSpecial(text string, special []string) string {
	for _, s := range special {
		text = strings.ReplaceAll(text, s, "")
	}
	return text
}
