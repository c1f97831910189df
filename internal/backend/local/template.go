package local

import (
	"errors"
	"fmt"

	"github.com/nikolalohinski/gonja"

	"bloomed/internal/chat"
)

// jinjaTemplate renders a model's native Jinja chat template.
type jinjaTemplate struct {
	execute func(data map[string]any) (string, error)
	bos     string
	eos     string
}

// newJinjaTemplate compiles src. It returns (nil, nil) when src is empty so
// callers fall back to the plain prompt format.
func newJinjaTemplate(src, bos, eos string) (chat.Template, error) {
	if src == "" {
		return nil, nil
	}
	tpl, err := gonja.FromString(src)
	if err != nil {
		return nil, fmt.Errorf("compile chat template: %w", err)
	}
	return &jinjaTemplate{
		execute: func(data map[string]any) (string, error) { return tpl.Execute(data) },
		bos:     bos,
		eos:     eos,
	}, nil
}

func (j *jinjaTemplate) Render(msgs []chat.Message, addGenerationPrompt bool) (out string, err error) {
	// gonja can panic on constructs it does not support.
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("chat template panic: %v", r)
		}
	}()
	ms := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		ms = append(ms, map[string]any{"role": string(m.Role), "content": m.Content})
	}
	return j.execute(map[string]any{
		"messages":              ms,
		"add_generation_prompt": addGenerationPrompt,
		"bos_token":             j.bos,
		"eos_token":             j.eos,
		"raise_exception": func(msg string) (string, error) {
			return "", errors.New(msg)
		},
	})
}
