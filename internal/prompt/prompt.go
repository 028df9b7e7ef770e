// Package prompt renders the chat prompts sent to the translation
// backend from embedded templates.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed templates/*.md
var templates embed.FS

// Template names.
const (
	System          = "system"
	TranslateBody   = "translate_body"
	TranslateChunk  = "translate_chunk"
	TranslateDiff   = "translate_diff"
	RetryDiff       = "retry_diff"
	TranslateFields = "translate_frontmatter"
)

var (
	cacheMu sync.Mutex
	cache   = map[string]string{}
)

// Render loads the named template and substitutes {{key}} placeholders
// with the given values. Placeholders without a value stay verbatim, so
// template literals that merely look like placeholders survive.
func Render(name string, vars map[string]string) (string, error) {
	text, err := load(name)
	if err != nil {
		return "", err
	}
	for key, val := range vars {
		text = strings.ReplaceAll(text, "{{"+key+"}}", val)
	}
	return text, nil
}

func load(name string) (string, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if text, ok := cache[name]; ok {
		return text, nil
	}
	data, err := templates.ReadFile("templates/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("load prompt template %s: %w", name, err)
	}
	text := string(data)
	cache[name] = text
	return text, nil
}
