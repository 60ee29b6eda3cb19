package engine

import (
	"embed"
	"strings"
	"text/template"

	"github.com/leapstack-labs/askql/pkg/core"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

type analysisPrompt struct {
	Schema   string
	Triples  []core.Triple
	Question string
}

type answerPrompt struct {
	Question string
	Results  string
}

func renderPrompt(name string, data any) (string, error) {
	var sb strings.Builder
	if err := prompts.ExecuteTemplate(&sb, name, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
