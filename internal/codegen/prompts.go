package codegen

import (
	"strings"
	"text/template"
)

type pagePromptFields struct {
	Brief  string
	Checks []string
}

const pagePrompt = `Create a complete single-page HTML application based on this brief:
{{ .Brief }}

Requirements to check:
{{ range $i, $v := .Checks }}{{ if $i }}
{{ end }}{{ $v }}{{ end }}

Generate a complete HTML file with inline CSS and JavaScript. Make sure it meets all the requirements.
Only return the HTML code, nothing else.`

var pagePromptTmpl = template.Must(template.New("pagePrompt").Parse(pagePrompt))

// BuildPrompt renders the generation prompt. The brief and every check appear
// verbatim, one check per line.
func BuildPrompt(brief string, checks []string) (string, error) {
	var b strings.Builder
	if err := pagePromptTmpl.Execute(&b, pagePromptFields{Brief: brief, Checks: checks}); err != nil {
		return "", err
	}
	return b.String(), nil
}
