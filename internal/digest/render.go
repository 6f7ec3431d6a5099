package digest

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/digest.html
var templateFS embed.FS

var digestTemplate = template.Must(
	template.New("digest.html").Funcs(template.FuncMap{
		"deref": func(f *float64) float64 {
			if f == nil {
				return 0
			}
			return *f
		},
	}).ParseFS(templateFS, "templates/digest.html"),
)

// RenderHTML renders the digest document.
func RenderHTML(data *Data) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}
