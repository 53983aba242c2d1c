package dashboard

import (
	"embed"
	"html/template"

	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/format"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewTemplates parses the embedded pages with the dashboard formatting helpers.
func NewTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"volume":  format.Volume,
		"deposit": format.Deposit,
		"date":    format.DateTime,
		"packaging": func(p deposit.Packaging) string {
			return format.Capitalize(string(p))
		},
		"pageLabel": format.PageLabel,
		"skeletons": func(n int) []struct{} {
			return make([]struct{}, n)
		},
	}
	return template.New("root").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
}
