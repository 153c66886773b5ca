package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/joelkehle/patentmate/internal/render"
	"github.com/joelkehle/patentmate/internal/report"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages rendered inside layout.html.
var pageNames = []string{
	"home.html",
	"wizard.html",
	"report.html",
	"disclosure.html",
	"contributors.html",
	"final_report.html",
	"not_found.html",
}

// Fragments rendered on their own.
var fragmentNames = []string{
	"final_report_content.html",
}

var funcs = template.FuncMap{
	"inc":     func(i int) int { return i + 1 },
	"percent": render.Percent,
	"dollars": report.Dollars,
	"budget":  func(br *report.BudgetRange) string { return br.String() },
	"similarity": func(v float32) int {
		return render.Percent(float64(v) * 100)
	},
	"barChart": func(values []report.NamedValue) template.HTML {
		bars := make([]render.Bar, len(values))
		for i, v := range values {
			bars[i] = render.Bar{Label: v.Name, Value: v.Value}
		}
		return render.BarChart(bars)
	},
}

type pages struct {
	byName map[string]*template.Template
}

func mustLoadPages() *pages {
	tmplFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	p := &pages{byName: map[string]*template.Template{}}
	for _, name := range pageNames {
		p.byName[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(tmplFS, "layout.html", name))
	}
	for _, name := range fragmentNames {
		p.byName[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(tmplFS, name))
	}
	return p
}

// render buffers the page and writes it with status.
func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	tmpl, ok := p.byName[name]
	if !ok {
		zap.L().Error("unknown template", zap.String("template", name))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	entry := "layout"
	for _, f := range fragmentNames {
		if f == name {
			entry = name
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, entry, data); err != nil {
		zap.L().Error("render template", zap.String("template", name), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}
