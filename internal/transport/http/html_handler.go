package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"gradegraph/pkg/contracts"
)

// pageData is passed to the index template.
type pageData struct {
	Version string
	APIBase string
}

var defaultIndex = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>GradeGraph {{.Version}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; max-width: 760px; }
        code { background: #f4f4f4; padding: 2px 4px; }
        li { margin: 4px 0; }
    </style>
</head>
<body>
    <h1>GradeGraph</h1>
    <p>Upload a class marks workbook (.xlsx) to classify learners and explore subject statistics.</p>
    <form method="post" action="{{.APIBase}}/uploads" enctype="multipart/form-data">
        <input type="file" name="file" accept=".xlsx,.xlsm" required>
        <button type="submit">Analyze</button>
    </form>
    <h2>Endpoints</h2>
    <ul>
        <li><code>GET {{.APIBase}}/uploads/latest/dashboard</code></li>
        <li><code>GET {{.APIBase}}/uploads/latest/subjects</code></li>
        <li><code>GET {{.APIBase}}/uploads/latest/students?q=</code></li>
        <li><code>GET {{.APIBase}}/uploads/latest/insights</code></li>
        <li><code>GET {{.APIBase}}/uploads/latest/export/summary</code></li>
        <li><code>GET /health</code></li>
    </ul>
</body>
</html>
`))

// HTMLHandler serves the landing page. An index.html in webDir overrides
// the built-in page and is rendered as a template with the same data.
type HTMLHandler struct {
	webDir string
	logger *slog.Logger
}

// NewHTMLHandler creates a new HTML handler
func NewHTMLHandler(webDir string, logger *slog.Logger) *HTMLHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLHandler{
		webDir: webDir,
		logger: logger.With(slog.String("handler", "html")),
	}
}

// Index handles GET /
func (h *HTMLHandler) Index(w http.ResponseWriter, r *http.Request) {
	tmpl := defaultIndex
	if h.webDir != "" {
		indexPath := filepath.Join(h.webDir, "index.html")
		if _, err := os.Stat(indexPath); err == nil {
			parsed, err := template.ParseFiles(indexPath)
			if err != nil {
				h.logger.ErrorContext(r.Context(), "failed to parse index page",
					slog.String("path", indexPath),
					slog.String("error", err.Error()))
				http.Error(w, "Error loading page", http.StatusInternalServerError)
				return
			}
			tmpl = parsed
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{Version: contracts.Version, APIBase: "/api"}
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render index page", slog.String("error", err.Error()))
	}
}
