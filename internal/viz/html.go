package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"
)

// Compiled templates are parsed at init time to fail fast on template errors.
var (
	compiledTemplate *template.Template
	emptyTemplate    *template.Template
)

func init() {
	funcs := template.FuncMap{"num": formatNum}
	compiledTemplate = template.Must(template.New("viz").Funcs(funcs).Parse(htmlTemplate))
	emptyTemplate = template.Must(template.New("empty").Parse(emptyHTMLTemplate))
}

// GenerateHTML renders a scene as a self-contained HTML document.
func GenerateHTML(scene *Scene) (string, error) {
	if scene == nil {
		return "", fmt.Errorf("scene cannot be nil")
	}

	tmpl := compiledTemplate
	if scene.IsEmpty() {
		tmpl = emptyTemplate
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, scene); err != nil {
		return "", fmt.Errorf("rendering %s: %w", scene.Kind, err)
	}
	return buf.String(), nil
}

// formatNum prints coordinates with at most two decimals.
func formatNum(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

const emptyHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}} - Empty</title>
  <style>
    body {
      font-family: Georgia, "Times New Roman", serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #faf7f2;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state p {
      margin: 0.5em 0;
    }
    .empty-state code {
      background: #ece6dc;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>{{.Empty.Heading}}</h2>
    <p>{{.Empty.Message}}</p>
    <p><code>{{.Empty.Hint}}</code></p>
  </div>
</body>
</html>`

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: Georgia, "Times New Roman", serif;
      margin: 0;
      padding: 16px;
      background: #faf7f2;
      color: #333;
    }
    h1 {
      font-size: 18px;
      font-weight: normal;
      margin: 0 0 12px 0;
    }
    .scroll {
      overflow-x: auto;
    }
    svg {
      background: white;
      border: 1px solid #e5ded3;
    }
    svg text {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
    }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="scroll">
  <svg xmlns="http://www.w3.org/2000/svg" class="{{.Kind}}" width="{{num .Width}}" height="{{num .Height}}" viewBox="{{.ViewBox}}">
{{- range .Rects}}
    <rect x="{{num .X}}" y="{{num .Y}}" width="{{num .W}}" height="{{num .H}}" fill="{{.Fill}}" fill-opacity="{{num .Opacity}}">{{if .Title}}<title>{{.Title}}</title>{{end}}</rect>
{{- end}}
{{- range .Lines}}
    <line x1="{{num .X1}}" y1="{{num .Y1}}" x2="{{num .X2}}" y2="{{num .Y2}}" stroke="{{.Stroke}}" stroke-width="{{num .Width}}" stroke-opacity="{{num .Opacity}}"{{if .Dash}} stroke-dasharray="{{.Dash}}"{{end}}/>
{{- end}}
{{- range .Paths}}
    <path d="{{.D}}" fill="none" stroke="{{.Stroke}}" stroke-width="{{num .Width}}" stroke-opacity="{{num .Opacity}}"{{if .Dash}} stroke-dasharray="{{.Dash}}"{{end}}/>
{{- end}}
{{- range .Circles}}
    <circle{{if .ID}} data-id="{{.ID}}"{{end}} cx="{{num .CX}}" cy="{{num .CY}}" r="{{num .R}}" fill="{{.Fill}}" fill-opacity="{{num .Opacity}}"{{if .Stroke}} stroke="{{.Stroke}}" stroke-width="{{num .StrokeWidth}}"{{end}}>{{if .Title}}<title>{{.Title}}</title>{{end}}</circle>
{{- end}}
{{- range .Texts}}
    <text x="{{num .X}}" y="{{num .Y}}" font-size="{{num .Size}}" fill="{{.Fill}}"{{if .Anchor}} text-anchor="{{.Anchor}}"{{end}}{{if .Bold}} font-weight="bold"{{end}}>{{.Content}}</text>
{{- end}}
  </svg>
  </div>
</body>
</html>`
