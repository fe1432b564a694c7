package report

import (
	"bytes"
	"fmt"
	"html/template"
)

// Document is the renderable form of a completed interview report.
type Document struct {
	Title               string
	OverallSummary      string
	Strengths           []string
	AreasForImprovement []string
	FinalRecommendation string
	ProctoringFlags     []string
}

// reportTemplate lays out the persisted artifact. The proctoring section is
// rendered only when flags are present.
const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<h2>Overall Summary</h2>
<p>{{.OverallSummary}}</p>
<h2>Key Strengths</h2>
<ul>
{{range .Strengths}}<li>{{.}}</li>
{{end}}</ul>
<h2>Areas for Improvement</h2>
<ul>
{{range .AreasForImprovement}}<li>{{.}}</li>
{{end}}</ul>
<h2>Final Recommendation</h2>
<p><b>{{.FinalRecommendation}}</b></p>
{{if .ProctoringFlags}}<hr>
<h2>Proctoring Flags</h2>
<ul class="warning">
{{range .ProctoringFlags}}<li>{{.}}</li>
{{end}}</ul>
{{end}}</body>
</html>
`

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// Render produces the report artifact bytes for a document.
func Render(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
