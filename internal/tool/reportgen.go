package tool

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: sans-serif; margin: 2rem; color: #1a1a2e; }
    h1 { border-bottom: 2px solid #16213e; padding-bottom: .5rem; }
    .issue { margin: .5rem 0; padding: .5rem; border-left: 4px solid #ccc; }
    .issue.high { border-color: #e94560; }
    .issue.medium { border-color: #f2a154; }
    .issue.low { border-color: #4ecca3; }
    .severity { text-transform: uppercase; font-size: .8rem; font-weight: bold; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <h2>Issues</h2>
  {{range .Issues}}
  <div class="issue {{.Severity}}">
    <span class="severity">{{.Severity}}</span>
    <p>{{.Description}}</p>
  </div>
  {{end}}
  <h2>Recommendations</h2>
  <ul>
  {{range .Recommendations}}
    <li>{{.}}</li>
  {{end}}
  </ul>
</body>
</html>
`))

// ReportGenerator renders the final report payload to HTML.
type ReportGenerator struct{}

// NewReportGenerator creates the HTML report rendering tool.
func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{}
}

func (g *ReportGenerator) Name() string { return "generate_report_html" }

func (g *ReportGenerator) Description() string {
	return "Generate an HTML report from analysis results"
}

// Execute renders the "report" argument and, when "output_file" is set,
// writes the HTML there.
func (g *ReportGenerator) Execute(ctx context.Context, args Args) Result {
	start := time.Now()

	report, ok := args["report"].(domain.Report)
	if !ok {
		return Fail(apperrors.Tool("report argument must be a report payload")).Timed(start)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return Fail(apperrors.Tool("failed to render report template").WithError(err)).Timed(start)
	}

	outputFile := args.String("output_file", "")
	saved := false
	if outputFile != "" {
		if dir := filepath.Dir(outputFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return Fail(apperrors.Tool("failed to create output directory").WithError(err)).Timed(start)
			}
		}
		if err := os.WriteFile(outputFile, buf.Bytes(), 0o644); err != nil {
			return Fail(apperrors.Tool("failed to write report file").WithError(err)).Timed(start)
		}
		saved = true
	}

	return Ok(map[string]any{
		"html":       buf.String(),
		"file_saved": saved,
		"file_path":  outputFile,
	}).Timed(start)
}
