package report

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"epic-metrics/internal/stats"
	"epic-metrics/internal/visuals"

	"github.com/evanw/esbuild/pkg/api"
)

// MermaidScriptURL is the browser bundle loaded by the HTML report.
const MermaidScriptURL = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

// reportScript renders the Mermaid blocks and wires the chart toggles.
const reportScript = `
(function () {
  var toggles = document.querySelectorAll("[data-toggle]");
  for (var i = 0; i < toggles.length; i++) {
    toggles[i].addEventListener("click", function (event) {
      var target = document.getElementById(event.currentTarget.getAttribute("data-toggle"));
      if (target) {
        target.hidden = !target.hidden;
      }
    });
  }
  if (window.mermaid) {
    window.mermaid.initialize({ startOnLoad: true, theme: "neutral" });
  }
})();
`

var (
	scriptOnce     sync.Once
	minifiedScript string
	scriptErr      error
)

// minifyScript compacts reportScript once per process.
func minifyScript() (string, error) {
	scriptOnce.Do(func() {
		result := api.Transform(reportScript, api.TransformOptions{
			Loader:            api.LoaderJS,
			MinifyWhitespace:  true,
			MinifyIdentifiers: true,
			MinifySyntax:      true,
		})
		if len(result.Errors) > 0 {
			msgs := make([]string, len(result.Errors))
			for i, m := range result.Errors {
				msgs[i] = m.Text
			}
			scriptErr = fmt.Errorf("failed to minify report script: %s", strings.Join(msgs, "; "))
			return
		}
		minifiedScript = string(result.Code)
	})
	return minifiedScript, scriptErr
}

type htmlChart struct {
	ID      string
	Title   string
	Mermaid string
}

type htmlData struct {
	Title       string
	Source      string
	Generated   string
	Summary     []SummaryRow
	Insights    []string
	Assignees   []stats.AssigneeMetric
	Charts      []htmlChart
	CycleTime   []stats.CycleTimePoint
	MermaidURL  string
	Script      template.JS
	WithCharts  bool
	HasCycle    bool
	HasAssignee bool
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"num": formatNumber,
	"days": func(v float64) string {
		return fmt.Sprintf("%.1f", v)
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 960px; color: #222; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
section { margin-top: 2rem; }
button { font-size: 0.8rem; margin-left: 0.5rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Source}}<p>Source: <code>{{.Source}}</code></p>{{end}}
<p>Generated: {{.Generated}}</p>
<table>
<tr><th>Metric</th><th>Value</th></tr>
{{range .Summary}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
{{if .Insights}}<section>
<h2>Insights</h2>
<ul>
{{range .Insights}}<li>{{.}}</li>
{{end}}</ul>
</section>{{end}}
{{if .HasAssignee}}<section>
<h2>Assignees</h2>
<table>
<tr><th>Assignee</th><th>Issues</th><th>Assigned</th><th>Completed</th></tr>
{{range .Assignees}}<tr><td>{{.Name}}</td><td>{{.IssueCount}}</td><td>{{num .AssignedPoints}}</td><td>{{num .CompletedPoints}}</td></tr>
{{end}}</table>
</section>{{end}}
{{if .WithCharts}}{{range .Charts}}<section>
<h2>{{.Title}}<button type="button" data-toggle="{{.ID}}">toggle</button></h2>
<pre class="mermaid" id="{{.ID}}">{{.Mermaid}}</pre>
</section>
{{end}}{{end}}
{{if .HasCycle}}<section>
<h2>Cycle Time</h2>
<table>
<tr><th>Issue</th><th>Resolved</th><th>Days</th><th>Story Points</th></tr>
{{range .CycleTime}}<tr><td>{{.Key}}</td><td>{{.Resolved}}</td><td>{{days .Days}}</td><td>{{num .StoryPoints}}</td></tr>
{{end}}</table>
</section>{{end}}
{{if .WithCharts}}<script src="{{.MermaidURL}}"></script>{{end}}
<script>{{.Script}}</script>
</body>
</html>
`))

// HTML writes a standalone HTML report.
func HTML(w io.Writer, res stats.ProcessedResult, opts Options) error {
	script, err := minifyScript()
	if err != nil {
		return err
	}

	data := htmlData{
		Title:       opts.title(),
		Source:      opts.Source,
		Generated:   opts.now().Format("2006-01-02 15:04 MST"),
		Summary:     Summary(res, opts.now()),
		Insights:    InsightLines(res),
		Assignees:   res.AssigneeData,
		CycleTime:   res.CycleTime,
		MermaidURL:  MermaidScriptURL,
		Script:      template.JS(script),
		WithCharts:  opts.Mermaid,
		HasCycle:    len(res.CycleTime) > 0,
		HasAssignee: len(res.AssigneeData) > 0,
	}

	if opts.Mermaid {
		for _, name := range visuals.ChartNames {
			if name == visuals.ChartCycleTime {
				continue
			}
			chart, _ := visuals.Render(name, res)
			if chart == "" {
				continue
			}
			data.Charts = append(data.Charts, htmlChart{
				ID:      "chart-" + name,
				Title:   chartTitles[name],
				Mermaid: stripFence(chart),
			})
		}
	}

	if err := htmlTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

// WriteHTMLFile renders the HTML report into dir and returns its path.
func WriteHTMLFile(dir, name string, res stats.ProcessedResult, opts Options) (path string, err error) {
	if name == "" {
		return "", errors.New("report name is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path = filepath.Join(dir, name+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()

	if err := HTML(f, res, opts); err != nil {
		return "", err
	}
	return path, nil
}

// stripFence turns a fenced Mermaid block into the bare diagram source. Text after
// the closing fence is dropped.
func stripFence(block string) string {
	body := strings.TrimPrefix(block, "```mermaid\n")
	if i := strings.Index(body, "```"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}
