package report

import (
	"fmt"
	"html/template"
	"io"
	"math"

	"stockrisk/internal/engine"
)

// WriteHTML renders a self-contained report page: the run summary followed
// by the full batch table. It assumes nothing about the surrounding
// dashboard; the page is plain static HTML.
func WriteHTML(w io.Writer, result *engine.RunResult, summary Summary) error {
	data := struct {
		Result  *engine.RunResult
		Summary Summary
	}{result, summary}

	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
	"f1":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f2":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"days": func(r engine.BatchRow) string {
		if r.NoSalesHistory {
			return "∞"
		}
		return fmt.Sprintf("%.0f", r.DaysToClear)
	},
	"cv": func(v float64) string {
		if math.IsInf(v, 1) {
			return "∞"
		}
		return fmt.Sprintf("%.2f", v)
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Batch Risk Report {{.Result.RunID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; font-size: 13px; }
th { background: #f0f0f0; }
.critical { background: #fdd; }
.high { background: #fed; }
.medium { background: #ffd; }
.summary { margin-bottom: 1.5em; }
</style>
</head>
<body>
<h1>Batch Inventory Risk Report</h1>
<div class="summary">
<p>Run {{.Result.RunID}} · generated {{.Result.GeneratedAt.Format "2006-01-02 15:04"}} · {{.Summary.TotalBatches}} batches · total value {{.Summary.TotalValue}} · value at risk {{.Summary.ValueAtRisk}}</p>
<p>
{{- range $tier, $count := .Summary.TierCounts }}
<strong>{{$tier}}</strong>: {{$count}} &nbsp;
{{- end }}
</p>
</div>
<table>
<tr>
<th>Product</th><th>Description</th><th>Age (d)</th><th>Qty</th><th>Value</th>
<th>Days to clear</th><th>Risk 30/60/90</th><th>Score</th><th>Tier</th>
<th>Action</th><th>Responsible</th><th>Attribution</th>
</tr>
{{range .Result.Rows}}
<tr class="{{.RiskLevel}}">
<td>{{.Product}}</td>
<td>{{.Description}}</td>
<td>{{f1 .AgeDays}}</td>
<td>{{.Quantity}}</td>
<td>{{.BatchValue}}</td>
<td>{{days .}}</td>
<td>{{pct .Risk30}} / {{pct .Risk60}} / {{pct .Risk90}}</td>
<td>{{.RiskScore}}</td>
<td>{{.RiskLevel}}</td>
<td>{{.RecommendedAction}}</td>
<td>{{.Attribution.PrimaryPerson}}{{if .Attribution.PrimaryRegion}} ({{.Attribution.PrimaryRegion}}){{end}}</td>
<td>{{.Attribution.Summary}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))
