// Package reporting renders per-run artifacts: an equity curve CSV and a
// self-contained HTML report. Reporting failures never discard a computed
// result; callers log them and move on.
package reporting

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

const (
	reportTimestampLayout = "2006-01-02_15-04-05"
	reportDateLayout      = "2006-01-02"
	dirPermissions        = 0o755
	filePermissions       = 0o644
)

// Reporter writes backtest artifacts under a reports directory.
type Reporter struct {
	dir string
	log *logger.Logger
	now func() time.Time
}

// NewReporter creates a reporter writing under dir, e.g. "./reports".
func NewReporter(dir string, log *logger.Logger) *Reporter {
	return &Reporter{
		dir: dir,
		log: log,
		now: time.Now,
	}
}

// Write renders the HTML report and the equity curve CSV for one completed
// run and returns their paths.
func (r *Reporter) Write(result types.BacktestResult, curve []types.EquityPoint) (reportPath string, csvPath string, err error) {
	if err := os.MkdirAll(r.dir, dirPermissions); err != nil {
		return "", "", errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create reports directory %s", r.dir)
	}

	base := fmt.Sprintf("%s_%s_strategy_%s_in_%s_",
		r.now().Format(reportTimestampLayout),
		result.StrategyName,
		result.TokenTicker,
		result.DenominationTicker,
	)

	csvPath = filepath.Join(r.dir, base+"equity_curve.csv")
	if err := writeEquityCSV(csvPath, curve); err != nil {
		return "", "", err
	}

	reportPath = filepath.Join(r.dir, base+"report.html")
	if err := renderHTMLReport(reportPath, result, curve); err != nil {
		return "", "", err
	}

	r.log.Debug("Wrote backtest report",
		zap.String("report", reportPath),
		zap.String("equity_curve", csvPath),
	)

	return reportPath, csvPath, nil
}

func writeEquityCSV(path string, curve []types.EquityPoint) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePermissions)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"date", "equity"}); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write csv header", err)
	}

	for _, point := range curve {
		record := []string{
			point.Time.Format(reportDateLayout),
			strconv.FormatFloat(point.Equity, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write csv record", err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to flush csv", err)
	}

	return nil
}

type reportData struct {
	Title         string
	Pair          string
	StrategyName  string
	GeneratedAt   string
	SharpeRatio   string
	MaxDrawDown   string
	FinalEquity   string
	AnnualReturns []annualReturnRow
	CurvePoints   string
	FirstDate     string
	LastDate      string
}

type annualReturnRow struct {
	Year   int
	Return string
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #1a1a2e; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.8rem; text-align: right; }
th { background: #f4f4f8; }
svg { border: 1px solid #ccc; background: #fdfdfd; }
.meta { color: #666; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.StrategyName}} strategy: {{.Pair}}</h1>
<p class="meta">Generated {{.GeneratedAt}}</p>
<table>
<tr><th>Sharpe ratio</th><td>{{.SharpeRatio}}</td></tr>
<tr><th>Max drawdown</th><td>{{.MaxDrawDown}}</td></tr>
<tr><th>Final equity</th><td>{{.FinalEquity}}</td></tr>
</table>
{{if .AnnualReturns}}
<table>
<tr><th>Year</th><th>Return</th></tr>
{{range .AnnualReturns}}<tr><td>{{.Year}}</td><td>{{.Return}}</td></tr>
{{end}}</table>
{{end}}
<h2>Equity curve</h2>
<svg viewBox="0 0 800 300" width="800" height="300" role="img">
<polyline fill="none" stroke="#2a6fdb" stroke-width="1.5" points="{{.CurvePoints}}" />
</svg>
<p class="meta">{{.FirstDate}} to {{.LastDate}}</p>
</body>
</html>
`))

func renderHTMLReport(path string, result types.BacktestResult, curve []types.EquityPoint) error {
	data := reportData{
		Title:         fmt.Sprintf("%s %s backtest report", result.StrategyName, result.Pair()),
		Pair:          result.Pair(),
		StrategyName:  result.StrategyName,
		GeneratedAt:   time.Now().Format("2006-01-02 15:04:05"),
		SharpeRatio:   "n/a",
		MaxDrawDown:   fmt.Sprintf("-%.2f%%", result.MaxDrawDown),
		FinalEquity:   "n/a",
		AnnualReturns: make([]annualReturnRow, 0, len(result.AnnualReturns)),
		CurvePoints:   polylinePoints(curve),
		FirstDate:     "",
		LastDate:      "",
	}

	if result.SharpeRatio.IsSome() {
		data.SharpeRatio = fmt.Sprintf("%.4f", result.SharpeRatio.Unwrap())
	}

	if len(curve) > 0 {
		data.FinalEquity = fmt.Sprintf("%.2f", curve[len(curve)-1].Equity)
		data.FirstDate = curve[0].Time.Format(reportDateLayout)
		data.LastDate = curve[len(curve)-1].Time.Format(reportDateLayout)
	}

	for _, annual := range result.AnnualReturns {
		data.AnnualReturns = append(data.AnnualReturns, annualReturnRow{
			Year:   annual.Year,
			Return: fmt.Sprintf("%.2f%%", annual.Return*100),
		})
	}

	var rendered strings.Builder
	if err := reportTemplate.Execute(&rendered, data); err != nil {
		return errors.Wrap(errors.ErrCodeReportRenderFailed, "failed to render html report", err)
	}

	if err := os.WriteFile(path, []byte(rendered.String()), filePermissions); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to write %s", path)
	}

	return nil
}

// polylinePoints maps the curve into the 800x300 SVG viewport, y inverted.
func polylinePoints(curve []types.EquityPoint) string {
	const (
		width   = 800.0
		height  = 300.0
		padding = 10.0
	)

	if len(curve) == 0 {
		return ""
	}

	minEquity := math.Inf(1)
	maxEquity := math.Inf(-1)

	for _, point := range curve {
		minEquity = math.Min(minEquity, point.Equity)
		maxEquity = math.Max(maxEquity, point.Equity)
	}

	span := maxEquity - minEquity
	if span == 0 {
		span = 1
	}

	xStep := 0.0
	if len(curve) > 1 {
		xStep = (width - 2*padding) / float64(len(curve)-1)
	}

	var points strings.Builder

	for i, point := range curve {
		x := padding + float64(i)*xStep
		y := height - padding - (point.Equity-minEquity)/span*(height-2*padding)

		if i > 0 {
			points.WriteByte(' ')
		}

		fmt.Fprintf(&points, "%.1f,%.1f", x, y)
	}

	return points.String()
}
