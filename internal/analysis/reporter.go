package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/josema3054/predicciones-deportivas/internal/simulator"
)

// Format selects how a Reporter renders its output
type Format string

const (
	FormatConsole Format = "console"
	FormatCSV     Format = "csv"
	FormatHTML    Format = "html"
	FormatJSON    Format = "json"
)

// ParseFormat accepts the format names used on the command line
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatConsole, FormatCSV, FormatHTML, FormatJSON:
		return f, nil
	case "", "table", "text":
		return FormatConsole, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Reporter renders effectiveness reports and simulation summaries
type Reporter struct {
	format Format
}

// NewReporter creates a reporter for format
func NewReporter(format Format) *Reporter {
	return &Reporter{format: format}
}

// WriteReport renders an effectiveness report to w
func (r *Reporter) WriteReport(w io.Writer, report Report) error {
	switch r.format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatCSV:
		return writeReportCSV(w, report)
	case FormatHTML:
		return reportTemplate.Execute(w, report)
	default:
		_, err := io.WriteString(w, ConsoleReport(report))
		return err
	}
}

// WriteSimulation renders a simulation summary, including its balance
// history, to w
func (r *Reporter) WriteSimulation(w io.Writer, summary *simulator.Summary) error {
	if summary == nil {
		return fmt.Errorf("no simulation summary to render")
	}
	switch r.format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatCSV:
		return writeSimulationCSV(w, summary)
	case FormatHTML:
		return simulationTemplate.Execute(w, summary)
	default:
		_, err := io.WriteString(w, ConsoleSimulation(summary))
		return err
	}
}

// WriteSequenceRisk renders a shuffled-order replay. HTML wraps the console
// rendering.
func (r *Reporter) WriteSequenceRisk(w io.Writer, result *simulator.MonteCarloResult) error {
	if result == nil {
		return fmt.Errorf("no sequence risk result to render")
	}
	switch r.format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatCSV:
		cw := csv.NewWriter(w)
		rows := [][]string{
			{"metric", "value"},
			{"iterations", strconv.Itoa(result.Iterations)},
			{"mean_final_balance", formatPct(result.MeanFinalBalance)},
			{"std_final_balance", formatPct(result.StdFinalBalance)},
			{"mean_max_drawdown_pct", formatPct(result.MeanMaxDrawdownPct)},
			{"probability_of_profit", formatPct(result.ProbabilityOfProfit * 100)},
			{"probability_of_bust", formatPct(result.ProbabilityOfBust * 100)},
		}
		for _, key := range sortedKeys(result.Percentiles) {
			rows = append(rows, []string{key, formatPct(result.Percentiles[key])})
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("failed to write sequence risk csv: %w", err)
		}
		return nil
	case FormatHTML:
		return preformattedTemplate.Execute(w, ConsoleSequenceRisk(result))
	default:
		_, err := io.WriteString(w, ConsoleSequenceRisk(result))
		return err
	}
}

// WriteTrend renders rolling-window accuracy
func (r *Reporter) WriteTrend(w io.Writer, trend *Trend) error {
	if trend == nil {
		return fmt.Errorf("no trend to render")
	}
	switch r.format {
	case FormatJSON:
		return writeJSON(w, trend)
	case FormatCSV:
		cw := csv.NewWriter(w)
		rows := [][]string{{"start", "end", "total", "correct", "accuracy_pct"}}
		for _, win := range trend.Windows {
			rows = append(rows, []string{win.Start, win.End, strconv.Itoa(win.Total), strconv.Itoa(win.Correct), formatPct(win.AccuracyPct)})
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("failed to write trend csv: %w", err)
		}
		return nil
	case FormatHTML:
		return preformattedTemplate.Execute(w, ConsoleTrend(trend))
	default:
		_, err := io.WriteString(w, ConsoleTrend(trend))
		return err
	}
}

// WriteReportFile renders report into path, creating parent directories
func (r *Reporter) WriteReportFile(path string, report Report) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteReport(w, report) })
}

// WriteSimulationFile renders summary into path, creating parent directories
func (r *Reporter) WriteSimulationFile(path string, summary *simulator.Summary) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteSimulation(w, summary) })
}

// WriteTrendFile renders trend into path, creating parent directories
func (r *Reporter) WriteTrendFile(path string, trend *Trend) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteTrend(w, trend) })
}

func writeFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ConsoleReport formats an effectiveness report for terminal output
func ConsoleReport(report Report) string {
	var builder strings.Builder
	title := "Effectiveness Report"
	if report.Scope != "" {
		title += " (" + report.Scope + ")"
	}
	builder.WriteString(title + "\n")
	builder.WriteString(strings.Repeat("=", len(title)) + "\n")
	builder.WriteString(fmt.Sprintf("Matched pairs: %d\n", report.Total))
	builder.WriteString(fmt.Sprintf("Correct: %d\n", report.Correct))
	builder.WriteString(fmt.Sprintf("Accuracy: %.2f%%\n", report.AccuracyPct))
	builder.WriteString(fmt.Sprintf("Breakeven: %.2f%% (%s)\n", report.BreakevenPct, breakevenLabel(report.AboveBreakeven)))
	builder.WriteString(fmt.Sprintf("Skipped: %d\n", report.Skipped))

	if len(report.Markets) > 0 {
		builder.WriteString("\n")
		tw := tabwriter.NewWriter(&builder, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MARKET\tTOTAL\tCORRECT\tACCURACY")
		for _, m := range report.Markets {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\n", m.Kind, m.Total, m.Correct, m.AccuracyPct)
		}
		tw.Flush()
	}

	if len(report.Buckets) > 0 {
		builder.WriteString("\n")
		tw := tabwriter.NewWriter(&builder, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CONSENSUS %\tTOTAL\tCORRECT\tACCURACY")
		for _, b := range report.Buckets {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\n", b.Label, b.Total, b.Correct, b.AccuracyPct)
		}
		tw.Flush()
		if report.Unbucketed > 0 {
			builder.WriteString(fmt.Sprintf("Outside buckets: %d\n", report.Unbucketed))
		}
	}

	if t := report.Totals; t != nil {
		builder.WriteString("\nTotals bias\n")
		builder.WriteString(fmt.Sprintf("Public picked over %.2f%% / under %.2f%%\n", t.OverPredictionPct, t.UnderPredictionPct))
		builder.WriteString(fmt.Sprintf("Games went over %.2f%% / under %.2f%%\n", t.OverResultPct, t.UnderResultPct))
		builder.WriteString(fmt.Sprintf("Over picks hit %.2f%%, under picks hit %.2f%%\n", t.OverAccuracyPct, t.UnderAccuracyPct))
	}

	if len(report.Warnings) > 0 {
		builder.WriteString(fmt.Sprintf("\nData-quality warnings: %d\n", len(report.Warnings)))
		for _, w := range report.Warnings {
			builder.WriteString(fmt.Sprintf("  %s %s: %s\n", w.RecordID, w.Field, w.Message))
		}
	}
	return builder.String()
}

// ConsoleSimulation formats a simulation summary for terminal output
func ConsoleSimulation(summary *simulator.Summary) string {
	var builder strings.Builder
	builder.WriteString("Bankroll Simulation\n")
	builder.WriteString("===================\n")
	builder.WriteString(fmt.Sprintf("Final state: %s\n", summary.FinalState))
	builder.WriteString(fmt.Sprintf("Initial balance: %s\n", summary.InitialBalance.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Final balance: %s\n", summary.FinalBalance.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Net profit: %s\n", summary.NetProfit.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Return: %.2f%%\n", summary.PctReturn))
	builder.WriteString(fmt.Sprintf("Bets: %d of %d eligible (%d won, %d lost)\n", summary.BetCount, summary.EligibleCount, summary.WinCount, summary.LossCount))
	builder.WriteString(fmt.Sprintf("Hit rate: %.2f%%\n", summary.HitRatePct))
	builder.WriteString(fmt.Sprintf("Max drawdown: %.2f%%\n", summary.MaxDrawdownPct))

	if len(summary.Bets) == 0 {
		builder.WriteString("\nNo prediction met the threshold.\n")
		return builder.String()
	}

	builder.WriteString("\n")
	tw := tabwriter.NewWriter(&builder, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tMARKET\tSIDE\tPCT\tRESULT\tBALANCE")
	for _, bet := range summary.Bets {
		result := "lost"
		if bet.Won {
			result = "won"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n", bet.Index, bet.EventDate, bet.MarketKind, bet.Side, bet.Pct, result, bet.BalanceAfter.StringFixed(2))
	}
	tw.Flush()
	return builder.String()
}

// ConsoleSequenceRisk formats a shuffled-order replay for terminal output
func ConsoleSequenceRisk(result *simulator.MonteCarloResult) string {
	var builder strings.Builder
	builder.WriteString("Sequence Risk\n")
	builder.WriteString("=============\n")
	builder.WriteString(fmt.Sprintf("Shuffles: %d\n", result.Iterations))
	builder.WriteString(fmt.Sprintf("Mean final balance: %.2f (std %.2f)\n", result.MeanFinalBalance, result.StdFinalBalance))
	for _, key := range sortedKeys(result.Percentiles) {
		builder.WriteString(fmt.Sprintf("%s final balance: %.2f\n", key, result.Percentiles[key]))
	}
	builder.WriteString(fmt.Sprintf("Mean max drawdown: %.2f%%\n", result.MeanMaxDrawdownPct))
	builder.WriteString(fmt.Sprintf("Profitable orders: %.2f%%\n", result.ProbabilityOfProfit*100))
	builder.WriteString(fmt.Sprintf("Orders that went bust: %.2f%%\n", result.ProbabilityOfBust*100))
	return builder.String()
}

// ConsoleTrend formats rolling-window accuracy for terminal output
func ConsoleTrend(trend *Trend) string {
	var builder strings.Builder
	title := fmt.Sprintf("Accuracy Trend (%s, %d-day windows)", trend.Scope, trend.WindowDays)
	builder.WriteString(title + "\n")
	builder.WriteString(strings.Repeat("=", len(title)) + "\n")
	if len(trend.Windows) == 0 {
		builder.WriteString("No window had enough linked games.\n")
		return builder.String()
	}
	tw := tabwriter.NewWriter(&builder, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO\tTOTAL\tCORRECT\tACCURACY")
	for _, win := range trend.Windows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f%%\n", win.Start, win.End, win.Total, win.Correct, win.AccuracyPct)
	}
	tw.Flush()
	builder.WriteString(fmt.Sprintf("Windows above breakeven: %.2f%%\n", trend.ConsistencyPct))
	if trend.Undated > 0 {
		builder.WriteString(fmt.Sprintf("Undated pairs: %d\n", trend.Undated))
	}
	return builder.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func breakevenLabel(above bool) string {
	if above {
		return "above"
	}
	return "below"
}

func writeReportCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"section", "label", "total", "correct", "accuracy_pct"},
		{"overall", report.Scope, strconv.Itoa(report.Total), strconv.Itoa(report.Correct), formatPct(report.AccuracyPct)},
	}
	for _, m := range report.Markets {
		rows = append(rows, []string{"market", string(m.Kind), strconv.Itoa(m.Total), strconv.Itoa(m.Correct), formatPct(m.AccuracyPct)})
	}
	for _, b := range report.Buckets {
		rows = append(rows, []string{"bucket", b.Label, strconv.Itoa(b.Total), strconv.Itoa(b.Correct), formatPct(b.AccuracyPct)})
	}
	if t := report.Totals; t != nil {
		rows = append(rows,
			[]string{"totals_over", "over", strconv.Itoa(t.OverPredictions), strconv.Itoa(t.OverCorrect), formatPct(t.OverAccuracyPct)},
			[]string{"totals_under", "under", strconv.Itoa(t.UnderPredictions), strconv.Itoa(t.UnderCorrect), formatPct(t.UnderAccuracyPct)},
		)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write report csv: %w", err)
	}
	return nil
}

func writeSimulationCSV(w io.Writer, summary *simulator.Summary) error {
	cw := csv.NewWriter(w)
	rows := [][]string{{"bet", "event_date", "market_kind", "side", "pct", "won", "balance"}}
	rows = append(rows, []string{"0", "", "", "", "", "", summary.InitialBalance.StringFixed(2)})
	for _, bet := range summary.Bets {
		rows = append(rows, []string{
			strconv.Itoa(bet.Index),
			bet.EventDate,
			string(bet.MarketKind),
			string(bet.Side),
			strconv.Itoa(bet.Pct),
			strconv.FormatBool(bet.Won),
			bet.BalanceAfter.StringFixed(2),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write simulation csv: %w", err)
	}
	return nil
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><title>Effectiveness Report</title></head>
<body>
<h1>Effectiveness Report{{if .Scope}} ({{.Scope}}){{end}}</h1>
<p><strong>Matched pairs:</strong> {{.Total}}</p>
<p><strong>Correct:</strong> {{.Correct}}</p>
<p><strong>Accuracy:</strong> {{printf "%.2f" .AccuracyPct}}%</p>
<p><strong>Breakeven:</strong> {{printf "%.2f" .BreakevenPct}}%{{if .AboveBreakeven}} (above){{else}} (below){{end}}</p>
<p><strong>Skipped:</strong> {{.Skipped}}</p>
{{if .Markets}}<table>
<tr><th>Market</th><th>Total</th><th>Correct</th><th>Accuracy</th></tr>
{{range .Markets}}<tr><td>{{.Kind}}</td><td>{{.Total}}</td><td>{{.Correct}}</td><td>{{printf "%.2f" .AccuracyPct}}%</td></tr>
{{end}}</table>{{end}}
{{if .Buckets}}<table>
<tr><th>Consensus %</th><th>Total</th><th>Correct</th><th>Accuracy</th></tr>
{{range .Buckets}}<tr><td>{{.Label}}</td><td>{{.Total}}</td><td>{{.Correct}}</td><td>{{printf "%.2f" .AccuracyPct}}%</td></tr>
{{end}}</table>{{end}}
{{with .Totals}}<h2>Totals bias</h2>
<p>Public picked over {{printf "%.2f" .OverPredictionPct}}%, games went over {{printf "%.2f" .OverResultPct}}%</p>
{{end}}
{{if .Warnings}}<h2>Data-quality warnings</h2>
<ul>{{range .Warnings}}<li>{{.RecordID}} {{.Field}}: {{.Message}}</li>{{end}}</ul>{{end}}
</body>
</html>
`))

var simulationTemplate = template.Must(template.New("simulation").Parse(`<!DOCTYPE html>
<html>
<head><title>Bankroll Simulation</title></head>
<body>
<h1>Bankroll Simulation</h1>
<p><strong>Final state:</strong> {{.FinalState}}</p>
<p><strong>Initial balance:</strong> {{.InitialBalance.StringFixed 2}}</p>
<p><strong>Final balance:</strong> {{.FinalBalance.StringFixed 2}}</p>
<p><strong>Return:</strong> {{printf "%.2f" .PctReturn}}%</p>
<p><strong>Bets:</strong> {{.BetCount}} ({{.WinCount}} won, {{.LossCount}} lost)</p>
<p><strong>Max drawdown:</strong> {{printf "%.2f" .MaxDrawdownPct}}%</p>
<h2>Balance history</h2>
<ol start="0">{{range .BalanceHistory}}<li>{{.StringFixed 2}}</li>{{end}}</ol>
</body>
</html>
`))

var preformattedTemplate = template.Must(template.New("preformatted").Parse(`<!DOCTYPE html>
<html>
<head><title>Report</title></head>
<body>
<pre>{{.}}</pre>
</body>
</html>
`))
