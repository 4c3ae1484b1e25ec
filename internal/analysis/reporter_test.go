package analysis

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/simulator"
)

func sampleReport() Report {
	pairs := []*models.MatchedPair{
		winnerPair(62, true),
		winnerPair(75, false),
		totalsPair(68, models.SideOver, models.SideOver),
	}
	return Aggregate(pairs, Options{Scope: "mlb", Buckets: DefaultBuckets})
}

func sampleSummary() *simulator.Summary {
	cfg := simulator.Config{
		InitialBalance: decimal.NewFromInt(1000),
		Stake:          decimal.NewFromInt(20),
		Payout:         decimal.RequireFromString("1.8"),
		Threshold:      60,
	}
	return simulator.Simulate([]*models.MatchedPair{winnerPair(70, true), winnerPair(65, false)}, cfg)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatConsole, false},
		{"table", FormatConsole, false},
		{"CSV", FormatCSV, false},
		{" html ", FormatHTML, false},
		{"json", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestConsoleReport(t *testing.T) {
	out := ConsoleReport(sampleReport())

	assert.Contains(t, out, "Effectiveness Report (mlb)")
	assert.Contains(t, out, "Matched pairs: 3")
	assert.Contains(t, out, "Accuracy: 66.67%")
	assert.Contains(t, out, "Breakeven: 52.38% (above)")
	assert.Contains(t, out, "60-69")
	assert.Contains(t, out, "OVER_UNDER")
	assert.Contains(t, out, "Totals bias")
}

func TestConsoleReportEmpty(t *testing.T) {
	out := ConsoleReport(Aggregate(nil, Options{}))
	assert.Contains(t, out, "Matched pairs: 0")
	assert.Contains(t, out, "Accuracy: 0.00%")
	assert.NotContains(t, out, "MARKET")
}

func TestWriteReportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(FormatCSV).WriteReport(&buf, sampleReport()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"section", "label", "total", "correct", "accuracy_pct"}, rows[0])
	assert.Equal(t, []string{"overall", "mlb", "3", "2", "66.67"}, rows[1])

	sections := map[string]int{}
	for _, row := range rows[1:] {
		sections[row[0]]++
	}
	assert.Equal(t, 2, sections["market"])
	assert.Equal(t, len(DefaultBuckets), sections["bucket"])
	assert.Equal(t, 1, sections["totals_over"])
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(FormatJSON).WriteReport(&buf, sampleReport()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "mlb", decoded["scope"])
	assert.Equal(t, 52.38, decoded["breakeven_pct"])
}

func TestWriteReportHTMLEscapes(t *testing.T) {
	report := sampleReport()
	report.Scope = "<mlb>"

	var buf bytes.Buffer
	require.NoError(t, NewReporter(FormatHTML).WriteReport(&buf, report))
	assert.Contains(t, buf.String(), "&lt;mlb&gt;")
	assert.Contains(t, buf.String(), "<td>60-69</td>")
}

func TestWriteSimulation(t *testing.T) {
	summary := sampleSummary()

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatConsole, []string{"Final balance: 996.00", "Bets: 2 of 2 eligible (1 won, 1 lost)", "won", "lost"}},
		{FormatCSV, []string{"bet,event_date,market_kind,side,pct,won,balance", "0,,,,,,1000.00", "1,2025-06-15,WINNER_LOSER,team_a,70,true,1016.00"}},
		{FormatHTML, []string{"<li>1000.00</li>", "<li>1016.00</li>", "<li>996.00</li>"}},
		{FormatJSON, []string{`"final_state"`, `"balance_history"`}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewReporter(tt.format).WriteSimulation(&buf, summary))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestWriteSimulationWithoutBets(t *testing.T) {
	summary := simulator.Simulate(nil, simulator.Config{
		InitialBalance: decimal.NewFromInt(500),
		Stake:          decimal.NewFromInt(10),
		Payout:         decimal.RequireFromString("1.9"),
		Threshold:      60,
	})
	out := ConsoleSimulation(summary)
	assert.Contains(t, out, "No prediction met the threshold.")

	assert.Error(t, NewReporter(FormatConsole).WriteSimulation(&bytes.Buffer{}, nil))
}

func TestWriteReportFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "mlb", "effectiveness.html")
	require.NoError(t, NewReporter(FormatHTML).WriteReportFile(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}

func TestWriteSequenceRisk(t *testing.T) {
	result := &simulator.MonteCarloResult{
		Iterations:          100,
		MeanFinalBalance:    1010.5,
		ProbabilityOfProfit: 0.62,
		ProbabilityOfBust:   0.03,
		Percentiles:         map[string]float64{"p5": 940, "p50": 1012, "p95": 1080},
	}

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatConsole, []string{"Shuffles: 100", "p5 final balance: 940.00", "Orders that went bust: 3.00%"}},
		{FormatCSV, []string{"probability_of_profit,62.00", "p95,1080.00"}},
		{FormatHTML, []string{"<pre>Sequence Risk"}},
		{FormatJSON, []string{`"probability_of_bust": 0.03`}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewReporter(tt.format).WriteSequenceRisk(&buf, result))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}

	assert.Error(t, NewReporter(FormatJSON).WriteSequenceRisk(&bytes.Buffer{}, nil))
}

func TestWriteTrend(t *testing.T) {
	trend := &Trend{
		Scope:          "mlb",
		WindowDays:     7,
		StepDays:       7,
		Windows:        []TrendWindow{{Start: "2025-06-01", End: "2025-06-07", Total: 4, Correct: 3, AccuracyPct: 75}},
		ConsistencyPct: 100,
	}

	var buf bytes.Buffer
	require.NoError(t, NewReporter(FormatConsole).WriteTrend(&buf, trend))
	assert.Contains(t, buf.String(), "Accuracy Trend (mlb, 7-day windows)")
	assert.Contains(t, buf.String(), "75.00%")

	buf.Reset()
	require.NoError(t, NewReporter(FormatCSV).WriteTrend(&buf, trend))
	assert.Contains(t, buf.String(), "2025-06-01,2025-06-07,4,3,75.00")

	out := ConsoleTrend(&Trend{Scope: "mlb", WindowDays: 7})
	assert.Contains(t, out, "No window had enough linked games.")
}
