package simulator

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// BalancePoint is the balance after a given bet; bet 0 is the start
type BalancePoint struct {
	Bet       int             `json:"bet"`
	EventDate string          `json:"event_date,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
}

// BalanceCurve is the ordered balance history of a run
type BalanceCurve []BalancePoint

// Values returns the bare balance sequence
func (c BalanceCurve) Values() []decimal.Decimal {
	values := make([]decimal.Decimal, len(c))
	for i, p := range c {
		values[i] = p.Balance
	}
	return values
}

// MaxDrawdownPct is the largest peak-to-trough fall as a percentage of the peak
func (c BalanceCurve) MaxDrawdownPct() float64 {
	if len(c) == 0 {
		return 0
	}
	peak := c[0].Balance
	worst := decimal.Zero
	hundred := decimal.NewFromInt(100)
	for _, p := range c {
		if p.Balance.GreaterThan(peak) {
			peak = p.Balance
		}
		if !peak.IsPositive() {
			continue
		}
		dd := peak.Sub(p.Balance).Div(peak).Mul(hundred)
		if dd.GreaterThan(worst) {
			worst = dd
		}
	}
	f, _ := worst.Round(4).Float64()
	return f
}

// ToCSV exports the curve for charting
func (c BalanceCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("bet,event_date,balance\n")
	for _, p := range c {
		buf.WriteString(strconv.Itoa(p.Bet))
		buf.WriteString(",")
		buf.WriteString(p.EventDate)
		buf.WriteString(",")
		buf.WriteString(p.Balance.StringFixed(2))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the curve as a JSON array
func (c BalanceCurve) ToJSON() string {
	data, _ := json.Marshal(c)
	return string(data)
}
