package metrics

import "github.com/prometheus/client_golang/prometheus"

// Simulation counter vectors
var (
	SimulationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulation_runs_total",
		Help:      "Total number of bankroll simulations by sport and final state",
	}, []string{"sport", "final_state"})
)

// Simulation gauge vectors
var (
	SimulationFinalBalance = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "simulation_final_balance",
		Help:      "Final balance of the latest simulation per sport and market",
	}, []string{"sport", "market_kind"})
	SimulationReturnPct = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "simulation_return_pct",
		Help:      "Percentage return of the latest simulation per sport and market",
	}, []string{"sport", "market_kind"})
)

// RecordSimulationRun records a finished simulation.
// finalState is one of COMPLETED, STOPPED_INSUFFICIENT_FUNDS, STOPPED_MAX_BETS.
func RecordSimulationRun(sport, marketKind, finalState string, finalBalance, pctReturn float64) {
	SimulationRunsTotal.WithLabelValues(sport, finalState).Inc()
	SimulationFinalBalance.WithLabelValues(sport, marketKind).Set(finalBalance)
	SimulationReturnPct.WithLabelValues(sport, marketKind).Set(pctReturn)
}
