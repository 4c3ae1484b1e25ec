package simulator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josema3054/predicciones-deportivas/internal/config"
)

// Config holds the parameters of a bankroll simulation
type Config struct {
	InitialBalance decimal.Decimal
	Stake          decimal.Decimal
	// Payout is the multiplier credited on a win, stake included (1.8 returns 36 on 20)
	Payout decimal.Decimal
	// Threshold is the inclusive minimum dominant percentage to bet on
	Threshold int
	// MaxBets caps the number of bets; 0 means no cap
	MaxBets int
}

// FromConfig converts app config to simulation config
func FromConfig(cfg *config.SimulationConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("simulation config is required")
	}
	sc := Config{
		InitialBalance: decimal.NewFromFloat(cfg.InitialBalance),
		Stake:          decimal.NewFromFloat(cfg.Stake),
		Payout:         decimal.NewFromFloat(cfg.Payout),
		Threshold:      cfg.Threshold,
		MaxBets:        cfg.MaxBets,
	}
	return sc, sc.Validate()
}

// Validate validates simulation parameters
func (c Config) Validate() error {
	if !c.InitialBalance.IsPositive() {
		return fmt.Errorf("initial balance must be positive")
	}
	if !c.Stake.IsPositive() {
		return fmt.Errorf("stake must be positive")
	}
	if !c.Payout.IsPositive() {
		return fmt.Errorf("payout multiplier must be positive")
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("threshold must be between 0 and 100")
	}
	if c.MaxBets < 0 {
		return fmt.Errorf("max bets cannot be negative")
	}
	return nil
}
