package engine

import (
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

// Config holds the engine parameters for one backtest run. Configuration is
// passed explicitly into the core; the simulation never reads ambient state.
type Config struct {
	// StartingCash is the initial cash balance in the denomination asset.
	StartingCash float64 `yaml:"starting_cash" validate:"gt=0"`
	// CommissionRate is the commission charged per fill as a fraction of the
	// fill's notional value, e.g. 0.001 for 0.1%.
	CommissionRate float64 `yaml:"commission_rate" validate:"gte=0,lt=1"`
	// HPeriod is the rolling highest-high window of the KDJ indicator.
	HPeriod int `yaml:"h_period" validate:"gt=0"`
	// LPeriod is the rolling lowest-low window of the KDJ indicator.
	LPeriod int `yaml:"l_period" validate:"gt=0"`
	// EMAPeriod is the smoothing period for the K and D lines.
	EMAPeriod int `yaml:"ema_period" validate:"gt=0"`
	// RiskFreeRate is the per-period risk-free rate used by the Sharpe ratio.
	RiskFreeRate float64 `yaml:"risk_free_rate" validate:"gte=0"`
	// PeriodsPerYear is the annualization factor; crypto trades every day.
	PeriodsPerYear int `yaml:"periods_per_year" validate:"gt=0"`
}

// DefaultConfig returns the configuration matching the strategy defaults.
func DefaultConfig() Config {
	return Config{
		StartingCash:   100_000.0,
		CommissionRate: 0,
		HPeriod:        14,
		LPeriod:        14,
		EMAPeriod:      3,
		RiskFreeRate:   0,
		PeriodsPerYear: 365,
	}
}

// ParseConfig unmarshals a YAML document over the defaults and validates it.
func ParseConfig(content []byte) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(content, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks the configuration against its constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid engine config", err)
	}

	return nil
}
