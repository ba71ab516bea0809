package types

import (
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// EquityPoint is one point of the realized equity curve:
// total equity (cash + quantity held * close) at the end of a bar.
type EquityPoint struct {
	Time   time.Time `csv:"time" yaml:"time"`
	Equity float64   `csv:"equity" yaml:"equity"`
}

// AnnualReturn is the return of one calendar year present in the series,
// expressed as a fraction (0.5 = +50%).
type AnnualReturn struct {
	Year   int     `yaml:"year"`
	Return float64 `yaml:"return"`
}

// BacktestResult aggregates the outcome of one completed simulation pass.
// Created once at the end of a pass and immutable thereafter.
type BacktestResult struct {
	TokenTicker        string
	DenominationTicker string
	StrategyName       string
	// AnnualReturns is keyed by calendar year in chronological order.
	AnnualReturns []AnnualReturn
	// SharpeRatio is None when the daily return series has zero variance
	// (e.g. a pass with no trades).
	SharpeRatio optional.Option[float64]
	// MaxDrawDown is the maximum percentage decline from a running equity
	// peak, as a positive magnitude. Consumers negate it for display.
	MaxDrawDown float64
	FinalCash   float64
	WithGraphs  bool
	// ReportPath is set when the optional HTML report was rendered.
	ReportPath optional.Option[string]
	// EquityCurvePath is set when the equity curve CSV was written.
	EquityCurvePath optional.Option[string]
}

// Pair returns the trading pair in "token/denomination" form.
func (r BacktestResult) Pair() string {
	return fmt.Sprintf("%s/%s", r.TokenTicker, r.DenominationTicker)
}

// resultYAML mirrors BacktestResult with plain pointer optionals so the YAML
// output uses null for undefined values.
type resultYAML struct {
	TokenTicker        string         `yaml:"token_ticker"`
	DenominationTicker string         `yaml:"denomination_ticker"`
	StrategyName       string         `yaml:"strategy_name"`
	AnnualReturns      []AnnualReturn `yaml:"annual_returns"`
	SharpeRatio        *float64       `yaml:"sharpe_ratio"`
	MaxDrawDown        float64        `yaml:"max_draw_down"`
	FinalCash          float64        `yaml:"final_cash"`
	ReportPath         *string        `yaml:"report_path,omitempty"`
	EquityCurvePath    *string        `yaml:"equity_curve_path,omitempty"`
}

// MarshalYAML implements custom marshaling for BacktestResult.
func (r BacktestResult) MarshalYAML() (interface{}, error) {
	out := resultYAML{
		TokenTicker:        r.TokenTicker,
		DenominationTicker: r.DenominationTicker,
		StrategyName:       r.StrategyName,
		AnnualReturns:      r.AnnualReturns,
		SharpeRatio:        nil,
		MaxDrawDown:        r.MaxDrawDown,
		FinalCash:          r.FinalCash,
		ReportPath:         nil,
		EquityCurvePath:    nil,
	}

	if r.SharpeRatio.IsSome() {
		sharpe := r.SharpeRatio.Unwrap()
		out.SharpeRatio = &sharpe
	}

	if r.ReportPath.IsSome() {
		path := r.ReportPath.Unwrap()
		out.ReportPath = &path
	}

	if r.EquityCurvePath.IsSome() {
		path := r.EquityCurvePath.Unwrap()
		out.EquityCurvePath = &path
	}

	return out, nil
}

// WriteBacktestResults writes the aggregated results of a run to a YAML file.
func WriteBacktestResults(path string, results []BacktestResult) error {
	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest results to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest results to file: %w", err)
	}

	return nil
}
