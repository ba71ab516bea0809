package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	backtestengine "github.com/rxtech-lab/momentum-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/momentum-backtest/internal/config"
	"github.com/rxtech-lab/momentum-backtest/internal/logger"
	"github.com/rxtech-lab/momentum-backtest/internal/runner"
	"github.com/rxtech-lab/momentum-backtest/pkg/marketdata"
)

const (
	defaultReportsDir  = "./reports"
	defaultResultsPath = "results.yaml"
	defaultLogsDir     = "logs"
)

// backtestAction is the core logic executed by the CLI command. It wires the
// environment, the data provider and the runner, then starts the session.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	env := config.LoadEnv()

	log, err := newLogger(env)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = log.Sync() }()

	providerType := marketdata.ProviderType(strings.ToLower(cmd.String("data-provider")))

	provider, err := marketdata.NewMarketDataProvider(providerType, marketdata.ProviderConfig{
		DenominationTicker: cmd.String("denomination-ticker"),
		BinanceAPIKey:      env.BinanceAPIKey,
		BinanceAPISecret:   env.BinanceAPISecret,
		PolygonAPIKey:      env.PolygonAPIKey,
	}, log)
	if err != nil {
		return err
	}

	log.Info("Using data provider", zap.String("provider", string(provider.Name())))

	engineConfig := backtestengine.DefaultConfig()
	engineConfig.StartingCash = cmd.Float("starting-cash")
	engineConfig.CommissionRate = cmd.Float("commission")

	backtestRunner, err := runner.NewRunner(runner.Options{
		TokenTickers:  cmd.StringSlice("token-tickers"),
		StrategyNames: cmd.StringSlice("use-strategies"),
		LookbackDays:  int(cmd.Int("lookback-days")),
		EngineConfig:  engineConfig,
		WithGraphs:    cmd.Bool("with-graphs"),
		ReportsDir:    defaultReportsDir,
		ResultsPath:   cmd.String("results"),
	}, provider, log)
	if err != nil {
		return err
	}

	if _, err := backtestRunner.Run(ctx); err != nil {
		return err
	}

	return nil
}

func newLogger(env config.Env) (*logger.Logger, error) {
	level := zap.InfoLevel
	if env.LoggingDebug {
		level = zap.DebugLevel
	}

	if env.LogToFile {
		log, path, err := logger.NewFileLogger(level, defaultLogsDir)
		if err != nil {
			return nil, err
		}

		log.Info("Logging to file", zap.String("path", path))

		return log, nil
	}

	if env.LoggingDebug {
		return logger.NewDebugLogger()
	}

	return logger.NewLogger()
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Backtest momentum strategies over crypto token OHLCV data",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "token-tickers",
				Aliases: []string{"tt"},
				Usage:   "Token tickers to backtest, e.g. uni, 1inch",
				Value:   runner.DefaultTokenTickers,
			},
			&cli.StringSliceFlag{
				Name:     "use-strategies",
				Aliases:  []string{"us"},
				Usage:    "Strategy names to backtest with",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "data-provider",
				Aliases: []string{"dp"},
				Usage:   fmt.Sprintf("Data provider name (one of: %s)", strings.Join(marketdata.GetSupportedProviders(), ", ")),
				Value:   string(marketdata.ProviderBinance),
			},
			&cli.StringFlag{
				Name:  "denomination-ticker",
				Usage: "Quote asset the pairs are priced in",
				Value: marketdata.DefaultDenominationTicker,
			},
			&cli.BoolFlag{
				Name:    "with-graphs",
				Aliases: []string{"wg"},
				Usage:   "Render HTML reports and equity curve CSVs",
				Value:   false,
			},
			&cli.FloatFlag{
				Name:  "starting-cash",
				Usage: "Initial cash balance per backtest",
				Value: 100_000,
			},
			&cli.FloatFlag{
				Name:  "commission",
				Usage: "Commission rate per fill as a fraction, e.g. 0.001",
				Value: 0,
			},
			&cli.IntFlag{
				Name:  "lookback-days",
				Usage: "Bound on fetched history in days; 0 fetches everything",
				Value: 0,
			},
			&cli.StringFlag{
				Name:  "results",
				Usage: "Path of the aggregated results YAML",
				Value: defaultResultsPath,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
