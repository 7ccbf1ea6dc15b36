package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/fundquant/fund-backtest/internal/backtest/engine"
	enginev1 "github.com/fundquant/fund-backtest/internal/backtest/engine/engine_v1"
	"github.com/fundquant/fund-backtest/internal/backtest/engine/engine_v1/navsource"
	"github.com/fundquant/fund-backtest/internal/logger"
	"github.com/fundquant/fund-backtest/internal/types"
)

// runAction executes a single backtest run from config files on disk.
func runAction(ctx context.Context, cmd *cli.Command) error {
	engineConfigPath := cmd.String("engine-config")
	runConfigPath := cmd.String("config")
	dataPath := cmd.String("data")
	resultsFolder := cmd.String("output")

	engineConfig := ""

	if engineConfigPath != "" {
		content, err := os.ReadFile(engineConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read engine config: %w", err)
		}

		engineConfig = string(content)
	}

	runConfig, err := os.ReadFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("failed to read run config: %w", err)
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	source, err := navsource.NewDuckDBNavSource(":memory:", log)
	if err != nil {
		return fmt.Errorf("failed to create NAV source: %w", err)
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to load NAV data: %w", err)
	}

	backtester := enginev1.NewBacktestEngineV1()
	defer backtester.Close()

	if err := backtester.Initialize(engineConfig); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	if err := backtester.SetNavSource(source); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(resultsFolder); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(runID string, strategyType types.StrategyType, totalDays int) error {
		bar = progressbar.NewOptions(totalDays,
			progressbar.OptionSetDescription(fmt.Sprintf("%s %s", strategyType, runID[:8])),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onProcessData := engine.OnProcessDataCallback(func(current, total int) error {
		if bar != nil {
			return bar.Set(current)
		}

		return nil
	})
	onRunEnd := engine.OnRunEndCallback(func(runID string, summary *types.RunSummary) {
		if bar != nil {
			_ = bar.Finish()

			fmt.Fprintln(os.Stderr)
		}
	})

	summary, err := backtester.RunBacktest(ctx, string(runConfig), engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	})
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if resultsFolder != "" {
		if err := os.MkdirAll(resultsFolder, 0755); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}

		summaryPath := filepath.Join(resultsFolder, "summary.yaml")
		if err := types.WriteSummary(summaryPath, summary); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if !summary.Success {
		return fmt.Errorf("run failed: %s", summary.Error)
	}

	fmt.Printf("Run %s completed in %s\n", summary.ResultID, summary.Duration)

	if summary.Summary != nil {
		fmt.Printf("Invested %s, final value %s (%.2f%% total return)\n",
			summary.Summary.TotalInvested.StringFixed(2),
			summary.Summary.FinalValue.StringFixed(2),
			summary.Summary.TotalReturn*100)
	}

	return nil
}

// schemaAction prints the JSON schema of the run configuration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	backtester := enginev1.NewBacktestEngineV1()

	schema, err := backtester.GetConfigSchema()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay fund NAV history against an investment strategy",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run a backtest from configuration files",
				Action: runAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the run configuration YAML",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "engine-config",
						Usage:   "Path to the engine configuration YAML",
						Aliases: []string{"e"},
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the NAV data file (CSV or parquet)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Folder for reports and exported results",
						Value:   "results",
					},
				},
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the run configuration",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
