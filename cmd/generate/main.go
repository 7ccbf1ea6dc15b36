package main

import (
	"encoding/csv"
	"log"
	"os"
	"path/filepath"

	engine "github.com/fundquant/fund-backtest/internal/backtest/engine/engine_v1"
	"github.com/fundquant/fund-backtest/mocks"
)

// main writes the run-config JSON schema plus a sample NAV data file, so a
// new checkout has everything needed to run a first backtest.
func main() {
	var config engine.BacktestConfig

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	schemaName := "backtest-run-config.json"
	schemaPath := filepath.Join("./config", schemaName)
	dataPath := filepath.Join("./data", "sample_nav.csv")

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		log.Fatalf("Failed to create config directory: %v", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		log.Fatalf("Failed to write schema to file: %v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	if _, err := os.Stat(dataPath); os.IsNotExist(err) {
		if err := writeSampleNavData(dataPath); err != nil {
			log.Fatalf("Failed to write sample NAV data: %v", err)
		}

		log.Printf("Sample NAV data successfully generated at %s", dataPath)
	}
}

// writeSampleNavData generates two years of history for three funds with a
// fixed seed and writes it as CSV in the layout the NAV source expects.
func writeSampleNavData(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	gen := mocks.NewNavGenerator(42)
	config := mocks.DefaultNavConfig()
	config.Count = 504

	points := gen.GenerateMultiFund([]string{"000001", "000002", "000003"}, config)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"fund_code", "trading_date", "unit_nav", "accumulated_nav", "daily_change_rate"}); err != nil {
		return err
	}

	for _, p := range points {
		record := []string{
			p.FundCode,
			p.TradingDate.Format("2006-01-02"),
			p.UnitNav.String(),
			p.AccumulatedNav.String(),
			p.DailyChangeRate.String(),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}
