package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/fundquant/fund-backtest/internal/strategy"
	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

const (
	// DateLayout is the wire format for dates in run configurations.
	DateLayout = "2006-01-02"

	// MaxBacktestYears bounds the simulated date span.
	MaxBacktestYears = 5
)

var validate = validator.New()

// BacktestEngineV1Config is the engine-level configuration, set once at
// Initialize. Per-run settings live in BacktestConfig.
type BacktestEngineV1Config struct {
	RiskFreeRate   float64                 `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annual risk-free rate used by Sharpe and Sortino ratios,default=0.03"`
	PersistResults bool                    `yaml:"persist_results" json:"persist_results" jsonschema:"title=Persist Results,description=Whether to save run results into the result store"`
	BenchmarkFund  optional.Option[string] `yaml:"benchmark_fund" json:"benchmark_fund" jsonschema:"title=Benchmark Fund,description=Optional fund code whose NAV series serves as the benchmark for alpha and beta"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type plain struct {
		RiskFreeRate   *float64 `yaml:"risk_free_rate"`
		PersistResults bool     `yaml:"persist_results"`
		BenchmarkFund  *string  `yaml:"benchmark_fund"`
	}

	var config plain
	if err := value.Decode(&config); err != nil {
		return err
	}

	c.RiskFreeRate = 0.03
	if config.RiskFreeRate != nil {
		c.RiskFreeRate = *config.RiskFreeRate
	}

	c.PersistResults = config.PersistResults

	if config.BenchmarkFund != nil {
		c.BenchmarkFund = optional.Some(*config.BenchmarkFund)
	} else {
		c.BenchmarkFund = optional.None[string]()
	}

	return nil
}

// EmptyConfig returns a BacktestEngineV1Config with default values.
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		RiskFreeRate:   0.03,
		PersistResults: false,
		BenchmarkFund:  optional.None[string](),
	}
}

// BacktestConfig describes a single backtest run.
type BacktestConfig struct {
	StrategyType   types.StrategyType `yaml:"strategy_type" json:"strategy_type" jsonschema:"title=Strategy Type,description=Which investment strategy to simulate"`
	StrategyParams strategy.Params    `yaml:"-" json:"-"`
	FundCodes      []string           `yaml:"fund_codes" json:"fund_codes" jsonschema:"title=Fund Codes,description=Funds included in the portfolio"`
	StartDate      time.Time          `yaml:"start_date" json:"start_date" jsonschema:"title=Start Date,description=First day of the simulated range (YYYY-MM-DD)"`
	EndDate        time.Time          `yaml:"end_date" json:"end_date" jsonschema:"title=End Date,description=Last day of the simulated range (YYYY-MM-DD)"`
	InitialAmount  float64            `yaml:"initial_amount" json:"initial_amount" jsonschema:"title=Initial Amount,description=Starting cash,minimum=0"`
	Frequency      types.Frequency    `yaml:"frequency" json:"frequency" jsonschema:"title=Frequency,description=Investment schedule frequency"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestConfig. Dates are
// decoded from YYYY-MM-DD strings and strategy_params is decoded into the
// concrete parameter type selected by strategy_type.
func (c *BacktestConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain struct {
		StrategyType   types.StrategyType `yaml:"strategy_type"`
		StrategyParams yaml.Node          `yaml:"strategy_params"`
		FundCodes      []string           `yaml:"fund_codes"`
		StartDate      string             `yaml:"start_date"`
		EndDate        string             `yaml:"end_date"`
		InitialAmount  float64            `yaml:"initial_amount"`
		Frequency      types.Frequency    `yaml:"frequency"`
	}

	var config plain
	if err := value.Decode(&config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode run configuration", err)
	}

	c.StrategyType = config.StrategyType
	c.FundCodes = config.FundCodes
	c.InitialAmount = config.InitialAmount
	c.Frequency = config.Frequency

	if config.StartDate != "" {
		start, err := time.Parse(DateLayout, config.StartDate)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid start_date %q", config.StartDate)
		}

		c.StartDate = start
	}

	if config.EndDate != "" {
		end, err := time.Parse(DateLayout, config.EndDate)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid end_date %q", config.EndDate)
		}

		c.EndDate = end
	}

	if !c.StrategyType.IsValid() {
		return errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy type %q", config.StrategyType)
	}

	var paramsNode *yaml.Node
	if config.StrategyParams.Kind != 0 {
		paramsNode = &config.StrategyParams
	}

	params, err := strategy.DecodeParams(c.StrategyType, paramsNode)
	if err != nil {
		return err
	}

	c.StrategyParams = params

	return nil
}

// isFundCode reports whether code is a 6-digit fund identifier.
func isFundCode(code string) bool {
	if len(code) != 6 {
		return false
	}

	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// Validate checks the run configuration against the engine's constraints.
func (c *BacktestConfig) Validate() error {
	if !c.StrategyType.IsValid() {
		return errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy type %q", c.StrategyType)
	}

	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return errors.New(errors.ErrCodeInvalidDateRange, "start_date and end_date are required")
	}

	if !c.StartDate.Before(c.EndDate) {
		return errors.Newf(errors.ErrCodeInvalidDateRange, "start_date %s must be before end_date %s",
			c.StartDate.Format(DateLayout), c.EndDate.Format(DateLayout))
	}

	if c.EndDate.After(c.StartDate.AddDate(MaxBacktestYears, 0, 0)) {
		return errors.Newf(errors.ErrCodeDateSpanTooLong, "date span exceeds %d years", MaxBacktestYears)
	}

	if c.InitialAmount <= 0 {
		return errors.Newf(errors.ErrCodeInvalidInitialAmount, "initial_amount must be positive, got %v", c.InitialAmount)
	}

	if len(c.FundCodes) == 0 {
		return errors.New(errors.ErrCodeNoFundCodes, "fund_codes must not be empty")
	}

	for _, code := range c.FundCodes {
		if !isFundCode(code) {
			return errors.Newf(errors.ErrCodeInvalidFundCode, "fund code %q must be a 6-digit string", code)
		}
	}

	if !c.Frequency.IsValid() {
		return errors.Newf(errors.ErrCodeInvalidFrequency, "unknown frequency %q", c.Frequency)
	}

	if c.StrategyParams == nil {
		return errors.New(errors.ErrCodeStrategyParams, "strategy parameters are required")
	}

	if err := c.StrategyParams.Validate(); err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "configuration validation failed", err)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the run configuration.
func (c *BacktestConfig) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Time{}) {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date",
				}
			}

			if t.String() == "types.StrategyType" {
				return &jsonschema.Schema{
					Type: "string",
					Enum: strategyTypeEnum(),
				}
			}

			if t.String() == "types.Frequency" {
				return &jsonschema.Schema{
					Type: "string",
					Enum: frequencyEnum(),
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-run-config"
	schema.Description = "Configuration schema for a single backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the run configuration.
func (c *BacktestConfig) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func strategyTypeEnum() []any {
	var out []any
	for _, s := range types.AllStrategyTypes {
		out = append(out, string(s))
	}

	return out
}

func frequencyEnum() []any {
	var out []any
	for _, f := range types.AllFrequencies {
		out = append(out, string(f))
	}

	return out
}
