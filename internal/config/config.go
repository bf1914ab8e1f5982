// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/iwvelando/business-forecast/pkg/datetime"
	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/projection"
	"github.com/iwvelando/business-forecast/pkg/scenario"
	"github.com/iwvelando/business-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected for the projection start month.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for business-forecast.
type Configuration struct {
	Logging    LoggingConfig              `yaml:"logging,omitempty" mapstructure:"logging"`
	Output     OutputConfig               `yaml:"output,omitempty" mapstructure:"output"`
	Projection ProjectionConfig           `yaml:"projection" mapstructure:"projection"`
	Drivers    drivers.CalculationDrivers `yaml:"drivers" mapstructure:"drivers"`
	Scenarios  []scenario.Config          `yaml:"scenarios,omitempty" mapstructure:"scenarios"`
	Benchmarks BenchmarkConfig            `yaml:"benchmarks,omitempty" mapstructure:"benchmarks"`
	Store      StoreConfig                `yaml:"store,omitempty" mapstructure:"store"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, xlsx
}

// ProjectionConfig holds the horizon, optional calendar start and the
// advertising normalization baselines.
type ProjectionConfig struct {
	HorizonMonths int            `yaml:"horizonMonths" mapstructure:"horizonMonths"`
	StartMonth    string         `yaml:"startMonth,omitempty" mapstructure:"startMonth"`
	Baselines     BaselineConfig `yaml:"baselines" mapstructure:"baselines"`
}

// BaselineConfig holds the reference fill rate and CPM.
type BaselineConfig struct {
	FillRate float64 `yaml:"fillRate" mapstructure:"fillRate"`
	CPM      float64 `yaml:"cpm" mapstructure:"cpm"`
}

// BenchmarkConfig points at an optional TOML benchmark table.
type BenchmarkConfig struct {
	File string `yaml:"file,omitempty" mapstructure:"file"`
}

// StoreConfig selects and tunes the version snapshot store.
type StoreConfig struct {
	Driver       string        `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres
	Path         string        `yaml:"path,omitempty" mapstructure:"path"`
	DSN          string        `yaml:"dsn,omitempty" mapstructure:"dsn"`
	Timeout      time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	Retries      int           `yaml:"retries,omitempty" mapstructure:"retries"`
	RetryBackoff time.Duration `yaml:"retryBackoff,omitempty" mapstructure:"retryBackoff"`
}

// ResolvedDSN returns the configured DSN, falling back to DATABASE_URL.
func (s StoreConfig) ResolvedDSN() string {
	if s.DSN != "" {
		return s.DSN
	}
	return os.Getenv("DATABASE_URL")
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file is supplied.
func Default() *Configuration {
	conf, err := LoadConfigurationFromReader(bytes.NewReader(nil))
	if err != nil {
		// Defaults are static; failing to decode them is a programming error.
		panic(err)
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix("FORECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("projection.horizonMonths", constants.DefaultHorizonMonths)
	v.SetDefault("projection.startMonth", "")
	v.SetDefault("projection.baselines.fillRate", constants.DefaultFillRateBaseline)
	v.SetDefault("projection.baselines.cpm", constants.DefaultCPMBaseline)
	v.SetDefault("benchmarks.file", "")
	v.SetDefault("store.driver", constants.StoreDriverMemory)
	v.SetDefault("store.path", constants.DefaultStorePath)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.timeout", time.Duration(constants.DefaultStoreTimeoutSeconds)*time.Second)
	v.SetDefault("store.retries", constants.DefaultStoreRetries)
	v.SetDefault("store.retryBackoff", time.Duration(constants.DefaultStoreBackoffMillis)*time.Millisecond)

	// Each driver gets its own default so a file may override a subset.
	for key, value := range driverDefaults() {
		v.SetDefault("drivers."+key, value)
	}
	return v
}

func driverDefaults() map[string]interface{} {
	data, err := json.Marshal(drivers.Defaults())
	if err != nil {
		panic(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		panic(err)
	}
	return m
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if len(configuration.Scenarios) == 0 {
		configuration.Scenarios = scenario.DefaultConfigs()
	}
	return &configuration, nil
}

// ProjectionOptions converts the projection section into engine options.
func (conf *Configuration) ProjectionOptions() projection.Options {
	return projection.Options{
		HorizonMonths:    conf.Projection.HorizonMonths,
		FillRateBaseline: conf.Projection.Baselines.FillRate,
		CPMBaseline:      conf.Projection.Baselines.CPM,
	}
}

// ScenarioTable builds the scenario lookup table.
func (conf *Configuration) ScenarioTable() (*scenario.Table, error) {
	return scenario.NewTable(conf.Scenarios)
}

// Validate returns the first configuration error that prevents a projection.
func (conf *Configuration) Validate() error {
	opts := conf.ProjectionOptions()
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := conf.Drivers.Validate(opts.Years()); err != nil {
		return err
	}
	if _, err := conf.ScenarioTable(); err != nil {
		return err
	}
	if conf.Projection.StartMonth != "" {
		if _, err := datetime.MonthLabels(conf.Projection.StartMonth, 1); err != nil {
			return validation.Invalid("projection.startMonth", "%v", err)
		}
	}
	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		return err
	}
	switch conf.Store.Driver {
	case constants.StoreDriverMemory, constants.StoreDriverSQLite, constants.StoreDriverPostgres:
	default:
		return fmt.Errorf("unsupported store driver %q", conf.Store.Driver)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	active := 0
	hasDefault := false
	for _, sc := range conf.Scenarios {
		if sc.Active {
			active++
			if sc.ScenarioKey == constants.DefaultScenarioKey {
				hasDefault = true
			}
		} else {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' is inactive and will not be listed or projected", sc.ScenarioKey))
		}
	}
	if active == 0 {
		warnings = append(warnings, "No active scenarios are configured")
	} else if !hasDefault {
		warnings = append(warnings, fmt.Sprintf("No active '%s' scenario; commands without --scenario will fail", constants.DefaultScenarioKey))
	}

	if conf.Projection.Baselines.FillRate != constants.DefaultFillRateBaseline ||
		conf.Projection.Baselines.CPM != constants.DefaultCPMBaseline {
		warnings = append(warnings, fmt.Sprintf("Advertising baselines overridden (fill rate %v, CPM %v); results are not comparable with versions saved under other baselines",
			conf.Projection.Baselines.FillRate, conf.Projection.Baselines.CPM))
	}

	if conf.Store.Driver == constants.StoreDriverMemory {
		warnings = append(warnings, "Versions are kept in memory and are lost when the process exits")
	}
	return warnings
}
