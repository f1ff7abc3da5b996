// Package config defines the configuration structures and loads them from a
// YAML file, a .env file and BIZCALC_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/constants"
	"github.com/iwvelando/bizcalc/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration holds all configuration for bizcalc.
type Configuration struct {
	Baseline baseline.Params `mapstructure:"baseline" yaml:"baseline"`
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging,omitempty"`
	Output   OutputConfig    `mapstructure:"output" yaml:"output,omitempty"`
	Server   ServerConfig    `mapstructure:"server" yaml:"server,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json, xlsx
}

// LoadEnvFile loads variables from a .env file into the environment without
// overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading env file %s: %w", path, err)
	}
	return nil
}

// LoadConfiguration loads the YAML configuration at configPath. An empty path
// reads the default file when present and falls back to defaults otherwise.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	path := configPath
	if path == "" {
		path = constants.DefaultConfigFile
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return decode(v)
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

// Default returns the configuration used when nothing is configured.
func Default() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Defaults are static and always valid.
		panic(err)
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range baseline.Defaults().Map() {
		v.SetDefault("baseline."+key, value)
	}
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", constants.DefaultMaxUploadSizeBytes)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		byteSizeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&configuration, hooks); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := configuration.Baseline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid baseline configuration: %w", err)
	}
	if err := validation.ValidateOutputFormat(configuration.Output.Format); err != nil {
		return nil, fmt.Errorf("invalid output configuration: %w", err)
	}
	if configuration.Server.Address == "" {
		configuration.Server.Address = constants.DefaultServerAddress
	}
	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings for settings that are legal but probably unintended.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	b := c.Baseline

	if b.PricePerUnit <= b.VariableCostPerUnit {
		warnings = append(warnings, fmt.Sprintf(
			"baseline pricePerUnit (%.2f) does not exceed variableCostPerUnit (%.2f); break-even defaults will be rejected",
			b.PricePerUnit, b.VariableCostPerUnit))
	}
	if b.WACC == 0 {
		warnings = append(warnings, "baseline wacc is 0; discounted values will equal nominal values")
	}
	if b.COGS > b.AnnualRevenue {
		warnings = append(warnings, fmt.Sprintf(
			"baseline cogs (%.2f) exceeds annualRevenue (%.2f)", b.COGS, b.AnnualRevenue))
	}
	if implied := b.PricePerUnit * b.AnnualUnits; b.AnnualRevenue > 0 && implied > 0 {
		if diff := (implied - b.AnnualRevenue) / b.AnnualRevenue; diff > 0.05 || diff < -0.05 {
			warnings = append(warnings, fmt.Sprintf(
				"baseline annualRevenue (%.2f) differs from pricePerUnit x annualUnits (%.2f) by more than 5%%",
				b.AnnualRevenue, implied))
		}
	}
	if c.Server.UploadSizeBytes() < 1024 {
		warnings = append(warnings, fmt.Sprintf(
			"server maxUploadSize of %d bytes is too small for most requests", c.Server.UploadSizeBytes()))
	}
	return warnings
}

// MarshalBaseline renders p as a YAML baseline section ready to paste into a
// configuration file.
func MarshalBaseline(p baseline.Params) ([]byte, error) {
	out, err := yaml.Marshal(struct {
		Baseline baseline.Params `yaml:"baseline"`
	}{Baseline: p})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal baseline: %w", err)
	}
	return out, nil
}
