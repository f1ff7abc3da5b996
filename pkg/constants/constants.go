// Package constants provides shared constants for the bizcalc application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPlaces is the number of decimal places kept for currency values
	DecimalPlaces = 2

	// DefaultDaysInYear is the day-count basis used when none is configured
	DefaultDaysInYear = 365

	// BankersDaysInYear is the alternative 360-day basis
	BankersDaysInYear = 360

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// WeightTolerance is the allowed deviation of a QSPM weight group from 1.0
	WeightTolerance = 0.01
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the indented JSON output format
	OutputFormatJSON = "json"

	// OutputFormatXLSX is the spreadsheet output format with native charts
	OutputFormatXLSX = "xlsx"
)

// OutputFormats lists every supported output format.
var OutputFormats = []string{OutputFormatPretty, OutputFormatCSV, OutputFormatJSON, OutputFormatXLSX}

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "bizcalc.yaml"

	// EnvPrefix prefixes environment variable overrides (BIZCALC_SERVER_ADDRESS)
	EnvPrefix = "BIZCALC"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// MetricsNamespace prefixes the prometheus metrics exported by the server
	MetricsNamespace = "bizcalc"
)
