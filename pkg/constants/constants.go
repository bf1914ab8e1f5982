// Package constants provides shared constants for the business-forecast application.
package constants

// DateTimeLayout is the month format accepted for the projection start month
// and used for month labels in output.
const DateTimeLayout = "2006-01"

// Horizon constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DefaultHorizonMonths is the reference projection horizon (3 years)
	DefaultHorizonMonths = 36

	// RunwayWindowMonths is the trailing window averaged to estimate burn
	RunwayWindowMonths = 12
)

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// DefaultFillRateBaseline is the fill rate (%) advertising revenue is normalized against
	DefaultFillRateBaseline = 65.0

	// DefaultCPMBaseline is the CPM advertising revenue is normalized against
	DefaultCPMBaseline = 22.0

	// PremiumUpliftFactor is the revenue uplift reached at 100% premium adoption
	PremiumUpliftFactor = 0.15

	// LTVFallbackMonths is the account lifetime assumed when churn is zero
	LTVFallbackMonths = 24.0

	// ImpressionsPerUsageUnit converts monthly impressions into inference usage units
	ImpressionsPerUsageUnit = 1000.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatXLSX is the Excel workbook output format
	OutputFormatXLSX = "xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultScenarioKey is the scenario used when none is requested
	DefaultScenarioKey = "base"
)

// Store constants
const (
	// StoreDriverMemory keeps versions in process memory
	StoreDriverMemory = "memory"

	// StoreDriverSQLite persists versions to a SQLite file
	StoreDriverSQLite = "sqlite"

	// StoreDriverPostgres persists versions to PostgreSQL
	StoreDriverPostgres = "postgres"

	// DefaultStorePath is the default SQLite database file
	DefaultStorePath = "forecast-versions.db"

	// DefaultStoreTimeoutSeconds bounds a single store call
	DefaultStoreTimeoutSeconds = 5

	// DefaultStoreRetries is the number of retries after a failed store call
	DefaultStoreRetries = 2

	// DefaultStoreBackoffMillis is the initial retry backoff
	DefaultStoreBackoffMillis = 100
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)
