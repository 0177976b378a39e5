// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Configuration is resolved once at startup and passed explicitly to
//   constructors; nothing reads the environment at call time.
// - External errors are wrapped with this package's sentinel errors.
package config

// Supported query store backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ServiceName is reported to tracing backends.
	ServiceName string `koanf:"service_name"`

	// StoreBackend selects the query store: dynamodb, sqlite or postgres.
	StoreBackend string `koanf:"store_backend"`

	// AWSRegion and DynamoDBEndpoint configure the DynamoDB client.
	// An empty endpoint uses the regional AWS endpoint.
	AWSRegion        string `koanf:"aws_region"`
	DynamoDBEndpoint string `koanf:"dynamodb_endpoint"`

	// SQLDSN is the data source name for the sqlite and postgres backends.
	SQLDSN string `koanf:"sql_dsn"`

	// SQLCreateTables creates missing tables on startup (sql backends only).
	SQLCreateTables bool `koanf:"sql_create_tables"`

	// Table and index names used by the query store.
	TableContributionsName string `koanf:"table_contributions_name"`
	TableScoresName        string `koanf:"table_scores_name"`
	TablePopularityName    string `koanf:"table_popularity_name"`
	ScoresIndexName        string `koanf:"scores_index_name"`
	PopularityIndexName    string `koanf:"popularity_index_name"`

	// MaxScoresLimit caps GET /scores?limit.
	MaxScoresLimit int `koanf:"max_scores_limit"`

	// SchemaDir optionally points at a directory of schema documents that
	// replace the embedded ones with the same id.
	SchemaDir string `koanf:"schema_dir"`

	// OTelEndpoint enables OTLP/HTTP trace export when set.
	OTelEndpoint string `koanf:"otel_endpoint"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		ServiceName:            "winner-api",
		StoreBackend:           BackendDynamoDB,
		AWSRegion:              "us-east-1",
		SQLDSN:                 "file:winner.db",
		TableContributionsName: "contributions",
		TableScoresName:        "scores",
		TablePopularityName:    "popularity",
		ScoresIndexName:        "ScoresByRole",
		PopularityIndexName:    "ProductsByCount",
		MaxScoresLimit:         100,
	}
}
