package config

// Config holds all configuration for the review job
type Config struct {
	Platform PlatformConfig
	Slack    SlackConfig
	Ledger   LedgerConfig
	Log      LogConfig
	Sentry   SentryConfig
}

// PlatformConfig holds connection settings for the Databricks workspace
// hosting the trace store, managed datasets, and labeling sessions.
type PlatformConfig struct {
	Host        string `mapstructure:"host" validate:"required,url"`
	Token       string `mapstructure:"token" validate:"required"`
	WarehouseID string `mapstructure:"warehouse_id" validate:"required"`
}

// SlackConfig holds Slack notification settings. The bot token itself is
// never configured here; it is read from the workspace secret scope at
// notification time.
type SlackConfig struct {
	APIHost     string `mapstructure:"api_host"`
	NotifyEmail string `mapstructure:"notify_email"`
	TokenKey    string `mapstructure:"token_key"`
}

// LedgerConfig holds settings for the local run ledger
type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}
