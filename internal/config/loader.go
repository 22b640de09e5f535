package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files.
// Required platform fields are validated by the commands that need them,
// so offline commands (list) still work without workspace credentials.
func Load() (*Config, error) {
	// Auto-load a .env file when present, matching how the job is run
	// locally during development.
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	v := viper.New()

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Optionally read from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	var cfg Config

	// Platform (ambient Databricks credentials)
	cfg.Platform.Host = v.GetString("databricks_host")
	cfg.Platform.Token = v.GetString("databricks_token")
	cfg.Platform.WarehouseID = v.GetString("databricks_warehouse_id")

	// Slack
	cfg.Slack.APIHost = v.GetString("slack_api_host")
	cfg.Slack.NotifyEmail = v.GetString("review_notify_email")
	cfg.Slack.TokenKey = v.GetString("slack_token_key")

	// Ledger
	cfg.Ledger.Path = v.GetString("ledger_path")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Sentry
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Environment = v.GetString("sentry_environment")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("databricks_host", "")
	v.SetDefault("databricks_token", "")
	v.SetDefault("databricks_warehouse_id", "")

	v.SetDefault("slack_api_host", "https://slack.com")
	v.SetDefault("review_notify_email", "brennan.beal@databricks.com")
	v.SetDefault("slack_token_key", "slack-bot-token")

	v.SetDefault("ledger_path", defaultLedgerPath())

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("sentry_dsn", "")
	v.SetDefault("sentry_environment", "production")
}

func defaultLedgerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "eval-review.db"
	}
	return filepath.Join(home, ".eval-review", "runs.db")
}
