package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig
	Cron     CronConfig
	Log      LogConfig
	TMDB     TMDBConfig
	Webhook  WebhookConfig
	API      APIConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
}

type DatabaseConfig struct {
	URI            string
	EnableUnaccent bool
}

// CronConfig holds the four schedule strings. Each is either a 5-field CRON
// expression or a disable token ("", "false", "off", "disable", "disabled",
// "no", any case).
type CronConfig struct {
	FullSweep   string
	MissingOnly string
	Prune       string
	ChangesSync string
}

type LogConfig struct {
	ToConsole bool
	Level     int
}

type TMDBConfig struct {
	ReadAccessToken string
	RateLimit       int
	MaxConnections  int
	BatchInsert     int
}

type WebhookConfig struct {
	Enabled bool
	BotUser string
	BotPass string
	URL     string
}

type APIConfig struct {
	Enabled bool
	Port    string
	Key     string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	ExportTTLSecs int
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

// Load reads configuration from the environment (and a .env file if one
// exists). Missing mandatory keys are returned as an error so the process
// can exit non-zero at startup.
func Load() (*Config, error) {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("CRON_FULL_SWEEP", "")
		viper.SetDefault("CRON_MISSING_ONLY", "")
		viper.SetDefault("CRON_PRUNE", "")
		viper.SetDefault("CRON_CHANGES_SYNC", "")
		viper.SetDefault("LOG_TO_CONSOLE", true)
		viper.SetDefault("LOG_LVL", 20)
		viper.SetDefault("TMDB_RATE_LIMIT", 45)
		viper.SetDefault("TMDB_MAX_CONNECTIONS", 20)
		viper.SetDefault("TMDB_BATCH_INSERT", 5000)
		viper.SetDefault("WEBHOOK_ENABLED", false)
		viper.SetDefault("API_ENABLED", false)
		viper.SetDefault("API_PORT", "8085")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_EXPORT_TTL_SECONDS", 86400)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Database: DatabaseConfig{
				URI:            viper.GetString("DATABASE_URI"),
				EnableUnaccent: viper.GetBool("ENABLE_UNACCENT"),
			},
			Cron: CronConfig{
				FullSweep:   viper.GetString("CRON_FULL_SWEEP"),
				MissingOnly: viper.GetString("CRON_MISSING_ONLY"),
				Prune:       viper.GetString("CRON_PRUNE"),
				ChangesSync: viper.GetString("CRON_CHANGES_SYNC"),
			},
			Log: LogConfig{
				ToConsole: viper.GetBool("LOG_TO_CONSOLE"),
				Level:     viper.GetInt("LOG_LVL"),
			},
			TMDB: TMDBConfig{
				ReadAccessToken: viper.GetString("TMDB_READ_ACCESS_TOKEN"),
				RateLimit:       viper.GetInt("TMDB_RATE_LIMIT"),
				MaxConnections:  viper.GetInt("TMDB_MAX_CONNECTIONS"),
				BatchInsert:     viper.GetInt("TMDB_BATCH_INSERT"),
			},
			Webhook: WebhookConfig{
				Enabled: viper.GetBool("WEBHOOK_ENABLED"),
				BotUser: viper.GetString("WEBHOOK_BOT_USR"),
				BotPass: viper.GetString("WEBHOOK_BOT_PW"),
				URL:     viper.GetString("WEBHOOK_URL"),
			},
			API: APIConfig{
				Enabled: viper.GetBool("API_ENABLED"),
				Port:    viper.GetString("API_PORT"),
				Key:     viper.GetString("API_KEY"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				ExportTTLSecs: viper.GetInt("CACHE_EXPORT_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
		}

		loadErr = instance.validate()
	})

	return instance, loadErr
}

func (c *Config) validate() error {
	if c.Database.URI == "" {
		return fmt.Errorf("DATABASE_URI must be set")
	}
	if c.TMDB.ReadAccessToken == "" {
		return fmt.Errorf("TMDB_READ_ACCESS_TOKEN must be set")
	}
	if c.TMDB.RateLimit <= 0 || c.TMDB.RateLimit > 50 {
		return fmt.Errorf("TMDB_RATE_LIMIT must be between 1 and 50, got %d", c.TMDB.RateLimit)
	}
	if c.TMDB.MaxConnections <= 0 {
		return fmt.Errorf("TMDB_MAX_CONNECTIONS must be positive, got %d", c.TMDB.MaxConnections)
	}
	if c.TMDB.BatchInsert <= 0 {
		return fmt.Errorf("TMDB_BATCH_INSERT must be positive, got %d", c.TMDB.BatchInsert)
	}
	if c.Webhook.Enabled && (c.Webhook.URL == "" || c.Webhook.BotUser == "" || c.Webhook.BotPass == "") {
		return fmt.Errorf("WEBHOOK_ENABLED requires WEBHOOK_URL, WEBHOOK_BOT_USR and WEBHOOK_BOT_PW")
	}
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		return fmt.Errorf("ARCHIVE_ENABLED requires ARCHIVE_ENDPOINT and ARCHIVE_BUCKET")
	}
	return nil
}
