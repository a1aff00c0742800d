package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the name of the config file looked up in the config dir.
const FileName = "objmap.cfg.json"

// SearchConfig holds the search tuning knobs.
type SearchConfig struct {
	Debounce   time.Duration `json:"debounce" mapstructure:"debounce"`
	MaxResults int           `json:"maxResults" mapstructure:"maxResults"`
}

// SetDefaults registers default values for every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./objmaplogs")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.queueSize", 256)

	viper.SetDefault("radar.url", "http://localhost:3008")
	viper.SetDefault("radar.timeout", "30s")

	viper.SetDefault("data.mapSummary", "./game_files/map_summary/MainField/static.json")

	viper.SetDefault("search.debounce", "200ms")
	viper.SetDefault("search.maxResults", 2000)

	viper.SetDefault("db.type", "sqlite")
	viper.SetDefault("db.path", "./objmap.db")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "objmap")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "objmap-metrics")
	viper.SetDefault("influx.bucket", "objmap-searches")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load reads configuration from the JSON file in configDir on top of the
// defaults.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Search returns the search settings.
func Search() (SearchConfig, error) {
	var cfg SearchConfig
	if err := viper.UnmarshalKey("search", &cfg); err != nil {
		return SearchConfig{}, fmt.Errorf("invalid search config: %w", err)
	}
	return cfg, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
