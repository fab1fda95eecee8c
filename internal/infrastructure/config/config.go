package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/cordon-zt/cordon/internal/shared/config"
)

// Config is the full broker configuration.
type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Auth     sharedConfig.AuthConfig     `mapstructure:"auth"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Presence sharedConfig.PresenceConfig `mapstructure:"presence"`
	Flow     sharedConfig.FlowConfig     `mapstructure:"flow"`
	Cluster  sharedConfig.ClusterConfig  `mapstructure:"cluster"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configuration from ./configs/config.yaml and CORDON_-prefixed
// environment variables. An env argument other than "default" overrides
// server.mode.
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("CORDON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine when env vars carry the config.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &cfg
	appConfigMu.Unlock()

	return &cfg, nil
}

// Get returns the loaded configuration, nil before Load.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.host", "127.0.0.1")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("auth.casbin_model_path", "./configs/rbac_model.conf")
	viper.SetDefault("auth.browser_exp_hours", 12)
	viper.SetDefault("auth.client_exp_hours", 24*30)
	viper.SetDefault("auth.service_exp_days", 365)

	viper.SetDefault("presence.relay_leave_debounce", 30*time.Second)

	viper.SetDefault("flow.sweep_interval", time.Hour)
	viper.SetDefault("flow.sweep_batch", 1000)

	viper.SetDefault("cluster.node_name", "cordon-1")
	viper.SetDefault("cluster.timezone", "UTC")
}

func validate(cfg *Config) error {
	if cfg.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is required")
	}
	if cfg.Database.Driver == "mysql" && cfg.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	return nil
}
