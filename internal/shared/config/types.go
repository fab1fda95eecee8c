// Package config defines the configuration structures shared across layers.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"` // debug, release
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GetAddr returns the host:port listen address.
func (c ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // mysql, sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console, json
	OutputPath string `mapstructure:"output_path"`
}

// RedisConfig holds Redis connection settings for the pubsub bus and the
// replicated presence cache.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	TokenSecret       string `mapstructure:"token_secret"`
	CasbinModelPath   string `mapstructure:"casbin_model_path"`
	BrowserExpHours   int    `mapstructure:"browser_exp_hours"`
	ClientExpHours    int    `mapstructure:"client_exp_hours"`
	ServiceExpDays    int    `mapstructure:"service_exp_days"`
	GatewayGroupNoExp bool   `mapstructure:"gateway_group_no_exp"`
}

// PresenceConfig holds presence registry settings.
type PresenceConfig struct {
	// RelayLeaveDebounce delays a relay leave so transient network blips do
	// not churn the relay set that gateways and clients pin secrets to.
	RelayLeaveDebounce time.Duration `mapstructure:"relay_leave_debounce"`
}

// FlowConfig holds flow lifecycle settings.
type FlowConfig struct {
	// SweepInterval is how often expired flow rows are deleted. The lazy
	// expires_at check at read time is the correctness boundary; the sweep
	// is storage hygiene only.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SweepBatch    int           `mapstructure:"sweep_batch"`
}

// ClusterConfig identifies this node in the cluster.
type ClusterConfig struct {
	NodeName string `mapstructure:"node_name"`
	Timezone string `mapstructure:"timezone"`
}
