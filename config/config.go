package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "PAYMENTS"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	Mode              string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // memory, sqlite, postgres
	DSN             string        `mapstructure:"dsn"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type GatewayConfig struct {
	Mode     string            `mapstructure:"mode"` // mock or http
	Endpoint string            `mapstructure:"endpoint"`
	Token    string            `mapstructure:"token"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	Mock     MockGatewayConfig `mapstructure:"mock"`
}

type MockGatewayConfig struct {
	DeclinedAccounts []string `mapstructure:"declined_accounts"`
	MaxAmount        string   `mapstructure:"max_amount"` // decimal, empty means unlimited
}

type AuthConfig struct {
	JWTSecret       string   `mapstructure:"jwt_secret"`
	ProtectedRoutes []string `mapstructure:"protected_routes"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_header_timeout", 5*time.Second)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Duration(0))

	v.SetDefault("gateway.mode", "mock")
	v.SetDefault("gateway.endpoint", "http://localhost:9090/transfers")
	v.SetDefault("gateway.token", "")
	v.SetDefault("gateway.timeout", 10*time.Second)
	v.SetDefault("gateway.mock.declined_accounts", []string{})
	v.SetDefault("gateway.mock.max_amount", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.protected_routes", []string{})

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.development", false)
}

// Load reads defaults, then the optional YAML file at path, then PAYMENTS_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "Failed read config %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "Failed unmarshal config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.Errorf("config: unknown server.mode %q", c.Server.Mode)
	}
	switch c.Database.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return errors.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		return errors.Errorf("config: database.dsn is required for driver %q", c.Database.Driver)
	}
	switch c.Gateway.Mode {
	case "mock":
	case "http":
		if c.Gateway.Endpoint == "" {
			return errors.New("config: gateway.endpoint is required in http mode")
		}
	default:
		return errors.Errorf("config: unknown gateway.mode %q", c.Gateway.Mode)
	}
	if len(c.Auth.ProtectedRoutes) > 0 && c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret is required when auth.protected_routes is set")
	}
	if c.Gateway.Timeout <= 0 {
		return errors.New("config: gateway.timeout must be positive")
	}
	return nil
}
