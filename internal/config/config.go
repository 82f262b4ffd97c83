package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/krobus00/market-feed-ingestor/internal/constant"
	"github.com/krobus00/market-feed-ingestor/internal/entity"
	"github.com/spf13/viper"
)

var (
	ServiceName    = "market-feed-ingestor"
	ServiceVersion = ""
)

var (
	Env *EnvConfig
)

const (
	DefaultPingInterval     = 20 * time.Second
	DefaultPongTimeout      = 40 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReconnectDelay   = 3 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultMaxFrameSize     = 4 << 20

	ReconnectStrategyConstant    = "constant"
	ReconnectStrategyExponential = "exponential"
)

type EnvConfig struct {
	Env                     string                    `mapstructure:"env"`
	Log                     LogConfig                 `mapstructure:"log"`
	GracefulShutdownTimeout time.Duration             `mapstructure:"graceful_shutdown_timeout"`
	Port                    map[string]string         `mapstructure:"port"`
	FeedSource              string                    `mapstructure:"feed_source"`
	Feeds                   []entity.FeedConfig       `mapstructure:"feeds"`
	Keepalive               KeepaliveConfig           `mapstructure:"keepalive"`
	MaxFrameSize            int64                     `mapstructure:"max_frame_size"`
	Reconnect               ReconnectConfig           `mapstructure:"reconnect"`
	Database                map[string]DatabaseConfig `mapstructure:"database"`
	Redis                   map[string]RedisConfig    `mapstructure:"redis"`
	NatsJetstream           NatsJetstreamConfig       `mapstructure:"nats_jetstream"`
}

type LogConfig struct {
	ShowCaller bool   `mapstructure:"show_caller"`
	LogLevel   string `mapstructure:"log_level"`
}

type KeepaliveConfig struct {
	PingInterval     time.Duration `mapstructure:"ping_interval"`
	PongTimeout      time.Duration `mapstructure:"pong_timeout"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

// ReconnectConfig selects the wait applied between connection attempts.
// Delay is used by the constant strategy, the remaining fields by the
// exponential one.
type ReconnectConfig struct {
	Strategy string        `mapstructure:"strategy"`
	Delay    time.Duration `mapstructure:"delay"`
	Min      time.Duration `mapstructure:"min"`
	Max      time.Duration `mapstructure:"max"`
	Factor   float64       `mapstructure:"factor"`
	Jitter   time.Duration `mapstructure:"jitter"`
}

type NatsJetstreamConfig struct {
	URL             string        `mapstructure:"url"`
	MaxRetries      int           `mapstructure:"max_retries"`
	ReconnectFactor float64       `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration `mapstructure:"min_jitter"`
	MaxJitter       time.Duration `mapstructure:"max_jitter"`
	PublishTimeout  time.Duration `mapstructure:"publish_timeout"`
	StreamMaxAge    time.Duration `mapstructure:"stream_max_age"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	ReconnectFactor float64       `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration `mapstructure:"min_jitter"`
	MaxJitter       time.Duration `mapstructure:"max_jitter"`
	MaxRetry        int           `mapstructure:"max_retry"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxActiveConns  int           `mapstructure:"max_active_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type RedisConfig struct {
	DSN       string        `mapstructure:"dsn"`
	StatusTTL time.Duration `mapstructure:"status_ttl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func LoadConfig(configPath string) error {
	viper.Reset()

	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	} else {
		ext := strings.ToLower(filepath.Ext(configPath))
		if ext == ".yml" || ext == ".yaml" {
			viper.SetConfigFile(configPath)
		} else {
			viper.SetConfigName(filepath.Base(configPath))
			viper.SetConfigType("yml")
			configDir := filepath.Dir(configPath)
			if configDir == "." || configDir == "" {
				viper.AddConfigPath(".")
			} else {
				viper.AddConfigPath(configDir)
			}
		}
	}

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	viper.SetDefault("env", constant.DevelopmentEnvironment)
	viper.SetDefault("log.log_level", "info")
	viper.SetDefault("feed_source", constant.FeedSourceConfig)
	viper.SetDefault("graceful_shutdown_timeout", DefaultShutdownTimeout)
	viper.SetDefault("keepalive.ping_interval", DefaultPingInterval)
	viper.SetDefault("keepalive.pong_timeout", DefaultPongTimeout)
	viper.SetDefault("keepalive.handshake_timeout", DefaultHandshakeTimeout)
	viper.SetDefault("max_frame_size", DefaultMaxFrameSize)
	viper.SetDefault("reconnect.strategy", ReconnectStrategyConstant)
	viper.SetDefault("reconnect.delay", DefaultReconnectDelay)

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var env EnvConfig
	err = viper.Unmarshal(&env)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	err = env.Validate()
	if err != nil {
		return err
	}

	Env = &env

	return nil
}
