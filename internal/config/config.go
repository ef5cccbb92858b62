package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/weiawesome/wes-io-live/relay-service/internal/generator"
	"github.com/weiawesome/wes-io-live/relay-service/internal/ice"
	pkgconfig "github.com/weiawesome/wes-io-live/relay-service/pkg/config"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relay-service/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Room      RoomConfig
	PubSub    pubsub.Config
	Events    EventsConfig
	WebRTC    ice.Config
	Log       pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	Path           string        `mapstructure:"path"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type RoomConfig struct {
	CodeLength   int    `mapstructure:"code_length"`
	CodeAlphabet string `mapstructure:"code_alphabet"`
}

type EventsConfig struct {
	Buffer int `mapstructure:"buffer"`
}

// DefaultWebSocketConfig returns the transport settings used when nothing
// is configured.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		Path:           "/ws",
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 65536,
		SendBuffer:     256,
	}
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	ws := DefaultWebSocketConfig()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("websocket.path", ws.Path)
	v.SetDefault("websocket.ping_interval", ws.PingInterval.String())
	v.SetDefault("websocket.pong_wait", ws.PongWait.String())
	v.SetDefault("websocket.write_wait", ws.WriteWait.String())
	v.SetDefault("websocket.max_message_size", ws.MaxMessageSize)
	v.SetDefault("websocket.send_buffer", ws.SendBuffer)
	v.SetDefault("websocket.allowed_origins", []string{})
	v.SetDefault("room.code_length", generator.DefaultRoomCodeSize)
	v.SetDefault("room.code_alphabet", generator.DefaultRoomCodeAlphabet)
	v.SetDefault("pubsub.driver", pubsub.DriverRedis)
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.password", "")
	v.SetDefault("pubsub.redis.db", 0)
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.redis.dial_timeout", "5s")
	v.SetDefault("pubsub.redis.read_timeout", "3s")
	v.SetDefault("pubsub.redis.write_timeout", "3s")
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.partitions", 4)
	v.SetDefault("events.buffer", 256)
	v.SetDefault("webrtc.turn_ttl", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "relay-service")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("websocket.path", "WS_PATH")
	v.BindEnv("websocket.allowed_origins", "WS_ALLOWED_ORIGINS")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("webrtc.turn_key_id", "CF_TURN_ID")
	v.BindEnv("webrtc.turn_key", "CF_TURN_KEY")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", ws.PingInterval)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", ws.PongWait)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", ws.WriteWait)
	cfg.PubSub.Redis.DialTimeout = parseDuration(v, "pubsub.redis.dial_timeout", 5*time.Second)
	cfg.PubSub.Redis.ReadTimeout = parseDuration(v, "pubsub.redis.read_timeout", 3*time.Second)
	cfg.PubSub.Redis.WriteTimeout = parseDuration(v, "pubsub.redis.write_timeout", 3*time.Second)
	cfg.WebRTC.TurnTTL = parseDuration(v, "webrtc.turn_ttl", 24*time.Hour)

	if cfg.WebSocket.MaxMessageSize <= 0 {
		cfg.WebSocket.MaxMessageSize = ws.MaxMessageSize
	}
	if cfg.WebSocket.SendBuffer <= 0 {
		cfg.WebSocket.SendBuffer = ws.SendBuffer
	}
	cfg.WebSocket.Path = normalizePath(cfg.WebSocket.Path)
	cfg.WebSocket.AllowedOrigins = splitList(v.GetStringSlice("websocket.allowed_origins"))

	return &cfg, nil
}

// parseDuration falls back to defaultVal for unparsable or non-positive
// values; tickers and deadlines built from them need a positive duration.
func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/ws"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// splitList flattens comma-separated entries, so WS_ALLOWED_ORIGINS can be
// either a YAML list or a single "a,b" string.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
