package pubsub

import (
	"errors"
	"fmt"
	"time"
)

// Drivers accepted by NewBus.
const (
	DriverRedis = "redis"
	DriverKafka = "kafka"
	DriverNone  = "none"
)

// ErrDisabled is returned by NewBus for the "none" driver.
var ErrDisabled = errors.New("pubsub disabled")

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	Partitions int    `mapstructure:"partitions"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Config holds the configuration for the event bus.
type Config struct {
	Driver string      `mapstructure:"driver"`
	Redis  RedisConfig `mapstructure:"redis"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

// NewBus creates the event bus selected by cfg.Driver.
func NewBus(cfg Config) (Bus, error) {
	switch cfg.Driver {
	case DriverNone:
		return nil, ErrDisabled
	case DriverKafka:
		k, err := NewKafkaPubSub(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		return k, nil
	case DriverRedis, "":
		r, err := NewRedisPubSub(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown pubsub driver %q", cfg.Driver)
	}
}
