package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8091"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo MongoConfig
	Redis RedisConfig

	UserService    UserServiceConfig
	LeaderCacheTTL time.Duration `env:"LEADER_CACHE_TTL, default=15m"`

	AuditBuffer int `env:"AUDIT_BUFFER, default=256"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=orion_program"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// UserServiceConfig points at the peer user service used to resolve area
// leaders.
type UserServiceConfig struct {
	URL        string        `env:"USER_SERVICE_URL,         default=http://localhost:8092/service/user"`
	Timeout    time.Duration `env:"USER_SERVICE_TIMEOUT,     default=10s"`
	MaxRetries int           `env:"USER_SERVICE_MAX_RETRIES, default=3"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
