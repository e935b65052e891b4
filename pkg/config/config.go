package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Search   SearchConfig   `mapstructure:"search"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StoreConfig selects the document store backend: memory, firestore,
// mongo or postgres.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type FirebaseConfig struct {
	CredentialsPath string `mapstructure:"credentials_path"`
	ProjectID       string `mapstructure:"project_id"`
	// VerifyTokens enables ID-token verification for the actor identity.
	VerifyTokens bool `mapstructure:"verify_tokens"`
}

type MongoConfig struct {
	URI          string `mapstructure:"uri"`
	Database     string `mapstructure:"database"`
	Transactions bool   `mapstructure:"transactions"`
}

type PostgresConfig struct {
	DSN          string        `mapstructure:"dsn"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type SearchConfig struct {
	CandidateLimit int           `mapstructure:"candidate_limit"`
	DefaultLimit   int           `mapstructure:"default_limit"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads .env when present, then an optional YAML file named by
// CONFIG_PATH, then environment variables such as SERVER_PORT or
// STORE_DRIVER.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("firebase.credentials_path", "")
	v.SetDefault("firebase.project_id", "")
	v.SetDefault("firebase.verify_tokens", false)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "mockup_social")
	v.SetDefault("mongo.transactions", false)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.poll_interval", 2*time.Second)
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("search.candidate_limit", 50)
	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.cache_ttl", 30*time.Second)
	v.SetDefault("log.level", "info")
}

func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
