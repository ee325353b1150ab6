package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Google GoogleConfig
	Room   RoomConfig
	Log    LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Mode         string // debug, release, test
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RootFolderID string
	CacheTTL     time.Duration
}

type RoomConfig struct {
	LockWait          time.Duration
	DefaultMaxMembers int
	MaxMembersCap     int
}

type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("CINEMASYNC")
	viper.AutomaticEnv()

	setDefaults()

	// Config file is optional; env vars and defaults cover everything
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVariables()

	cfg := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("server.host"),
			Port:         viper.GetInt("server.port"),
			Mode:         viper.GetString("server.mode"),
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
		},
		Mongo: MongoConfig{
			URI:            viper.GetString("mongo.uri"),
			Database:       viper.GetString("mongo.database"),
			ConnectTimeout: viper.GetDuration("mongo.connect_timeout"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetInt("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
			PoolSize: viper.GetInt("redis.pool_size"),
		},
		JWT: JWTConfig{
			Secret:   viper.GetString("jwt.secret"),
			TokenTTL: viper.GetDuration("jwt.token_ttl"),
			Issuer:   viper.GetString("jwt.issuer"),
		},
		Google: GoogleConfig{
			ClientID:     viper.GetString("google.client_id"),
			ClientSecret: viper.GetString("google.client_secret"),
			RedirectURI:  viper.GetString("google.redirect_uri"),
			RootFolderID: viper.GetString("google.root_folder_id"),
			CacheTTL:     viper.GetDuration("google.cache_ttl"),
		},
		Room: RoomConfig{
			LockWait:          viper.GetDuration("room.lock_wait"),
			DefaultMaxMembers: viper.GetInt("room.default_max_members"),
			MaxMembersCap:     viper.GetInt("room.max_members_cap"),
		},
		Log: LogConfig{
			Level:      viper.GetString("log.level"),
			Format:     viper.GetString("log.format"),
			OutputPath: viper.GetString("log.output_path"),
		},
	}

	return cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	// Mongo defaults
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "CinemaSync")
	viper.SetDefault("mongo.connect_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)

	// JWT defaults
	viper.SetDefault("jwt.secret", "your-secret-key-change-in-production")
	viper.SetDefault("jwt.token_ttl", "72h") // 3 days
	viper.SetDefault("jwt.issuer", "cinemasync")

	// Google Drive defaults
	viper.SetDefault("google.redirect_uri", "http://localhost:8080/api/google/auth/callback")
	viper.SetDefault("google.cache_ttl", "5m")

	// Room defaults
	viper.SetDefault("room.lock_wait", "5s")
	viper.SetDefault("room.default_max_members", 10)
	viper.SetDefault("room.max_members_cap", 100)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output_path", "stdout")
}

func bindEnvVariables() {
	// Server
	_ = viper.BindEnv("server.host", "SERVER_HOST")
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.mode", "SERVER_MODE")

	// Mongo
	_ = viper.BindEnv("mongo.uri", "MONGODB_URI")
	_ = viper.BindEnv("mongo.database", "MONGODB_DB_NAME")

	// Redis
	_ = viper.BindEnv("redis.host", "REDIS_HOST")
	_ = viper.BindEnv("redis.port", "REDIS_PORT")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// JWT
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Google
	_ = viper.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	_ = viper.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	_ = viper.BindEnv("google.redirect_uri", "GOOGLE_REDIRECT_URI")
	_ = viper.BindEnv("google.root_folder_id", "GOOGLE_DRIVE_FOLDER_ID")

	// Log
	_ = viper.BindEnv("log.level", "LOG_LEVEL")
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr returns server address
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
