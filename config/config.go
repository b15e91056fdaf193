package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"commentscraper/log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingCredentials = errors.New("missing reddit credentials")

type Config struct {
	Reddit    RedditConfig    `mapstructure:"reddit"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Summarize SummarizeConfig `mapstructure:"summarize"`
	Server    ServerConfig    `mapstructure:"server"`
}

type RedditConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	UserAgent    string        `mapstructure:"user_agent"`
	AuthURL      string        `mapstructure:"auth_url"`
	APIURL       string        `mapstructure:"api_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ScrapeConfig holds the defaults of a scrape invocation.
type ScrapeConfig struct {
	Sort            string `mapstructure:"sort"`
	TimeFilter      string `mapstructure:"time_filter"`
	Limit           int    `mapstructure:"limit"`
	Threshold       int    `mapstructure:"threshold"`
	Normalize       bool   `mapstructure:"normalize"`
	Parallel        bool   `mapstructure:"parallel"`
	ReservedWorkers int    `mapstructure:"reserved_workers"`
}

type RedisConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type SummarizeConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	ModelID string `mapstructure:"model_id"`
	TopN    int    `mapstructure:"top_n"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         string   `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
	// OutputDir holds every file written for API requests.
	OutputDir string `mapstructure:"output_dir"`
}

// Load reads .env, then config.yaml (if any), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Warn.Printf("error loading .env: %s", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if path := os.Getenv("SCRAPER_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The credential names match the .env layout documented by PRAW.
	v.BindEnv("reddit.client_id", "client_id", "REDDIT_CLIENT_ID")
	v.BindEnv("reddit.client_secret", "client_secret", "REDDIT_CLIENT_SECRET")
	v.BindEnv("reddit.user_agent", "user_agent", "REDDIT_USER_AGENT")
	v.BindEnv("redis.endpoint", "REDIS_ENDPOINT")
	v.BindEnv("sqlite.path", "SQLITE_PATH")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("nats.url", "NATS_URL")
	v.BindEnv("server.port", "PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("reddit.auth_url", "https://www.reddit.com/api/v1/access_token")
	v.SetDefault("reddit.api_url", "https://oauth.reddit.com")
	v.SetDefault("reddit.timeout", "30s")
	v.SetDefault("scrape.sort", "top")
	v.SetDefault("scrape.time_filter", "year")
	v.SetDefault("scrape.limit", 999)
	v.SetDefault("scrape.threshold", 5)
	v.SetDefault("scrape.normalize", true)
	v.SetDefault("scrape.parallel", true)
	v.SetDefault("scrape.reserved_workers", 2)
	v.SetDefault("redis.ttl", "1h")
	v.SetDefault("mongo.database", "commentscraper")
	v.SetDefault("mongo.collection", "comments")
	v.SetDefault("nats.subject", "comments.rows")
	v.SetDefault("summarize.region", "us-east-1")
	v.SetDefault("summarize.model_id", "anthropic.claude-3-sonnet-20240229-v1:0")
	v.SetDefault("summarize.top_n", 5)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.output_dir", "output")
}

// Validate reports every missing credential at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Reddit.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.Reddit.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if c.Reddit.UserAgent == "" {
		missing = append(missing, "user_agent")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not set (add them to .env or the environment)",
			ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}
