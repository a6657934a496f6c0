package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceName string `yaml:"service_name"`
	ServerPort  int    `yaml:"server_port"`

	DatabaseURL   string `yaml:"database_url"`
	SessionSecret string `yaml:"session_secret"`

	Log       LogConfig       `yaml:"log"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Search    SearchConfig    `yaml:"search"`
	Mail      MailConfig      `yaml:"mail"`
	HTTP      HTTPConfig      `yaml:"http"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type SearchConfig struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Index    string `yaml:"index"`
}

type MailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	From           string `yaml:"from"`
	FromName       string `yaml:"from_name"`
}

type HTTPConfig struct {
	CORSOrigins  []string `yaml:"cors_origins"`
	CookieSecure bool     `yaml:"cookie_secure"`
}

type SchedulerConfig struct {
	PurgeSessions string `yaml:"purge_sessions"`
	ReleaseStays  string `yaml:"release_stays"`
}

func Default() Config {
	return Config{
		ServiceName: "stayfinder",
		ServerPort:  8080,
		Log:         LogConfig{Level: "info", Format: "json"},
		Search:      SearchConfig{Index: "listings"},
		Mail:        MailConfig{FromName: "StayFinder"},
		HTTP:        HTTPConfig{CookieSecure: true},
		Scheduler: SchedulerConfig{
			PurgeSessions: "0 0 * * * *",
			ReleaseStays:  "0 30 3 * * *",
		},
	}
}

// Load reads .env, then the optional CONFIG_FILE yaml, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found, using system environment")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) overrideWithEnv() {
	c.ServiceName = EnvDefault("SERVICE_NAME", c.ServiceName)
	c.ServerPort = EnvIntDefault("SERVER_PORT", c.ServerPort)
	c.DatabaseURL = EnvDefault("DATABASE_URL", c.DatabaseURL)
	c.SessionSecret = EnvDefault("SESSION_SECRET", c.SessionSecret)

	c.Log.Level = EnvDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = EnvDefault("LOG_FORMAT", c.Log.Format)

	if v := CSV(os.Getenv("KAFKA_BROKERS")); v != nil {
		c.Kafka.Brokers = v
	}

	c.Search.URL = EnvDefault("ES_URL", c.Search.URL)
	c.Search.User = EnvDefault("ES_USER", c.Search.User)
	c.Search.Password = EnvDefault("ES_PASSWORD", c.Search.Password)
	c.Search.Index = EnvDefault("ES_INDEX", c.Search.Index)

	c.Mail.SendGridAPIKey = EnvDefault("SENDGRID_API_KEY", c.Mail.SendGridAPIKey)
	c.Mail.From = EnvDefault("MAIL_FROM", c.Mail.From)
	c.Mail.FromName = EnvDefault("MAIL_FROM_NAME", c.Mail.FromName)

	if v := CSV(os.Getenv("CORS_ORIGINS")); v != nil {
		c.HTTP.CORSOrigins = v
	}
	c.HTTP.CookieSecure = EnvBoolDefault("COOKIE_SECURE", c.HTTP.CookieSecure)

	c.Scheduler.PurgeSessions = EnvDefault("CRON_PURGE_SESSIONS", c.Scheduler.PurgeSessions)
	c.Scheduler.ReleaseStays = EnvDefault("CRON_RELEASE_STAYS", c.Scheduler.ReleaseStays)
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %d out of range", c.ServerPort))
	}
	if c.Mail.SendGridAPIKey != "" && c.Mail.From == "" {
		errs = append(errs, errors.New("MAIL_FROM is required when SENDGRID_API_KEY is set"))
	}
	return errors.Join(errs...)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
