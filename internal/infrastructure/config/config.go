package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the main configuration struct combining all sub-configs
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Ebay     EbayConfig     `mapstructure:"ebay"`
	BrickOwl BrickOwlConfig `mapstructure:"brickowl"`
	Rebrick  RebrickConfig  `mapstructure:"rebrickable"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Push     PushConfig     `mapstructure:"push"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml)
// 3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/brickwatch")
	}

	v.SetEnvPrefix("BW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - don't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Well-known environment variables are recognized without the BW_
	// prefix so deployment platforms can inject them directly.
	bindPlainEnv(v, map[string]string{
		"DATABASE_URL":             "database.url",
		"QUEUE_URL":                "queue.url",
		"TELEGRAM_BOT_TOKEN":       "chat.bot_token",
		"EBAY_CLIENT_ID":           "ebay.client_id",
		"EBAY_CLIENT_SECRET":       "ebay.client_secret",
		"EBAY_DEFAULT_MARKETPLACE": "ebay.default_marketplace",
		"BRICKOWL_KEY":             "brickowl.key",
		"REBRICKABLE_KEY":          "rebrickable.key",
		"PUSH_PUBLIC_KEY":          "push.public_key",
		"PUSH_PRIVATE_KEY":         "push.private_key",
		"PUSH_SUBJECT":             "push.subject",
		"AFFILIATE_CAMPAIGN":       "ebay.affiliate_campaign",
		"PORT":                     "server.port",
		"LOG_LEVEL":                "logging.level",
	})

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func bindPlainEnv(v *viper.Viper, keys map[string]string) {
	for env, key := range keys {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}
}

// MustLoadConfig loads configuration and panics on error (for use in main.go)
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
