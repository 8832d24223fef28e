package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr     string        `mapstructure:"LISTEN_ADDR"`
	DatabasePath   string        `mapstructure:"DB_PATH"`
	RecipesPath    string        `mapstructure:"RECIPES_PATH"`
	RecipeCacheTTL time.Duration `mapstructure:"RECIPE_CACHE_TTL"`
	ProtectionKey  string        `mapstructure:"PROTECTION_KEY"` // hex, 32 bytes
	SiteTimeZone   string        `mapstructure:"SITE_TIME_ZONE"`

	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      int    `mapstructure:"SMTP_PORT"`
	SMTPUsername  string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword  string `mapstructure:"SMTP_PASSWORD"`
	DefaultSender string `mapstructure:"SMTP_DEFAULT_SENDER"`
	EmailToBcc    bool   `mapstructure:"EMAIL_TO_BCC"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogJSON  bool   `mapstructure:"LOG_JSON"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("DB_PATH", "trysite.db")
	viper.SetDefault("RECIPES_PATH", "recipes")
	viper.SetDefault("RECIPE_CACHE_TTL", "5m")
	viper.SetDefault("PROTECTION_KEY", "")
	viper.SetDefault("SITE_TIME_ZONE", "")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 25)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_DEFAULT_SENDER", "noreply@localhost")
	viper.SetDefault("EMAIL_TO_BCC", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_JSON", false)

	viper.SetEnvPrefix("TRYSITE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Optional .env next to the binary
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ProtectionKeyBytes decodes ProtectionKey. When no key is configured a random
// one is generated and generated is true; links issued with it do not survive
// a restart.
func (c *Config) ProtectionKeyBytes() (key []byte, generated bool, err error) {
	if c.ProtectionKey == "" {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, false, err
		}
		return key, true, nil
	}

	key, err = hex.DecodeString(c.ProtectionKey)
	if err != nil {
		return nil, false, fmt.Errorf("invalid protection key: %w", err)
	}
	if len(key) != 32 {
		return nil, false, fmt.Errorf("invalid protection key: want 32 bytes, got %d", len(key))
	}
	return key, false, nil
}
