package config

import (
	"github.com/spf13/viper"
)

// Config holds every runtime setting the API needs. Values come from app.env
// in the given path or from environment variables with the same names.
type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	// Kafka is optional in dev; an empty broker list disables event publishing.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`

	// Email (AWS SES).
	AWSRegion   string `mapstructure:"AWS_REGION"`
	EmailSender string `mapstructure:"EMAIL_SENDER"`

	// Google OAuth.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`

	// Pricing constants applied to every order.
	TaxRate     float64 `mapstructure:"TAX_RATE"`
	DeliveryFee float64 `mapstructure:"DELIVERY_FEE"`
}

// LoadConfig reads configuration from app.env in the given path, falling back
// to environment variables.
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("TAX_RATE", 0.05)
	viper.SetDefault("DELIVERY_FEE", 30.0)
	viper.SetDefault("AWS_REGION", "us-east-1")

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; env vars may carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
