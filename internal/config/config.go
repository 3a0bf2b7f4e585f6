package config

import (
	"github.com/spf13/viper"
)

// Config holds everything the server needs at startup. Values come from
// app.env (if present) with environment variables taking precedence.
type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	// Directory where QR artifacts are written; served under /uploads.
	UploadDir string `mapstructure:"UPLOAD_DIR"`

	// Waafi merchant credentials for the payment gateway.
	MerchantAPIKey    string `mapstructure:"MERCHANT_API_KEY"`
	MerchantAPIUserID string `mapstructure:"MERCHANT_API_USER_ID"`
	MerchantUID       string `mapstructure:"MERCHANT_U_ID"`
	WaafiAPIURL       string `mapstructure:"WAAFI_API_URL"`

	// Optional SES ops alerting; alerts are disabled when region is empty.
	AWSRegion      string `mapstructure:"AWS_REGION"`
	AlertFromEmail string `mapstructure:"ALERT_FROM_EMAIL"`
	OpsAlertEmail  string `mapstructure:"OPS_ALERT_EMAIL"`
}

// LoadConfig reads configuration from the given directory.
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("WAAFI_API_URL", "https://api.waafipay.net/asm")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// The env file is optional; environment variables alone are fine.
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
