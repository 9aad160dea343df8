package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Razorpay struct {
		KeyID         string `yaml:"key_id"`
		KeySecret     string `yaml:"key_secret"`
		WebhookSecret string `yaml:"webhook_secret"`
		BaseURL       string `yaml:"base_url"` // default https://api.razorpay.com/v1
	} `yaml:"razorpay"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		UseTLS       bool   `yaml:"use_tls"`
	} `yaml:"email"`

	Support struct {
		AlertEmail string `yaml:"alert_email"`
		Phone      string `yaml:"phone"`
	} `yaml:"support"`

	Pricing struct {
		Currency         string  `yaml:"currency"`          // default INR
		GSTPercent       float64 `yaml:"gst_percent"`       // default 18
		AgeExemptionMax  int     `yaml:"age_exemption_max"` // accompanying persons below this age are free
		DefaultTierID    string  `yaml:"default_tier_id"`   // tier used when no window matches
		RegistrationYear int     `yaml:"registration_year"` // e.g. 2026, used for registration ids
		RegistrationCode string  `yaml:"registration_code"` // e.g. ORG, registration id prefix
	} `yaml:"pricing"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

var AppConfig *Config

// LoadConfig reads config.yaml, or builds the configuration from
// environment variables when DATABASE_URL is set (test/CI mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Razorpay.KeyID = os.Getenv("RAZORPAY_KEY_ID")
	cfg.Razorpay.KeySecret = os.Getenv("RAZORPAY_KEY_SECRET")
	cfg.Razorpay.WebhookSecret = os.Getenv("RAZORPAY_WEBHOOK_SECRET")

	cfg.Email.SMTPHost = "smtp.test.com"
	cfg.Email.SMTPPort = 587
	cfg.Email.FromEmail = "noreply@issh2026.test"
	cfg.Support.AlertEmail = "support@issh2026.test"

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Razorpay.BaseURL == "" {
		cfg.Razorpay.BaseURL = "https://api.razorpay.com/v1"
	}
	if cfg.Pricing.Currency == "" {
		cfg.Pricing.Currency = "INR"
	}
	if cfg.Pricing.GSTPercent == 0 {
		cfg.Pricing.GSTPercent = 18
	}
	if cfg.Pricing.AgeExemptionMax == 0 {
		cfg.Pricing.AgeExemptionMax = 10
	}
	if cfg.Pricing.RegistrationYear == 0 {
		cfg.Pricing.RegistrationYear = 2026
	}
	if cfg.Pricing.RegistrationCode == "" {
		cfg.Pricing.RegistrationCode = "ORG"
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60
	}
}
