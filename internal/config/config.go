package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/civicpulse/backend/internal/analytics"
	"github.com/civicpulse/backend/internal/models"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	SignalsURL      string        `mapstructure:"SIGNALS_URL"`
	SignalTimeout   time.Duration `mapstructure:"SIGNAL_TIMEOUT"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`
	GeocoderURL     string        `mapstructure:"GEOCODER_URL"`
	GeocoderAgent   string        `mapstructure:"GEOCODER_USER_AGENT"`

	// SLA targets in hours per urgency tier; zero falls back to defaults.
	SLACriticalHours float64 `mapstructure:"SLA_CRITICAL_HOURS"`
	SLAHighHours     float64 `mapstructure:"SLA_HIGH_HOURS"`
	SLAMediumHours   float64 `mapstructure:"SLA_MEDIUM_HOURS"`
	SLALowHours      float64 `mapstructure:"SLA_LOW_HOURS"`

	// Optional JSON file overriding the category -> department table.
	DeptMappingPath string `mapstructure:"DEPT_MAPPING_PATH"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SIGNAL_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "civicpulse-backend/1.0")
	v.SetDefault("SLA_CRITICAL_HOURS", 4)
	v.SetDefault("SLA_HIGH_HOURS", 24)
	v.SetDefault("SLA_MEDIUM_HOURS", 72)
	v.SetDefault("SLA_LOW_HOURS", 168)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SLAPolicy builds the injected urgency -> target-hours table.
func (c Config) SLAPolicy() analytics.SLAPolicy {
	policy := analytics.DefaultSLAPolicy()
	if c.SLACriticalHours > 0 {
		policy[models.UrgencyCritical] = c.SLACriticalHours
	}
	if c.SLAHighHours > 0 {
		policy[models.UrgencyHigh] = c.SLAHighHours
	}
	if c.SLAMediumHours > 0 {
		policy[models.UrgencyMedium] = c.SLAMediumHours
	}
	if c.SLALowHours > 0 {
		policy[models.UrgencyLow] = c.SLALowHours
	}
	return policy
}

// DepartmentMap loads the category routing table, preferring the configured
// JSON file over the built-in defaults.
func (c Config) DepartmentMap() (analytics.DepartmentMap, error) {
	if c.DeptMappingPath == "" {
		return analytics.DefaultDepartmentMap(), nil
	}
	data, err := os.ReadFile(c.DeptMappingPath)
	if err != nil {
		return nil, err
	}
	var mapping analytics.DepartmentMap
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}
