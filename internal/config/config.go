package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/internal/domain/symptom"
	"github.com/ehr/triage/internal/platform/logging"
)

type Config struct {
	Env           string `mapstructure:"ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFile       string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	CatalogPath   string `mapstructure:"SYMPTOM_CATALOG_PATH"`
	FrontDeskName string `mapstructure:"FRONT_DESK_NAME"`
	FrontDeskCPF  string `mapstructure:"FRONT_DESK_CPF"`
	NurseName     string `mapstructure:"TRIAGE_NURSE_NAME"`
	NurseCPF      string `mapstructure:"TRIAGE_NURSE_CPF"`
	PhysicianName string `mapstructure:"PHYSICIAN_NAME"`
	PhysicianCPF  string `mapstructure:"PHYSICIAN_CPF"`
	DemoPatients  int    `mapstructure:"DEMO_PATIENTS"`
	DemoSeed      int64  `mapstructure:"DEMO_SEED"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS", "LOG_MAX_AGE_DAYS",
	"SYMPTOM_CATALOG_PATH",
	"FRONT_DESK_NAME", "FRONT_DESK_CPF", "TRIAGE_NURSE_NAME", "TRIAGE_NURSE_CPF",
	"PHYSICIAN_NAME", "PHYSICIAN_CPF",
	"DEMO_PATIENTS", "DEMO_SEED",
}

// Load reads .env from the working directory, if present, and the
// environment. Environment variables win.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 10)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)
	v.SetDefault("SYMPTOM_CATALOG_PATH", symptom.DefaultSourcePath)
	v.SetDefault("FRONT_DESK_NAME", "Recepcao")
	v.SetDefault("FRONT_DESK_CPF", "000.000.000-01")
	v.SetDefault("TRIAGE_NURSE_NAME", "Enfermagem de triagem")
	v.SetDefault("TRIAGE_NURSE_CPF", "000.000.000-02")
	v.SetDefault("PHYSICIAN_NAME", "Plantonista")
	v.SetDefault("PHYSICIAN_CPF", "000.000.000-03")
	v.SetDefault("DEMO_PATIENTS", 12)
	v.SetDefault("DEMO_SEED", 0)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading the dotenv file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate rejects settings the desk cannot start with.
func (c *Config) Validate() error {
	switch c.Env {
	case "development", "production", "test":
	default:
		return fmt.Errorf("ENV must be \"development\", \"production\" or \"test\", got %q", c.Env)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.LogLevel)
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 || c.LogMaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings must not be negative")
	}
	if strings.TrimSpace(c.CatalogPath) == "" {
		return fmt.Errorf("SYMPTOM_CATALOG_PATH is required")
	}
	staff := []struct{ key, name, cpf string }{
		{"FRONT_DESK", c.FrontDeskName, c.FrontDeskCPF},
		{"TRIAGE_NURSE", c.NurseName, c.NurseCPF},
		{"PHYSICIAN", c.PhysicianName, c.PhysicianCPF},
	}
	for _, s := range staff {
		if strings.TrimSpace(s.name) == "" {
			return fmt.Errorf("%s_NAME is required", s.key)
		}
		if _, err := patient.NormalizeCPF(s.cpf); err != nil {
			return fmt.Errorf("%s_CPF: %w", s.key, err)
		}
	}
	if c.DemoPatients < 0 {
		return fmt.Errorf("DEMO_PATIENTS must not be negative, got %d", c.DemoPatients)
	}
	return nil
}
