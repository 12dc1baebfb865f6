package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"autoassist/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Inventory  InventoryConfig  `yaml:"inventory"`
	Advisor    AdvisorConfig    `yaml:"advisor"`
	Bootstrap  BootstrapConfig  `yaml:"bootstrap"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	ServicePath   string `yaml:"service_path"`
	InventoryPath string `yaml:"inventory_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type APIAuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Issuer    string        `yaml:"issuer"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	SlotHours      []int  `yaml:"slot_hours"`
	SlotCapacity   int    `yaml:"slot_capacity"`
	MaxAdvanceDays int    `yaml:"max_advance_days"`
	Timezone       string `yaml:"timezone"`
	PriceFile      string `yaml:"price_file"`
}

type InventoryConfig struct {
	MaxImportRecords int `yaml:"max_import_records"`
}

type AdvisorConfig struct {
	Disabled      bool          `yaml:"disabled"`
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	DailyQuota    int           `yaml:"daily_quota"`
	EnrichBooking bool          `yaml:"enrich_booking"`
	EnrichStock   bool          `yaml:"enrich_stock"`
}

type BootstrapConfig struct {
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
	AdminEmail    string `yaml:"admin_email"`
}

// Load reads the YAML file at configPath. Variables from an optional .env
// file and the process environment are expanded before parsing.
func Load(configPath string) (*Config, error) {
	// Load .env if present
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand environment variables before parsing the YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		config.Advisor.APIKey = key
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.ServicePath == "" {
		return errors.New("database service_path is required")
	}
	if c.Database.InventoryPath == "" {
		return errors.New("database inventory_path is required")
	}
	if c.Database.ServicePath == c.Database.InventoryPath && c.Database.ServicePath != ":memory:" {
		return errors.New("service and inventory databases must be different files")
	}
	if len(c.API.Auth.JWTSecret) < 32 {
		return errors.New("api auth jwt_secret must be at least 32 characters")
	}
	if c.Booking.SlotCapacity < 0 {
		return errors.New("booking slot_capacity must not be negative")
	}
	for _, h := range c.Booking.SlotHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("booking slot hour %d is out of range", h)
		}
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking timezone: %w", err)
	}
	if c.Bootstrap.AdminUsername != "" && len(c.Bootstrap.AdminPassword) < 8 {
		return errors.New("bootstrap admin_password must be at least 8 characters")
	}
	return nil
}

// AdvisorEnabled reports whether advisory calls should be attempted. A missing
// API key disables the advisor.
func (c *Config) AdvisorEnabled() bool {
	return !c.Advisor.Disabled && c.Advisor.APIKey != ""
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "autoassist"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ReadTimeout == 0 {
		c.API.HTTP.ReadTimeout = 5 * time.Second
	}
	if c.API.HTTP.WriteTimeout == 0 {
		c.API.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.API.HTTP.MaxBodyBytes == 0 {
		c.API.HTTP.MaxBodyBytes = 10 << 20
	}
	if c.API.HTTP.ShutdownTimeout == 0 {
		c.API.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.API.Auth.TokenTTL == 0 {
		c.API.Auth.TokenTTL = 24 * time.Hour
	}
	if c.API.Auth.Issuer == "" {
		c.API.Auth.Issuer = c.App.Name
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if len(c.Booking.SlotHours) == 0 {
		c.Booking.SlotHours = append([]int(nil), models.DefaultSlotHours...)
	}
	if c.Booking.SlotCapacity == 0 {
		c.Booking.SlotCapacity = models.DefaultSlotCapacity
	}
	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Inventory.MaxImportRecords == 0 {
		c.Inventory.MaxImportRecords = models.MaxImportRecords
	}

	if c.Advisor.Model == "" {
		c.Advisor.Model = "gemini-1.5-flash"
	}
	if c.Advisor.Timeout == 0 {
		c.Advisor.Timeout = 5 * time.Second
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "./backups"
	}
}
