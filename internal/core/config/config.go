package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Credit       CreditConfig       `mapstructure:"credit"`
	Verification VerificationConfig `mapstructure:"verification"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Sources      []SourceConfig     `mapstructure:"sources"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Endpoint string `mapstructure:"endpoint"`
}

type DatabaseConfig struct {
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	DatabaseName string `mapstructure:"database_name"`
}

// CreditConfig governs how pool payout deltas turn into credited units.
type CreditConfig struct {
	// Rate multiplies an observed payout delta into credited units.
	Rate string `mapstructure:"rate"`
	// MinDelta is the smallest payout growth worth crediting; smaller
	// positive deltas are left to accumulate against the watermark.
	MinDelta string `mapstructure:"min_delta"`
}

type VerificationConfig struct {
	DonationAddress  string  `mapstructure:"donation_address"`
	WindowHours      int     `mapstructure:"window_hours"`
	MinConfirmations int64   `mapstructure:"min_confirmations"`
	BonusRate        string  `mapstructure:"bonus_rate"`
	AmountMin        float64 `mapstructure:"amount_min"`
	AmountMax        float64 `mapstructure:"amount_max"`
	AmountPrecision  int32   `mapstructure:"amount_precision"`
	ExplorerURL      string  `mapstructure:"explorer_url"`
	PoolPaymentsURL  string  `mapstructure:"pool_payments_url"`
	ScrapeURL        string  `mapstructure:"scrape_url"`
}

type SchedulerConfig struct {
	PoolPollSeconds          int `mapstructure:"pool_poll_seconds"`
	VerificationSweepSeconds int `mapstructure:"verification_sweep_seconds"`
	FetchTimeoutSeconds      int `mapstructure:"fetch_timeout_seconds"`
	WorkerPoolSize           int `mapstructure:"worker_pool_size"`
}

// SourceConfig describes one external pool API. PaidFields is an ordered
// list of dot-path candidates for the cumulative-paid value; the first one
// present in a response wins, which is what absorbs unannounced schema
// changes on the pool side.
type SourceConfig struct {
	Name           string   `mapstructure:"name"`
	BaseURL        string   `mapstructure:"base_url"`
	PaidFields     []string `mapstructure:"paid_fields"`
	BalanceFields  []string `mapstructure:"balance_fields"`
	HashrateFields []string `mapstructure:"hashrate_fields"`
	ConversionRate float64  `mapstructure:"conversion_rate"`
}

func (dc *DatabaseConfig) GetConnectionURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dc.Username,
		dc.Password,
		dc.Host,
		dc.Port,
		dc.DatabaseName,
	)
}

func (sc *SchedulerConfig) PoolPollInterval() time.Duration {
	return time.Duration(sc.PoolPollSeconds) * time.Second
}

func (sc *SchedulerConfig) VerificationSweepInterval() time.Duration {
	return time.Duration(sc.VerificationSweepSeconds) * time.Second
}

func (sc *SchedulerConfig) FetchTimeout() time.Duration {
	return time.Duration(sc.FetchTimeoutSeconds) * time.Second
}

func (vc *VerificationConfig) Window() time.Duration {
	return time.Duration(vc.WindowHours) * time.Hour
}

type ConfigManager struct {
	config     *Config
	configPath string
	mutex      sync.RWMutex
}

var (
	instance *ConfigManager
	once     sync.Once
)

func GetConfigManager() *ConfigManager {
	once.Do(func() {
		instance = &ConfigManager{
			configPath: "config/config.yaml",
		}
	})
	return instance
}

func (cm *ConfigManager) SetConfigPath(path string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.configPath = path
	cm.config = nil
}

func (cm *ConfigManager) GetConfig() (*Config, error) {
	cm.mutex.RLock()
	if cm.config != nil {
		defer cm.mutex.RUnlock()
		return cm.config, nil
	}
	cm.mutex.RUnlock()

	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.config != nil {
		return cm.config, nil
	}

	var err error
	cm.config, err = loadConfigFile(cm.configPath)
	return cm.config, err
}

func (cm *ConfigManager) ReloadConfig() (*Config, error) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	var err error
	cm.config, err = loadConfigFile(cm.configPath)
	return cm.config, err
}

func loadConfigFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.endpoint", "/api")
	v.SetDefault("credit.rate", "1")
	v.SetDefault("credit.min_delta", "0.0001")
	v.SetDefault("verification.window_hours", 24)
	v.SetDefault("verification.min_confirmations", 6)
	v.SetDefault("verification.bonus_rate", "1")
	v.SetDefault("verification.amount_min", 0.1)
	v.SetDefault("verification.amount_max", 0.9999)
	v.SetDefault("verification.amount_precision", 4)
	v.SetDefault("scheduler.pool_poll_seconds", 300)
	v.SetDefault("scheduler.verification_sweep_seconds", 120)
	v.SetDefault("scheduler.fetch_timeout_seconds", 10)
	v.SetDefault("scheduler.worker_pool_size", 8)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(cfg *Config) error {
	if cfg.Database.Username == "" || cfg.Database.Password == "" ||
		cfg.Database.Host == "" || cfg.Database.Port == "" ||
		cfg.Database.DatabaseName == "" {
		return fmt.Errorf("missing required database configuration")
	}
	if cfg.Verification.DonationAddress == "" {
		return fmt.Errorf("verification.donation_address is required")
	}
	if cfg.Verification.AmountMin >= cfg.Verification.AmountMax {
		return fmt.Errorf("verification amount range is empty: min %f >= max %f",
			cfg.Verification.AmountMin, cfg.Verification.AmountMax)
	}
	for i, src := range cfg.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if src.BaseURL == "" {
			return fmt.Errorf("source %s: base_url is required", src.Name)
		}
		if len(src.PaidFields) == 0 {
			return fmt.Errorf("source %s: at least one paid_fields candidate is required", src.Name)
		}
		if src.ConversionRate <= 0 {
			return fmt.Errorf("source %s: conversion_rate must be positive", src.Name)
		}
	}
	return nil
}
