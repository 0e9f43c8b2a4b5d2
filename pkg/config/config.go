package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. BLECENTRAL_LOG_LEVEL
const EnvPrefix = "BLECENTRAL_"

// Config holds application configuration
type Config struct {
	LogLevel string `yaml:"log_level" default:"warn"`

	// Signal sampling
	RefreshInterval       time.Duration `yaml:"refresh_interval" default:"5s"`
	SampleHistoryCapacity int           `yaml:"sample_history_capacity" default:"15"`

	// Radio
	ConnectTimeout  time.Duration `yaml:"connect_timeout" default:"30s"`
	AllowDuplicates bool          `yaml:"allow_duplicates" default:"true"`

	// Session
	StaleTimeout        time.Duration `yaml:"stale_timeout" default:"30s"`
	EventBufferSize     int           `yaml:"event_buffer_size" default:"64"`
	AdvertisementBuffer int           `yaml:"advertisement_buffer" default:"128"`

	// Discovery allow-lists; empty means everything
	ServiceAllowList        []string `yaml:"service_allow_list"`
	CharacteristicAllowList []string `yaml:"characteristic_allow_list"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file and applies environment overrides.
//
// The loading order is:
//  1. Default values (struct tags)
//  2. YAML file values, when path is not empty
//  3. BLECENTRAL_* environment variables
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	var errs []string

	durations := map[string]*time.Duration{
		"REFRESH_INTERVAL": &c.RefreshInterval,
		"CONNECT_TIMEOUT":  &c.ConnectTimeout,
		"STALE_TIMEOUT":    &c.StaleTimeout,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				continue
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"SAMPLE_HISTORY_CAPACITY": &c.SampleHistoryCapacity,
		"EVENT_BUFFER_SIZE":       &c.EventBufferSize,
		"ADVERTISEMENT_BUFFER":    &c.AdvertisementBuffer,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				continue
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ALLOW_DUPLICATES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sALLOW_DUPLICATES: %v", EnvPrefix, err))
		} else {
			c.AllowDuplicates = b
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SERVICE_ALLOW_LIST"); ok {
		c.ServiceAllowList = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CHARACTERISTIC_ALLOW_LIST"); ok {
		c.CharacteristicAllowList = splitList(v)
	}

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	var errs []string

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("log_level: %v", err))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, "refresh_interval must not be negative")
	}
	if c.SampleHistoryCapacity <= 0 {
		errs = append(errs, "sample_history_capacity must be positive")
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, "connect_timeout must be positive")
	}
	if c.StaleTimeout < 0 {
		errs = append(errs, "stale_timeout must not be negative")
	}
	if c.EventBufferSize <= 0 {
		errs = append(errs, "event_buffer_size must be positive")
	}
	if c.AdvertisementBuffer <= 0 {
		errs = append(errs, "advertisement_buffer must be positive")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Level returns the parsed log level, or InfoLevel if it does not parse
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
