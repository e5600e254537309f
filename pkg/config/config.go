package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/cloudlaunch"
	ConfigFileName    = "cloudlaunch.yml"
)

// Config holds the tunable CloudLaunch server settings. Secrets and
// connection strings are never part of it; they are read from the
// environment by the commands that need them.
type Config struct {
	// TrustedProxies is a list of CIDR ranges whose X-Forwarded-For header is honoured
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// PageSize is the default number of results per page on list endpoints
	PageSize int `yaml:"page_size" json:"page_size"`

	// PageSizeMax caps the page_size query parameter
	PageSizeMax int `yaml:"page_size_max" json:"page_size_max"`

	// TokenTTL is the lifetime of API tokens in seconds
	TokenTTL int `yaml:"token_ttl" json:"token_ttl"`

	// RateLimitRPS is the sustained number of requests per second per client
	RateLimitRPS float64 `yaml:"rate_limit_rps" json:"rate_limit_rps"`

	// RateLimitBurst is the token bucket size per client
	RateLimitBurst int `yaml:"rate_limit_burst" json:"rate_limit_burst"`

	GeolocationEnabled bool   `yaml:"geolocation_enabled" json:"geolocation_enabled"`
	GeolocationURL     string `yaml:"geolocation_url" json:"geolocation_url"`

	// TaskResultTTL is how long task states are kept by the result backend, in seconds
	TaskResultTTL int `yaml:"task_result_ttl" json:"task_result_ttl"`

	// WorkerConcurrency is the number of launch tasks a worker runs at once
	WorkerConcurrency int `yaml:"worker_concurrency" json:"worker_concurrency"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins"`

	// EnableDummyCloud registers the in-memory "dummy" cloud kind
	EnableDummyCloud bool `yaml:"enable_dummy_cloud" json:"enable_dummy_cloud"`

	// sources tracks where each value came from
	sources map[string]string

	configFilePath string
}

// List-valued environment overrides, comma separated.
const (
	TrustedProxiesEnv     = "CLOUDLAUNCH_TRUSTED_PROXIES"
	CORSAllowedOriginsEnv = "CLOUDLAUNCH_CORS_ALLOWED_ORIGINS"
)

// envOverrides mirrors Config with pointer fields so that unset variables
// can be told apart from zero values. Lists are plain slices; whether their
// variable is set is checked with os.LookupEnv.
type envOverrides struct {
	TrustedProxies     []string `env:"CLOUDLAUNCH_TRUSTED_PROXIES" envSeparator:","`
	PageSize           *int     `env:"CLOUDLAUNCH_PAGE_SIZE"`
	PageSizeMax        *int     `env:"CLOUDLAUNCH_PAGE_SIZE_MAX"`
	TokenTTL           *int     `env:"CLOUDLAUNCH_TOKEN_TTL"`
	RateLimitRPS       *float64 `env:"CLOUDLAUNCH_RATE_LIMIT_RPS"`
	RateLimitBurst     *int     `env:"CLOUDLAUNCH_RATE_LIMIT_BURST"`
	GeolocationEnabled *bool    `env:"CLOUDLAUNCH_GEOLOCATION_ENABLED"`
	GeolocationURL     *string  `env:"CLOUDLAUNCH_GEOLOCATION_URL"`
	TaskResultTTL      *int     `env:"CLOUDLAUNCH_TASK_RESULT_TTL"`
	WorkerConcurrency  *int     `env:"CLOUDLAUNCH_WORKER_CONCURRENCY"`
	CORSAllowedOrigins []string `env:"CLOUDLAUNCH_CORS_ALLOWED_ORIGINS" envSeparator:","`
	EnableDummyCloud   *bool    `env:"CLOUDLAUNCH_ENABLE_DUMMY_CLOUD"`
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary. When the
// configuration cannot be loaded it falls back to the defaults; commands
// that must not run on defaults call Load themselves.
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

func newDefault() *Config {
	return &Config{
		TrustedProxies:     []string{},
		PageSize:           10,
		PageSizeMax:        100,
		TokenTTL:           86400,
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		GeolocationEnabled: true,
		GeolocationURL:     "http://ip-api.com/json",
		TaskResultTTL:      86400,
		WorkerConcurrency:  4,
		CORSAllowedOrigins: []string{},
		EnableDummyCloud:   false,
		sources:            make(map[string]string),
	}
}

// Path returns the directory holding the config file
func Path() string {
	if p := os.Getenv("CLOUDLAUNCH_CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	config.configFilePath = filepath.Join(Path(), ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)

		var switches fileSwitches
		if err := yaml.Unmarshal(data, &switches); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileSwitches(&switches)
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

func attributeNames() []string {
	return []string{
		"trusted_proxies", "page_size", "page_size_max", "token_ttl",
		"rate_limit_rps", "rate_limit_burst", "geolocation_enabled",
		"geolocation_url", "task_result_ttl", "worker_concurrency",
		"cors_allowed_origins", "enable_dummy_cloud",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
	if file.PageSize != 0 {
		c.PageSize = file.PageSize
		c.sources["page_size"] = "file"
	}
	if file.PageSizeMax != 0 {
		c.PageSizeMax = file.PageSizeMax
		c.sources["page_size_max"] = "file"
	}
	if file.TokenTTL != 0 {
		c.TokenTTL = file.TokenTTL
		c.sources["token_ttl"] = "file"
	}
	if file.RateLimitRPS != 0 {
		c.RateLimitRPS = file.RateLimitRPS
		c.sources["rate_limit_rps"] = "file"
	}
	if file.RateLimitBurst != 0 {
		c.RateLimitBurst = file.RateLimitBurst
		c.sources["rate_limit_burst"] = "file"
	}
	if file.GeolocationURL != "" {
		c.GeolocationURL = file.GeolocationURL
		c.sources["geolocation_url"] = "file"
	}
	if file.TaskResultTTL != 0 {
		c.TaskResultTTL = file.TaskResultTTL
		c.sources["task_result_ttl"] = "file"
	}
	if file.WorkerConcurrency != 0 {
		c.WorkerConcurrency = file.WorkerConcurrency
		c.sources["worker_concurrency"] = "file"
	}
	if len(file.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = file.CORSAllowedOrigins
		c.sources["cors_allowed_origins"] = "file"
	}
}

// fileSwitches holds the boolean attributes, which need pointers to tell an
// explicit false apart from an absent key.
type fileSwitches struct {
	GeolocationEnabled *bool `yaml:"geolocation_enabled"`
	EnableDummyCloud   *bool `yaml:"enable_dummy_cloud"`
}

func (c *Config) applyFileSwitches(file *fileSwitches) {
	if file.GeolocationEnabled != nil {
		c.GeolocationEnabled = *file.GeolocationEnabled
		c.sources["geolocation_enabled"] = "file"
	}
	if file.EnableDummyCloud != nil {
		c.EnableDummyCloud = *file.EnableDummyCloud
		c.sources["enable_dummy_cloud"] = "file"
	}
}

func (c *Config) applyEnvConfig() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if _, ok := os.LookupEnv(TrustedProxiesEnv); ok {
		c.TrustedProxies = trimAll(o.TrustedProxies)
		c.sources["trusted_proxies"] = "environment"
	}
	if o.PageSize != nil {
		c.PageSize = *o.PageSize
		c.sources["page_size"] = "environment"
	}
	if o.PageSizeMax != nil {
		c.PageSizeMax = *o.PageSizeMax
		c.sources["page_size_max"] = "environment"
	}
	if o.TokenTTL != nil {
		c.TokenTTL = *o.TokenTTL
		c.sources["token_ttl"] = "environment"
	}
	if o.RateLimitRPS != nil {
		c.RateLimitRPS = *o.RateLimitRPS
		c.sources["rate_limit_rps"] = "environment"
	}
	if o.RateLimitBurst != nil {
		c.RateLimitBurst = *o.RateLimitBurst
		c.sources["rate_limit_burst"] = "environment"
	}
	if o.GeolocationEnabled != nil {
		c.GeolocationEnabled = *o.GeolocationEnabled
		c.sources["geolocation_enabled"] = "environment"
	}
	if o.GeolocationURL != nil {
		c.GeolocationURL = *o.GeolocationURL
		c.sources["geolocation_url"] = "environment"
	}
	if o.TaskResultTTL != nil {
		c.TaskResultTTL = *o.TaskResultTTL
		c.sources["task_result_ttl"] = "environment"
	}
	if o.WorkerConcurrency != nil {
		c.WorkerConcurrency = *o.WorkerConcurrency
		c.sources["worker_concurrency"] = "environment"
	}
	if _, ok := os.LookupEnv(CORSAllowedOriginsEnv); ok {
		c.CORSAllowedOrigins = trimAll(o.CORSAllowedOrigins)
		c.sources["cors_allowed_origins"] = "environment"
	}
	if o.EnableDummyCloud != nil {
		c.EnableDummyCloud = *o.EnableDummyCloud
		c.sources["enable_dummy_cloud"] = "environment"
	}
	return nil
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// TokenLifetime returns the token TTL as a duration
func (c *Config) TokenLifetime() time.Duration {
	return time.Duration(c.TokenTTL) * time.Second
}

// ResultTTL returns the task result TTL as a duration
func (c *Config) ResultTTL() time.Duration {
	return time.Duration(c.TaskResultTTL) * time.Second
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *Config) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.PageSizeMax < c.PageSize {
		return fmt.Errorf("page_size_max (%d) must not be lower than page_size (%d)", c.PageSizeMax, c.PageSize)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %d", c.TokenTTL)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("worker_concurrency must be positive, got %d", c.WorkerConcurrency)
	}
	if c.GeolocationEnabled && c.GeolocationURL == "" {
		return fmt.Errorf("geolocation_url is required when geolocation is enabled")
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	return []Attribute{
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "page_size", Value: strconv.Itoa(c.PageSize), Source: c.Source("page_size")},
		{Name: "page_size_max", Value: strconv.Itoa(c.PageSizeMax), Source: c.Source("page_size_max")},
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTL), Source: c.Source("token_ttl")},
		{Name: "rate_limit_rps", Value: strconv.FormatFloat(c.RateLimitRPS, 'f', -1, 64), Source: c.Source("rate_limit_rps")},
		{Name: "rate_limit_burst", Value: strconv.Itoa(c.RateLimitBurst), Source: c.Source("rate_limit_burst")},
		{Name: "geolocation_enabled", Value: strconv.FormatBool(c.GeolocationEnabled), Source: c.Source("geolocation_enabled")},
		{Name: "geolocation_url", Value: c.GeolocationURL, Source: c.Source("geolocation_url")},
		{Name: "task_result_ttl", Value: strconv.Itoa(c.TaskResultTTL), Source: c.Source("task_result_ttl")},
		{Name: "worker_concurrency", Value: strconv.Itoa(c.WorkerConcurrency), Source: c.Source("worker_concurrency")},
		{Name: "cors_allowed_origins", Value: strings.Join(c.CORSAllowedOrigins, ","), Source: c.Source("cors_allowed_origins")},
		{Name: "enable_dummy_cloud", Value: strconv.FormatBool(c.EnableDummyCloud), Source: c.Source("enable_dummy_cloud")},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func trimAll(parts []string) []string {
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
