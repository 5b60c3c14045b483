package structures

import "time"

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required|uint|min:1"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Name     string `yaml:"name" validate:"required"`
	SSLMode  string `yaml:"sslMode"`
}

// VitalConfig holds credentials for the Vital API and its webhook channel.
type VitalConfig struct {
	APIKey        string `yaml:"apiKey"`
	Environment   string `yaml:"environment"`
	WebhookSecret string `yaml:"webhookSecret"`
}

// TerraConfig holds credentials for the Terra API and its webhook channel.
type TerraConfig struct {
	DevID         string `yaml:"devId"`
	APIKey        string `yaml:"apiKey"`
	SigningSecret string `yaml:"signingSecret"`
}

type StripeConfig struct {
	WebhookSecret string `yaml:"webhookSecret"`
	// Tolerance for the signed timestamp in the stripe-signature header.
	Tolerance time.Duration `yaml:"tolerance"`
}

// ArchiveConfig controls the raw-delivery archive. Flushed batches are
// zstd-compressed JSON files under Dir.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Dir           string        `yaml:"dir"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type APIConfig struct {
	// Bearer token guarding the non-webhook routes.
	Token string `yaml:"token"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Environment string         `yaml:"environment"`
	WebServer   Server         `yaml:"webServer"`
	Database    DatabaseConfig `yaml:"database"`
	Logger      LoggerConfig   `yaml:"logger"`
	Vital       VitalConfig    `yaml:"vital"`
	Terra       TerraConfig    `yaml:"terra"`
	Stripe      StripeConfig   `yaml:"stripe"`
	Archive     ArchiveConfig  `yaml:"archive"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	API         APIConfig      `yaml:"api"`
}

// IsProduction reports whether the daemon runs with production semantics.
// Unsigned webhooks are only ever tolerated outside of production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
