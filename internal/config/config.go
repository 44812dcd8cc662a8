// Package config centralizes every tunable the verification pipeline needs
// into a single immutable Config loaded once at process start. Components
// receive only the sub-struct relevant to them (cfg.OCR, cfg.Registry.VAT,
// ...), never the whole Config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig controls the process's own listen ports. The HTTP endpoint
// layer itself is out of scope for this engine; these values exist so the
// progress-bus SSE adapter and the metrics exporter have somewhere to bind.
type ServerConfig struct {
	WebhookPort string `yaml:"webhook_port"`
	MetricsPort string `yaml:"metrics_port"`
}

// IntakeConfig governs Job Intake (§4.9).
type IntakeConfig struct {
	MaxUploadSize int64  `yaml:"max_upload_size"`
	UploadDir     string `yaml:"upload_dir"`
	UseQueue      bool   `yaml:"use_queue"`
}

// OCRConfig selects and tunes the Text Extraction Stage's OCR port (§4.2, §6).
type OCRConfig struct {
	Provider          string        `yaml:"provider"` // "aws_textract"
	Region            string        `yaml:"region"`
	Timeout           time.Duration `yaml:"timeout"`
	BaselineDPI       int           `yaml:"baseline_dpi"`
	FallbackDPI       int           `yaml:"fallback_dpi"`
	MaxPageConcurrent int           `yaml:"max_page_concurrent"`
}

// LLMConfig selects and tunes the Field Parser Stage's LLM port (§4.3, §6).
type LLMConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Provider    string        `yaml:"provider"` // "anthropic" | "bedrock" | "langchain"
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Endpoint    string        `yaml:"endpoint"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
}

// ForensicConfig tunes the Forensic Stage's numeric thresholds (§4.4). Only
// the thresholds that are safe to retune without changing documented
// invariants are exposed; the scoring formula constants are not
// configurable.
type ForensicConfig struct {
	ScannedCopyMoveThreshold float64 `yaml:"scanned_copy_move_threshold"`
	RegularCopyMoveThreshold float64 `yaml:"regular_copy_move_threshold"`
}

// CompanyHouseConfig configures the company registry port.
type CompanyHouseConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// VATRegistryConfig configures the tax (VAT) registry port, including its
// OAuth2 client-credentials flow (§4.5, §6).
type VATRegistryConfig struct {
	BaseURL      string        `yaml:"base_url"`
	TokenURL     string        `yaml:"token_url"`
	UseOAuth     bool          `yaml:"use_oauth"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	ServerToken  string        `yaml:"server_token"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RegistryConfig groups the three registry ports.
type RegistryConfig struct {
	CompanyHouse CompanyHouseConfig `yaml:"company_house"`
	VAT          VATRegistryConfig  `yaml:"vat"`
	// PolicyPath points at the registry_required.rego bundle (§2.2)
	// deciding whether a registry outage may park a job on REVIEW instead
	// of failing it. Empty disables the policy hook: outages always fail.
	PolicyPath string `yaml:"policy_path"`
	// AllowReviewOnOutage is the allow_review_on_registry_outage input the
	// policy bundle gates on.
	AllowReviewOnOutage bool `yaml:"allow_review_on_outage"`
}

// RegistryCacheConfig tunes the optional registry-lookup cache (§4.10).
type RegistryCacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`
}

// BlobConfig toggles durable archival of uploaded documents (§6).
type BlobConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
}

// QueueConfig configures the submission queue the Queue Worker polls (§4.8).
type QueueConfig struct {
	URL                  string        `yaml:"url"`
	WaitTime             time.Duration `yaml:"wait_time"`
	VisibilityTimeout    time.Duration `yaml:"visibility_timeout"`
}

// WorkerConfig bounds the number of Dispatchers running concurrently (§5).
type WorkerConfig struct {
	PoolSize int `yaml:"pool_size"`
}

// NotificationsConfig configures the optional Slack terminal-event hook
// (§4.11).
type NotificationsConfig struct {
	SlackWebhook string `yaml:"slack_webhook"`
}

// LoggingConfig controls the zap core's verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the immutable, fully-resolved configuration for one process.
// Built once by Load and never mutated afterward.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Intake        IntakeConfig        `yaml:"intake"`
	OCR           OCRConfig           `yaml:"ocr"`
	LLM           LLMConfig           `yaml:"llm"`
	Forensic      ForensicConfig      `yaml:"forensic"`
	Registry      RegistryConfig      `yaml:"registry"`
	RegistryCache RegistryCacheConfig `yaml:"registry_cache"`
	Blob          BlobConfig          `yaml:"blob"`
	Queue         QueueConfig         `yaml:"queue"`
	Worker        WorkerConfig        `yaml:"worker"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
	Environment   string              `yaml:"environment"`
}

// Load reads path, applies defaults, overlays environment variables, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{WebhookPort: "8080", MetricsPort: "9090"},
		Intake: IntakeConfig{
			MaxUploadSize: 20 * 1024 * 1024,
			UploadDir:     "/tmp/docverify-uploads",
		},
		OCR: OCRConfig{
			Provider:          "aws_textract",
			Timeout:           120 * time.Second,
			BaselineDPI:       200,
			FallbackDPI:       300,
			MaxPageConcurrent: 5,
		},
		LLM: LLMConfig{
			Enabled:     true,
			Provider:    "anthropic",
			Timeout:     120 * time.Second,
			Temperature: 0.0,
			MaxTokens:   1024,
		},
		Forensic: ForensicConfig{
			ScannedCopyMoveThreshold: 30.0,
			RegularCopyMoveThreshold: 20.0,
		},
		Registry: RegistryConfig{
			CompanyHouse: CompanyHouseConfig{
				BaseURL: "https://api.companieshouse.gov.uk",
				Timeout: 15 * time.Second,
			},
			VAT: VATRegistryConfig{
				BaseURL:  "https://api.service.hmrc.gov.uk",
				TokenURL: "https://api.service.hmrc.gov.uk/oauth/token",
				UseOAuth: true,
				Timeout:  15 * time.Second,
			},
		},
		RegistryCache: RegistryCacheConfig{TTL: 5 * time.Minute},
		Queue: QueueConfig{
			WaitTime:          20 * time.Second,
			VisibilityTimeout: 900 * time.Second,
		},
		Worker:  WorkerConfig{PoolSize: 5},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Intake.UploadDir = v
	}
	if v := os.Getenv("MAX_UPLOAD_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
		}
		cfg.Intake.MaxUploadSize = n
	}
	if v := os.Getenv("USE_QUEUE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid USE_QUEUE: %w", err)
		}
		cfg.Intake.UseQueue = b
	}
	if v := os.Getenv("QUEUE_URL"); v != "" {
		cfg.Queue.URL = v
	}
	if v := os.Getenv("BLOB_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BLOB_ENABLED: %w", err)
		}
		cfg.Blob.Enabled = b
	}
	if v := os.Getenv("LLM_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LLM_ENABLED: %w", err)
		}
		cfg.LLM.Enabled = b
	}
	if v := os.Getenv("COMPANIES_HOUSE_API_KEY"); v != "" {
		cfg.Registry.CompanyHouse.APIKey = v
	}
	if v := os.Getenv("HMRC_CLIENT_ID"); v != "" {
		cfg.Registry.VAT.ClientID = v
	}
	if v := os.Getenv("HMRC_CLIENT_SECRET"); v != "" {
		cfg.Registry.VAT.ClientSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("WORKER_POOL_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WORKER_POOL_SIZE: %w", err)
		}
		cfg.Worker.PoolSize = n
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Intake.MaxUploadSize <= 0 {
		return fmt.Errorf("intake.max_upload_size must be greater than 0")
	}
	if cfg.Worker.PoolSize <= 0 {
		return fmt.Errorf("worker.pool_size must be greater than 0")
	}
	if cfg.OCR.MaxPageConcurrent <= 0 {
		return fmt.Errorf("ocr.max_page_concurrent must be greater than 0")
	}
	if cfg.LLM.Enabled {
		switch cfg.LLM.Provider {
		case "anthropic", "bedrock", "langchain":
		default:
			return fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
		}
		if cfg.LLM.Temperature < 0.0 || cfg.LLM.Temperature > 1.0 {
			return fmt.Errorf("llm.temperature must be between 0.0 and 1.0")
		}
		if cfg.LLM.MaxTokens <= 0 {
			return fmt.Errorf("llm.max_tokens must be greater than 0")
		}
	}
	if cfg.Intake.UseQueue && cfg.Queue.URL == "" {
		return fmt.Errorf("queue.url is required when intake.use_queue is true")
	}
	return nil
}
