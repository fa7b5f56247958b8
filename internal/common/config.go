package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/narro/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Knowledge   KnowledgeConfig `toml:"knowledge"`
	Variables   VariablesConfig `toml:"variables"`
	Workflow    WorkflowConfig  `toml:"workflow"`
	Reports     ReportsConfig   `toml:"reports"`
	Source      SourceConfig    `toml:"source"`
	Mail        MailConfig      `toml:"mail"`
	Schedule    ScheduleConfig  `toml:"schedule"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// KnowledgeConfig points at the seed file loaded into the knowledge repository on startup
type KnowledgeConfig struct {
	SeedFile   string `toml:"seed_file"`   // TOML file with [[entry]] tables (default: ./knowledge.toml)
	MaxResults int    `toml:"max_results"` // 0 = return every matching snippet
}

// VariablesConfig points at the files loaded into KV storage on startup (smtp_*, API keys)
type VariablesConfig struct {
	File    string `toml:"file"`     // TOML tables of value/description (default: ./variables.toml)
	EnvFile string `toml:"env_file"` // KEY=value file (default: ./.env)
}

// WorkflowConfig controls the reflection loop
type WorkflowConfig struct {
	MaxReflections  int    `toml:"max_reflections" validate:"min=0,max=20"` // corrective rounds after the first draft (default: 3)
	AcceptScore     int    `toml:"accept_score" validate:"min=0,max=10"`    // critique score that ends the loop early (default: 8)
	SampleRows      int    `toml:"sample_rows" validate:"min=0"`            // normalized rows shown to the generator (default: 5)
	DefaultQuestion string `toml:"default_question"`                        // question used when a run does not provide one
}

// ReportsConfig controls artifact output
type ReportsConfig struct {
	OutputDir string `toml:"output_dir"` // report PDFs (default: ./reports)
	ChartsDir string `toml:"charts_dir"` // chart PNGs (default: ./reports/charts)
	Language  string `toml:"language"`   // narrative language (default: Vietnamese)
	Title     string `toml:"title"`
	FontPath  string `toml:"font_path"` // optional UTF-8 TTF font for non-Latin narratives
}

// SourceConfig describes where scheduled and windowed runs fetch their payload
type SourceConfig struct {
	WebhookURL   string      `toml:"webhook_url" validate:"omitempty,url"`
	Timeout      string      `toml:"timeout"`                        // per-request timeout (default: "60s")
	MaxRetries   int         `toml:"max_retries" validate:"min=0"`   // retries on 5xx/transport errors (default: 2)
	RateLimit    string      `toml:"rate_limit"`                     // minimum spacing between requests (default: "1s")
	LookbackDays int         `toml:"lookback_days" validate:"min=1"` // window used by scheduled runs (default: 1)
	OAuth        OAuthConfig `toml:"oauth"`
}

// OAuthConfig enables client-credentials authentication for the payload source
type OAuthConfig struct {
	TokenURL       string   `toml:"token_url"`
	ClientID       string   `toml:"client_id"`
	ClientSecret   string   `toml:"client_secret"`
	Scopes         []string `toml:"scopes"`
	RetailerHeader string   `toml:"retailer_header"` // optional extra header name, sent with Retailer
	Retailer       string   `toml:"retailer"`
}

// MailConfig contains SMTP settings for report delivery.
// Values stored in KV storage under smtp_* keys take precedence.
type MailConfig struct {
	Host       string   `toml:"host"`
	Port       int      `toml:"port" validate:"min=0,max=65535"`
	Username   string   `toml:"username"`
	Password   string   `toml:"password"`
	From       string   `toml:"from"`
	FromName   string   `toml:"from_name"`
	Recipients []string `toml:"recipients" validate:"dive,email"`
	UseTLS     bool     `toml:"use_tls"`
	Timeout    string   `toml:"timeout"` // default: "30s"
}

// ScheduleConfig drives the cron-triggered daily report
type ScheduleConfig struct {
	Enabled  bool   `toml:"enabled"`
	Cron     string `toml:"cron"` // 5-field cron expression (default: "0 7 * * *")
	Question string `toml:"question"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains settings shared by every provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"`          // default: "gemini"
	CriticProvider  LLMProvider `toml:"critic_provider" validate:"omitempty,oneof=gemini claude"` // empty = same as default provider
	Timeout         string      `toml:"timeout"`                                                  // per-call timeout (default: "2m")
	MaxRetries      int         `toml:"max_retries" validate:"min=0"`                             // transport retries per call (default: 3)
	RateLimit       string      `toml:"rate_limit"`                                               // minimum spacing between calls (default: "1s")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Knowledge: KnowledgeConfig{
			SeedFile: "./knowledge.toml",
		},
		Variables: VariablesConfig{
			File:    "./variables.toml",
			EnvFile: "./.env",
		},
		Workflow: WorkflowConfig{
			MaxReflections:  3,
			AcceptScore:     8,
			SampleRows:      5,
			DefaultQuestion: "Analyze sales performance for the period and recommend actions to grow revenue.",
		},
		Reports: ReportsConfig{
			OutputDir: "./reports",
			ChartsDir: "./reports/charts",
			Language:  "Vietnamese",
			Title:     "Sales Analysis Report",
		},
		Source: SourceConfig{
			Timeout:      "60s",
			MaxRetries:   2,
			RateLimit:    "1s",
			LookbackDays: 1,
		},
		Mail: MailConfig{
			Port:    587,
			UseTLS:  true,
			Timeout: "30s",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 7 * * *",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-4-5",
			MaxTokens:   8192,
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Timeout:         "2m",
			MaxRetries:      3,
			RateLimit:       "1s",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks field ranges and the schedule expression
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid configuration: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Schedule.Enabled {
		if err := ValidateSchedule(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule.cron: %w", err)
		}
	}
	return nil
}

// applyEnvOverrides applies NARRO_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NARRO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("NARRO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("NARRO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("NARRO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("NARRO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("NARRO_LOG_OUTPUT"); output != "" {
		if outputs := splitList(output); len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if v := os.Getenv("NARRO_MAX_REFLECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Workflow.MaxReflections = n
		}
	}
	if v := os.Getenv("NARRO_ACCEPT_SCORE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Workflow.AcceptScore = n
		}
	}

	if dir := os.Getenv("NARRO_REPORTS_DIR"); dir != "" {
		config.Reports.OutputDir = dir
	}
	if url := os.Getenv("NARRO_WEBHOOK_URL"); url != "" {
		config.Source.WebhookURL = url
	}

	if provider := os.Getenv("NARRO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}

	// SMTP variables kept compatible with the names used by existing deployments
	if host := firstEnv("NARRO_SMTP_HOST", "SMTP_SERVER"); host != "" {
		config.Mail.Host = host
	}
	if port := firstEnv("NARRO_SMTP_PORT", "SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Mail.Port = p
		}
	}
	if user := firstEnv("NARRO_SMTP_USERNAME", "EMAIL_USER"); user != "" {
		config.Mail.Username = user
		if config.Mail.From == "" {
			config.Mail.From = user
		}
	}
	if password := firstEnv("NARRO_SMTP_PASSWORD", "EMAIL_PASSWORD"); password != "" {
		config.Mail.Password = password
	}
	if recipients := firstEnv("NARRO_MAIL_RECIPIENTS", "RECIPIENT_EMAIL"); recipients != "" {
		config.Mail.Recipients = splitList(recipients)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name.
// Resolution order: environment variables → KV store → config fallback → error
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"NARRO_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"NARRO_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	for _, envVarName := range keyToEnvMapping[name] {
		if envValue := os.Getenv(envVarName); envValue != "" {
			return envValue, nil
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// ValidateSchedule validates a 5-field cron expression and rejects intervals under five minutes
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// ParseDuration parses a duration string, returning fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
