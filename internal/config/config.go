package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("auto-api version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server          ServerConfig   `mapstructure:"server"`
	Logging         LoggingConfig  `mapstructure:"logging"`
	EndpointConfig  EndpointConfig `mapstructure:"endpoint"`
	OpenAPIFile     string         `mapstructure:"openapi_file"`
	AdjustmentsFile string         `mapstructure:"adjustments_file"`
	Parser          ParserConfig   `mapstructure:"parser"`
	LLM             LLMConfig      `mapstructure:"llm"`
	Resolver        ResolverConfig `mapstructure:"resolver"`
	History         HistoryConfig  `mapstructure:"history"`
	Metrics         MetricsConfig  `mapstructure:"metrics"`
}

// AuthType represents the type of authentication to use against the target API
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
)

// EndpointConfig describes how the target API is reached. BaseURL, when set,
// replaces the first server declared by the ingested document.
type EndpointConfig struct {
	BaseURL    string            `json:"base_url" mapstructure:"base_url"`
	AuthType   AuthType          `json:"auth_type" mapstructure:"auth_type"`
	AuthConfig map[string]string `json:"auth_config" mapstructure:"auth_config"`
	Headers    map[string]string `json:"headers" mapstructure:"headers"`
	Timeout    time.Duration     `json:"timeout" mapstructure:"timeout"`
}

type ServerMode string

const (
	ServerModeSSE   ServerMode = "sse"
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port      int        `mapstructure:"port"`
	Host      string     `mapstructure:"host"`
	Mode      ServerMode `mapstructure:"mode"`
	Name      string     `mapstructure:"name"`
	Version   string     `mapstructure:"version"`
	AuthToken string     `mapstructure:"auth_token"`
	// AllowOrigins restricts CORS; empty allows any origin.
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
	// Stderr sends console output to stderr, required when stdout carries the MCP stdio stream.
	Stderr bool `mapstructure:"stderr"`
}

type ParserConfig struct {
	Validate       bool `mapstructure:"validate"`
	MaxSchemaDepth int  `mapstructure:"max_schema_depth"`
}

type LLMProvider string

const (
	LLMProviderOllama LLMProvider = "ollama"
	LLMProviderOpenAI LLMProvider = "openai"
	LLMProviderNone   LLMProvider = "none"
)

type LLMConfig struct {
	Provider       LLMProvider   `mapstructure:"provider"`
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	Burst          int           `mapstructure:"burst"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type ResolverStrategy string

const (
	ResolverStrategyCompletion ResolverStrategy = "completion"
	ResolverStrategyHeuristic  ResolverStrategy = "heuristic"
)

type ResolverConfig struct {
	Strategy    ResolverStrategy `mapstructure:"strategy"`
	Shortlist   int              `mapstructure:"shortlist"`
	Temperature float64          `mapstructure:"temperature"`
	Explain     bool             `mapstructure:"explain"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.String("mode", "", "Server mode (stdio|sse|http)")
	fs.String("openapi-file", "", "Path to the OpenAPI/Swagger document")
	fs.String("adjustments-file", "", "Path to the adjustments file")
	fs.String("strategy", "", "Value extraction strategy (completion|heuristic)")
	fs.String("config", "", "Path to a config file")
}

func setDefaults(v *viper.Viper) {
	// Empty defaults make the keys visible to AutomaticEnv during Unmarshal.
	v.SetDefault("openapi_file", "")
	v.SetDefault("adjustments_file", "")
	v.SetDefault("server.auth_token", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("endpoint.base_url", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", string(ServerModeSTDIO))
	v.SetDefault("server.name", "auto-api")
	v.SetDefault("server.version", version)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("endpoint.auth_type", string(AuthTypeNone))
	v.SetDefault("endpoint.timeout", 30*time.Second)

	v.SetDefault("parser.max_schema_depth", 32)

	v.SetDefault("llm.provider", string(LLMProviderOllama))
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.chat_model", "llama3")
	v.SetDefault("llm.embedding_model", "nomic-embed-text")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.rate_limit", 5.0)
	v.SetDefault("llm.burst", 5)
	v.SetDefault("llm.max_retries", 3)

	v.SetDefault("resolver.strategy", string(ResolverStrategyCompletion))
	v.SetDefault("resolver.temperature", 0.0)
	v.SetDefault("resolver.explain", true)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dsn", "auto-api.db")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "auto_api")
}

// Load reads configuration from defaults, config files, environment
// (AUTO_API_*) and the flags registered on fs. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AUTO_API")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	v.SetConfigType("yaml")
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/auto-api")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Loading additional config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		v.SetConfigFile("/config/config.yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to merge /config/config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if mode := v.GetString("mode"); mode != "" {
		cfg.Server.Mode = ServerMode(mode)
	}
	if file := v.GetString("openapi-file"); file != "" {
		cfg.OpenAPIFile = file
	}
	if file := v.GetString("adjustments-file"); file != "" {
		cfg.AdjustmentsFile = file
	}
	if strategy := v.GetString("strategy"); strategy != "" {
		cfg.Resolver.Strategy = ResolverStrategy(strategy)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case ServerModeSSE, ServerModeSTDIO, ServerModeHTTP:
	default:
		return fmt.Errorf("unsupported server mode %q, expected stdio, sse or http", c.Server.Mode)
	}

	switch c.Resolver.Strategy {
	case ResolverStrategyCompletion, ResolverStrategyHeuristic:
	default:
		return fmt.Errorf("unsupported resolver strategy %q, expected completion or heuristic", c.Resolver.Strategy)
	}

	switch c.LLM.Provider {
	case LLMProviderOllama, LLMProviderOpenAI, LLMProviderNone:
	default:
		return fmt.Errorf("unsupported llm provider %q, expected ollama, openai or none", c.LLM.Provider)
	}

	if c.Resolver.Strategy == ResolverStrategyCompletion && c.LLM.Provider == LLMProviderNone {
		return fmt.Errorf("resolver strategy %q requires an llm provider", c.Resolver.Strategy)
	}

	switch c.EndpointConfig.AuthType {
	case "", AuthTypeNone, AuthTypeBasic, AuthTypeBearer, AuthTypeAPIKey:
	default:
		return fmt.Errorf("unsupported endpoint auth type %q", c.EndpointConfig.AuthType)
	}

	if c.Parser.MaxSchemaDepth < 0 {
		return fmt.Errorf("parser.max_schema_depth must not be negative")
	}
	return nil
}

// RequireOpenAPIFile returns an error when no document was configured.
func (c *Config) RequireOpenAPIFile() error {
	if c.OpenAPIFile == "" {
		return fmt.Errorf("openapi file is required, please adjust the config or pass --openapi-file or AUTO_API_OPENAPI_FILE environment variable")
	}
	return nil
}

// Default returns a configuration populated only with defaults.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return &cfg
}
