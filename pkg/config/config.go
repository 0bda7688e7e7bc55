// Package config loads designgate settings from the environment, an optional
// .env file and an optional YAML file, and validates them before any surface
// is started.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wilhg/designgate/pkg/errmodel"
)

// Transport names accepted for the upstream provider.
const (
	TransportStreamableHTTP = "streamable_http"
	TransportSSE            = "sse"
	TransportStdio          = "stdio"
)

// Config stores all configuration of the gateway.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Server    ServerConfig    `mapstructure:"server"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// Default model per provider.
const (
	DefaultOpenAIModel = "gpt-4.1-mini"
	DefaultGeminiModel = "gemini-2.5-flash-lite"
)

// LLMConfig selects the reasoning engine. After Load, Model holds the model of
// the selected provider: llm.model for openai, llm.gemini_model for gemini.
type LLMConfig struct {
	Provider     string  `mapstructure:"provider"`
	Model        string  `mapstructure:"model"`
	GeminiModel  string  `mapstructure:"gemini_model"`
	APIKey       string  `mapstructure:"api_key"`
	GoogleAPIKey string  `mapstructure:"google_api_key"`
	BaseURL      string  `mapstructure:"base_url"`
	Temperature  float64 `mapstructure:"temperature"`
}

// UpstreamConfig describes the upstream MCP tool provider.
type UpstreamConfig struct {
	ServerName string `mapstructure:"server_name"`
	// DisplayName names the provider in error text returned to callers.
	DisplayName string   `mapstructure:"display_name"`
	Transport   string   `mapstructure:"transport"`
	URL         string   `mapstructure:"url"`
	AuthBearer  string   `mapstructure:"auth_bearer"`
	Command     string   `mapstructure:"command"`
	Args        []string `mapstructure:"args"`
}

// Label returns the name used in caller-facing error text.
func (u UpstreamConfig) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ServerName
}

// IsNetwork reports whether the transport needs a URL.
func (u UpstreamConfig) IsNetwork() bool {
	return IsNetworkTransport(u.Transport)
}

// ServerConfig is the listen address of the MCP/REST surface.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// AgentConfig bounds a single query.
type AgentConfig struct {
	MaxSteps         int           `mapstructure:"max_steps"`
	QueryTimeout     time.Duration `mapstructure:"query_timeout"`
	ToolOutputTokens int           `mapstructure:"tool_output_tokens"`
}

// JournalConfig enables the run journal when DatabaseURL is set.
type JournalConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
}

type TelemetryConfig struct {
	Stdout bool `mapstructure:"stdout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IsNetworkTransport reports whether t is reached over HTTP.
func IsNetworkTransport(t string) bool {
	return t == TransportStreamableHTTP || t == TransportSSE
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"llm.provider":             "LLM_PROVIDER",
	"llm.model":                "OPENAI_MODEL",
	"llm.gemini_model":         "GEMINI_MODEL",
	"llm.api_key":              "OPENAI_API_KEY",
	"llm.google_api_key":       "GOOGLE_API_KEY",
	"llm.base_url":             "OPENAI_BASE_URL",
	"llm.temperature":          "LLM_TEMPERATURE",
	"upstream.server_name":     "LEANIX_MCP_SERVER_NAME",
	"upstream.display_name":    "LEANIX_MCP_DISPLAY_NAME",
	"upstream.transport":       "LEANIX_MCP_TRANSPORT",
	"upstream.url":             "LEANIX_MCP_URL",
	"upstream.auth_bearer":     "LEANIX_MCP_AUTH_BEARER",
	"upstream.command":         "LEANIX_MCP_COMMAND",
	"upstream.args":            "LEANIX_MCP_ARGS",
	"server.host":              "MCP_SERVER_HOST",
	"server.port":              "MCP_SERVER_PORT",
	"agent.max_steps":          "AGENT_MAX_STEPS",
	"agent.query_timeout":      "AGENT_QUERY_TIMEOUT",
	"agent.tool_output_tokens": "AGENT_TOOL_OUTPUT_TOKENS",
	"journal.database_url":     "DATABASE_URL",
	"telemetry.stdout":         "OTEL_STDOUT",
	"log.level":                "LOG_LEVEL",
	"log.format":               "LOG_FORMAT",
}

// Options controls where Load looks for files.
type Options struct {
	// ConfigFile is an optional YAML file.
	ConfigFile string
	// DotEnvFile is an optional dotenv file; a missing file is ignored.
	DotEnvFile string
}

// Load reads configuration from defaults, the YAML file, the dotenv file and
// the process environment, in increasing order of precedence. It does not
// validate; call Validate before using the result.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errmodel.New(errmodel.CategoryConfiguration, "read_config", "reading config file", map[string]any{"path": opts.ConfigFile}, err)
		}
	}

	dotenv, err := readDotEnv(opts.DotEnvFile)
	if err != nil {
		return nil, err
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errmodel.New(errmodel.CategoryConfiguration, "bind_env", "binding environment", map[string]any{"key": key}, err)
		}
		if dotenv == nil {
			continue
		}
		if _, set := os.LookupEnv(env); set {
			continue
		}
		if val := dotenv.GetString(env); val != "" {
			v.Set(key, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errmodel.New(errmodel.CategoryConfiguration, "decode_config", "decoding configuration", nil, err)
	}
	// LEANIX_MCP_ARGS arrives as one space separated string from the environment.
	if len(cfg.Upstream.Args) == 1 && strings.Contains(cfg.Upstream.Args[0], " ") {
		cfg.Upstream.Args = strings.Fields(cfg.Upstream.Args[0])
	}
	cfg.Upstream.Transport = strings.ToLower(strings.TrimSpace(cfg.Upstream.Transport))
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	// OPENAI_MODEL never reaches the gemini engine.
	if cfg.LLM.Provider == "gemini" {
		cfg.LLM.Model = cfg.LLM.GeminiModel
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", DefaultOpenAIModel)
	v.SetDefault("llm.gemini_model", DefaultGeminiModel)
	v.SetDefault("llm.temperature", 0.1)

	v.SetDefault("upstream.server_name", "leanix")
	v.SetDefault("upstream.display_name", "LeanIX")
	v.SetDefault("upstream.transport", TransportStreamableHTTP)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("agent.max_steps", 15)
	v.SetDefault("agent.query_timeout", 120*time.Second)
	v.SetDefault("agent.tool_output_tokens", 4000)

	v.SetDefault("telemetry.stdout", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func readDotEnv(path string) (*viper.Viper, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	d := viper.New()
	d.SetConfigFile(path)
	d.SetConfigType("env")
	if err := d.ReadInConfig(); err != nil {
		return nil, errmodel.New(errmodel.CategoryConfiguration, "read_dotenv", "reading dotenv file", map[string]any{"path": path}, err)
	}
	return d, nil
}

// Validate checks the values that must be present before the process may
// serve anything. Failures are configuration errors and are fatal.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return errmodel.Configuration("missing_credential", "OPENAI_API_KEY is not set", nil)
		}
	case "gemini":
		if c.LLM.GoogleAPIKey == "" {
			return errmodel.Configuration("missing_credential", "GOOGLE_API_KEY is not set", nil)
		}
	default:
		return errmodel.Configuration("unknown_provider", "unknown LLM provider", map[string]any{"provider": c.LLM.Provider})
	}
	if c.LLM.Model == "" {
		return errmodel.Configuration("missing_model", "model identity is empty", nil)
	}
	if c.LLM.Provider == "gemini" && !strings.HasPrefix(c.LLM.Model, "gemini") {
		return errmodel.Configuration("model_provider_mismatch", "gemini provider needs a gemini model", map[string]any{"model": c.LLM.Model})
	}

	if err := c.Upstream.Validate(); err != nil {
		return err
	}

	if c.Agent.MaxSteps <= 0 {
		return errmodel.Configuration("invalid_max_steps", "agent.max_steps must be positive", map[string]any{"max_steps": c.Agent.MaxSteps})
	}
	return nil
}

// Validate checks the upstream section alone. Commands that never reach the
// reasoning engine (tools listing) only need this part.
func (u UpstreamConfig) Validate() error {
	if u.ServerName == "" {
		return errmodel.Configuration("missing_server_name", "upstream server name is empty", nil)
	}
	switch u.Transport {
	case TransportStreamableHTTP, TransportSSE:
		if u.URL == "" {
			return errmodel.Configuration("missing_url", "LEANIX_MCP_URL must be set", map[string]any{"transport": u.Transport})
		}
	case TransportStdio:
		if u.Command == "" {
			return errmodel.Configuration("missing_command", "LEANIX_MCP_COMMAND must be set for stdio transport", nil)
		}
	default:
		return errmodel.Configuration("unknown_transport", "unsupported upstream transport", map[string]any{"transport": u.Transport})
	}
	return nil
}
