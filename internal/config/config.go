package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Vector    VectorConfig    `yaml:"vector" mapstructure:"vector"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Tracing   TracingConfig   `yaml:"tracing" mapstructure:"tracing"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	CookieSecure    bool          `yaml:"cookie_secure" mapstructure:"cookie_secure"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the client store backend.
// Driver is one of memory, file, sqlite, redis, postgres.
type StoreConfig struct {
	Driver    string        `yaml:"driver" mapstructure:"driver"`
	Path      string        `yaml:"path" mapstructure:"path"`
	DSN       string        `yaml:"dsn" mapstructure:"dsn"`
	RedisAddr string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LLMConfig holds chat-completion provider settings.
type LLMConfig struct {
	Provider        string  `yaml:"provider" mapstructure:"provider"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	GeminiAPIKey    string  `yaml:"gemini_api_key" mapstructure:"gemini_api_key"`
	Model           string  `yaml:"model" mapstructure:"model"`
	Temperature     float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens       int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	SummaryTokens   int     `yaml:"summary_tokens" mapstructure:"summary_tokens"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Model     string `yaml:"model" mapstructure:"model"`
	Dimension int    `yaml:"dimension" mapstructure:"dimension"`
}

// VectorConfig holds Milvus connection settings.
type VectorConfig struct {
	Address             string `yaml:"address" mapstructure:"address"`
	Username            string `yaml:"username" mapstructure:"username"`
	Password            string `yaml:"password" mapstructure:"password"`
	Database            string `yaml:"database" mapstructure:"database"`
	PatentsCollection   string `yaml:"patents_collection" mapstructure:"patents_collection"`
	AttorneysCollection string `yaml:"attorneys_collection" mapstructure:"attorneys_collection"`
	NProbe              int    `yaml:"nprobe" mapstructure:"nprobe"`
}

// RenderConfig configures PDF rendering.
type RenderConfig struct {
	ChromePath string        `yaml:"chrome_path" mapstructure:"chrome_path"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// TracingConfig configures OTLP trace export. An empty endpoint disables export.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure    bool   `yaml:"insecure" mapstructure:"insecure"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PATENTMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Fall back to the provider SDKs' conventional variables.
	if cfg.LLM.AnthropicAPIKey == "" {
		cfg.LLM.AnthropicAPIKey = v.GetString("anthropic_api_key")
	}
	if cfg.LLM.GeminiAPIKey == "" {
		cfg.LLM.GeminiAPIKey = v.GetString("gemini_api_key")
	}

	return &cfg, nil
}

// setDefaults registers every key. AutomaticEnv only reaches keys viper
// already knows, so keys without a real default still get an empty one.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/patentmate.db")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.ttl", time.Duration(0))
	v.SetDefault("store.dsn", "")

	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.summary_tokens", 200)

	v.SetDefault("embedding.model", "text-embedding-004")
	v.SetDefault("embedding.dimension", 768)

	v.SetDefault("vector.address", "localhost:19530")
	v.SetDefault("vector.username", "")
	v.SetDefault("vector.password", "")
	v.SetDefault("vector.database", "")
	v.SetDefault("vector.patents_collection", "patents")
	v.SetDefault("vector.attorneys_collection", "attorneys")
	v.SetDefault("vector.nprobe", 16)

	v.SetDefault("render.chrome_path", "")
	v.SetDefault("render.timeout", 60*time.Second)

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.service_name", "patentmate")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Unprefixed keys read by the fallback in Load.
	_ = v.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
