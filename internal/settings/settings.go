package settings

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"avatar-relay/config"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Document-index backends
const (
	BackendOpenAI = "openai"
	BackendChroma = "chroma"
)

// Settings stores all configuration of the relay.
// The values are read by viper from an optional config file, a .env file and
// environment variables, in increasing order of precedence.
type Settings struct {
	Server          ServerSettings    `mapstructure:"server"`
	Heygen          HeygenSettings    `mapstructure:"heygen"`
	OpenAI          OpenAISettings    `mapstructure:"openai"`
	PersonaSettings PersonaSettings   `mapstructure:"persona"`
	Retrieval       RetrievalSettings `mapstructure:"retrieval"`
	Chroma          ChromaSettings    `mapstructure:"chroma"`
	Redis           RedisSettings     `mapstructure:"redis"`
	Cache           CacheSettings     `mapstructure:"cache"`
	Upstream        UpstreamSettings  `mapstructure:"upstream"`
	Chat            ChatSettings      `mapstructure:"chat"`
	History         HistorySettings   `mapstructure:"history"`
	Log             LogSettings       `mapstructure:"log"`
}

// ServerSettings configures the inbound HTTP listener.
type ServerSettings struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SwaggerURL      string        `mapstructure:"swagger_url"`
}

// HeygenSettings holds the avatar-provider credential and token endpoint.
type HeygenSettings struct {
	APIKey   string `mapstructure:"api_key"`
	TokenURL string `mapstructure:"token_url"`
}

// OpenAISettings holds the language-model provider credential and endpoints.
type OpenAISettings struct {
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	VectorStoreID string `mapstructure:"vector_store_id"`
}

// PersonaSettings selects the models and optional persona override file.
type PersonaSettings struct {
	ModelID           string `mapstructure:"model_id"`
	ClassifierModelID string `mapstructure:"classifier_model_id"`
	MaxSentences      int    `mapstructure:"max_sentences"`
	File              string `mapstructure:"file"`
}

// RetrievalSettings controls the orchestration variant and search limits.
type RetrievalSettings struct {
	Mode           string  `mapstructure:"mode"`    // "explicit" or "provider"
	Backend        string  `mapstructure:"backend"` // "openai" or "chroma"
	MaxResults     int     `mapstructure:"max_results"`
	ScoreThreshold float64 `mapstructure:"score_threshold"`
	ToolMaxResults int     `mapstructure:"tool_max_results"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
}

// ChromaSettings configures the chroma document-index backend.
type ChromaSettings struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	URL        string        `mapstructure:"url"` // Overrides host and port
	Tenant     string        `mapstructure:"tenant"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RedisSettings configures the optional retrieval cache store.
type RedisSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// CacheSettings toggles the retrieval cache.
type CacheSettings struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// UpstreamSettings bounds every outbound provider call.
type UpstreamSettings struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChatSettings bounds one retrieval-augmented turn across all of its
// upstream calls. It must stay below server.write_timeout so the error body
// can still be written.
type ChatSettings struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// HistorySettings caps inbound conversation size. Zero disables the cap.
type HistorySettings struct {
	MaxTokens int `mapstructure:"max_tokens"`
}

// LogSettings configures zerolog output.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// New returns a viper instance preloaded with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.swagger_url", "/swagger/doc.json")

	v.SetDefault("heygen.api_key", "")
	v.SetDefault("heygen.token_url", "https://api.heygen.com/v1/streaming.create_token")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.vector_store_id", "")

	v.SetDefault("persona.model_id", "gpt-4o-mini-2024-07-18")
	v.SetDefault("persona.classifier_model_id", "")
	v.SetDefault("persona.max_sentences", 3)
	v.SetDefault("persona.file", "")

	v.SetDefault("retrieval.mode", string(config.ModeExplicit))
	v.SetDefault("retrieval.backend", BackendOpenAI)
	v.SetDefault("retrieval.max_results", 3)
	v.SetDefault("retrieval.score_threshold", 0.7)
	v.SetDefault("retrieval.tool_max_results", 2)
	v.SetDefault("retrieval.embedding_model", "text-embedding-3-small")

	v.SetDefault("chroma.host", "localhost")
	v.SetDefault("chroma.port", 8001)
	v.SetDefault("chroma.url", "")
	v.SetDefault("chroma.tenant", "default_tenant")
	v.SetDefault("chroma.database", "default_database")
	v.SetDefault("chroma.collection", "documents")
	v.SetDefault("chroma.timeout", 30*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("upstream.timeout", 60*time.Second)
	v.SetDefault("chat.timeout", 75*time.Second)
	v.SetDefault("history.max_tokens", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// openai.api_key <- OPENAI_API_KEY, heygen.api_key <- HEYGEN_API_KEY, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("retrieval.mode", "RETRIEVAL_MODE", "RELAY_MODE")

	return v
}

// Load reads the optional config file and .env, then decodes Settings.
func Load(v *viper.Viper, configPath string, envFiles ...string) (*Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, pkgerrors.Wrap(err, "load .env")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, pkgerrors.Wrapf(err, "read config %s", configPath)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, pkgerrors.Wrap(err, "decode settings")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate rejects values the relay cannot start with. Credentials are not
// checked; a missing key surfaces as a provider 401 on first use.
func (s *Settings) Validate() error {
	if _, err := config.ParseRetrievalMode(s.Retrieval.Mode); err != nil {
		return err
	}

	switch s.Retrieval.Backend {
	case BackendOpenAI, BackendChroma:
	default:
		return pkgerrors.Errorf("unknown retrieval backend %q", s.Retrieval.Backend)
	}

	if s.Retrieval.MaxResults <= 0 {
		return pkgerrors.Errorf("retrieval.max_results must be positive, got %d", s.Retrieval.MaxResults)
	}
	if s.Upstream.Timeout <= 0 {
		return pkgerrors.Errorf("upstream.timeout must be positive, got %s", s.Upstream.Timeout)
	}
	if s.Chat.Timeout <= 0 {
		return pkgerrors.Errorf("chat.timeout must be positive, got %s", s.Chat.Timeout)
	}
	if s.Server.WriteTimeout > 0 && s.Server.WriteTimeout <= s.Chat.Timeout {
		return pkgerrors.Errorf("server.write_timeout (%s) must be larger than chat.timeout (%s)",
			s.Server.WriteTimeout, s.Chat.Timeout)
	}
	if s.History.MaxTokens < 0 {
		return pkgerrors.Errorf("history.max_tokens must not be negative, got %d", s.History.MaxTokens)
	}

	return nil
}

// Persona builds the immutable persona from settings and the optional override file.
func (s *Settings) Persona() (config.PersonaConfig, error) {
	mode, err := config.ParseRetrievalMode(s.Retrieval.Mode)
	if err != nil {
		return config.PersonaConfig{}, err
	}

	opts := config.PersonaOptions{
		ModelID:           s.PersonaSettings.ModelID,
		ClassifierModelID: s.PersonaSettings.ClassifierModelID,
		ResponseLanguage:  "nl",
		MaxSentences:      s.PersonaSettings.MaxSentences,
		Mode:              mode,
	}

	if mode == config.ModeProvider {
		opts.Tool = &config.ToolConfig{
			IndexID:    s.OpenAI.VectorStoreID,
			MaxResults: s.Retrieval.ToolMaxResults,
		}
	}

	if s.PersonaSettings.File != "" {
		file, err := config.LoadPersonaFile(s.PersonaSettings.File)
		if err != nil {
			return config.PersonaConfig{}, pkgerrors.Wrap(err, "load persona file")
		}
		opts.SystemInstructions = file.Instructions
		opts.Vocabulary = file.Vocabulary
	}

	return config.NewPersonaConfig(opts)
}
