package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by LoadSettings.
const EnvPrefix = "DOC_AGENT"

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// Storage backends
const (
	StorageGCS = "gcs"
	StorageFS  = "fs"
)

// Transports
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// StorageSettings selects the object store holding the corpus and the index.
type StorageSettings struct {
	Backend         string        `mapstructure:"backend" validate:"oneof=gcs fs"`
	Bucket          string        `mapstructure:"bucket" validate:"required_if=Backend gcs"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	SignerEmail     string        `mapstructure:"signer_email"`
	FSRoot          string        `mapstructure:"fs_root" validate:"required_if=Backend fs"`
	FSBaseURL       string        `mapstructure:"fs_base_url" validate:"omitempty,url"`
	SigningKey      string        `mapstructure:"signing_key" validate:"required_if=Backend fs"`
	URLTTL          time.Duration `mapstructure:"url_ttl" validate:"gt=0"`
}

// CorpusSettings describes where documents live.
type CorpusSettings struct {
	Root          string   `mapstructure:"root"`
	ExcludePrefix []string `mapstructure:"exclude_prefix"`
	IndexFolder   string   `mapstructure:"index_folder" validate:"required"`
	Extensions    []string `mapstructure:"extensions" validate:"min=1,dive,startswith=."`
	SearchRoots   []string `mapstructure:"search_roots" validate:"min=1,dive,required"`
}

// ModelSettings configures the generation and embedding models.
type ModelSettings struct {
	Provider           string  `mapstructure:"provider" validate:"oneof=ollama openai"`
	BaseURL            string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey             string  `mapstructure:"api_key"`
	ChatModel          string  `mapstructure:"chat_model"`
	EmbeddingModel     string  `mapstructure:"embedding_model"`
	RoutingTemperature float64 `mapstructure:"routing_temperature" validate:"gte=0,lte=2"`
	AnswerTemperature  float64 `mapstructure:"answer_temperature" validate:"gte=0,lte=2"`
}

// IndexSettings tunes index synchronization.
type IndexSettings struct {
	ChunkSize      int    `mapstructure:"chunk_size" validate:"gt=0"`
	ChunkOverlap   int    `mapstructure:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	EmbedBatchSize int    `mapstructure:"embed_batch_size" validate:"gt=0"`
	LockFile       string `mapstructure:"lock_file"`
}

// AnswerSettings tunes retrieval-augmented answering.
type AnswerSettings struct {
	TopK             int  `mapstructure:"top_k" validate:"gt=0"`
	MaxContextTokens int  `mapstructure:"max_context_tokens" validate:"gte=0"`
	Hybrid           bool `mapstructure:"hybrid"`
}

// TimeoutSettings bound external calls.
type TimeoutSettings struct {
	Model   time.Duration `mapstructure:"model" validate:"gt=0"`
	Storage time.Duration `mapstructure:"storage" validate:"gt=0"`
	Sync    time.Duration `mapstructure:"sync" validate:"gt=0"`
}

// PromptSettings points at an optional prompt override file.
type PromptSettings struct {
	File string `mapstructure:"file"`
}

// Settings application settings
type Settings struct {
	Transport string          `mapstructure:"transport"`
	Host      string          `mapstructure:"host"`
	Port      int             `mapstructure:"port"`
	LogLevel  string          `mapstructure:"log_level"`
	Auth      AuthSettings    `mapstructure:"auth"`
	Storage   StorageSettings `mapstructure:"storage"`
	Corpus    CorpusSettings  `mapstructure:"corpus"`
	Models    ModelSettings   `mapstructure:"models"`
	Index     IndexSettings   `mapstructure:"index"`
	Answer    AnswerSettings  `mapstructure:"answer"`
	Timeouts  TimeoutSettings `mapstructure:"timeouts"`
	Prompts   PromptSettings  `mapstructure:"prompts"`
}

// defaults lists every settings key with its default value. Keys absent here
// cannot be set from the environment or the .env file.
var defaults = map[string]any{
	"transport": TransportStdio,
	"host":      "0.0.0.0",
	"port":      8080,
	"log_level": "info",

	"auth.type":           AuthTypeNone,
	"auth.basic.username": "",
	"auth.basic.password": "",
	"auth.api_keys":       []string{},

	"storage.backend":          StorageGCS,
	"storage.bucket":           "",
	"storage.credentials_file": "",
	"storage.signer_email":     "",
	"storage.fs_root":          "",
	"storage.fs_base_url":      "http://localhost:8080/files",
	"storage.signing_key":      "",
	"storage.url_ttl":          time.Hour,

	"corpus.root":           "docs/",
	"corpus.exclude_prefix": []string{"docs/images/"},
	"corpus.index_folder":   "docs/.index/",
	"corpus.extensions":     []string{".pdf"},
	"corpus.search_roots":   []string{"docs/"},

	"models.provider":            "ollama",
	"models.base_url":            "",
	"models.api_key":             "",
	"models.chat_model":          "",
	"models.embedding_model":     "",
	"models.routing_temperature": 0.1,
	"models.answer_temperature":  0.1,

	"index.chunk_size":       1500,
	"index.chunk_overlap":    150,
	"index.embed_batch_size": 32,
	"index.lock_file":        defaultLockFile(),

	"answer.top_k":              5,
	"answer.max_context_tokens": 6000,
	"answer.hybrid":             false,

	"timeouts.model":   2 * time.Minute,
	"timeouts.storage": 30 * time.Second,
	"timeouts.sync":    30 * time.Minute,

	"prompts.file": "",
}

// Keys returns every settings key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// EnvName returns the environment variable bound to a settings key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// FlagName returns the CLI flag bound to a settings key.
func FlagName(key string) string {
	return strings.NewReplacer(".", "-", "_", "-").Replace(key)
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars, the .env file and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	return load(flags, DefaultEnvFile)
}

func load(flags *pflag.FlagSet, envFile string) (*Settings, error) {
	v := viper.New()
	byEnv := make(map[string]string, len(defaults))
	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key, EnvName(key))
		byEnv[EnvName(key)] = key
	}

	// .env values sit between defaults and the real environment. They are read
	// without touching the process environment.
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}
	for name, value := range dotenv {
		if key, ok := byEnv[name]; ok {
			v.SetDefault(key, value)
		}
	}

	if flags != nil {
		for key := range defaults {
			if f := flags.Lookup(FlagName(key)); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.Auth.APIKeys = normalizeList(settings.Auth.APIKeys)
	settings.Corpus.ExcludePrefix = normalizeList(settings.Corpus.ExcludePrefix)
	settings.Corpus.Extensions = normalizeList(settings.Corpus.Extensions)
	settings.Corpus.SearchRoots = normalizeList(settings.Corpus.SearchRoots)
	settings.Index.LockFile = expandHomeDir(settings.Index.LockFile)
	settings.Storage.FSRoot = expandHomeDir(settings.Storage.FSRoot)
	settings.Storage.CredentialsFile = expandHomeDir(settings.Storage.CredentialsFile)
	settings.Prompts.File = expandHomeDir(settings.Prompts.File)

	return &settings, nil
}

// defaultLockFile returns the default cross-process sync lock location
func defaultLockFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".doc-agent", "sync.lock")
	}
	return filepath.Join(home, ".doc-agent", "sync.lock")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// normalizeList splits comma-separated entries, trims them and drops blanks.
func normalizeList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var validate = validator.New()

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete config.
func ValidateSettings(s *Settings) error {
	switch s.Transport {
	case TransportStdio, TransportSSE:
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	if err := validateAuth(&s.Auth); err != nil {
		return err
	}

	if err := validate.Struct(s); err != nil {
		return describeValidation(err)
	}

	if s.Models.Provider == "openai" && s.Models.BaseURL == "" && s.Models.APIKey == "" {
		return errors.New("models-provider 'openai' requires models-api-key unless models-base-url points at a compatible server")
	}

	return nil
}

func validateAuth(a *AuthSettings) error {
	hasBasicCreds := a.Basic.Username != "" || a.Basic.Password != ""
	hasAPIKeys := len(a.APIKeys) > 0

	switch a.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if a.Basic.Username == "" || a.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + a.Type)
	}
	return nil
}

// describeValidation reports the first failed field by its flag name.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	// Namespace is "Settings.Storage.Bucket"; the flag name comes from the mapstructure path.
	name := flagForNamespace(fe.StructNamespace())
	if fe.Param() != "" {
		return fmt.Errorf("%s failed '%s=%s' check (value: %v)", name, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s failed '%s' check (value: %v)", name, fe.Tag(), fe.Value())
}

var fieldKeys = map[string]string{
	"Storage.Backend":           "storage.backend",
	"Storage.Bucket":            "storage.bucket",
	"Storage.FSRoot":            "storage.fs_root",
	"Storage.FSBaseURL":         "storage.fs_base_url",
	"Storage.SigningKey":        "storage.signing_key",
	"Storage.URLTTL":            "storage.url_ttl",
	"Corpus.IndexFolder":        "corpus.index_folder",
	"Corpus.Extensions":         "corpus.extensions",
	"Corpus.SearchRoots":        "corpus.search_roots",
	"Models.Provider":           "models.provider",
	"Models.BaseURL":            "models.base_url",
	"Models.RoutingTemperature": "models.routing_temperature",
	"Models.AnswerTemperature":  "models.answer_temperature",
	"Index.ChunkSize":           "index.chunk_size",
	"Index.ChunkOverlap":        "index.chunk_overlap",
	"Index.EmbedBatchSize":      "index.embed_batch_size",
	"Answer.TopK":               "answer.top_k",
	"Answer.MaxContextTokens":   "answer.max_context_tokens",
	"Timeouts.Model":            "timeouts.model",
	"Timeouts.Storage":          "timeouts.storage",
	"Timeouts.Sync":             "timeouts.sync",
}

func flagForNamespace(ns string) string {
	ns = strings.TrimPrefix(ns, "Settings.")
	if i := strings.IndexByte(ns, '['); i >= 0 {
		ns = ns[:i]
	}
	if key, ok := fieldKeys[ns]; ok {
		return FlagName(key)
	}
	return ns
}
