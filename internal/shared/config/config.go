package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	DatabaseURL        string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	RedisURL           string
	MarkupCacheTTL     time.Duration
	SessionTTL         time.Duration
	LLMModels          []string
	LLMDefaultProvider string
	InstructionsFile   string
	OpenAIAPIKey       string
	GeminiAPIKey       string
	EventsQueueURL     string
	LogJSON            bool
	LogDebug           bool
}

var defaultModels = []string{"gpt-5", "gpt-5-chat-latest", "gpt-5.1", "gpt-5.1-chat-latest"}

// Load reads configuration from environment variables and an optional
// config file named by CONFIG_FILE.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("object_store", "local")
	v.SetDefault("local_store_dir", "./resume_files")
	v.SetDefault("markup_cache_ttl", "168h")
	v.SetDefault("session_ttl", "168h")
	v.SetDefault("llm_models", strings.Join(defaultModels, ","))
	v.SetDefault("llm_default_provider", "openai")
	v.SetDefault("log_json", true)

	if file := strings.TrimSpace(v.GetString("config_file")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("config file %s: %v", file, err)
		}
	}
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("env"))
	dbURL := v.GetString("database_url")
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:               v.GetString("port"),
		Env:                env,
		DatabaseURL:        dbURL,
		ObjectStoreType:    normalizeStoreType(v.GetString("object_store")),
		LocalStoreDir:      v.GetString("local_store_dir"),
		AWSRegion:          v.GetString("aws_region"),
		S3Bucket:           v.GetString("s3_bucket"),
		S3Prefix:           v.GetString("s3_prefix"),
		SSEKMSKeyID:        v.GetString("sse_kms_key_id"),
		RedisURL:           v.GetString("redis_url"),
		MarkupCacheTTL:     v.GetDuration("markup_cache_ttl"),
		SessionTTL:         v.GetDuration("session_ttl"),
		LLMModels:          splitAndTrim(v.GetString("llm_models")),
		LLMDefaultProvider: strings.ToLower(strings.TrimSpace(v.GetString("llm_default_provider"))),
		InstructionsFile:   v.GetString("llm_instructions_file"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		EventsQueueURL:     v.GetString("events_sqs_queue_url"),
		LogJSON:            v.GetBool("log_json"),
		LogDebug:           v.GetBool("log_debug"),
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
