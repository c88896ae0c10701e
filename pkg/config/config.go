// SPDX-License-Identifier: Apache-2.0

// Package config loads agent core configuration from YAML files and
// AGENTCORE_ environment variables.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "AGENTCORE_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	LLM       LLMConfig       `koanf:"llm"`
	Policy    PolicyConfig    `koanf:"policy"`
	Cache     CacheConfig     `koanf:"cache"`
	Memory    MemoryConfig    `koanf:"memory"`
	Intent    IntentConfig    `koanf:"intent"`
	Audit     AuditConfig     `koanf:"audit"`
	Features  FeatureConfig   `koanf:"features"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type LLMConfig struct {
	Provider string `koanf:"provider"` // ollama, mock
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
}

type PolicyConfig struct {
	RateWindow       time.Duration `koanf:"rate_window"`
	AuthenticatedMax int           `koanf:"authenticated_max"`
	GuestMax         int           `koanf:"guest_max"`
}

type CacheConfig struct {
	ResponseCapacity  int           `koanf:"response_capacity"`
	RetrievalCapacity int           `koanf:"retrieval_capacity"`
	ToolCapacity      int           `koanf:"tool_capacity"`
	SessionCapacity   int           `koanf:"session_capacity"`
	ResponseTTL       time.Duration `koanf:"response_ttl"`
	RetrievalTTL      time.Duration `koanf:"retrieval_ttl"`
	ToolTTL           time.Duration `koanf:"tool_ttl"`
}

type MemoryConfig struct {
	Enabled         bool   `koanf:"enabled"`
	Provider        string `koanf:"provider"` // qdrant, inmemory
	QdrantAddr      string `koanf:"qdrant_addr"`
	Collection      string `koanf:"collection"`
	EmbedderBaseURL string `koanf:"embedder_base_url"`
	EmbedderModel   string `koanf:"embedder_model"`
	VectorSize      uint64 `koanf:"vector_size"`
}

type IntentConfig struct {
	// LexiconPath points to an optional YAML overlay extending the
	// built-in keyword tables.
	LexiconPath string `koanf:"lexicon_path"`
}

type AuditConfig struct {
	Backend string `koanf:"backend"` // memory, sqlite
	Path    string `koanf:"path"`
}

type FeatureConfig struct {
	DamageAssessment bool `koanf:"damage_assessment"`
}

// Load reads configuration with precedence env > file > defaults. An
// empty path skips the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		_ = k.Set(key, value)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// AGENTCORE_POLICY_GUEST_MAX -> policy.guest_max
	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envToKey maps an environment variable to a koanf key. The first
// underscore separates the section; later underscores stay literal so
// keys like policy.guest_max remain addressable.
func envToKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(s, "_", ".", 1)
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":  "info",
		"log.format": "text",

		"telemetry.exporter":      "stdout",
		"telemetry.otlp_insecure": true,

		"llm.provider": "ollama",
		"llm.model":    "qwen2.5:7b-instruct",
		"llm.base_url": "http://localhost:11434",

		"policy.rate_window":       time.Minute,
		"policy.authenticated_max": 30,
		"policy.guest_max":         10,

		"cache.response_capacity":  1000,
		"cache.retrieval_capacity": 1000,
		"cache.tool_capacity":      1000,
		"cache.session_capacity":   1000,
		"cache.response_ttl":       5 * time.Minute,
		"cache.retrieval_ttl":      15 * time.Minute,
		"cache.tool_ttl":           10 * time.Minute,

		"memory.enabled":           false,
		"memory.provider":          "inmemory",
		"memory.qdrant_addr":       "localhost:6334",
		"memory.collection":        "course_materials",
		"memory.embedder_base_url": "http://localhost:11434",
		"memory.embedder_model":    "nomic-embed-text",
		"memory.vector_size":       uint64(768),

		"audit.backend": "memory",
		"audit.path":    "agentcore.db",

		"features.damage_assessment": false,
	}
}
