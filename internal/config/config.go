package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"document-processor/internal/models"
)

type Config struct {
	Hotdir      HotdirConfig      `yaml:"hotdir"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Storage     StorageConfig     `yaml:"storage"`
	Database    DatabaseConfig    `yaml:"database"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	EmbedLLM    LLMConfig         `yaml:"embed_llm"`
	SummaryLLM  LLMConfig         `yaml:"summary_llm"`
	Search      SearchConfig      `yaml:"search"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

type HotdirConfig struct {
	Dir              string        `yaml:"dir"`
	RemoveOnComplete bool          `yaml:"remove_on_complete"`
	SettleDelay      time.Duration `yaml:"settle_delay"`
}

type ChunkingConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	Separator    string `yaml:"separator"`
}

// StorageConfig points at the folder the JSON copies of records are written to.
type StorageConfig struct {
	DocumentsDir string `yaml:"documents_dir"`
}

type DatabaseConfig struct {
	URL        string `yaml:"url"`
	Password   string `yaml:"password"`
	Driver     string `yaml:"driver"` // pgdriver or pq
	Debug      bool   `yaml:"debug"`
	VectorSize int    `yaml:"vector_size"`
}

type VectorStoreConfig struct {
	Backend       string `yaml:"backend"` // chromem, postgres or none
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	InMemory      bool   `yaml:"in_memory"`
	EncryptionKey string `yaml:"encryption_key"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // ollama or openai
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

type SearchConfig struct {
	APIKey   string `yaml:"api_key"`
	EngineID string `yaml:"engine_id"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Hotdir: HotdirConfig{
			Dir:         "./hotdir",
			SettleDelay: 500 * time.Millisecond,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    models.DefaultChunkSize,
			ChunkOverlap: models.DefaultChunkOverlap,
			Separator:    models.DefaultSeparator,
		},
		Storage: StorageConfig{
			DocumentsDir: "./storage/documents/custom-documents",
		},
		Database: DatabaseConfig{
			Driver:     "pgdriver",
			VectorSize: 768,
		},
		VectorStore: VectorStoreConfig{
			Backend:    "chromem",
			Path:       "./chromemdb",
			Collection: "documents",
		},
		EmbedLLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		Server: ServerConfig{
			Addr:           ":8888",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// LoadConfig reads the yaml file at path on top of the defaults. A missing
// file leaves the defaults in place. Secrets are taken from the environment
// (and a .env file in the working directory) when set.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %v", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %v", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		"DATABASE_URL":           &c.Database.URL,
		"DATABASE_PASSWORD":      &c.Database.Password,
		"EMBED_API_KEY":          &c.EmbedLLM.APIKey,
		"EMBED_BASE_URL":         &c.EmbedLLM.BaseURL,
		"GOOGLE_API_KEY":         &c.Search.APIKey,
		"GOOGLE_CSE_ID":          &c.Search.EngineID,
		"CHROMEM_ENCRYPTION_KEY": &c.VectorStore.EncryptionKey,
		"HOTDIR":                 &c.Hotdir.Dir,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
}

// Validate rejects settings that would fail later at use time.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap must be in [0, %d), got %d", c.Chunking.ChunkSize, c.Chunking.ChunkOverlap)
	}
	switch c.VectorStore.Backend {
	case "chromem", "postgres", "none":
	default:
		return fmt.Errorf("unknown vector_store.backend %q", c.VectorStore.Backend)
	}
	switch c.EmbedLLM.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown embed_llm.provider %q", c.EmbedLLM.Provider)
	}
	switch c.SummaryLLM.Provider {
	case "", "ollama", "openai":
	default:
		return fmt.Errorf("unknown summary_llm.provider %q", c.SummaryLLM.Provider)
	}
	switch c.Database.Driver {
	case "pgdriver", "pq":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	return nil
}
