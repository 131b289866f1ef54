package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Vector index backends
const (
	VectorSearch   = "search"
	VectorPGVector = "pgvector"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port" env:"PORT"`
		ChatTimeout     time.Duration `yaml:"chatTimeout" env:"CHAT_TIMEOUT"`
		AnalysisTimeout time.Duration `yaml:"analysisTimeout" env:"ANALYSIS_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
		APIKeys         string        `yaml:"apiKeys" env:"API_KEYS"`
		CORSOrigins     string        `yaml:"corsOrigins" env:"CORS_ORIGINS"`
		RateLimitBurst  int           `yaml:"rateLimitBurst" env:"RATE_LIMIT_BURST"`
		RateLimitPerSec float64       `yaml:"rateLimitPerSec" env:"RATE_LIMIT_PER_SEC"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`

	Bot struct {
		AppID            string `yaml:"appId" env:"MicrosoftAppId"`
		AppPassword      string `yaml:"appPassword" env:"MicrosoftAppPassword"`
		DirectLineSecret string `yaml:"directLineSecret" env:"DIRECT_LINE_SECRET"`
	} `yaml:"bot"`

	OpenAI struct {
		Endpoint            string `yaml:"endpoint" env:"AZURE_OPENAI_ENDPOINT"`
		APIKey              string `yaml:"apiKey" env:"AZURE_OPENAI_API_KEY"`
		APIVersion          string `yaml:"apiVersion" env:"AZURE_OPENAI_API_VERSION"`
		Deployment          string `yaml:"deployment" env:"AZURE_OPENAI_DEPLOYMENT"`
		EmbeddingDeployment string `yaml:"embeddingDeployment" env:"AZURE_OPENAI_EMBEDDING_DEPLOYMENT"`
		// PublicAPIKey selects the public OpenAI API, or BaseURL, when no Azure endpoint is set.
		PublicAPIKey string `yaml:"publicApiKey" env:"OPENAI_API_KEY"`
		BaseURL      string `yaml:"baseUrl" env:"OPENAI_BASE_URL"`
	} `yaml:"openai"`

	Layout struct {
		Endpoint string `yaml:"endpoint" env:"DOCUMENTINTELLIGENCE_ENDPOINT"`
		Key      string `yaml:"key" env:"DOCUMENTINTELLIGENCE_API_KEY"`
	} `yaml:"layout"`

	Storage struct {
		AccountURL  string `yaml:"accountUrl" env:"STORAGE_ACCOUNT_URL"`
		AccountName string `yaml:"accountName" env:"STORAGE_ACCOUNT_NAME"`
		AccountKey  string `yaml:"accountKey" env:"STORAGE_ACCOUNT_KEY"`
		Endpoint    string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
		Region      string `yaml:"region" env:"STORAGE_REGION"`
		UseSSL      bool   `yaml:"useSSL" env:"STORAGE_USE_SSL"`
		Container   string `yaml:"container" env:"UPLOADS_CONTAINER"`
	} `yaml:"storage"`

	Search struct {
		Endpoint string `yaml:"endpoint" env:"SEARCH_ENDPOINT"`
		Key      string `yaml:"key" env:"SEARCH_KEY"`
		Index    string `yaml:"index" env:"SEARCH_INDEX_NAME"`
	} `yaml:"search"`

	Vector struct {
		Backend string `yaml:"backend" env:"VECTOR_BACKEND"`
		DSN     string `yaml:"dsn" env:"PGVECTOR_DSN"`
	} `yaml:"vector"`

	Journal struct {
		Driver string `yaml:"driver" env:"JOURNAL_DRIVER"`
		DSN    string `yaml:"dsn" env:"JOURNAL_DSN"`
	} `yaml:"journal"`

	// Database builds the journal DSN when JOURNAL_DSN is not given.
	Database struct {
		Host     string `yaml:"host" env:"DB_HOST"`
		Port     int    `yaml:"port" env:"DB_PORT"`
		User     string `yaml:"user" env:"DB_USER"`
		Password string `yaml:"password" env:"DB_PASSWORD"`
		Name     string `yaml:"name" env:"DB_NAME"`
	} `yaml:"database"`

	Analysis struct {
		FailurePolicy string `yaml:"failurePolicy" env:"FAILURE_POLICY"`
		Parallelism   int    `yaml:"parallelism" env:"ANALYSIS_PARALLELISM"`
		ChunkWindow   int    `yaml:"chunkWindow" env:"CHUNK_WINDOW"`
	} `yaml:"analysis"`
}

// Load reads the optional YAML file at path, then .env, then the process
// environment. Later sources win. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, cfg.validate()
}

func (c *Config) applyDefaults() {
	c.Server.Port = lo.CoalesceOrEmpty(c.Server.Port, 3978)
	c.Server.ChatTimeout = lo.CoalesceOrEmpty(c.Server.ChatTimeout, 30*time.Second)
	c.Server.AnalysisTimeout = lo.CoalesceOrEmpty(c.Server.AnalysisTimeout, 120*time.Second)
	c.Server.ShutdownTimeout = lo.CoalesceOrEmpty(c.Server.ShutdownTimeout, 10*time.Second)
	c.Server.RateLimitBurst = lo.CoalesceOrEmpty(c.Server.RateLimitBurst, 60)
	c.Server.RateLimitPerSec = lo.CoalesceOrEmpty(c.Server.RateLimitPerSec, 1.0)
	c.Log.Level = lo.CoalesceOrEmpty(c.Log.Level, "INFO")
	c.OpenAI.APIVersion = lo.CoalesceOrEmpty(c.OpenAI.APIVersion, "2024-10-21")
	c.OpenAI.Deployment = lo.CoalesceOrEmpty(c.OpenAI.Deployment, "gpt-4o-mini")
	c.OpenAI.EmbeddingDeployment = lo.CoalesceOrEmpty(c.OpenAI.EmbeddingDeployment, "text-embedding-3-large")
	c.Storage.Container = lo.CoalesceOrEmpty(c.Storage.Container, "uploads")
	c.Analysis.FailurePolicy = lo.CoalesceOrEmpty(c.Analysis.FailurePolicy, "isolate")
	c.Analysis.Parallelism = lo.CoalesceOrEmpty(c.Analysis.Parallelism, 1)
	c.Analysis.ChunkWindow = lo.CoalesceOrEmpty(c.Analysis.ChunkWindow, 500)
	c.Journal.Driver = strings.ToLower(strings.TrimSpace(c.Journal.Driver))
	c.Vector.Backend = strings.ToLower(strings.TrimSpace(c.Vector.Backend))
}

func (c *Config) validate() error {
	switch c.Journal.Driver {
	case "", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("JOURNAL_DRIVER %q not supported (allowed: mysql, postgres, sqlite)", c.Journal.Driver)
	}
	switch c.Vector.Backend {
	case "", VectorSearch, VectorPGVector:
	default:
		return fmt.Errorf("VECTOR_BACKEND %q not supported (allowed: search, pgvector)", c.Vector.Backend)
	}
	if c.Analysis.Parallelism < 1 {
		return fmt.Errorf("ANALYSIS_PARALLELISM must be at least 1")
	}
	return nil
}

// Chat reports whether a chat model is configured, on Azure or not.
func (c *Config) Chat() bool { return c.AzureOpenAI() || c.OpenAI.PublicAPIKey != "" }

// AzureOpenAI reports whether the Azure OpenAI resource is configured. It wins
// over OPENAI_API_KEY.
func (c *Config) AzureOpenAI() bool { return c.OpenAI.Endpoint != "" && c.OpenAI.APIKey != "" }

// LayoutService reports whether the managed layout service is configured.
func (c *Config) LayoutService() bool { return c.Layout.Endpoint != "" && c.Layout.Key != "" }

// StorageEnabled reports whether blob storage can be reached.
func (c *Config) StorageEnabled() bool {
	return c.StorageEndpoint() != "" && c.Storage.AccountKey != ""
}

// StorageEndpoint is host[:port] of the S3-compatible API, derived from the
// account URL when not set explicitly.
func (c *Config) StorageEndpoint() string {
	if c.Storage.Endpoint != "" {
		return c.Storage.Endpoint
	}
	u, err := url.Parse(c.Storage.AccountURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// StorageSSL reports whether to use TLS against the storage endpoint.
func (c *Config) StorageSSL() bool {
	if c.Storage.Endpoint != "" {
		return c.Storage.UseSSL
	}
	return strings.HasPrefix(strings.ToLower(c.Storage.AccountURL), "https://")
}

// StorageAccessKey defaults to the account name.
func (c *Config) StorageAccessKey() string { return c.Storage.AccountName }

// VectorBackend returns the selected vector index backend, or "" when indexing is disabled.
func (c *Config) VectorBackend() string {
	searchReady := c.Search.Endpoint != "" && c.Search.Key != "" && c.Search.Index != ""
	switch c.Vector.Backend {
	case VectorSearch:
		if searchReady {
			return VectorSearch
		}
	case VectorPGVector:
		if c.Vector.DSN != "" {
			return VectorPGVector
		}
	case "":
		if searchReady {
			return VectorSearch
		}
		if c.Vector.DSN != "" {
			return VectorPGVector
		}
	}
	return ""
}

// JournalEnabled reports whether analysed files are recorded.
func (c *Config) JournalEnabled() bool { return c.Journal.Driver != "" && c.JournalDSN() != "" }

// JournalDSN returns JOURNAL_DSN, or one built from the database section.
func (c *Config) JournalDSN() string {
	if c.Journal.DSN != "" || c.Database.Host == "" {
		return c.Journal.DSN
	}
	switch c.Journal.Driver {
	case "mysql":
		return c.MySQLDSN()
	case "postgres":
		return c.PostgresDSN()
	}
	return ""
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		lo.CoalesceOrEmpty(c.Database.Port, 3306),
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, lo.CoalesceOrEmpty(c.Database.Port, 5432)),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// APIKeyList splits API_KEYS on commas.
func (c *Config) APIKeyList() []string { return splitList(c.Server.APIKeys) }

// CORSOriginList splits CORS_ORIGINS on commas, defaulting to any origin.
func (c *Config) CORSOriginList() []string {
	if origins := splitList(c.Server.CORSOrigins); len(origins) > 0 {
		return origins
	}
	return []string{"*"}
}

func splitList(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	return lo.Compact(parts)
}
