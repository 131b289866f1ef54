package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8080
  apiKeys: "k1, k2,"
openai:
  endpoint: https://file.openai.azure.com
  apiKey: from-file
storage:
  accountUrl: https://sa.blob.core.windows.net
  accountName: sa
  accountKey: secret
journal:
  driver: MySQL
database:
  host: db
  user: bot
  password: pw
  name: journal
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	req := require.New(t)
	t.Chdir(t.TempDir())
	t.Setenv("AZURE_OPENAI_API_KEY", "from-env")
	t.Setenv("MicrosoftAppId", "app-123")
	t.Setenv("ANALYSIS_TIMEOUT", "45s")

	cfg, err := Load(writeConfig(t, sampleYAML))
	req.NoError(err)

	req.Equal(8080, cfg.Server.Port)
	req.Equal("from-env", cfg.OpenAI.APIKey)
	req.Equal("https://file.openai.azure.com", cfg.OpenAI.Endpoint)
	req.Equal("app-123", cfg.Bot.AppID)
	req.Equal(45*time.Second, cfg.Server.AnalysisTimeout)
	req.Equal(30*time.Second, cfg.Server.ChatTimeout)
	req.Equal("gpt-4o-mini", cfg.OpenAI.Deployment)
	req.Equal("uploads", cfg.Storage.Container)
	req.Equal([]string{"k1", "k2"}, cfg.APIKeyList())
	req.Equal([]string{"*"}, cfg.CORSOriginList())

	req.True(cfg.Chat())
	req.False(cfg.LayoutService())
	req.True(cfg.StorageEnabled())
	req.Equal("sa.blob.core.windows.net", cfg.StorageEndpoint())
	req.True(cfg.StorageSSL())
	req.Equal("", cfg.VectorBackend())

	req.True(cfg.JournalEnabled())
	req.Equal("bot:pw@tcp(db:3306)/journal?parseTime=true&charset=utf8mb4&loc=UTC", cfg.JournalDSN())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	req := require.New(t)
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	req.NoError(err)
	req.Equal(3978, cfg.Server.Port)
	req.Equal("isolate", cfg.Analysis.FailurePolicy)
	req.Equal(1, cfg.Analysis.Parallelism)
	req.Equal(500, cfg.Analysis.ChunkWindow)
	req.False(cfg.Chat())
	req.False(cfg.JournalEnabled())
}

func TestLoad_RejectsUnknownDrivers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JOURNAL_DRIVER", "oracle")
	_, err := Load("")
	require.ErrorContains(t, err, "JOURNAL_DRIVER")
}

func TestChatProviders(t *testing.T) {
	var cfg Config
	require.False(t, cfg.Chat())

	cfg.OpenAI.PublicAPIKey = "pk"
	require.True(t, cfg.Chat())
	require.False(t, cfg.AzureOpenAI())

	cfg.OpenAI.Endpoint, cfg.OpenAI.APIKey = "https://r.openai.azure.com", "ak"
	require.True(t, cfg.AzureOpenAI())
}

func TestVectorBackend(t *testing.T) {
	var cfg Config
	cfg.Search.Endpoint, cfg.Search.Key, cfg.Search.Index = "https://s", "k", "docs"
	require.Equal(t, VectorSearch, cfg.VectorBackend())

	cfg.Vector.Backend = VectorPGVector
	require.Equal(t, "", cfg.VectorBackend())
	cfg.Vector.DSN = "postgres://x"
	require.Equal(t, VectorPGVector, cfg.VectorBackend())
}

func TestPostgresDSN(t *testing.T) {
	var cfg Config
	cfg.Journal.Driver = "postgres"
	cfg.Database.Host, cfg.Database.User, cfg.Database.Password, cfg.Database.Name = "pg", "u", "p@ss", "j"
	require.Equal(t, "postgres://u:p%40ss@pg:5432/j?sslmode=disable", cfg.JournalDSN())
}
