package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PORT", "")
}

func TestLoad_MissingTokenIsFatal(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_DefaultsWithEnvToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, ProviderGemini, cfg.LLM.Provider)
	require.Equal(t, "gem-key", cfg.LLM.Token)
	require.Equal(t, "gemini-1.5-flash", cfg.LLM.Model)
	require.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "19.90", cfg.Sales.UnitPrice)
	require.Equal(t, "https://pay.kiwify.com.br/iT6ZM5N", cfg.Sales.PaymentLink)
	require.Equal(t, "data/ledger.json", cfg.Storage.LedgerPath)
	require.Equal(t, "data/conversations.json", cfg.Storage.ConversationsPath)
}

func TestLoad_YAMLWithOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("PORT", "8080")

	path := writeConfig(t, `
llm:
  provider: openai
  token: sk-file
  base_url: https://openrouter.ai/api/v1
  timeout: 5s
sales:
  unit_price: "29.90"
  fast_path:
    - trigger: bom dia
      reply: Bom dia!
  purchase_signals:
    - fechado
storage:
  ledger_path: /tmp/ledger.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	require.Equal(t, "sk-env", cfg.LLM.Token)
	require.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	require.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "29.90", cfg.Sales.UnitPrice)
	require.Equal(t, []FastPathEntry{{Trigger: "bom dia", Reply: "Bom dia!"}}, cfg.Sales.FastPath)
	require.Equal(t, []string{"fechado"}, cfg.Sales.PurchaseSignals)
	require.Equal(t, "/tmp/ledger.json", cfg.Storage.LedgerPath)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)

	tests := map[string]string{
		"unknown provider": "llm:\n  provider: claude\n  token: x\n  model: y\n",
		"bad price":        "llm:\n  token: x\nsales:\n  unit_price: cheap\n",
		"blank trigger":    "llm:\n  token: x\nsales:\n  fast_path:\n    - trigger: ''\n      reply: hi\n",
		"broken yaml":      "llm: [",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestLoad_InvalidPortEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("PORT", "http")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv("SOFIA_CONFIG", "")
	require.Equal(t, DefaultPath, Path())

	t.Setenv("SOFIA_CONFIG", "/etc/sofia.yaml")
	require.Equal(t, "/etc/sofia.yaml", Path())
}
