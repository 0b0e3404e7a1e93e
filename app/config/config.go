package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultPath = "config.yaml"
)

type Config struct {
	Log     Log     `yaml:"log"`
	Server  Server  `yaml:"server"`
	LLM     LLM     `yaml:"llm"`
	Sales   Sales   `yaml:"sales"`
	Storage Storage `yaml:"storage"`
}

type Server struct {
	// HTTP listen port, PORT env var takes precedence
	Port int `yaml:"port" example:"5000" validate:"min=1,max=65535"`
}

type LLM struct {
	// Responder backend
	Provider string `yaml:"provider" example:"gemini" validate:"oneof=gemini openai"`
	// API token, GEMINI_API_KEY or OPENAI_API_KEY env var takes precedence
	Token string `yaml:"token" example:"AIzaSyA-abc123" validate:"required"`
	// Model name
	Model string `yaml:"model" example:"gemini-1.5-flash" validate:"required"`
	// OpenAI-compatible base url, ignored by gemini
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"omitempty,url"`
	// Upper bound for a single generation call
	Timeout time.Duration `yaml:"timeout" example:"30s" validate:"min=0"`
	// Sampling temperature, 0 means provider default
	Temperature float64 `yaml:"temperature" example:"0.9" validate:"min=0,max=2"`
	// Completion token cap, 0 means provider default
	MaxTokens int `yaml:"max_tokens" example:"1024" validate:"min=0"`
}

type Sales struct {
	// Price of one sale, added to the revenue on every purchase
	UnitPrice string `yaml:"unit_price" example:"19.90" validate:"numeric"`
	// Checkout link sent with the payment offer
	PaymentLink string `yaml:"payment_link" example:"https://pay.kiwify.com.br/iT6ZM5N" validate:"url"`
	// Reply with a filler to short unmatched messages instead of calling the model
	DisableShortMessageFiller bool `yaml:"disable_short_message_filler" example:"false"`
	// Canned replies, matched in the listed order
	FastPath []FastPathEntry `yaml:"fast_path" validate:"dive"`
	// Phrases that signal purchase intent
	PurchaseSignals []string `yaml:"purchase_signals" validate:"dive,required"`
}

type FastPathEntry struct {
	Trigger string `yaml:"trigger" example:"oi" validate:"required"`
	Reply   string `yaml:"reply" example:"Olá! Sou a Sofia." validate:"required"`
}

type Storage struct {
	// Ledger file, overwritten on every change
	LedgerPath string `yaml:"ledger_path" example:"data/ledger.json" validate:"required"`
	// Conversation log file, overwritten on every change
	ConversationsPath string `yaml:"conversations_path" example:"data/conversations.json" validate:"required"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
	// Rotating file logging config
	File FileLog `yaml:"file"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

type FileLog struct {
	// Log file path, empty disables file logging
	Path string `yaml:"path" example:"logs/sofia.log"`
	// Max size of a single file in megabytes
	MaxSizeMB int `yaml:"max_size_mb" example:"10" validate:"min=0"`
	// Max number of rotated files to keep
	MaxBackups int `yaml:"max_backups" example:"5" validate:"min=0"`
}

// Path returns the config file location, overridable with SOFIA_CONFIG.
func Path() string {
	if path := os.Getenv("SOFIA_CONFIG"); path != "" {
		return path
	}

	return DefaultPath
}

func Load(path string) (*Config, error) {
	var result Config

	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, oops.Errorf("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, &result); err != nil {
			return nil, oops.Errorf("failed to parse YAML config: %w", err)
		}
	}

	applyDefaults(&result)

	if err = applyEnv(&result); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderGemini
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case ProviderOpenAI:
			cfg.LLM.Model = "gpt-4o-mini"
		default:
			cfg.LLM.Model = "gemini-1.5-flash"
		}
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.Sales.UnitPrice == "" {
		cfg.Sales.UnitPrice = "19.90"
	}
	if cfg.Sales.PaymentLink == "" {
		cfg.Sales.PaymentLink = "https://pay.kiwify.com.br/iT6ZM5N"
	}
	if cfg.Storage.LedgerPath == "" {
		cfg.Storage.LedgerPath = "data/ledger.json"
	}
	if cfg.Storage.ConversationsPath == "" {
		cfg.Storage.ConversationsPath = "data/conversations.json"
	}
	if cfg.Log.File.Path != "" && cfg.Log.File.MaxSizeMB == 0 {
		cfg.Log.File.MaxSizeMB = 10
	}
}

func applyEnv(cfg *Config) error {
	tokenEnv := "GEMINI_API_KEY"
	if cfg.LLM.Provider == ProviderOpenAI {
		tokenEnv = "OPENAI_API_KEY"
	}
	if token := os.Getenv(tokenEnv); token != "" {
		cfg.LLM.Token = token
	}

	if port := os.Getenv("PORT"); port != "" {
		value, err := strconv.Atoi(port)
		if err != nil {
			return oops.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = value
	}

	return nil
}
