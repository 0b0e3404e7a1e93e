package mylog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sofiabot/app/config"
	"sync"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	fileMu     sync.Mutex
	fileWriter *lumberjack.Logger
)

func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

func Init(cfg *config.Config) error {
	router := slogmulti.Router()

	router = router.Add(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	}))

	if cfg.Log.Telegram.Token != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Log.Telegram.Token,
				Username:  cfg.Log.Telegram.ChatID,
				AddSource: true,
			}.NewTelegramHandler(),

			func(_ context.Context, r slog.Record) bool {
				hasTelegram := false

				r.Attrs(func(attr slog.Attr) bool {
					if attr.Key == "telegram" {
						hasTelegram = true
						return false
					}

					return true
				})

				return r.Level == slog.LevelError || hasTelegram
			},
		)
	}

	if cfg.Log.File.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File.Path), 0755); err != nil {
			return err
		}

		fileMu.Lock()
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.Log.File.Path,
			MaxSize:    cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
		}
		router = router.Add(slog.NewJSONHandler(fileWriter, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		fileMu.Unlock()
	}

	slog.SetDefault(slog.New(router.Handler()))

	return nil
}

// Close releases the rotating log file, if any.
func Close() error {
	fileMu.Lock()
	defer fileMu.Unlock()

	if fileWriter == nil {
		return nil
	}

	err := fileWriter.Close()
	fileWriter = nil

	return err
}
