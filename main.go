package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sofiabot/app/api"
	"sofiabot/app/client/llm"
	"sofiabot/app/config"
	"sofiabot/app/service/history"
	"sofiabot/app/service/ledger"
	"sofiabot/app/service/sales"
	"sofiabot/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer mylog.Close()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, llm.New)
	do.Provide(di, ledger.New)
	do.Provide(di, history.New)
	do.Provide(di, sales.New)
	do.Provide(di, api.New)

	ledgerSvc := do.MustInvoke[*ledger.Ledger](di)
	historySvc := do.MustInvoke[*history.Log](di)
	server := do.MustInvoke[*api.Server](di)

	stats := ledgerSvc.Snapshot()
	slog.Info("Service started",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"conversations", stats.ConversationCount,
		"revenue_total", stats.RevenueTotal.StringFixed(2),
	)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	g, ctx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		return ledgerSvc.Run(ctx)
	})
	g.Go(func() error {
		return historySvc.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return server.Run(ctx)
	})

	if err = g.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}
}
