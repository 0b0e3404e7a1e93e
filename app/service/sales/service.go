package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sofiabot/app/client/llm"
	"sofiabot/app/config"
	"sofiabot/app/service/fastpath"
	"sofiabot/app/service/history"
	"sofiabot/app/service/intent"
	"sofiabot/app/service/ledger"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/shopspring/decimal"
)

const (
	cacheElapsed             = 0.1
	defaultGenerationTimeout = 30 * time.Second
)

type Tag string

const (
	TagCache     Tag = "cache"
	TagGenerated Tag = "generated"
)

type Outcome struct {
	Reply   string
	Tag     Tag
	Elapsed float64
	Stats   ledger.State
}

type Settings struct {
	UnitPrice   decimal.Decimal
	PaymentLink string
	Timeout     time.Duration
}

type Service struct {
	responder llm.Responder
	matcher   *fastpath.Matcher
	detector  intent.Detector
	ledger    *ledger.Ledger
	history   *history.Log

	// commitMu keeps log records in ledger commit order.
	commitMu sync.Mutex

	persona     string
	offer       string
	unitPrice   decimal.Decimal
	timeout     time.Duration
	newRecordID func() string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	unitPrice, err := decimal.NewFromString(cfg.Sales.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid unit price %q: %w", cfg.Sales.UnitPrice, err)
	}

	entries := fastpath.DefaultEntries
	if len(cfg.Sales.FastPath) > 0 {
		entries = make([]fastpath.Entry, 0, len(cfg.Sales.FastPath))
		for _, e := range cfg.Sales.FastPath {
			entries = append(entries, fastpath.Entry{Trigger: e.Trigger, Reply: e.Reply})
		}
	}

	phrases := intent.DefaultPhrases
	if len(cfg.Sales.PurchaseSignals) > 0 {
		phrases = cfg.Sales.PurchaseSignals
	}

	return NewService(
		do.MustInvoke[llm.Responder](di),
		fastpath.NewMatcher(entries, !cfg.Sales.DisableShortMessageFiller),
		intent.NewPhraseDetector(phrases),
		do.MustInvoke[*ledger.Ledger](di),
		do.MustInvoke[*history.Log](di),
		Settings{
			UnitPrice:   unitPrice,
			PaymentLink: cfg.Sales.PaymentLink,
			Timeout:     cfg.LLM.Timeout,
		},
	)
}

func NewService(
	responder llm.Responder,
	matcher *fastpath.Matcher,
	detector intent.Detector,
	ledgerSvc *ledger.Ledger,
	historySvc *history.Log,
	settings Settings,
) (*Service, error) {
	if responder == nil {
		return nil, errors.New("sales: responder must not be nil")
	}
	if matcher == nil {
		return nil, errors.New("sales: matcher must not be nil")
	}
	if detector == nil {
		return nil, errors.New("sales: detector must not be nil")
	}
	if ledgerSvc == nil {
		return nil, errors.New("sales: ledger must not be nil")
	}
	if historySvc == nil {
		return nil, errors.New("sales: history must not be nil")
	}
	if !settings.UnitPrice.IsPositive() {
		return nil, errors.New("sales: unit price must be positive")
	}
	if strings.TrimSpace(settings.PaymentLink) == "" {
		return nil, errors.New("sales: payment link must not be empty")
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultGenerationTimeout
	}

	return &Service{
		responder:   responder,
		matcher:     matcher,
		detector:    detector,
		ledger:      ledgerSvc,
		history:     historySvc,
		persona:     buildPersona(settings.PaymentLink),
		offer:       offerReply(settings.UnitPrice, settings.PaymentLink),
		unitPrice:   settings.UnitPrice,
		timeout:     settings.Timeout,
		newRecordID: uuid.NewString,
	}, nil
}

// Handle answers one inbound message. Failures of the model are turned into
// a fallback reply; the only returned error is an invalid input.
func (s *Service) Handle(ctx context.Context, message, extra string) (Outcome, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Outcome{}, newError(ErrorInvalidInput, "empty_message", ErrValidation)
	}

	reply, hit := s.matcher.Match(message)
	if hit {
		return s.complete(message, reply, TagCache, cacheElapsed, ledger.Update{}), nil
	}
	if reply != "" {
		return s.complete(message, reply, TagGenerated, 0, ledger.Update{}), nil
	}

	start := time.Now()
	reply, err := s.generate(ctx, message, extra)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		slog.WarnContext(ctx, "Generation failed, replying with fallback",
			"message", message,
			"elapsed", elapsed,
			"error", err,
		)
		return s.complete(message, fallbackReply(err), TagGenerated, elapsed, ledger.Update{}), nil
	}

	update := ledger.Update{
		HasLatency:     true,
		LatencySeconds: elapsed,
	}

	if s.detector.Detect(message, reply) {
		reply = s.offer
		update.Sale = true
		update.UnitPrice = s.unitPrice
	}

	outcome := s.complete(message, reply, TagGenerated, elapsed, update)

	if update.Sale {
		slog.InfoContext(ctx, fmt.Sprintf("💰 Sale registered! Total: R$ %s", formatPrice(outcome.Stats.RevenueTotal)),
			"sale_count", outcome.Stats.SaleCount,
			"message", message,
			"telegram", true,
		)
	}

	return outcome, nil
}

func (s *Service) generate(ctx context.Context, message, extra string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.responder.Generate(ctx, composePrompt(s.persona, message, extra))
	if err != nil {
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", errors.New("empty reply")
	}

	return reply, nil
}

func (s *Service) complete(message, reply string, tag Tag, elapsed float64, update ledger.Update) Outcome {
	s.commitMu.Lock()
	stats := s.ledger.Commit(update)
	s.history.Append(history.Record{
		ID:        s.newRecordID(),
		Timestamp: time.Now().UTC(),
		Message:   message,
		Reply:     reply,
		Tag:       string(tag),
		Stats:     stats,
	})
	s.commitMu.Unlock()

	s.ledger.Persist()

	return Outcome{
		Reply:   reply,
		Tag:     tag,
		Elapsed: elapsed,
		Stats:   stats,
	}
}

func (s *Service) Stats() ledger.State {
	return s.ledger.Snapshot()
}
