package ledger

import (
	"context"
	"log/slog"
	"sync"

	"sofiabot/app/config"
	"sofiabot/app/service/storage"

	"github.com/samber/do"
	"github.com/shopspring/decimal"
)

var _ do.Shutdownable = (*Ledger)(nil)

func init() {
	// revenue is exposed as a plain JSON number
	decimal.MarshalJSONWithoutQuotes = true
}

type State struct {
	ConversationCount int64           `json:"conversation_count"`
	SaleCount         int64           `json:"sale_count"`
	RevenueTotal      decimal.Decimal `json:"revenue_total"`
	AvgLatencySeconds float64         `json:"avg_latency_seconds"`
}

// Update describes everything one request changes. Every update counts as
// one conversation.
type Update struct {
	Sale      bool
	UnitPrice decimal.Decimal

	HasLatency     bool
	LatencySeconds float64
}

type Ledger struct {
	mu    sync.RWMutex
	state State

	writer *storage.Writer
}

func New(di *do.Injector) (*Ledger, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return Open(cfg.Storage.LedgerPath), nil
}

// Open loads the ledger from path. Unreadable files start a zero ledger.
func Open(path string) *Ledger {
	var state State
	if err := storage.Load(path, &state); err != nil {
		slog.Warn("Ledger file is unreadable, starting from zero",
			"path", path,
			"error", err,
		)
		state = State{}
	}

	l := &Ledger{state: sanitize(state)}
	l.writer = storage.NewWriter(path, func() any {
		return l.Snapshot()
	})

	return l
}

func sanitize(s State) State {
	if s.ConversationCount < 0 || s.SaleCount < 0 || s.RevenueTotal.IsNegative() || s.AvgLatencySeconds < 0 {
		slog.Warn("Ledger file holds negative values, starting from zero")
		return State{}
	}

	return s
}

// Commit applies u atomically and returns the resulting state.
func (l *Ledger) Commit(u Update) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.RecordConversation()

	if u.Sale {
		l.state.RecordSale(u.UnitPrice)
	}

	if u.HasLatency {
		l.state.RecordLatency(u.LatencySeconds)
	}

	return l.state
}

func (s *State) RecordConversation() {
	s.ConversationCount++
}

func (s *State) RecordSale(unitPrice decimal.Decimal) {
	s.SaleCount++
	s.RevenueTotal = s.RevenueTotal.Add(unitPrice)
}

func (s *State) RecordLatency(seconds float64) {
	s.AvgLatencySeconds = blend(s.AvgLatencySeconds, seconds)
}

// blend halves the distance to the newest sample. This is not a mean.
func blend(avg, sample float64) float64 {
	if sample < 0 {
		sample = 0
	}

	return (avg + sample) / 2
}

func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state
}

// Persist schedules a background write of the current state.
func (l *Ledger) Persist() {
	l.writer.Notify()
}

func (l *Ledger) Flush() error {
	return l.writer.Flush()
}

func (l *Ledger) Run(ctx context.Context) error {
	return l.writer.Run(ctx)
}

func (l *Ledger) Shutdown() error {
	return l.Flush()
}
