package history

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"sofiabot/app/config"
	"sofiabot/app/service/ledger"
	"sofiabot/app/service/storage"

	"github.com/samber/do"
)

const MaxRecords = 1000

var _ do.Shutdownable = (*Log)(nil)

type Record struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Message   string       `json:"message"`
	Reply     string       `json:"reply"`
	Tag       string       `json:"tag"`
	Stats     ledger.State `json:"stats"`
}

// Log keeps the most recent MaxRecords conversations in memory and mirrors
// them to a single file.
type Log struct {
	mu      sync.RWMutex
	records []Record
	limit   int

	writer *storage.Writer
}

func New(di *do.Injector) (*Log, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return Open(cfg.Storage.ConversationsPath, MaxRecords), nil
}

func Open(path string, limit int) *Log {
	if limit <= 0 {
		limit = MaxRecords
	}

	var records []Record
	if err := storage.Load(path, &records); err != nil {
		slog.Warn("Conversation log is unreadable, starting empty",
			"path", path,
			"error", err,
		)
		records = nil
	}

	if over := len(records) - limit; over > 0 {
		records = records[over:]
	}

	l := &Log{
		records: slices.Clone(records),
		limit:   limit,
	}
	l.writer = storage.NewWriter(path, func() any {
		return l.Records()
	})

	return l
}

// Append adds rec, drops the oldest records beyond the limit and schedules
// a background write.
func (l *Log) Append(rec Record) {
	l.mu.Lock()
	if len(l.records) >= l.limit {
		l.records = append(l.records[len(l.records)-l.limit+1:], rec)
	} else {
		l.records = append(l.records, rec)
	}
	l.mu.Unlock()

	l.writer.Notify()
}

// Records returns a copy of the log, oldest first.
func (l *Log) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Record, len(l.records))
	copy(result, l.records)

	return result
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.records)
}

func (l *Log) Flush() error {
	return l.writer.Flush()
}

func (l *Log) Run(ctx context.Context) error {
	return l.writer.Run(ctx)
}

func (l *Log) Shutdown() error {
	return l.Flush()
}
