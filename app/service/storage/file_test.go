package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type document struct {
	Count int `json:"count"`
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	doc := document{Count: 7}

	require.NoError(t, Load(filepath.Join(t.TempDir(), "missing.json"), &doc))
	require.Equal(t, 7, doc.Count)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	var doc document
	require.Error(t, Load(path, &doc))
}

func TestFlush_WritesSnapshotAndCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	w := NewWriter(path, func() any { return document{Count: 3} })

	require.NoError(t, w.Flush())

	var doc document
	require.NoError(t, Load(path, &doc))
	require.Equal(t, 3, doc.Count)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestRun_PersistsLatestStateAfterBurstOfNotifications(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")

	var counter atomic.Int64
	w := NewWriter(path, func() any { return document{Count: int(counter.Load())} })

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = w.Run(ctx)
	}()

	var writers sync.WaitGroup
	for i := 0; i < 50; i++ {
		writers.Add(1)
		go func() {
			defer writers.Done()
			counter.Add(1)
			w.Notify()
		}()
	}
	writers.Wait()
	w.Notify()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		var doc document
		if json.Unmarshal(data, &doc) != nil {
			return false
		}
		return doc.Count == 50
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	wg.Wait()
}

func TestNotify_NeverBlocksWithoutRunner(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "doc.json"), func() any { return document{} })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			w.Notify()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked")
	}
}
