package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"twitch-tmi/model"
)

type stubSender struct {
	mu      sync.Mutex
	batches [][]*pgx.QueuedQuery
}

type stubBatchResults struct{}

func (s *stubSender) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	s.mu.Lock()
	defer s.mu.Unlock()

	copyQueries := append([]*pgx.QueuedQuery(nil), b.QueuedQueries...)
	s.batches = append(s.batches, copyQueries)
	return &stubBatchResults{}
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *stubBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (s *stubBatchResults) Query() (pgx.Rows, error)         { return nil, nil }
func (s *stubBatchResults) QueryRow() pgx.Row                { return nil }
func (s *stubBatchResults) Close() error                     { return nil }

func testBatchConfig() BatchConfig {
	return BatchConfig{
		MaxBatch:      10,
		FlushEvery:    time.Hour,
		ChanBuffer:    10,
		StatsLogEvery: time.Hour,
		FlushTimeout:  time.Second,
	}
}

func TestBatcherFlushesOnMaxBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())

	cfg := testBatchConfig()
	cfg.MaxBatch = 2
	batcher := NewBatcher(ctx, sender, cfg, zap.NewNop())

	msg := model.ChatMessage{ID: "1", Channel: "ch", UserID: "u", Username: "name", DisplayName: "disp", Text: "hi", SentAt: time.Now()}
	batcher.Enqueue(msg)
	batcher.Enqueue(msg)

	waitForBatches(t, sender, 1)

	cancel()
	<-batcher.Done()
	if got := batcher.Inserted(); got != 2 {
		t.Fatalf("expected 2 inserted rows, got %d", got)
	}
}

func TestBatcherFlushesOnTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())

	cfg := testBatchConfig()
	cfg.FlushEvery = 50 * time.Millisecond
	batcher := NewBatcher(ctx, sender, cfg, zap.NewNop())

	msg := model.ChatMessage{ID: "2", Channel: "ch", UserID: "u", Username: "name", DisplayName: "disp", Text: "hello", SentAt: time.Now()}
	batcher.Enqueue(msg)

	waitForBatches(t, sender, 1)

	cancel()
	<-batcher.Done()
}

func TestBatcherFlushesOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())
	batcher := NewBatcher(ctx, sender, testBatchConfig(), zap.NewNop())

	batcher.Enqueue(model.ChatMessage{ID: "3", Channel: "ch", Text: "bye"})
	waitForQueueDrain(t, batcher)

	cancel()
	<-batcher.Done()

	if sender.count() != 1 {
		t.Fatalf("expected final flush on shutdown, got %d batches", sender.count())
	}
}

func TestChatMessageArgsUsesNullForEmptyStrings(t *testing.T) {
	args := chatMessageArgs(model.ChatMessage{Channel: "ch", Text: "hi"})
	if len(args) != 12 {
		t.Fatalf("expected 12 args, got %d", len(args))
	}
	if id := args[0].(*string); id != nil {
		t.Fatalf("expected NULL message id, got %q", *id)
	}
	if args[1] != "ch" {
		t.Fatalf("unexpected channel arg: %v", args[1])
	}
}

func waitForBatches(t *testing.T, sender *stubSender, expected int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sender.count() >= expected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected at least %d batches, got %d", expected, sender.count())
}

func waitForQueueDrain(t *testing.T, b *Batcher) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(b.input) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("queue not drained")
}
