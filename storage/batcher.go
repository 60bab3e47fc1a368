package storage

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"twitch-tmi/model"
)

const insertChatMessage = `
insert into chat_messages (
  message_id, channel, user_id, username, display_name, text, badges, color,
  is_mod, is_subscriber, bits, sent_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
on conflict (message_id) do nothing;`

// BatchConfig задаёт параметры батчинга для вставки сообщений.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

// BatchSender реализуется *pgxpool.Pool.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Batcher асинхронно вставляет сообщения чата через pgx.Batch.
type Batcher struct {
	input    chan model.ChatMessage
	config   BatchConfig
	sender   BatchSender
	logger   *zap.Logger
	dropped  atomic.Uint64
	inserted atomic.Uint64
	done     chan struct{}
}

// NewBatcher создаёт батчер и запускает фоновые флаши. Цикл завершается
// после отмены ctx и финального флаша.
func NewBatcher(ctx context.Context, sender BatchSender, cfg BatchConfig, logger *zap.Logger) *Batcher {
	b := &Batcher{
		input:  make(chan model.ChatMessage, cfg.ChanBuffer),
		config: cfg,
		sender: sender,
		logger: logger.Named("batcher"),
		done:   make(chan struct{}),
	}

	go b.run(ctx)

	return b
}

// Enqueue добавляет сообщение в очередь без блокировки; при переполнении возвращает false.
func (b *Batcher) Enqueue(msg model.ChatMessage) bool {
	select {
	case b.input <- msg:
		return true
	default:
		if dropped := b.dropped.Add(1); dropped%100 == 0 {
			b.logger.Warn("батчер: очередь заполнена", zap.Uint64("dropped_total", dropped))
		}
		return false
	}
}

// Dropped возвращает число сообщений, отброшенных из-за переполнения.
func (b *Batcher) Dropped() uint64 { return b.dropped.Load() }

// Inserted возвращает число строк, отправленных в базу.
func (b *Batcher) Inserted() uint64 { return b.inserted.Load() }

// Done закрывается после выхода из цикла флашей.
func (b *Batcher) Done() <-chan struct{} { return b.done }

func (b *Batcher) run(ctx context.Context) {
	defer close(b.done)

	flushTicker := time.NewTicker(b.config.FlushEvery)
	statsTicker := time.NewTicker(b.config.StatsLogEvery)
	defer flushTicker.Stop()
	defer statsTicker.Stop()

	var (
		batch    = &pgx.Batch{}
		interval uint64
	)

	flush := func() {
		pending := batch.Len()
		if pending == 0 {
			return
		}

		dbCtx, cancel := context.WithTimeout(context.Background(), b.config.FlushTimeout)
		defer cancel()

		if err := b.sender.SendBatch(dbCtx, batch).Close(); err != nil {
			b.logger.Error("ошибка флаша батчера", zap.Int("rows", pending), zap.Error(err))
		}

		b.inserted.Add(uint64(pending))
		interval += uint64(pending)
		batch = &pgx.Batch{}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			b.logger.Info("батчер: контекст отменён", zap.Uint64("inserted_total", b.inserted.Load()))
			return
		case <-flushTicker.C:
			flush()
		case <-statsTicker.C:
			b.logger.Info("батчер: статистика вставок",
				zap.Uint64("inserted", interval),
				zap.Duration("interval", b.config.StatsLogEvery),
				zap.Uint64("inserted_total", b.inserted.Load()),
				zap.Uint64("dropped_total", b.dropped.Load()),
			)
			interval = 0
		case msg := <-b.input:
			batch.Queue(insertChatMessage, chatMessageArgs(msg)...)
			if batch.Len() >= b.config.MaxBatch {
				flush()
			}
		}
	}
}

func chatMessageArgs(msg model.ChatMessage) []any {
	badges, _ := json.Marshal(msg.Badges)
	return []any{
		nullable(msg.ID), msg.Channel, nullable(msg.UserID), nullable(msg.Username),
		nullable(msg.DisplayName), msg.Text, badges, nullable(msg.Color),
		msg.IsMod, msg.IsSubscriber, msg.Bits, msg.SentAt.UTC(),
	}
}

// nullable превращает "" в SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
