package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"twitch-tmi/model"
)

const (
	insertNotice = `
insert into channel_notices (
  event_id, kind, channel, msg_id, login, message, system_msg, tags, notice_at
) values ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	insertModeration = `
insert into moderation_events (
  event_id, action, channel, target_login, target_user_id, target_msg_id,
  message, duration_seconds, event_at
) values ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
)

// Execer реализуется *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// StoreConfig задаёт параметры одиночных вставок.
type StoreConfig struct {
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Store сохраняет notice- и moderation-события. Запись идёт через circuit
// breaker: при недоступной базе вызовы сразу завершаются ошибкой.
type Store struct {
	db      Execer
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[pgconn.CommandTag]
}

func NewStore(db Execer, cfg StoreConfig, logger *zap.Logger) *Store {
	logger = logger.Named("store")
	breaker := gobreaker.NewCircuitBreaker[pgconn.CommandTag](gobreaker.Settings{
		Name:    "postgres",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("breaker: смена состояния",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	return &Store{db: db, timeout: cfg.Timeout, breaker: breaker}
}

// SaveNotice сохраняет событие NOTICE или USERNOTICE, назначая EventID при необходимости.
func (s *Store) SaveNotice(ctx context.Context, notice model.Notice) error {
	if notice.EventID == "" {
		notice.EventID = newEventID(notice.NoticeAt)
	}

	tags, err := json.Marshal(notice.Tags)
	if err != nil {
		return fmt.Errorf("save notice: encode tags: %w", err)
	}

	return s.exec(ctx, "save notice", insertNotice,
		notice.EventID, string(notice.Kind), notice.Channel, nullable(notice.ID),
		nullable(notice.Login), notice.Message, nullable(notice.SystemMsg), tags, notice.NoticeAt.UTC(),
	)
}

// SaveModeration сохраняет событие CLEARCHAT или CLEARMSG, назначая EventID при необходимости.
func (s *Store) SaveModeration(ctx context.Context, ev model.Moderation) error {
	if ev.EventID == "" {
		ev.EventID = newEventID(ev.At)
	}

	var duration *int64
	if ev.Duration > 0 {
		secs := int64(ev.Duration / time.Second)
		duration = &secs
	}

	return s.exec(ctx, "save moderation", insertModeration,
		ev.EventID, string(ev.Action), ev.Channel, nullable(ev.TargetLogin), nullable(ev.TargetUserID),
		nullable(ev.TargetMsgID), nullable(ev.Message), duration, ev.At.UTC(),
	)
}

func (s *Store) exec(ctx context.Context, op, sql string, args ...any) error {
	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.breaker.Execute(func() (pgconn.CommandTag, error) {
		return s.db.Exec(dbCtx, sql, args...)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// newEventID возвращает ULID, чтобы идентификаторы сортировались по времени события.
func newEventID(at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}
