package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"twitch-tmi/model"
	"twitch-tmi/tokens"
)

// Runner — подключение к чату; реализуется *twitch.Client.
type Runner interface {
	Run(ctx context.Context) error
}

// TokenSource перепроверяет текущий пользовательский токен; реализуется *tokens.Manager.
type TokenSource interface {
	Revalidate(ctx context.Context) (tokens.Token, error)
}

// Service управляет жизненным циклом Twitch клиента и, если задан источник
// токена, ежечасно перепроверяет токен.
type Service struct {
	client   Runner
	tokens   TokenSource
	interval time.Duration
	logger   *zap.Logger
}

// New создаёт Service. source может быть nil, если токен задан в конфигурации.
func New(client Runner, source TokenSource, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		tokens:   source,
		interval: tokens.ValidateInterval,
		logger:   logger.Named("service"),
	}
}

// Run блокируется до отмены контекста, ошибки клиента или отзыва токена.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.client.Run(gctx)
	})

	if s.tokens != nil {
		g.Go(func() error {
			return s.revalidate(gctx)
		})
	}

	return g.Wait()
}

func (s *Service) revalidate(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			token, err := s.tokens.Revalidate(ctx)
			switch {
			case errors.Is(err, tokens.ErrExpired):
				return fmt.Errorf("revalidate token: %w", err)
			case err != nil:
				s.logger.Warn("ошибка проверки токена", zap.Error(err))
			default:
				s.logger.Debug("токен действителен", zap.String("login", token.Login), zap.Time("expires_at", token.ExpiresAt))
			}
		}
	}
}

// ChatQueue принимает сообщения чата для асинхронной записи.
type ChatQueue interface {
	Enqueue(msg model.ChatMessage) bool
}

// EventStore сохраняет notice- и moderation-события.
type EventStore interface {
	SaveNotice(ctx context.Context, notice model.Notice) error
	SaveModeration(ctx context.Context, ev model.Moderation) error
}

// Handler реализует twitch.Handler и перенаправляет события в хранилище.
type Handler struct {
	queue  ChatQueue
	store  EventStore
	logger *zap.Logger
}

func NewHandler(queue ChatQueue, store EventStore, logger *zap.Logger) *Handler {
	return &Handler{queue: queue, store: store, logger: logger.Named("handler")}
}

// HandleChat помещает сообщения чата в очередь батчера.
func (h *Handler) HandleChat(_ context.Context, msg model.ChatMessage) {
	if ok := h.queue.Enqueue(msg); !ok {
		h.logger.Debug("батчер: сообщение отброшено", zap.String("channel", msg.Channel))
	}
}

// HandleNotice сохраняет notice-событие напрямую.
func (h *Handler) HandleNotice(ctx context.Context, notice model.Notice) {
	if err := h.store.SaveNotice(ctx, notice); err != nil {
		h.logger.Error("ошибка сохранения NOTICE",
			zap.String("channel", notice.Channel),
			zap.String("kind", string(notice.Kind)),
			zap.String("msg_id", notice.ID),
			zap.Error(err),
		)
	}
}

func (h *Handler) HandleModeration(ctx context.Context, ev model.Moderation) {
	if err := h.store.SaveModeration(ctx, ev); err != nil {
		h.logger.Error("ошибка сохранения события модерации",
			zap.String("channel", ev.Channel),
			zap.String("action", string(ev.Action)),
			zap.Error(err),
		)
	}
}
