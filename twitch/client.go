package twitch

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
	"go.uber.org/zap"

	"twitch-tmi/config"
	"twitch-tmi/model"
	"twitch-tmi/tmi"
)

// Handler принимает Twitch-события, преобразованные в доменные модели.
type Handler interface {
	HandleChat(context.Context, model.ChatMessage)
	HandleNotice(context.Context, model.Notice)
	HandleModeration(context.Context, model.Moderation)
}

// Client оборачивает go-twitch-irc и пропускает каждую сырую строку через
// tmi.Parse.
type Client struct {
	client   *twitchirc.Client
	router   *router
	channels []string
	baseCtx  context.Context
}

// NewClient инициализирует IRC-клиент и регистрирует колбэки.
func NewClient(cfg config.TwitchConfig, handler Handler, logger *zap.Logger) *Client {
	client := twitchirc.NewClient(cfg.Username, cfg.OAuthToken)
	logger = logger.Named("twitch")

	c := &Client{
		client:   client,
		router:   newRouter(handler, logger),
		channels: cfg.Channels,
	}

	client.OnConnect(func() {
		logger.Info("twitch: подключено, подписка на каналы", zap.Strings("channels", c.channels))
		for _, ch := range c.channels {
			if ch == "" {
				continue
			}
			client.Join(ch)
		}
	})

	client.OnPrivateMessage(func(m twitchirc.PrivateMessage) { c.route(m.Raw) })
	client.OnNoticeMessage(func(m twitchirc.NoticeMessage) { c.route(m.Raw) })
	client.OnUserNoticeMessage(func(m twitchirc.UserNoticeMessage) { c.route(m.Raw) })
	client.OnClearChatMessage(func(m twitchirc.ClearChatMessage) { c.route(m.Raw) })
	client.OnClearMessage(func(m twitchirc.ClearMessage) { c.route(m.Raw) })
	client.OnRoomStateMessage(func(m twitchirc.RoomStateMessage) { c.route(m.Raw) })
	client.OnUserStateMessage(func(m twitchirc.UserStateMessage) { c.route(m.Raw) })
	client.OnGlobalUserStateMessage(func(m twitchirc.GlobalUserStateMessage) { c.route(m.Raw) })
	client.OnReconnectMessage(func(m twitchirc.ReconnectMessage) { c.route(m.Raw) })
	client.OnUnsetMessage(func(m twitchirc.RawMessage) { c.route(m.Raw) })

	return c
}

// Run подключает клиента и блокируется до отмены контекста или ошибки.
func (c *Client) Run(ctx context.Context) error {
	c.baseCtx = ctx
	errCh := make(chan error, 1)

	go func() {
		errCh <- c.client.Connect()
	}()

	select {
	case <-ctx.Done():
		_ = c.client.Disconnect()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ParseErrors возвращает число отброшенных некорректных строк. Строки с
// неподдерживаемыми командами не учитываются.
func (c *Client) ParseErrors() uint64 { return c.router.parseErrors.Load() }

func (c *Client) route(raw string) {
	c.router.route(c.context(), raw)
}

func (c *Client) context() context.Context {
	if c.baseCtx != nil {
		return c.baseCtx
	}
	return context.Background()
}

// router превращает сырые строки в вызовы Handler.
type router struct {
	handler Handler
	logger  *zap.Logger
	now     func() time.Time

	parseErrors atomic.Uint64
}

func newRouter(handler Handler, logger *zap.Logger) *router {
	return &router{handler: handler, logger: logger, now: time.Now}
}

func (r *router) route(ctx context.Context, raw string) {
	msg, err := tmi.Parse(raw)
	if errors.Is(err, tmi.ErrUnknownCommand) {
		// числовые ответы и команды вне TMI, например 001-004 и 353/366
		r.logger.Debug("twitch: неподдерживаемая команда", zap.String("raw", raw))
		return
	}
	if err != nil {
		r.parseErrors.Add(1)
		r.logger.Warn("twitch: строка не разобрана", zap.String("raw", raw), zap.Error(err))
		return
	}

	received := r.now()
	switch m := msg.(type) {
	case tmi.Privmsg:
		r.handler.HandleChat(ctx, toChatMessage(m, senderLogin(raw), received))
	case tmi.Notice:
		r.handler.HandleNotice(ctx, noticeFromNotice(m, received))
	case tmi.UserNotice:
		r.handler.HandleNotice(ctx, noticeFromUserNotice(m, received))
	case tmi.ClearChat:
		r.handler.HandleModeration(ctx, moderationFromClearChat(m, received))
	case tmi.ClearMsg:
		r.handler.HandleModeration(ctx, moderationFromClearMsg(m, received))
	case tmi.Reconnect:
		r.logger.Info("twitch: сервер запросил RECONNECT")
	case tmi.RoomState:
		r.logger.Debug("twitch: состояние комнаты", zap.String("channel", m.Channel), zap.Stringer("tags", m.Tags))
	default:
		r.logger.Debug("twitch: сообщение пропущено", zap.String("command", msg.Command()))
	}
}
