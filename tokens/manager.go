package tokens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"twitch-tmi/auth"
)

// ValidateInterval — период, с которым Twitch требует перепроверять токены чата.
const ValidateInterval = time.Hour

var (
	// ErrNoToken возвращается, если в хранилище нет токена.
	ErrNoToken = errors.New("tokens: no user token stored")
	// ErrExpired возвращается, если Twitch больше не принимает сохранённый токен.
	ErrExpired = errors.New("tokens: user token expired or revoked")
)

// TokenValidator проверяет токен доступа через Twitch.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (auth.Validation, error)
}

// Manager выдаёт сохранённый пользовательский токен и перепроверяет устаревший.
type Manager struct {
	store     TokenStore
	validator TokenValidator
	now       func() time.Time
	mu        sync.Mutex
}

func NewManager(store TokenStore, validator TokenValidator) *Manager {
	return &Manager{
		store:     store,
		validator: validator,
		now:       time.Now,
	}
}

// Get возвращает сохранённый токен, проверяя его, если последняя проверка
// старше ValidateInterval.
func (m *Manager) Get(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.store.LoadUserToken()
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", ErrNoToken, err)
	}

	now := m.now()
	fresh := now.Sub(token.ValidatedAt) < ValidateInterval
	if fresh && (token.ExpiresAt.IsZero() || now.Before(token.ExpiresAt)) {
		return *token, nil
	}

	return m.validate(ctx, token.Access)
}

// Revalidate проверяет сохранённый токен независимо от его возраста.
// Используется периодическими проверками, чтобы интервал не превышал период.
func (m *Manager) Revalidate(ctx context.Context) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.store.LoadUserToken()
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	return m.validate(ctx, token.Access)
}

// Register проверяет новый токен доступа и сохраняет его.
func (m *Manager) Register(ctx context.Context, access string) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.validate(ctx, access)
}

// validate записывает в ValidatedAt время начала запроса: токен, проверенный
// в момент t, снова устаревает в t+ValidateInterval.
func (m *Manager) validate(ctx context.Context, access string) (Token, error) {
	now := m.now()
	v, err := m.validator.Validate(ctx, access)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return Token{}, ErrExpired
		}
		return Token{}, err
	}

	token := Token{
		Access:      access,
		Login:       v.Login,
		UserID:      v.UserID,
		ValidatedAt: now,
	}
	// Для бессрочных токенов Twitch возвращает expires_in=0.
	if v.ExpiresIn > 0 {
		token.ExpiresAt = now.Add(v.ExpiresIn)
	}

	if err := m.store.SaveUserToken(token); err != nil {
		return Token{}, err
	}

	return token, nil
}
