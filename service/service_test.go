package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"twitch-tmi/auth"
	"twitch-tmi/model"
	"twitch-tmi/tokens"
)

type blockingClient struct{}

func (blockingClient) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type failingClient struct{ err error }

func (c failingClient) Run(context.Context) error { return c.err }

type stubTokens struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubTokens) Revalidate(context.Context) (tokens.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return tokens.Token{Login: "ronni"}, s.err
}

func (s *stubTokens) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	srv := New(blockingClient{}, &stubTokens{}, zap.NewNop())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReturnsClientError(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("login authentication failed")
	srv := New(failingClient{err: boom}, &stubTokens{}, zap.NewNop())

	err := srv.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRunRevalidatesToken(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &stubTokens{}
	srv := New(blockingClient{}, src, zap.NewNop())
	srv.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return src.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

type memTokenStore struct {
	mu    sync.Mutex
	token tokens.Token
}

func (s *memTokenStore) LoadUserToken() (*tokens.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.token
	return &t, nil
}

func (s *memTokenStore) SaveUserToken(t tokens.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = t
	return nil
}

type countingValidator struct {
	mu    sync.Mutex
	calls int
}

func (v *countingValidator) Validate(context.Context, string) (auth.Validation, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	return auth.Validation{Login: "ronni"}, nil
}

func (v *countingValidator) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

func TestRunValidatesFreshTokenOnEveryTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memTokenStore{token: tokens.Token{Access: "abc", Login: "ronni", ValidatedAt: time.Now()}}
	validator := &countingValidator{}
	srv := New(blockingClient{}, tokens.NewManager(store, validator), zap.NewNop())
	srv.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return validator.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestRunStopsWhenTokenRevoked(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := New(blockingClient{}, &stubTokens{err: tokens.ErrExpired}, zap.NewNop())
	srv.interval = 10 * time.Millisecond

	err := srv.Run(context.Background())
	assert.ErrorIs(t, err, tokens.ErrExpired)
}

func TestRunWithoutTokenSource(t *testing.T) {
	boom := errors.New("closed")
	srv := New(failingClient{err: boom}, nil, zap.NewNop())
	assert.ErrorIs(t, srv.Run(context.Background()), boom)
}

type stubQueue struct {
	msgs []model.ChatMessage
	full bool
}

func (q *stubQueue) Enqueue(msg model.ChatMessage) bool {
	if q.full {
		return false
	}
	q.msgs = append(q.msgs, msg)
	return true
}

type stubStore struct {
	notices     []model.Notice
	moderations []model.Moderation
	err         error
}

func (s *stubStore) SaveNotice(_ context.Context, n model.Notice) error {
	s.notices = append(s.notices, n)
	return s.err
}

func (s *stubStore) SaveModeration(_ context.Context, m model.Moderation) error {
	s.moderations = append(s.moderations, m)
	return s.err
}

func TestHandlerForwardsEvents(t *testing.T) {
	queue := &stubQueue{}
	store := &stubStore{}
	h := NewHandler(queue, store, zap.NewNop())

	ctx := context.Background()
	h.HandleChat(ctx, model.ChatMessage{ID: "1", Channel: "dallas"})
	h.HandleNotice(ctx, model.Notice{Kind: model.NoticeKindNotice, Channel: "dallas"})
	h.HandleModeration(ctx, model.Moderation{Action: model.ActionBan, Channel: "dallas"})

	require.Len(t, queue.msgs, 1)
	require.Len(t, store.notices, 1)
	require.Len(t, store.moderations, 1)
	assert.Equal(t, model.ActionBan, store.moderations[0].Action)
}

func TestHandlerSwallowsStorageErrors(t *testing.T) {
	queue := &stubQueue{full: true}
	store := &stubStore{err: errors.New("breaker open")}
	h := NewHandler(queue, store, zap.NewNop())

	ctx := context.Background()
	assert.NotPanics(t, func() {
		h.HandleChat(ctx, model.ChatMessage{ID: "1"})
		h.HandleNotice(ctx, model.Notice{})
		h.HandleModeration(ctx, model.Moderation{})
	})
	assert.Empty(t, queue.msgs)
	assert.Len(t, store.notices, 1)
}
