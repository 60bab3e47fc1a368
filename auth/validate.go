package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const twitchValidateURL = "https://id.twitch.tv/oauth2/validate"

// ErrInvalidToken возвращается, если Twitch отклоняет токен (HTTP 401).
var ErrInvalidToken = errors.New("twitch oauth: invalid access token")

// Validation — ответ Twitch для действительного токена пользователя.
type Validation struct {
	ClientID  string
	Login     string
	UserID    string
	Scopes    []string
	ExpiresIn time.Duration
}

// Validator проверяет токены пользователя через эндпоинт validate Twitch.
type Validator struct {
	Endpoint string
	HTTP     *http.Client
}

// Validate проверяет токен. Префикс "oauth:" допускается.
func (v Validator) Validate(ctx context.Context, token string) (Validation, error) {
	endpoint := v.Endpoint
	if endpoint == "" {
		endpoint = twitchValidateURL
	}
	client := v.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Validation{}, fmt.Errorf("twitch oauth: create request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+strings.TrimPrefix(strings.TrimSpace(token), "oauth:"))

	resp, err := client.Do(req)
	if err != nil {
		return Validation{}, fmt.Errorf("twitch oauth: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return Validation{}, ErrInvalidToken
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return Validation{}, fmt.Errorf("twitch oauth: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		ClientID  string   `json:"client_id"`
		Login     string   `json:"login"`
		UserID    string   `json:"user_id"`
		Scopes    []string `json:"scopes"`
		ExpiresIn int64    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Validation{}, fmt.Errorf("twitch oauth: decode response: %w", err)
	}

	return Validation{
		ClientID:  payload.ClientID,
		Login:     payload.Login,
		UserID:    payload.UserID,
		Scopes:    payload.Scopes,
		ExpiresIn: time.Duration(payload.ExpiresIn) * time.Second,
	}, nil
}
