package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTokenFile = ".secrets/twitch_user_token.json"

// FileTokenStore хранит токен в JSON файле, доступном только владельцу.
type FileTokenStore struct {
	Path string
}

type fileToken struct {
	Access      string `json:"access"`
	Login       string `json:"login"`
	UserID      string `json:"user_id"`
	ExpiresAt   string `json:"expires_at"`
	ValidatedAt string `json:"validated_at"`
}

func (store FileTokenStore) tokenPath() string {
	if strings.TrimSpace(store.Path) == "" {
		return DefaultTokenFile
	}
	return store.Path
}

// LoadUserToken загружает токен из файла. Для отсутствующего файла ошибка
// соответствует os.ErrNotExist.
func (store FileTokenStore) LoadUserToken() (*Token, error) {
	data, err := os.ReadFile(store.tokenPath())
	if err != nil {
		return nil, fmt.Errorf("load user token: read file: %w", err)
	}

	var payload fileToken
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("load user token: decode json: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339, payload.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("load user token: parse expires_at: %w", err)
	}
	validatedAt, err := time.Parse(time.RFC3339, payload.ValidatedAt)
	if err != nil {
		return nil, fmt.Errorf("load user token: parse validated_at: %w", err)
	}

	return &Token{
		Access:      payload.Access,
		Login:       payload.Login,
		UserID:      payload.UserID,
		ExpiresAt:   expiresAt,
		ValidatedAt: validatedAt,
	}, nil
}

// SaveUserToken сохраняет токен с правами 0600.
func (store FileTokenStore) SaveUserToken(token Token) error {
	path := store.tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("save user token: create dir: %w", err)
	}

	data, err := json.Marshal(fileToken{
		Access:      token.Access,
		Login:       token.Login,
		UserID:      token.UserID,
		ExpiresAt:   token.ExpiresAt.UTC().Format(time.RFC3339),
		ValidatedAt: token.ValidatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("save user token: encode json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("save user token: write file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("save user token: chmod file: %w", err)
	}

	return nil
}
