package tokens

import (
	"strings"
	"time"
)

// Token описывает пользовательский токен чата и результат его последней
// проверки.
type Token struct {
	Access      string
	Login       string
	UserID      string
	ExpiresAt   time.Time
	ValidatedAt time.Time
}

// IRCPassword возвращает токен в виде "oauth:<token>", как ожидает PASS.
func (t Token) IRCPassword() string {
	return "oauth:" + strings.TrimPrefix(t.Access, "oauth:")
}

// TokenStore описывает хранилище пользовательского токена.
type TokenStore interface {
	LoadUserToken() (*Token, error)
	SaveUserToken(Token) error
}
