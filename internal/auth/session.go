package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken возвращается, когда токен не прошёл проверку подписи
// или не содержит обязательных полей.
var ErrInvalidToken = errors.New("auth: invalid token")

// Session описывает установленную личность покупателя. Для анонимных
// сессий Identity генерируется локально и остаётся стабильным только в
// рамках одного клиента.
type Session struct {
	Identity  string `json:"identity"`
	Name      string `json:"name,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

// Ready сообщает, готова ли сессия использоваться как ключ корзины.
func (s Session) Ready() bool {
	return s.Identity != ""
}

// Manager выпускает и проверяет токены сессий. Подпись HS256 на общем
// секрете, срок жизни токена фиксированный.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager создаёт менеджер сессий с заданным секретом.
func NewManager(secret string) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    24 * time.Hour,
	}
}

// Anonymous создаёт анонимную сессию со случайным идентификатором.
func (m *Manager) Anonymous() Session {
	return Session{
		Identity:  "anon-" + uuid.NewString(),
		Anonymous: true,
	}
}

// IssueToken выпускает подписанный токен для известного покупателя.
func (m *Manager) IssueToken(identity, name string) (string, error) {
	if strings.TrimSpace(identity) == "" {
		return "", fmt.Errorf("%w: empty identity", ErrInvalidToken)
	}

	claims := jwt.MapClaims{
		"sub":  identity,
		"name": name,
		"exp":  time.Now().Add(m.ttl).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify проверяет токен и возвращает сессию покупателя.
func (m *Manager) Verify(tokenString string) (Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	identity, _ := claims["sub"].(string)
	if identity == "" {
		return Session{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)

	return Session{Identity: identity, Name: name}, nil
}
