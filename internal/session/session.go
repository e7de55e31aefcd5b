package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
)

const keyPrefix = "session:"

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is the server-side state behind the session cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	CSRFToken string    `json:"csrf_token"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// Identity returns the caller bound to this session, or nil for anonymous sessions.
func (s *Session) Identity() *models.Identity {
	if !s.Authenticated() {
		return nil
	}
	return &models.Identity{UserID: s.UserID, SessionID: s.ID}
}

// VerifyCSRF compares token with the session's anti-forgery token in constant time.
func (s *Session) VerifyCSRF(token string) bool {
	if s == nil || s.CSRFToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRFToken), []byte(token)) == 1
}

// Claims is what the signed cookie carries; the session itself stays in redis.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type Manager struct {
	rdb    redis.Cmdable
	secret []byte
	ttl    time.Duration
}

func NewManager(rdb redis.Cmdable, secret string, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, secret: []byte(secret), ttl: ttl}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create stores a fresh session with a new id and anti-forgery token.
// userID 0 creates an anonymous session.
func (m *Manager) Create(ctx context.Context, userID uint) (*Session, error) {
	token, err := newCSRFToken()
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CSRFToken: token,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.rdb.Set(ctx, keyPrefix+s.ID, data, m.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	data, err := m.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// Regenerate replaces old (which may be nil) with a new session for userID, so a
// session id observed before login is useless afterwards.
func (m *Manager) Regenerate(ctx context.Context, old *Session, userID uint) (*Session, error) {
	if old != nil {
		if err := m.Destroy(ctx, old.ID); err != nil {
			return nil, err
		}
	}
	return m.Create(ctx, userID)
}

func (m *Manager) Destroy(ctx context.Context, id string) error {
	if err := m.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Sign produces the cookie value for s.
func (m *Manager) Sign(s *Session) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Resolve verifies a cookie value and loads the session it points to.
func (m *Manager) Resolve(ctx context.Context, cookie string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(cookie, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return m.Get(ctx, claims.SessionID)
}

func newCSRFToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
