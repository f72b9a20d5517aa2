package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidAPIKey      = errors.New("invalid api key")
)

type userIDKey struct{}

// UserIDKey ключ gin-контекста с id текущего пользователя
const UserIDKey = "user_id"

// IdentityConfig конфигурация определения текущего пользователя
type IdentityConfig struct {
	// JWTSecret включает Bearer JWT (HS256, sub = id пользователя)
	JWTSecret string
	// APIKeys карта API ключей к id пользователей
	APIKeys map[string]int64
	// DefaultUserID используется, если запрос пришёл без учётных данных; 0 отключает
	DefaultUserID int64
	// HeaderName имя заголовка для API ключа (по умолчанию: X-API-Key)
	HeaderName string
}

// Identity middleware, определяющий владельца запроса
type Identity struct {
	config IdentityConfig
}

func NewIdentity(config IdentityConfig) *Identity {
	if config.HeaderName == "" {
		config.HeaderName = "X-API-Key"
	}
	return &Identity{config: config}
}

// Middleware кладёт id пользователя в контекст запроса или отвечает 401.
// Порядок: Bearer JWT, API ключ, пользователь по умолчанию.
func (id *Identity) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := id.resolve(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": err.Error(),
			})
			return
		}

		c.Set(UserIDKey, userID)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func (id *Identity) resolve(c *gin.Context) (int64, error) {
	if bearer, ok := bearerToken(c.GetHeader("Authorization")); ok {
		if id.config.JWTSecret != "" {
			return ParseToken(id.config.JWTSecret, bearer)
		}
		// без JWT секрета Bearer трактуется как API ключ
		return id.lookupKey(bearer)
	}

	apiKey := c.GetHeader(id.config.HeaderName)
	if apiKey == "" {
		apiKey = c.Query("api_key")
	}
	if apiKey != "" {
		return id.lookupKey(apiKey)
	}

	if id.config.DefaultUserID > 0 {
		return id.config.DefaultUserID, nil
	}
	return 0, ErrMissingCredentials
}

// lookupKey сравнивает ключ со всеми известными за постоянное время
func (id *Identity) lookupKey(apiKey string) (int64, error) {
	var userID int64
	for validKey, owner := range id.config.APIKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
			userID = owner
		}
	}
	if userID == 0 {
		return 0, ErrInvalidAPIKey
	}
	return userID, nil
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// IssueToken подписывает JWT для пользователя
func IssueToken(secret string, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  strconv.FormatInt(userID, 10),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок JWT и возвращает id пользователя из sub
func ParseToken(secret, raw string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext возвращает id пользователя, положенный Identity
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int64)
	return userID, ok
}
