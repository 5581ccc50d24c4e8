package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyAuthType = "auth_type"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
)

const realm = `Basic realm="librarian"`

// RateLimitedError is returned while an IP+username pair is locked out.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Unwrap() error { return catalog.ErrPermission }

// Middleware authenticates requests with HTTP Basic credentials or a
// bearer token. Requests without credentials continue anonymously.
type Middleware struct {
	service *Service
	tokens  *TokenIssuer
	limiter *RateLimiter
}

func NewMiddleware(service *Service, tokens *TokenIssuer, limiter *RateLimiter) *Middleware {
	return &Middleware{
		service: service,
		tokens:  tokens,
		limiter: limiter,
	}
}

// Login checks credentials under the rate limiter.
func (m *Middleware) Login(ip, username, password string) (*entities.User, error) {
	if allowed, retryAfter := m.limiter.Allow(ip, username); !allowed {
		return nil, &RateLimitedError{RetryAfter: retryAfter}
	}

	user, err := m.service.Authenticate(username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if locked, retryAfter := m.limiter.RecordFailure(ip, username); locked {
				log.Warn().Str("ip", ip).Str("username", username).Dur("lockout", retryAfter).Msg("Credential checks locked out")
			}
		}
		return nil, err
	}

	m.limiter.RecordSuccess(ip, username)
	return user, nil
}

// Handler returns a Gin middleware that resolves the caller's account.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
			return
		}

		scheme, _, _ := strings.Cut(header, " ")
		var (
			user     *entities.User
			authType AuthType
			err      error
		)
		switch strings.ToLower(scheme) {
		case "bearer":
			user, err = m.bearer(header)
			authType = AuthTypeBearer
		case "basic":
			user, err = m.basic(c)
			authType = AuthTypeBasic
		default:
			err = ErrAuthRequired
		}

		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeyAuthType, authType)
		c.Next()
	}
}

func (m *Middleware) bearer(header string) (*entities.User, error) {
	_, token, _ := strings.Cut(header, " ")
	claims, err := m.tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	user, err := m.service.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (m *Middleware) basic(c *gin.Context) (*entities.User, error) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		return nil, ErrAuthRequired
	}
	return m.Login(c.ClientIP(), username, password)
}

// RequireAdmin rejects anonymous callers with 401 and non-administrators
// with 403. Administrative rights are read from the account on every
// request.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == 0 {
			abortUnauthorized(c, ErrAuthRequired)
			return
		}

		isAdmin, err := m.service.IsAdmin(userID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				abortUnauthorized(c, ErrAuthRequired)
				return
			}
			log.Error().Err(err).Uint("user_id", userID).Msg("Failed to load account for permission check")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "account store unavailable"})
			return
		}
		if !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrAdminRequired.Error()})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	var limited *RateLimitedError
	if errors.As(err, &limited) {
		c.Header("Retry-After", strconv.Itoa(int(limited.RetryAfter.Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": limited.Error()})
		return
	}
	if !errors.Is(err, catalog.ErrPermission) {
		log.Error().Err(err).Msg("Authentication failed")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "account store unavailable"})
		return
	}
	c.Header("WWW-Authenticate", realm)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 for anonymous requests.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
