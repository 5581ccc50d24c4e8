package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenController exchanges account credentials for bearer tokens.
type TokenController struct {
	credentials CredentialChecker
	issuer      *auth.TokenIssuer
	audit       AuditRecorder
}

func NewTokenController(credentials CredentialChecker, issuer *auth.TokenIssuer, recorder AuditRecorder) *TokenController {
	return &TokenController{
		credentials: credentials,
		issuer:      issuer,
		audit:       recorder,
	}
}

// IssueToken handles POST /api/auth/token
func (tc *TokenController) IssueToken(c *gin.Context) {
	var req TokenRequest
	if !bindRequest(c, &req) {
		return
	}

	user, err := tc.credentials.Login(c.ClientIP(), req.Username, req.Password)
	if err != nil {
		tc.logAuth(c, 0, "token_failed", false)

		var limited *auth.RateLimitedError
		switch {
		case errors.As(err, &limited):
			c.Header("Retry-After", strconv.Itoa(int(limited.RetryAfter.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "too many failed login attempts, try again later",
				Code:  catalog.KindPermission.String(),
			})
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error: "invalid username or password",
				Code:  catalog.KindPermission.String(),
			})
		default:
			respondStoreError(c, err, "")
		}
		return
	}

	token, expiresAt, err := tc.issuer.Issue(user)
	if err != nil {
		respondInternalError(c, err, "issue token")
		return
	}

	tc.logAuth(c, user.ID, "token_issued", true)
	log.Info().Str("username", user.Username).Time("expires_at", expiresAt).Msg("Bearer token issued")

	c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	})
}

func (tc *TokenController) logAuth(c *gin.Context, userID uint, action string, success bool) {
	if tc.audit == nil {
		return
	}
	tc.audit.LogAuth(userID, action, c.ClientIP(), requestID(c), success)
}

// WhoAmI handles GET /api/auth/me
func (tc *TokenController) WhoAmI(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user_id":       userID,
		"username":      auth.GetUsername(c),
		"auth_type":     auth.GetAuthType(c),
		"admin_account": userID == entities.AdminAccountID,
	})
}
