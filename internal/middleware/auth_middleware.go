package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/config"
)

// ErrorResponse mirrors the one in internal/api to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Context keys set by VerifyToken for downstream handlers.
const (
	CtxUserID      = "userID"
	CtxUserEmail   = "userEmail"
	CtxDisplayName = "userDisplayName"
	CtxPhotoURL    = "userPhotoURL"
	CtxIsAdmin     = "isAdmin"
)

// AuthMiddleware verifies Firebase ID tokens and enforces the admin gate.
type AuthMiddleware struct {
	firebaseAuthClient *auth.Client
	adminEmails        map[string]struct{}
	logger             *zap.Logger
}

// NewAuthMiddleware creates an AuthMiddleware. The auth client is a hard
// dependency; a nil client is a setup bug, so this panics.
func NewAuthMiddleware(fbAuthClient *auth.Client, cfg *config.Config, logger *zap.Logger) *AuthMiddleware {
	if fbAuthClient == nil {
		panic("Firebase Auth client is not initialized for AuthMiddleware")
	}
	admins := make(map[string]struct{})
	for _, email := range cfg.AdminEmailList() {
		admins[email] = struct{}{}
	}
	return &AuthMiddleware{firebaseAuthClient: fbAuthClient, adminEmails: admins, logger: logger}
}

// VerifyToken authenticates the request via the Authorization: Bearer header
// and places the caller's UID and profile claims in the Gin context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		token, err := m.firebaseAuthClient.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			m.logger.Warn("failed to verify ID token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set(CtxUserID, token.UID)
		email := ""
		if v, ok := token.Claims["email"].(string); ok {
			email = v
			c.Set(CtxUserEmail, v)
		}
		if v, ok := token.Claims["name"].(string); ok {
			c.Set(CtxDisplayName, v)
		}
		if v, ok := token.Claims["picture"].(string); ok {
			c.Set(CtxPhotoURL, v)
		}
		c.Set(CtxIsAdmin, m.isAdmin(token, email))

		c.Next()
	}
}

// RequireAdmin aborts with 403 unless VerifyToken marked the caller as an
// admin. It must run after VerifyToken.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
			return
		}
		c.Next()
	}
}

// isAdmin accepts either the `admin` custom claim or membership in the
// ADMIN_EMAILS bootstrap list.
func (m *AuthMiddleware) isAdmin(token *auth.Token, email string) bool {
	if v, ok := token.Claims["admin"].(bool); ok && v {
		return true
	}
	if email == "" {
		return false
	}
	_, ok := m.adminEmails[strings.ToLower(email)]
	return ok
}
