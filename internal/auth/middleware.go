package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/karlseguin/ccache/v2"
	"go.uber.org/zap"

	lf "github.com/bigredeye/deposit/internal/logfield"
	"github.com/bigredeye/deposit/internal/models"
)

const userIDKey = "auth_user_id"

// Users resolves users for the admin gate. FindUser returns (nil, nil) for
// unknown users.
type Users interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
}

type Authenticator struct {
	key    []byte
	users  Users
	roles  *ccache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewAuthenticator(key []byte, users Users, roleTTL time.Duration, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		key:    key,
		users:  users,
		roles:  ccache.New(ccache.Configure().MaxSize(10000)),
		ttl:    roleTTL,
		logger: logger.With(lf.Module("auth")),
	}
}

func abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}

// Authenticate validates the bearer token and stores the caller id.
func (a *Authenticator) Authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		a.logger.Info("Missing bearer token", zap.String("path", c.FullPath()))
		abort(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := ParseToken(a.key, strings.TrimSpace(token))
	if err != nil {
		a.logger.Info("Rejected token", zap.Error(err))
		abort(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

// RequireAdmin must run after Authenticate.
func (a *Authenticator) RequireAdmin(c *gin.Context) {
	userID, ok := UserID(c)
	if !ok {
		abort(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	role, err := a.role(c.Request.Context(), userID)
	if err != nil {
		a.logger.Error("Failed to load user role", lf.CallerID(userID), zap.Error(err))
		abort(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if role != models.RoleAdmin {
		a.logger.Info("Forbidden admin action", lf.CallerID(userID), lf.Role(role))
		abort(c, http.StatusForbidden, "Admin role required")
		return
	}

	c.Next()
}

func (a *Authenticator) role(ctx context.Context, userID string) (string, error) {
	item, err := a.roles.Fetch(userID, a.ttl, func() (interface{}, error) {
		user, err := a.users.FindUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return "", nil
		}
		return user.Role, nil
	})
	if err != nil {
		return "", err
	}
	return item.Value().(string), nil
}

// Forget drops the cached role of the user.
func (a *Authenticator) Forget(userID string) {
	a.roles.Delete(userID)
}

func (a *Authenticator) Stop() {
	a.roles.Stop()
}

func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}
