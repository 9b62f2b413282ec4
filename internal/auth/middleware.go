package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel/internal/access"
	"hostel/internal/apperr"
)

// CallerKey is the gin context key holding the resolved access.Caller.
const CallerKey = "caller"

// TokenAuthenticator enforces bearer JWT access tokens signed with HS256.
type TokenAuthenticator struct {
	Tokens *Tokens
}

var _ access.Authenticator = TokenAuthenticator{}

func (a TokenAuthenticator) Authenticate(r *http.Request) (access.Caller, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return access.Caller{}, apperr.Unauthorized("missing bearer token")
	}
	tokenStr := strings.TrimSpace(authz[len("bearer "):])
	claims, err := a.Tokens.Parse(tokenStr, TypeAccess)
	if err != nil {
		return access.Caller{}, apperr.Unauthorized("invalid token")
	}
	return claims.Caller(), nil
}

// Middleware resolves the caller through authn and stores it on both the
// gin context and the request context.
func Middleware(authn access.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := authn.Authenticate(c.Request)
		if err != nil {
			msg := "not authorized"
			if errors.Is(err, apperr.ErrUnauthorized) {
				msg = err.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
			return
		}
		c.Set(CallerKey, caller)
		c.Request = c.Request.WithContext(access.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

// CallerFrom returns the caller stored by Middleware.
func CallerFrom(c *gin.Context) (access.Caller, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		return access.Caller{}, false
	}
	caller, ok := v.(access.Caller)
	return caller, ok
}
