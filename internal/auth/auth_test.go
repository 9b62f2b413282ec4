package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hostel/internal/access"
	"hostel/internal/apperr"
	"hostel/internal/model"
)

var student = model.User{
	ID:             "u-1",
	Name:           "Aarav Sharma",
	Email:          "aarav@example.com",
	Role:           model.RoleStudent,
	StudentProfile: "s-1",
}

func newTokens() *Tokens {
	return NewTokens("hostel-test", "secret", time.Hour, 24*time.Hour)
}

func TestIssueAndParse(t *testing.T) {
	tk := newTokens()
	pair, err := tk.Issue(student)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := tk.Parse(pair.AccessToken, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, access.Caller{
		UserID:         "u-1",
		Name:           "Aarav Sharma",
		Email:          "aarav@example.com",
		Role:           model.RoleStudent,
		StudentProfile: "s-1",
	}, claims.Caller())

	refresh, err := tk.Parse(pair.RefreshToken, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "u-1", refresh.Subject)
	assert.Empty(t, refresh.StudentProfile)
}

func TestParseRejects(t *testing.T) {
	tk := newTokens()
	pair, err := tk.Issue(student)
	require.NoError(t, err)

	_, err = tk.Parse(pair.RefreshToken, TypeAccess)
	assert.Error(t, err, "refresh token used as access token")

	other := NewTokens("hostel-test", "other-secret", time.Hour, time.Hour)
	_, err = other.Parse(pair.AccessToken, TypeAccess)
	assert.Error(t, err, "wrong key")

	otherIssuer := NewTokens("someone-else", "secret", time.Hour, time.Hour)
	_, err = otherIssuer.Parse(pair.AccessToken, TypeAccess)
	assert.Error(t, err, "wrong issuer")

	tk.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tk.Parse(pair.AccessToken, TypeAccess)
	assert.Error(t, err, "expired")
}

func TestPasswords(t *testing.T) {
	hash, err := hashWithCost("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tk := newTokens()
	pair, err := tk.Issue(student)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Middleware(TokenAuthenticator{Tokens: tk}), func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		require.True(t, ok)
		fromCtx, ok := access.FromContext(c.Request.Context())
		require.True(t, ok)
		assert.Equal(t, caller, fromCtx)
		c.JSON(http.StatusOK, gin.H{"id": caller.UserID})
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call("Bearer " + pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u-1"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+pair.RefreshToken).Code)
}

func TestTokenAuthenticatorErrorKind(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := TokenAuthenticator{Tokens: newTokens()}.Authenticate(req)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
