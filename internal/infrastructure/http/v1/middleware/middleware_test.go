package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/core/apperror"
	appctx "farmops/internal/core/context"
	"farmops/internal/infrastructure/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticValidator struct {
	user *appctx.UserContext
}

func (v staticValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "good" {
		return nil, apperror.NewUnauthorized("bad token")
	}
	return v.user, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.GET("/x", handlers...)
	return r
}

func serve(r http.Handler, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTrace_EchoesRequestID(t *testing.T) {
	var seen string
	r := newEngine(func(c *gin.Context) {
		seen = appctx.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, HeaderRequestID, "req-42")
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-42", seen)
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
}

func TestAuth_SchemeAndRoles(t *testing.T) {
	v := staticValidator{user: &appctx.UserContext{UserID: "u", Roles: []string{"operator"}}}
	r := newEngine(Auth(v), RequireRole(appctx.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Authorization", "Basic good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Authorization", "Bearer bad").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "Authorization", "bearer good").Code)

	v.user.Roles = append(v.user.Roles, appctx.RoleAdmin)
	assert.Equal(t, http.StatusOK, serve(r, "Authorization", "Bearer good").Code)
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})

	w := serve(r)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	assert.Contains(t, w.Body.String(), apperror.CodeInternal)
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		panic("boom")
	})

	w := serve(r)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func postWithKey(r http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"quantity":3}`))
	req.Header.Set(HeaderIdempotencyKey, key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_RetryableFailuresReleaseTheKey(t *testing.T) {
	attempts := 0
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler(), Idempotency(memory.NewIdempotencyStore(0)))
	r.POST("/x", func(c *gin.Context) {
		attempts++
		switch attempts {
		case 1:
			_ = c.Error(apperror.NewConcurrencyConflict("product", "p1"))
		case 2:
			_ = c.Error(assert.AnError)
		case 3:
			panic("boom")
		default:
			_ = c.Error(apperror.NewValidation("quantity too large"))
		}
	})

	w := postWithKey(r, "k1")
	require.Equal(t, http.StatusConflict, w.Code)

	w = postWithKey(r, "k1")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))

	w = postWithKey(r, "k1")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))

	w = postWithKey(r, "k1")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 4, attempts)

	// A deterministic rejection is replayed without running the handler.
	w = postWithKey(r, "k1")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	assert.Contains(t, w.Body.String(), apperror.CodeValidation)
	assert.Equal(t, 4, attempts)
}
