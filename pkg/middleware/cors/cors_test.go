package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

func newRouter(cfg config.CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(cfg))
	r.GET("/schedules/1/export", func(c *gin.Context) {
		c.Header("Content-Disposition", `attachment; filename="term_v1.csv"`)
		c.String(http.StatusOK, "ok")
	})
	return r
}

func serve(r *gin.Engine, method, origin string, preflight bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/schedules/1/export", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowedOriginGetsCredentialsAndExposedHeaders(t *testing.T) {
	r := newRouter(config.CORSConfig{AllowedOrigins: []string{"https://sekolah.test/"}, MaxAge: 90 * time.Second})

	w := serve(r, http.MethodGet, "https://Sekolah.test", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://Sekolah.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID")
	assert.Empty(t, w.Header().Get("Access-Control-Max-Age"))

	w = serve(r, http.MethodOptions, "https://sekolah.test", true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "90", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestUnknownOriginIsNotAdmitted(t *testing.T) {
	r := newRouter(config.CORSConfig{AllowedOrigins: []string{"https://sekolah.test"}})

	w := serve(r, http.MethodGet, "https://evil.test", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodOptions, "https://evil.test", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOpenPolicyNeverSendsCredentials(t *testing.T) {
	r := newRouter(config.CORSConfig{})

	w := serve(r, http.MethodGet, "https://any.test", false)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	w = serve(r, http.MethodGet, "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}
