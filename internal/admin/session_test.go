package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter() *gin.Engine {
	r := gin.New()
	r.Use(Middleware())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, FromContext(c).Token)
	})
	r.GET("/admin", RequireAdmin("/admin/login"), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.POST("/login", func(c *gin.Context) {
		Login(c, "secret", false)
		c.String(http.StatusOK, FromContext(c).Token)
	})
	r.POST("/logout", func(c *gin.Context) {
		Logout(c, false)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestSessionFromCookie(t *testing.T) {
	r := sessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "tok", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Empty(t, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := sessionRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginLogoutCookies(t *testing.T) {
	r := sessionRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, "secret", w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "secret", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, FromContext(c).IsAdmin())
}
