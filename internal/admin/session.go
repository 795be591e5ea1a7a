package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CookieName = "admin_token"
	sessionKey = "admin_session"
	cookieAge  = 7 * 24 * 60 * 60
)

// Session is the admin state of one request. It is resolved once by
// Middleware and handed to pages explicitly.
type Session struct {
	Token string
}

func (s Session) IsAdmin() bool { return s.Token != "" }

// Middleware resolves the session from the admin cookie.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil {
			token = ""
		}
		c.Set(sessionKey, Session{Token: token})
		c.Next()
	}
}

// FromContext returns the session stored by Middleware, or an anonymous one.
func FromContext(c *gin.Context) Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(Session); ok {
			return s
		}
	}
	return Session{}
}

// RequireAdmin redirects anonymous requests to the login page.
func RequireAdmin(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !FromContext(c).IsAdmin() {
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Login stores a verified token in the admin cookie and the current session.
func Login(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, cookieAge, "/", "", secure, true)
	c.Set(sessionKey, Session{Token: token})
}

// Logout clears the admin cookie.
func Logout(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", secure, true)
	c.Set(sessionKey, Session{})
}
