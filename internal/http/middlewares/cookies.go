package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fadebook/fadebook/internal/config"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Cookie attributes derive from the environment flag: Secure+Strict in
// prod, Lax otherwise so the local client (different port) still works.
func cookieSameSite(cfg config.Config) http.SameSite {
	if cfg.IsProd() {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

func SetAccessCookie(c *gin.Context, cfg config.Config, token string, ttl time.Duration) {
	c.SetSameSite(cookieSameSite(cfg))

	c.SetCookie(
		AccessTokenCookie,
		token,
		int(ttl.Seconds()),
		"/",
		"",
		cfg.IsProd(),
		true, // HttpOnly
	)
}

func SetRefreshCookie(c *gin.Context, cfg config.Config, token string, ttl time.Duration) {
	c.SetSameSite(cookieSameSite(cfg))

	c.SetCookie(
		RefreshTokenCookie,
		token,
		int(ttl.Seconds()),
		"/",
		"",
		cfg.IsProd(),
		true,
	)
}

func ClearAuthCookies(c *gin.Context, cfg config.Config) {
	c.SetSameSite(cookieSameSite(cfg))

	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c.SetCookie(name, "", -1, "/", "", cfg.IsProd(), true)
	}
}
