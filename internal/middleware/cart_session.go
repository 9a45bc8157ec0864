package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// カートセッションのCookie
	CartSessionCookie = "lifeline_session"

	CtxCartSessionKey = "cart_session" // string
)

// CartSession はCookieのセッションIDをcontextに入れる。無い・壊れていれば発行する。
func CartSession(secure bool, maxAge time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if cookie, err := c.Cookie(CartSessionCookie); err == nil {
				if parsed, err := uuid.Parse(cookie.Value); err == nil {
					id = parsed.String()
				}
			}

			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     CartSessionCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(maxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(CtxCartSessionKey, id)
			return next(c)
		}
	}
}

// handlerから使う
func CartSessionID(c echo.Context) (string, bool) {
	id, ok := c.Get(CtxCartSessionKey).(string)
	return id, ok && id != ""
}
