package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's ID stored by JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ContextUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated user's role, or "" for guests.
func Role(c echo.Context) string {
	r, _ := c.Get(ContextRole).(string)
	return r
}

// RequestID returns the id assigned by RequestLogger.
func RequestID(c echo.Context) string {
	id, _ := c.Get(ContextRequestID).(string)
	return id
}

// identityKey names the caller for rate limiting: the user ID when
// signed in, otherwise "anon".
func identityKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
