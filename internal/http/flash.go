package httpx

import (
	"encoding/base64"
	"net/http"
)

const (
	flashCookieName = "flash"
	flashCookiePath = "/admin"
)

// setFlash stores a one-shot message read by the next admin page load.
func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(msg)),
		Path:     flashCookiePath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash messages and clears the cookie.
func popFlash(w http.ResponseWriter, r *http.Request) []string {
	messages := []string{}
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return messages
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     flashCookiePath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	if msg, err := base64.RawURLEncoding.DecodeString(c.Value); err == nil && len(msg) > 0 {
		messages = append(messages, string(msg))
	}
	return messages
}
