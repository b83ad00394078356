package session

import (
	"net/http"

	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/dataviz-jp/account-api/internal/utils"
	"go.uber.org/zap"
)

// CookieConfig names the shared cookie and the parent domain it is scoped
// to. HttpOnly stays false: the browser auth client reads the cookie.
type CookieConfig struct {
	Name   string
	Domain string
}

// Write sets the session cookie twice: domain-scoped so sibling
// subdomains can read it, and host-scoped for browsers that reject the
// domain-scoped form.
func Write(w http.ResponseWriter, cfg CookieConfig, s *types.Session) {
	value, err := Encode(s)
	if err != nil {
		utils.Zlog.Warn("Failed to encode session cookie", zap.Error(err))
		return
	}

	maxAge := MaxAge(s)
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}

// Remove expires the cookie on every scope Write uses.
func Remove(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest decodes the shared cookie off an inbound request; absence
// and malformed content both read as "no session".
func FromRequest(r *http.Request, name string) *types.Session {
	cookie, err := r.Cookie(name)
	if err != nil {
		return nil
	}
	return Decode(cookie.Value)
}
