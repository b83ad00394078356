// Package session translates between the managed auth client's session
// objects and the cookie shared across the dataviz.jp subdomains.
package session

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"time"

	"github.com/dataviz-jp/account-api/internal/types"
)

// DefaultLifetime applies when a session declares neither expires_at nor
// expires_in.
const DefaultLifetime = 7 * 24 * time.Hour

// envelope is the wire shape stored in the cookie. Earlier deployments
// base64-encoded it or wrote the session bare; Decode still accepts both.
type envelope struct {
	CurrentSession json.RawMessage `json:"currentSession"`
	ExpiresAt      int64           `json:"expiresAt"`
}

// Encode wraps the session as {currentSession, expiresAt} and returns the
// URL-encoded JSON used as the cookie value.
func Encode(s *types.Session) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	env := envelope{
		CurrentSession: raw,
		ExpiresAt:      expiresAt(s, time.Now()),
	}

	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(b)), nil
}

// Decode is the inverse of Encode. It tries the current scheme first and
// falls back to the two legacy ones (base64-of-JSON, raw JSON); every
// attempt is isolated, and any malformed input yields nil rather than an
// error.
func Decode(value string) *types.Session {
	if value == "" {
		return nil
	}

	var candidates []string
	if unescaped, err := url.QueryUnescape(value); err == nil {
		candidates = append(candidates, unescaped)
	}
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		candidates = append(candidates, string(decoded))
	}
	candidates = append(candidates, value)

	for _, text := range candidates {
		if s := parseSession(text); s != nil {
			return s
		}
	}
	return nil
}

// MaxAge returns the cookie lifetime in seconds, mirroring the session's
// declared lifetime with the 7-day default.
func MaxAge(s *types.Session) int {
	if s != nil && s.ExpiresIn > 0 {
		return int(s.ExpiresIn)
	}
	return int(DefaultLifetime / time.Second)
}

func expiresAt(s *types.Session, now time.Time) int64 {
	if s.ExpiresAt > 0 {
		return s.ExpiresAt
	}
	if s.ExpiresIn > 0 {
		return now.Unix() + s.ExpiresIn
	}
	return now.Add(DefaultLifetime).Unix()
}

func parseSession(text string) *types.Session {
	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err == nil && len(env.CurrentSession) > 0 {
		var s types.Session
		if err := json.Unmarshal(env.CurrentSession, &s); err == nil && s.AccessToken != "" {
			return &s
		}
		return nil
	}

	// Legacy cookies stored the session bare, without the wrapper.
	var s types.Session
	if err := json.Unmarshal([]byte(text), &s); err == nil && s.AccessToken != "" {
		return &s
	}
	return nil
}
