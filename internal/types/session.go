package types

import "encoding/json"

// Session mirrors the shape the managed auth client persists. Fields we
// never read pass through Raw untouched so re-encoding a decoded cookie
// does not drop them.
type Session struct {
	AccessToken  string          `json:"access_token"`
	TokenType    string          `json:"token_type,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	ExpiresIn    int64           `json:"expires_in,omitempty"`
	ExpiresAt    int64           `json:"expires_at,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}
