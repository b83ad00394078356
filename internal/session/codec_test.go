package session

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := &types.Session{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    time.Now().Unix() + 3600,
	}

	value, err := Encode(s)
	require.NoError(t, err)

	decoded := Decode(value)
	require.NotNil(t, decoded)
	assert.Equal(t, s.AccessToken, decoded.AccessToken)
	assert.Equal(t, s.RefreshToken, decoded.RefreshToken)
	assert.Equal(t, s.ExpiresAt, decoded.ExpiresAt)
}

func TestEncodeIsURLEncodedJSON(t *testing.T) {
	value, err := Encode(&types.Session{AccessToken: "tok"})
	require.NoError(t, err)

	unescaped, err := url.QueryUnescape(value)
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(unescaped), &env))
	assert.Contains(t, env, "currentSession")
	assert.Contains(t, env, "expiresAt")
}

func TestEncodeDefaultExpiry(t *testing.T) {
	before := time.Now().Add(DefaultLifetime).Unix()
	value, err := Encode(&types.Session{AccessToken: "tok"})
	require.NoError(t, err)
	after := time.Now().Add(DefaultLifetime).Unix()

	unescaped, err := url.QueryUnescape(value)
	require.NoError(t, err)

	var env struct {
		ExpiresAt int64 `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(unescaped), &env))
	assert.GreaterOrEqual(t, env.ExpiresAt, before)
	assert.LessOrEqual(t, env.ExpiresAt, after)
}

func TestEncodeExpiryPriority(t *testing.T) {
	// expires_at wins over expires_in when both are declared.
	value, err := Encode(&types.Session{AccessToken: "tok", ExpiresAt: 1234567890, ExpiresIn: 60})
	require.NoError(t, err)

	unescaped, _ := url.QueryUnescape(value)
	var env struct {
		ExpiresAt int64 `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(unescaped), &env))
	assert.Equal(t, int64(1234567890), env.ExpiresAt)
}

func TestDecodeLegacyBase64(t *testing.T) {
	wrapper := `{"currentSession":{"access_token":"legacy-tok","expires_at":1893456000},"expiresAt":1893456000}`
	value := base64.StdEncoding.EncodeToString([]byte(wrapper))

	decoded := Decode(value)
	require.NotNil(t, decoded)
	assert.Equal(t, "legacy-tok", decoded.AccessToken)
	assert.Equal(t, int64(1893456000), decoded.ExpiresAt)
}

func TestDecodeLegacyRawJSON(t *testing.T) {
	// Oldest scheme: the bare session without the wrapper.
	raw := `{"access_token":"bare-tok","refresh_token":"r"}`

	decoded := Decode(raw)
	require.NotNil(t, decoded)
	assert.Equal(t, "bare-tok", decoded.AccessToken)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":                "",
		"not json":             "hello world",
		"truncated json":       `{"currentSession":{"access_to`,
		"truncated urlencoded": url.QueryEscape(`{"currentSession":`)[:10],
		"wrong base":           base64.URLEncoding.EncodeToString([]byte("@@@@")),
		"number":               "42",
		"json array":           `["a","b"]`,
		"wrapper no token":     `{"currentSession":{"user":{}},"expiresAt":123}`,
		"string session":       `{"currentSession":"pkce-verifier","expiresAt":123}`,
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, Decode(value))
		})
	}
}

func TestDecodeNeverPanics(t *testing.T) {
	inputs := []string{
		strings.Repeat("%", 100),
		"%zz",
		base64.StdEncoding.EncodeToString([]byte("not json at all")),
		"{}",
	}
	for _, in := range inputs {
		assert.Nil(t, Decode(in))
	}
}

func TestMaxAge(t *testing.T) {
	assert.Equal(t, 3600, MaxAge(&types.Session{AccessToken: "t", ExpiresIn: 3600}))
	assert.Equal(t, int(DefaultLifetime/time.Second), MaxAge(&types.Session{AccessToken: "t"}))
	assert.Equal(t, int(DefaultLifetime/time.Second), MaxAge(nil))
}
