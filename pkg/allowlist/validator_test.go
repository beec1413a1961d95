package allowlist

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Scenario(t *testing.T) {
	v, err := NewFromString("example.com,wss://api.example.org:9443/live")
	require.NoError(t, err)

	tests := []struct {
		name    string
		url     string
		allowed bool
	}{
		{"host-only is case-insensitive", "http://EXAMPLE.com/any/path", true},
		{"prefix match", "wss://api.example.org:9443/live/sub", true},
		{"exact path", "wss://api.example.org:9443/live", true},
		{"port mismatch", "wss://api.example.org:9999/live", false},
		{"no substring host match", "http://evilexample.com", false},
		{"subdomain is a different host", "http://sub.example.com/", false},
		{"path prefix needs a boundary", "wss://api.example.org:9443/livestream", false},
		{"scheme mismatch", "ws://api.example.org:9443/live", false},
		{"empty", "", false},
		{"blank", "  \t", false},
		{"malformed", "http://example.com/%zz", false},
		{"root escape", "http://example.com/a/../../b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, v.IsAllowed(tt.url))
		})
	}
}

func TestValidator_HostOnlyIgnoresSchemePortPath(t *testing.T) {
	v, err := New([]string{"Feed.Example.com"})
	require.NoError(t, err)

	for _, u := range []string{
		"ws://feed.example.com",
		"wss://feed.example.com:8443/deep/path?x=1",
		"http://FEED.example.com:1/",
		"ftp://feed.example.com/anything",
	} {
		assert.True(t, v.IsAllowed(u), u)
	}
	assert.False(t, v.IsAllowed("ws://feed.example.com.evil.net/"))
}

func TestValidator_DefaultPortEquivalence(t *testing.T) {
	explicit, err := New([]string{"wss://host:443/p"})
	require.NoError(t, err)
	implicit, err := New([]string{"wss://host/p"})
	require.NoError(t, err)

	assert.True(t, explicit.IsAllowed("wss://host/p"))
	assert.True(t, implicit.IsAllowed("wss://host:443/p"))
	assert.False(t, implicit.IsAllowed("wss://host:8443/p"))
}

func TestValidator_PortlessEntryUsesEffectivePort(t *testing.T) {
	v, err := New([]string{"wss://host/live"})
	require.NoError(t, err)

	// An entry without a port accepts any port for its scheme and host.
	assert.True(t, v.IsAllowed("wss://host:9443/live"))
}

func TestValidator_EncodedTraversal(t *testing.T) {
	v, err := New([]string{"http://host/etc"})
	require.NoError(t, err)

	assert.True(t, v.IsAllowed("http://host/a/b/%2e%2e/%2e%2e/etc"))
	assert.False(t, v.IsAllowed("http://host/a/%2e%2e/%2e%2e/etc"))
	assert.False(t, v.IsAllowed("http://host/%252e%252e/etc"))
}

func TestValidator_EncodedPercentIsNotDoubleEncoding(t *testing.T) {
	v, err := New([]string{"example.com", "http://[fe80::1%25eth0]/"})
	require.NoError(t, err)

	assert.True(t, v.IsAllowed("http://example.com/search?q=100%25"))
	assert.True(t, v.IsAllowed("http://[FE80::1%25eth0]/feed"))
	assert.False(t, v.IsAllowed("http://example.com:0/"))
	assert.False(t, v.IsAllowed("http://example.com/%252e%252e/etc"))
}

func TestValidator_PathIsCaseInsensitive(t *testing.T) {
	v, err := New([]string{"https://host/Live"})
	require.NoError(t, err)

	assert.True(t, v.IsAllowed("https://host/live/x"))
	assert.True(t, v.IsAllowed("https://host/LIVE"))
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		target  error
	}{
		{"nil", nil, ErrEmptyAllowList},
		{"all blank", []string{"", "  ", "\t"}, ErrEmptyAllowList},
		{"bad full entry", []string{"example.com", "wss://host/a/../../b"}, ErrInvalidEntry},
		{"bad port", []string{"wss://host:99999/"}, ErrInvalidEntry},
		{"port zero", []string{"wss://host:0/live"}, ErrInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(tt.entries)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, tt.target)

			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestNewFromString_DiscardsBlankEntries(t *testing.T) {
	v, err := NewFromString(" , example.com ,, wss://Host:443/Live/ ,")
	require.NoError(t, err)

	entries := v.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{HostOnly: true, Host: "example.com"}, entries[0])
	assert.Equal(t, Entry{Scheme: "wss", Host: "host", PathPrefix: "/Live"}, entries[1])
	assert.Equal(t, "wss://host/Live", entries[1].String())
}

func TestNewFromString_Empty(t *testing.T) {
	_, err := NewFromString("")
	assert.ErrorIs(t, err, ErrEmptyAllowList)
}

func TestValidator_EntriesIsACopy(t *testing.T) {
	v, err := New([]string{"example.com"})
	require.NoError(t, err)

	entries := v.Entries()
	entries[0].Host = "evil.com"

	assert.True(t, v.IsAllowed("http://example.com/"))
	assert.False(t, v.IsAllowed("http://evil.com/"))
}

func TestValidator_PermissiveHostOnlyWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	v, err := New([]string{"localhost:8080"}, WithLogger(logger))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "can never match")
	assert.False(t, v.IsAllowed("http://localhost:8080/"))
}

func TestValidator_StrictHosts(t *testing.T) {
	_, err := New([]string{"exa mple.com"}, WithStrictHosts())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHost)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "exa mple.com", cfgErr.Entry)

	v, err := New([]string{"Example.com", "wss://host/live"}, WithStrictHosts())
	require.NoError(t, err)
	assert.True(t, v.IsAllowed("https://example.com/"))
}

func TestValidator_Check(t *testing.T) {
	v, err := NewFromString("example.com,wss://api.example.org:9443/live")
	require.NoError(t, err)

	d := v.Check("WSS://API.example.org:9443/live/sub#x")
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
	require.NotNil(t, d.URI)
	assert.Equal(t, "wss://api.example.org:9443/live/sub", d.URI.String())
	assert.Equal(t, "/live", d.Entry.PathPrefix)

	d = v.Check("http://evilexample.com")
	assert.False(t, d.Allowed)
	require.NotNil(t, d.URI)
	assert.Contains(t, d.Reason, "no allow-list entry matches")

	d = v.Check("http://example.com/a/../../b")
	assert.False(t, d.Allowed)
	assert.Nil(t, d.URI)
	assert.Equal(t, "path escapes the root", d.Reason)

	d = v.Check("")
	assert.False(t, d.Allowed)
	assert.Equal(t, "empty url", d.Reason)
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Entry: "wss://x", Err: ErrInvalidEntry}
	assert.Equal(t, `allow list entry "wss://x": invalid allow-list entry`, err.Error())

	err = &ConfigError{Err: ErrEmptyAllowList}
	assert.Equal(t, "allow list: allow list cannot be empty", err.Error())
}
