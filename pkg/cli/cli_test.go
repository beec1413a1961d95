package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsfeed/wsfeed/pkg/config"
	"github.com/wsfeed/wsfeed/pkg/payload"
	"github.com/wsfeed/wsfeed/pkg/stream"
)

// isolate keeps the developer's own config files and WSFEED_* variables out
// of the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)
	for _, env := range []string{
		config.EnvConfig, config.EnvEnabled, config.EnvAllowedURIs, config.EnvStrictHosts,
		config.EnvTransport, config.EnvReconnectDelay, config.EnvMaxRetries, config.EnvDialTimeout,
		config.EnvMaxMessageSize, config.EnvMaxQueueDepth, config.EnvLogLevel, config.EnvLogFormat,
		config.EnvLogFile, config.EnvMetricsAddr,
	} {
		t.Setenv(env, "")
	}
}

// resetFlags restores every flag to its default once the test ends, since
// the command tree is package state.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		reset := func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		}
		rootCmd.PersistentFlags().VisitAll(reset)
		for _, c := range rootCmd.Commands() {
			c.Flags().VisitAll(reset)
		}
	})
}

func feedServer(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWatch_PrintsMessagesUntilCount(t *testing.T) {
	isolate(t)
	srv := feedServer(t, "one", "two", "three", "four")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"watch", "--allow", "127.0.0.1", "--log-level", "error",
		"--count", "3", "--interval", "10ms", srv.URL,
	})
	resetFlags(t)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	done := make(chan error, 1)
	go func() { done <- rootCmd.Execute() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not exit after --count messages")
	}
	assert.Equal(t, "one\ntwo\nthree\n", out.String())
}

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, 0, false, false)

	require.NoError(t, p.print([]string{"a", "b"}))
	require.NoError(t, p.print(nil))
	require.NoError(t, p.print([]string{"c"}))
	assert.Equal(t, "a\nb\nc\n", buf.String())
}

func TestPrinter_Limit(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, 2, false, false)

	err := p.print([]string{"a", "b", "c"})
	assert.ErrorIs(t, err, errEnough)
	assert.Equal(t, "a\nb\n", buf.String())
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, 0, true, true)

	require.NoError(t, p.print([]string{`{"type":"init","width":2,"height":1}`}))
	assert.JSONEq(t, `{"seq":1,"message":"{\"type\":\"init\",\"width\":2,\"height\":1}","kind":"init"}`, buf.String())
}

func TestPrinter_Decode(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, 0, true, false)

	line := `{"type":"line","y":0,"colors":"` + payload.EncodeColors([]payload.RGB{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}}) + `"}`
	require.NoError(t, p.print([]string{
		line,
		`{"type":"init","width":2,"height":2}`,
		`{"type":"init","width":2,"height":2}`,
		line,
		`not json`,
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "#1 line y=0 colors=2 (ignored, grid 0x0)", lines[0])
	assert.Equal(t, "#2 init 2x2", lines[1])
	assert.Equal(t, "#3 init 2x2 (unchanged)", lines[2])
	assert.Equal(t, "#4 line y=0 colors=2", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "#5 undecodable:"), lines[4])

	c, ok := p.grid.At(1, 0)
	require.True(t, ok)
	assert.Equal(t, payload.RGB{R: 4, G: 5, B: 6}, c)
}

func TestDialerWithHeader(t *testing.T) {
	cfg := config.NewDefault()

	d, err := dialerWithHeader(cfg, []string{"Authorization: Bearer abc"})
	require.NoError(t, err)
	coder, ok := d.(*stream.CoderDialer)
	require.True(t, ok)
	assert.Equal(t, "Bearer abc", coder.Header.Get("Authorization"))

	cfg.Transport = stream.TransportGorilla
	cfg.Limits.MaxMessageSize = 64
	d, err = dialerWithHeader(cfg, []string{"X-Feed: pixels"})
	require.NoError(t, err)
	gorilla, ok := d.(*stream.GorillaDialer)
	require.True(t, ok)
	assert.Equal(t, "pixels", gorilla.Header.Get("X-Feed"))
	assert.Equal(t, int64(64), gorilla.MaxMessageSize)

	_, err = dialerWithHeader(cfg, []string{"broken"})
	assert.Error(t, err)
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvTransport, "gorilla")
	t.Setenv(config.EnvAllowedURIs, "env.example.com")

	cmd := validateCmd
	resetFlags(t)
	require.NoError(t, cmd.ParseFlags([]string{"--allow", "flag.example.com"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, config.AllowList{"flag.example.com"}, cfg.AllowedURIs)
	assert.Equal(t, config.SourceFlag, cfg.Sources[config.KeyAllowedURIs])
	assert.Equal(t, "gorilla", cfg.Transport)
	assert.Equal(t, config.SourceEnv, cfg.Sources[config.KeyTransport])
}
