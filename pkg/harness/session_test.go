package harness

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseViewport(t *testing.T) {
	tests := []struct {
		in   string
		want Viewport
	}{
		{"1920x1080", Viewport{Width: 1920, Height: 1080}},
		{" 1280X720 ", Viewport{Width: 1280, Height: 720}},
		{"max", Viewport{Maximized: true}},
		{"Maximized", Viewport{Maximized: true}},
	}
	for _, tt := range tests {
		got, err := ParseViewport(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "1920x1080", Viewport{Width: 1920, Height: 1080}.String())
	assert.Equal(t, "max", Viewport{Maximized: true}.String())

	for _, bad := range []string{"", "1920", "x1080", "0x100", "-1x5", "wide"} {
		_, err := ParseViewport(bad)
		assert.Error(t, err, bad)
	}
}

func TestDefaultSessionConfig(t *testing.T) {
	cfg := DefaultSessionConfig("https://latynkatar.org/")
	assert.True(t, cfg.Headless)
	assert.Equal(t, Viewport{Width: 1920, Height: 1080}, cfg.Viewport)
	assert.Equal(t, 5*time.Second, cfg.ImplicitWait)
	assert.Equal(t, 30*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, ClipboardPage, cfg.Clipboard)
}

func TestAcquire_EmptyBaseURLIsLaunchError(t *testing.T) {
	_, err := Acquire(context.Background(), SessionConfig{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindLaunch))

	_, err = AcquireWith(SessionConfig{})(context.Background())
	assert.True(t, IsKind(err, KindLaunch))
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, ProcessAlive(os.Getpid()))
	assert.False(t, ProcessAlive(0))
	assert.False(t, ProcessAlive(-1))
}

func TestParseClipboardMode(t *testing.T) {
	m, err := ParseClipboardMode("")
	require.NoError(t, err)
	assert.Equal(t, ClipboardPage, m)

	m, err = ParseClipboardMode(" System ")
	require.NoError(t, err)
	assert.Equal(t, ClipboardSystem, m)

	_, err = ParseClipboardMode("x11")
	assert.Error(t, err)
}

func TestSessionOrigin(t *testing.T) {
	s := &Session{baseURL: "https://latynkatar.org/path?q=1"}
	origin, err := s.origin()
	require.NoError(t, err)
	assert.Equal(t, "https://latynkatar.org", origin)
}

func TestSharedClipboardGuardIsProcessWide(t *testing.T) {
	assert.Same(t, SharedClipboardGuard(), SharedClipboardGuard())
}

// hungClient is a CDP connection whose peer never answers.
type hungClient struct{}

func (hungClient) Event() <-chan *cdp.Event { return make(chan *cdp.Event) }

func (hungClient) Call(ctx context.Context, _, _ string, _ interface{}) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRelease_UnresponsiveBrowserIsBounded(t *testing.T) {
	s := &Session{
		browser:        rod.New().Client(hungClient{}),
		logger:         zaptest.NewLogger(t),
		releaseTimeout: 50 * time.Millisecond,
	}

	done := make(chan error, 1)
	go func() { done <- s.Release() }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, IsKind(err, KindInternal))
		assert.Contains(t, err.Error(), "failed to close browser")
	case <-time.After(5 * time.Second):
		t.Fatal("Release blocked on an unresponsive browser")
	}
}

func TestAcquire_LaunchFailureRemovesProfile(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("needs /bin/true")
	}
	if _, err := os.Stat("/bin/true"); err != nil {
		t.Skip("needs /bin/true")
	}

	// /bin/true starts and exits without printing a DevTools URL, so Launch
	// fails after the process exists.
	dir := filepath.Join(t.TempDir(), "profile")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := Acquire(ctx, SessionConfig{
		BaseURL:     "http://127.0.0.1:1/",
		Headless:    true,
		Bin:         "/bin/true",
		UserDataDir: dir,
		Logger:      zaptest.NewLogger(t),
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindLaunch))
	assert.NoDirExists(t, dir)
}
