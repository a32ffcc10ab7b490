package harness

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Viewport is either a fixed size or a maximized window.
type Viewport struct {
	Width     int
	Height    int
	Maximized bool
}

// ParseViewport accepts "max" or "WIDTHxHEIGHT", e.g. "1920x1080".
func ParseViewport(s string) (Viewport, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "max" || s == "maximized" {
		return Viewport{Maximized: true}, nil
	}
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return Viewport{}, fmt.Errorf("invalid viewport %q: want max or WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return Viewport{}, fmt.Errorf("invalid viewport width %q", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return Viewport{}, fmt.Errorf("invalid viewport height %q", h)
	}
	return Viewport{Width: width, Height: height}, nil
}

func (v Viewport) String() string {
	if v.Maximized {
		return "max"
	}
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// SessionConfig configures browser launch and navigation.
type SessionConfig struct {
	BaseURL           string        // Page under test (required)
	Headless          bool          // Run without a window (default: true)
	Bin               string        // Chromium binary; empty lets rod find or download one
	Viewport          Viewport      // Default: 1920x1080
	ImplicitWait      time.Duration // Ceiling for element resolution (default: 5s)
	NavigationTimeout time.Duration // Ceiling for the initial navigation (default: 30s)
	Clipboard         ClipboardMode // Clipboard backend (default: page)
	UserDataDir       string        // Browser profile dir; empty lets rod pick a temp dir
	Logger            *zap.Logger   // Default: no-op
}

// releaseTimeout bounds each teardown step that talks to the browser.
const releaseTimeout = 5 * time.Second

// DefaultSessionConfig returns the settings used when nothing is configured.
func DefaultSessionConfig(baseURL string) SessionConfig {
	return SessionConfig{
		BaseURL:           baseURL,
		Headless:          true,
		Viewport:          Viewport{Width: 1920, Height: 1080},
		ImplicitWait:      5 * time.Second,
		NavigationTimeout: 30 * time.Second,
		Clipboard:         ClipboardPage,
	}
}

// Session is one browser process bound to one navigated page.
type Session struct {
	launcher     *launcher.Launcher
	browser      *rod.Browser
	page         *rod.Page
	pid          int
	baseURL      string
	implicitWait time.Duration
	clipboard    ClipboardReader
	logger       *zap.Logger

	releaseTimeout time.Duration

	releaseOnce sync.Once
	releaseErr  error
}

// Acquire launches a browser, applies the viewport, navigates to
// cfg.BaseURL and waits for the load event. Any failure releases what was
// started and returns a KindLaunch error; there is no retry.
func Acquire(ctx context.Context, cfg SessionConfig) (_ *Session, err error) {
	if cfg.BaseURL == "" {
		return nil, &Error{Kind: KindLaunch, Op: "acquire", Err: errors.New("base URL is empty")}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ImplicitWait <= 0 {
		cfg.ImplicitWait = 5 * time.Second
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.Viewport == (Viewport{}) {
		cfg.Viewport = Viewport{Width: 1920, Height: 1080}
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Leakless(true).
		Set("no-sandbox").
		Set("disable-gpu")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	if cfg.Viewport.Maximized {
		l = l.Set("start-maximized")
	} else {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", cfg.Viewport.Width, cfg.Viewport.Height))
	}

	s := &Session{
		launcher:     l,
		baseURL:      cfg.BaseURL,
		implicitWait: cfg.ImplicitWait,
		logger:       cfg.Logger.With(zap.String("base_url", cfg.BaseURL)),

		releaseTimeout: releaseTimeout,
	}
	defer func() {
		if err != nil {
			_ = s.Release()
		}
	}()

	controlURL, err := l.Launch()
	// Chrome may have started before Launch failed; Release still has to
	// reap it and remove its profile.
	s.pid = l.PID()
	if err != nil {
		return nil, launchError("failed to launch Chrome", err)
	}

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		return nil, launchError("failed to connect to Chrome", err)
	}

	s.page, err = s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, launchError("failed to open page", err)
	}
	if !cfg.Viewport.Maximized {
		err = s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.Viewport.Width,
			Height:            cfg.Viewport.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			return nil, launchError("failed to set viewport", err)
		}
	}

	s.clipboard, err = newClipboardReader(cfg.Clipboard, s)
	if err != nil {
		return nil, launchError("failed to prepare clipboard", err)
	}

	nav := s.page.Context(ctx).Timeout(cfg.NavigationTimeout)
	defer nav.CancelTimeout()
	if err := nav.Navigate(cfg.BaseURL); err != nil {
		return nil, launchError(fmt.Sprintf("failed to navigate to %s", cfg.BaseURL), err)
	}
	if err := nav.WaitLoad(); err != nil {
		return nil, launchError(fmt.Sprintf("failed to load %s", cfg.BaseURL), err)
	}

	s.logger.Debug("Session acquired.", zap.Int("pid", s.pid), zap.Stringer("viewport", cfg.Viewport))
	return s, nil
}

func launchError(msg string, err error) error {
	return &Error{Kind: KindLaunch, Op: "acquire", Err: fmt.Errorf("%s: %w", msg, err)}
}

// PID returns the browser process id, or 0 if none was started.
func (s *Session) PID() int {
	return s.pid
}

// BaseURL returns the URL the session navigated to.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Release closes the browser, kills its process and removes its profile
// directory. It is safe to call more than once; later calls return the
// first result.
func (s *Session) Release() error {
	s.releaseOnce.Do(func() {
		var err error
		if s.browser != nil {
			if cerr := s.browser.Timeout(s.releaseTimeout).Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("failed to close browser: %w", cerr))
			}
		}
		if s.pid > 0 {
			s.launcher.Kill()
			err = multierr.Append(err, s.cleanup())
			if ProcessAlive(s.pid) {
				err = multierr.Append(err, fmt.Errorf("browser process %d still alive after release", s.pid))
			}
		}
		s.releaseErr = err
		s.logger.Debug("Session released.", zap.Int("pid", s.pid), zap.Error(err))
	})
	if s.releaseErr != nil {
		return &Error{Kind: KindInternal, Op: "release", Err: s.releaseErr}
	}
	return nil
}

// cleanup waits for the browser to exit and removes its profile. Cleanup
// blocks until the process is gone, so it is bounded by releaseTimeout.
func (s *Session) cleanup() error {
	done := make(chan struct{})
	go func() {
		s.launcher.Cleanup()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(s.releaseTimeout):
		return fmt.Errorf("browser process %d did not exit within %s", s.pid, s.releaseTimeout)
	}
}

// Screenshot writes a PNG of the current viewport to path.
func (s *Session) Screenshot(path string) error {
	if s.page == nil {
		return errors.New("no page open")
	}
	img, err := s.page.Screenshot(false, nil)
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, img, 0o644)
}

func (s *Session) origin() (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host, nil
}

// ProcessAlive reports whether a process with the given pid exists.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
