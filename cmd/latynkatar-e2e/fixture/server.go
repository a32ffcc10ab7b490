// Package fixture serves a local stand-in for the Łatynkatar converter page.
// It exposes the same controls, hotkeys and clipboard button as the real
// page and converts asynchronously through /convert, so the harness can be
// exercised without network access to the deployment.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thesyncim/latynkatar-e2e/pkg/latynkatar"
)

// Config holds server configuration options.
type Config struct {
	Addr         string        // Listen address (e.g., ":8080" or ":0" for random port)
	ReadTimeout  time.Duration // HTTP read timeout
	WriteTimeout time.Duration // HTTP write timeout
	ConvertDelay time.Duration // Artificial latency of /convert
	ConvertTitle string        // title attribute of the convert button
	ClearTitle   string        // title attribute of the clear button
	Logger       *zap.Logger
}

// DefaultConfig binds a random port and uses the real page's button titles.
func DefaultConfig() Config {
	return Config{
		Addr:         ":0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ConvertDelay: 150 * time.Millisecond,
		ConvertTitle: latynkatar.DefaultConvertTitle,
		ClearTitle:   latynkatar.DefaultClearTitle,
	}
}

// Server serves the stand-in page and its /convert endpoint.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	addr       string
	mu         sync.Mutex
	running    bool
}

// NewServer renders the page and prepares the routes. Nothing listens until
// Start.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ConvertDelay < 0 {
		return nil, errors.New("convert delay must not be negative")
	}
	page, err := renderPage(cfg.ConvertTitle, cfg.ClearTitle)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
	mux.Handle("/convert", NewConvertHandler(cfg.ConvertDelay, cfg.Logger))

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: cfg.Logger,
	}, nil
}

// Start listens on the configured address and serves in the background.
// It returns the bound address, which differs from Config.Addr when the
// port is 0. Starting a running server returns its address again.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.addr = ln.Addr().String()
	s.running = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Fixture server stopped.", zap.Error(err))
		}
	}()

	s.logger.Info("Fixture server listening.", zap.String("addr", s.addr))
	return s.addr, nil
}

// URL returns the page URL, or "" if the server is not running.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ""
	}
	_, port, err := net.SplitHostPort(s.addr)
	if err != nil {
		return "http://" + s.addr + "/"
	}
	return "http://127.0.0.1:" + port + "/"
}

// Shutdown stops accepting connections and waits for in-flight requests,
// including delayed conversions, until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
