package harness

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/go-rod/rod/lib/proto"
)

// ClipboardMode selects where ReadClipboard looks.
type ClipboardMode string

const (
	// ClipboardPage reads navigator.clipboard inside the page. It works in
	// headless runs where no OS clipboard exists.
	ClipboardPage ClipboardMode = "page"
	// ClipboardSystem reads the OS clipboard (xclip/xsel, pbpaste, Win32).
	ClipboardSystem ClipboardMode = "system"
)

// ParseClipboardMode validates a configured mode. Empty means ClipboardPage.
func ParseClipboardMode(s string) (ClipboardMode, error) {
	switch m := ClipboardMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ClipboardPage, nil
	case ClipboardPage, ClipboardSystem:
		return m, nil
	default:
		return "", fmt.Errorf("unknown clipboard mode %q", s)
	}
}

// ClipboardReader returns the current clipboard text.
type ClipboardReader interface {
	ReadClipboard(ctx context.Context) (string, error)
}

// SystemClipboard reads the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadClipboard(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if clipboard.Unsupported {
		return "", fmt.Errorf("no clipboard utility available on this system")
	}
	return clipboard.ReadAll()
}

// pageClipboard reads navigator.clipboard in the session's page.
type pageClipboard struct {
	s *Session
}

func (c pageClipboard) ReadClipboard(ctx context.Context) (string, error) {
	page := c.s.page.Context(ctx)
	if _, err := page.Activate(); err != nil {
		return "", fmt.Errorf("failed to focus page: %w", err)
	}
	res, err := page.Eval(`() => navigator.clipboard.readText()`)
	if err != nil {
		return "", fmt.Errorf("failed to read navigator.clipboard: %w", err)
	}
	return res.Value.Str(), nil
}

func newClipboardReader(mode ClipboardMode, s *Session) (ClipboardReader, error) {
	switch mode {
	case ClipboardSystem:
		return SystemClipboard{}, nil
	case ClipboardPage, "":
		origin, err := s.origin()
		if err != nil {
			return nil, err
		}
		err = proto.BrowserGrantPermissions{
			Permissions: []proto.BrowserPermissionType{
				proto.BrowserPermissionTypeClipboardReadWrite,
				proto.BrowserPermissionTypeClipboardSanitizedWrite,
			},
			Origin: origin,
		}.Call(s.browser)
		if err != nil {
			return nil, fmt.Errorf("failed to grant clipboard permissions: %w", err)
		}
		return pageClipboard{s: s}, nil
	default:
		return nil, fmt.Errorf("unknown clipboard mode %q", mode)
	}
}

// The OS clipboard is one global resource; scenarios that copy or read it
// must not overlap.
var sharedClipboardGuard sync.Mutex

// SharedClipboardGuard returns the process-wide clipboard lock.
func SharedClipboardGuard() sync.Locker {
	return &sharedClipboardGuard
}
