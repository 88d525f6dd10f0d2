package mindmap2pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/alnah/go-mindmap2pdf/internal/process"
)

// tab abstracts one browser page to allow testing the pipeline without Chrome.
type tab interface {
	Navigate(ctx context.Context, url string, idle time.Duration) error
	Evaluate(ctx context.Context, script string, out any, args ...any) error
	AddStyle(ctx context.Context, css string) error
	SetViewport(ctx context.Context, width, height int, scale float64) error
	PrintPDF(ctx context.Context, req *proto.PagePrintToPDF) (io.Reader, error)
	Screenshot(ctx context.Context, req *proto.PageCaptureScreenshot) ([]byte, error)
	Close() error
}

// browser abstracts one Chrome process or remote connection.
type browser interface {
	OpenTab(ctx context.Context) (tab, error)
	Close() error
}

// Compile-time interface checks
var (
	_ tab     = (*rodTab)(nil)
	_ browser = (*rodBrowser)(nil)
)

// BrowserConfig configures how Chrome is launched or reached.
type BrowserConfig struct {
	Bin       string   // Chrome binary, empty = ROD_BROWSER_BIN or rod's managed download
	NoSandbox bool     // required in most containers
	RemoteURL string   // DevTools WebSocket URL of an existing Chrome; skips launching
	Stealth   bool     // open tabs through go-rod/stealth
	Flags     []string // extra switches, "name" or "name=value"
}

// containerFlags keep Chrome alive in small containers (shared memory, no GPU).
var containerFlags = []flags.Flag{"disable-dev-shm-usage", "disable-gpu"}

// rodBrowser implements browser using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodBrowser struct {
	browser  *rod.Browser
	conn     io.Closer          // DevTools websocket
	launcher *launcher.Launcher // nil for remote connections
	stealth  bool
}

// launchBrowser starts (or connects to) Chrome. Errors wrap ErrSessionLaunch.
func launchBrowser(ctx context.Context, cfg BrowserConfig) (*rodBrowser, error) {
	controlURL := cfg.RemoteURL

	var l *launcher.Launcher
	if controlURL == "" {
		l = newLauncher(cfg)
		u, err := l.Context(ctx).Launch()
		if err != nil {
			terminate(l)
			return nil, fmt.Errorf("%w: %v", ErrSessionLaunch, err)
		}
		controlURL = u
	}

	// The websocket is dialed here so Close can drop it; rod offers no way
	// to disconnect without also closing the browser.
	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, controlURL, nil); err != nil {
		terminate(l)
		return nil, fmt.Errorf("%w: %v", ErrSessionLaunch, err)
	}

	b := rod.New().Client(cdp.New().Start(ws))
	if err := b.Connect(); err != nil {
		_ = ws.Close()
		terminate(l)
		return nil, fmt.Errorf("%w: %v", ErrSessionLaunch, err)
	}

	return &rodBrowser{browser: b, conn: ws, launcher: l, stealth: cfg.Stealth}, nil
}

// newLauncher configures a headless Chrome launcher from cfg and the environment.
func newLauncher(cfg BrowserConfig) *launcher.Launcher {
	l := launcher.New().Headless(true)

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := cfg.Bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if cfg.NoSandbox || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}

	for _, f := range containerFlags {
		l = l.Set(f)
	}
	for _, raw := range cfg.Flags {
		name, value, hasValue := strings.Cut(strings.TrimLeft(raw, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

// terminate kills a launched Chrome and its children, then removes its profile.
// A launcher whose process never started is left alone.
func terminate(l *launcher.Launcher) {
	if l == nil {
		return
	}
	pid := l.PID()
	if pid <= 0 {
		return
	}
	process.KillProcessGroup(pid)
	l.Kill()
	l.Cleanup()
}

// OpenTab creates a blank page. The page outlives ctx; only creation is bounded by it.
func (b *rodBrowser) OpenTab(ctx context.Context) (tab, error) {
	var (
		page *rod.Page
		err  error
	)
	if b.stealth {
		page, err = stealth.Page(b.browser.Context(ctx))
	} else {
		page, err = b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: creating page: %v", ErrSessionLaunch, err)
	}
	return &rodTab{page: page.Context(context.Background())}, nil
}

// Close shuts Chrome down. Remote browsers are only disconnected from, never
// closed; dropping the websocket also stops rod's event goroutines.
func (b *rodBrowser) Close() error {
	if b.launcher == nil {
		return b.disconnect()
	}
	err := b.browser.Close()
	terminate(b.launcher)
	_ = b.disconnect()
	return err
}

func (b *rodBrowser) disconnect() error {
	if b.conn == nil {
		return nil
	}
	if err := b.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// rodTab implements tab on a rod.Page.
type rodTab struct {
	page *rod.Page
}

// Navigate loads url and returns once the load event fired and no request
// has been in flight for the idle window.
func (t *rodTab) Navigate(ctx context.Context, url string, idle time.Duration) error {
	p := t.page.Context(ctx)
	waitIdle := p.WaitRequestIdle(idle, nil, nil, nil)

	if err := p.Navigate(url); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return err
	}
	waitIdle()
	return ctx.Err()
}

// Evaluate runs a JS function and decodes its JSON result into out (if non-nil).
func (t *rodTab) Evaluate(ctx context.Context, script string, out any, args ...any) error {
	res, err := t.page.Context(ctx).Eval(script, args...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Value.Unmarshal(out)
}

// AddStyle appends a <style> element to the document head.
func (t *rodTab) AddStyle(ctx context.Context, css string) error {
	return t.page.Context(ctx).AddStyleTag("", css)
}

// SetViewport overrides the device metrics of the page.
func (t *rodTab) SetViewport(ctx context.Context, width, height int, scale float64) error {
	return t.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: scale,
	})
}

// PrintPDF streams Page.printToPDF output.
func (t *rodTab) PrintPDF(ctx context.Context, req *proto.PagePrintToPDF) (io.Reader, error) {
	return t.page.Context(ctx).PDF(req)
}

// Screenshot captures the page as an image.
func (t *rodTab) Screenshot(ctx context.Context, req *proto.PageCaptureScreenshot) ([]byte, error) {
	return t.page.Context(ctx).Screenshot(false, req)
}

// Close closes the page.
func (t *rodTab) Close() error {
	return t.page.Close()
}
