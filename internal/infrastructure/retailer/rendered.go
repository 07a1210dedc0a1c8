package retailer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/logging"
)

// RenderedSourceConfig holds configuration for the headless browser source
type RenderedSourceConfig struct {
	ControlURL string        // DevTools endpoint of a running browser; empty launches a local one
	Timeout    time.Duration // Budget for loading one page
	Settle     time.Duration // How long the DOM must stay unchanged before reading it
}

// RenderedSource loads pages in a headless browser so script-built result
// lists are present in the markup. The browser is connected on first use.
type RenderedSource struct {
	name string
	cfg  RenderedSourceConfig

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRenderedSource creates a rendered source; nothing is started until the first page load
func NewRenderedSource(name string, cfg RenderedSourceConfig) *RenderedSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Settle <= 0 {
		cfg.Settle = time.Second
	}
	return &RenderedSource{name: name, cfg: cfg}
}

// Document renders pageURL and parses the resulting DOM
func (r *RenderedSource) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	browser, err := r.connect()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: browser unavailable: %v", domain.ErrSourceUnreachable, r.name, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	page, err := browser.Context(callCtx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to open page: %v", domain.ErrSourceUnreachable, r.name, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logging.Debug().Err(err).Str("retailer", r.name).Msg("failed to close page")
		}
	}()

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %s: page did not load: %v", domain.ErrSourceUnreachable, r.name, err)
	}
	if err := page.WaitStable(r.cfg.Settle); err != nil {
		return nil, fmt.Errorf("%w: %s: page did not settle: %v", domain.ErrSourceUnreachable, r.name, err)
	}

	markup, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to read page: %v", domain.ErrSourceUnreachable, r.name, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to parse page: %v", domain.ErrSourceUnreachable, r.name, err)
	}
	return doc, nil
}

// connect returns the shared browser, connecting or launching it once
func (r *RenderedSource) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	controlURL := r.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true).NoSandbox(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		r.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if r.launcher != nil {
			r.launcher.Kill()
			r.launcher = nil
		}
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	logging.Info().Str("retailer", r.name).Msg("headless browser connected")
	r.browser = browser
	return browser, nil
}

// Close shuts down the browser connection and any browser this source launched
func (r *RenderedSource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}
