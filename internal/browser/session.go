// Package browser drives a Chrome instance for live DOM inspection. The
// probe feeds the selector fix strategy: given a failing selector and a URL
// it mines the rendered DOM for stabler locator candidates.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds browser connection settings.
type Config struct {
	DebuggerURL         string `yaml:"debugger_url" json:"debugger_url"`
	Headless            bool   `yaml:"headless" json:"headless"`
	ViewportWidth       int    `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight      int    `yaml:"viewport_height" json:"viewport_height"`
	NavigationTimeoutMs int    `yaml:"navigation_timeout_ms" json:"navigation_timeout_ms"`
}

// DefaultConfig returns headless defaults suitable for CI probing.
func DefaultConfig() Config {
	return Config{
		Headless:            true,
		ViewportWidth:       1280,
		ViewportHeight:      900,
		NavigationTimeoutMs: 30000,
	}
}

// NavigationTimeout returns the navigation timeout as a duration.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Session is the metadata for one tracked page.
type Session struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}

type sessionRecord struct {
	meta Session
	page *rod.Page
}

// Manager owns the browser connection and its pages.
type Manager struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	sessions map[string]*sessionRecord
}

// NewManager builds a manager; Start is lazy, so construction never fails.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cfg: cfg, log: log, sessions: make(map[string]*sessionRecord)}
}

// Start connects to an existing Chrome or launches one.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		m.log.Warn("stale browser connection, reconnecting")
		_ = m.browser.Close()
		m.browser = nil
		m.sessions = make(map[string]*sessionRecord)
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" {
		url, err := launcher.New().Headless(m.cfg.Headless).Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	m.browser = browser
	m.log.Info("browser connected", zap.String("control_url", controlURL))
	return nil
}

// Shutdown closes tracked pages and the browser.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.sessions {
		if rec.page != nil {
			_ = rec.page.Close()
		}
		delete(m.sessions, id)
	}
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	return err
}

// Open navigates a fresh incognito page to url and tracks it.
func (m *Manager) Open(ctx context.Context, url string) (Session, error) {
	if err := m.Start(ctx); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser == nil {
		return Session{}, errors.New("browser not connected")
	}

	incognito, err := m.browser.Incognito()
	if err != nil {
		return Session{}, fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return Session{}, fmt.Errorf("create page: %w", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.ViewportWidth,
		Height:            m.cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
	}).Call(page); err != nil {
		m.log.Warn("viewport override failed", zap.Error(err))
	}
	page = page.Timeout(m.cfg.NavigationTimeout())
	if err := page.WaitLoad(); err != nil {
		_ = page.Close()
		return Session{}, fmt.Errorf("wait load %s: %w", url, err)
	}

	now := time.Now().UTC()
	meta := Session{ID: uuid.NewString(), URL: url, CreatedAt: now, LastActive: now}
	m.sessions[meta.ID] = &sessionRecord{meta: meta, page: page}
	return meta, nil
}

// List returns the tracked sessions.
func (m *Manager) List() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, 0, len(m.sessions))
	for _, rec := range m.sessions {
		out = append(out, rec.meta)
	}
	return out
}

// Close drops one session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("unknown session %q", id)
	}
	delete(m.sessions, id)
	if rec.page != nil {
		return rec.page.Close()
	}
	return nil
}

// HTML captures the current serialized DOM of a session.
func (m *Manager) HTML(id string) (string, error) {
	m.mu.Lock()
	rec, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown session %q", id)
	}
	rec.meta.LastActive = time.Now().UTC()
	return rec.page.HTML()
}

// Probe loads url and mines the rendered DOM for locator candidates that
// could replace failingSelector. The session is closed before returning.
func (m *Manager) Probe(ctx context.Context, url, failingSelector string) ([]Candidate, error) {
	sess, err := m.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = m.Close(sess.ID) }()

	doc, err := m.HTML(sess.ID)
	if err != nil {
		return nil, fmt.Errorf("capture dom: %w", err)
	}
	return MineCandidates(doc, failingSelector)
}
