package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// EventHandler receives each decoded push event. A returned error is logged
// and does not close the connection.
type EventHandler func(ctx context.Context, ev Event) error

type ListenerConfig struct {
	BaseURL        string
	Path           string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PingInterval   time.Duration
	Dialer         *websocket.Dialer
}

// Listener follows the backend's agent status websocket and reconnects on
// failure until its context is cancelled.
type Listener struct {
	url     string
	cfg     ListenerConfig
	handler EventHandler
	dialer  *websocket.Dialer
}

func NewListener(cfg ListenerConfig, handler EventHandler) (*Listener, error) {
	wsURL, err := websocketURL(cfg.BaseURL, cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	return &Listener{
		url:     wsURL,
		cfg:     cfg,
		handler: handler,
		dialer:  dialer,
	}, nil
}

// websocketURL maps http(s)://host to ws(s)://host + path.
func websocketURL(base, path string) (string, error) {
	if path == "" {
		path = "/ws/agents"
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parsing backend url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported backend url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}

func (l *Listener) URL() string {
	return l.url
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "backend listener started", "url", l.url)

	backoff := l.cfg.InitialBackoff
	for {
		connected, err := l.session(ctx)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "backend listener stopped")
			return nil
		}
		if connected {
			backoff = l.cfg.InitialBackoff
		}

		slog.WarnContext(ctx, "backend websocket disconnected, reconnecting",
			"error", err,
			"backoff", backoff.String())

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "backend listener stopped")
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > l.cfg.MaxBackoff {
			backoff = l.cfg.MaxBackoff
		}
	}
}

// session runs one connection. connected reports whether the dial succeeded.
func (l *Listener) session(ctx context.Context) (connected bool, err error) {
	conn, resp, err := l.dialer.DialContext(ctx, l.url, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("dialing %s: %w", l.url, err)
	}
	defer conn.Close()

	slog.InfoContext(ctx, "backend websocket connected", "url", l.url)

	done := make(chan struct{})
	defer close(done)
	go l.keepAlive(ctx, conn, done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("reading event: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Type == "" {
			slog.WarnContext(ctx, "ignoring malformed backend event", "payload", string(raw))
			continue
		}

		if err := l.handler(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "backend event handler failed",
				"error", err,
				"event_type", ev.Type)
		}
	}
}

// keepAlive pings on an interval and closes the connection when ctx ends,
// which unblocks ReadMessage.
func (l *Listener) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(l.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				conn.Close()
				return
			}
		}
	}
}
