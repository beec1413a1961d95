package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wsfeed/wsfeed/pkg/allowlist"
	"github.com/wsfeed/wsfeed/pkg/config"
	"github.com/wsfeed/wsfeed/pkg/logging"
	"github.com/wsfeed/wsfeed/pkg/stream"
)

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the logger for the gate and the sessions it opens.
func WithLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMetrics sets the collectors shared by every session.
func WithMetrics(m *stream.Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = m
	}
}

// WithDialer replaces the transport selected by the configuration.
func WithDialer(d stream.Dialer) GateOption {
	return func(g *Gate) {
		g.dialer = d
	}
}

// Gate admits or refuses candidate URLs and opens sessions for the admitted ones.
type Gate struct {
	enabled   bool
	validator *allowlist.Validator
	dialer    stream.Dialer
	streamOps []stream.Option
	metrics   *stream.Metrics
	log       *slog.Logger
}

// NewGate builds the allow list once from cfg. A disabled configuration
// yields a gate whose Open always returns ErrDisabled.
func NewGate(cfg *config.Config, opts ...GateOption) (*Gate, error) {
	g := &Gate{
		enabled: cfg.Enabled,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if !g.enabled {
		return g, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	entries, err := cfg.AllowListEntries()
	if err != nil {
		return nil, err
	}

	vopts := []allowlist.Option{allowlist.WithLogger(g.log)}
	if cfg.StrictHosts {
		vopts = append(vopts, allowlist.WithStrictHosts())
	}
	g.validator, err = allowlist.New(entries, vopts...)
	if err != nil {
		return nil, err
	}

	if g.dialer == nil {
		g.dialer, err = stream.DialerFor(cfg.Transport, cfg.Limits.MaxMessageSize)
		if err != nil {
			return nil, err
		}
	}

	g.streamOps = []stream.Option{
		stream.WithDialer(g.dialer),
		stream.WithReconnectDelay(cfg.ReconnectDelay()),
		stream.WithDialTimeout(cfg.DialTimeout.Std()),
		stream.WithMaxRetries(cfg.Reconnect.MaxRetries),
		stream.WithMaxMessageSize(cfg.Limits.MaxMessageSize),
		stream.WithMaxQueueDepth(cfg.Limits.MaxQueueDepth),
		stream.WithMetrics(g.metrics),
	}

	g.log.Debug("gate ready", "entries", len(entries), "transport", cfg.Transport)
	return g, nil
}

// Enabled reports whether the gate admits anything at all.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// Check evaluates candidate without connecting.
func (g *Gate) Check(candidate string) (allowlist.Decision, error) {
	if !g.enabled {
		return allowlist.Decision{}, ErrDisabled
	}
	return g.validator.Check(candidate), nil
}

// Open checks candidate and, when allowed, starts a connection to its
// canonical form. The session keeps running until Close or ctx is cancelled.
func (g *Gate) Open(ctx context.Context, candidate string) (*Session, error) {
	d, err := g.Check(candidate)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		g.log.Warn("refusing connection", "url", candidate, "reason", d.Reason)
		return nil, &DeniedError{URL: candidate, Reason: d.Reason}
	}

	id := uuid.New()
	target := d.URI.String()
	log := g.log.With("session", id.String())
	log.Info("opening session", "target", d.URI.URL().Redacted(), "entry", d.Entry.String())

	opts := append([]stream.Option{stream.WithLogger(log)}, g.streamOps...)
	return &Session{
		ID:      id,
		Target:  target,
		manager: stream.Start(ctx, target, opts...),
		log:     log,
	}, nil
}

// Session is one admitted connection. It is owned by whoever opened it.
type Session struct {
	ID     uuid.UUID
	Target string

	manager *stream.Manager
	log     *slog.Logger
}

// Drain returns the messages received since the previous call. It never blocks.
func (s *Session) Drain() []string {
	return s.manager.Drain()
}

// Close stops the connection and waits for it to shut down. It is idempotent.
func (s *Session) Close() {
	s.manager.Stop()
	s.log.Info("session closed")
}

// Done is closed once the connection worker has exited.
func (s *Session) Done() <-chan struct{} {
	return s.manager.Done()
}

// Err returns why the session ended on its own, or nil.
func (s *Session) Err() error {
	return s.manager.Err()
}

// State returns the connection state.
func (s *Session) State() stream.State {
	return s.manager.State()
}

// String identifies the session in logs.
func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s)", s.ID, s.Target)
}
