package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wsfeed/wsfeed/pkg/cli/internal/parse"
	"github.com/wsfeed/wsfeed/pkg/config"
	"github.com/wsfeed/wsfeed/pkg/payload"
	"github.com/wsfeed/wsfeed/pkg/session"
	"github.com/wsfeed/wsfeed/pkg/stream"
)

var (
	watchInterval    time.Duration
	watchCount       int
	watchDecode      bool
	watchMetricsAddr string
	watchHeaders     []string
)

var watchCmd = &cobra.Command{
	Use:   "watch <url>",
	Short: "Connect to an allowed feed and print its messages",
	Long: `Watch opens a resilient connection to an allowed URL and prints every text
message it receives. Lost connections are re-established after the reconnect
delay. Stop with Ctrl+C.`,
	Example: `  wsfeed watch --allow feed.example.com wss://feed.example.com/live
  wsfeed watch --decode --count 10 ws://localhost:8080/pixels
  wsfeed watch --metrics-addr :9090 -H "Authorization: Bearer $TOKEN" wss://api.example.org/feed`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 50*time.Millisecond, "How often to drain buffered messages")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Exit after this many messages (0 = run until interrupted)")
	watchCmd.Flags().BoolVar(&watchDecode, "decode", false, "Decode init/line pixel messages and print a summary")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	watchCmd.Flags().StringArrayVarP(&watchHeaders, "header", "H", nil, "Handshake header as 'Name: value' (repeatable)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("metrics-addr") {
		if err := cfg.Set(config.KeyMetricsAddr, watchMetricsAddr, config.SourceFlag); err != nil {
			return err
		}
	}
	if !cfg.Enabled {
		return ErrFeedDisabled
	}
	if watchInterval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", watchInterval)
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := stream.NewMetrics(reg)
	if err != nil {
		return err
	}

	gateOpts := []session.GateOption{session.WithLogger(logger), session.WithMetrics(metrics)}
	if len(watchHeaders) > 0 {
		d, err := dialerWithHeader(cfg, watchHeaders)
		if err != nil {
			return err
		}
		gateOpts = append(gateOpts, session.WithDialer(d))
	}

	gate, err := session.NewGate(cfg, gateOpts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess, err := gate.Open(ctx, args[0])
	if err != nil {
		return err
	}
	defer sess.Close()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	p := newPrinter(cmd.OutOrStdout(), watchCount, watchDecode, jsonOutput)
	g.Go(func() error {
		defer cancel()
		return consume(gctx, sess, watchInterval, p)
	})

	return g.Wait()
}

// consume drains sess every interval until the printer has seen enough, the
// session ends on its own, or ctx is cancelled.
func consume(ctx context.Context, sess *session.Session, interval time.Duration, p *printer) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sess.Done():
			if err := p.print(sess.Drain()); err != nil && !errors.Is(err, errEnough) {
				return err
			}
			return sess.Err()
		case <-ticker.C:
		}

		if err := p.print(sess.Drain()); err != nil {
			if errors.Is(err, errEnough) {
				return nil
			}
			return err
		}
	}
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

// dialerWithHeader builds the configured transport with extra handshake headers.
func dialerWithHeader(cfg *config.Config, values []string) (stream.Dialer, error) {
	header, err := parse.Header(values)
	if err != nil {
		return nil, err
	}
	d, err := stream.DialerFor(cfg.Transport, cfg.Limits.MaxMessageSize)
	if err != nil {
		return nil, err
	}
	switch d := d.(type) {
	case *stream.CoderDialer:
		d.Header = header
	case *stream.GorillaDialer:
		d.Header = header
	}
	return d, nil
}

var errEnough = errors.New("message count reached")

// WatchMessage is the JSON form of one received message.
type WatchMessage struct {
	Seq     int    `json:"seq"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// printer writes received messages and counts them.
type printer struct {
	w      io.Writer
	enc    *json.Encoder
	limit  int
	decode bool
	seen   int
	grid   payload.Grid
}

func newPrinter(w io.Writer, limit int, decode, asJSON bool) *printer {
	p := &printer{w: w, limit: limit, decode: decode}
	if asJSON {
		p.enc = json.NewEncoder(w)
	}
	return p
}

// print writes msgs in order and returns errEnough once the limit is reached.
func (p *printer) print(msgs []string) error {
	for _, msg := range msgs {
		p.seen++
		if err := p.write(msg); err != nil {
			return err
		}
		if p.limit > 0 && p.seen >= p.limit {
			return errEnough
		}
	}
	return nil
}

func (p *printer) write(msg string) error {
	if p.enc != nil {
		out := WatchMessage{Seq: p.seen, Message: msg}
		if p.decode {
			out.Kind, _ = payload.Kind([]byte(msg))
		}
		return p.enc.Encode(out)
	}

	if !p.decode {
		_, err := fmt.Fprintln(p.w, msg)
		return err
	}

	_, err := fmt.Fprintln(p.w, p.summarize(msg))
	return err
}

func (p *printer) summarize(msg string) string {
	v, err := payload.Decode([]byte(msg))
	if err != nil {
		return fmt.Sprintf("#%d undecodable: %v", p.seen, err)
	}
	changed := p.grid.Apply(v)
	w, h := p.grid.Size()

	switch m := v.(type) {
	case *payload.Init:
		if !changed {
			return fmt.Sprintf("#%d init %dx%d (unchanged)", p.seen, m.Width, m.Height)
		}
		return fmt.Sprintf("#%d init %dx%d", p.seen, m.Width, m.Height)
	case *payload.Line:
		if !changed {
			return fmt.Sprintf("#%d line y=%d colors=%d (ignored, grid %dx%d)", p.seen, m.Y, len(m.Colors), w, h)
		}
		return fmt.Sprintf("#%d line y=%d colors=%d", p.seen, m.Y, len(m.Colors))
	}
	return fmt.Sprintf("#%d %T", p.seen, v)
}
