package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/backend"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/events"
	"github.com/Zachkp/portfolio/internal/session"
	"github.com/Zachkp/portfolio/internal/tracing"
	"github.com/Zachkp/portfolio/internal/view"
	"github.com/Zachkp/portfolio/internal/visits"
)

var version = "dev"

var envFile string

var rootCmd = &cobra.Command{
	Use:     "portfolio",
	Short:   "Personal portfolio site",
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the portfolio site",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the portfolio API is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := backend.New(cfg.Backend.BaseURL,
			backend.WithDoer(&http.Client{Timeout: 5 * time.Second}))

		if err := client.Health(cmd.Context()); err != nil {
			return fmt.Errorf("API at %s: %w", client.BaseURL(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API at %s is up\n", client.BaseURL())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load settings from this file instead of .env")
	rootCmd.AddCommand(serveCmd, checkCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if envFile != "" {
		return config.Load(envFile)
	}
	return config.Load()
}

func runServer(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})))
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	addr := net.JoinHostPort("", strconv.Itoa(cfg.Port))
	tr, err := tracing.Init(cfg.ZipkinAddress, "portfolio", "localhost:"+strconv.Itoa(cfg.Port), cfg.Backend.Timeout)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer tr.Close()

	opts := []backend.Option{backend.WithDoer(tr.Client)}
	if cfg.Backend.UniformFallback {
		opts = append(opts, backend.WithUniformFallback())
	}
	api := backend.New(cfg.Backend.BaseURL, opts...)

	sessions, sweep := openSessions(cfg.Session)

	salt, err := generateToken()
	if err != nil {
		return err
	}
	store, err := visits.Open(cfg.Visits.DatabasePath, salt)
	if err != nil {
		return fmt.Errorf("open visitor database: %w", err)
	}
	defer store.Close()

	publisher := events.Multi{contactLog{store: store}}
	if cfg.NatsURL != "" {
		nc, err := events.Connect(cfg.NatsURL, cfg.NatsSubject)
		if err != nil {
			slog.Warn("contact events disabled", "nats", cfg.NatsURL, "error", err)
		} else {
			publisher = append(publisher, nc)
		}
	}
	defer publisher.Close()

	admin, err := newAdminAuth(cfg.Admin)
	if err != nil {
		return fmt.Errorf("admin auth: %w", err)
	}

	s := &site{
		controller: view.NewController(api, sessions, publisher),
		visits:     store,
		admin:      admin,
		sessionTTL: cfg.Session.TTL,
		retention:  cfg.Visits.Retention,
	}
	router, err := newRouter(s)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	maintenance, err := startMaintenance(ctx, s, sweep)
	if err != nil {
		return err
	}
	defer maintenance.Stop()

	server := &http.Server{
		Addr:              addr,
		Handler:           tr.Middleware(router),
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server is starting", "addr", addr, "api", api.BaseURL(), "version", version)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openSessions picks memcached when MEM_URL is set. The returned sweep func
// expires in-memory sessions and is nil for memcached, which expires its own.
func openSessions(cfg config.SessionConfig) (session.Store, func() int) {
	if cfg.MemcacheURL == "" {
		mem := session.NewMemory(cfg.TTL)
		return mem, mem.Sweep
	}

	servers := strings.Split(cfg.MemcacheURL, ",")
	for i := range servers {
		servers[i] = strings.TrimSpace(servers[i])
	}
	mc := session.NewMemcached(cfg.TTL, servers...)
	if err := mc.Ping(); err != nil {
		slog.Warn("memcached not reachable yet", "servers", servers, "error", err)
	}
	return mc, nil
}

// startMaintenance schedules the privacy cleanup and the session sweep, and
// runs one cleanup right away.
func startMaintenance(ctx context.Context, s *site, sweep func() int) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("@daily", func() { s.cleanupOldVisitorData(ctx) }); err != nil {
		return nil, fmt.Errorf("schedule privacy cleanup: %w", err)
	}
	if sweep != nil {
		if _, err := c.AddFunc("@every 10m", func() {
			if n := sweep(); n > 0 {
				slog.Debug("expired sessions removed", "count", n)
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule session sweep: %w", err)
		}
	}
	c.Start()

	s.cleanupOldVisitorData(ctx)
	return c, nil
}
