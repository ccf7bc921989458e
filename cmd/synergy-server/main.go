package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/synergy/internal/api"
	"github.com/good-yellow-bee/synergy/internal/api/auth"
	"github.com/good-yellow-bee/synergy/internal/logging"
	"github.com/good-yellow-bee/synergy/internal/metrics"
	"github.com/good-yellow-bee/synergy/internal/notifier"
	"github.com/good-yellow-bee/synergy/internal/service"
	"github.com/good-yellow-bee/synergy/internal/storage"
	"github.com/good-yellow-bee/synergy/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "synergy-server",
	Short: "Synergy Server - project and task collaboration API",
	Long: `Synergy Server exposes the JSON API for projects, members, tasks,
messages and notifications on top of a SQLite database.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("synergy-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	var cfg *Config
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	cfg.Verbose = verbose
	if cfg.Verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if err := logging.Init(cfg.Logging, "synergy"); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logging.Logger

	jwtSecret := os.Getenv("SYNERGY_JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("SYNERGY_JWT_SECRET environment variable is required")
	}
	if len(jwtSecret) < 32 {
		return fmt.Errorf("SYNERGY_JWT_SECRET must be at least 32 bytes")
	}

	// Auto-create data directory
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.WithField("path", cfg.Database.Path).Info("database initialized")

	dispatcher, err := newDispatcher(cfg, store)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	svc := service.New(store, dispatcher, service.Config{InviteDomain: cfg.Invites.Domain})

	access, refresh, lockout, cleanup := cfg.durations()
	srv, err := api.New(&api.Config{
		Address:          cfg.Server.HTTPAddress,
		JWTSecret:        []byte(jwtSecret),
		TLSEnabled:       cfg.Server.TLS.Enabled,
		TLSCertFile:      cfg.Server.TLS.CertFile,
		TLSKeyFile:       cfg.Server.TLS.KeyFile,
		AccessTokenTTL:   access,
		RefreshTokenTTL:  refresh,
		RateLimitPerIP:   cfg.Auth.RateLimitPerIP,
		RateLimitPerUser: cfg.Auth.RateLimitPerUser,
		LockoutThreshold: cfg.Auth.LockoutThreshold,
		LockoutDuration:  lockout,
		Verbose:          cfg.Verbose,
	}, store, svc)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}

	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithField("version", config.Version).Info("starting synergy-server")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })

	if cfg.Server.MetricsAddress != "" {
		ms := metrics.NewServer(cfg.Server.MetricsAddress)
		g.Go(ms.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return ms.Shutdown(shutdownCtx)
		})
	}

	tokens := auth.NewTokenService(store, refresh)
	g.Go(func() error {
		sweepRefreshTokens(ctx, tokens, cleanup, log)
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// newDispatcher wires the in-app channel and, when SMTP is configured, the
// email channel.
func newDispatcher(cfg *Config, store *storage.SQLiteStorage) (*notifier.Dispatcher, error) {
	prefs := notifier.StorePreferences{Store: store}

	var d *notifier.Dispatcher
	if cfg.Notifications.RateLimit.Enabled {
		d = notifier.NewDispatcherWithRateLimit(prefs, cfg.Notifications.RateLimit)
	} else {
		d = notifier.NewDispatcher(prefs)
	}
	d.Register(notifier.NewInAppChannel(store.Notifications()))

	if cfg.Notifications.SMTP != nil {
		email, err := notifier.NewEmailChannel(*cfg.Notifications.SMTP)
		if err != nil {
			return nil, fmt.Errorf("create email channel: %w", err)
		}
		d.Register(email)
	}
	return d, nil
}

func sweepRefreshTokens(ctx context.Context, tokens *auth.TokenService, every time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.CleanupExpiredTokens(ctx)
			if err != nil {
				log.WithError(err).Warn("refresh token cleanup failed")
				continue
			}
			if n > 0 {
				log.WithField("removed", n).Debug("expired refresh tokens removed")
			}
		}
	}
}
