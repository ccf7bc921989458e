// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/synergy/internal/api/auth"
	"github.com/good-yellow-bee/synergy/internal/api/health"
	"github.com/good-yellow-bee/synergy/internal/api/middleware"
	"github.com/good-yellow-bee/synergy/internal/logging"
	"github.com/good-yellow-bee/synergy/internal/security"
	"github.com/good-yellow-bee/synergy/internal/service"
	"github.com/good-yellow-bee/synergy/internal/storage"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address          string
	JWTSecret        []byte
	TLSEnabled       bool
	TLSCertFile      string
	TLSKeyFile       string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	RateLimitPerIP   int // auth requests per minute per client IP
	RateLimitPerUser int // API requests per minute per user
	LockoutThreshold int
	LockoutDuration  time.Duration
	Verbose          bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.RateLimitPerIP == 0 {
		c.RateLimitPerIP = 20
	}
	if c.RateLimitPerUser == 0 {
		c.RateLimitPerUser = 120
	}
	if c.LockoutThreshold == 0 {
		c.LockoutThreshold = 5
	}
	if c.LockoutDuration == 0 {
		c.LockoutDuration = 15 * time.Minute
	}
}

// Server is the HTTP API server.
type Server struct {
	config  *Config
	storage storage.Storage
	service *service.Service
	server  *http.Server
	health  *health.Handler
	log     *logrus.Logger

	jwt         *auth.JWTService
	lockout     *auth.LockoutTracker
	ipLimiter   *middleware.RateLimiter
	userLimiter *middleware.RateLimiter
}

// New creates an API server over store and svc.
func New(cfg *Config, store storage.Storage, svc *service.Service) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil || svc == nil {
		return nil, errors.New("storage and service are required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("JWT secret is required")
	}
	cfg.SetDefaults()

	s := &Server{
		config:      cfg,
		storage:     store,
		service:     svc,
		health:      health.NewHandler(),
		log:         logging.Logger,
		jwt:         auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL),
		lockout:     auth.NewLockoutTracker(cfg.LockoutThreshold, cfg.LockoutDuration),
		ipLimiter:   middleware.NewRateLimiter(cfg.RateLimitPerIP),
		userLimiter: middleware.NewRateLimiter(cfg.RateLimitPerUser),
	}
	s.health.RegisterChecker(health.NewStorageChecker(store))

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.setupRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if cfg.TLSEnabled {
		tlsConfig, err := security.LoadServerTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.server.TLSConfig = tlsConfig
	}
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"address": s.config.Address, "tls": s.config.TLSEnabled}).Info("HTTP API listening")
		var err error
		if s.config.TLSEnabled {
			err = s.server.ListenAndServeTLS("", "")
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http api: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down HTTP API server")
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		s.Close()
		return err
	}
}

// Close stops background cleanup loops.
func (s *Server) Close() {
	s.lockout.Close()
	s.ipLimiter.Close()
	s.userLimiter.Close()
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}
