package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hoardhq/hoard/internal/db"
	"github.com/hoardhq/hoard/internal/version"
)

type Server struct {
	config *Config
	server *http.Server
	svc    *Services
}

func New(config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var opts []db.SqliteOption
	if config.DBPath != "" {
		opts = append(opts, db.WithPath(config.DBPath))
	}
	sqldb, err := db.NewSqliteDB(opts...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	svc, err := NewServices(config, sqldb)
	if err != nil {
		sqldb.Close()
		return nil, err
	}

	return &Server{
		config: config,
		svc:    svc,
		server: &http.Server{
			Addr:    config.HTTP.Addr,
			Handler: SetupRoutes(config, svc),
		},
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	slog.Info("server start", "version", version.ShortWithApp())
	defer slog.Info("server stop")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.runHTTPServer(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		slog.Info("http server stopped")
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal")
		return s.Stop(context.Background())
	})

	return g.Wait()
}

func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) runHTTPServer() error {
	if s.config.HTTP.CertFile != "" && s.config.HTTP.KeyFile != "" {
		slog.Info("server listen tls", "addr", s.config.HTTP.Addr, "cert", s.config.HTTP.CertFile, "key", s.config.HTTP.KeyFile)
		return s.server.ListenAndServeTLS(s.config.HTTP.CertFile, s.config.HTTP.KeyFile)
	}
	slog.Info("server listen http", "addr", s.config.HTTP.Addr)
	return s.server.ListenAndServe()
}
