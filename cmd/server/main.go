package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Skotchmaster/session_auth/internal/config"
	"github.com/Skotchmaster/session_auth/internal/db"
	"github.com/Skotchmaster/session_auth/internal/events"
	"github.com/Skotchmaster/session_auth/internal/handlers"
	"github.com/Skotchmaster/session_auth/internal/hash"
	"github.com/Skotchmaster/session_auth/internal/logging"
	"github.com/Skotchmaster/session_auth/internal/metrics"
	loggingmw "github.com/Skotchmaster/session_auth/internal/middleware/logging"
	"github.com/Skotchmaster/session_auth/internal/refresh"
	"github.com/Skotchmaster/session_auth/internal/repo"
	"github.com/Skotchmaster/session_auth/internal/service"
	"github.com/Skotchmaster/session_auth/internal/tokens"
	httpserver "github.com/Skotchmaster/session_auth/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	keys, err := tokens.LoadKeyPairFiles(cfg.SigningKeyFile, cfg.VerifyKeyFile)
	if err != nil {
		log.Fatalf("signing keys: %v", err)
	}
	signer, err := tokens.NewSigner(cfg.TokenFormat, keys, cfg.TokenIssuer)
	if err != nil {
		log.Fatalf("token signer: %v", err)
	}

	publisher, audit, closers, err := buildPublishers(cfg, logger)
	if err != nil {
		log.Fatalf("events: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := &service.AuthService{
		Repo:          repo.New(gdb),
		Hasher:        hash.New(cfg.BcryptCost),
		Signer:        signer,
		RefreshTokens: refresh.NewManager(signer, cfg.RefreshTokenTTL),
		AccessTTL:     cfg.AccessTokenTTL,
		Events:        publisher,
		Metrics:       metrics.New(reg),
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	auditHandler := handlers.NewAuditHandler(nil)
	if audit != nil {
		auditHandler = handlers.NewAuditHandler(audit)
	}

	httpserver.Register(e, &httpserver.Deps{
		Auth: svc,
		AuthHandler: &handlers.AuthHandler{
			Auth: svc,
			Cookies: handlers.CookieConfig{
				Secure:   cfg.CookieSecure,
				SameSite: cfg.SameSite(),
				Domain:   cfg.CookieDomain,
			},
		},
		AuditHandler: auditHandler,
		Gatherer:     reg,
	})

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "token_format", cfg.TokenFormat)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildPublishers wires Kafka and the Elasticsearch audit index when they are
// configured. With neither, events are discarded.
func buildPublishers(cfg *config.Config, logger *slog.Logger) (events.Publisher, *events.AuditIndex, []io.Closer, error) {
	var (
		pubs    events.Multi
		audit   *events.AuditIndex
		closers []io.Closer
	)

	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, nil, err
		}
		pubs = append(pubs, kp)
		closers = append(closers, kp)
		logger.Info("kafka publisher enabled", "topic", cfg.KafkaTopic)
	}

	if cfg.ESURL != "" {
		es, err := events.NewESClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			return nil, nil, nil, err
		}
		audit = events.NewAuditIndex(es, cfg.ESIndex)
		pubs = append(pubs, audit)
		logger.Info("audit index enabled", "index", cfg.ESIndex)
	}

	if len(pubs) == 0 {
		logger.Warn("no event sinks configured, events are discarded")
		return events.Discard, nil, nil, nil
	}
	return pubs, audit, closers, nil
}
