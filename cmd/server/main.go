package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/eshop/internal/config"
	"github.com/Skotchmaster/eshop/internal/events"
	"github.com/Skotchmaster/eshop/internal/httpserver"
	"github.com/Skotchmaster/eshop/internal/mailer"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/payment"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/internal/search"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/pkg/db"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

func main() {
	for _, f := range []string{"config.env", ".env"} {
		_ = godotenv.Load(f)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Env)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}()
	if err := db.Migrate(ctx, gdb, models.All()...); err != nil {
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewProducer(cfg.Kafka.Brokers)
		logger.Info("kafka_enabled", "brokers", cfg.Kafka.Brokers)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}()

	var index search.Index
	if cfg.Elastic.URL != "" {
		es, err := search.NewClient(cfg.Elastic.URL, cfg.Elastic.User, cfg.Elastic.Password)
		if err != nil {
			return err
		}
		if err := search.Ping(ctx, es); err != nil {
			logger.Warn("elastic_unreachable", "error", err)
		}
		index = &search.Products{ES: es, Index: cfg.Elastic.Index}
	}

	var mail mailer.Sender = mailer.Disabled{}
	if cfg.Mail.Host != "" {
		mail = mailer.NewSMTP(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From)
	}

	var payments payment.Gateway = payment.Disabled{}
	if cfg.Stripe.Secret != "" {
		payments = payment.NewStripe(cfg.Stripe.Secret, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)
	}

	r := &repo.GormRepo{DB: gdb}
	catalog := &service.CatalogService{Repo: r, Search: index, Events: publisher}
	if index != nil {
		go func() {
			n, err := catalog.ReindexProducts(ctx)
			if err != nil {
				logger.Warn("reindex_failed", "error", err)
				return
			}
			logger.Info("reindex_done", "products", n)
		}()
	}

	e := httpserver.NewServer(&httpserver.Deps{
		DB:      gdb,
		Logger:  logger,
		Catalog: catalog,
		Reviews: &service.ReviewService{Repo: r},
		Carts:   &service.CartService{Repo: r, Events: publisher},
		Orders:  &service.OrderService{Repo: r, Payments: payments, Events: publisher},
		Auth: &service.AuthService{
			Repo:      r,
			Mail:      mail,
			Events:    publisher,
			JWTSecret: []byte(cfg.JWT.Secret),
			TokenTTL:  cfg.JWT.ExpiresIn,
		},
		Users:       &service.UserService{Repo: r, Mail: mail, Events: publisher},
		Search:      index,
		BaseURL:     cfg.BaseURL,
		UploadDir:   cfg.UploadDir,
		Development: !cfg.IsProduction(),
		BodyLimit:   cfg.BodyLimit,
		CORSOrigins: cfg.CORSOrigins,
		RateMax:     cfg.RateLimit.Max,
		RateWindow:  cfg.RateLimit.Window,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("shutdown_complete")
	return err
}
