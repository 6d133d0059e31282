package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/config"
	"github.com/dmitrymomot/vipgate/pkg/handler"
	"github.com/dmitrymomot/vipgate/pkg/httpserver"
	"github.com/dmitrymomot/vipgate/pkg/logger"
	"github.com/dmitrymomot/vipgate/pkg/payment"
	"github.com/dmitrymomot/vipgate/pkg/pg"
	"github.com/dmitrymomot/vipgate/pkg/redis"
	"github.com/dmitrymomot/vipgate/pkg/secrets"
	"github.com/dmitrymomot/vipgate/pkg/session"
	"github.com/dmitrymomot/vipgate/svc/api"
	"github.com/dmitrymomot/vipgate/svc/auth"
	"github.com/dmitrymomot/vipgate/svc/upgrade"
)

// app holds the wired dependencies and what must be released on exit.
type app struct {
	dir     account.Directory
	create  createAccountFunc
	store   session.Store
	gateway payment.Gateway
	prices  map[string]string
	details []upgrade.CatalogOption
	// publishableKey is handed to clients that collect card details with
	// provider-hosted fields.
	publishableKey string
	checks         map[string]httpserver.Check
	closers        []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	a := &app{checks: map[string]httpserver.Check{}}
	defer a.close()

	if err := a.openDirectory(ctx, cfg, log); err != nil {
		return err
	}
	if err := a.openSessionStore(ctx, cfg, log); err != nil {
		return err
	}
	if err := a.openGateway(cfg, log); err != nil {
		return err
	}

	seeds, err := parseSeeds(cfg.SeedAccounts)
	if err != nil {
		return err
	}
	if err := seed(ctx, a.create, seeds, log); err != nil {
		return err
	}

	ctrl := auth.NewController(a.dir, a.store,
		auth.WithConfig(cfg.Auth),
		auth.WithLogger(log),
	)
	if sess, err := ctrl.Restore(ctx); err == nil {
		log.InfoContext(ctx, "session restored", logger.AccountID(sess.AccountID), logger.Role(sess.Role))
	} else if !errors.Is(err, auth.ErrUnauthenticated) {
		log.WarnContext(ctx, "session restore failed", logger.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	catalog, err := upgrade.NewCatalog(a.prices, a.details...)
	if err != nil {
		return err
	}
	coord := upgrade.NewCoordinator(a.gateway, ctrl, catalog,
		upgrade.WithLogger(log),
		upgrade.WithChargeTimeout(cfg.Upgrade.ChargeTimeout),
		upgrade.WithRegisterer(reg),
	)

	router := api.NewRouter(ctrl, coord, a.store,
		api.WithLogger(log),
		api.WithPublishableKey(a.publishableKey),
		api.WithVIPHandler(featureHandler("vip")),
		api.WithAdminHandler(featureHandler("admin")),
		api.WithMount("/health/live", httpserver.LivenessHandler()),
		api.WithMount("/health/ready", httpserver.ReadinessHandler(log, cfg.HealthTimeout, a.checks)),
		api.WithMount("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	)

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}

func (a *app) openDirectory(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	switch cfg.DirectoryBackend {
	case backendMemory:
		dir := account.NewMemoryDirectory()
		a.dir, a.create = dir, dir.Add
		log.WarnContext(ctx, "using in-memory account directory; accounts are lost on exit")
		return nil

	case backendPostgres:
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		if err := pg.Migrate(ctx, pool, pgCfg, account.Migrations, log); err != nil {
			return err
		}
		dir := account.NewPostgresDirectory(pool)
		a.dir, a.create = dir, dir.Create
		a.checks["postgres"] = pg.Healthcheck(pool)
		return nil
	}
	return fmt.Errorf("unknown DIRECTORY_BACKEND %q", cfg.DirectoryBackend)
}

func (a *app) openSessionStore(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var backend session.Backend
	switch cfg.SessionBackend {
	case backendMemory:
		a.store = session.NewMemoryStore()
		return nil

	case backendFile:
		backend = session.NewFileBackend(cfg.SessionDir)

	case backendRedis:
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis client", logger.Error(err))
			}
		})
		a.checks["redis"] = redis.Healthcheck(client)
		backend = redis.NewStorageWithConfig(client, redisCfg)

	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	opts := []session.BlobOption{session.WithLogger(log)}
	if cfg.SessionKey != "" {
		key, err := secrets.ParseKey(cfg.SessionKey)
		if err != nil {
			return fmt.Errorf("SESSION_KEY: %w", err)
		}
		sealer, err := secrets.NewSealer(key, "session")
		if err != nil {
			return err
		}
		opts = append(opts, session.WithSealer(sealer))
	} else {
		log.WarnContext(ctx, "SESSION_KEY is not set; the persisted session is stored unsealed")
	}
	a.store = session.NewBlobStore(backend, opts...)
	return nil
}

func (a *app) openGateway(cfg appConfig, log *slog.Logger) error {
	a.prices = cfg.Upgrade.PlanPrices
	a.details = cfg.Upgrade.CatalogOptions()

	switch cfg.PaymentBackend {
	case backendMemory:
		if len(a.prices) == 0 {
			a.prices = demoPlans
			a.details = append(demoDetails(), a.details...)
		}
		opts := make([]payment.MemoryOption, 0, len(a.prices))
		for _, ref := range a.prices {
			price, ok := demoPrices[ref]
			if !ok {
				price = payment.Price{Amount: 999, Currency: "usd", Interval: "month"}
			}
			opts = append(opts, payment.WithPrice(ref, price))
		}
		a.gateway = payment.NewMemoryGateway(opts...)
		log.Warn("using in-memory payment gateway; charges are simulated",
			slog.String("success_card", payment.TestCardSuccess),
			slog.String("declined_card", payment.TestCardDeclined),
		)
		return nil

	case backendStripe:
		var stripeCfg payment.StripeConfig
		if err := config.Load(&stripeCfg); err != nil {
			return err
		}
		gw, err := payment.NewStripeGateway(stripeCfg, payment.WithLogger(log))
		if err != nil {
			return err
		}
		a.gateway = gw
		a.publishableKey = gw.PublishableKey()
		return nil
	}
	return fmt.Errorf("unknown PAYMENT_BACKEND %q", cfg.PaymentBackend)
}

// featureHandler stands in for the gated features served under /vip and /admin.
func featureHandler(name string) http.Handler {
	return handler.Wrap[struct{}](func(ctx handler.Context, _ struct{}) handler.Response {
		return handler.JSON(map[string]string{
			"feature": name,
			"path":    strings.TrimPrefix(ctx.Request().URL.Path, "/"+name),
		})
	})
}
