package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/orgofarm-labs/backend-orgofarm/internal/audit"
	"github.com/orgofarm-labs/backend-orgofarm/internal/auth"
	"github.com/orgofarm-labs/backend-orgofarm/internal/cart"
	"github.com/orgofarm-labs/backend-orgofarm/internal/catalog"
	"github.com/orgofarm-labs/backend-orgofarm/internal/checkout"
	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/config"
	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/health"
	"github.com/orgofarm-labs/backend-orgofarm/internal/inventory"
	"github.com/orgofarm-labs/backend-orgofarm/internal/lock"
	"github.com/orgofarm-labs/backend-orgofarm/internal/loyalty"
	"github.com/orgofarm-labs/backend-orgofarm/internal/obs"
	"github.com/orgofarm-labs/backend-orgofarm/internal/order"
	"github.com/orgofarm-labs/backend-orgofarm/internal/payment"
	"github.com/orgofarm-labs/backend-orgofarm/internal/ratelimit"
	"github.com/orgofarm-labs/backend-orgofarm/internal/security"
	"github.com/orgofarm-labs/backend-orgofarm/internal/shipping"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
	"github.com/orgofarm-labs/backend-orgofarm/internal/tasks"
	"github.com/orgofarm-labs/backend-orgofarm/internal/user"
	"github.com/orgofarm-labs/backend-orgofarm/internal/vendor"

	validator "github.com/go-playground/validator/v10"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "orgofarm")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "orgofarm-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "orgofarm-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	queries := store.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	asynqClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task queue client")
		}
	}()

	validate := validator.New()
	mailer := common.NopEmailSender{}

	taskClient := &tasks.Client{A: asynqClient, Log: logger}
	bus := &events.Bus{Store: queries, Scheduler: taskClient}

	catalogSvc := &catalog.Service{
		Q:            queries,
		Cache:        catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc}

	authService, err := auth.NewService(auth.Config{
		Queries:         queries,
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{
		Service:           authService,
		AccessCookieName:  "of_access",
		RefreshCookieName: "of_refresh",
		CookieDomain:      cfg.CookieDomain,
		CookieSecure:      cfg.CookieSecure,
		CookieSameSite:    cfg.CookieSameSite,
	}
	authMW := auth.Middleware{Service: authService, AccessCookie: "of_access"}

	userSvc := &user.Service{Q: queries, Validate: validate}
	userHandler := &user.Handler{Svc: userSvc}

	cartSvc := &cart.Service{Q: queries, TTL: cfg.CartTTL, GSTRatePct: cfg.GSTRatePct()}
	cartHandler := &cart.Handler{Svc: cartSvc}

	loyaltySvc := &loyalty.Service{
		Q: queries,
		Policy: loyalty.Policy{
			PointValue:       cfg.LoyaltyPointValue,
			MinRedeemPoints:  cfg.LoyaltyMinRedeemPoints,
			MaxDiscountPct:   cfg.LoyaltyMaxDiscountPct,
			EarnPointsPer100: cfg.LoyaltyEarnPointsPer100,
		},
		Events: bus,
		Log:    logger,
	}
	loyaltyHandler := &loyalty.Handler{Svc: loyaltySvc}

	estimator := &shipping.Estimator{
		Rates: loadShippingRates(ctx, queries, cfg, logger),
		Log:   logger,
	}

	providers := map[string]payment.Provider{
		"razorpay": payment.Razorpay{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			Sandbox:   cfg.AppEnv != "production",
		},
	}
	activeProvider := providers[cfg.PaymentProvider]
	if activeProvider == nil {
		activeProvider = providers["razorpay"]
	}
	paymentSvc := &payment.Service{
		Q:               queries,
		Provider:        activeProvider,
		SessionTTL:      30 * time.Minute,
		Currency:        cfg.CurrencyCode,
		CallbackBaseURL: cfg.PaymentCallbackBaseURL,
	}
	paymentHandler := &payment.Handler{Svc: paymentSvc}

	checkoutSvc := &checkout.Service{
		Q:          queries,
		Tx:         checkout.StoreTx{S: queries},
		Estimator:  estimator,
		Loyalty:    loyaltySvc,
		Payment:    paymentSvc,
		Events:     bus,
		Tasks:      taskClient,
		Validate:   validate,
		Log:        logger,
		Currency:   cfg.CurrencyCode,
		GSTRatePct: cfg.GSTRatePct(),
		AwardAsync: cfg.LoyaltyAwardAsync,
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	orderSvc := &order.Service{Q: queries, Events: bus}
	orderHandler := &order.Handler{Svc: orderSvc}
	orderAdmin := &order.AdminHandler{Svc: orderSvc}

	shipSvc := &shipping.Service{
		Q:                      queries,
		Provider:               &shipping.StaticProvider{},
		Mail:                   mailer,
		NotifyOnShipped:        true,
		NotifyOnOutForDelivery: true,
		NotifyOnDelivered:      true,
		Events:                 bus,
	}
	shipHandler := &shipping.Handler{Svc: shipSvc, Estimator: estimator, Q: queries}
	shipWebhook := shipping.Webhook{Svc: shipSvc, Replay: redisClient, ReplayTTL: cfg.TrackReplayTTL}

	paymentWebhook := payment.Webhook{
		Q:         queries,
		Providers: providers,
		Replay:    redisClient,
		ReplayTTL: cfg.TrackReplayTTL,
		Events:    bus,
		Awarder:   checkoutSvc,
		Log:       logger,
	}

	// The event bus schedules the low-stock task, so the service's direct
	// alert hook stays unset to avoid double enqueueing.
	inventorySvc := &inventory.Service{
		Q:            queries,
		Locker:       lock.Locker{R: redisClient},
		LockTTL:      5 * time.Second,
		LowThreshold: int32(cfg.LowStockThreshold),
		Events:       bus,
		Log:          logger,
	}
	inventoryHandler := &inventory.Handler{Svc: inventorySvc}

	vendorSvc := &vendor.Service{
		Q:        queries,
		Tx:       vendor.StoreTx{S: queries},
		Events:   bus,
		Validate: validate,
		Log:      logger,
	}
	vendorHandler := &vendor.Handler{Svc: vendorSvc}

	auditRec := &audit.Recorder{Q: queries, Log: logger}
	auditHandler := &audit.Handler{Rec: auditRec}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var rateLimitMW func(http.Handler) http.Handler
	if cfg.RateLimitPerMinute > 0 {
		lim, err := ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise rate limiter")
		}
		rl := ratelimit.Handler{
			Limiter: lim,
			Key:     ratelimit.ByClientIP,
			OnError: func(err error) {
				logger.Error().Err(err).Msg("rate limiter unavailable")
			},
		}
		rateLimitMW = rl.Middleware
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.EnableHSTS}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(security.CSRF{SessionCookie: "of_access"}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "Idempotency-Key", cart.AnonIDHeader},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if rateLimitMW != nil {
		r.Use(rateLimitMW)
	}

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Prober:       health.Probes{Pool: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(authMW.Authenticate)

		v.Get("/categories", catalogHandler.Categories)
		v.Get("/products", catalogHandler.List)
		v.Get("/products/{slug}", catalogHandler.Get)

		v.Post("/shipping/quote", shipHandler.Quote)
		v.Get("/track/{trackingNumber}", shipHandler.Track)

		v.Route("/auth", func(a chi.Router) {
			a.Post("/register", authHandler.Register)
			a.Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)
			a.With(authMW.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/me", func(me chi.Router) {
			me.Use(authMW.RequireAuth)
			me.Get("/profile", userHandler.GetProfile)
			me.Put("/profile", userHandler.UpdateProfile)
			me.Get("/addresses", userHandler.ListAddresses)
			me.Post("/addresses", userHandler.AddAddress)
			me.Delete("/addresses/{addressID}", userHandler.DeleteAddress)
		})

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/items", cartHandler.AddItem)
				g.Patch("/items/{itemId}", cartHandler.UpdateItem)
				g.Delete("/items/{itemId}", cartHandler.RemoveItem)
			})
		})

		v.With(idem.Middleware, authMW.RequireAuth).Post("/checkout", checkoutHandler.Online)

		v.Group(func(authed chi.Router) {
			authed.Use(authMW.RequireAuth)
			authed.Get("/orders", orderHandler.List)
			authed.Get("/orders/{id}", orderHandler.Get)
			authed.Post("/orders/{id}/cancel", orderHandler.Cancel)
			authed.Post("/orders/{id}/payment-session", paymentHandler.CreateSession)
			authed.Get("/orders/{orderId}/shipment", shipHandler.GetByOrder)
			authed.Get("/loyalty/balance", loyaltyHandler.Balance)
			authed.Get("/loyalty/ledger", loyaltyHandler.Ledger)
		})

		v.With(idem.Middleware, authMW.RequireRole("staff", "admin")).Post("/pos/checkout", checkoutHandler.InStore)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMW.RequireRole("admin"))
			admin.Use(auditTrail(auditRec))

			admin.Get("/orders", orderAdmin.List)
			admin.Get("/orders/{id}", orderAdmin.Get)
			admin.Patch("/orders/{id}/status", orderAdmin.PatchStatus)
			admin.Post("/orders/{id}/shipment", shipHandler.AdminCreate)
			admin.Post("/orders/{id}/shipment/events", shipHandler.AdminAppendEvent)

			admin.Get("/shipping/rates", shipHandler.GetRates)
			admin.Put("/shipping/rates", shipHandler.UpdateRates)

			admin.Post("/loyalty/{userId}/adjust", loyaltyHandler.AdminAdjust)

			admin.Post("/vendors", vendorHandler.CreateVendor)
			admin.Put("/vendors/{vendorID}", vendorHandler.UpdateVendor)
			admin.Get("/vendors", vendorHandler.ListVendors)
			admin.Post("/purchase-orders", vendorHandler.CreatePO)
			admin.Get("/purchase-orders", vendorHandler.ListPOs)
			admin.Get("/purchase-orders/{poID}", vendorHandler.GetPO)
			admin.Post("/purchase-orders/{poID}/receive", vendorHandler.ReceivePO)

			admin.Patch("/inventory/{variantID}", inventoryHandler.Adjust)
			admin.Get("/inventory/low-stock", inventoryHandler.LowStock)

			admin.Get("/audit-logs", auditHandler.List)
		})

		v.Post("/webhooks/payment/{provider}", paymentWebhook.Handle)
		v.Post("/webhooks/shipping/{courier}", shipWebhook.Handle)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// loadShippingRates pulls the active rate table, falling back to the
// configured origin with stock band rates when none has been saved yet.
func loadShippingRates(ctx context.Context, queries *store.Store, cfg *config.Config, logger zerolog.Logger) shipping.Rates {
	rc, err := queries.GetShippingRateConfig(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error().Err(err).Msg("load shipping rates")
		}
		return shipping.Rates{
			OriginState:   cfg.StoreState,
			OriginCity:    cfg.StoreCity,
			LocalMin:      30,
			LocalMax:      50,
			InterstateMin: 60,
			InterstateMax: 90,
		}
	}
	return shipping.Rates{
		OriginState:   rc.OriginState,
		OriginCity:    rc.OriginCity,
		LocalMin:      rc.LocalMin,
		LocalMax:      rc.LocalMax,
		InterstateMin: rc.InterstateMin,
		InterstateMax: rc.InterstateMax,
	}
}

// auditTrail records successful admin mutations with the acting user and route.
func auditTrail(rec *audit.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			sr := obs.NewStatusRecorder(w)
			next.ServeHTTP(sr, r)
			if sr.Status() >= 200 && sr.Status() < 300 {
				rec.Record(r, strings.ToLower(r.Method), adminEntity(r.URL.Path), "", map[string]any{
					"path":   r.URL.Path,
					"status": sr.Status(),
				})
			}
		})
	}
}

func adminEntity(path string) string {
	const prefix = "/api/v1/admin/"
	rest := strings.TrimPrefix(path, prefix)
	if rest == path {
		return "admin"
	}
	if idx := strings.IndexByte(rest, '/'); idx > 0 {
		return rest[:idx]
	}
	return rest
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
