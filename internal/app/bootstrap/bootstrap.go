// Package bootstrap is the composition root: it owns every infra adapter
// construction and wires them into the core packages and bounded contexts
// declared throughout this repo. No other package imports a concrete
// adapter package directly from outside its own context — this is the one
// place allowed to know every concrete type in the module.
package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	membershipapp "wayfinder/contexts/billing/membership-service/application"
	membershipdomain "wayfinder/contexts/billing/membership-service/domain"
	membershipports "wayfinder/contexts/billing/membership-service/ports"
	membershipmemory "wayfinder/contexts/billing/membership-service/adapters/memory"
	membershipstripe "wayfinder/contexts/billing/membership-service/adapters/stripe"

	cycleapp "wayfinder/contexts/decision-core/cycle-service/application"
	cycleports "wayfinder/contexts/decision-core/cycle-service/ports"
	cyclepostgres "wayfinder/contexts/decision-core/cycle-service/adapters/postgres"

	sessionapp "wayfinder/contexts/identity/session-service/application"
	sessionmemory "wayfinder/contexts/identity/session-service/adapters/memory"
	"wayfinder/contexts/identity/session-service/adapters/jwtauth"

	analysisapp "wayfinder/internal/core/analysis/application"
	analysisports "wayfinder/internal/core/analysis/ports"

	conversationapp "wayfinder/internal/core/conversation/application"
	conversationdomain "wayfinder/internal/core/conversation/domain"
	conversationagentspecs "wayfinder/internal/core/conversation/adapters/agentspecs"
	conversationpostgres "wayfinder/internal/core/conversation/adapters/postgres"

	eventbusapp "wayfinder/internal/core/eventbus/application"
	eventbuspostgres "wayfinder/internal/core/eventbus/adapters/postgres"

	llmapp "wayfinder/internal/core/llm/application"
	llmports "wayfinder/internal/core/llm/ports"
	"wayfinder/internal/core/llm/providers/anthropic"
	"wayfinder/internal/core/llm/providers/openai"

	outboxapp "wayfinder/internal/core/outbox/application"
	outboxpostgres "wayfinder/internal/core/outbox/adapters/postgres"

	"wayfinder/internal/core/resilience/circuitbreaker"
	"wayfinder/internal/core/resilience/ratelimiter"
	connregistryredis "wayfinder/internal/core/resilience/connectionregistry/adapters/redis"

	usagetrackerdomain "wayfinder/internal/core/resilience/usagetracker/domain"
	usagetrackerports "wayfinder/internal/core/resilience/usagetracker/ports"
	usagetrackerpostgres "wayfinder/internal/core/resilience/usagetracker/adapters/postgres"
	usagetrackerapp "wayfinder/internal/core/resilience/usagetracker/application"

	webhookapp "wayfinder/internal/core/resilience/webhookidempotency/application"
	webhookpostgres "wayfinder/internal/core/resilience/webhookidempotency/adapters/postgres"

	"wayfinder/internal/platform/config"
	"wayfinder/internal/platform/db"
	"wayfinder/internal/platform/httpserver"
	"wayfinder/internal/platform/logging"
	"wayfinder/internal/platform/metrics"
	"wayfinder/internal/shared/events"
)

// APIApp owns every long-lived resource the HTTP process holds: the HTTP
// server itself and the database connection it and its modules share.
type APIApp struct {
	Config config.Config
	Logger *slog.Logger
	Server *httpserver.Server
	closeFns []func() error
}

// WorkerApp owns the background relay/sweep loops: the outbox publisher,
// its periodic cleanup sweeps, and nothing HTTP-facing.
type WorkerApp struct {
	Config    config.Config
	Logger    *slog.Logger
	Publisher outboxapp.Publisher
	Cron      *cron.Cron
	closeFns  []func() error
}

// utcNow is the Clock every application-layer type in this process is
// wired with, a single injected real-clock function rather than calling
// time.Now inline.
func utcNow() time.Time { return time.Now().UTC() }

// outboxClock adapts utcNow to outbox/ports.Clock's interface shape, the
// one core package in this repo that declares Clock as an interface rather
// than a bare func type.
type outboxClock struct{}

func (outboxClock) Now() time.Time { return utcNow() }

// cycleSessionReader adapts cycle-service's CycleReader.GetByID into the
// narrow GetSessionID the analysis trigger handler needs, since cycle
// service never exposes a direct cycle-to-session lookup of its own.
type cycleSessionReader struct {
	reader cycleports.CycleReader
}

func (r cycleSessionReader) GetSessionID(ctx context.Context, cycleID string) (string, error) {
	cycle, err := r.reader.GetByID(ctx, cycleID)
	if err != nil {
		return "", err
	}
	return cycle.SessionID, nil
}

// usageTrackerAdapter translates resilience/usagetracker's own LimitStatus
// vocabulary into membership-service's locally declared mirror, so
// membership's application.Service never imports internal/core/resilience.
type usageTrackerAdapter struct {
	tracker usagetrackerports.Tracker
}

func (a usageTrackerAdapter) CheckDailyLimit(ctx context.Context, userID string, limitCents int64) (membershipports.LimitStatus, error) {
	status, err := a.tracker.CheckDailyLimit(ctx, userID, limitCents)
	if err != nil {
		return membershipports.LimitUnderWarning, err
	}
	switch status {
	case usagetrackerdomain.Warning:
		return membershipports.LimitWarning, nil
	case usagetrackerdomain.Blocked:
		return membershipports.LimitBlocked, nil
	default:
		return membershipports.LimitUnderWarning, nil
	}
}

// breakerGatedProvider wraps an llm/ports.AIProvider with a circuit breaker,
// tripping Open on the primary provider after consecutive failures rather
// than letting every request pay the upstream's full timeout once it starts
// failing.
type breakerGatedProvider struct {
	inner   llmports.AIProvider
	breaker *circuitbreaker.CircuitBreaker
}

func (p breakerGatedProvider) Complete(ctx context.Context, req llmports.CompletionRequest) (llmports.CompletionResponse, error) {
	if !p.breaker.ShouldAllow() {
		return llmports.CompletionResponse{}, context.DeadlineExceeded
	}
	resp, err := p.inner.Complete(ctx, req)
	if err != nil {
		p.breaker.RecordFailure()
		return resp, err
	}
	p.breaker.RecordSuccess()
	return resp, nil
}

func (p breakerGatedProvider) StreamComplete(ctx context.Context, req llmports.CompletionRequest) (<-chan llmports.StreamChunk, error) {
	if !p.breaker.ShouldAllow() {
		return nil, context.DeadlineExceeded
	}
	ch, err := p.inner.StreamComplete(ctx, req)
	if err != nil {
		p.breaker.RecordFailure()
		return nil, err
	}
	p.breaker.RecordSuccess()
	return ch, nil
}

func (p breakerGatedProvider) EstimateTokens(text string) int { return p.inner.EstimateTokens(text) }
func (p breakerGatedProvider) ProviderInfo() llmports.ProviderInfo { return p.inner.ProviderInfo() }

// BuildAPI wires every context's application service to the HTTP
// composition root and returns a ready-to-Run APIApp.
func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging)

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	outboxRepo := outboxpostgres.NewRepository(gormDB, logger)
	outboxWriter := outboxapp.Writer{Repo: outboxRepo, Logger: logger}

	bus := eventbusapp.NewBus(logger)
	processedStore := eventbuspostgres.NewStore(gormDB, logger)

	// the outbox relay loop itself runs only in cmd/worker; the API process
	// only writes outbox entries (via outboxWriter) and reacts to the bus.

	// --- cycle-service ---
	cycleStore := cyclepostgres.NewStore(gormDB)
	cycleService := cycleapp.Service{
		Cycles: cycleStore,
		Outbox: outboxWriter,
		IDs:    uuid.NewString,
		Clock:  utcNow,
		Logger: logger,
	}

	// --- analysis trigger (subscribed below) ---
	analysisHandler := analysisapp.TriggerHandler{
		Cycles:  cycleSessionReader{reader: cycleStore},
		Outputs: analysisComponentOutputReader(cycleStore),
		Outbox:  outboxWriter,
		Clock:   utcNow,
		Logger:  logger,
	}
	bus.Subscribe(events.TypeComponentCompleted, eventbusapp.IdempotentHandler{
		Inner:  analysisHandler,
		Store:  processedStore,
		Logger: logger,
	})

	// --- resilience: usage tracker ---
	usageTracker := usagetrackerpostgres.NewTracker(gormDB, logger)
	bus.Subscribe(events.TypeAITokensUsed, eventbusapp.IdempotentHandler{
		Inner:  usagetrackerapp.UsageEventHandler{Tracker: usageTracker, Clock: utcNow},
		Store:  processedStore,
		Logger: logger,
	})

	// --- resilience: circuit breaker over the primary LLM provider ---
	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Resilience.CircuitBreakerFailureThreshold,
		SuccessThreshold: cfg.Resilience.CircuitBreakerSuccessThreshold,
		RecoveryTimeout:  time.Duration(cfg.Resilience.CircuitBreakerRecoverySeconds) * time.Second,
		Clock:            utcNow,
		OnStateChange: func(from, to circuitbreaker.State) {
			metrics.CircuitBreakerTransitionsTotal.WithLabelValues("llm_primary", to.String()).Inc()
		},
	})

	// --- resilience: rate limiter (gates conversation message sends) ---
	limiter := ratelimiter.New(ratelimiter.Config{
		RequestsPerMinute: float64(cfg.Resilience.RateLimitRequestsPerSecond) * 60,
		Burst:             cfg.Resilience.RateLimitBurst,
		Clock:             utcNow,
	})

	// --- resilience: connection registry ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	connRegistry := connregistryredis.NewRegistry(redisClient, time.Duration(cfg.Resilience.ConnectionRegistryTTLSeconds)*time.Second)

	// --- llm ---
	primaryProvider := llmports.AIProvider(anthropic.New(cfg.LLM.AnthropicAPIKey, "claude-3-5-sonnet-20241022"))
	fallbackProvider := llmports.AIProvider(openai.New(cfg.LLM.OpenAIAPIKey, "gpt-3.5"))
	failover := llmapp.FailoverProvider{
		Primary:  breakerGatedProvider{inner: primaryProvider, breaker: breaker},
		Fallback: fallbackProvider,
		Outbox:   outboxWriter,
		Clock:    utcNow,
		Logger:   logger,
	}
	conversationClient := llmapp.ConversationClient{Provider: failover}

	// --- conversation ---
	conversationStore := conversationpostgres.NewStore(gormDB)
	agentSpecs := conversationagentspecs.NewRegistry()
	orchestrator := conversationapp.Orchestrator{
		Storage:  conversationStore,
		Specs:    agentSpecs,
		AI:       conversationClient,
		Eligible: defaultEligibilityPolicy,
		Clock:    utcNow,
		Logger:   logger,
	}

	// --- membership-service ---
	membershipStore := membershipmemory.NewStore()
	priceIDs := map[membershipdomain.Tier]string{
		membershipdomain.TierPro:  cfg.Payment.StripePriceIDPro,
		membershipdomain.TierTeam: cfg.Payment.StripePriceIDTeam,
	}
	paymentProvider := membershipstripe.New(cfg.Payment.StripeSecretKey, priceIDs, cfg.Webhook.PaymentSigningSecret)
	membershipService := membershipapp.Service{
		Repo:                membershipStore,
		Payment:             paymentProvider,
		Usage:               usageTrackerAdapter{tracker: usageTracker},
		Outbox:              outboxWriter,
		Clock:               utcNow,
		Logger:              logger,
		DailyCostLimitCents: int64(cfg.Resilience.UsageDailyLimitCents),
	}

	// --- session-service ---
	sessionStore := sessionmemory.NewStore()
	tokenValidator := jwtauth.New(cfg.Auth.JWTSecret)
	sessionService := sessionapp.Service{
		Repo:      sessionStore,
		Validator: tokenValidator,
		Auth:      tokenValidator,
		Outbox:    outboxWriter,
		IDs:       uuid.NewString,
		Clock:     utcNow,
		Logger:    logger,
	}

	// --- resilience: webhook idempotency, wired to membership activation ---
	webhookStore := webhookpostgres.NewStore(gormDB, logger)
	webhookHandler := webhookapp.Handler{
		Source:    "stripe",
		Verifier:  httpserver.NewPaymentSignatureVerifier(paymentProvider),
		Processor: httpserver.NewPaymentEventProcessor(paymentProvider, membershipService),
		Store:     webhookStore,
		Clock:     utcNow,
	}

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := httpserver.New(addr, logger)
	server.ServerID = uuid.NewString()
	server.Sessions = sessionService
	server.Cycles = cycleService
	server.CycleReader = cycleStore
	server.Membership = membershipService
	server.Conversation = orchestrator
	server.Webhooks = webhookHandler
	server.Bus = bus
	server.RateLimiter = limiter
	server.ConnectionRegistry = connRegistry
	server.RegisterRoutes()

	app := &APIApp{
		Config: cfg,
		Logger: logger,
		Server: server,
		closeFns: []func() error{
			func() error { sqlDB, err := gormDB.DB(); if err != nil { return err }; return sqlDB.Close() },
			func() error { return redisClient.Close() },
		},
	}
	return app, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Server.Start() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (a *APIApp) Close() error {
	var firstErr error
	for _, fn := range a.closeFns {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildWorker wires the outbox publisher relay loop and the cron-scheduled
// cleanup sweeps (outbox CleanupOld, webhook idempotency DeleteBefore).
func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging)

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	outboxRepo := outboxpostgres.NewRepository(gormDB, logger)
	bus := eventbusapp.NewBus(logger)

	publisher := outboxapp.Publisher{
		Repo:             outboxRepo,
		Bus:              bus,
		Clock:            outboxClock{},
		BatchSize:        100,
		Logger:           logger,
		OnPublishOutcome: func(outcome string) { metrics.OutboxPublishTotal.WithLabelValues(outcome).Inc() },
	}

	webhookStore := webhookpostgres.NewStore(gormDB, logger)

	c := cron.New()
	_, err = c.AddFunc("@every 1h", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := outboxRepo.CleanupOld(ctx, 7*24*time.Hour); err != nil {
			logger.Error("outbox cleanup failed",
				"event", "outbox_cleanup_failed",
				"module", "app/bootstrap",
				"error", err.Error(),
			)
		}
		if _, err := webhookStore.DeleteBefore(ctx, time.Now().UTC().Add(-30*24*time.Hour)); err != nil {
			logger.Error("webhook idempotency cleanup failed",
				"event", "webhook_cleanup_failed",
				"module", "app/bootstrap",
				"error", err.Error(),
			)
		}
	})
	if err != nil {
		return nil, err
	}

	app := &WorkerApp{
		Config:    cfg,
		Logger:    logger,
		Publisher: publisher,
		Cron:      c,
		closeFns: []func() error{
			func() error { sqlDB, err := gormDB.DB(); if err != nil { return err }; return sqlDB.Close() },
		},
	}
	return app, nil
}

func (a *WorkerApp) Run(ctx context.Context) error {
	a.Cron.Start()
	a.Publisher.Run(ctx, 2*time.Second)
	a.Cron.Stop()
	return nil
}

func (a *WorkerApp) Close() error {
	var firstErr error
	for _, fn := range a.closeFns {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// defaultEligibilityPolicy permits completing the current component once the
// conversation's message history holds at least one assistant message; the
// history is not filtered by component and current is not consulted. It is
// the simplest rule that
// treats "the component has produced output" as complete, without binding
// this process to any one component's domain-specific validation — that
// judgment call belongs to each component's own handler, recorded as a
// deliberate decision in DESIGN.md.
func defaultEligibilityPolicy(current conversationdomain.Component, state conversationdomain.State) bool {
	for _, msg := range state.MessageHistory {
		if msg.Role == conversationdomain.RoleAssistant {
			return true
		}
	}
	return false
}

// analysisComponentOutputReader narrows cycle-service's CycleReader (which
// cyclepostgres.Store already satisfies) down to the single method
// analysis/ports.ComponentOutputReader declares — the two interfaces'
// GetComponentOutput signatures are identical, so no translation is needed
// beyond the type name.
func analysisComponentOutputReader(reader cycleports.CycleReader) analysisports.ComponentOutputReader {
	return reader
}
