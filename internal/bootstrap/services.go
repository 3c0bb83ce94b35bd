package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/newsletter-api/config"
	"github.com/target/newsletter-api/internal/adapters/amqp"
	"github.com/target/newsletter-api/internal/adapters/email"
	"github.com/target/newsletter-api/internal/data"
	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService // nil unless the HTTP server is enabled
	Subscriptions *service.SubscriptionService
	Publish       *service.PublishService
	Delivery      *service.DeliveryService
	Events        *amqp.Publisher // nil when event publishing is disabled
	Observability ObservabilityContainer
}

// Close releases broker and metrics connections.
func (c ServiceContainer) Close() error {
	var errs []error
	if c.Events != nil {
		if err := c.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event publisher: %w", err))
		}
	}
	if c.Observability.MetricsSink != nil {
		if err := c.Observability.MetricsSink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close statsd client: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Tx            *data.TxManager
	Idempotency   *data.IdempotencyRepo
	Issues        *data.IssueRepo
	Queue         *data.DeliveryQueueRepo
	Subscriptions *data.SubscriptionRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, logger *slog.Logger) serviceRepositories {
	cfg := data.RepoConfig{Logger: logger}
	return serviceRepositories{
		Tx:            data.NewTxManager(db),
		Idempotency:   data.NewIdempotencyRepo(db, cfg),
		Issues:        data.NewIssueRepo(db, cfg),
		Queue:         data.NewDeliveryQueueRepo(db, cfg),
		Subscriptions: data.NewSubscriptionRepo(db, cfg),
	}
}

// NewEmailClient builds the outbound email client from config.
func NewEmailClient(cfg config.EmailClientConfig) (*email.Client, error) {
	sender, err := model.ParseSubscriberEmail(cfg.Sender)
	if err != nil {
		return nil, fmt.Errorf("invalid EMAIL_SENDER: %w", err)
	}
	return email.NewClient(email.Config{
		BaseURL:            cfg.BaseURL,
		Sender:             sender,
		AuthorizationToken: cfg.AuthorizationToken,
		Timeout:            cfg.Timeout,
	})
}

// NewServices wires business services from repositories and adapters.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.DB == nil {
		return ServiceContainer{}, errors.New("service deps require config and database")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs := buildObservability(logger, cfg.Observability)
	repos := buildRepositories(deps.DB, logger)
	container := ServiceContainer{Observability: obs}

	emailClient, err := NewEmailClient(cfg.Email)
	if err != nil {
		return container, err
	}

	if cfg.Events.Enabled() {
		pub, dialErr := amqp.Dial(amqp.Config{
			URL:      cfg.Events.AMQPURL,
			Exchange: cfg.Events.Exchange,
			Logger:   logger,
		})
		if dialErr != nil {
			return container, fmt.Errorf("connect event broker: %w", dialErr)
		}
		container.Events = pub
	}

	idem, err := service.NewIdempotencyService(service.IdempotencyServiceOptions{
		Repo:   repos.Idempotency,
		Logger: logger,
	})
	if err != nil {
		return container, fmt.Errorf("create idempotency service: %w", err)
	}

	publishOpts := service.PublishServiceOptions{
		Tx:          repos.Tx,
		Idempotency: idem,
		Repos:       service.PublishRepositories{Issues: repos.Issues, Queue: repos.Queue},
		Logger:      logger,
		Metrics:     obs.sink(),
	}
	if container.Events != nil {
		publishOpts.Events = container.Events
	}
	if container.Publish, err = service.NewPublishService(publishOpts); err != nil {
		return container, fmt.Errorf("create publish service: %w", err)
	}

	if container.Subscriptions, err = service.NewSubscriptionService(service.SubscriptionServiceOptions{
		Tx:      repos.Tx,
		Repo:    repos.Subscriptions,
		Email:   emailClient,
		BaseURL: cfg.HTTP.BaseURL,
		Logger:  logger,
	}); err != nil {
		return container, fmt.Errorf("create subscription service: %w", err)
	}

	if container.Delivery, err = service.NewDeliveryService(service.DeliveryServiceOptions{
		Tx:      repos.Tx,
		Queue:   repos.Queue,
		Issues:  repos.Issues,
		Email:   emailClient,
		Logger:  logger,
		Metrics: obs.sink(),
	}); err != nil {
		return container, fmt.Errorf("create delivery service: %w", err)
	}

	if cfg.IsHTTPServerEnabled() {
		if container.Auth, err = BuildAuthService(AuthConfig{
			Auth:        cfg.Auth,
			RedisClient: deps.RedisClient,
			Logger:      logger,
		}); err != nil {
			return container, fmt.Errorf("create auth service: %w", err)
		}
	}

	return container, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		DB:       deps.cfg.DB,
		Logger:   deps.logger,
		errCh:    deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := descriptor.start(ctx)
		if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{mode: svc.mode, name: svc.name, done: done})
	}
	return handles
}

func newDeliveryWorkerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeDeliveryWorker,
		name: "delivery worker",
		start: func(ctx context.Context) error {
			return RunDeliveryWorker(ctx, DeliveryWorkerConfig{
				Executor:        deps.cfg.Services.Delivery,
				Config:          deps.cfg.Config.DeliveryWorker,
				Logger:          deps.logger,
				FailureNotifier: deps.cfg.Services.Observability.FailureNotifier,
			})
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			return RunReaper(ctx, ReaperConfig{
				DB:      deps.cfg.DB,
				Logger:  deps.logger,
				Config:  deps.cfg.Config.Reaper,
				Metrics: deps.cfg.Services.Observability.sink(),
			})
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newDeliveryWorkerBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// RunServicesWithShutdown starts all enabled services and blocks until ctx is cancelled
// or a service fails.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	deps := &serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	}
	httpServer := startHTTPServerIfEnabled(deps)
	backgrounds := startBackgroundServices(deps, buildBackgroundServices(deps))

	var runErr error
	select {
	case <-serviceCtx.Done():
		logger.Info("shutting down services")
	case runErr = <-errCh:
		logger.Error("service error", "error", runErr)
	}
	cancel()

	if stopErr := gracefulStop(httpServer, backgrounds, cfg.Config.HTTP.ShutdownTimeout, logger); stopErr != nil {
		if runErr == nil {
			return stopErr
		}
		logger.Error("graceful stop failed", "error", stopErr)
	}
	return runErr
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// gracefulStop drains the HTTP server and then waits for background loops.
func gracefulStop(
	server *http.Server,
	backgrounds []backgroundServiceHandle,
	httpTimeout time.Duration,
	logger *slog.Logger,
) error {
	if server != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  server,
			Timeout: httpTimeout,
			Logger:  logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range backgrounds {
		waitForService(svc.done, svc.name, logger)
	}
	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
