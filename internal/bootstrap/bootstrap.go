package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "portfolio-server-go/internal/domain/auth"
	domaincontent "portfolio-server-go/internal/domain/content"
	"portfolio-server-go/internal/domain/eventbus"
	platformconfig "portfolio-server-go/internal/platform/config"
	platformerrors "portfolio-server-go/internal/platform/errors"
	platformlogging "portfolio-server-go/internal/platform/logging"
	"portfolio-server-go/internal/platform/kv"
	platformstorage "portfolio-server-go/internal/platform/storage"
	httptransport "portfolio-server-go/internal/transport/http"
	httpwebapi "portfolio-server-go/internal/transport/http/webapi"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger
	db         *gorm.DB
	store      kv.Store
	bus        *eventbus.Bus
	auth       *domainauth.Service
	content    *domaincontent.Manager
}

// Run drives the whole service lifecycle: configuration, dependency
// initialisation, HTTP serving and graceful shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}
	if state.auth == nil || state.content == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"domain services not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	defer func() {
		if err := state.auth.Close(); err != nil {
			logger.ErrorTag("auth", "auth service did not close cleanly: %v", err)
		}
		if state.store != nil {
			if err := state.store.Close(context.Background()); err != nil {
				logger.ErrorTag("store", "key-value store did not close cleanly: %v", err)
			}
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start HTTP service: %w", err)
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("bootstrap", "server stopped")
	logger.Close()
	return nil
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag("bootstrap", "initialisation order")
	for _, step := range steps {
		logger.InfoTag("bootstrap", "  %s", step.Title)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph declares the dependency-ordered initialisation steps.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Initialise database",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "kv:init-store",
			Title:     "Initialise key-value store",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindStorage,
			Execute:   initStoreStep,
		},
		{
			ID:        "auth:init-service",
			Title:     "Initialise authentication service",
			DependsOn: []string{"kv:init-store"},
			Kind:      platformerrors.KindAuth,
			Execute:   initAuthStep,
		},
		{
			ID:        "content:init-manager",
			Title:     "Initialise content manager",
			DependsOn: []string{"kv:init-store"},
			Kind:      platformerrors.KindContent,
			Execute:   initContentStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "logging:init", "config not loaded")
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init", "failed to initialise logging", err)
	}
	state.logger = logger

	origin := state.configPath
	if origin == "" {
		origin = "built-in defaults"
	}
	logger.InfoTag("bootstrap", "logging ready [%s], config from %s", state.config.Log.Level, origin)
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindStorage, "storage:init-database", "config not loaded")
	}

	// Only the sqlite driver needs a database handle.
	if !strings.EqualFold(state.config.Store.Driver, kv.DriverSQLite) {
		return nil
	}

	db, err := platformstorage.Open(state.config.Store.SQLite.DSN)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-database", "failed to open database", err)
	}
	state.db = db
	return nil
}

func initStoreStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindStorage, "kv:init-store", "config not loaded")
	}

	cfg := kv.Config{
		Driver:    strings.ToLower(strings.TrimSpace(state.config.Store.Driver)),
		Namespace: state.config.Store.Namespace,
		Redis: &kv.RedisConfig{
			Addr:     state.config.Store.Redis.Addr,
			Username: state.config.Store.Redis.Username,
			Password: state.config.Store.Redis.Password,
			DB:       state.config.Store.Redis.DB,
			Prefix:   state.config.Store.Redis.Prefix,
		},
		SQLite: &kv.SQLiteConfig{
			DSN: state.config.Store.SQLite.DSN,
		},
	}
	if cfg.Driver == kv.DriverRedis && cfg.Redis.Addr == "" {
		return platformerrors.New(platformerrors.KindStorage, "kv:init-store", "redis store addr is required")
	}

	store, err := kv.New(cfg, kv.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "kv:init-store", "failed to create key-value store", err)
	}
	state.store = store
	state.bus = eventbus.New()

	state.logger.InfoTag("store", "key-value store ready [%s]", cfg.Driver)
	return nil
}

func initAuthStep(_ context.Context, state *appState) error {
	if state.store == nil || state.logger == nil {
		return platformerrors.New(platformerrors.KindAuth, "auth:init-service", "missing store/logger")
	}

	svc, err := domainauth.NewService(domainauth.Options{
		Store:          state.store,
		Logger:         state.logger,
		Bus:            state.bus,
		PasswordDigest: state.config.Auth.PasswordSHA256,
		Config: domainauth.Config{
			SessionTimeout:   state.config.Auth.SessionTimeout.Std(),
			MaxLoginAttempts: state.config.Auth.MaxLoginAttempts,
			LockoutDuration:  state.config.Auth.LockoutDuration.Std(),
		},
		CheckInterval: state.config.Auth.CheckInterval.Std(),
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "auth:init-service", "failed to create auth service", err)
	}
	state.auth = svc
	return nil
}

func initContentStep(_ context.Context, state *appState) error {
	if state.store == nil || state.logger == nil {
		return platformerrors.New(platformerrors.KindContent, "content:init-manager", "missing store/logger")
	}

	var source domaincontent.Source
	if base := state.config.Content.BaseURL; base != "" {
		source = domaincontent.HTTPSource{BaseURL: base}
	} else {
		source = domaincontent.FileSource{Dir: state.config.Content.DataDir}
	}

	manager, err := domaincontent.NewManager(domaincontent.Options{
		Store:  state.store,
		Logger: state.logger,
		Bus:    state.bus,
		Source: source,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindContent, "content:init-manager", "failed to create content manager", err)
	}
	state.content = manager
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	router := httpRouter.Engine

	staticRoot := config.Web.StaticDir
	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") {
			c.JSON(http.StatusNotFound, httptransport.APIResponse{
				Success: false,
				Data:    gin.H{},
				Message: "api not found",
				Code:    http.StatusNotFound,
			})
			return
		}

		// Single-page UI: unknown paths fall through to the entry document.
		c.File(staticRoot + "/index.html")
	})

	webapiService, err := httpwebapi.NewService(config, logger, state.auth, state.content)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "webapi:new-service", "failed to create webapi service", err)
	}
	webapiService.Register(httpRouter.API)

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "server listening on http://localhost:%d", config.Server.Port)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down gracefully")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("bootstrap", "received shutdown signal, cleaning up")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("bootstrap", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("bootstrap", "all services stopped")
	case <-time.After(15 * time.Second):
		timeoutErr := errors.New("shutdown timed out")
		logger.ErrorTag("bootstrap", "shutdown timed out, exiting")
		return timeoutErr
	}
	return nil
}
