package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/npolukhin/shortlink/internal/config"
	"github.com/npolukhin/shortlink/internal/controllers"
	"github.com/npolukhin/shortlink/internal/db"
	"github.com/npolukhin/shortlink/internal/db/memory"
	"github.com/npolukhin/shortlink/internal/ratelimit"
	"github.com/npolukhin/shortlink/internal/services"
	"github.com/npolukhin/shortlink/internal/workers"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 5 * time.Minute
)

type App struct {
	config     config.Config
	dbServices *services.Services
	clickQueue *workers.ClickQueue

	createLimiter *ratelimit.Limiter
	aliasLimiter  *ratelimit.Limiter

	Logger *logrus.Logger
}

func New(conf config.Config) (*App, error) {
	logger := conf.Logger
	if logger == nil {
		logger = logrus.New()
	}

	repo, pinger, repoErr := initRepository(conf, logger)
	if repoErr != nil {
		return nil, fmt.Errorf("init repository: %w", repoErr)
	}

	gen, genErr := services.NewCodeGenerator(conf.CodeAlphabet, conf.CodeLength)
	if genErr != nil {
		return nil, fmt.Errorf("init code generator: %w", genErr)
	}

	clickQueue := workers.NewClickQueue(repo, conf.ClickBuffer, logger)

	dbServices := services.Factory(services.FactoryParams{
		Repo:       repo,
		Pinger:     pinger,
		Gen:        gen,
		Clicks:     clickQueue,
		DefaultTTL: conf.DefaultExpiry,
		Logger:     logger,
	})

	return &App{
		config:     conf,
		dbServices: dbServices,
		clickQueue: clickQueue,
		createLimiter: ratelimit.New(ratelimit.Policy{
			Limit:  conf.CreateLimit,
			Window: conf.CreateWindow,
		}),
		aliasLimiter: ratelimit.New(ratelimit.Policy{
			Limit:  conf.AliasLimit,
			Window: conf.AliasWindow,
		}),
		Logger: logger,
	}, nil
}

// Must вызывает панику если произошла ошибка.
func Must(a *App, err error) *App {
	if err != nil {
		panic(err)
	}
	return a
}

// Run запускает web сервер и фоновые процессы, блокируется до сигнала
// остановки. Очередь кликов доливается в хранилище перед выходом.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.clickQueue.Start(a.config.ClickWorkers)
	a.createLimiter.StartSweeper(ctx, sweepInterval)
	a.aliasLimiter.StartSweeper(ctx, sweepInterval)

	router := controllers.SetupRouter(controllers.RouterParams{
		LinkService:   a.dbServices.Links,
		StatsReader:   a.dbServices.Stats,
		PingService:   a.dbServices.Ping,
		AppConf:       a.config,
		Logger:        a.Logger,
		CreateLimiter: a.createLimiter,
		AliasLimiter:  a.aliasLimiter,
	})

	server := &http.Server{
		Addr:    a.config.ServerAddress,
		Handler: router,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Shutdown command received")
	case serverErr = <-errChan:
		a.Logger.WithError(serverErr).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		a.Logger.WithError(shutdownErr).Error("server shutdown error")
	}

	// доливаем накопленные клики, чтобы не потерять аналитику
	a.clickQueue.Close()
	a.Logger.Info("Click queue drained, bye")

	return serverErr
}

// initRepository создает подключение к выбранному хранилищу и
// репозиторий поверх него.
func initRepository(conf config.Config, logger *logrus.Logger) (services.LinkRepository, services.Pinger, error) {
	switch conf.DBType {
	case config.DBTypeSQLite:
		conn, connErr := db.NewSQLite(conf.SQLitePath)
		if connErr != nil {
			return nil, nil, connErr //nolint:wrapcheck
		}
		return services.NewRepository(conn, services.ServiceTypeSQLite, logger)
	case config.DBTypeInMemory:
		return services.NewRepository(memory.NewMStorage(), services.ServiceTypeInMemory, logger)
	default:
		return nil, nil, fmt.Errorf("unknown db type: %s", conf.DBType)
	}
}
