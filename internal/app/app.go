package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/nawalpathak-sudo/leetcode-sub000/external/codeforces"
	"github.com/nawalpathak-sudo/leetcode-sub000/external/jobqueue"
	"github.com/nawalpathak-sudo/leetcode-sub000/external/leetcode"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/config"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/platform"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/domain/student"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/infrastructure/repository/memory"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/infrastructure/repository/postgres"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/interfaces/httpapi"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/cache"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/logging"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/resilience"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// App owns the wired service graph: repositories, platform clients, usecase
// services, the HTTP server and the background refresh scheduler.
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	zlogger *logging.Logger
	server  *http.Server
	db      *sqlx.DB
	refresh *usecase.RefreshService
	queue   *jobqueue.QStashPublisher

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger, zlogger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if zlogger == nil {
		zlogger = logging.Default()
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		zlogger: zlogger,
		stop:    make(chan struct{}),
	}

	studentRepo, profileRepo, err := a.buildRepositories()
	if err != nil {
		return nil, err
	}

	var cacheStore *cache.Store
	if cfg.CacheEnabled {
		cacheStore = cache.NewStore(cfg.CacheTTL)
	}

	fetchers := a.buildFetchers()

	boardService := usecase.NewLeaderboardService(studentRepo, profileRepo, cacheStore, zlogger)

	var invalidator usecase.RefreshCacheInvalidator
	if cacheStore != nil {
		invalidator = cacheStore
	}
	a.refresh = usecase.NewRefreshService(
		usecase.RefreshConfig{Enabled: cfg.RefreshEnabled, MaxWorkers: cfg.RefreshMaxWorkers},
		profileRepo,
		fetchers,
		invalidator,
		zlogger,
	)

	if cfg.QStashEnabled {
		a.queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	handler := httpapi.NewHandler(boardService, a.refresh, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	a.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if a.server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return a, nil
}

func (a *App) Server() *http.Server {
	return a.server
}

func (a *App) buildRepositories() (student.Repository, student.ProfileRepository, error) {
	if a.cfg.DBURL == "" {
		a.logger.Info("DB_URL is empty, using seeded in-memory repositories")
		repo := memory.NewStudentRepository()
		if err := memory.Seed(repo); err != nil {
			return nil, nil, fmt.Errorf("seed in-memory repositories: %w", err)
		}
		return repo, repo, nil
	}

	dsn := normalizeDBURL(a.cfg.DBURL, a.cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(a.cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	a.db = db

	repo := postgres.NewStudentRepository(db)
	return repo, repo, nil
}

func (a *App) buildFetchers() map[platform.Platform]usecase.ProfileFetcher {
	fetchers := make(map[platform.Platform]usecase.ProfileFetcher, 2)

	if a.cfg.LeetCodeEnabled {
		fetchers[platform.LeetCode] = leetcode.NewClient(leetcode.ClientConfig{
			BaseURL:    a.cfg.LeetCodeBaseURL,
			Timeout:    a.cfg.LeetCodeTimeout,
			MaxRetries: a.cfg.LeetCodeMaxRetries,
			Logger:     a.zlogger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          a.cfg.LeetCodeCircuitEnabled,
				FailureThreshold: a.cfg.LeetCodeCircuitFailureCount,
				OpenTimeout:      a.cfg.LeetCodeCircuitOpenTimeout,
				HalfOpenMaxReq:   a.cfg.LeetCodeCircuitHalfOpenMaxReq,
			},
		})
	}

	if a.cfg.CodeforcesEnabled {
		fetchers[platform.Codeforces] = codeforces.NewClient(codeforces.ClientConfig{
			BaseURL:    a.cfg.CodeforcesBaseURL,
			Timeout:    a.cfg.CodeforcesTimeout,
			MaxRetries: a.cfg.CodeforcesMaxRetries,
			Logger:     a.zlogger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          a.cfg.CodeforcesCircuitEnabled,
				FailureThreshold: a.cfg.CodeforcesCircuitFailureCount,
				OpenTimeout:      a.cfg.CodeforcesCircuitOpenTimeout,
				HalfOpenMaxReq:   a.cfg.CodeforcesCircuitHalfOpenMaxReq,
			},
		})
	}

	return fetchers
}

// StartBackgroundRefresh runs the periodic snapshot refresh until Close is
// called. With QStash enabled the tick only enqueues a job, so the queue's
// delivery guarantees apply; otherwise the refresh runs in-process.
func (a *App) StartBackgroundRefresh() {
	if !a.cfg.RefreshEnabled {
		a.logger.Info("background refresh disabled", "reason", "REFRESH_ENABLED=false")
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ticker := time.NewTicker(a.cfg.RefreshInterval)
		defer ticker.Stop()

		a.logger.Info("background refresh scheduled", "interval", a.cfg.RefreshInterval.String())
		for {
			select {
			case <-a.stop:
				return
			case tick := <-ticker.C:
				a.runScheduledRefresh(tick)
			}
		}
	}()
}

func (a *App) runScheduledRefresh(tick time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.RefreshInterval)
	defer cancel()

	if a.queue != nil {
		dedupID := "scheduled-refresh-" + tick.UTC().Format("20060102T150405Z")
		err := a.queue.Enqueue(ctx, jobqueue.RefreshJobPath, map[string]any{}, 0, dedupID)
		if err != nil {
			a.logger.ErrorContext(ctx, "enqueue scheduled refresh failed", "error", err)
		}
		return
	}

	result, err := a.refresh.Refresh(ctx, usecase.RefreshInput{})
	if err != nil {
		a.logger.ErrorContext(ctx, "scheduled refresh failed", "error", err)
		return
	}
	a.logger.InfoContext(ctx, "scheduled refresh finished",
		"profiles", result.ProfileCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"elapsed_ms", result.ElapsedMs,
	)
}

func (a *App) Close(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stop) })
	a.wg.Wait()

	var firstErr error
	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("shutdown http server: %w", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}

	return firstErr
}
