package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/survivor-league/external/archive"
	"github.com/riskibarqy/survivor-league/external/jobqueue"
	"github.com/riskibarqy/survivor-league/internal/config"
	"github.com/riskibarqy/survivor-league/internal/domain/adjustment"
	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/jobrun"
	"github.com/riskibarqy/survivor-league/internal/domain/league"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	"github.com/riskibarqy/survivor-league/internal/domain/penalty"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	"github.com/riskibarqy/survivor-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/survivor-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/survivor-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/survivor-league/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/survivor-league/internal/platform/cache"
	idgen "github.com/riskibarqy/survivor-league/internal/platform/id"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"github.com/riskibarqy/survivor-league/internal/platform/resilience"
	"github.com/riskibarqy/survivor-league/internal/usecase"
)

const qstashTimeout = 10 * time.Second

type repositories struct {
	leagues     league.Repository
	games       game.Repository
	picks       pick.Repository
	memberships membership.Repository
	adjustments adjustment.Repository
	penalties   penalty.Repository
	jobRuns     jobrun.Repository
}

// Container holds the wired services shared by the HTTP API and the batch CLI.
type Container struct {
	League     *usecase.LeagueService
	Pick       *usecase.PickService
	Settlement *usecase.SettlementService
	Audit      *usecase.AuditService
	JobRun     *usecase.JobRunService

	closers []func() error
}

// Build wires storage, outbound adapters and services from cfg.
func Build(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	c := &Container{}
	repos, err := c.buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var archiver usecase.ReportArchiver
	if cfg.AuditArchiveEnabled {
		s3Archiver, err := archive.NewS3Archiver(ctx, archive.S3ArchiverConfig{
			Endpoint:        cfg.AuditArchiveEndpoint,
			Region:          cfg.AuditArchiveRegion,
			Bucket:          cfg.AuditArchiveBucket,
			Prefix:          cfg.AuditArchivePrefix,
			AccessKeyID:     cfg.AuditArchiveAccessKeyID,
			SecretAccessKey: cfg.AuditArchiveSecretAccessKey,
			UsePathStyle:    cfg.AuditArchiveUsePathStyle,
			Timeout:         cfg.AuditArchiveTimeout,
			CircuitBreaker:  resilience.ArchiveCircuitBreakerConfig(),
		}, logger)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("build audit archiver: %w", err)
		}
		archiver = s3Archiver
		logger.Info("audit archive enabled", "bucket", cfg.AuditArchiveBucket, "prefix", cfg.AuditArchivePrefix)
	}

	queue := usecase.NewNoopJobQueue()
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			Timeout:          qstashTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger)
		logger.Info("qstash requeue enabled", "target", cfg.QStashTargetBaseURL)
	}

	c.League = usecase.NewLeagueService(repos.leagues, repos.memberships)
	c.Pick = usecase.NewPickService(
		repos.leagues,
		repos.games,
		repos.picks,
		repos.memberships,
		idgen.NewPrefixedGenerator("pick"),
		logger,
	)
	c.Settlement = usecase.NewSettlementService(
		repos.leagues,
		repos.games,
		repos.picks,
		repos.memberships,
		repos.penalties,
		repos.adjustments,
		queue,
		usecase.SettlementConfig{
			DefaultStartingLives: cfg.DefaultStartingLives,
			MaxWorkers:           cfg.SettlementMaxWorkers,
			CASRetries:           cfg.SettlementCASRetries,
			RequeueDelay:         cfg.SettlementRequeueDelay,
		},
		logger,
	)
	c.Audit = usecase.NewAuditService(
		repos.leagues,
		repos.games,
		repos.picks,
		repos.memberships,
		repos.adjustments,
		archiver,
		usecase.AuditConfig{
			DefaultStartingLives: cfg.DefaultStartingLives,
			MaxWorkers:           cfg.AuditMaxWorkers,
		},
		logger,
	)
	c.JobRun = usecase.NewJobRunService(repos.jobRuns, logger)

	return c, nil
}

func (c *Container) buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	var repos repositories

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		c.closers = append(c.closers, db.Close)

		repos = repositories{
			leagues:     postgres.NewLeagueRepository(db),
			games:       postgres.NewGameRepository(db),
			picks:       postgres.NewPickRepository(db),
			memberships: postgres.NewMembershipRepository(db),
			adjustments: postgres.NewAdjustmentRepository(db),
			penalties:   postgres.NewPenaltyRepository(db),
			jobRuns:     postgres.NewJobRunRepository(db),
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "db", dbNameFromURL(cfg.DBURL))
	default:
		repos = repositories{
			leagues:     memory.NewLeagueRepository(memory.SeedLeagues()),
			games:       memory.NewGameRepository(memory.SeedGames()),
			picks:       memory.NewPickRepository(memory.SeedPicks()),
			memberships: memory.NewMembershipRepository(memory.SeedMemberships()),
			adjustments: memory.NewAdjustmentRepository(nil),
			penalties:   memory.NewPenaltyRepository(),
			jobRuns:     memory.NewJobRunRepository(),
		}
		logger.Info("storage ready", "driver", config.StorageMemory)
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.leagues = cache.NewLeagueRepository(repos.leagues, store)
		repos.games = cache.NewGameRepository(repos.games, store)
	}

	return repos, nil
}

// Close releases resources opened by Build.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, *Container, error) {
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	container, err := Build(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	handler := httpapi.NewHandler(
		container.League,
		container.Pick,
		container.Settlement,
		container.Audit,
		container.JobRun,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, container, nil
}
