// Package service runs league compilations in the background and serves
// the resulting standings.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/tribescore/internal/adapters/mq/queue"
	"github.com/okian/tribescore/internal/adapters/mq/worker"
	"github.com/okian/tribescore/internal/adapters/repository"
	"github.com/okian/tribescore/internal/domain/dedupe"
	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/internal/domain/scoring"
	"github.com/okian/tribescore/internal/domain/types"
	"github.com/okian/tribescore/pkg/logger"
	"github.com/okian/tribescore/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize         = 1_024
	defaultDedupeSize        = 10_000
	defaultMaxStandingsLimit = 100
)

// Service owns the compile pipeline: dedupe, queue, worker pool and
// standings store.
type Service struct {
	mu sync.RWMutex

	compiler *scoring.Compiler
	store    *repository.StandingsStore
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	jobs     *jobTable

	workerCount       int
	queueSize         int
	dedupeSize        int
	maxStandingsLimit int
	compilerOpts      []scoring.Option

	started bool
	cancel  context.CancelFunc
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of compile workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting compile jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the request-key dedupe cache. 0 means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxStandingsLimit caps standings reads.
func WithMaxStandingsLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxStandingsLimit = limit
		}
	}
}

// WithCompilerOptions configures the scoring compiler.
func WithCompilerOptions(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.compilerOpts = append(s.compilerOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Call Start before submitting jobs.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU(),
		queueSize:         defaultQueueSize,
		dedupeSize:        defaultDedupeSize,
		maxStandingsLimit: defaultMaxStandingsLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.compiler = scoring.NewCompiler(s.compilerOpts...)
	return s
}

// Start builds the pipeline and starts the workers. Calling Start on a
// running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting compile service")

	s.store = repository.NewStandingsStore(repository.WithMaxLimit(s.maxStandingsLimit))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	// workers from a forced Stop may still finish into this run's table
	jobs := newJobTable(max(s.dedupeSize, defaultDedupeSize))
	s.jobs = jobs
	s.pool = worker.NewPool(s.workerCount, s.queue, s.compiler, s.store,
		worker.WithDoneHook(func(_ context.Context, j worker.Job, err error) { //nolint:gocritic // hugeParam: matches worker.DoneFunc
			jobs.finish(j.ID, err, time.Now())
		}),
	)
	// workers outlive the start request; Stop ends them
	var runCtx context.Context
	runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "compile service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("survival_cap", s.compiler.SurvivalCap()),
	)
	return nil
}

// Stop closes the queue and waits for queued jobs to finish. When ctx ends
// first it returns the pool error; jobs that never ran fail with
// worker.ErrStopped and jobs in flight still report when they end.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping compile service")
	err := s.pool.Shutdown(ctx)
	s.cancel()
	s.started = false
	if err != nil {
		s.logger.Warn(ctx, "compile service stopped with pending jobs", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "compile service stopped")
	return nil
}

// Submit queues a compilation of in and returns the job id. A non-empty
// requestKey makes the submission idempotent: repeating it returns
// ErrDuplicate until the key ages out of the dedupe cache.
func (s *Service) Submit(ctx context.Context, requestKey string, in model.Input) (string, error) { //nolint:gocritic // hugeParam: input is copied into the job
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return "", ErrNotStarted
	}
	if strings.TrimSpace(in.LeagueID) == "" {
		return "", fmt.Errorf("%w: missing league id", ErrInvalidInput)
	}
	if requestKey != "" && s.deduper.SeenAndRecord(ctx, requestKey) {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "duplicate compile request", logger.String("request_key", requestKey))
		return "", fmt.Errorf("%w: %s", ErrDuplicate, requestKey)
	}

	j := model.CompileJob{ID: uuid.NewString(), Input: in, SubmittedAt: time.Now()}
	s.jobs.add(JobStatus{ID: j.ID, LeagueID: in.LeagueID, State: JobQueued, SubmittedAt: j.SubmittedAt})
	if err := s.queue.Enqueue(ctx, j); err != nil {
		s.jobs.remove(j.ID)
		if requestKey != "" {
			s.deduper.Unrecord(ctx, requestKey)
		}
		return "", fmt.Errorf("%w: %w", ErrBackpressure, err)
	}
	s.logger.Debug(ctx, "compile job queued",
		logger.String("job_id", j.ID),
		logger.String("league_id", in.LeagueID),
	)
	return j.ID, nil
}

// Job returns the status of a submitted job.
func (s *Service) Job(_ context.Context, id string) (JobStatus, error) {
	if err := s.ready(); err != nil {
		return JobStatus{}, err
	}
	st, _, ok := s.jobs.get(id)
	if !ok {
		return JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return st, nil
}

// Wait blocks until the job finishes or ctx is done.
func (s *Service) Wait(ctx context.Context, id string) (JobStatus, error) {
	if err := s.ready(); err != nil {
		return JobStatus{}, err
	}
	_, done, ok := s.jobs.get(id)
	if !ok {
		return JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	select {
	case <-done:
	case <-ctx.Done():
		return JobStatus{}, ctx.Err()
	}
	st, _, _ := s.jobs.get(id)
	return st, nil
}

// Compile runs a compilation synchronously without storing it.
func (s *Service) Compile(_ context.Context, in model.Input) (model.Result, error) { //nolint:gocritic // hugeParam: engine input is a value
	start := time.Now()
	res, err := s.compiler.Compile(in)
	if err != nil {
		metrics.RecordCompileError(worker.ErrorKind(err))
		return model.Result{}, err
	}
	metrics.RecordCompilation(time.Since(start), map[string]int{
		string(model.BucketCastaway): len(res.Scores[model.BucketCastaway]),
		string(model.BucketTribe):    len(res.Scores[model.BucketTribe]),
		string(model.BucketMember):   len(res.Scores[model.BucketMember]),
	})
	return res, nil
}

// Standings returns a league's ranked members as of episode, or as of the
// last compiled episode for repository.LatestEpisode.
func (s *Service) Standings(ctx context.Context, leagueID string, episode, limit int) (types.Standing, error) {
	if err := s.ready(); err != nil {
		return types.Standing{}, err
	}
	return s.store.Standings(ctx, leagueID, episode, limit)
}

// Rank returns a member's final standing in a league.
func (s *Service) Rank(ctx context.Context, leagueID, member string) (types.Entry, error) {
	if err := s.ready(); err != nil {
		return types.Entry{}, err
	}
	return s.store.Rank(ctx, leagueID, member)
}

// Scores returns a league's compiled score table.
func (s *Service) Scores(ctx context.Context, leagueID string) (model.ScoreTable, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	res, err := s.store.Result(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return res.Scores, nil
}

// CheckWager admits or rejects a new bet against the league's last
// compiled standings.
func (s *Service) CheckWager(ctx context.Context, leagueID, member string, episode, outstanding, bet int) error {
	table, err := s.Scores(ctx, leagueID)
	if err != nil {
		return err
	}
	return scoring.CheckWager(table, member, episode, outstanding, bet)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"survivalCap": s.compiler.SurvivalCap(),
	}
	if s.store != nil {
		leagues := s.store.Leagues(ctx)
		stats["leagues"] = len(leagues)
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["jobs"] = s.jobs.counts()
		metrics.UpdateLeaguesTracked(len(leagues))
	}
	return stats
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return ErrNotStarted
	}
	return nil
}
