// Package service orchestrates the curation pipeline: cache lookup, search
// fan-out, filter/dedup/rank, synthesis, and best-effort persistence.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonesrussell/studysearch/internal/cache"
	"github.com/jonesrussell/studysearch/internal/config"
	"github.com/jonesrussell/studysearch/internal/domain"
	"github.com/jonesrussell/studysearch/internal/logger"
	"github.com/jonesrussell/studysearch/internal/provider"
	"github.com/jonesrussell/studysearch/internal/store"
)

// Synthesizer is the document synthesis capability the orchestrator depends
// on. *synthesis.Synthesizer satisfies it.
type Synthesizer interface {
	CurateResources(ctx context.Context, subject string, sources []domain.SearchResult) (*domain.CuratedResourceSet, error)
	StudyPlan(ctx context.Context, subject, examDate string, days int, curriculum, tips []domain.SearchResult) (*domain.StudyPlan, error)
}

// CurationService orchestrates the two public operations.
type CurationService struct {
	config   *config.Config
	searcher provider.Searcher
	synth    Synthesizer
	cache    cache.Store
	archive  store.Archive // nil when persistence is disabled
	logger   logger.Logger
	metrics  *Metrics
	group    singleflight.Group
	now      func() time.Time
}

// NewCurationService creates the pipeline orchestrator. archive may be nil.
func NewCurationService(
	cfg *config.Config,
	searcher provider.Searcher,
	synth Synthesizer,
	cacheStore cache.Store,
	archive store.Archive,
	log logger.Logger,
	metrics *Metrics,
) *CurationService {
	return &CurationService{
		config:   cfg,
		searcher: searcher,
		synth:    synth,
		cache:    cacheStore,
		archive:  archive,
		logger:   log,
		metrics:  metrics,
		now:      time.Now,
	}
}

// CurateResources returns the five best learning resources for a subject.
// Identical concurrent requests are coalesced into one pipeline run, and the
// synthesized set is cached under the normalized subject.
func (s *CurationService) CurateResources(ctx context.Context, req *domain.CurateRequest) (*domain.CuratedResourceSet, error) {
	if err := req.Validate(s.config.Service.MaxSubjectLength); err != nil {
		s.logger.Warn("Invalid curate request", logger.Error(err))
		return nil, fmt.Errorf("validation error: %w", err)
	}
	subject := strings.TrimSpace(req.Subject)
	key := domain.CacheKey(subject, false, "")

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.curate(ctx, key, subject)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Coalesced duplicate curate request", logger.String("key", key))
	}
	return v.(*domain.CuratedResourceSet), nil
}

func (s *CurationService) curate(ctx context.Context, key, subject string) (*domain.CuratedResourceSet, error) {
	var cached domain.CuratedResourceSet
	if s.cacheLookup(ctx, key, &cached) {
		return &cached, nil
	}

	startTime := time.Now()
	s.logger.Info("Curating resources", logger.String("subject", subject))

	results, err := s.fanOut(ctx, curationQueries(subject, &s.config.Search))
	if err != nil {
		return nil, err
	}

	ranked := rankPipeline(mergeResults(results), subject, s.config.Search.MinContent, s.config.Service.TopResults)

	set, err := s.synth.CurateResources(ctx, subject, ranked)
	if err != nil {
		return nil, err
	}

	s.cachePut(ctx, key, set)
	s.persist(ctx, func(c context.Context, principal string) error {
		return s.archive.SaveCuration(c, principal, set)
	})

	s.logger.Info("Curation completed",
		logger.String("subject", subject),
		logger.Int("sources", len(ranked)),
		logger.Int("resources", len(set.Resources)),
		logger.Duration("duration", time.Since(startTime)),
	)
	return set, nil
}

// GenerateStudyPlan builds a week-by-week study plan leading up to an exam
// date. Past exam dates are accepted and produce a plan with a non-positive
// day count.
func (s *CurationService) GenerateStudyPlan(ctx context.Context, req *domain.PlanRequest) (*domain.StudyPlan, error) {
	exam, err := req.Validate(s.config.Service.MaxSubjectLength)
	if err != nil {
		s.logger.Warn("Invalid plan request", logger.Error(err))
		return nil, fmt.Errorf("validation error: %w", err)
	}
	subject := strings.TrimSpace(req.Subject)
	examDate := strings.TrimSpace(req.ExamDate)
	key := domain.CacheKey(subject, true, examDate)

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.plan(ctx, key, subject, examDate, exam)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Coalesced duplicate plan request", logger.String("key", key))
	}
	return v.(*domain.StudyPlan), nil
}

func (s *CurationService) plan(ctx context.Context, key, subject, examDate string, exam time.Time) (*domain.StudyPlan, error) {
	var cached domain.StudyPlan
	if s.cacheLookup(ctx, key, &cached) {
		return &cached, nil
	}

	startTime := time.Now()
	days := domain.DaysUntilExam(s.now(), exam)
	s.logger.Info("Generating study plan",
		logger.String("subject", subject),
		logger.String("exam_date", examDate),
		logger.Int("days_until_exam", days),
	)

	queries := planQueries(subject, &s.config.Search)
	results, err := s.fanOut(ctx, queries)
	if err != nil {
		return nil, err
	}

	// The two sub-queries feed distinct prompt sections, so each stream is
	// filtered and ranked on its own.
	minContent := s.config.Search.MinContent
	topK := s.config.Service.TopResults
	curriculum := rankPipeline(results[0], subject, minContent, topK)
	tips := rankPipeline(results[1], subject, minContent, topK)

	plan, err := s.synth.StudyPlan(ctx, subject, examDate, days, curriculum, tips)
	if err != nil {
		return nil, err
	}

	s.cachePut(ctx, key, plan)
	s.persist(ctx, func(c context.Context, principal string) error {
		return s.archive.SavePlan(c, principal, subject, examDate, plan)
	})

	s.logger.Info("Study plan completed",
		logger.String("subject", subject),
		logger.Int("weeks", len(plan.WeeklyPlans)),
		logger.Duration("duration", time.Since(startTime)),
	)
	return plan, nil
}

// fanOut runs all sub-queries concurrently, each bounded by the configured
// per-call timeout. Individual failures are logged and absorbed; the call
// fails only when every sub-query does.
func (s *CurationService) fanOut(ctx context.Context, queries []provider.Query) ([][]domain.SearchResult, error) {
	results := make([][]domain.SearchResult, len(queries))
	var (
		mu       sync.Mutex
		failures int
		timeouts int
	)

	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.config.Search.Timeout)
			defer cancel()

			res, err := s.searcher.Search(callCtx, q)
			if err != nil {
				s.metrics.ProviderErrors.Inc()
				s.logger.Warn("Sub-query failed",
					logger.String("query", q.Query),
					logger.Error(err),
				)
				mu.Lock()
				failures++
				if errors.Is(err, context.DeadlineExceeded) {
					timeouts++
				}
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if failures == len(queries) {
		if timeouts == len(queries) {
			return nil, fmt.Errorf("%w: all %d sub-queries timed out: %w",
				domain.ErrUpstreamUnavailable, len(queries), context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("%w: all %d sub-queries failed", domain.ErrUpstreamUnavailable, len(queries))
	}
	return results, nil
}

// cacheLookup reads a cached document into out, reporting whether it was a
// usable hit. Undecodable entries are evicted and treated as misses.
func (s *CurationService) cacheLookup(ctx context.Context, key string, out any) bool {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		s.metrics.CacheMisses.Inc()
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("Evicting undecodable cache entry",
			logger.String("key", key),
			logger.Error(err),
		)
		s.cache.Evict(ctx, key)
		s.metrics.CacheMisses.Inc()
		return false
	}
	s.metrics.CacheHits.Inc()
	s.logger.Debug("Cache hit", logger.String("key", key))
	return true
}

// cachePut stores a synthesized document. Cache write failures degrade to a
// log line; the document is still returned to the caller.
func (s *CurationService) cachePut(ctx context.Context, key string, doc any) {
	payload, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("Failed to encode document for cache", logger.Error(err))
		return
	}
	if err := s.cache.Put(ctx, key, payload); err != nil {
		s.logger.Warn("Cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// persist writes the synthesized document to the archive when one is
// configured. Failures never fail the request.
func (s *CurationService) persist(ctx context.Context, save func(context.Context, string) error) {
	if s.archive == nil {
		return
	}
	principal, _ := PrincipalFromContext(ctx)
	if err := save(ctx, principal); err != nil {
		s.logger.Warn("Document persistence failed", logger.Error(err))
	}
}

// HealthCheck reports the service status and the state of its dependencies.
func (s *CurationService) HealthCheck(ctx context.Context) *domain.HealthStatus {
	status := &domain.HealthStatus{
		Status:       "healthy",
		Timestamp:    time.Now().UTC(),
		Version:      s.config.Service.Version,
		Dependencies: map[string]string{"cache": "up"},
	}

	if s.archive != nil {
		if err := s.archive.Health(ctx); err != nil {
			status.Status = "degraded"
			status.Dependencies["elasticsearch"] = "down: " + err.Error()
		} else {
			status.Dependencies["elasticsearch"] = "up"
		}
	}

	return status
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(string)
	return principal, ok
}
