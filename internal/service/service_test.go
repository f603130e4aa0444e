package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/studysearch/internal/cache"
	"github.com/jonesrussell/studysearch/internal/config"
	"github.com/jonesrussell/studysearch/internal/domain"
	"github.com/jonesrussell/studysearch/internal/logger"
	"github.com/jonesrussell/studysearch/internal/provider"
	"github.com/jonesrussell/studysearch/internal/service"
	"github.com/jonesrussell/studysearch/internal/synthesis"
)

type fakeSearcher struct {
	mu      sync.Mutex
	calls   int
	queries []provider.Query
	results []domain.SearchResult
	err     error
	// errFor fails only sub-queries whose text contains the substring.
	errFor string
}

func (f *fakeSearcher) Search(_ context.Context, q provider.Query) ([]domain.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if f.errFor != "" && strings.Contains(q.Query, f.errFor) {
		return nil, provider.ErrSearchFailed
	}
	return f.results, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCompleter struct {
	calls    atomic.Int64
	response string
	err      error
}

func (f *fakeCompleter) Complete(context.Context, string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Service.Version = "test"
	cfg.Service.MaxSubjectLength = 200
	cfg.Service.TopResults = 5
	cfg.Search.Timeout = 12 * time.Second
	cfg.Search.MaxResults = 8
	cfg.Search.SearchDepth = "basic"
	cfg.Search.MinContent = 100
	cfg.Synthesis.Timeout = time.Minute
	return cfg
}

func newService(t *testing.T, searcher provider.Searcher, completer synthesis.Completer) *service.CurationService {
	t.Helper()
	synth := synthesis.NewSynthesizer(completer, time.Minute, logger.NewNop())
	return service.NewCurationService(
		testConfig(),
		searcher,
		synth,
		cache.NewMemoryStore(cache.DefaultTTL),
		nil,
		logger.NewNop(),
		service.NewMetrics(prometheus.NewRegistry()),
	)
}

func longContent(topic string) string {
	return strings.Repeat(topic+" fundamentals explained in depth. ", 5)
}

// curationResponse is a well-formed fenced model response with 5 resources.
const curationResponse = "```json\n" + `{"resources": [
	{"title": "Rust Book", "url": "https://example.com/1", "description": "Official book.", "format": "book", "difficulty": "beginner"},
	{"title": "Rustlings", "url": "https://example.com/2", "description": "Exercises.", "format": "interactive", "difficulty": "beginner"},
	{"title": "Rust by Example", "url": "https://example.com/3", "description": "Examples.", "format": "article", "difficulty": "intermediate"},
	{"title": "Crust of Rust", "url": "https://example.com/4", "description": "Deep dives.", "format": "video", "difficulty": "advanced"},
	{"title": "Rust Course", "url": "https://example.com/5", "description": "Full course.", "format": "course", "difficulty": "intermediate"}
]}` + "\n```"

func eightRawResults() []domain.SearchResult {
	results := make([]domain.SearchResult, 0, 8)
	for i := 0; i < 6; i++ {
		results = append(results, domain.SearchResult{
			Title:          fmt.Sprintf("Rust tutorial part %d", i),
			URL:            fmt.Sprintf("https://example.com/rust-%d", i),
			Content:        longContent("rust"),
			RelevanceScore: 0.5,
		})
	}
	// These two fail the relevance filter: one never mentions the subject,
	// one has too little content.
	results = append(results,
		domain.SearchResult{Title: "Programming basics", URL: "https://example.com/other", Content: longContent("general")},
		domain.SearchResult{Title: "Rust quick note", URL: "https://example.com/short", Content: "too short"},
	)
	return results
}

func TestCurateResources_EndToEnd(t *testing.T) {
	searcher := &fakeSearcher{results: eightRawResults()}
	completer := &fakeCompleter{response: curationResponse}
	svc := newService(t, searcher, completer)

	set, err := svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "Rust"})
	if err != nil {
		t.Fatalf("CurateResources() error: %v", err)
	}
	if len(set.Resources) != 5 {
		t.Fatalf("len(Resources) = %d, want 5", len(set.Resources))
	}
	if set.Subject != "Rust" {
		t.Errorf("Subject = %q, want %q", set.Subject, "Rust")
	}
	if got := searcher.callCount(); got != 2 {
		t.Errorf("provider calls = %d, want 2 sub-queries", got)
	}

	// Second identical request within the TTL is served from cache.
	again, err := svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "rust "})
	if err != nil {
		t.Fatalf("cached CurateResources() error: %v", err)
	}
	if len(again.Resources) != 5 {
		t.Errorf("cached len(Resources) = %d, want 5", len(again.Resources))
	}
	if got := searcher.callCount(); got != 2 {
		t.Errorf("provider calls after cache hit = %d, want 2", got)
	}
	if got := completer.calls.Load(); got != 1 {
		t.Errorf("model calls after cache hit = %d, want 1", got)
	}
}

func TestCurateResources_PartialProviderFailure(t *testing.T) {
	searcher := &fakeSearcher{results: eightRawResults(), errFor: "platforms"}
	completer := &fakeCompleter{response: curationResponse}
	svc := newService(t, searcher, completer)

	set, err := svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "Rust"})
	if err != nil {
		t.Fatalf("CurateResources() error: %v", err)
	}
	if len(set.Resources) != 5 {
		t.Errorf("len(Resources) = %d, want 5", len(set.Resources))
	}
}

func TestCurateResources_AllProvidersFail(t *testing.T) {
	searcher := &fakeSearcher{err: provider.ErrSearchFailed}
	completer := &fakeCompleter{response: curationResponse}
	svc := newService(t, searcher, completer)

	_, err := svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "Rust"})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("error = %v, want ErrUpstreamUnavailable", err)
	}
	if got := completer.calls.Load(); got != 0 {
		t.Errorf("model calls = %d, want 0 when upstream is down", got)
	}
}

func TestCurateResources_SynthesisFailurePropagates(t *testing.T) {
	searcher := &fakeSearcher{results: eightRawResults()}
	completer := &fakeCompleter{err: fmt.Errorf("%w: quota exceeded", domain.ErrSynthesisFailed)}
	svc := newService(t, searcher, completer)

	_, err := svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "Rust"})
	if !errors.Is(err, domain.ErrSynthesisFailed) {
		t.Errorf("error = %v, want ErrSynthesisFailed", err)
	}
}

func TestCurateResources_MalformedOutputDistinct(t *testing.T) {
	searcher := &fakeSearcher{results: eightRawResults()}
	completer := &fakeCompleter{response: "no json here, sorry"}
	svc := newService(t, searcher, completer)

	_, err := svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "Rust"})
	if !errors.Is(err, domain.ErrMalformedOutput) {
		t.Errorf("error = %v, want ErrMalformedOutput", err)
	}
	if errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, domain.ErrSynthesisFailed) {
		t.Errorf("error %v matches an unrelated failure kind", err)
	}
}

func TestCurateResources_Validation(t *testing.T) {
	svc := newService(t, &fakeSearcher{}, &fakeCompleter{})

	_, err := svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "  "})
	if err == nil {
		t.Fatal("expected validation error for blank subject")
	}
}

func TestCurateResources_FailuresAreNotCached(t *testing.T) {
	searcher := &fakeSearcher{err: provider.ErrSearchFailed}
	completer := &fakeCompleter{response: curationResponse}
	svc := newService(t, searcher, completer)

	if _, err := svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "Rust"}); err == nil {
		t.Fatal("expected upstream failure")
	}

	// Provider recovers; the retry must run the pipeline instead of
	// replaying a cached failure.
	searcher.mu.Lock()
	searcher.err = nil
	searcher.results = eightRawResults()
	searcher.mu.Unlock()

	set, err := svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "Rust"})
	if err != nil {
		t.Fatalf("CurateResources() after recovery error: %v", err)
	}
	if len(set.Resources) != 5 {
		t.Errorf("len(Resources) = %d, want 5", len(set.Resources))
	}
}

const planResponse = `{
	"overview": {"subject": "Rust", "duration": "2 weeks", "examDate": "2026-09-09", "mainTopics": ["ownership", "traits"]},
	"weeklyPlans": [
		{"week": 1, "goals": ["basics"], "dailyTasks": [{"day": "Monday", "tasks": ["read ch1"], "duration": "2h"}]},
		{"week": 2, "goals": ["review"], "dailyTasks": [{"day": "Monday", "tasks": ["mock exam"], "duration": "3h"}]}
	],
	"recommendations": ["short daily sessions"]
}`

func TestGenerateStudyPlan_EndToEnd(t *testing.T) {
	searcher := &fakeSearcher{results: eightRawResults()}
	completer := &fakeCompleter{response: planResponse}
	svc := newService(t, searcher, completer)
	svc.SetNowFunc(func() time.Time {
		return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	})

	plan, err := svc.GenerateStudyPlan(context.Background(), &domain.PlanRequest{Subject: "Rust", ExamDate: "2026-09-09"})
	if err != nil {
		t.Fatalf("GenerateStudyPlan() error: %v", err)
	}
	if len(plan.WeeklyPlans) != 2 {
		t.Errorf("len(WeeklyPlans) = %d, want 2", len(plan.WeeklyPlans))
	}
	if got := searcher.callCount(); got != 2 {
		t.Errorf("provider calls = %d, want 2 sub-queries", got)
	}

	// A different exam date is a different cache key.
	if _, err := svc.GenerateStudyPlan(context.Background(), &domain.PlanRequest{Subject: "Rust", ExamDate: "2026-10-01"}); err != nil {
		t.Fatalf("second GenerateStudyPlan() error: %v", err)
	}
	if got := searcher.callCount(); got != 4 {
		t.Errorf("provider calls = %d, want 4 after distinct exam date", got)
	}

	// Same subject and date replays from cache.
	if _, err := svc.GenerateStudyPlan(context.Background(), &domain.PlanRequest{Subject: " RUST ", ExamDate: "2026-09-09"}); err != nil {
		t.Fatalf("cached GenerateStudyPlan() error: %v", err)
	}
	if got := searcher.callCount(); got != 4 {
		t.Errorf("provider calls = %d, want 4 after cache hit", got)
	}
}

func TestGenerateStudyPlan_PastExamDateAccepted(t *testing.T) {
	searcher := &fakeSearcher{results: eightRawResults()}
	completer := &fakeCompleter{response: planResponse}
	svc := newService(t, searcher, completer)

	_, err := svc.GenerateStudyPlan(context.Background(), &domain.PlanRequest{Subject: "Rust", ExamDate: "2020-01-01"})
	if err != nil {
		t.Errorf("GenerateStudyPlan() with past date error: %v", err)
	}
}

func TestCurateResources_CoalescesConcurrentRequests(t *testing.T) {
	block := make(chan struct{})
	searcher := &blockingSearcher{release: block, results: eightRawResults()}
	completer := &fakeCompleter{response: curationResponse}
	svc := newService(t, searcher, completer)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CurateResources(context.Background(), &domain.CurateRequest{Subject: "Rust"})
		}(i)
	}

	// Let the callers pile up on the in-flight pipeline, then release it.
	time.Sleep(50 * time.Millisecond)
	close(block)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d error: %v", i, err)
		}
	}
	if got := completer.calls.Load(); got != 1 {
		t.Errorf("model calls = %d, want 1 for coalesced requests", got)
	}
}

type blockingSearcher struct {
	release <-chan struct{}
	results []domain.SearchResult
}

func (b *blockingSearcher) Search(ctx context.Context, _ provider.Query) ([]domain.SearchResult, error) {
	select {
	case <-b.release:
		return b.results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestHealthCheck(t *testing.T) {
	svc := newService(t, &fakeSearcher{}, &fakeCompleter{})

	status := svc.HealthCheck(context.Background())
	if status.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", status.Status)
	}
	if status.Dependencies["cache"] != "up" {
		t.Errorf("cache dependency = %q, want up", status.Dependencies["cache"])
	}
	if _, ok := status.Dependencies["elasticsearch"]; ok {
		t.Error("elasticsearch reported without an archive configured")
	}
}
