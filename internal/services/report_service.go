package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"salesdash/internal/cache"
	"salesdash/internal/core"
	"salesdash/internal/sales"
	"salesdash/internal/sheets"

	"golang.org/x/sync/singleflight"
)

// ErrRefreshUnavailable is returned when no refresh publisher is configured.
var ErrRefreshUnavailable = errors.New("refresh messaging not configured")

// Report is the caller-owned result of one query.
type Report struct {
	Query     core.Query   `json:"-"`
	Project   string       `json:"project"`
	AsOf      string       `json:"as_of,omitempty"`
	Result    sales.Result `json:"result"`
	FetchedAt time.Time    `json:"fetched_at"`
	Cached    bool         `json:"cached"`
}

// Empty reports whether the query matched no records.
func (r *Report) Empty() bool {
	return r == nil || r.Result.Empty()
}

// Title is the display heading used by exports.
func (r *Report) Title() string {
	t := r.Project
	if t == "" {
		t = "전체"
	}
	if r.AsOf != "" {
		t += " (" + r.AsOf + ")"
	}
	return t
}

// Publisher queues mirror refresh requests.
type Publisher interface {
	PublishRefresh(ctx context.Context, project, reason string) error
}

type ReportOptions struct {
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	CacheSize    int
	// RefreshGrace is how long fetches of a project stay uncached after a
	// refresh request, giving the worker time to rewrite the mirror.
	// Zero uses CacheTTL.
	RefreshGrace time.Duration
}

type fetchResult struct {
	records   []core.UnitSaleRecord
	fetchedAt time.Time
}

// ReportService fetches records and runs the aggregation pipeline.
type ReportService struct {
	source    sheets.RecordSource
	projects  sheets.ProjectLister
	publisher Publisher
	cache     *cache.LRUCache[fetchResult]
	group     singleflight.Group
	timeout   time.Duration
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]time.Time
	grace   time.Duration
}

func NewReportService(source sheets.RecordSource, projects sheets.ProjectLister, publisher Publisher, opts ReportOptions) *ReportService {
	s := &ReportService{
		source:    source,
		projects:  projects,
		publisher: publisher,
		timeout:   opts.FetchTimeout,
		now:       time.Now,
		pending:   map[string]time.Time{},
		grace:     opts.RefreshGrace,
	}
	if s.grace <= 0 {
		s.grace = opts.CacheTTL
	}
	if opts.CacheTTL > 0 {
		size := opts.CacheSize
		if size <= 0 {
			size = 64
		}
		s.cache = cache.NewLRUCache[fetchResult](size, opts.CacheTTL)
	}
	return s
}

// Cache exposes the fetch cache for periodic cleanup; nil when caching is off.
func (s *ReportService) Cache() cache.Cleaner {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

// Query builds the report for q. types narrows the product types; none means all.
func (s *ReportService) Query(ctx context.Context, q core.Query, types ...core.ProductType) (*Report, error) {
	start := s.now()
	fr, cached, err := s.fetch(ctx, q)
	if err != nil {
		slog.ErrorContext(ctx, "Report fetch failed", "project", q.Project, "error", err)
		return nil, err
	}

	rep := &Report{
		Query:     q,
		Project:   strings.TrimSpace(q.Project),
		Result:    sales.Build(fr.records, sales.ByProductTypes(types...)),
		FetchedAt: fr.fetchedAt,
		Cached:    cached,
	}
	if q.AsOf != nil {
		rep.AsOf = q.AsOf.String()
	}

	slog.InfoContext(ctx, "Report built",
		"project", rep.Project,
		"as_of", rep.AsOf,
		"records", rep.Result.Records,
		"cached", cached,
		"duration_ms", s.now().Sub(start).Milliseconds())
	return rep, nil
}

func (s *ReportService) fetch(ctx context.Context, q core.Query) (fetchResult, bool, error) {
	key := q.Key()
	if s.cache != nil {
		if fr, ok := s.cache.Get(key); ok {
			return fr, true, nil
		}
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		fctx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		records, err := s.source.FetchRecords(fctx, q)
		if err != nil {
			return nil, core.Unavailable("records", "fetch", err)
		}
		fr := fetchResult{records: records, fetchedAt: s.now()}
		if s.cache != nil && !s.awaitingRefresh(key) {
			s.cache.Set(key, fr)
		}
		return fr, nil
	})
	if err != nil {
		return fetchResult{}, false, err
	}
	if shared {
		slog.DebugContext(ctx, "Shared in-flight fetch", "key", key)
	}
	return v.(fetchResult), false, nil
}

// Projects lists the project names of the source.
func (s *ReportService) Projects(ctx context.Context) ([]string, error) {
	if s.projects == nil {
		return []string{}, nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, core.Unavailable("records", "list projects", err)
	}
	return projects, nil
}

// Invalidate drops cached fetches whose project filter matches project.
// An empty project clears the cache.
func (s *ReportService) Invalidate(project string) int {
	if s.cache == nil {
		return 0
	}
	project = strings.ToLower(strings.TrimSpace(project))
	return s.cache.DeleteFunc(func(key string) bool {
		return refreshCovers(project, key)
	})
}

// refreshCovers reports whether a refresh of project can change the fetch cached under key.
func refreshCovers(project, key string) bool {
	needle, _, _ := strings.Cut(key, "@")
	return project == "" || strings.Contains(project, needle)
}

func (s *ReportService) markPending(project string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[strings.ToLower(strings.TrimSpace(project))] = s.now().Add(s.grace)
}

// awaitingRefresh reports whether a queued refresh may still rewrite the
// records behind key. Expired entries are dropped.
func (s *ReportService) awaitingRefresh(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	covered := false
	for project, until := range s.pending {
		if now.After(until) {
			delete(s.pending, project)
			continue
		}
		if refreshCovers(project, key) {
			covered = true
		}
	}
	return covered
}

// RequestRefresh invalidates cached fetches and queues a mirror refresh.
// The worker rewrites the mirror asynchronously, so matching fetches are not
// cached again until the refresh grace period has passed.
func (s *ReportService) RequestRefresh(ctx context.Context, project, reason string) error {
	dropped := s.Invalidate(project)
	if s.publisher == nil {
		return ErrRefreshUnavailable
	}
	if err := s.publisher.PublishRefresh(ctx, strings.TrimSpace(project), reason); err != nil {
		return fmt.Errorf("publish refresh: %w", err)
	}
	if s.cache != nil {
		s.markPending(project)
	}
	slog.InfoContext(ctx, "Refresh requested", "project", project, "cache_dropped", dropped)
	return nil
}
