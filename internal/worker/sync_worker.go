package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/core"
	"salesdash/internal/sheets"

	"golang.org/x/sync/errgroup"
)

// Upstream is the authoritative sales source, usually the Google sheet.
type Upstream interface {
	sheets.RecordSource
	sheets.ProjectLister
}

// Mirror is the local copy refreshed by the worker.
type Mirror interface {
	sheets.ProjectWriter
	sheets.ProjectLister
	CountRecords(ctx context.Context) (int64, error)
}

// SyncWorker copies projects from the upstream sheet into the mirror.
type SyncWorker struct {
	upstream    Upstream
	mirror      Mirror
	concurrency int
}

func NewSyncWorker(upstream Upstream, mirror Mirror, concurrency int) *SyncWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncWorker{upstream: upstream, mirror: mirror, concurrency: concurrency}
}

// HandleRefreshMessage processes a single refresh message from AMQP
func (w *SyncWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshMessage) error {
	slog.InfoContext(ctx, "Processing refresh message",
		"project", msg.Project,
		"reason", msg.Reason,
		"queued_at", msg.Timestamp)

	if msg.All() {
		_, err := w.SyncAll(ctx)
		return err
	}
	_, err := w.SyncProject(ctx, msg.Project)
	return err
}

// SyncProject replaces the mirrored rows of one project and returns how many
// were written. Only rows whose project name equals project are kept.
func (w *SyncWorker) SyncProject(ctx context.Context, project string) (int, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return 0, core.ErrEmptyProject
	}
	records, err := w.upstream.FetchRecords(ctx, core.Query{Project: project})
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", project, err)
	}
	exact := records[:0]
	for _, r := range records {
		if strings.TrimSpace(r.Project) == project {
			exact = append(exact, r)
		}
	}
	if err := w.mirror.ReplaceProject(ctx, project, exact); err != nil {
		return 0, fmt.Errorf("replace %s: %w", project, err)
	}
	return len(exact), nil
}

// SyncResult summarizes a full sync.
type SyncResult struct {
	Projects int
	Records  int
	Failed   []string
	Removed  []string
	Duration time.Duration
}

// SyncAll reads the whole sheet once and replaces every project in the
// mirror, writing at most concurrency projects at a time. Mirrored projects
// missing from the sheet are emptied.
func (w *SyncWorker) SyncAll(ctx context.Context) (SyncResult, error) {
	start := time.Now()
	records, err := w.upstream.FetchRecords(ctx, core.Query{})
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch all records: %w", err)
	}

	byProject := make(map[string][]core.UnitSaleRecord)
	var order []string
	for _, r := range records {
		name := strings.TrimSpace(r.Project)
		if name == "" {
			continue
		}
		if _, ok := byProject[name]; !ok {
			order = append(order, name)
		}
		byProject[name] = append(byProject[name], r)
	}

	var (
		mu   sync.Mutex
		res  = SyncResult{Projects: len(order)}
		errs []error
		g    errgroup.Group
	)
	stale, err := w.staleProjects(ctx, byProject)
	if err != nil {
		errs = append(errs, err)
	}
	g.SetLimit(w.concurrency)
	for _, name := range stale {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := w.mirror.ReplaceProject(ctx, name, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.ErrorContext(ctx, "Failed to remove stale project", "project", name, "error", err)
				errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
				return nil
			}
			res.Removed = append(res.Removed, name)
			return nil
		})
	}
	for _, name := range order {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := w.mirror.ReplaceProject(ctx, name, byProject[name])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.ErrorContext(ctx, "Failed to mirror project", "project", name, "error", err)
				res.Failed = append(res.Failed, name)
				errs = append(errs, fmt.Errorf("replace %s: %w", name, err))
				return nil
			}
			res.Records += len(byProject[name])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Duration = time.Since(start)

	slog.InfoContext(ctx, "Full sync completed",
		"projects", res.Projects,
		"records", res.Records,
		"failed", len(res.Failed),
		"removed", len(res.Removed),
		"duration_ms", res.Duration.Milliseconds())
	return res, errors.Join(errs...)
}

// staleProjects lists mirrored projects that no longer appear upstream.
func (w *SyncWorker) staleProjects(ctx context.Context, upstream map[string][]core.UnitSaleRecord) ([]string, error) {
	mirrored, err := w.mirror.ListProjects(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list mirrored projects", "error", err)
		return nil, fmt.Errorf("list mirrored projects: %w", err)
	}
	var stale []string
	for _, name := range mirrored {
		if _, ok := upstream[strings.TrimSpace(name)]; !ok {
			stale = append(stale, name)
		}
	}
	return stale, nil
}

// StartupSyncCheck runs a full sync when the mirror is empty.
// This recovers from a fresh database or missed AMQP messages.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	n, err := w.mirror.CountRecords(ctx)
	if err != nil {
		return fmt.Errorf("count mirrored records: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Mirror already populated, skipping startup sync", "records", n)
		return nil
	}
	slog.InfoContext(ctx, "Mirror is empty, running startup sync")
	_, err = w.SyncAll(ctx)
	return err
}

// RunPeriodic re-syncs every project on each tick until ctx is done.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.SyncAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}
