package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"salesdash/internal/backend"
	"salesdash/internal/cli"
	"salesdash/internal/config"
	"salesdash/internal/core"
	"salesdash/internal/export"
	applog "salesdash/internal/log"
	"salesdash/internal/services"
	"salesdash/internal/sheets/google"
	"salesdash/internal/storage"
	"salesdash/internal/worker"
)

type reportOptions struct {
	project string
	asOf    string
	types   []string
	xlsx    string
	series  bool
}

// query converts the flags into a record query and product type filter.
func (o reportOptions) query() (core.Query, []core.ProductType, error) {
	q := core.Query{Project: strings.TrimSpace(o.project)}
	if v := strings.TrimSpace(o.asOf); v != "" {
		m, err := core.ParseMonth(v)
		if err != nil {
			return core.Query{}, nil, fmt.Errorf("--as-of: %w", err)
		}
		q.AsOf = &m
	}
	var types []core.ProductType
	for _, t := range o.types {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, core.ProductType(t))
		}
	}
	return q, types, nil
}

// session is the configured backend opened for one command.
type session struct {
	logger  *applog.Logger
	cfg     *config.Config
	backend backend.Backend
	cleanup backend.CleanupFunc
}

func (s *session) Close() {
	if s.cleanup == nil {
		return
	}
	if err := s.cleanup(); err != nil {
		s.logger.Warn("Backend cleanup failed", "error", err)
	}
}

func loadConfig() (*applog.Logger, *config.Config, error) {
	cli.LoadEnvFile()
	logger := cli.SetupLoggerTo(applog.ComponentCLI, os.Stderr)
	cfg := config.Load()
	if backendOverride != "" {
		cfg.DataBackend = strings.ToLower(strings.TrimSpace(backendOverride))
	}
	if err := cfg.Validate(); err != nil {
		return logger, nil, err
	}
	return logger, cfg, nil
}

func openSession(ctx context.Context) (*session, error) {
	logger, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	return &session{logger: logger, cfg: cfg, backend: res.Backend, cleanup: res.Cleanup}, nil
}

func runReport(ctx context.Context, opts reportOptions) error {
	q, types, err := opts.query()
	if err != nil {
		return err
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	svc := services.NewReportService(s.backend, s.backend, nil, services.ReportOptions{
		FetchTimeout: s.cfg.FetchTimeout,
	})
	rep, err := svc.Query(ctx, q, types...)
	if err != nil {
		return err
	}
	if rep.Empty() {
		fmt.Println("조회된 결과가 없습니다.")
		return nil
	}

	if opts.xlsx != "" {
		return writeReportFile(opts.xlsx, rep)
	}
	printReport(os.Stdout, rep, opts.series)
	return nil
}

func writeReportFile(path string, rep *services.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := export.WriteReport(f, rep.Title(), rep.Result); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s (%d records)\n", path, rep.Result.Records)
	return nil
}

func runProjects(ctx context.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	names, err := s.backend.ListProjects(ctx)
	if err != nil {
		return err
	}
	printProjects(os.Stdout, names)
	return nil
}

func runPairList(ctx context.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	pairs, err := s.backend.ListPairs(ctx)
	if err != nil {
		return err
	}
	printPairs(os.Stdout, pairs)
	return nil
}

func runPairAdd(ctx context.Context, mainCode, optionCode string) error {
	pair := core.ProjectPair{Main: strings.TrimSpace(mainCode), Option: strings.TrimSpace(optionCode)}
	if err := pair.Validate(); err != nil {
		return err
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.backend.AppendPair(ctx, pair)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s / %s at %s\n", pair.Main, pair.Option, ref)
	return nil
}

// runSync refreshes the SQLite mirror from the sheet without going through the queue.
func runSync(ctx context.Context, project string) error {
	logger, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.HasGoogleCredentials() || cfg.GoogleSpreadsheetID == "" {
		return errors.New("sync needs GOOGLE_SPREADSHEET_ID and service account credentials")
	}

	upstream, err := google.New(ctx, google.Options{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		SalesSheet:    cfg.GoogleSalesSheet,
		PairSheet:     cfg.GooglePairSheet,
	})
	if err != nil {
		return err
	}
	mirror, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := mirror.Close(); err != nil {
			logger.Warn("Failed to close SQLite mirror", "error", err)
		}
	}()

	w := worker.NewSyncWorker(upstream, mirror, cfg.SyncConcurrency)
	if project = strings.TrimSpace(project); project != "" {
		n, err := w.SyncProject(ctx, project)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %s: %d records\n", project, n)
		return nil
	}

	res, err := w.SyncAll(ctx)
	printSyncResult(os.Stdout, res)
	return err
}
