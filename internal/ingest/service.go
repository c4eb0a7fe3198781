package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"dblsync/internal/archive"
	"dblsync/internal/catalog"
	"dblsync/internal/platform/dbl"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrCatalogUnavailable is returned when the entry listing cannot be obtained.
// Nothing is downloaded and no snapshot is written in that case.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

type CatalogClient interface {
	ListEntries(ctx context.Context) ([]catalog.Entry, error)
}

type ArchiveBuilder interface {
	Build(ctx context.Context, job archive.Job) (archive.Result, error)
}

// SnapshotMirror receives the finished snapshot of every run.
type SnapshotMirror interface {
	UpsertSnapshot(ctx context.Context, s catalog.Snapshot) error
}

type Service struct {
	client  CatalogClient
	builder ArchiveBuilder
	mirror  SnapshotMirror
	runs    Repository
	logger  *log.Logger
}

// NewService wires a sync engine. mirror and runs may be nil when no database is configured.
func NewService(client CatalogClient, builder ArchiveBuilder, mirror SnapshotMirror, runs Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{
		client:  client,
		builder: builder,
		mirror:  mirror,
		runs:    runs,
		logger:  logger,
	}
}

// Run synchronizes opts.TargetDir with the remote catalog: it refreshes the snapshot
// file and downloads the archives that are missing locally.
//
// Failed jobs are logged and counted in the returned Run; they do not fail the sync.
// The error is non-nil only when the run could not proceed at all.
func (s *Service) Run(ctx context.Context, opts Options) (run *Run, err error) {
	if opts.SkipLanguages == nil {
		opts.SkipLanguages = DefaultSkipLanguages
	}

	run = &Run{
		ID:           uuid.NewString(),
		StartedAt:    time.Now(),
		Status:       StatusRunning,
		Language:     opts.Language,
		SnapshotPath: filepath.Join(opts.TargetDir, catalog.SnapshotFileFor(opts.Language)),
	}
	if s.runs != nil {
		id, cErr := s.runs.CreateRun(ctx, run)
		if cErr != nil {
			return nil, fmt.Errorf("record run: %w", cErr)
		}
		run.ID = id
	}

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if err != nil && run.Error == "" {
			run.Error = err.Error()
		}
		if run.Error != "" {
			run.Status = StatusFailed
		} else {
			run.Status = StatusCompleted
		}
		if s.runs != nil {
			// The request context may already be gone; the run record is still written.
			if uErr := s.runs.UpdateRun(context.WithoutCancel(ctx), run); uErr != nil {
				s.logger.Error("failed to update sync run", "run", run.ID, "err", uErr)
			}
		}
	}()

	langMap, err := LoadLanguageMap(opts.MapFile)
	if err != nil {
		return run, err
	}

	snap := catalog.Snapshot{}
	if opts.Language == "" {
		snap, err = catalog.LoadSnapshot(filepath.Join(opts.TargetDir, catalog.SnapshotFile))
		if err != nil {
			return run, err
		}
	}

	entries, err := s.client.ListEntries(ctx)
	if err != nil {
		return run, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	run.EntriesSeen = len(entries)

	listed, jobs := s.plan(entries, opts, langMap, run)
	snap.Merge(listed)
	run.JobsPlanned = len(jobs)
	s.logger.Info("sync planned", "run", run.ID, "entries", run.EntriesSeen, "jobs", run.JobsPlanned, "lang", opts.Language)

	// The snapshot is written even when the batch was cut short.
	execErr := s.execute(ctx, jobs, opts, run)
	if err := snap.Save(run.SnapshotPath); err != nil {
		return run, errors.Join(execErr, err)
	}
	if execErr != nil {
		return run, execErr
	}

	if s.mirror != nil {
		if err := s.mirror.UpsertSnapshot(ctx, snap); err != nil {
			s.logger.Error("failed to mirror snapshot", "run", run.ID, "err", err)
		}
	}

	s.logger.Info("sync finished", "run", run.ID,
		"downloaded", run.Downloaded, "skipped", run.Skipped,
		"unavailable", run.Unavailable, "failed", run.Failed)
	return run, nil
}

// plan files every listed entry under its effective language and returns those
// entries together with the archive jobs to execute.
func (s *Service) plan(entries []catalog.Entry, opts Options, langMap LanguageMap, run *Run) (catalog.Snapshot, []archive.Job) {
	listed := catalog.Snapshot{}
	var jobs []archive.Job
	for _, e := range entries {
		lang := langMap.Resolve(e)
		if lang == "" {
			run.EntriesSuppressed++
			continue
		}
		listed[catalog.Key(lang, e.ID)] = e

		if opts.NoArchives || e.EntryType != catalog.EntryTypeText {
			continue
		}
		if opts.Language != "" && opts.Language != lang {
			continue
		}
		if slices.Contains(opts.SkipLanguages, lang) {
			continue
		}
		jobs = append(jobs, archive.Job{
			EntryID:      e.ID,
			LanguageCode: lang,
			Destination:  filepath.Join(opts.TargetDir, catalog.ArchiveName(lang, e.ID)),
		})
	}
	return listed, jobs
}

func (s *Service) execute(ctx context.Context, jobs []archive.Job, opts Options, run *Run) error {
	var mu sync.Mutex
	record := func(job archive.Job, res archive.Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			run.Failed++
			s.logger.Error("job failed", "entry", job.EntryID, "lang", job.LanguageCode, "err", err)
		case res.Skipped:
			run.Skipped++
		case res.Unavailable:
			run.Unavailable++
		default:
			run.Downloaded++
		}
	}

	if opts.Concurrency <= 1 {
		for _, job := range jobs {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.buildWithRetry(ctx, job, opts.JobRetries)
			record(job, res, err)
		}
		return nil
	}

	s.logger.Debug("running jobs in parallel", "jobs", len(jobs), "workers", opts.Concurrency)
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res, err := s.buildWithRetry(ctx, job, opts.JobRetries)
			record(job, res, err)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (s *Service) buildWithRetry(ctx context.Context, job archive.Job, retries int) (archive.Result, error) {
	for attempt := 0; ; attempt++ {
		res, err := s.builder.Build(ctx, job)
		if err == nil || attempt >= retries || !errors.Is(err, dbl.ErrConnection) || ctx.Err() != nil {
			return res, err
		}
		s.logger.Warn("retrying job", "entry", job.EntryID, "lang", job.LanguageCode, "attempt", attempt+1, "err", err)
	}
}
