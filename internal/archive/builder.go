// Package archive turns an entry manifest into a local zip archive. An archive is
// either complete at its destination path or absent; partial downloads are never
// left behind under the final name.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"dblsync/internal/platform/dbl"

	"github.com/charmbracelet/log"
)

//go:generate mockgen -source=builder.go -destination=mocks/mock_fetcher.go -package=mocks Fetcher

// Fetcher is the part of the library client the builder needs.
type Fetcher interface {
	GetEntryFiles(ctx context.Context, entryID string) (*dbl.Manifest, error)
	FetchFile(ctx context.Context, m *dbl.Manifest, f dbl.ManifestFile) ([]byte, error)
}

// Job describes one archive to build. Destination is owned by the job exclusively.
type Job struct {
	EntryID      string
	LanguageCode string
	Destination  string
}

type Result struct {
	// Skipped is set when Destination already existed and nothing was fetched.
	Skipped bool
	// Unavailable is set when the service refused the manifest.
	Unavailable bool
	Written     int
	// Omitted counts manifest files the service did not deliver.
	Omitted int
}

type Builder struct {
	fetcher Fetcher
	logger  *log.Logger
}

func NewBuilder(fetcher Fetcher, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{fetcher: fetcher, logger: logger}
}

// Build downloads every file listed for job.EntryID into a zip at job.Destination.
//
// A connection failure while fetching aborts the job and removes the partial archive;
// the returned error wraps dbl.ErrConnection. Files answered with a non-200 status are
// left out of the archive.
func (b *Builder) Build(ctx context.Context, job Job) (Result, error) {
	if _, err := os.Stat(job.Destination); err == nil {
		return Result{Skipped: true}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Result{}, fmt.Errorf("stat %s: %w", job.Destination, err)
	}

	manifest, err := b.fetcher.GetEntryFiles(ctx, job.EntryID)
	if err != nil {
		if code := dbl.StatusCode(err); code != 0 {
			b.logger.Warn("manifest unavailable", "entry", job.EntryID, "lang", job.LanguageCode, "status", code)
			return Result{Unavailable: true}, nil
		}
		return Result{}, fmt.Errorf("fetch manifest for %s: %w", job.Destination, err)
	}

	b.logger.Info("downloading", "entry", job.EntryID, "lang", job.LanguageCode, "files", len(manifest.Files))

	res, err := b.write(ctx, job, manifest)
	if err != nil {
		return Result{}, err
	}

	b.logger.Info("finished", "entry", job.EntryID, "lang", job.LanguageCode, "written", res.Written, "omitted", res.Omitted)
	return res, nil
}

func (b *Builder) write(ctx context.Context, job Job, manifest *dbl.Manifest) (res Result, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(job.Destination), filepath.Base(job.Destination)+".*.partial")
	if err != nil {
		return Result{}, fmt.Errorf("create archive: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, f := range manifest.Files {
		data, ferr := b.fetcher.FetchFile(ctx, manifest, f)
		if ferr != nil {
			if code := dbl.StatusCode(ferr); code != 0 {
				b.logger.Debug("file omitted", "entry", job.EntryID, "file", f.URI, "status", code)
				res.Omitted++
				continue
			}
			return Result{}, fmt.Errorf("fetch %s for %s: %w", f.URI, job.Destination, ferr)
		}

		w, werr := zw.Create(f.URI)
		if werr != nil {
			return Result{}, fmt.Errorf("add %s: %w", f.URI, werr)
		}
		if _, werr := w.Write(data); werr != nil {
			return Result{}, fmt.Errorf("add %s: %w", f.URI, werr)
		}
		res.Written++
	}

	if err := zw.Close(); err != nil {
		return Result{}, fmt.Errorf("finish archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("finish archive: %w", err)
	}
	if err := os.Rename(tmpName, job.Destination); err != nil {
		return Result{}, fmt.Errorf("publish archive: %w", err)
	}
	return res, nil
}
