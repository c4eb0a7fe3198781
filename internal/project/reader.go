// Package project reads downloaded library archives: the stylesheet, the USX
// scripture text and the odd auxiliary file such as an LDML description.
package project

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrStylesheetNotFound = errors.New("stylesheet not found")
	ErrNotOpen            = errors.New("project is not open")
	ErrNotArchive         = errors.New("not a zip archive")
)

const stylesheetName = "styles.xml"

// Body text lives in paragraphs whose style id starts with one of these.
var bodyPrefixes = []string{"ip", "s", "p", "q"}

type Option func(*Reader)

// WithContinuation also treats "m" (continuation) paragraphs as body text.
func WithContinuation() Option {
	return func(r *Reader) {
		r.prefixes = append(r.prefixes, "m")
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Reader gives access to one project archive. It is not safe for concurrent use.
type Reader struct {
	path     string
	zr       *zip.ReadCloser
	prefixes []string
	logger   *log.Logger

	// nil until ReadStylesheet succeeds.
	publishable map[string]struct{}
}

// Open opens the archive at path. The file must be a zip archive.
func Open(path string, opts ...Option) (*Reader, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	if !isZip(mt) {
		return nil, fmt.Errorf("open project %s: %w (%s)", path, ErrNotArchive, mt.String())
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open project %s: %w", path, err)
	}

	r := &Reader{
		path:     path,
		zr:       zr,
		prefixes: append([]string(nil), bodyPrefixes...),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Zip-based formats such as jar or docx are detected as children of zip.
func isZip(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

func (r *Reader) Path() string {
	return r.path
}

func (r *Reader) Close() error {
	if r.zr == nil {
		return nil
	}
	err := r.zr.Close()
	r.zr = nil
	r.publishable = nil
	return err
}

// Names lists the archive members in archive order.
func (r *Reader) Names() ([]string, error) {
	if r.zr == nil {
		return nil, ErrNotOpen
	}
	names := make([]string, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// Stylesheets lists every member named styles.xml.
func (r *Reader) Stylesheets() ([]string, error) {
	if r.zr == nil {
		return nil, ErrNotOpen
	}
	var names []string
	for _, f := range r.zr.File {
		if path.Base(f.Name) == stylesheetName {
			names = append(names, f.Name)
		}
	}
	return names, nil
}

// FileWithExt opens the first member whose name ends in "."+ext.
// The error wraps fs.ErrNotExist when there is none.
func (r *Reader) FileWithExt(ext string) (io.ReadCloser, error) {
	f, err := r.findExt(ext)
	if err != nil {
		return nil, err
	}
	return f.Open()
}

// ExtractFileWithExt copies the first member whose name ends in "."+ext to dest,
// replacing dest if it exists. It returns the member name.
func (r *Reader) ExtractFileWithExt(ext, dest string) (string, error) {
	f, err := r.findExt(ext)
	if err != nil {
		return "", err
	}
	if err := extract(f, dest); err != nil {
		return "", err
	}
	return f.Name, nil
}

// ExtractFile writes the member called name below dir, keeping its archive path.
// It reports false when the archive has no such member.
func (r *Reader) ExtractFile(name, dir string) (bool, error) {
	if r.zr == nil {
		return false, ErrNotOpen
	}
	for _, f := range r.zr.File {
		if f.Name != name {
			continue
		}
		if !filepath.IsLocal(f.Name) {
			return false, fmt.Errorf("extract %s: unsafe member path", f.Name)
		}
		dest := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return false, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		return true, extract(f, dest)
	}
	return false, nil
}

func (r *Reader) findExt(ext string) (*zip.File, error) {
	if r.zr == nil {
		return nil, ErrNotOpen
	}
	suffix := "." + ext
	for _, f := range r.zr.File {
		if strings.HasSuffix(f.Name, suffix) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no %s file in %s: %w", suffix, r.path, fs.ErrNotExist)
}

func extract(f *zip.File, dest string) (err error) {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("extract %s: %w", f.Name, cerr)
		}
	}()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}
