package project

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink consumes extracted text fragments, e.g. a character inventory.
type Sink interface {
	Process(text string) error
}

type SinkFunc func(text string) error

func (f SinkFunc) Process(text string) error {
	return f(text)
}

// LineSink writes one fragment per line.
type LineSink struct {
	w     *bufio.Writer
	Lines int
}

func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: bufio.NewWriter(w)}
}

func (s *LineSink) Process(text string) error {
	if _, err := s.w.WriteString(text); err != nil {
		return err
	}
	s.Lines++
	return s.w.WriteByte('\n')
}

func (s *LineSink) Flush() error {
	return s.w.Flush()
}

// CorpusPath returns where WriteCorpus puts the text of the archive at archivePath.
func CorpusPath(archivePath string) string {
	return archivePath + ".main.txt"
}

// WriteCorpus writes the body text of r to CorpusPath(r.Path()), one fragment
// per line, and returns the number of lines written.
func WriteCorpus(r *Reader) (int, error) {
	dest := CorpusPath(r.Path())
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create corpus: %w", err)
	}
	defer os.Remove(tmp.Name())

	sink := NewLineSink(tmp)
	if err := r.Process(sink); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := sink.Flush(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("write corpus: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("write corpus: %w", err)
	}
	return sink.Lines, nil
}
