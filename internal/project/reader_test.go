package project

import (
	"archive/zip"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type member struct {
	name, body string
}

func buildArchive(t *testing.T, members ...member) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "acr_e1.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for _, m := range members {
		w, err := zw.Create(m.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, m.body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func testdata(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func testProject(t *testing.T) string {
	return buildArchive(t,
		member{"metadata.xml", "<DBLMetadata/>"},
		member{"release/styles.xml", testdata(t, "styles.xml")},
		member{"release/USX_1/MAT.usx", testdata(t, "MAT.usx")},
		member{"release/acr.ldml", "<ldml/>"},
	)
}

func openTest(t *testing.T, path string, opts ...Option) *Reader {
	t.Helper()
	r, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func collect(t *testing.T, r *Reader) []string {
	t.Helper()
	var out []string
	for text, err := range r.Text() {
		require.NoError(t, err)
		out = append(out, text)
	}
	return out
}

func TestReader_Text(t *testing.T) {
	t.Run("body text of sample book", func(t *testing.T) {
		r := openTest(t, testProject(t))
		got := collect(t, r)

		assert.Equal(t, "abcdefghijklmnopqrstuvz", strings.Join(got, ""))
		assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "lmn", "o", "p", "qrs", "tuv", "z"}, got)
	})

	t.Run("continuation paragraphs", func(t *testing.T) {
		r := openTest(t, testProject(t), WithContinuation())
		got := collect(t, r)
		assert.Equal(t, "abcdefghijkcontinuedlmnopqrstuvz", strings.Join(got, ""))
	})

	t.Run("note subtree skipped but tail kept", func(t *testing.T) {
		path := buildArchive(t,
			member{"styles.xml", `<stylesheet><style id="p" publishable="true"/></stylesheet>`},
			member{"a.usx", `<usx><para style="p">abc<note style="f">x<char style="ft">y</char></note>def</para></usx>`},
		)
		assert.Equal(t, []string{"abc", "def"}, collect(t, openTest(t, path)))
	})

	t.Run("unpublishable styles ignored", func(t *testing.T) {
		path := buildArchive(t,
			member{"styles.xml", `<stylesheet><style id="p" publishable="true"/><style id="rem" publishable="TRUE"/></stylesheet>`},
			member{"a.usx", `<usx><para style="p">hello</para><para style="rem">world</para></usx>`},
		)
		assert.Equal(t, []string{"hello"}, collect(t, openTest(t, path)))
	})

	t.Run("whitespace fragments are emitted empty", func(t *testing.T) {
		path := buildArchive(t,
			member{"styles.xml", `<stylesheet><style id="q1" publishable="true"/></stylesheet>`},
			member{"a.usx", "<usx><para style=\"q1\">\n  <verse number=\"1\" style=\"v\"/>  one  <char style=\"wj\">two</char>\n</para></usx>"},
		)
		assert.Equal(t, []string{"", "one", "two", ""}, collect(t, openTest(t, path)))
	})

	t.Run("cyrillic style ids", func(t *testing.T) {
		path := buildArchive(t,
			member{"styles.xml", `<stylesheet><style id="р" publishable="true"/><style id="ір" publishable="true"/></stylesheet>`},
			member{"a.usx", `<usx><para style="ір">intro</para><para style="р">body</para><para style="p">latin</para></usx>`},
		)
		r := openTest(t, path)
		assert.Equal(t, []string{"intro", "body", "latin"}, collect(t, r))
		assert.Equal(t, []string{"ip", "p"}, r.Publishable())
	})

	t.Run("every stylesheet contributes", func(t *testing.T) {
		path := buildArchive(t,
			member{"release/styles.xml", `<stylesheet><style id="p" publishable="true"/></stylesheet>`},
			member{"source/styles.xml", `<stylesheet><style id="q1" publishable="true"/></stylesheet>`},
			member{"a.usx", `<usx><para style="p">one</para><para style="q1">two</para></usx>`},
		)
		assert.Equal(t, []string{"one", "two"}, collect(t, openTest(t, path)))
	})

	t.Run("books in archive order", func(t *testing.T) {
		path := buildArchive(t,
			member{"styles.xml", `<stylesheet><style id="p" publishable="true"/></stylesheet>`},
			member{"MRK.usx", `<usx><para style="p">second</para></usx>`},
			member{"notes.txt", "ignored"},
			member{"MAT.usx", `<usx><para style="p">first</para></usx>`},
		)
		assert.Equal(t, []string{"second", "first"}, collect(t, openTest(t, path)))
	})

	t.Run("missing stylesheet", func(t *testing.T) {
		path := buildArchive(t, member{"a.usx", `<usx/>`})
		r := openTest(t, path)

		var gotErr error
		for _, err := range r.Text() {
			gotErr = err
		}
		assert.True(t, errors.Is(gotErr, ErrStylesheetNotFound))
	})

	t.Run("malformed book", func(t *testing.T) {
		path := buildArchive(t,
			member{"styles.xml", `<stylesheet><style id="p" publishable="true"/></stylesheet>`},
			member{"a.usx", `<usx><para style="p">open`},
		)
		var gotErr error
		for _, err := range openTest(t, path).Text() {
			gotErr = err
		}
		assert.ErrorContains(t, gotErr, "a.usx")
	})

	t.Run("early break", func(t *testing.T) {
		r := openTest(t, testProject(t))
		var got []string
		for text := range r.Text() {
			got = append(got, text)
			if len(got) == 3 {
				break
			}
		}
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})
}

func TestReader_Process(t *testing.T) {
	r := openTest(t, testProject(t))

	var b strings.Builder
	sink := NewLineSink(&b)
	require.NoError(t, r.Process(sink))
	require.NoError(t, sink.Flush())
	assert.Equal(t, 17, sink.Lines)
	assert.True(t, strings.HasPrefix(b.String(), "a\nb\nc\n"))

	stop := errors.New("stop")
	err := r.Process(SinkFunc(func(string) error { return stop }))
	assert.True(t, errors.Is(err, stop))
}

func TestWriteCorpus(t *testing.T) {
	r := openTest(t, testProject(t))

	n, err := WriteCorpus(r)
	require.NoError(t, err)
	assert.Equal(t, 17, n)

	b, err := os.ReadFile(CorpusPath(r.Path()))
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklmnopqrstuvz", strings.ReplaceAll(string(b), "\n", ""))
}

func TestOpen(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.zip")
		require.NoError(t, os.WriteFile(path, []byte("<usx/>"), 0o644))
		_, err := Open(path)
		assert.True(t, errors.Is(err, ErrNotArchive))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "nope.zip"))
		assert.Error(t, err)
	})

	t.Run("closed reader", func(t *testing.T) {
		r, err := Open(testProject(t))
		require.NoError(t, err)
		require.NoError(t, r.Close())
		require.NoError(t, r.Close())

		_, err = r.Names()
		assert.True(t, errors.Is(err, ErrNotOpen))
		assert.True(t, errors.Is(r.ReadStylesheet(), ErrNotOpen))
	})
}

func TestReader_Files(t *testing.T) {
	r := openTest(t, testProject(t))

	t.Run("names and stylesheets", func(t *testing.T) {
		names, err := r.Names()
		require.NoError(t, err)
		assert.Equal(t, []string{"metadata.xml", "release/styles.xml", "release/USX_1/MAT.usx", "release/acr.ldml"}, names)

		sheets, err := r.Stylesheets()
		require.NoError(t, err)
		assert.Equal(t, []string{"release/styles.xml"}, sheets)
	})

	t.Run("file with extension", func(t *testing.T) {
		rc, err := r.FileWithExt("ldml")
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "<ldml/>", string(b))

		_, err = r.FileWithExt("lds")
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("extract with extension", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "acr.xml")
		require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o644))

		name, err := r.ExtractFileWithExt("ldml", dest)
		require.NoError(t, err)
		assert.Equal(t, "release/acr.ldml", name)
		b, _ := os.ReadFile(dest)
		assert.Equal(t, "<ldml/>", string(b))
	})

	t.Run("extract by name", func(t *testing.T) {
		dir := t.TempDir()
		ok, err := r.ExtractFile("release/styles.xml", dir)
		require.NoError(t, err)
		assert.True(t, ok)
		_, err = os.Stat(filepath.Join(dir, "release", "styles.xml"))
		assert.NoError(t, err)

		ok, err = r.ExtractFile("missing.xml", dir)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
