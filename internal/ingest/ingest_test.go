package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"dblsync/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageMap_Resolve(t *testing.T) {
	m := LanguageMap{
		PTX:  map[string]string{"ACRNT": "acr-x-nt", "DROP": ""},
		Lang: map[string]string{"cak": "cak-x-central", "zzz": ""},
	}

	tests := []struct {
		name string
		e    ids
		want string
	}{
		{"identity", ids{lang: "acr"}, "acr"},
		{"paratext name wins", ids{lang: "cak", ptx: "ACRNT"}, "acr-x-nt"},
		{"language fallback", ids{lang: "cak", ptx: "OTHER"}, "cak-x-central"},
		{"paratext suppression", ids{lang: "acr", ptx: "DROP"}, ""},
		{"language suppression", ids{lang: "zzz"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Resolve(entry("e", tt.e.lang, tt.e.ptx, "text")))
		})
	}
}

// ids holds the entry fields Resolve reads.
type ids struct {
	lang, ptx string
}

func TestLoadLanguageMap(t *testing.T) {
	t.Run("empty path is identity", func(t *testing.T) {
		m, err := LoadLanguageMap("")
		require.NoError(t, err)
		assert.Equal(t, "acr", m.Resolve(entry("e", "acr", "ACR", "text")))
	})

	t.Run("reads both tables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "map.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"PTX":{"A":"x"},"lang":{"b":"y"}}`), 0o644))

		m, err := LoadLanguageMap(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"A": "x"}, m.PTX)
		assert.Equal(t, map[string]string{"b": "y"}, m.Lang)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLanguageMap(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "map.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
		_, err := LoadLanguageMap(path)
		assert.Error(t, err)
	})
}

func TestOptions_Validate(t *testing.T) {
	assert.Empty(t, httpx.ValidateStruct(Options{TargetDir: "/data", Language: "cak-x-central", SkipLanguages: []string{"en"}}))

	details := httpx.ValidateStruct(Options{Language: "Not A Tag", Concurrency: 100})
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"targetDir", "language", "concurrency"}, fields)
}
