package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dblsync/internal/platform/crypto"

	"github.com/pelletier/go-toml/v2"
)

var ErrMissingCredentials = errors.New("library api credentials not found")

// CredentialSource is one place credentials may be kept. Lookup returns found=false
// when the source simply has none.
type CredentialSource interface {
	Name() string
	Lookup() (creds crypto.Credentials, found bool, err error)
}

// EnvSource reads DBL_KEY1 (token) and DBL_KEY2 (private key).
type EnvSource struct{}

func (EnvSource) Name() string { return "environment" }

func (EnvSource) Lookup() (crypto.Credentials, bool, error) {
	key1, key2 := os.Getenv("DBL_KEY1"), os.Getenv("DBL_KEY2")
	if key1 == "" || key2 == "" {
		return crypto.Credentials{}, false, nil
	}
	return crypto.Credentials{Token: key1, PrivateKey: key2}, true, nil
}

// FileSource reads a TOML file of the form
//
//	[keys]
//	key1 = "<token>"
//	key2 = "<private key>"
type FileSource struct {
	Path string
}

// DefaultCredentialsPath is authkey.toml in the per-user SIL/DBL config directory.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "SIL", "DBL", "authkey.toml"), nil
}

func (s FileSource) Name() string { return s.Path }

type authKeyFile struct {
	Keys struct {
		Key1 string `toml:"key1"`
		Key2 string `toml:"key2"`
	} `toml:"keys"`
}

func (s FileSource) Lookup() (crypto.Credentials, bool, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return crypto.Credentials{}, false, nil
	}
	if err != nil {
		return crypto.Credentials{}, false, fmt.Errorf("read %s: %w", s.Path, err)
	}

	var f authKeyFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return crypto.Credentials{}, false, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	if f.Keys.Key1 == "" || f.Keys.Key2 == "" {
		return crypto.Credentials{}, false, nil
	}
	return crypto.Credentials{Token: f.Keys.Key1, PrivateKey: f.Keys.Key2}, true, nil
}

// DefaultSources is the environment followed by the per-user credentials file.
func DefaultSources() []CredentialSource {
	sources := []CredentialSource{EnvSource{}}
	if path, err := DefaultCredentialsPath(); err == nil {
		sources = append(sources, FileSource{Path: path})
	}
	return sources
}

// ResolveCredentials returns the first complete credential pair among sources, in order.
func ResolveCredentials(sources ...CredentialSource) (crypto.Credentials, error) {
	for _, src := range sources {
		creds, found, err := src.Lookup()
		if err != nil {
			return crypto.Credentials{}, fmt.Errorf("credentials from %s: %w", src.Name(), err)
		}
		if found {
			return creds, nil
		}
	}
	return crypto.Credentials{}, ErrMissingCredentials
}
