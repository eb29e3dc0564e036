// Package paths resolves the on-disk locations the calendar core reads
// and writes, grounded on original_source/common/src/utils/paths.rs.
package paths

import (
	"os"
	"path/filepath"

	"github.com/watson-app/watson/internal/werr"
)

// HomeDir returns $HOME, failing hard if it isn't set (spec.md §6).
func HomeDir() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return "", werr.New(werr.KindEnvVar, "HOME not set")
	}
	return home, nil
}

// CredentialsDir returns $HOME/.watson, creating it if missing.
func CredentialsDir() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".watson")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", werr.Wrap(werr.KindDirCreate, err)
	}
	return dir, nil
}

// CredentialsFile returns $HOME/.watson/credentials.json.
func CredentialsFile() (string, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}

// KeyFile returns $HOME/.watson/master.key.
func KeyFile() (string, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "master.key"), nil
}

// CacheDir returns $XDG_CACHE_HOME/watson (defaulting to $HOME/.cache/watson),
// creating it if missing.
func CacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := HomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "watson")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", werr.Wrap(werr.KindDirCreate, err)
	}
	return dir, nil
}

// CacheFile returns $XDG_CACHE_HOME/watson/calendar_cache.bin.
func CacheFile() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "calendar_cache.bin"), nil
}
