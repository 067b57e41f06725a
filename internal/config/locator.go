package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RootSource identifies how the configuration root was discovered.
type RootSource string

const (
	RootSourceExplicit   RootSource = "explicit"
	RootSourceEnv        RootSource = "env"
	RootSourceWorkingDir RootSource = "working-dir"
	RootSourceXDG        RootSource = "xdg"
	RootSourceHome       RootSource = "home"
)

// LocationResult describes the discovered configuration root.
type LocationResult struct {
	Path   string
	Source RootSource
}

// ErrConfigRootNotFound is returned when no configuration root can be located.
var ErrConfigRootNotFound = errors.New("configuration root not found")

// LocateRoot discovers the configuration root directory following the
// precedence rules: explicit path → TRAINCFG_CONFIG_ROOT → ./configs →
// XDG config → ~/.config/traincfg/configs.
func LocateRoot(explicitPath string) (LocationResult, error) {
	if path := strings.TrimSpace(explicitPath); path != "" {
		abs, err := toAbsolute(filepath.Clean(path))
		if err != nil {
			return LocationResult{}, err
		}
		if isDir(abs) {
			return LocationResult{Path: abs, Source: RootSourceExplicit}, nil
		}
		return LocationResult{}, fmt.Errorf("%w: %s", ErrConfigRootNotFound, abs)
	}

	if path, ok := os.LookupEnv("TRAINCFG_CONFIG_ROOT"); ok && strings.TrimSpace(path) != "" {
		abs, err := toAbsolute(path)
		if err != nil {
			return LocationResult{}, err
		}
		if isDir(abs) {
			return LocationResult{Path: abs, Source: RootSourceEnv}, nil
		}
		return LocationResult{}, fmt.Errorf("%w: %s", ErrConfigRootNotFound, abs)
	}

	if wd, err := os.Getwd(); err == nil {
		path := filepath.Join(wd, "configs")
		if isDir(path) {
			return LocationResult{Path: path, Source: RootSourceWorkingDir}, nil
		}
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		path := filepath.Join(xdg, "traincfg", "configs")
		if isDir(path) {
			return LocationResult{Path: path, Source: RootSourceXDG}, nil
		}
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		path := filepath.Join(home, ".config", "traincfg", "configs")
		if isDir(path) {
			return LocationResult{Path: path, Source: RootSourceHome}, nil
		}
	}

	return LocationResult{}, ErrConfigRootNotFound
}

func toAbsolute(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	return abs, nil
}

func isDir(path string) bool {
	stat, err := os.Stat(path)
	if err != nil {
		return false
	}
	return stat.IsDir()
}
