// Package storage owns where artifacts live: the local directory layout for
// job state and outputs, and the optional object store used to publish
// results.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"infinitetalk/internal/infra"
)

// Layout is the local directory structure chosen once at process start.
// The jobs directory is reserved for future durable job state and is created
// but not written to.
type Layout struct {
	Root       string
	JobsDir    string
	OutputsDir string
}

// NewLayout roots the layout at volumeDir when a durable volume is mounted
// there, otherwise at fallback (typically /tmp, where outputs do not survive
// the container).
func NewLayout(volumeDir, fallback string, logger infra.Logger) (Layout, error) {
	if volumeDir == "" && fallback == "" {
		return Layout{}, errors.New("storage: no root candidates configured")
	}

	root := fallback
	if volumeDir != "" {
		if info, err := os.Stat(volumeDir); err == nil && info.IsDir() {
			root = volumeDir
			logger.Info().Str("root", root).Msg("storage: using mounted volume")
		} else {
			logger.Info().Str("root", fallback).Msg("storage: no volume detected, outputs won't persist")
		}
	}

	l := Layout{
		Root:       root,
		JobsDir:    filepath.Join(root, "jobs"),
		OutputsDir: filepath.Join(root, "outputs"),
	}
	for _, dir := range []string{l.JobsDir, l.OutputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Layout{}, fmt.Errorf("storage: ensure %s: %w", dir, err)
		}
	}
	return l, nil
}
