// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the key-value persistence adapter.
package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/polychat/internal/util"
)

// =============================================================================
// FILE-BACKED KV
// =============================================================================

// FileKV stores each key as one JSON file under a base directory.
// Writes are atomic (temp file + fsync + rename) so a crash leaves either
// the old value or the complete new value, never a torn file.
type FileKV struct {
	// BaseDir is the directory holding one file per key.
	// Default: ~/.polychat/store/
	BaseDir string
}

// OpenFileKV creates a file store rooted at the default directory.
func OpenFileKV() (*FileKV, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, &StoreError{Op: "open", Message: "no home directory", Err: err}
	}
	return OpenFileKVAt(filepath.Join(homeDir, ".polychat", "store"))
}

// OpenFileKVAt creates a file store rooted at baseDir.
func OpenFileKVAt(baseDir string) (*FileKV, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, &StoreError{Op: "open", Message: "cannot create base directory", Err: err}
	}
	return &FileKV{BaseDir: baseDir}, nil
}

// Get returns the value for key, or absent when no file exists.
func (s *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, &StoreError{Op: "get", Key: key, Message: "read failed", Err: err}
	}
	return string(data), true, nil
}

// Set writes value under key atomically.
func (s *FileKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := util.AtomicWriteFile(s.path(key), []byte(value), 0600); err != nil {
		return &StoreError{Op: "set", Key: key, Message: "write failed", Err: err}
	}
	return nil
}

// Delete removes the file for key. Absent keys are a no-op.
func (s *FileKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return &StoreError{Op: "delete", Key: key, Message: "remove failed", Err: err}
	}
	return nil
}

// path maps a key to its file. Keys use a "prefix:id" shape; the colon is
// not portable as a filename character, so it maps to a double underscore.
func (s *FileKV) path(key string) string {
	name := strings.ReplaceAll(key, ":", "__")
	return filepath.Join(s.BaseDir, name+".json")
}
