/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"infostudio/internal/domain"
	applog "infostudio/internal/log"
)

const (
	FileExt        = ".infographic.json"
	BackupsDirName = "backups"

	backupStamp = "20060102-150405.000000"
)

// Handle ties a project to the file it was loaded from or saved to.
type Handle struct {
	Path    string
	Project domain.Project
	// Recovered is set when Open fell back to a backup.
	Recovered string
}

// WithExt appends the project file extension unless present.
func WithExt(path string) string {
	if strings.HasSuffix(strings.ToLower(path), FileExt) {
		return path
	}
	return strings.TrimSuffix(path, ".json") + FileExt
}

// BackupDir is where backups and crash snapshots of path are kept.
func BackupDir(path string) string { return filepath.Join(filepath.Dir(path), BackupsDirName) }

// Create writes p to a new project file. An existing file is not touched.
func Create(path string, p domain.Project) (*Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("project path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create %s: %w", path, os.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	h := &Handle{Path: path, Project: p}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads a project file. If it cannot be read, parsed or validated the
// most recent valid backup is used and Handle.Recovered names it.
func Open(path string) (*Handle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	b, err := os.ReadFile(path)
	if err == nil {
		p, derr := Decode(b)
		if derr == nil {
			return &Handle{Path: path, Project: p}, nil
		}
		err = derr
	}
	p, from, berr := openFromLatestBackup(path)
	if berr != nil {
		return nil, fmt.Errorf("open project: %w; backup attempt: %v", err, berr)
	}
	l.Warn("project file unusable, recovered from backup", slog.Any("err", err), slog.String("backup", from))
	return &Handle{Path: path, Project: p, Recovered: from}, nil
}

// Save writes h.Project with transactional semantics and a timestamped
// backup of the previous file (if present).
func Save(h *Handle) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if h.Path == "" {
		return errors.New("invalid Handle: missing path")
	}
	if err := h.Project.Validate(); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	if _, statErr := os.Stat(h.Path); statErr == nil {
		bdir := BackupDir(h.Path)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		bname := fmt.Sprintf("%s.%s.bak", filepath.Base(h.Path), time.Now().Format(backupStamp))
		if cerr := copyFile(h.Path, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current project: %w", cerr)
		}
	}
	return Write(h.Path, h.Project)
}

// Write validates p and replaces the file at path without taking a backup.
func Write(path string, p domain.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	data, err := Encode(p)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// SaveAs writes the project to a new path and updates the handle.
func SaveAs(h *Handle, newPath string) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if newPath == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	h.Path = newPath
	h.Recovered = ""
	return Save(h)
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	ents, err := os.ReadDir(BackupDir(path))
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(BackupDir(path), name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// AutosaveCrashSnapshot writes p next to the backups of path (or into the
// temp dir when path is empty) and returns the snapshot file.
func AutosaveCrashSnapshot(path string, p domain.Project) (string, error) {
	dir, base := os.TempDir(), "untitled"+FileExt
	if path != "" {
		dir, base = BackupDir(path), filepath.Base(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure crash dir: %w", err)
	}
	data, err := Encode(p)
	if err != nil {
		return "", err
	}
	out := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", base, time.Now().Format(backupStamp)))
	if err := writeAtomic(out, data); err != nil {
		return "", err
	}
	return out, nil
}

// writeAtomic writes to a temp file in the target directory, then renames it
// over the target.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", werr)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		// On Windows, replace by removing destination first
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(path)
			rerr = os.Rename(temp, path)
		}
		if rerr != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("replace %s: %w", filepath.Base(path), rerr)
		}
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup walks the backups newest first and returns the first
// one that decodes.
func openFromLatestBackup(path string) (domain.Project, string, error) {
	candidates, err := Backups(path)
	if err != nil {
		return domain.Project{}, "", err
	}
	if len(candidates) == 0 {
		return domain.Project{}, "", errors.New("no backups found")
	}
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(candidates[i])
		if err != nil {
			lastErr = fmt.Errorf("read backup: %w", err)
			continue
		}
		p, err := Decode(b)
		if err != nil {
			lastErr = fmt.Errorf("parse backup %s: %w", filepath.Base(candidates[i]), err)
			continue
		}
		return p, candidates[i], nil
	}
	return domain.Project{}, "", lastErr
}
