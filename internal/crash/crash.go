/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and a last-chance
// snapshot of the open project.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"infostudio/internal/domain"
	applog "infostudio/internal/log"
	"infostudio/internal/storage"
	"infostudio/internal/telemetry"
	"infostudio/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// ProjectSource yields the document to rescue. *session.State implements it.
type ProjectSource interface {
	Project() domain.Project
}

// Recover captures a panic, logs it with a stacktrace, writes an error
// report next to the project (or to the temp dir) and attempts a
// crash snapshot of the project held by src.
//
// Usage: defer crash.Recover(path, state)
func Recover(path string, src ProjectSource) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(path, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if snap, err := snapshot(path, src); err != nil {
		l.Error("autosave crash snapshot failed", slog.Any("err", err))
	} else if snap != "" {
		l.Info("autosave crash snapshot written", slog.String("path", snap))
	}
	telemetry.Event(telemetry.EventCrash, nil)
	telemetry.Flush(nil)

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

// snapshot reads the project from src, tolerating a second panic while
// doing so.
func snapshot(path string, src ProjectSource) (out string, err error) {
	if src == nil {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read project for snapshot: %v", r)
		}
	}()
	return storage.AutosaveCrashSnapshot(path, src.Project())
}

func reportDir(path string) string {
	if path == "" {
		return os.TempDir()
	}
	dir := storage.BackupDir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

func writeReport(path string, panicVal any, stack []byte) (string, error) {
	now := time.Now()
	out := filepath.Join(reportDir(path), fmt.Sprintf("crash-%s.log", now.Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "InfoStudio Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", now.Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if path != "" {
		_, _ = fmt.Fprintf(&buf, "Project: %s\n", path)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return out, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", out))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return out, err
	}
	_ = f.Sync()

	telemetry.UploadCrash(buf.Bytes())
	return out, nil
}
