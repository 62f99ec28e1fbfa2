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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xeipuuv/gojsonschema"

	"infostudio/internal/domain"
)

func TestCreateWritesValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck"+FileExt)
	proj := domain.DefaultProject()
	h, err := Create(path, proj)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	data, err := os.ReadFile(h.Path)
	if err != nil {
		t.Fatalf("read project: %v", err)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(ProjectSchema()), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !res.Valid() {
		for _, e := range res.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("project file does not conform to schema")
	}
	if _, err := Create(path, proj); !errors.Is(err, os.ErrExist) {
		t.Fatalf("Create over an existing file: %v", err)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck"+FileExt)
	proj := domain.DefaultProject()
	proj.Slides = append(proj.Slides, domain.Slide{ID: "empty", Header: "No points"})
	if _, err := Create(path, proj); err != nil {
		t.Fatal(err)
	}
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if h.Recovered != "" {
		t.Fatalf("unexpected recovery from %s", h.Recovered)
	}
	if !reflect.DeepEqual(h.Project.Slides[0], proj.Slides[0]) {
		t.Fatalf("first slide differs after round trip")
	}
	if h.Project.Slides[1].Points == nil || len(h.Project.Slides[1].Points) != 0 {
		t.Fatalf("empty point list should decode as empty slice")
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck"+FileExt)
	h, err := Create(path, domain.DefaultProject())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	h.Project.Title = "changed"
	if err := Save(h); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	backups, err := Backups(path)
	if err != nil {
		t.Fatalf("Backups: %v", err)
	}
	if len(backups) != 1 || !strings.HasSuffix(backups[0], ".bak") {
		t.Fatalf("expected one backup, got %v", backups)
	}
}

func TestSaveRejectsInvalidProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck"+FileExt)
	p := domain.Project{Slides: []domain.Slide{{ID: "a"}, {ID: "a"}}}
	if err := Save(&Handle{Path: path, Project: p}); !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file may be written for an invalid project")
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck"+FileExt)
	proj := domain.DefaultProject()
	h, err := Create(path, proj)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	h.Project.Title = "second"
	if err := Save(h); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(path, []byte("{ this is not json"), 0o644); err != nil {
		t.Fatalf("corrupt project: %v", err)
	}
	opened, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if opened.Project.Title != proj.Title || opened.Recovered == "" {
		t.Fatalf("expected recovery of %q, got %q from %q", proj.Title, opened.Project.Title, opened.Recovered)
	}
}

func TestOpenRejectsSchemaViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck"+FileExt)
	bad := `{"title":"x","slides":[{"id":"1","header":"h","subHeader":"s","mainImageUrl":"",
"accentColor":"#000","secondaryColor":"#000","backgroundColor":"#fff","textColor":"#000",
"points":[{"id":"p","title":"t","description":"d","icon":"car","angle":400}]}]}`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil || !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("expected ErrInvalidProject, got %v", err)
	}
}

func TestSaveAs(t *testing.T) {
	dir := t.TempDir()
	h, err := Create(filepath.Join(dir, "a"+FileExt), domain.DefaultProject())
	if err != nil {
		t.Fatal(err)
	}
	np := filepath.Join(dir, "sub", "b"+FileExt)
	if err := SaveAs(h, np); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if h.Path != np {
		t.Fatalf("handle path not updated: %s", h.Path)
	}
	if _, err := Open(np); err != nil {
		t.Fatalf("open new path: %v", err)
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck"+FileExt)
	proj := domain.DefaultProject()
	out, err := AutosaveCrashSnapshot(path, proj)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	if filepath.Dir(out) != BackupDir(path) {
		t.Fatalf("snapshot outside the backups dir: %s", out)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	got, err := Decode(b)
	if err != nil || got.Title != proj.Title {
		t.Fatalf("snapshot content mismatch: %v %q", err, got.Title)
	}
}

func TestWithExt(t *testing.T) {
	for in, want := range map[string]string{
		"deck":                  "deck" + FileExt,
		"deck.json":             "deck" + FileExt,
		"Deck.Infographic.JSON": "Deck.Infographic.JSON",
	} {
		if got := WithExt(in); got != want {
			t.Fatalf("WithExt(%q) = %q, want %q", in, got, want)
		}
	}
}
