/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	studio "infostudio/internal/app"
	"infostudio/internal/config"
	"infostudio/internal/crash"
	"infostudio/internal/domain"
	"infostudio/internal/export"
	"infostudio/internal/generate"
	applog "infostudio/internal/log"
	"infostudio/internal/server"
	"infostudio/internal/storage"
	"infostudio/internal/telemetry"
	"infostudio/internal/ui"
	"infostudio/internal/version"
)

func usage() {
	fmt.Println("InfoStudio - infographic slide editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  infostudio version|-v|--version              Show version")
	fmt.Println("  infostudio ui [<project>]                    Launch desktop UI (build with -tags fyne)")
	fmt.Println("  infostudio init <project>                    Create a project file with the default slide")
	fmt.Println("  infostudio info <project>                    Print a project summary")
	fmt.Println("  infostudio render <project> [index] [outdir] Export one slide as PNG")
	fmt.Println("  infostudio export <project> <preset> <out>   Export all slides with a preset (instagram|linkedin|hires)")
	fmt.Println("  infostudio generate <project> [index]        Generate slide content from its header and save")
	fmt.Println("  infostudio serve [<project>] [addr]          Serve the session over HTTP (default " + server.DefaultAddr + ")")
	fmt.Println("  infostudio remote <url> info|png <i> <file>  Talk to a running serve instance")
	fmt.Println("  infostudio history <project> [slide-id]      List recorded slide history")
	fmt.Println("  infostudio restore <project> <entry-id>      Put a history entry back into the project")
	fmt.Println("  infostudio stylepack list                    List installed style pack themes and snippets")
	fmt.Println("  infostudio stylepack export <project> <index> <name> <zip>")
	fmt.Println("                                               Save a slide's colors and CSS as a style pack")
	fmt.Println("  infostudio stylepack install <zip>           Install a style pack")
	fmt.Println("  infostudio outline import <project> <file>   Append slides written in outline syntax")
	fmt.Println("  infostudio outline export <project>          Print the project in outline syntax")
	fmt.Println("  infostudio key set <value>|clear             Store or remove the generation API key")
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func need(args []string, n int, what string) {
	if len(args) < n {
		fmt.Println(what)
		usage()
		os.Exit(2)
	}
}

func main() {
	cfg, key, cfgErr := config.Load()
	applog.Init(applog.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, AddSource: cfg.Logging.Source, File: cfg.Logging.File})
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}
	telemetry.NewDefault(telemetry.FromConfig(cfg.Telemetry))
	defer crash.Recover("", nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	telemetry.Event(telemetry.EventStarted, map[string]any{"command": args[1]})
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("InfoStudio")
		fmt.Println(version.String())
	case "ui":
		var path string
		if len(args) >= 3 {
			path = args[2]
		}
		if err := ui.Run(ui.Options{Config: cfg, APIKey: key, ProjectPath: path}); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	case "init":
		need(args, 3, "init requires <project>")
		h, err := storage.Create(storage.WithExt(args[2]), domain.DefaultProject())
		if err != nil {
			fail(l, "init failed", err)
		}
		fmt.Println("Created project", h.Path)
	case "info":
		need(args, 3, "info requires <project>")
		h, err := storage.Open(storage.WithExt(args[2]))
		if err != nil {
			fail(l, "open failed", err)
		}
		printInfo(h)
	case "render":
		need(args, 3, "render requires <project>")
		if err := render(ctx, cfg, key, args[2:]); err != nil {
			fail(l, "render failed", err)
		}
	case "export":
		need(args, 5, "export requires <project> <preset> <out>")
		if err := exportPreset(ctx, cfg, key, args[2], args[3], args[4]); err != nil {
			fail(l, "export failed", err)
		}
	case "generate":
		need(args, 3, "generate requires <project>")
		if err := magicWrite(ctx, cfg, key, args[2:]); err != nil {
			fail(l, "generate failed", err)
		}
	case "serve":
		var path string
		addr := server.DefaultAddr
		if len(args) >= 3 {
			path = args[2]
		}
		if len(args) >= 4 {
			addr = args[3]
		}
		if err := serve(ctx, cfg, key, path, addr); err != nil {
			fail(l, "serve failed", err)
		}
	case "remote":
		need(args, 4, "remote requires <url> info|png")
		if err := remote(ctx, args[2], args[3:]); err != nil {
			fail(l, "remote failed", err)
		}
	case "history":
		need(args, 3, "history requires <project>")
		if err := history(ctx, cfg, args[2:]); err != nil {
			fail(l, "history failed", err)
		}
	case "restore":
		need(args, 4, "restore requires <project> <entry-id>")
		if err := restore(ctx, cfg, args[2], args[3]); err != nil {
			fail(l, "restore failed", err)
		}
	case "stylepack":
		need(args, 3, "stylepack requires list, export or install")
		if err := stylePack(ctx, cfg, args[2:]); err != nil {
			fail(l, "stylepack failed", err)
		}
	case "outline":
		need(args, 4, "outline requires import <project> <file> or export <project>")
		if err := outlineCmd(ctx, cfg, args[2:]); err != nil {
			fail(l, "outline failed", err)
		}
	case "key":
		need(args, 3, "key requires set <value> or clear")
		switch args[2] {
		case "set":
			need(args, 4, "key set requires <value>")
			if err := config.SetCredential(args[3]); err != nil {
				fail(l, "store key failed", err)
			}
			fmt.Println("API key stored in the OS keyring.")
		case "clear":
			if err := config.ClearCredential(); err != nil {
				fail(l, "clear key failed", err)
			}
			fmt.Println("API key removed.")
		default:
			usage()
			os.Exit(2)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func printInfo(h *storage.Handle) {
	fmt.Printf("Project: %s\n", h.Project.Title)
	fmt.Println("File:", h.Path)
	if h.Recovered != "" {
		fmt.Println("Recovered from:", h.Recovered)
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tID\tHEADER\tPOINTS")
	for i, s := range h.Project.Slides {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i, s.ID, s.Header, len(s.Points))
	}
	_ = tw.Flush()
}

// openApp opens a project for a one-shot command; history recording is
// kept only where the command edits the project.
func openApp(ctx context.Context, cfg config.AppConfig, key, path string, history bool) (*studio.App, error) {
	return studio.Open(ctx, studio.Options{Config: cfg, APIKey: key, ProjectPath: path, NoHistory: !history})
}

func selectSlide(a *studio.App, args []string) error {
	if len(args) == 0 {
		return nil
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i >= a.State.Count() {
		return fmt.Errorf("slide index %q out of range [0,%d)", args[0], a.State.Count())
	}
	a.State.SetActive(i)
	return nil
}

func render(ctx context.Context, cfg config.AppConfig, key string, args []string) error {
	a, err := openApp(ctx, cfg, key, args[0], false)
	if err != nil {
		return err
	}
	defer a.Close()
	defer crash.Recover(a.Path(), a.State)
	if err := selectSlide(a, args[1:]); err != nil {
		return err
	}
	if len(args) >= 3 {
		a.Pipeline.OutDir = args[2]
	}
	a.Pipeline.OnStage = func(s export.Stage) { fmt.Println("  ", s) }
	res, err := a.ExportActive(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%dx%d, %d bytes, %s)\n", res.Path, res.Width, res.Height, res.Bytes, res.Duration.Round(time.Millisecond))
	return nil
}

func exportPreset(ctx context.Context, cfg config.AppConfig, key, path, preset, out string) error {
	a, err := openApp(ctx, cfg, key, path, false)
	if err != nil {
		return err
	}
	defer a.Close()
	defer crash.Recover(a.Path(), a.State)
	files, err := a.ExportPreset(ctx, preset, out)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Println("Wrote", f)
	}
	return nil
}

func magicWrite(ctx context.Context, cfg config.AppConfig, key string, args []string) error {
	a, err := openApp(ctx, cfg, key, args[0], true)
	if err != nil {
		return err
	}
	defer a.Close()
	defer crash.Recover(a.Path(), a.State)
	if err := selectSlide(a, args[1:]); err != nil {
		return err
	}
	ok, err := a.MagicWrite(ctx)
	if errors.Is(err, generate.ErrNoCredential) {
		return fmt.Errorf("%w: run 'infostudio key set <value>' or set %s", err, config.EnvGeminiKey)
	}
	if err != nil || !ok {
		return err
	}
	if err := a.Save(); err != nil {
		return err
	}
	s := a.State.Active()
	fmt.Printf("Slide %d: %s (%d points)\n", a.State.Index(), s.Header, len(s.Points))
	return nil
}

func serve(ctx context.Context, cfg config.AppConfig, key, path, addr string) error {
	a, err := openApp(ctx, cfg, key, path, true)
	if err != nil {
		return err
	}
	defer a.Close()
	defer crash.Recover(a.Path(), a.State)
	secret := os.Getenv(server.EnvSecret)
	srv := server.NewWithOptions(a.State, a.Renderer, server.Options{Secret: secret})
	defer srv.Close()
	if secret != "" {
		tok, err := server.SignToken(secret, "cli", time.Now().Add(24*time.Hour))
		if err != nil {
			return err
		}
		fmt.Println("Bearer token (24h):", tok)
	}
	fmt.Printf("Serving %q on http://%s\n", a.State.Title(), addr)
	return srv.ListenAndServe(ctx, addr)
}

func remote(ctx context.Context, url string, args []string) error {
	var token string
	if secret := os.Getenv(server.EnvSecret); secret != "" {
		t, err := server.SignToken(secret, "remote", time.Now().Add(time.Hour))
		if err != nil {
			return err
		}
		token = t
	}
	c := server.NewClient(url, token)
	switch args[0] {
	case "info":
		p, active, err := c.Project(ctx)
		if err != nil {
			return err
		}
		printInfo(&storage.Handle{Path: url, Project: p})
		fmt.Println("Active:", active)
	case "png":
		if len(args) < 3 {
			return errors.New("remote png requires <index> <file>")
		}
		i, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad index %q", args[1])
		}
		data, err := c.PNG(ctx, i, 1)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[2], data, 0o644); err != nil {
			return fmt.Errorf("write png: %w", err)
		}
		fmt.Println("Wrote", args[2])
	default:
		return fmt.Errorf("unknown remote command %q", args[0])
	}
	return nil
}

func openHistory(ctx context.Context, cfg config.AppConfig) (*storage.History, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return storage.OpenHistory(ctx, dir, cfg.Storage.PostgresDSN)
}

func history(ctx context.Context, cfg config.AppConfig, args []string) error {
	h, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()
	a, err := openApp(ctx, cfg, "", args[0], false)
	if err != nil {
		return err
	}
	defer a.Close()
	project := a.Path()

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()
	if len(args) < 2 {
		sums, err := h.Summary(ctx, project)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(tw, "SLIDE\tENTRIES\tLATEST\tHEADER")
		for _, s := range sums {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.SlideID, s.Count, s.Latest.Local().Format(time.DateTime), s.Header)
		}
		return nil
	}
	entries, err := h.List(ctx, project, args[1], 0)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(tw, "ENTRY\tRECORDED\tHEADER\tPOINTS")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", e.ID, e.TS.Local().Format(time.DateTime), e.Slide.Header, len(e.Slide.Points))
	}
	return nil
}

func restore(ctx context.Context, cfg config.AppConfig, path, entry string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(entry), 10, 64)
	if err != nil {
		return fmt.Errorf("bad entry id %q", entry)
	}
	h, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()
	e, err := h.Get(ctx, id)
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, "", path, false)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.State.ReplaceByID(e.Slide); err != nil {
		return fmt.Errorf("entry %d does not belong to this project: %w", id, err)
	}
	if err := a.Save(); err != nil {
		return err
	}
	fmt.Printf("Restored slide %s from entry %d\n", e.Slide.ID, id)
	return nil
}

func stylePack(ctx context.Context, cfg config.AppConfig, args []string) error {
	switch args[0] {
	case "list":
		a, err := openApp(ctx, cfg, "", "", false)
		if err != nil {
			return err
		}
		defer a.Close()
		fmt.Println("Style packs:", a.StyleDir)
		for _, t := range a.Themes() {
			fmt.Printf("  theme   %-20s %s %s %s %s\n", t.Name, t.Primary, t.Secondary, t.Bg, t.Text)
		}
		for name := range a.Snippets() {
			fmt.Printf("  snippet %s\n", name)
		}
	case "export":
		if len(args) < 5 {
			return errors.New("stylepack export requires <project> <index> <name> <zip>")
		}
		a, err := openApp(ctx, cfg, "", args[1], false)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := selectSlide(a, args[2:3]); err != nil {
			return err
		}
		if err := a.ExportStylePack(args[3], args[4]); err != nil {
			return err
		}
		fmt.Println("Wrote", args[4])
	case "install":
		if len(args) < 2 {
			return errors.New("stylepack install requires <zip>")
		}
		a, err := openApp(ctx, cfg, "", "", false)
		if err != nil {
			return err
		}
		defer a.Close()
		n, err := a.InstallStylePack(args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Installed %d file(s) into %s\n", n, a.StyleDir)
	default:
		return fmt.Errorf("unknown stylepack command %q", args[0])
	}
	return nil
}

func outlineCmd(ctx context.Context, cfg config.AppConfig, args []string) error {
	switch args[0] {
	case "import":
		if len(args) < 3 {
			return errors.New("outline import requires <project> <file>")
		}
		text, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}
		a, err := openApp(ctx, cfg, "", args[1], true)
		if err != nil {
			return err
		}
		defer a.Close()
		n, problems, err := a.ImportOutline(string(text))
		for _, p := range problems {
			fmt.Printf("%s:%s\n", args[2], p.Error())
		}
		if err != nil {
			return err
		}
		if err := a.Save(); err != nil {
			return err
		}
		fmt.Printf("Added %d slide(s) to %s\n", n, a.Path())
	case "export":
		a, err := openApp(ctx, cfg, "", args[1], false)
		if err != nil {
			return err
		}
		defer a.Close()
		fmt.Print(a.ExportOutline())
	default:
		return fmt.Errorf("unknown outline command %q", args[0])
	}
	return nil
}
