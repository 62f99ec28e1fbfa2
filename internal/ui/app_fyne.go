//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	fstorage "fyne.io/fyne/v2/storage"
	ftheme "fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	studio "infostudio/internal/app"
	"infostudio/internal/crash"
	"infostudio/internal/domain"
	"infostudio/internal/editor"
	"infostudio/internal/export"
	"infostudio/internal/generate"
	applog "infostudio/internal/log"
	"infostudio/internal/session"
	"infostudio/internal/storage"
)

const recentPrefsKey = "recent.projects"

// Run starts the Fyne desktop editor on opt.ProjectPath, or on the default
// project when it is empty.
func Run(opt Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := studio.Open(ctx, studio.Options{Config: opt.Config, APIKey: opt.APIKey, ProjectPath: opt.ProjectPath})
	if err != nil {
		return err
	}
	defer a.Close()
	st := a.State
	defer crash.Recover(a.Path(), st)

	fyneApp := app.NewWithID("infostudio")
	w := fyneApp.NewWindow(WindowTitle(st.Title(), a.Path()))
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", max(opt.Config.UI.WindowWidth, 1000))
	winH := prefs.IntWithFallback("window.height", max(opt.Config.UI.WindowHeight, 700))
	w.Resize(fyne.NewSize(float32(max(winW, 1000)), float32(max(winH, 700))))

	status := widget.NewLabel("Ready")
	// syncing is set while widgets are filled from the session so that
	// their change callbacks do not write back
	syncing := false

	edit := func(fn func(domain.Slide) domain.Slide) {
		if syncing {
			return
		}
		if err := st.ReplaceActive(fn(st.Active())); err != nil {
			l.Warn("edit rejected", slog.Any("err", err))
			status.SetText(err.Error())
		}
	}
	editErr := func(fn func(domain.Slide) (domain.Slide, error)) {
		if syncing {
			return
		}
		s, err := fn(st.Active())
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if err := st.ReplaceActive(s); err != nil {
			dialog.ShowError(err, w)
		}
	}
	upload := func(apply func(domain.Slide, []byte) (domain.Slide, error)) {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if r == nil {
				return
			}
			path := r.URI().Path()
			_ = r.Close()
			data, err := editor.ReadUpload(path)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			editErr(func(s domain.Slide) (domain.Slide, error) { return apply(s, data) })
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}))
		fd.Show()
	}

	// Header bar
	prevBtn := widget.NewButtonWithIcon("", ftheme.NavigateBackIcon(), func() { st.Prev() })
	nextBtn := widget.NewButtonWithIcon("", ftheme.NavigateNextIcon(), func() { st.Next() })
	counter := widget.NewLabel(Counter(st.Index(), st.Count()))
	addBtn := widget.NewButtonWithIcon("Slide", ftheme.ContentAddIcon(), func() { st.AppendSlide() })
	exportBtn := widget.NewButtonWithIcon(ExportLabel(false), ftheme.DownloadIcon(), nil)
	exportBtn.Importance = widget.HighImportance
	runExport := func() {
		if st.Exporting() {
			return
		}
		go func() {
			res, err := a.ExportActive(ctx)
			fyne.Do(func() {
				switch {
				case errors.Is(err, session.ErrBusySlot):
				case err != nil:
					l.Error("export failed", slog.Any("err", err))
					dialog.ShowError(err, w)
				default:
					status.SetText(fmt.Sprintf("Exported %s (%dx%d)", res.Path, res.Width, res.Height))
				}
			})
		}()
	}
	exportBtn.OnTapped = runExport
	appTitle := widget.NewLabelWithStyle("InfoStudio", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	header := container.NewHBox(appTitle, layout.NewSpacer(), prevBtn, counter, nextBtn, layout.NewSpacer(), addBtn, exportBtn)

	// Magic write
	magicBtn := widget.NewButtonWithIcon(MagicLabel(false), ftheme.SearchReplaceIcon(), nil)
	runMagic := func() {
		go func() {
			ok, err := a.MagicWrite(ctx)
			fyne.Do(func() {
				switch {
				case errors.Is(err, generate.ErrNoCredential):
					dialog.ShowInformation("Magic write", "No API key configured. Run: infostudio key set", w)
				case errors.Is(err, generate.ErrInFlight):
				case err != nil:
					status.SetText("Generation failed: " + err.Error())
				case ok:
					status.SetText("Content generated")
				}
			})
		}()
	}
	magicBtn.OnTapped = runMagic

	// Content tab
	headerEntry := widget.NewEntry()
	headerEntry.OnChanged = func(v string) { edit(func(s domain.Slide) domain.Slide { return editor.SetHeader(s, v) }) }
	subEntry := widget.NewMultiLineEntry()
	subEntry.SetMinRowsVisible(2)
	subEntry.OnChanged = func(v string) { edit(func(s domain.Slide) domain.Slide { return editor.SetSubHeader(s, v) }) }
	imageURL := widget.NewEntry()
	imageURL.SetPlaceHolder("https://… or upload")
	imageURL.OnSubmitted = func(v string) {
		edit(func(s domain.Slide) domain.Slide { return editor.SetMainImageURL(s, strings.TrimSpace(v)) })
	}
	imageBtn := widget.NewButtonWithIcon("Upload image…", ftheme.FileImageIcon(), func() { upload(editor.SetMainImage) })
	logoBtn := widget.NewButtonWithIcon("Upload logo…", ftheme.FileImageIcon(), func() { upload(editor.SetLogo) })
	clearLogoBtn := widget.NewButtonWithIcon("", ftheme.DeleteIcon(), func() { edit(editor.ClearLogo) })

	pointsBox := container.NewVBox()
	var rows []*pointRow
	lastSig := ""
	updatePoint := func(id string, patch editor.PointPatch) {
		edit(func(s domain.Slide) domain.Slide { return editor.UpdatePoint(s, id, patch) })
	}
	removePoint := func(id string) {
		edit(func(s domain.Slide) domain.Slide { return editor.RemovePoint(s, id) })
	}
	addPointBtn := widget.NewButtonWithIcon("Add point", ftheme.ContentAddIcon(), func() { edit(editor.AddPoint) })

	contentTab := container.NewVScroll(container.NewVBox(
		widget.NewLabel("Header"), headerEntry,
		widget.NewLabel("Subheader"), subEntry,
		widget.NewLabel("Main image"), container.NewBorder(nil, nil, nil, imageBtn, imageURL),
		widget.NewLabel("Logo"), container.NewHBox(logoBtn, clearLogoBtn),
		widget.NewSeparator(),
		container.NewBorder(nil, nil, widget.NewLabelWithStyle("Points", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), addPointBtn),
		pointsBox,
	))

	// Style tab
	themeBtns := map[string]*widget.Button{}
	themeGrid := container.NewGridWithColumns(2)
	allThemes := a.Themes()
	for _, t := range allThemes {
		t := t
		b := widget.NewButton(t.Name, func() { edit(func(s domain.Slide) domain.Slide { return editor.ApplyTheme(s, t) }) })
		themeBtns[t.Name] = b
		themeGrid.Add(b)
	}
	colorEntries := map[editor.ColorField]*widget.Entry{}
	colorForm := widget.NewForm()
	for _, f := range editor.ColorFields() {
		f := f
		e := widget.NewEntry()
		e.OnSubmitted = func(v string) {
			editErr(func(s domain.Slide) (domain.Slide, error) { return editor.SetColor(s, f, v) })
		}
		colorEntries[f] = e
		colorForm.Append(strings.ToUpper(string(f[:1]))+string(f[1:]), e)
	}
	styleTab := container.NewVScroll(container.NewVBox(
		widget.NewLabelWithStyle("Themes", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), themeGrid,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Colors (press Enter to apply)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), colorForm,
	))

	// CSS tab
	cssEntry := widget.NewMultiLineEntry()
	cssEntry.TextStyle = fyne.TextStyle{Monospace: true}
	cssEntry.OnChanged = func(v string) { edit(func(s domain.Slide) domain.Slide { return editor.SetCustomCSS(s, v) }) }
	resetCSS := widget.NewButtonWithIcon("Reset", ftheme.ViewRefreshIcon(), func() { edit(editor.ResetCSS) })
	snippets := a.Snippets()
	snippetNames := make([]string, 0, len(snippets))
	for name := range snippets {
		snippetNames = append(snippetNames, name)
	}
	sort.Strings(snippetNames)
	snippetSel := widget.NewSelect(snippetNames, nil)
	snippetSel.PlaceHolder = "Insert snippet from style pack"
	snippetSel.OnChanged = func(name string) {
		if name == "" {
			return
		}
		css := snippets[name]
		edit(func(s domain.Slide) domain.Slide {
			return editor.SetCustomCSS(s, strings.TrimRight(s.CustomCSS, "\n")+"\n"+css)
		})
		snippetSel.ClearSelected()
	}
	if len(snippetNames) == 0 {
		snippetSel.Disable()
	}
	cssTab := container.NewBorder(nil, container.NewBorder(nil, nil, nil, resetCSS, snippetSel), nil, nil, cssEntry)

	tabs := container.NewAppTabs()
	for _, t := range editor.Tabs() {
		var body fyne.CanvasObject
		switch t {
		case editor.TabContent:
			body = contentTab
		case editor.TabStyle:
			body = styleTab
		case editor.TabCSS:
			body = cssTab
		}
		tabs.Append(container.NewTabItem(TabTitle(t), body))
	}

	// Preview and pagination
	preview := NewSlidePreview()
	dots := NewPageDots()
	dots.OnSelect = func(i int) { st.SetActive(i) }
	dirty := make(chan struct{}, 1)
	markDirty := func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
			}
			img, err := a.Preview(ctx, previewScale)
			if err != nil {
				l.Warn("preview render failed", slog.Any("err", err))
				continue
			}
			fyne.Do(func() { preview.SetImage(img) })
		}
	}()

	// Menus
	undoItem := fyne.NewMenuItem("Undo", func() { st.Undo() })
	redoItem := fyne.NewMenuItem("Redo", func() { st.Redo() })
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}
	var mainMenu *fyne.MainMenu

	refresh := func() {
		syncing = true
		defer func() { syncing = false }()
		s := st.Active()
		i, n := st.Index(), st.Count()
		counter.SetText(Counter(i, n))
		setEnabled(prevBtn, st.CanPrev())
		setEnabled(nextBtn, st.CanNext())
		exporting := st.Exporting()
		exportBtn.SetText(ExportLabel(exporting))
		setEnabled(exportBtn, !exporting)
		generating := st.Generating(s.ID)
		magicBtn.SetText(MagicLabel(generating))
		setEnabled(magicBtn, !generating)

		setText(headerEntry, s.Header)
		setText(subEntry, s.SubHeader)
		if !strings.HasPrefix(s.MainImageURL, "data:") {
			setText(imageURL, s.MainImageURL)
		} else {
			setText(imageURL, "")
		}
		setEnabled(clearLogoBtn, s.LogoURL != "")
		setEnabled(addPointBtn, len(s.Points) < domain.MaxPoints)
		if sig := pointSignature(s); sig != lastSig || len(rows) != len(s.Points) {
			lastSig = sig
			rows = rows[:0]
			pointsBox.RemoveAll()
			for k, p := range s.Points {
				r := newPointRow(p, k+1, updatePoint, removePoint)
				rows = append(rows, r)
				pointsBox.Add(r.box)
			}
		} else {
			for k, p := range s.Points {
				rows[k].set(p)
			}
		}

		active := ""
		for _, t := range allThemes {
			if strings.EqualFold(t.Primary, s.AccentColor) {
				active = t.Name
				break
			}
		}
		for name, b := range themeBtns {
			if name == active {
				b.Importance = widget.HighImportance
			} else {
				b.Importance = widget.MediumImportance
			}
			b.Refresh()
		}
		for f, e := range colorEntries {
			setText(e, editor.Color(s, f))
		}
		setText(cssEntry, s.CustomCSS)

		dots.Set(i, n)
		undoItem.Disabled = !st.CanUndo()
		redoItem.Disabled = !st.CanRedo()
		if mainMenu != nil {
			mainMenu.Refresh()
		}
		w.SetTitle(WindowTitle(st.Title(), a.Path()))
	}
	unsubscribe := st.Subscribe(func(c session.Change) {
		fyne.Do(refresh)
		if c.Kind != session.ChangeBusy {
			markDirty()
		}
	})
	defer unsubscribe()

	afterOpen := func(path string) {
		addRecentProject(prefs, a.Path())
		if rec := a.Recovered(); rec != "" {
			dialog.ShowInformation("Project recovered", "The project file was unreadable and was restored from\n"+rec, w)
		}
		status.SetText("Opened " + path)
	}
	openPath := func(path string) {
		if err := a.OpenProject(path); err != nil {
			l.Error("open project failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		afterOpen(path)
	}
	saveAs := func() {
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			// the dialog leaves an empty file behind; drop it so it is not backed up
			if fi, err := os.Stat(path); err == nil && fi.Size() == 0 {
				_ = os.Remove(path)
			}
			if err := a.SaveAs(path); err != nil {
				dialog.ShowError(err, w)
				return
			}
			addRecentProject(prefs, a.Path())
			status.SetText("Saved " + a.Path())
			refresh()
		}, w)
		fd.SetFileName("infographic" + storage.FileExt)
		fd.Show()
	}

	newItem := fyne.NewMenuItem("New", func() {
		dialog.ShowConfirm("New project", "Discard the current project and start over?", func(ok bool) {
			if ok {
				if err := a.NewProject(); err != nil {
					dialog.ShowError(err, w)
				}
			}
		}, w)
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if r == nil {
				return
			}
			path := r.URI().Path()
			_ = r.Close()
			openPath(path)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		fd.Show()
	})
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	recentItem.ChildMenu = fyne.NewMenu("")
	rebuildRecent := func() {
		recentItem.ChildMenu.Items = nil
		for _, p := range loadRecentProjects(prefs) {
			p := p
			recentItem.ChildMenu.Items = append(recentItem.ChildMenu.Items, fyne.NewMenuItem(p, func() { openPath(p) }))
		}
		recentItem.Disabled = len(recentItem.ChildMenu.Items) == 0
	}
	rebuildRecent()
	saveItem := fyne.NewMenuItem("Save", func() {
		err := a.Save()
		switch {
		case errors.Is(err, studio.ErrNoPath):
			saveAs()
		case err != nil:
			dialog.ShowError(err, w)
		default:
			status.SetText("Saved " + a.Path())
		}
	})
	saveAsItem := fyne.NewMenuItem("Save As…", saveAs)
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierShortcutDefault}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}
	saveAsItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}
	exportPackItem := fyne.NewMenuItem("Export Style Pack…", func() {
		name := widget.NewEntry()
		name.SetText(st.Active().Header)
		dialog.ShowForm("Export Style Pack", "Next", "Cancel", []*widget.FormItem{widget.NewFormItem("Name", name)}, func(ok bool) {
			if !ok || strings.TrimSpace(name.Text) == "" {
				return
			}
			fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				if wc == nil {
					return
				}
				out := wc.URI().Path()
				_ = wc.Close()
				if err := a.ExportStylePack(name.Text, out); err != nil {
					dialog.ShowError(err, w)
					return
				}
				status.SetText("Style pack written to " + out)
			}, w)
			fd.SetFileName("stylepack.zip")
			fd.Show()
		}, w)
	})
	installPackItem := fyne.NewMenuItem("Install Style Pack…", func() {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if r == nil {
				return
			}
			path := r.URI().Path()
			_ = r.Close()
			n, err := a.InstallStylePack(path)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Style pack installed", fmt.Sprintf("%d file(s) installed. Restart to see the new themes.", n), w)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		fd.Show()
	})
	importOutlineItem := fyne.NewMenuItem("Import Outline…", func() {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if r == nil {
				return
			}
			text, err := io.ReadAll(r)
			_ = r.Close()
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			n, problems, err := a.ImportOutline(string(text))
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			msg := fmt.Sprintf("%d slide(s) added.", n)
			if len(problems) > 0 {
				lines := make([]string, 0, len(problems))
				for _, p := range problems {
					lines = append(lines, p.Error())
				}
				msg += "\n\n" + strings.Join(lines, "\n")
			}
			dialog.ShowInformation("Outline imported", msg, w)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".txt", ".md"}))
		fd.Show()
	})
	fileMenu := fyne.NewMenu("File", newItem, openItem, recentItem, fyne.NewMenuItemSeparator(), saveItem, saveAsItem,
		fyne.NewMenuItemSeparator(), importOutlineItem, exportPackItem, installPackItem)

	addSlideItem := fyne.NewMenuItem("New Slide", func() { st.AppendSlide() })
	prevItem := fyne.NewMenuItem("Previous Slide", func() { st.Prev() })
	nextItem := fyne.NewMenuItem("Next Slide", func() { st.Next() })
	addSlideItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyM, Modifier: fyne.KeyModifierShortcutDefault}
	prevItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyPageUp, Modifier: fyne.KeyModifierShortcutDefault}
	nextItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyPageDown, Modifier: fyne.KeyModifierShortcutDefault}
	editMenu := fyne.NewMenu("Edit", undoItem, redoItem, fyne.NewMenuItemSeparator(), addSlideItem, prevItem, nextItem)

	pngItem := fyne.NewMenuItem("Export Active Slide (PNG)", runExport)
	pngItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyE, Modifier: fyne.KeyModifierShortcutDefault}
	exportItems := []*fyne.MenuItem{pngItem, fyne.NewMenuItemSeparator()}
	for _, pr := range export.Presets() {
		pr := pr
		label := fmt.Sprintf("Preset %s: %s", pr.Name, pr.Description)
		exportItems = append(exportItems, fyne.NewMenuItem(label, func() {
			runPreset := func(out string) {
				go func() {
					files, err := a.ExportPreset(ctx, string(pr.Name), out)
					fyne.Do(func() {
						if err != nil {
							if !errors.Is(err, session.ErrBusySlot) {
								dialog.ShowError(err, w)
							}
							return
						}
						status.SetText(fmt.Sprintf("Exported %d file(s) with %s", len(files), pr.Name))
					})
				}()
			}
			fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				if uri == nil {
					return
				}
				out := uri.Path()
				if pr.Format != "png" {
					out = out + "/infographic-" + string(pr.Name)
				}
				runPreset(out)
			}, w)
			fd.Show()
		}))
	}
	exportMenu := fyne.NewMenu("Export", exportItems...)

	magicItem := fyne.NewMenuItem("Magic Write", runMagic)
	magicItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyG, Modifier: fyne.KeyModifierShortcutDefault}
	generateMenu := fyne.NewMenu("Generate", magicItem)

	mainMenu = fyne.NewMainMenu(fileMenu, editMenu, exportMenu, generateMenu)
	w.SetMainMenu(mainMenu)

	// Layout
	sidebar := container.NewBorder(container.NewPadded(magicBtn), nil, nil, nil, tabs)
	center := container.NewBorder(nil, dots, nil, nil, preview)
	split := container.NewHSplit(sidebar, center)
	split.Offset = 0.38
	top := container.NewVBox(container.NewPadded(header), widget.NewSeparator())
	w.SetContent(container.NewBorder(top, status, nil, nil, split))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if p := a.Path(); p != "" {
			addRecentProject(prefs, p)
		}
		w.Close()
	})

	refresh()
	markDirty()
	if a.Path() != "" {
		afterOpen(a.Path())
		rebuildRecent()
	}
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

func loadRecentProjects(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		_ = json.Unmarshal([]byte(raw), &items)
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, err := os.Stat(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func addRecentProject(p fyne.Preferences, path string) {
	if path == "" {
		return
	}
	b, _ := json.Marshal(pushRecent(loadRecentProjects(p), path))
	p.SetString(recentPrefsKey, string(b))
}
