package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/philipparndt/gobim/internal/align"
	"github.com/philipparndt/gobim/internal/batch"
	"github.com/philipparndt/gobim/internal/bim"
	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/ingest"
	"github.com/philipparndt/gobim/internal/orbit"
	"github.com/philipparndt/gobim/internal/panorama"
	"github.com/philipparndt/gobim/internal/session"
	"github.com/philipparndt/gobim/pkg/analysis"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/viewer"
	"github.com/philipparndt/gobim/pkg/watcher"
	"github.com/philipparndt/gobim/version"
)

const allStoreys = "All storeys"

type App struct {
	app     fyne.App
	window  fyne.Window
	log     *slog.Logger
	cfg     config.Config
	session *session.Session
	view    *viewer.ModelView
	watcher *watcher.FileWatcher

	sourceFile string
	loading    bool

	modelInfo   *widget.Label
	status      *widget.Label
	categoryBox *fyne.Container
}

func main() {
	configPath := flag.String("config", "", "Config file (default "+config.DefaultPath+")")
	verbose := flag.Bool("verbose", false, "Log debug output")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a := app.New()
	w := a.NewWindow("gobim " + version.GetVersion())

	appInstance := &App{
		app:     a,
		window:  w,
		log:     log,
		cfg:     cfg,
		session: session.New(session.Options{Config: cfg, Logger: log}),
	}

	if flag.NArg() > 0 {
		appInstance.loadFile(flag.Arg(0))
	} else {
		appInstance.showWelcomeScreen()
	}

	w.SetOnClosed(appInstance.close)
	w.Resize(fyne.NewSize(1280, 820))
	w.ShowAndRun()
}

func (a *App) showWelcomeScreen() {
	welcomeLabel := widget.NewLabel("Welcome to gobim")
	welcomeLabel.TextStyle = fyne.TextStyle{Bold: true}

	instructionLabel := widget.NewLabel("Open a model manifest (.yaml) to start")

	openButton := widget.NewButton("Open Model", a.showFileDialog)

	content := container.NewVBox(
		layout.NewSpacer(),
		container.NewCenter(welcomeLabel),
		container.NewCenter(instructionLabel),
		layout.NewSpacer(),
		container.NewCenter(openButton),
		layout.NewSpacer(),
	)

	a.window.SetContent(content)
}

func (a *App) showFileDialog() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		a.loadFile(reader.URI().Path())
	}, a.window)
}

// newLoader returns a loader for one load. Loaders cache decoded meshes, so
// a reload running in the background never shares one with the UI.
func (a *App) newLoader() *ingest.Loader {
	return &ingest.Loader{Logger: a.log}
}

func (a *App) loadFile(filename string) {
	if a.loading {
		a.log.Warn("load ignored while a reload is running", "file", filename)
		return
	}
	model, err := a.newLoader().Load(context.Background(), filename)
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to load model: %w", err), a.window)
		return
	}
	if a.session.Loaded() {
		a.session.Close()
	}
	if _, err := a.session.Load(model); err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	a.sourceFile = filename
	a.setupMainUI()
	a.setupFileWatcher()
}

// setupFileWatcher watches every file the model was built from
func (a *App) setupFileWatcher() {
	if a.watcher == nil {
		fw, err := watcher.NewFileWatcher(500*time.Millisecond, a.log)
		if err != nil {
			a.log.Warn("auto-reload disabled", "error", err)
			return
		}
		fw.Start()
		a.watcher = fw
	}
	if err := a.watcher.Replace(a.session.Sources(), func(string) { a.reloadModel() }); err != nil {
		a.log.Warn("failed to watch model files", "error", err)
	}
}

// reloadModel loads the model in the background and swaps it in on the UI
// goroutine
func (a *App) reloadModel() {
	fyne.Do(func() {
		if a.loading {
			return
		}
		a.loading = true
		a.status.SetText("Reloading model...")

		source := a.sourceFile
		go func() {
			model, err := a.newLoader().Load(context.Background(), source)
			fyne.Do(func() {
				a.loading = false
				if err != nil {
					a.log.Error("reload failed", "error", err)
					a.status.SetText("Reload failed: " + err.Error())
					return
				}
				if _, err := a.session.Load(model); err != nil {
					a.status.SetText("Reload failed: " + err.Error())
					return
				}
				a.setupFileWatcher()
				a.setupMainUI()
				a.status.SetText("Reloaded " + filepath.Base(source))
			})
		}()
	})
}

func (a *App) close() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.log.Debug("closing watcher", "error", err)
		}
	}
	a.session.Close()
}

func (a *App) setupMainUI() {
	a.modelInfo = widget.NewLabel("")
	a.status = widget.NewLabel("Click the model to focus")
	a.status.Wrapping = fyne.TextWrapWord
	a.categoryBox = container.NewVBox()

	a.view = viewer.NewModelView(a.session)
	a.view.SetResolution(0.75)
	a.view.SetOnEvent(a.handleEvent)

	modeGroup := widget.NewRadioGroup([]string{batch.ModeBatched.String(), batch.ModeDetailed.String()}, func(selected string) {
		m, err := batch.ParseMode(selected)
		if err != nil {
			return
		}
		if err := a.session.SetMode(m); err != nil {
			a.status.SetText(err.Error())
			return
		}
		a.view.Redraw()
	})
	modeGroup.Horizontal = true
	modeGroup.SetSelected(a.session.Mode().String())

	topCheck := widget.NewCheck("Top View", func(checked bool) {
		if checked {
			a.session.Camera().TopView()
		} else {
			a.session.Camera().SetProjection(orbit.Perspective)
		}
		a.view.Redraw()
	})
	topCheck.Checked = a.session.Camera().Camera().Projection == orbit.Orthographic

	resetButton :=widget.NewButton("Reset Camera", func() {
		topCheck.SetChecked(false)
		a.session.ResetCamera()
		a.view.Redraw()
	})

	alignButton := widget.NewButton("Align to Plane", func() {
		if err := a.session.BeginAlignment(); err != nil {
			a.status.SetText(err.Error())
			return
		}
		a.status.SetText(alignPrompt(a.session.AlignmentProgress()))
		a.view.Redraw()
	})
	cancelButton := widget.NewButton("Cancel", func() {
		_ = a.session.CancelAlignment()
		_ = a.session.CancelPanoramaPick()
		a.status.SetText("Cancelled")
		a.view.Redraw()
	})
	resetAlignButton := widget.NewButton("Reset Alignment", func() {
		if err := a.session.ResetAlignment(); err != nil {
			a.status.SetText(err.Error())
			return
		}
		a.status.SetText("Alignment reset")
		a.view.Redraw()
	})

	panoramaButton := widget.NewButton("Capture Panorama", func() {
		if err := a.session.BeginPanoramaPick(a.cfg.Panorama.EyeHeight, 0); err != nil {
			a.status.SetText(err.Error())
			return
		}
		a.status.SetText("Click a floor to capture a panorama")
	})

	openButton := widget.NewButton("Open Model", a.showFileDialog)

	instructions := widget.NewLabel(
		"Instructions:\n" +
			"• Drag to orbit, right-drag or shift-drag to pan\n" +
			"• Scroll to zoom in/out\n" +
			"• Click the model to focus on a point",
	)
	instructions.Wrapping = fyne.TextWrapWord

	infoPanel := container.NewVBox(
		widget.NewLabel("Model Information:"),
		widget.NewSeparator(),
		a.modelInfo,
		widget.NewSeparator(),
		widget.NewLabel("Display:"),
		modeGroup,
		topCheck,
		resetButton,
		widget.NewSeparator(),
		widget.NewLabel("Storey:"),
		a.storeySelect(),
		widget.NewLabel("Categories:"),
		a.categoryBox,
		widget.NewSeparator(),
		widget.NewLabel("Tools:"),
		alignButton,
		resetAlignButton,
		panoramaButton,
		cancelButton,
		a.status,
		widget.NewSeparator(),
		instructions,
		openButton,
	)

	infoScroll := container.NewVScroll(infoPanel)
	infoScroll.SetMinSize(fyne.NewSize(320, 0))

	content := container.NewBorder(nil, nil, nil, infoScroll, a.view)
	a.window.SetContent(content)
	a.refreshSidebar()
}

func (a *App) storeySelect() *widget.Select {
	reg, err := a.session.Registry()
	if err != nil {
		return widget.NewSelect(nil, nil)
	}
	options := []string{allStoreys}
	ids := map[string]string{allStoreys: ""}
	current := allStoreys
	for _, s := range reg.Storeys() {
		label := fmt.Sprintf("%s (%.2f)", s.Name, s.Elevation)
		options = append(options, label)
		ids[label] = s.ID
		if s.ID == a.session.Storey() {
			current = label
		}
	}
	sel := widget.NewSelect(options, nil)
	sel.Selected = current
	sel.OnChanged = func(selected string) {
		if _, err := a.session.SelectStorey(ids[selected]); err != nil {
			a.status.SetText(err.Error())
			return
		}
		a.refreshSidebar()
		a.view.Redraw()
	})
	sel.SetSelected(allStoreys)
	return sel
}

// refreshSidebar rebuilds the model summary and the category list
func (a *App) refreshSidebar() {
	reg, err := a.session.Registry()
	if err != nil {
		return
	}
	last, _ := a.session.LastRebuild()
	result := analysis.AnalyzeModel(reg, last.Groups)
	a.modelInfo.SetText(fmt.Sprintf(
		"Model: %s\nElements: %d\nTriangles: %d\nVisible: %d\nBatches: %d (%.0f%% fewer draws)\n\nDimensions:\n  X: %.2f\n  Y: %.2f\n  Z: %.2f",
		a.session.Name(),
		result.ElementCount,
		result.TriangleCount,
		last.Admitted,
		len(last.Groups),
		result.DrawCalls.Reduction*100,
		result.Dimensions.X,
		result.Dimensions.Y,
		result.Dimensions.Z,
	))

	a.categoryBox.RemoveAll()
	for _, c := range reg.Categories() {
		id := c.ID
		check := widget.NewCheck(fmt.Sprintf("%s (%d)", c.DisplayName, c.Count), nil)
		check.SetChecked(c.Visible)
		check.OnChanged = func(visible bool) {
			if _, err := a.session.SetCategoryVisible(id, visible); err != nil {
				a.status.SetText(err.Error())
				return
			}
			a.view.Redraw()
		}
		colorButton := widget.NewButton("Color", func() { a.pickCategoryColor(id) })
		a.categoryBox.Add(container.NewBorder(nil, nil, nil, colorButton, check))
	}
	a.categoryBox.Refresh()
}

func (a *App) pickCategoryColor(id string) {
	picker := dialog.NewColorPicker("Category Color", "Override the color of "+id, func(c color.Color) {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		override := bim.Color{R: float64(n.R) / 255, G: float64(n.G) / 255, B: float64(n.B) / 255, A: float64(n.A) / 255}
		if _, err := a.session.SetCategoryColor(id, &override); err != nil {
			a.status.SetText(err.Error())
			return
		}
		a.refreshSidebar()
		a.view.Redraw()
	}, a.window)
	picker.Advanced = true
	picker.Show()
}

func (a *App) handleEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventMiss:
		if a.session.PickMode() == session.PickAlignment {
			a.status.SetText("Nothing picked. " + alignPrompt(a.session.AlignmentProgress()))
		}
	case session.EventFocus:
		a.status.SetText("Focused on " + analysis.FormatVector(ev.Point))
	case session.EventAlignmentPoint:
		a.status.SetText(alignPrompt(a.session.AlignmentProgress()))
	case session.EventAligned:
		a.status.SetText(fmt.Sprintf("Aligned: scale %.4f, rotation %.2f°", ev.Similarity.Scale, ev.Similarity.AngleDegrees()))
		a.session.ResetCamera()
		a.refreshSidebar()
	case session.EventAlignmentRejected:
		a.status.SetText("The picked points do not define an alignment; pick two distinct points on each side")
	case session.EventPanorama:
		if ev.Err != nil {
			dialog.ShowError(ev.Err, a.window)
			return
		}
		a.status.SetText("Panorama captured at " + analysis.FormatVector(ev.Point))
		a.showPanorama(ev.Image, ev.Point)
	}
	a.view.Redraw()
}

func alignPrompt(next align.Role) string {
	switch next {
	case align.SourceA, align.SourceB:
		return fmt.Sprintf("Click the model to pick %s", next)
	case align.TargetA, align.TargetB:
		return fmt.Sprintf("Click the reference plane to pick %s", next)
	}
	return ""
}

func (a *App) showPanorama(img *image.RGBA, at geometry.Vector3) {
	w := a.app.NewWindow("Panorama " + analysis.FormatVector(at))

	preview := canvas.NewImageFromImage(img)
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(1024, 512))

	saveButton := widget.NewButton("Save...", func() {
		dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if writer == nil {
				return
			}
			path := writer.URI().Path()
			writer.Close()
			if err := panorama.Save(path, img); err != nil {
				dialog.ShowError(err, w)
				return
			}
			thumb := panorama.ThumbnailPath(path)
			if err := panorama.Save(thumb, panorama.Thumbnail(img, 512)); err != nil {
				a.log.Warn("failed to write thumbnail", "path", thumb, "error", err)
			}
		}, w)
	})

	w.SetContent(container.NewBorder(nil, container.NewHBox(layout.NewSpacer(), saveButton), nil, nil, preview))
	w.Show()
}
