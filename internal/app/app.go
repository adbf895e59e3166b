// Package app is the raylib viewer: it draws a session's scene on the GPU
// and feeds mouse and keyboard input back into the session.
package app

import (
	"context"
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/metrics"
	"github.com/philipparndt/gobim/internal/session"
	"github.com/philipparndt/gobim/pkg/scene"
	"github.com/philipparndt/gobim/version"
)

// Options configure the viewer
type Options struct {
	Config config.Config
	Logger *slog.Logger
	// OutputDir receives captured panoramas
	OutputDir string
	Width     int32
	Height    int32
}

type App struct {
	log     *slog.Logger
	cfg     config.Config
	session *session.Session
	metrics *metrics.Metrics
	output  string

	Model       ModelData
	Interaction InteractionState
	FileWatch   FileWatchState
	UI          UIState
}

func newApp(s *session.Session, m *metrics.Metrics, opts Options, sourceFile string) *App {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	output := opts.OutputDir
	if output == "" {
		output = "."
	}
	return &App{
		log:     log,
		cfg:     opts.Config,
		session: s,
		metrics: m,
		output:  output,
		Model: ModelData{
			meshes: make(map[meshKey]rl.Mesh),
		},
		FileWatch: FileWatchState{
			sourceFile: sourceFile,
			loaded:     make(chan loadResult, 1),
		},
	}
}

// Run opens a window on the model at path and blocks until it is closed
func Run(path string, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1400, 900
	}

	model, err := loadModel(context.Background(), path, log)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	m := metrics.New()
	s := session.New(session.Options{Config: opts.Config, Logger: log, Metrics: m})
	defer s.Close()
	if _, err := s.Load(model); err != nil {
		return err
	}

	app := newApp(s, m, opts, path)
	app.refresh()

	if err := app.setupFileWatcher(); err != nil {
		log.Warn("auto-reload disabled", "error", err)
	}
	defer app.closeWatcher()

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagWindowHighdpi | rl.FlagMsaa4xHint) // Must be before InitWindow
	rl.InitWindow(opts.Width, opts.Height, "gobim "+version.GetVersion()+" - "+s.Name())
	rl.SetTargetFPS(60)

	app.Model.material = rl.LoadMaterialDefault()
	bg := s.Scene().Background

	for {
		// ESC cancels pick modes instead of closing
		if rl.WindowShouldClose() && !rl.IsKeyPressed(rl.KeyEscape) {
			break
		}

		if !app.FileWatch.isLoading && app.FileWatch.needsReload.CompareAndSwap(true, false) {
			app.reloadModel()
		}
		app.applyLoadedModel()

		app.handleInput()

		width, height := int(rl.GetScreenWidth()), int(rl.GetScreenHeight())
		camera := toCamera(s.View(width, height))
		items := app.prepareFrame()
		app.updateHover(camera, items)

		rl.BeginDrawing()
		rl.ClearBackground(bg)

		rl.BeginMode3D(camera)
		app.drawScene(items)
		rl.EndMode3D()

		app.drawUI()
		rl.EndDrawing()
	}

	app.Model.unloadAll()
	rl.CloseWindow()
	return nil
}

// prepareFrame resolves the scene into draw calls, uploading new meshes
// and unloading those no longer drawn
func (app *App) prepareFrame() []drawItem {
	used := make(map[meshKey]bool)
	drawables := app.session.Scene().Drawables()
	items := make([]drawItem, 0, len(drawables))
	for _, d := range drawables {
		item := drawItem{drawable: d, matrix: toMatrix(d.World)}
		if d.Kind == scene.KindMesh {
			item.mesh = app.Model.meshFor(d.Buffer, d.Color)
			used[meshKey{buffer: d.Buffer, color: d.Color}] = true
		}
		items = append(items, item)
	}
	if n := app.Model.sweep(used); n > 0 {
		app.log.Debug("unloaded meshes", "count", n)
	}
	return items
}

// drawScene issues one DrawMesh per mesh node, so batched mode draws one
// mesh per color group. Overlays go last.
func (app *App) drawScene(items []drawItem) {
	app.UI.drawCalls = 0
	for _, it := range items {
		if it.drawable.Kind != scene.KindMesh {
			continue
		}
		rl.DrawMesh(it.mesh, app.Model.material, it.matrix)
		app.UI.drawCalls++
	}

	for _, it := range items {
		d := it.drawable
		col := rl.NewColor(d.Color.R, d.Color.G, d.Color.B, d.Color.A)
		switch d.Kind {
		case scene.KindMarker:
			center := d.World.Position()
			size := float32(d.World.TransformDirection(xAxis).Length())
			rl.DrawCube(toVector(center), size, size, size, col)
		case scene.KindLine:
			rl.DrawLine3D(toVector(d.World.TransformPoint(d.From)), toVector(d.World.TransformPoint(d.To)), col)
		}
	}

	if app.Interaction.hasHover {
		radius := float32(app.session.Camera().ModelSize() * 0.004)
		rl.DrawSphere(toVector(app.Interaction.hoverPoint), radius, rl.Yellow)
	}
}
