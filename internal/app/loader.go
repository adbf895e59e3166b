package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/philipparndt/gobim/internal/ingest"
	"github.com/philipparndt/gobim/pkg/watcher"
)

// loadModel reads a manifest with a loader of its own, so a background
// reload never shares a mesh cache with another load
func loadModel(ctx context.Context, path string, log *slog.Logger) (*ingest.Model, error) {
	loader := &ingest.Loader{Logger: log}
	return loader.Load(ctx, path)
}

// setupFileWatcher watches the manifest and every mesh file it references
func (app *App) setupFileWatcher() error {
	if app.FileWatch.fileWatcher == nil {
		fw, err := watcher.NewFileWatcher(500*time.Millisecond, app.log)
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		fw.Start()
		app.FileWatch.fileWatcher = fw
	}

	files := app.session.Sources()
	if err := app.FileWatch.fileWatcher.Replace(files, app.onFileChanged); err != nil {
		return fmt.Errorf("failed to watch files: %w", err)
	}
	app.log.Info("watching model files", "count", len(files))
	return nil
}

// onFileChanged runs on the watcher goroutine
func (app *App) onFileChanged(path string) {
	app.log.Info("file changed", "file", path)
	app.FileWatch.needsReload.Store(true)
}

func (app *App) closeWatcher() {
	if app.FileWatch.fileWatcher != nil {
		app.FileWatch.fileWatcher.Close()
	}
}

// reloadModel loads the source file in the background. The result is
// applied on the main thread by applyLoadedModel.
func (app *App) reloadModel() {
	if app.FileWatch.isLoading {
		return
	}
	app.FileWatch.isLoading = true
	app.FileWatch.loadingStartTime = time.Now()
	app.log.Info("reloading model", "file", app.FileWatch.sourceFile)

	source := app.FileWatch.sourceFile
	go func() {
		model, err := loadModel(context.Background(), source, app.log)
		app.FileWatch.loaded <- loadResult{model: model, err: err}
	}()
}

// applyLoadedModel installs a finished reload. The session keeps the camera,
// alignment and filters; meshes of the old model are unloaded by the next
// frame's sweep.
func (app *App) applyLoadedModel() {
	var res loadResult
	select {
	case res = <-app.FileWatch.loaded:
	default:
		return
	}
	app.FileWatch.isLoading = false

	if res.err != nil {
		app.log.Error("reload failed", "error", res.err)
		app.notify("Reload failed: " + res.err.Error())
		return
	}
	if _, err := app.session.Load(res.model); err != nil {
		app.log.Error("reload failed", "error", err)
		app.notify("Reload failed: " + err.Error())
		return
	}
	app.refresh()
	if err := app.setupFileWatcher(); err != nil {
		app.log.Warn("failed to watch model files", "error", err)
	}

	elapsed := time.Since(app.FileWatch.loadingStartTime)
	app.notify(fmt.Sprintf("Model reloaded in %.2fs", elapsed.Seconds()))
}
